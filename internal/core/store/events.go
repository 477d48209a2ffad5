package store

import "log"

// ------------------------------
// Event System
// ------------------------------
//
// The Store emits typed events when tasks are created or change status.
// Register listeners to react to these changes, e.g. to log submissions or
// nudge the poller when new work appears.
//
// Example usage:
//
//	st.RegisterEventListener(store.OnTaskCreatedEvent, func(event store.Event) error {
//	    ev := event.(store.TaskCreatedEvent)
//	    log.Printf("New task created: %s - %s", ev.Task.TaskID, ev.Task.URL)
//	    return nil
//	})
//
// Event is the common interface for all store events.
type Event interface {
	Kind() EventKind
}

// EventKind represents all the kinds of events that can be emitted by the Store.
type EventKind int

const (
	// OnTaskCreatedEvent is emitted when a task is recorded after submission.
	OnTaskCreatedEvent EventKind = iota
	// OnTaskStatusChangedEvent is emitted when the poller moves a task to a
	// new status.
	OnTaskStatusChangedEvent
)

func (k EventKind) String() string {
	switch k {
	case OnTaskCreatedEvent:
		return "task_created"
	case OnTaskStatusChangedEvent:
		return "task_status_changed"
	default:
		return "unknown"
	}
}

// TaskCreatedEvent is emitted after a new task is successfully inserted.
type TaskCreatedEvent struct {
	Task Task
}

func (e TaskCreatedEvent) Kind() EventKind { return OnTaskCreatedEvent }

// TaskStatusChangedEvent is emitted after a task's status is updated. The
// Task field carries the new status.
type TaskStatusChangedEvent struct {
	Task Task
}

func (e TaskStatusChangedEvent) Kind() EventKind { return OnTaskStatusChangedEvent }

// EventListener is a callback that handles events of a specific kind.
type EventListener func(event Event) error

// RegisterEventListener adds a listener for a specific event kind.
// Listeners are called synchronously in registration order after the store
// operation succeeds.
func (s *Store) RegisterEventListener(eventKind EventKind, listener EventListener) {
	if s.eventListeners == nil {
		s.eventListeners = make(map[EventKind][]EventListener)
	}
	s.eventListeners[eventKind] = append(s.eventListeners[eventKind], listener)
}

// emit dispatches an event to all registered listeners for that event kind.
func (s *Store) emit(event Event) {
	listeners := s.eventListeners[event.Kind()]
	for _, listener := range listeners {
		if err := listener(event); err != nil {
			log.Printf("Event listener error for %s: %v", event.Kind(), err)
		}
	}
}
