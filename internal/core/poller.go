package core

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/super2brain/importd/internal/core/store"
)

// TaskStatusChecker fetches the current remote status of a task.
// BackendClient is the real implementation.
type TaskStatusChecker interface {
	TaskStatus(ctx context.Context, taskID string) (TaskHandle, error)
}

// Poller periodically re-checks every non-terminal task against the backend
// and merges updated statuses into the store. Status checks are cheap reads,
// so unlike the import pipeline they run in parallel.
type Poller struct {
	store    *store.Store
	backend  TaskStatusChecker
	interval time.Duration
}

func NewPoller(st *store.Store, backend TaskStatusChecker, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{store: st, backend: backend, interval: interval}
}

// Run polls until no pending tasks remain or the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		remaining, err := p.PollOnce(ctx)
		if err != nil {
			log.Printf("Task poll failed: %v", err)
		}
		if err == nil && remaining == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// PollOnce checks every pending task once and returns how many tasks are
// still non-terminal afterwards. A task's status only ever moves from
// non-terminal to terminal here; terminal tasks are never re-polled.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	pending, err := p.store.ListPendingTasks()
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	statuses := make([]string, len(pending))
	var wg sync.WaitGroup
	for i, t := range pending {
		wg.Add(1)
		go func(i int, t store.Task) {
			defer wg.Done()
			handle, err := p.backend.TaskStatus(ctx, t.TaskID)
			if err != nil {
				log.Printf("Status check failed for task %s: %v", t.TaskID, err)
				return
			}
			statuses[i] = handle.Status
		}(i, t)
	}
	wg.Wait()

	for i := range pending {
		status := statuses[i]
		if status == "" || status == pending[i].Status {
			continue
		}
		if err := p.store.UpdateTaskStatus(pending[i].TaskID, status); err != nil {
			log.Printf("Failed to update task %s: %v", pending[i].TaskID, err)
			continue
		}
		pending[i].Status = status
	}

	remaining := lo.CountBy(pending, func(t store.Task) bool {
		return !store.IsTerminalStatus(t.Status)
	})
	return remaining, nil
}
