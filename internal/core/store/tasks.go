package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"
)

// ErrTaskTerminal is returned when a caller tries to mutate a task that has
// already reached SUCCESS or FAILURE.
var ErrTaskTerminal = errors.New("task already terminal")

// InsertTask records a freshly submitted URL. TaskID must be unique; the
// primary key enforces it. Emits a TaskCreatedEvent after a successful insert.
func (s *Store) InsertTask(t Task) error {
	if t.TaskID == "" {
		return fmt.Errorf("failed to insert task: empty task id")
	}
	if t.CreatedAt == "" {
		t.CreatedAt = time.Now().Format(time.RFC3339)
	}
	if t.Status == "" {
		t.Status = StatusPending
	}

	_, err := s.db.Exec(
		"INSERT INTO tasks (task_id, url, title, status, created_at) VALUES (?, ?, ?, ?, ?)",
		t.TaskID, t.URL, t.Title, t.Status, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	s.emit(TaskCreatedEvent{Task: t})
	return nil
}

func (s *Store) GetTask(taskID string) (Task, error) {
	var t Task
	err := s.db.QueryRow(
		"SELECT task_id, url, title, status, created_at FROM tasks WHERE task_id = ?",
		taskID,
	).Scan(&t.TaskID, &t.URL, &t.Title, &t.Status, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, fmt.Errorf("task not found: %s", taskID)
		}
		return Task{}, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// ListTasks returns tasks newest first, matching the extension's
// prepend-to-front task list ordering.
func (s *Store) ListTasks(limit int) ([]Task, error) {
	query := `
		SELECT task_id, url, title, status, created_at
		FROM tasks
		ORDER BY created_at DESC, rowid DESC
	`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.Query(query+" LIMIT ?", limit)
	} else {
		rows, err = s.db.Query(query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	return scanTasks(rows)
}

// ListPendingTasks returns every task whose status is not terminal, newest
// first. The poller uses this to decide what still needs a status check.
func (s *Store) ListPendingTasks() ([]Task, error) {
	rows, err := s.db.Query(`
		SELECT task_id, url, title, status, created_at
		FROM tasks
		WHERE status NOT IN (?, ?)
		ORDER BY created_at DESC, rowid DESC
	`, StatusSuccess, StatusFailure)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending tasks: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	return scanTasks(rows)
}

// UpdateTaskStatus moves a task to a new status. Terminal tasks are never
// mutated again; attempting to do so returns ErrTaskTerminal. Emits a
// TaskStatusChangedEvent when the status actually changed.
func (s *Store) UpdateTaskStatus(taskID, status string) error {
	current, err := s.GetTask(taskID)
	if err != nil {
		return err
	}
	if IsTerminalStatus(current.Status) {
		return fmt.Errorf("%w: %s", ErrTaskTerminal, taskID)
	}
	if current.Status == status {
		return nil
	}

	_, err = s.db.Exec("UPDATE tasks SET status = ? WHERE task_id = ?", status, taskID)
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}

	current.Status = status
	s.emit(TaskStatusChangedEvent{Task: current})
	return nil
}

func scanTasks(rows *sql.Rows) ([]Task, error) {
	var out []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.TaskID, &t.URL, &t.Title, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, nil
}
