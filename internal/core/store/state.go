package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Key-value layout inherited from the extension's local storage. The counter
// keys are read individually by status consumers, but writes always go through
// SaveRunState so they land together.
const (
	keySuccessCount    = "successCount"
	keyFailedCount     = "failedCount"
	keyProgress        = "progress"
	keyHasError        = "hasError"
	keyIsProcessing    = "isProcessing"
	keyTotalBookmarks  = "totalBookmarks"
	keyToken           = "Super2BrainToken"
	keyRemainingChunks = "remainingChunks"
	keyTotalChunks     = "totalChunks"
)

// ErrKeyNotFound is returned when a key-value entry has never been written.
var ErrKeyNotFound = errors.New("key not found")

func (s *Store) getValue(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}
		return "", fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) setValue(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

func setValueTx(tx *sql.Tx, key, value string) error {
	_, err := tx.Exec(`
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

func (s *Store) getInt(key string) (int, error) {
	value, err := s.getValue(key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("failed to parse key %s: %w", key, err)
	}
	return n, nil
}

func (s *Store) getBool(key string) (bool, error) {
	value, err := s.getValue(key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return value == "true", nil
}

// SaveRunState persists all progress counters in one transaction. Callers
// treat this as the checkpoint primitive: it runs after every URL and after
// every chunk.
func (s *Store) SaveRunState(state RunState) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	pairs := map[string]string{
		keySuccessCount:   strconv.Itoa(state.SuccessCount),
		keyFailedCount:    strconv.Itoa(state.FailedCount),
		keyProgress:       strconv.Itoa(state.Progress),
		keyTotalBookmarks: strconv.Itoa(state.TotalBookmarks),
		keyIsProcessing:   strconv.FormatBool(state.IsProcessing),
		keyHasError:       strconv.FormatBool(state.HasError),
	}
	for key, value := range pairs {
		if err := setValueTx(tx, key, value); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run state: %w", err)
	}
	return nil
}

// LoadRunState reads the persisted counters. Missing keys read as zero
// values, so a fresh database yields an idle state.
func (s *Store) LoadRunState() (RunState, error) {
	var state RunState
	var err error

	if state.SuccessCount, err = s.getInt(keySuccessCount); err != nil {
		return RunState{}, err
	}
	if state.FailedCount, err = s.getInt(keyFailedCount); err != nil {
		return RunState{}, err
	}
	if state.Progress, err = s.getInt(keyProgress); err != nil {
		return RunState{}, err
	}
	if state.TotalBookmarks, err = s.getInt(keyTotalBookmarks); err != nil {
		return RunState{}, err
	}
	if state.IsProcessing, err = s.getBool(keyIsProcessing); err != nil {
		return RunState{}, err
	}
	if state.HasError, err = s.getBool(keyHasError); err != nil {
		return RunState{}, err
	}
	return state, nil
}

// SetProcessing flips only the liveness flag, leaving counters untouched.
// The orchestrator's deferred cleanup uses it so a crashed run cannot leave
// the UI permanently "processing".
func (s *Store) SetProcessing(processing bool) error {
	return s.setValue(keyIsProcessing, strconv.FormatBool(processing))
}

// SetHasError records a run-level failure (e.g. flattening threw before any
// chunk was processed).
func (s *Store) SetHasError(hasError bool) error {
	return s.setValue(keyHasError, strconv.FormatBool(hasError))
}

func (s *Store) SetToken(token string) error {
	return s.setValue(keyToken, token)
}

func (s *Store) GetToken() (string, error) {
	token, err := s.getValue(keyToken)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return "", nil
		}
		return "", err
	}
	return token, nil
}

// SaveRemainingChunks records the chunks that have not finished yet. The
// orchestrator rewrites this after every completed chunk, so a restart resumes
// from the first unfinished chunk. An empty slice clears the entry together
// with the persisted chunk total.
func (s *Store) SaveRemainingChunks(chunks [][]FlatBookmark) error {
	if len(chunks) == 0 {
		_, err := s.db.Exec("DELETE FROM kv WHERE key IN (?, ?)", keyRemainingChunks, keyTotalChunks)
		if err != nil {
			return fmt.Errorf("failed to clear remaining chunks: %w", err)
		}
		return nil
	}
	data, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("failed to marshal remaining chunks: %w", err)
	}
	return s.setValue(keyRemainingChunks, string(data))
}

// LoadRemainingChunks returns the unfinished chunks of an interrupted run, or
// nil when there is nothing to resume.
func (s *Store) LoadRemainingChunks() ([][]FlatBookmark, error) {
	value, err := s.getValue(keyRemainingChunks)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var chunks [][]FlatBookmark
	if err := json.Unmarshal([]byte(value), &chunks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal remaining chunks: %w", err)
	}
	return chunks, nil
}

// SaveTotalChunks records how many chunks the current run started with.
// Resumed runs compute progress against this rather than re-deriving it from
// their own chunk size, which may differ from the interrupted run's.
func (s *Store) SaveTotalChunks(n int) error {
	return s.setValue(keyTotalChunks, strconv.Itoa(n))
}

// LoadTotalChunks returns the interrupted run's chunk total, or 0 when none
// was recorded.
func (s *Store) LoadTotalChunks() (int, error) {
	return s.getInt(keyTotalChunks)
}
