package store

import (
	"os"
	"path/filepath"
	"testing"
)

// newTestStore creates a new in-memory SQLite store for testing.
// It runs migrations and returns the Store instance.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	if err := st.Migrate(); err != nil {
		t.Fatalf("failed to migrate test store: %v", err)
	}
	return st
}

// TestNewSQLiteStore tests store creation.
func TestNewSQLiteStore(t *testing.T) {
	t.Run("in-memory store", func(t *testing.T) {
		st, err := NewSQLiteStore(":memory:")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer st.Close()

		if st.db == nil {
			t.Error("expected st.db to be non-nil")
		}
		if st.eventListeners == nil {
			t.Error("expected eventListeners to be initialized")
		}
	})

	t.Run("file store", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "importd.db")
		st, err := NewSQLiteStore(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer st.Close()

		if err := st.Migrate(); err != nil {
			t.Fatalf("failed to migrate: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected database file to exist: %v", err)
		}
	})
}

// TestMigrate tests that migrations are idempotent.
func TestMigrate(t *testing.T) {
	t.Run("migrating twice succeeds", func(t *testing.T) {
		st := newTestStore(t)
		defer st.Close()

		if err := st.Migrate(); err != nil {
			t.Fatalf("second migrate failed: %v", err)
		}
	})
}

// TestPing tests the keep-alive ping.
func TestPing(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	if err := st.Ping(); err != nil {
		t.Errorf("expected ping to succeed, got %v", err)
	}
}
