/*
Copyright © 2026 Super2Brain
*/
package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/super2brain/importd/internal/config"
	"github.com/super2brain/importd/internal/core/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	if err := st.Migrate(); err != nil {
		t.Fatalf("failed to migrate test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// TestLoadConfig tests CLI flag overrides on top of the environment config.
func TestLoadConfig(t *testing.T) {
	t.Run("unset flags keep config values", func(t *testing.T) {
		cfg := loadConfig(rootCmd)
		if cfg.HTTP.Port != 8175 {
			t.Errorf("expected default port, got %d", cfg.HTTP.Port)
		}
		if !cfg.Browser.Headless {
			t.Error("expected headless default")
		}
	})

	t.Run("set flags override config values", func(t *testing.T) {
		// db and base-url live on the persistent flag set; they are only
		// merged into Flags() during command execution.
		for flag, value := range map[string]string{
			"db":       "/tmp/override.db",
			"base-url": "https://staging.super2brain.com",
		} {
			if err := rootCmd.PersistentFlags().Set(flag, value); err != nil {
				t.Fatalf("failed to set flag %s: %v", flag, err)
			}
		}
		for flag, value := range map[string]string{
			"port":    "9999",
			"headful": "true",
		} {
			if err := rootCmd.Flags().Set(flag, value); err != nil {
				t.Fatalf("failed to set flag %s: %v", flag, err)
			}
		}
		defer func() {
			rootCmd.PersistentFlags().Set("db", "")
			rootCmd.PersistentFlags().Set("base-url", "")
			rootCmd.Flags().Set("port", "0")
			rootCmd.Flags().Set("headful", "false")
		}()

		cfg := loadConfig(rootCmd)
		if cfg.HTTP.Port != 9999 {
			t.Errorf("expected port 9999, got %d", cfg.HTTP.Port)
		}
		if cfg.Database.Path != "/tmp/override.db" {
			t.Errorf("expected overridden db path, got %q", cfg.Database.Path)
		}
		if cfg.Backend.BaseURL != "https://staging.super2brain.com" {
			t.Errorf("expected overridden base URL, got %q", cfg.Backend.BaseURL)
		}
		if cfg.Browser.Headless {
			t.Error("expected headful flag to disable headless")
		}
	})
}

// TestResolveToken tests the configured-over-stored precedence.
func TestResolveToken(t *testing.T) {
	t.Run("configured token wins", func(t *testing.T) {
		st := newTestStore(t)
		if err := st.SetToken("stored"); err != nil {
			t.Fatalf("failed to store token: %v", err)
		}

		cfg := &config.Config{}
		cfg.Backend.Token = "configured"
		token, err := resolveToken(st, cfg)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token != "configured" {
			t.Errorf("expected configured token, got %q", token)
		}
	})

	t.Run("falls back to the stored token", func(t *testing.T) {
		st := newTestStore(t)
		if err := st.SetToken("stored"); err != nil {
			t.Fatalf("failed to store token: %v", err)
		}

		token, err := resolveToken(st, &config.Config{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token != "stored" {
			t.Errorf("expected stored token, got %q", token)
		}
	})
}

// TestLoadBookmarksFile tests the file-backed tree loader.
func TestLoadBookmarksFile(t *testing.T) {
	t.Run("parses an exported tree", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bookmarks.json")
		data := `[{"id":"bar","title":"Bookmarks Bar","children":[{"id":"b1","title":"Go","url":"https://go.dev"}]}]`
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}

		roots, err := loadBookmarksFile(path)(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(roots) != 1 || len(roots[0].Children) != 1 || roots[0].Children[0].URL != "https://go.dev" {
			t.Errorf("unexpected tree %+v", roots)
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		if _, err := loadBookmarksFile(filepath.Join(t.TempDir(), "nope.json"))(context.Background()); err == nil {
			t.Error("expected error for missing file, got nil")
		}
	})

	t.Run("unconfigured path is an error", func(t *testing.T) {
		if _, err := loadBookmarksFile("")(context.Background()); err == nil {
			t.Error("expected error for empty path, got nil")
		}
	})

	t.Run("malformed JSON is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}
		if _, err := loadBookmarksFile(path)(context.Background()); err == nil {
			t.Error("expected error for malformed JSON, got nil")
		}
	})
}
