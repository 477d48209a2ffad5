package config

import (
	"testing"
	"time"
)

// TestNewConfig tests default values and environment overrides.
func TestNewConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := NewConfig()

		if cfg.HTTP.Port != 8175 || cfg.HTTP.Host != "localhost" {
			t.Errorf("unexpected HTTP defaults %+v", cfg.HTTP)
		}
		if cfg.Backend.BaseURL != "https://api.super2brain.com" {
			t.Errorf("unexpected backend base URL %q", cfg.Backend.BaseURL)
		}
		if !cfg.Browser.Headless || cfg.Browser.Timeout != 30*time.Second {
			t.Errorf("unexpected browser defaults %+v", cfg.Browser)
		}
		if cfg.Import.ChunkSize != 5 || cfg.Import.MaxAttempts != 3 || cfg.Import.RetryDelay != 2*time.Second {
			t.Errorf("unexpected import defaults %+v", cfg.Import)
		}
		if cfg.Import.KeepAliveEvery != 20*time.Second {
			t.Errorf("unexpected keep-alive default %v", cfg.Import.KeepAliveEvery)
		}
		if cfg.Database.Path != "importd.db" {
			t.Errorf("unexpected database path %q", cfg.Database.Path)
		}
		if cfg.Poll.Interval != 5*time.Second {
			t.Errorf("unexpected poll interval %v", cfg.Poll.Interval)
		}
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("IMPORTD_PORT", "9000")
		t.Setenv("IMPORTD_BACKEND_BASE_URL", "https://staging.super2brain.com")
		t.Setenv("IMPORTD_HEADLESS", "false")
		t.Setenv("IMPORTD_CHUNK_SIZE", "10")
		t.Setenv("IMPORTD_POLL_INTERVAL", "1s")

		cfg := NewConfig()

		if cfg.HTTP.Port != 9000 {
			t.Errorf("expected port 9000, got %d", cfg.HTTP.Port)
		}
		if cfg.Backend.BaseURL != "https://staging.super2brain.com" {
			t.Errorf("expected staging base URL, got %q", cfg.Backend.BaseURL)
		}
		if cfg.Browser.Headless {
			t.Error("expected headless disabled")
		}
		if cfg.Import.ChunkSize != 10 {
			t.Errorf("expected chunk size 10, got %d", cfg.Import.ChunkSize)
		}
		if cfg.Poll.Interval != time.Second {
			t.Errorf("expected 1s poll interval, got %v", cfg.Poll.Interval)
		}
	})
}
