package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	// Config groups every tunable of the import daemon. Values come from the
	// environment with sensible defaults; CLI flags may override individual
	// fields after loading.
	Config struct {
		HTTP
		Backend
		Browser
		Import
		Database
		Poll
	}

	HTTP struct {
		Port int
		Host string
	}
	Backend struct {
		BaseURL string
		Token   string // Falls back to the stored Super2BrainToken when empty
	}
	Browser struct {
		ChromePath string
		Headless   bool
		Timeout    time.Duration // Per-attempt page load deadline
	}
	Import struct {
		ChunkSize      int
		MaxAttempts    int
		RetryDelay     time.Duration
		ExpandFolders  bool // Selected folders imply all descendant leaves
		BookmarksFile  string
		KeepAliveEvery time.Duration
	}
	Database struct {
		Path string
	}
	Poll struct {
		Interval time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.SetEnvPrefix("IMPORTD")
	v.AutomaticEnv()

	v.SetDefault("port", 8175)
	v.SetDefault("host", "localhost")
	v.SetDefault("backend_base_url", "https://api.super2brain.com")
	v.SetDefault("backend_token", "")
	v.SetDefault("chrome_path", "")
	v.SetDefault("headless", true)
	v.SetDefault("load_timeout", "30s")
	v.SetDefault("chunk_size", 5)
	v.SetDefault("max_attempts", 3)
	v.SetDefault("retry_delay", "2s")
	v.SetDefault("expand_folders", false)
	v.SetDefault("bookmarks_file", "")
	v.SetDefault("keep_alive_every", "20s")
	v.SetDefault("database_path", "importd.db")
	v.SetDefault("poll_interval", "5s")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt("PORT"),
			Host: v.GetString("HOST"),
		},
		Backend: Backend{
			BaseURL: v.GetString("BACKEND_BASE_URL"),
			Token:   v.GetString("BACKEND_TOKEN"),
		},
		Browser: Browser{
			ChromePath: v.GetString("CHROME_PATH"),
			Headless:   v.GetBool("HEADLESS"),
			Timeout:    v.GetDuration("LOAD_TIMEOUT"),
		},
		Import: Import{
			ChunkSize:      v.GetInt("CHUNK_SIZE"),
			MaxAttempts:    v.GetInt("MAX_ATTEMPTS"),
			RetryDelay:     v.GetDuration("RETRY_DELAY"),
			ExpandFolders:  v.GetBool("EXPAND_FOLDERS"),
			BookmarksFile:  v.GetString("BOOKMARKS_FILE"),
			KeepAliveEvery: v.GetDuration("KEEP_ALIVE_EVERY"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Poll: Poll{
			Interval: v.GetDuration("POLL_INTERVAL"),
		},
	}
}
