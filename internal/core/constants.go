package core

import "time"

// Import pipeline defaults
const (
	// DefaultChunkSize bounds how many bookmarks are processed between
	// progress checkpoints.
	DefaultChunkSize = 5
	// DefaultMaxAttempts is the total number of extraction attempts per URL.
	DefaultMaxAttempts = 3
)

// Timeout defaults for extraction and backend operations
const (
	DefaultLoadTimeout       = 30 * time.Second
	DefaultRetryDelay        = 2 * time.Second
	DefaultNetworkIdleDelay  = 500 * time.Millisecond
	DefaultRequestTimeout    = 30 * time.Second
	DefaultKeepAliveInterval = 20 * time.Second
	DefaultPollInterval      = 5 * time.Second
)

// HTTP client configuration
const (
	UserAgent = "Mozilla/5.0 (compatible; importd/1.0)"
)
