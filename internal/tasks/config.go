package tasks

import "time"

// Config holds configuration for the task queue.
type Config struct {
	// Workers is the number of concurrent task workers. Default: 1, which
	// keeps backups and imports from running against the store at once.
	Workers int

	// ReleaseAfter is when stuck tasks are released back to queue. Default: 30m
	ReleaseAfter time.Duration

	// CleanupInterval is how often finished tasks are purged. Default: 1h
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Workers:         1,
		ReleaseAfter:    30 * time.Minute,
		CleanupInterval: time.Hour,
	}
}
