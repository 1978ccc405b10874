package harvest

import "time"

// Config holds tracker-wide configuration.
type Config struct {
	// Concurrency is the maximum number of collection runs executed
	// concurrently by the reference dispatcher.
	Concurrency int

	// ServiceTimeout is the per-service execution deadline. Zero means
	// no deadline.
	ServiceTimeout time.Duration

	// MaxRetries is how many times a failing service collector is
	// retried before the run is marked failed.
	MaxRetries int

	// ShutdownTimeout is the maximum time to wait for in-flight runs
	// during graceful shutdown.
	ShutdownTimeout time.Duration

	// EstimatedDurations maps collection type to the informational
	// duration string returned at trigger time.
	EstimatedDurations map[string]string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:     10,
		ServiceTimeout:  5 * time.Minute,
		MaxRetries:      3,
		ShutdownTimeout: 30 * time.Second,
		EstimatedDurations: map[string]string{
			"full":        "10-15 minutes",
			"incremental": "2-5 minutes",
			"targeted":    "1-3 minutes",
		},
	}
}
