// Package hook defines lifecycle hooks for Harvest. Hooks are notified
// of run transitions (triggered, progressed, completed, cancelled,
// failed) and can react to them — audit logs, notifications, metrics.
//
// Each transition is a separate interface so hooks opt in only to the
// events they care about.
package hook

import (
	"context"

	"github.com/xraph/harvest/collection"
)

// Hook is the base interface all hooks must implement.
type Hook interface {
	// Name returns a unique human-readable name for the hook.
	Name() string
}

// RunTriggered is called after a run is created and handed to the
// dispatcher.
type RunTriggered interface {
	OnRunTriggered(ctx context.Context, r *collection.Run) error
}

// RunProgressed is called after a progress report is applied.
type RunProgressed interface {
	OnRunProgressed(ctx context.Context, r *collection.Run) error
}

// RunCompleted is called after a run finishes successfully.
type RunCompleted interface {
	OnRunCompleted(ctx context.Context, r *collection.Run) error
}

// RunCancelled is called after a run transitions to cancelled.
// It is not called for idempotent no-op cancels.
type RunCancelled interface {
	OnRunCancelled(ctx context.Context, r *collection.Run) error
}

// RunFailed is called when the dispatcher reports a terminal failure.
type RunFailed interface {
	OnRunFailed(ctx context.Context, r *collection.Run, err error) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
