package hook

import (
	"context"
	"log/slog"

	"github.com/xraph/harvest/collection"
)

// Named entry types pair a hook implementation with the hook name
// captured at registration time. This avoids type-asserting back to
// Hook inside the emit methods.
type runTriggeredEntry struct {
	name string
	hook RunTriggered
}

type runProgressedEntry struct {
	name string
	hook RunProgressed
}

type runCompletedEntry struct {
	name string
	hook RunCompleted
}

type runCancelledEntry struct {
	name string
	hook RunCancelled
}

type runFailedEntry struct {
	name string
	hook RunFailed
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered hooks and dispatches lifecycle events to
// them. It type-caches hooks at registration time so emit calls iterate
// only over hooks that implement the relevant interface.
type Registry struct {
	hooks  []Hook
	logger *slog.Logger

	runTriggered  []runTriggeredEntry
	runProgressed []runProgressedEntry
	runCompleted  []runCompletedEntry
	runCancelled  []runCancelledEntry
	runFailed     []runFailedEntry
	shutdown      []shutdownEntry
}

// NewRegistry creates a hook registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a hook and type-asserts it into all applicable caches.
// Hooks are notified in registration order.
func (r *Registry) Register(h Hook) {
	r.hooks = append(r.hooks, h)
	name := h.Name()

	if t, ok := h.(RunTriggered); ok {
		r.runTriggered = append(r.runTriggered, runTriggeredEntry{name, t})
	}
	if t, ok := h.(RunProgressed); ok {
		r.runProgressed = append(r.runProgressed, runProgressedEntry{name, t})
	}
	if t, ok := h.(RunCompleted); ok {
		r.runCompleted = append(r.runCompleted, runCompletedEntry{name, t})
	}
	if t, ok := h.(RunCancelled); ok {
		r.runCancelled = append(r.runCancelled, runCancelledEntry{name, t})
	}
	if t, ok := h.(RunFailed); ok {
		r.runFailed = append(r.runFailed, runFailedEntry{name, t})
	}
	if t, ok := h.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, t})
	}
}

// Hooks returns all registered hooks.
func (r *Registry) Hooks() []Hook { return r.hooks }

// EmitRunTriggered notifies all hooks that implement RunTriggered.
func (r *Registry) EmitRunTriggered(ctx context.Context, run *collection.Run) {
	for _, e := range r.runTriggered {
		if err := e.hook.OnRunTriggered(ctx, run); err != nil {
			r.logHookError("OnRunTriggered", e.name, err)
		}
	}
}

// EmitRunProgressed notifies all hooks that implement RunProgressed.
func (r *Registry) EmitRunProgressed(ctx context.Context, run *collection.Run) {
	for _, e := range r.runProgressed {
		if err := e.hook.OnRunProgressed(ctx, run); err != nil {
			r.logHookError("OnRunProgressed", e.name, err)
		}
	}
}

// EmitRunCompleted notifies all hooks that implement RunCompleted.
func (r *Registry) EmitRunCompleted(ctx context.Context, run *collection.Run) {
	for _, e := range r.runCompleted {
		if err := e.hook.OnRunCompleted(ctx, run); err != nil {
			r.logHookError("OnRunCompleted", e.name, err)
		}
	}
}

// EmitRunCancelled notifies all hooks that implement RunCancelled.
func (r *Registry) EmitRunCancelled(ctx context.Context, run *collection.Run) {
	for _, e := range r.runCancelled {
		if err := e.hook.OnRunCancelled(ctx, run); err != nil {
			r.logHookError("OnRunCancelled", e.name, err)
		}
	}
}

// EmitRunFailed notifies all hooks that implement RunFailed.
func (r *Registry) EmitRunFailed(ctx context.Context, run *collection.Run, runErr error) {
	for _, e := range r.runFailed {
		if err := e.hook.OnRunFailed(ctx, run, runErr); err != nil {
			r.logHookError("OnRunFailed", e.name, err)
		}
	}
}

// EmitShutdown notifies all hooks that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a hook failure. Hook errors never propagate to the
// tracker; a misbehaving hook must not break run processing.
func (r *Registry) logHookError(event, name string, err error) {
	r.logger.Error("hook error",
		slog.String("event", event),
		slog.String("hook", name),
		slog.String("error", err.Error()),
	)
}
