package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/harvest/collection"
	"github.com/xraph/harvest/hook"
)

// Compile-time interface checks.
var (
	_ hook.Hook          = (*Hook)(nil)
	_ hook.RunTriggered  = (*Hook)(nil)
	_ hook.RunProgressed = (*Hook)(nil)
	_ hook.RunCompleted  = (*Hook)(nil)
	_ hook.RunCancelled  = (*Hook)(nil)
	_ hook.RunFailed     = (*Hook)(nil)
)

// Recorder is the interface that audit backends must implement.
// It is defined locally so the package does not depend on any concrete
// audit system — callers inject their backend at wiring time.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Hook bridges collection run lifecycle events to an audit trail
// backend. Each transition emits a structured audit event through the
// [Recorder].
type Hook struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates a Hook that emits audit events through the provided
// Recorder.
func New(r Recorder, opts ...Option) *Hook {
	h := &Hook{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name implements hook.Hook.
func (h *Hook) Name() string { return "audit-hook" }

// OnRunTriggered implements hook.RunTriggered.
func (h *Hook) OnRunTriggered(ctx context.Context, r *collection.Run) error {
	return h.record(ctx, ActionRunTriggered, SeverityInfo, OutcomeSuccess,
		r.ID.String(), nil,
		"owner_id", r.OwnerID,
		"type", string(r.Type),
		"services", len(r.Services),
	)
}

// OnRunProgressed implements hook.RunProgressed.
func (h *Hook) OnRunProgressed(ctx context.Context, r *collection.Run) error {
	return h.record(ctx, ActionRunProgressed, SeverityInfo, OutcomeSuccess,
		r.ID.String(), nil,
		"owner_id", r.OwnerID,
		"progress_percent", r.ProgressPercent,
		"records_processed", r.RecordsProcessed,
	)
}

// OnRunCompleted implements hook.RunCompleted.
func (h *Hook) OnRunCompleted(ctx context.Context, r *collection.Run) error {
	return h.record(ctx, ActionRunCompleted, SeverityInfo, OutcomeSuccess,
		r.ID.String(), nil,
		"owner_id", r.OwnerID,
		"type", string(r.Type),
		"records_processed", r.RecordsProcessed,
	)
}

// OnRunCancelled implements hook.RunCancelled.
func (h *Hook) OnRunCancelled(ctx context.Context, r *collection.Run) error {
	return h.record(ctx, ActionRunCancelled, SeverityWarning, OutcomeSuccess,
		r.ID.String(), nil,
		"owner_id", r.OwnerID,
		"progress_percent", r.ProgressPercent,
	)
}

// OnRunFailed implements hook.RunFailed.
func (h *Hook) OnRunFailed(ctx context.Context, r *collection.Run, runErr error) error {
	return h.record(ctx, ActionRunFailed, SeverityCritical, OutcomeFailure,
		r.ID.String(), runErr,
		"owner_id", r.OwnerID,
		"type", string(r.Type),
		"progress_percent", r.ProgressPercent,
	)
}

// record builds and sends an audit event if the action is enabled.
// The kvPairs argument is a list of key-value pairs added to Metadata.
func (h *Hook) record(
	ctx context.Context,
	action, severity, outcome string,
	resourceID string,
	err error,
	kvPairs ...any,
) error {
	if h.enabled != nil && !h.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   ResourceRun,
		Category:   CategoryRun,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := h.recorder.Record(ctx, evt); recErr != nil {
		h.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
