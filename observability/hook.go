package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/harvest/collection"
	"github.com/xraph/harvest/hook"
)

// meterName is the instrumentation scope name for harvest metrics.
const meterName = "github.com/xraph/harvest"

// Compile-time interface checks.
var (
	_ hook.Hook         = (*MetricsHook)(nil)
	_ hook.RunTriggered = (*MetricsHook)(nil)
	_ hook.RunCompleted = (*MetricsHook)(nil)
	_ hook.RunCancelled = (*MetricsHook)(nil)
	_ hook.RunFailed    = (*MetricsHook)(nil)
)

// MetricsHook counts run lifecycle events. It is safe for concurrent
// use; OTel instruments handle their own synchronization.
type MetricsHook struct {
	triggered metric.Int64Counter
	completed metric.Int64Counter
	cancelled metric.Int64Counter
	failed    metric.Int64Counter
}

// NewMetricsHook creates a metrics hook using the global OTel
// MeterProvider. If none is configured, the instruments are noops.
func NewMetricsHook() *MetricsHook {
	return NewMetricsHookWithMeter(otel.Meter(meterName))
}

// NewMetricsHookWithMeter creates a metrics hook using the provided
// meter. This variant allows injecting a specific MeterProvider for
// testing.
func NewMetricsHookWithMeter(meter metric.Meter) *MetricsHook {
	h := &MetricsHook{}

	// On error the OTel API returns noop instruments, so the hook
	// degrades gracefully instead of failing construction.
	h.triggered, _ = meter.Int64Counter( //nolint:errcheck // noop fallback
		"harvest.run.triggered",
		metric.WithDescription("Total number of collection runs triggered"),
		metric.WithUnit("{run}"),
	)
	h.completed, _ = meter.Int64Counter( //nolint:errcheck // noop fallback
		"harvest.run.completed",
		metric.WithDescription("Total number of collection runs completed"),
		metric.WithUnit("{run}"),
	)
	h.cancelled, _ = meter.Int64Counter( //nolint:errcheck // noop fallback
		"harvest.run.cancelled",
		metric.WithDescription("Total number of collection runs cancelled"),
		metric.WithUnit("{run}"),
	)
	h.failed, _ = meter.Int64Counter( //nolint:errcheck // noop fallback
		"harvest.run.failed",
		metric.WithDescription("Total number of collection runs failed"),
		metric.WithUnit("{run}"),
	)

	return h
}

// Name returns the hook name.
func (h *MetricsHook) Name() string { return "observability-metrics" }

// OnRunTriggered increments the triggered counter.
func (h *MetricsHook) OnRunTriggered(ctx context.Context, r *collection.Run) error {
	h.triggered.Add(ctx, 1, typeAttr(r))
	return nil
}

// OnRunCompleted increments the completed counter.
func (h *MetricsHook) OnRunCompleted(ctx context.Context, r *collection.Run) error {
	h.completed.Add(ctx, 1, typeAttr(r))
	return nil
}

// OnRunCancelled increments the cancelled counter.
func (h *MetricsHook) OnRunCancelled(ctx context.Context, r *collection.Run) error {
	h.cancelled.Add(ctx, 1, typeAttr(r))
	return nil
}

// OnRunFailed increments the failed counter.
func (h *MetricsHook) OnRunFailed(ctx context.Context, r *collection.Run, _ error) error {
	h.failed.Add(ctx, 1, typeAttr(r))
	return nil
}

func typeAttr(r *collection.Run) metric.AddOption {
	return metric.WithAttributes(attribute.String("type", string(r.Type)))
}
