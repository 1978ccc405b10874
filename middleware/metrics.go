package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/harvest/collection"
)

// meterName is the instrumentation scope name for harvest metrics.
const meterName = "github.com/xraph/harvest"

// Metrics returns middleware that records per-service collection
// metrics using the global OTel MeterProvider. If no MeterProvider is
// configured, noop instruments are used and this middleware becomes a
// pass-through.
//
// Instruments:
//   - harvest.collection.duration (Float64Histogram): collection time in
//     seconds, with attributes: service, type, status ("ok" or "error")
//   - harvest.collection.executions (Int64Counter): total service
//     collections, with attributes: service, type, status ("ok" or "error")
func Metrics() Middleware {
	meter := otel.Meter(meterName)
	return MetricsWithMeter(meter)
}

// MetricsWithMeter returns metrics middleware using the provided meter.
// This variant allows injecting a specific MeterProvider for testing.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// Create instruments once at middleware construction time.
	// OTel instruments are safe for concurrent use. On error, the API
	// returns noop instruments so the middleware degrades gracefully.
	duration, dErr := meter.Float64Histogram(
		"harvest.collection.duration",
		metric.WithDescription("Duration of service collection in seconds"),
		metric.WithUnit("s"),
	)
	_ = dErr // noop fallback guaranteed by OTel API contract

	executions, eErr := meter.Int64Counter(
		"harvest.collection.executions",
		metric.WithDescription("Total number of service collections"),
		metric.WithUnit("{execution}"),
	)
	_ = eErr // noop fallback guaranteed by OTel API contract

	return func(ctx context.Context, r *collection.Run, svc collection.Service, next Handler) error {
		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start).Seconds()

		status := "ok"
		if err != nil {
			status = "error"
		}

		attrs := metric.WithAttributes(
			attribute.String("service", string(svc)),
			attribute.String("type", string(r.Type)),
			attribute.String("status", status),
		)

		duration.Record(ctx, elapsed, attrs)
		executions.Add(ctx, 1, attrs)

		return err
	}
}
