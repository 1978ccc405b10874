package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/harvest/collection"
)

// tracerName is the instrumentation scope name for harvest tracing.
const tracerName = "github.com/xraph/harvest"

// Tracing returns middleware that wraps service collection in an
// OpenTelemetry span. If no TracerProvider is configured globally, the
// default noop tracer is used and this middleware becomes a
// pass-through with zero overhead.
//
// Span attributes include: harvest.run.id, harvest.run.type,
// harvest.run.owner_id, harvest.service. On error, the span status is
// set to codes.Error with the error message.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided
// tracer. This variant allows injecting a specific TracerProvider for
// testing or when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, r *collection.Run, svc collection.Service, next Handler) error {
		ctx, span := tracer.Start(ctx, "harvest.collection.collect",
			trace.WithAttributes(
				attribute.String("harvest.run.id", r.ID.String()),
				attribute.String("harvest.run.type", string(r.Type)),
				attribute.String("harvest.run.owner_id", r.OwnerID),
				attribute.String("harvest.service", string(svc)),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
