package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/harvest/collection"
)

// Recover returns middleware that recovers from panics in a collector.
// Panics are converted to errors and logged with a stack trace, so one
// misbehaving collector fails its run instead of crashing the worker.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, r *collection.Run, svc collection.Service, next Handler) (retErr error) {
		defer func() {
			if rec := recover(); rec != nil {
				stack := string(debug.Stack())
				logger.Error("collector panicked",
					slog.String("run_id", r.ID.String()),
					slog.String("service", string(svc)),
					slog.Any("panic", rec),
					slog.String("stack", stack),
				)
				retErr = fmt.Errorf("panic collecting %s: %v", svc, rec)
			}
		}()
		return next(ctx)
	}
}
