package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/harvest/collection"
)

// Logging returns middleware that logs service collection start and
// completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, r *collection.Run, svc collection.Service, next Handler) error {
		logger.Info("service collection started",
			slog.String("run_id", r.ID.String()),
			slog.String("service", string(svc)),
			slog.String("type", string(r.Type)),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("service collection failed",
				slog.String("run_id", r.ID.String()),
				slog.String("service", string(svc)),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("service collection completed",
				slog.String("run_id", r.ID.String()),
				slog.String("service", string(svc)),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
