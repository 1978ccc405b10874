package middleware

import (
	"context"
	"time"

	"github.com/xraph/harvest/collection"
)

// Timeout returns middleware that enforces a per-service execution
// deadline. When the deadline is exceeded the context is cancelled and
// the collector should return context.DeadlineExceeded. A zero
// duration disables the deadline.
func Timeout(d time.Duration) Middleware {
	return func(ctx context.Context, _ *collection.Run, _ collection.Service, next Handler) error {
		if d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return next(ctx)
	}
}
