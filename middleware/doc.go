// Package middleware provides composable middleware for service
// collection. Middleware wraps each per-service collector call
// synchronously and can modify execution (recover from panics, log,
// enforce deadlines, record metrics and spans).
//
// # Composition
//
// Build a chain once and hand it to the worker runner:
//
//	mw := middleware.Chain(
//	    middleware.Logging(logger),
//	    middleware.Recover(logger),
//	    middleware.Timeout(5*time.Minute),
//	    middleware.Metrics(),
//	    middleware.Tracing(),
//	)
//
// The first middleware in the list is the outermost wrapper.
package middleware
