// Package engine wires all Harvest subsystems together: store, access
// guard, quota limiter, hook registry, middleware chain, collector
// registry, worker pool, and lifecycle tracker. It sits above the
// subsystem packages and below the application layer.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/harvest"
	"github.com/xraph/harvest/access"
	"github.com/xraph/harvest/backoff"
	"github.com/xraph/harvest/collection"
	"github.com/xraph/harvest/hook"
	"github.com/xraph/harvest/lifecycle"
	mw "github.com/xraph/harvest/middleware"
	"github.com/xraph/harvest/quota"
	"github.com/xraph/harvest/store"
	"github.com/xraph/harvest/worker"
)

// Engine is the assembled collection tracking system.
type Engine struct {
	store      store.Store
	tracker    *lifecycle.Tracker
	collectors *worker.Registry
	pool       *worker.Pool
	quotas     *quota.Manager
	logger     *slog.Logger
	config     harvest.Config

	hooks        []hook.Hook
	mws          []mw.Middleware
	bo           backoff.Strategy
	quotaConfigs []quota.Config

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for the engine and every subsystem it
// builds.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithConfig sets the engine configuration.
func WithConfig(c harvest.Config) Option {
	return func(e *Engine) { e.config = c }
}

// WithHook registers a lifecycle hook with the tracker.
func WithHook(h hook.Hook) Option {
	return func(e *Engine) { e.hooks = append(e.hooks, h) }
}

// WithMiddleware appends middleware to the default per-service chain.
func WithMiddleware(m mw.Middleware) Option {
	return func(e *Engine) { e.mws = append(e.mws, m) }
}

// WithBackoff sets the collector retry backoff strategy.
// If not set, backoff.DefaultStrategy() (exponential with jitter) is used.
func WithBackoff(b backoff.Strategy) Option {
	return func(e *Engine) { e.bo = b }
}

// WithQuotaConfig registers per-owner trigger limits. Owners not
// listed have no limits unless a default config (empty OwnerID) is
// given.
func WithQuotaConfig(configs ...quota.Config) Option {
	return func(e *Engine) { e.quotaConfigs = append(e.quotaConfigs, configs...) }
}

// WithTracerProvider sets a custom OTel TracerProvider. If not set,
// the global otel.GetTracerProvider() is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) { e.tracerProvider = tp }
}

// WithMeterProvider sets a custom OTel MeterProvider. If not set, the
// global otel.GetMeterProvider() is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(e *Engine) { e.meterProvider = mp }
}

// Build assembles an Engine on top of the given store.
func Build(st store.Store, opts ...Option) (*Engine, error) {
	if st == nil {
		return nil, harvest.ErrNoStore
	}

	e := &Engine{
		store:      st,
		collectors: worker.NewRegistry(),
		logger:     slog.Default(),
		config:     harvest.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.bo == nil {
		e.bo = backoff.DefaultStrategy()
	}

	trackerOpts := []lifecycle.Option{
		lifecycle.WithLogger(e.logger),
		lifecycle.WithConfig(e.config),
	}
	if len(e.quotaConfigs) > 0 {
		e.quotas = quota.NewManager(e.quotaConfigs...)
		trackerOpts = append(trackerOpts, lifecycle.WithLimiter(e.quotas))
	}
	for _, h := range e.hooks {
		trackerOpts = append(trackerOpts, lifecycle.WithHook(h))
	}
	e.tracker = lifecycle.New(st, access.Guard{}, trackerOpts...)

	// Build tracing middleware (custom provider or global).
	tracingMw := mw.Tracing()
	if e.tracerProvider != nil {
		tracingMw = mw.TracingWithTracer(e.tracerProvider.Tracer("github.com/xraph/harvest"))
	}

	// Build metrics middleware (custom provider or global).
	metricsMw := mw.Metrics()
	if e.meterProvider != nil {
		metricsMw = mw.MetricsWithMeter(e.meterProvider.Meter("github.com/xraph/harvest"))
	}

	// Default chain: recover → tracing → metrics → logging → timeout,
	// then caller middleware innermost.
	allMws := append([]mw.Middleware{
		mw.Recover(e.logger),
		tracingMw,
		metricsMw,
		mw.Logging(e.logger),
		mw.Timeout(e.config.ServiceTimeout),
	}, e.mws...)

	e.pool = worker.NewPool(e.collectors, e.tracker,
		worker.WithConcurrency(e.config.Concurrency),
		worker.WithMaxRetries(e.config.MaxRetries),
		worker.WithBackoff(e.bo),
		worker.WithMiddleware(allMws...),
		worker.WithLogger(e.logger),
	)
	e.tracker.SetDispatcher(e.pool)

	return e, nil
}

// RegisterCollector registers the collector for a service, replacing
// any previous registration.
func (e *Engine) RegisterCollector(svc collection.Service, c worker.Collector) {
	e.collectors.Register(svc, c)
}

// Start verifies store connectivity and runs pending migrations.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Ping(ctx); err != nil {
		return fmt.Errorf("harvest: store ping: %w", err)
	}
	if err := e.store.Migrate(ctx); err != nil {
		return fmt.Errorf("harvest: store migrate: %w", err)
	}

	e.logger.Info("harvest engine started",
		slog.String("worker_id", e.pool.WorkerID().String()),
		slog.Int("concurrency", e.config.Concurrency),
		slog.Int("collectors", len(e.collectors.Services())),
	)
	return nil
}

// Stop gracefully shuts the engine down: waits for in-flight runs up
// to the context deadline, notifies shutdown hooks, and closes the
// store.
func (e *Engine) Stop(ctx context.Context) error {
	if err := e.pool.Stop(ctx); err != nil {
		e.logger.Warn("worker pool stop", slog.String("error", err.Error()))
	}
	e.tracker.Shutdown(ctx)
	return e.store.Close()
}

// Tracker returns the lifecycle tracker.
func (e *Engine) Tracker() *lifecycle.Tracker { return e.tracker }

// Store returns the underlying store.
func (e *Engine) Store() store.Store { return e.store }

// Pool returns the worker pool.
func (e *Engine) Pool() *worker.Pool { return e.pool }

// Collectors returns the collector registry.
func (e *Engine) Collectors() *worker.Registry { return e.collectors }

// Quotas returns the quota manager, or nil when no quota configs were
// provided.
func (e *Engine) Quotas() *quota.Manager { return e.quotas }
