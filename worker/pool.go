package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/xraph/harvest"
	"github.com/xraph/harvest/backoff"
	"github.com/xraph/harvest/collection"
	"github.com/xraph/harvest/id"
	"github.com/xraph/harvest/lifecycle"
	"github.com/xraph/harvest/middleware"
)

// Reporter receives the pool's progress callbacks. The lifecycle
// Tracker satisfies this interface.
type Reporter interface {
	ReportProgress(ctx context.Context, runID id.CollectionID, progressPercent, recordsProcessed int) error
	Complete(ctx context.Context, runID id.CollectionID, finalRecordsProcessed int) error
	Fail(ctx context.Context, runID id.CollectionID, cause error) error
}

// Pool executes collection runs with bounded concurrency. It
// implements lifecycle.Dispatcher: each dispatched run walks its
// requested services in order, invoking the registered collector for
// each through the middleware chain, and reports progress back through
// the Reporter.
//
// Cancellation is cooperative. The pool never inspects run state
// directly; it learns a run was cancelled when a progress report comes
// back rejected with harvest.ErrInvalidTransition and stops there.
type Pool struct {
	registry   *Registry
	reporter   Reporter
	mw         middleware.Middleware
	bo         backoff.Strategy
	maxRetries int
	sem        *semaphore.Weighted
	workerID   id.WorkerID
	logger     *slog.Logger

	wg sync.WaitGroup
}

// Ensure Pool implements lifecycle.Dispatcher at compile time.
var _ lifecycle.Dispatcher = (*Pool)(nil)

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithConcurrency sets the maximum number of runs collected at once.
func WithConcurrency(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithMiddleware adds middleware around each service collection. The
// first middleware added is the outermost wrapper.
func WithMiddleware(mws ...middleware.Middleware) PoolOption {
	return func(p *Pool) { p.mw = middleware.Chain(mws...) }
}

// WithBackoff sets the retry backoff strategy for failing collectors.
// If not set, backoff.DefaultStrategy() (exponential with jitter) is used.
func WithBackoff(b backoff.Strategy) PoolOption {
	return func(p *Pool) { p.bo = b }
}

// WithMaxRetries sets how many times a failing collector is retried
// before the run is marked failed.
func WithMaxRetries(n int) PoolOption {
	return func(p *Pool) { p.maxRetries = n }
}

// WithLogger sets the structured logger for the pool.
func WithLogger(l *slog.Logger) PoolOption {
	return func(p *Pool) { p.logger = l }
}

// NewPool creates a worker pool.
func NewPool(registry *Registry, reporter Reporter, opts ...PoolOption) *Pool {
	p := &Pool{
		registry:   registry,
		reporter:   reporter,
		mw:         middleware.Chain(),
		bo:         backoff.DefaultStrategy(),
		maxRetries: 3,
		sem:        semaphore.NewWeighted(10),
		workerID:   id.NewWorkerID(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WorkerID returns the pool's unique worker identifier.
func (p *Pool) WorkerID() id.WorkerID { return p.workerID }

// Dispatch executes the run. It blocks until the run finishes, so the
// tracker invokes it on its own goroutine; callers wiring a Pool
// directly should do the same.
func (p *Pool) Dispatch(ctx context.Context, r *collection.Run) {
	p.wg.Add(1)
	defer p.wg.Done()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		p.report(func() error { return p.reporter.Fail(ctx, r.ID, fmt.Errorf("acquire worker slot: %w", err)) })
		return
	}
	defer p.sem.Release(1)

	p.run(ctx, r)
}

// Stop waits for in-flight runs to finish, up to the context deadline.
func (p *Pool) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker pool stop: %w", ctx.Err())
	}
}

// run walks the requested services in order, reporting cumulative
// progress after each. Percent is apportioned evenly across services;
// the final service's share arrives with Complete.
func (p *Pool) run(ctx context.Context, r *collection.Run) {
	// First report moves the run to in_progress and doubles as the
	// initial cancellation check.
	if !p.reportProgress(ctx, r, 0, 0) {
		return
	}

	total := 0
	n := len(r.Services)
	for i, svc := range r.Services {
		records, err := p.collect(ctx, r, svc)
		if err != nil {
			p.report(func() error { return p.reporter.Fail(ctx, r.ID, fmt.Errorf("collect %s: %w", svc, err)) })
			return
		}
		total += records

		if i == n-1 {
			break
		}
		if !p.reportProgress(ctx, r, (i+1)*100/n, total) {
			return
		}
	}

	p.report(func() error { return p.reporter.Complete(ctx, r.ID, total) })
}

// collect invokes the service's collector through middleware,
// retrying with backoff on failure.
func (p *Pool) collect(ctx context.Context, r *collection.Run, svc collection.Service) (int, error) {
	c, ok := p.registry.Get(svc)
	if !ok {
		return 0, fmt.Errorf("no collector registered for service %q", svc)
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			delay := p.bo.Delay(attempt)
			p.logger.Info("retrying collector",
				slog.String("run_id", r.ID.String()),
				slog.String("service", string(svc)),
				slog.Int("attempt", attempt),
				slog.Int("max_retries", p.maxRetries),
				slog.Duration("delay", delay),
			)
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(delay):
			}
		}

		var records int
		err := p.mw(ctx, r, svc, func(ctx context.Context) error {
			var collectErr error
			records, collectErr = c.Collect(ctx, r)
			return collectErr
		})
		if err == nil {
			return records, nil
		}
		lastErr = err
	}

	return 0, fmt.Errorf("after %d attempts: %w", p.maxRetries+1, lastErr)
}

// reportProgress sends one progress report. Returns false when the
// pool should stop working on the run: the run was cancelled out from
// under us (the cooperative cancel signal) or has vanished.
func (p *Pool) reportProgress(ctx context.Context, r *collection.Run, percent, records int) bool {
	err := p.reporter.ReportProgress(ctx, r.ID, percent, records)
	if err == nil {
		return true
	}

	if errors.Is(err, harvest.ErrInvalidTransition) {
		p.logger.Info("run reached a terminal state, stopping collection",
			slog.String("run_id", r.ID.String()),
			slog.String("worker_id", p.workerID.String()),
		)
		return false
	}

	p.logger.Error("progress report failed",
		slog.String("run_id", r.ID.String()),
		slog.String("error", err.Error()),
	)
	return !errors.Is(err, harvest.ErrRunNotFound)
}

// report runs a terminal callback, logging rejections. A terminal
// report bouncing off an already-terminal run is expected after a
// cancel races the final service.
func (p *Pool) report(fn func() error) {
	if err := fn(); err != nil && !errors.Is(err, harvest.ErrInvalidTransition) {
		p.logger.Error("terminal report failed", slog.String("error", err.Error()))
	}
}
