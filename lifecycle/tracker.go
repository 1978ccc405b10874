package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/harvest"
	"github.com/xraph/harvest/access"
	"github.com/xraph/harvest/collection"
	"github.com/xraph/harvest/hook"
	"github.com/xraph/harvest/id"
)

// Dispatcher starts the actual collection work for a run. Dispatch is
// fire-and-forget from the Tracker's perspective: implementations do
// the work asynchronously and call back ReportProgress, Complete, or
// Fail. The worker package provides the reference implementation.
type Dispatcher interface {
	Dispatch(ctx context.Context, r *collection.Run)
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(ctx context.Context, r *collection.Run)

// Dispatch calls f.
func (f DispatcherFunc) Dispatch(ctx context.Context, r *collection.Run) { f(ctx, r) }

// Limiter caps how many runs an owner may have in flight. Acquire is
// consulted before a run record is created; Release is called when a
// run reaches a terminal state. The quota package provides the
// reference implementation. A nil Limiter means no limits.
type Limiter interface {
	Acquire(ownerID string) bool
	Release(ownerID string)
}

// errNoop aborts a store update without surfacing an error to the
// caller. Used for idempotent cancels.
var errNoop = errors.New("lifecycle: no-op")

// Tracker coordinates the collection run lifecycle: it validates
// trigger requests, owns all state transitions, checks access on every
// caller-facing read or mutation, and hands new runs to the Dispatcher.
type Tracker struct {
	store      collection.Store
	guard      access.Guard
	dispatcher Dispatcher
	limiter    Limiter
	hooks      *hook.Registry
	logger     *slog.Logger
	config     harvest.Config
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithDispatcher sets the dispatcher new runs are handed to. Without
// one, runs stay in started until a dispatcher reports against them.
func WithDispatcher(d Dispatcher) Option {
	return func(t *Tracker) { t.dispatcher = d }
}

// WithLimiter sets the per-owner quota limiter.
func WithLimiter(l Limiter) Option {
	return func(t *Tracker) { t.limiter = l }
}

// WithLogger sets the structured logger for the tracker.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// WithConfig sets the tracker configuration.
func WithConfig(c harvest.Config) Option {
	return func(t *Tracker) { t.config = c }
}

// WithHook registers a lifecycle hook.
func WithHook(h hook.Hook) Option {
	return func(t *Tracker) { t.hooks.Register(h) }
}

// New creates a Tracker backed by the given store.
func New(store collection.Store, guard access.Guard, opts ...Option) *Tracker {
	t := &Tracker{
		store:  store,
		guard:  guard,
		logger: slog.Default(),
		config: harvest.DefaultConfig(),
	}
	t.hooks = hook.NewRegistry(t.logger)
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Hooks returns the tracker's hook registry.
func (t *Tracker) Hooks() *hook.Registry { return t.hooks }

// SetDispatcher sets the dispatcher after construction. Dispatchers
// that report back into the tracker need the tracker first, so wiring
// is a two-step: build the tracker, build the dispatcher against it,
// then attach it here before the first Trigger.
func (t *Tracker) SetDispatcher(d Dispatcher) { t.dispatcher = d }

// ──────────────────────────────────────────────────
// Caller-facing operations
// ──────────────────────────────────────────────────

// Trigger validates the request, creates a run in state started, and
// hands it to the dispatcher. It returns as soon as the record is
// durably created; collection proceeds asynchronously. Exactly one
// dispatch is issued per successful trigger. Validation failures
// create no record.
func (t *Tracker) Trigger(ctx context.Context, caller harvest.Identity, collectionType string, services []string) (*collection.Run, error) {
	if caller.Subject == "" {
		return nil, fmt.Errorf("%w: missing caller identity", harvest.ErrValidation)
	}

	typ, err := collection.ParseType(collectionType)
	if err != nil {
		return nil, err
	}
	svcs, err := collection.ParseServices(services)
	if err != nil {
		return nil, err
	}

	if t.limiter != nil && !t.limiter.Acquire(caller.Subject) {
		return nil, fmt.Errorf("%w: owner %s", harvest.ErrQuotaExceeded, caller.Subject)
	}

	r := &collection.Run{
		Entity:            harvest.NewEntity(),
		ID:                id.NewCollectionID(),
		OwnerID:           caller.Subject,
		Type:              typ,
		Services:          svcs,
		State:             collection.StateStarted,
		EstimatedDuration: t.config.EstimatedDurations[string(typ)],
	}

	if err := t.store.CreateRun(ctx, r); err != nil {
		t.release(caller.Subject)
		return nil, fmt.Errorf("create run: %w", err)
	}

	t.logger.Info("collection run triggered",
		slog.String("run_id", r.ID.String()),
		slog.String("owner_id", r.OwnerID),
		slog.String("type", string(typ)),
		slog.Int("services", len(svcs)),
	)
	t.hooks.EmitRunTriggered(ctx, r)

	if t.dispatcher != nil {
		// Fire-and-forget: the dispatch outlives the trigger request.
		go t.dispatcher.Dispatch(context.WithoutCancel(ctx), r.Clone())
	}

	return r, nil
}

// Status returns the read-only status projection of a run. The caller
// must own the run or be an org admin.
func (t *Tracker) Status(ctx context.Context, runID id.CollectionID, caller harvest.Identity) (collection.StatusView, error) {
	r, err := t.authorize(ctx, runID, caller)
	if err != nil {
		return collection.StatusView{}, err
	}
	return collection.StatusOf(r), nil
}

// Results returns the results projection of a completed run. Fails
// with harvest.ErrNotReady for any run not in state completed.
func (t *Tracker) Results(ctx context.Context, runID id.CollectionID, caller harvest.Identity) (collection.ResultsView, error) {
	r, err := t.authorize(ctx, runID, caller)
	if err != nil {
		return collection.ResultsView{}, err
	}
	if r.State != collection.StateCompleted {
		return collection.ResultsView{}, fmt.Errorf("%w: run is %s", harvest.ErrNotReady, r.State)
	}
	return collection.ResultsOf(r), nil
}

// Cancel transitions an active run to cancelled. Cancelling an
// already-cancelled or failed run succeeds as a no-op: the caller's
// intent — make sure this run is not running — is already satisfied.
// Only a completed run rejects cancellation, with
// harvest.ErrAlreadyTerminal. Cancellation is cooperative; in-flight
// work is not interrupted, but further progress reports are rejected.
func (t *Tracker) Cancel(ctx context.Context, runID id.CollectionID, caller harvest.Identity) error {
	cancelled, err := t.store.UpdateRun(ctx, runID, func(r *collection.Run) error {
		if !t.guard.CanAccess(r, caller) {
			return harvest.ErrForbidden
		}
		switch r.State {
		case collection.StateCompleted:
			return harvest.ErrAlreadyTerminal
		case collection.StateCancelled, collection.StateFailed:
			return errNoop
		default:
			r.State = collection.StateCancelled
			return nil
		}
	})
	if errors.Is(err, errNoop) {
		return nil
	}
	if err != nil {
		return err
	}

	t.logger.Info("collection run cancelled",
		slog.String("run_id", cancelled.ID.String()),
		slog.String("cancelled_by", caller.Subject),
	)
	t.hooks.EmitRunCancelled(ctx, cancelled)
	t.release(cancelled.OwnerID)
	return nil
}

// ──────────────────────────────────────────────────
// Dispatcher callbacks
// ──────────────────────────────────────────────────

// ReportProgress applies a progress report from the dispatcher. The
// first report moves the run from started to in_progress. Progress
// never regresses: a report below the current value is clamped to the
// current value. Reports against a terminal run are rejected with
// harvest.ErrInvalidTransition — logged here, never fatal to the
// dispatcher, which should treat it as the cooperative cancel signal.
func (t *Tracker) ReportProgress(ctx context.Context, runID id.CollectionID, progressPercent, recordsProcessed int) error {
	updated, err := t.store.UpdateRun(ctx, runID, func(r *collection.Run) error {
		if r.State.IsTerminal() {
			return fmt.Errorf("%w: run is %s", harvest.ErrInvalidTransition, r.State)
		}
		r.State = collection.StateInProgress
		r.ProgressPercent = clampProgress(r.ProgressPercent, progressPercent)
		if recordsProcessed > r.RecordsProcessed {
			r.RecordsProcessed = recordsProcessed
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, harvest.ErrInvalidTransition) {
			t.logger.Debug("progress report on terminal run ignored",
				slog.String("run_id", runID.String()),
			)
		}
		return err
	}

	t.hooks.EmitRunProgressed(ctx, updated)
	return nil
}

// Complete marks a run completed with its final record count. This is
// the only transition that makes results servable. Terminal runs
// reject the report with harvest.ErrInvalidTransition.
func (t *Tracker) Complete(ctx context.Context, runID id.CollectionID, finalRecordsProcessed int) error {
	completed, err := t.store.UpdateRun(ctx, runID, func(r *collection.Run) error {
		if r.State.IsTerminal() {
			return fmt.Errorf("%w: run is %s", harvest.ErrInvalidTransition, r.State)
		}
		now := time.Now().UTC()
		r.State = collection.StateCompleted
		r.ProgressPercent = 100
		if finalRecordsProcessed > r.RecordsProcessed {
			r.RecordsProcessed = finalRecordsProcessed
		}
		r.CompletedAt = &now
		return nil
	})
	if err != nil {
		if errors.Is(err, harvest.ErrInvalidTransition) {
			t.logger.Debug("completion report on terminal run ignored",
				slog.String("run_id", runID.String()),
			)
		}
		return err
	}

	t.logger.Info("collection run completed",
		slog.String("run_id", completed.ID.String()),
		slog.Int("records", completed.RecordsProcessed),
	)
	t.hooks.EmitRunCompleted(ctx, completed)
	t.release(completed.OwnerID)
	return nil
}

// Fail marks a run failed after a terminal dispatcher error. Not
// caller-triggerable. Terminal runs reject the report with
// harvest.ErrInvalidTransition.
func (t *Tracker) Fail(ctx context.Context, runID id.CollectionID, cause error) error {
	failed, err := t.store.UpdateRun(ctx, runID, func(r *collection.Run) error {
		if r.State.IsTerminal() {
			return fmt.Errorf("%w: run is %s", harvest.ErrInvalidTransition, r.State)
		}
		r.State = collection.StateFailed
		if cause != nil {
			r.LastError = cause.Error()
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, harvest.ErrInvalidTransition) {
			t.logger.Debug("failure report on terminal run ignored",
				slog.String("run_id", runID.String()),
			)
		}
		return err
	}

	t.logger.Warn("collection run failed",
		slog.String("run_id", failed.ID.String()),
		slog.String("error", failed.LastError),
	)
	t.hooks.EmitRunFailed(ctx, failed, cause)
	t.release(failed.OwnerID)
	return nil
}

// Shutdown notifies shutdown hooks. The tracker holds no goroutines of
// its own; dispatcher shutdown is the worker pool's concern.
func (t *Tracker) Shutdown(ctx context.Context) {
	t.hooks.EmitShutdown(ctx)
}

// authorize loads a run and checks the caller against it.
func (t *Tracker) authorize(ctx context.Context, runID id.CollectionID, caller harvest.Identity) (*collection.Run, error) {
	r, err := t.store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !t.guard.CanAccess(r, caller) {
		return nil, harvest.ErrForbidden
	}
	return r, nil
}

func (t *Tracker) release(ownerID string) {
	if t.limiter != nil {
		t.limiter.Release(ownerID)
	}
}

// clampProgress enforces monotonic, bounded progress.
func clampProgress(current, reported int) int {
	if reported < current {
		return current
	}
	if reported > 100 {
		return 100
	}
	return reported
}
