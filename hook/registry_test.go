package hook_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/xraph/harvest"
	"github.com/xraph/harvest/collection"
	"github.com/xraph/harvest/hook"
	"github.com/xraph/harvest/id"
)

// recorder implements every hook interface and records calls.
type recorder struct {
	name      string
	triggered int
	progress  int
	completed int
	cancelled int
	failed    int
	shutdown  int
	err       error
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) OnRunTriggered(context.Context, *collection.Run) error {
	r.triggered++
	return r.err
}

func (r *recorder) OnRunProgressed(context.Context, *collection.Run) error {
	r.progress++
	return r.err
}

func (r *recorder) OnRunCompleted(context.Context, *collection.Run) error {
	r.completed++
	return r.err
}

func (r *recorder) OnRunCancelled(context.Context, *collection.Run) error {
	r.cancelled++
	return r.err
}

func (r *recorder) OnRunFailed(context.Context, *collection.Run, error) error {
	r.failed++
	return r.err
}

func (r *recorder) OnShutdown(context.Context) error {
	r.shutdown++
	return r.err
}

// triggerOnly implements only Hook and RunTriggered.
type triggerOnly struct {
	calls int
}

func (t *triggerOnly) Name() string { return "trigger-only" }

func (t *triggerOnly) OnRunTriggered(context.Context, *collection.Run) error {
	t.calls++
	return nil
}

func testRun() *collection.Run {
	return &collection.Run{
		Entity:  harvest.NewEntity(),
		ID:      id.NewCollectionID(),
		OwnerID: "u1",
		State:   collection.StateStarted,
	}
}

func TestRegistryEmitsToAllInterfaces(t *testing.T) {
	t.Parallel()

	rec := &recorder{name: "recorder"}
	reg := hook.NewRegistry(slog.Default())
	reg.Register(rec)

	ctx := context.Background()
	run := testRun()

	reg.EmitRunTriggered(ctx, run)
	reg.EmitRunProgressed(ctx, run)
	reg.EmitRunProgressed(ctx, run)
	reg.EmitRunCompleted(ctx, run)
	reg.EmitRunCancelled(ctx, run)
	reg.EmitRunFailed(ctx, run, errors.New("boom"))
	reg.EmitShutdown(ctx)

	if rec.triggered != 1 || rec.progress != 2 || rec.completed != 1 ||
		rec.cancelled != 1 || rec.failed != 1 || rec.shutdown != 1 {
		t.Errorf("unexpected call counts: %+v", rec)
	}
}

func TestRegistryOnlyNotifiesImplementers(t *testing.T) {
	t.Parallel()

	h := &triggerOnly{}
	reg := hook.NewRegistry(slog.Default())
	reg.Register(h)

	ctx := context.Background()
	run := testRun()

	// These must not panic even though the hook does not implement them.
	reg.EmitRunCompleted(ctx, run)
	reg.EmitRunFailed(ctx, run, errors.New("boom"))
	reg.EmitShutdown(ctx)

	reg.EmitRunTriggered(ctx, run)
	if h.calls != 1 {
		t.Errorf("OnRunTriggered calls = %d, want 1", h.calls)
	}
}

func TestRegistryHookErrorsAreIsolated(t *testing.T) {
	t.Parallel()

	failing := &recorder{name: "failing", err: errors.New("hook broken")}
	healthy := &recorder{name: "healthy"}

	reg := hook.NewRegistry(slog.Default())
	reg.Register(failing)
	reg.Register(healthy)

	reg.EmitRunTriggered(context.Background(), testRun())

	// The failing hook must not prevent later hooks from running.
	if healthy.triggered != 1 {
		t.Errorf("healthy hook triggered = %d, want 1", healthy.triggered)
	}
}

func TestRegistryNotifiesInRegistrationOrder(t *testing.T) {
	t.Parallel()

	var order []string
	reg := hook.NewRegistry(slog.Default())
	reg.Register(orderedHook{"first", &order})
	reg.Register(orderedHook{"second", &order})

	reg.EmitRunTriggered(context.Background(), testRun())

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("notification order = %v, want [first second]", order)
	}
}

type orderedHook struct {
	name  string
	order *[]string
}

func (o orderedHook) Name() string { return o.name }

func (o orderedHook) OnRunTriggered(context.Context, *collection.Run) error {
	*o.order = append(*o.order, o.name)
	return nil
}
