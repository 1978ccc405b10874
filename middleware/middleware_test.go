package middleware_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/xraph/harvest"
	"github.com/xraph/harvest/collection"
	"github.com/xraph/harvest/id"
	mw "github.com/xraph/harvest/middleware"
)

func testRun() *collection.Run {
	return &collection.Run{
		Entity:   harvest.NewEntity(),
		ID:       id.NewCollectionID(),
		OwnerID:  "u1",
		Type:     collection.TypeFull,
		Services: collection.DefaultServices(),
		State:    collection.StateInProgress,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ──────────────────────────────────────────────────
// Chain
// ──────────────────────────────────────────────────

func TestChainOrder(t *testing.T) {
	t.Parallel()

	var order []string
	tag := func(name string) mw.Middleware {
		return func(ctx context.Context, _ *collection.Run, _ collection.Service, next mw.Handler) error {
			order = append(order, name+" before")
			err := next(ctx)
			order = append(order, name+" after")
			return err
		}
	}

	chain := mw.Chain(tag("outer"), tag("inner"))
	err := chain(context.Background(), testRun(), collection.ServiceDirectory, func(context.Context) error {
		order = append(order, "handler")
		return nil
	})
	if err != nil {
		t.Fatalf("chain returned error: %v", err)
	}

	want := []string{"outer before", "inner before", "handler", "inner after", "outer after"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestChainEmpty(t *testing.T) {
	t.Parallel()

	called := false
	err := mw.Chain()(context.Background(), testRun(), collection.ServiceDirectory, func(context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("empty chain returned error: %v", err)
	}
	if !called {
		t.Error("empty chain did not call the handler")
	}
}

func TestChainPropagatesError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	err := mw.Chain(mw.Logging(discardLogger()))(
		context.Background(), testRun(), collection.ServiceAssessment,
		func(context.Context) error { return boom },
	)
	if !errors.Is(err, boom) {
		t.Errorf("chain error = %v, want the handler's error", err)
	}
}

// ──────────────────────────────────────────────────
// Recover
// ──────────────────────────────────────────────────

func TestRecoverConvertsPanicToError(t *testing.T) {
	t.Parallel()

	err := mw.Recover(discardLogger())(
		context.Background(), testRun(), collection.ServiceGrading,
		func(context.Context) error { panic("collector exploded") },
	)
	if err == nil {
		t.Fatal("Recover returned nil after a panic")
	}
	if !strings.Contains(err.Error(), "panic collecting grading") {
		t.Errorf("error = %q, want panic description with service name", err)
	}
}

func TestRecoverPassesThroughSuccess(t *testing.T) {
	t.Parallel()

	err := mw.Recover(discardLogger())(
		context.Background(), testRun(), collection.ServiceDirectory,
		func(context.Context) error { return nil },
	)
	if err != nil {
		t.Errorf("Recover returned error on success: %v", err)
	}
}

// ──────────────────────────────────────────────────
// Timeout
// ──────────────────────────────────────────────────

func TestTimeoutCancelsContext(t *testing.T) {
	t.Parallel()

	err := mw.Timeout(10*time.Millisecond)(
		context.Background(), testRun(), collection.ServiceDirectory,
		func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
				return nil
			}
		},
	)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestTimeoutZeroMeansNoDeadline(t *testing.T) {
	t.Parallel()

	err := mw.Timeout(0)(
		context.Background(), testRun(), collection.ServiceDirectory,
		func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); ok {
				return errors.New("unexpected deadline")
			}
			return nil
		},
	)
	if err != nil {
		t.Errorf("Timeout(0) returned error: %v", err)
	}
}
