package audithook_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	ah "github.com/xraph/harvest/audit_hook"
	"github.com/xraph/harvest/collection"
	"github.com/xraph/harvest/hook"
	"github.com/xraph/harvest/id"
)

// ── Mock recorder ────────────────────────────────────

// mockRecorder captures audit events for verification.
type mockRecorder struct {
	mu     sync.Mutex
	events []*ah.AuditEvent
}

func (m *mockRecorder) Record(_ context.Context, evt *ah.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

func (m *mockRecorder) last() *ah.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == 0 {
		return nil
	}
	return m.events[len(m.events)-1]
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func (m *mockRecorder) findByAction(action string) *ah.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, evt := range m.events {
		if evt.Action == action {
			return evt
		}
	}
	return nil
}

// ── Test helpers ─────────────────────────────────────

func newTestRun() *collection.Run {
	return &collection.Run{
		ID:               id.NewCollectionID(),
		OwnerID:          "user-1",
		Type:             collection.TypeFull,
		Services:         collection.DefaultServices(),
		State:            collection.StateInProgress,
		ProgressPercent:  40,
		RecordsProcessed: 400,
	}
}

// ── Tests ────────────────────────────────────────────

func TestHook_Name(t *testing.T) {
	h := ah.New(&mockRecorder{})
	if h.Name() != "audit-hook" {
		t.Errorf("expected name %q, got %q", "audit-hook", h.Name())
	}
}

func TestHook_RunTriggered(t *testing.T) {
	rec := &mockRecorder{}
	h := ah.New(rec)
	r := newTestRun()

	if err := h.OnRunTriggered(context.Background(), r); err != nil {
		t.Fatalf("OnRunTriggered: %v", err)
	}

	evt := rec.last()
	if evt == nil {
		t.Fatal("no event recorded")
	}
	if evt.Action != ah.ActionRunTriggered {
		t.Errorf("Action: want %q, got %q", ah.ActionRunTriggered, evt.Action)
	}
	if evt.Resource != ah.ResourceRun {
		t.Errorf("Resource: want %q, got %q", ah.ResourceRun, evt.Resource)
	}
	if evt.Category != ah.CategoryRun {
		t.Errorf("Category: want %q, got %q", ah.CategoryRun, evt.Category)
	}
	if evt.ResourceID != r.ID.String() {
		t.Errorf("ResourceID: want %q, got %q", r.ID.String(), evt.ResourceID)
	}
	if evt.Severity != ah.SeverityInfo {
		t.Errorf("Severity: want %q, got %q", ah.SeverityInfo, evt.Severity)
	}
	if evt.Outcome != ah.OutcomeSuccess {
		t.Errorf("Outcome: want %q, got %q", ah.OutcomeSuccess, evt.Outcome)
	}
	if evt.Metadata["owner_id"] != "user-1" {
		t.Errorf("Metadata[owner_id]: want %q, got %v", "user-1", evt.Metadata["owner_id"])
	}
	if evt.Metadata["type"] != "full" {
		t.Errorf("Metadata[type]: want %q, got %v", "full", evt.Metadata["type"])
	}
}

func TestHook_RunProgressed(t *testing.T) {
	rec := &mockRecorder{}
	h := ah.New(rec)
	r := newTestRun()

	if err := h.OnRunProgressed(context.Background(), r); err != nil {
		t.Fatalf("OnRunProgressed: %v", err)
	}

	evt := rec.last()
	if evt.Action != ah.ActionRunProgressed {
		t.Errorf("Action: want %q, got %q", ah.ActionRunProgressed, evt.Action)
	}
	if evt.Metadata["progress_percent"] != 40 {
		t.Errorf("Metadata[progress_percent]: want 40, got %v", evt.Metadata["progress_percent"])
	}
	if evt.Metadata["records_processed"] != 400 {
		t.Errorf("Metadata[records_processed]: want 400, got %v", evt.Metadata["records_processed"])
	}
}

func TestHook_RunCompleted(t *testing.T) {
	rec := &mockRecorder{}
	h := ah.New(rec)
	r := newTestRun()
	r.State = collection.StateCompleted
	r.RecordsProcessed = 1500

	if err := h.OnRunCompleted(context.Background(), r); err != nil {
		t.Fatalf("OnRunCompleted: %v", err)
	}

	evt := rec.last()
	if evt.Action != ah.ActionRunCompleted {
		t.Errorf("Action: want %q, got %q", ah.ActionRunCompleted, evt.Action)
	}
	if evt.Severity != ah.SeverityInfo {
		t.Errorf("Severity: want %q, got %q", ah.SeverityInfo, evt.Severity)
	}
	if evt.Metadata["records_processed"] != 1500 {
		t.Errorf("Metadata[records_processed]: want 1500, got %v", evt.Metadata["records_processed"])
	}
}

func TestHook_RunCancelled(t *testing.T) {
	rec := &mockRecorder{}
	h := ah.New(rec)
	r := newTestRun()
	r.State = collection.StateCancelled

	if err := h.OnRunCancelled(context.Background(), r); err != nil {
		t.Fatalf("OnRunCancelled: %v", err)
	}

	evt := rec.last()
	if evt.Action != ah.ActionRunCancelled {
		t.Errorf("Action: want %q, got %q", ah.ActionRunCancelled, evt.Action)
	}
	if evt.Severity != ah.SeverityWarning {
		t.Errorf("Severity: want %q, got %q", ah.SeverityWarning, evt.Severity)
	}
	if evt.Outcome != ah.OutcomeSuccess {
		t.Errorf("Outcome: want %q, got %q", ah.OutcomeSuccess, evt.Outcome)
	}
}

func TestHook_RunFailed(t *testing.T) {
	rec := &mockRecorder{}
	h := ah.New(rec)
	r := newTestRun()
	r.State = collection.StateFailed
	runErr := errors.New("assessment service unreachable")

	if err := h.OnRunFailed(context.Background(), r, runErr); err != nil {
		t.Fatalf("OnRunFailed: %v", err)
	}

	evt := rec.last()
	if evt.Action != ah.ActionRunFailed {
		t.Errorf("Action: want %q, got %q", ah.ActionRunFailed, evt.Action)
	}
	if evt.Severity != ah.SeverityCritical {
		t.Errorf("Severity: want %q, got %q", ah.SeverityCritical, evt.Severity)
	}
	if evt.Outcome != ah.OutcomeFailure {
		t.Errorf("Outcome: want %q, got %q", ah.OutcomeFailure, evt.Outcome)
	}
	if evt.Reason != "assessment service unreachable" {
		t.Errorf("Reason: want %q, got %q", "assessment service unreachable", evt.Reason)
	}
	if evt.Metadata["error"] != "assessment service unreachable" {
		t.Errorf("Metadata[error]: want %q, got %v", "assessment service unreachable", evt.Metadata["error"])
	}
}

// ── WithActions filter tests ─────────────────────────

func TestHook_WithActions_FiltersDisabled(t *testing.T) {
	rec := &mockRecorder{}
	h := ah.New(rec, ah.WithActions(ah.ActionRunCompleted, ah.ActionRunFailed))

	ctx := context.Background()
	r := newTestRun()

	// Triggered is NOT enabled — should be silently skipped.
	if err := h.OnRunTriggered(ctx, r); err != nil {
		t.Fatalf("OnRunTriggered: %v", err)
	}
	if rec.count() != 0 {
		t.Errorf("expected 0 events (triggered disabled), got %d", rec.count())
	}

	// Completed IS enabled — should be recorded.
	if err := h.OnRunCompleted(ctx, r); err != nil {
		t.Fatalf("OnRunCompleted: %v", err)
	}
	if rec.count() != 1 {
		t.Errorf("expected 1 event (completed enabled), got %d", rec.count())
	}

	// Failed IS enabled — should be recorded.
	if err := h.OnRunFailed(ctx, r, errors.New("boom")); err != nil {
		t.Fatalf("OnRunFailed: %v", err)
	}
	if rec.count() != 2 {
		t.Errorf("expected 2 events, got %d", rec.count())
	}
}

// ── RecorderFunc adapter test ────────────────────────

func TestRecorderFunc(t *testing.T) {
	var captured *ah.AuditEvent
	fn := ah.RecorderFunc(func(_ context.Context, evt *ah.AuditEvent) error {
		captured = evt
		return nil
	})

	h := ah.New(fn)
	if err := h.OnRunTriggered(context.Background(), newTestRun()); err != nil {
		t.Fatalf("OnRunTriggered: %v", err)
	}
	if captured == nil {
		t.Fatal("RecorderFunc was not called")
	}
	if captured.Action != ah.ActionRunTriggered {
		t.Errorf("Action: want %q, got %q", ah.ActionRunTriggered, captured.Action)
	}
}

// ── Recorder error handling test ─────────────────────

func TestHook_RecorderError_DoesNotPropagate(t *testing.T) {
	failingRecorder := ah.RecorderFunc(func(_ context.Context, _ *ah.AuditEvent) error {
		return errors.New("audit backend down")
	})

	h := ah.New(failingRecorder)

	// The hook must NOT return an error — audit failures never block
	// the collection pipeline.
	if err := h.OnRunTriggered(context.Background(), newTestRun()); err != nil {
		t.Fatalf("expected no error (audit failure swallowed), got: %v", err)
	}
}

// ── Registry integration test ────────────────────────

func TestHook_ViaRegistry(t *testing.T) {
	rec := &mockRecorder{}
	h := ah.New(rec)

	reg := hook.NewRegistry(slog.Default())
	reg.Register(h)

	ctx := context.Background()
	r := newTestRun()

	reg.EmitRunTriggered(ctx, r)
	reg.EmitRunProgressed(ctx, r)
	reg.EmitRunCompleted(ctx, r)
	reg.EmitRunCancelled(ctx, r)
	reg.EmitRunFailed(ctx, r, errors.New("fail"))

	allActions := ah.AllActions()
	if rec.count() != len(allActions) {
		t.Fatalf("expected %d events, got %d", len(allActions), rec.count())
	}

	for _, action := range allActions {
		if rec.findByAction(action) == nil {
			t.Errorf("missing event for action %q", action)
		}
	}
}

func TestAllActions(t *testing.T) {
	if got := len(ah.AllActions()); got != 5 {
		t.Errorf("expected 5 actions, got %d", got)
	}
}
