// Package lifecycle drives the collection run state machine. The
// Tracker is the single entry point for caller-facing operations
// (Trigger, Status, Results, Cancel) and dispatcher callbacks
// (ReportProgress, Complete, Fail).
//
// # State machine
//
//	started → in_progress → completed
//	started | in_progress → cancelled
//	started | in_progress → failed
//
// completed, cancelled, and failed are terminal. All transitions are
// applied inside the store's per-run atomic read-modify-write, so
// concurrent progress reports and cancellations on the same run apply
// as a strict sequence and state is never observably inconsistent.
//
// # Dispatch contract
//
// Trigger hands the new run to the configured Dispatcher and returns
// immediately; it never waits for collection to begin. Cancellation is
// cooperative: Cancel marks intent, and the dispatcher discovers it
// when its next progress report is rejected with ErrInvalidTransition.
package lifecycle
