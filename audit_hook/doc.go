// Package audithook is a lifecycle hook that bridges collection run
// transitions to an immutable audit trail backend.
//
// Every run transition emits a structured audit event through the
// [Recorder] interface. The hook assigns appropriate severity levels
// (info for normal operations, warning for cancellations, critical for
// failures) and rich metadata (owner, type, services, record counts).
//
// # Usage
//
//	tracker := lifecycle.New(store, guard,
//	    lifecycle.WithHook(audithook.New(recorder)),
//	)
//
// # Selective filtering
//
//	audithook.New(recorder,
//	    audithook.WithActions(
//	        audithook.ActionRunCancelled,
//	        audithook.ActionRunFailed,
//	    ),
//	)
package audithook
