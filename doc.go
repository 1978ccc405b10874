// Package harvest provides an asynchronous data-collection run tracker.
// It accepts requests to start multi-service collection runs, tracks each
// run through a small state machine, enforces per-run access control, and
// allows safe cancellation and result retrieval under concurrent access.
//
// Harvest is designed as a library, not a service. Import it, configure a
// store backend, build a lifecycle.Tracker, and mount the api package on
// an HTTP router if you need the REST surface.
//
// # Quick Start
//
//	store := memory.New()
//	tracker := lifecycle.New(store, access.Guard{},
//	    lifecycle.WithDispatcher(pool),
//	)
//	run, err := tracker.Trigger(ctx, caller, collection.TypeFull, nil)
//
// # Architecture
//
// The collection package defines the run entity, its state machine, and
// the Store contract. A single backend (store/memory, store/redis,
// store/postgres) implements the contract; all backends serialize
// mutations per run while allowing full concurrency across distinct runs.
// The lifecycle package drives state transitions and hands new runs to a
// Dispatcher; the worker package is the reference dispatcher.
//
// All run IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based
// identifiers that stay collision-free across tracker instances.
package harvest
