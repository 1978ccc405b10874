// Package collection defines the collection run entity, its state
// machine, the recognized collection types and services, and the store
// contract.
//
// # Run Entity
//
// A [Run] represents one data-collection run. It embeds [harvest.Entity]
// for timestamps and progresses through a one-directional state machine:
//
//	started → in_progress → completed
//	started → cancelled
//	in_progress → cancelled
//	started | in_progress → failed
//
// completed, cancelled, and failed are terminal: no transition leaves
// them. Progress (percent and record count) is monotonically
// non-decreasing while the run is active.
//
// # Store
//
// [Store] is the persistence contract. The critical operation is
// UpdateRun, an atomic read-modify-write keyed by run ID: backends must
// serialize mutations per run so concurrent progress reports and
// cancellations never interleave into an inconsistent record, while
// distinct runs update fully concurrently.
package collection
