package collection

import (
	"context"

	"github.com/xraph/harvest/id"
)

// ListOpts controls pagination and filtering for run list queries.
type ListOpts struct {
	// Limit is the maximum number of runs to return. Zero means no limit.
	Limit int
	// Offset is the number of runs to skip.
	Offset int
	// OwnerID filters by run owner. Empty means all owners.
	OwnerID string
}

// CountOpts controls filtering for run count queries.
type CountOpts struct {
	// State filters by run state. Empty means all states.
	State State
	// OwnerID filters by run owner. Empty means all owners.
	OwnerID string
}

// Mutator applies an in-place change to a run inside an atomic
// read-modify-write. It may return an error to abort the update without
// persisting anything.
type Mutator func(r *Run) error

// Store defines the persistence contract for collection runs.
//
// UpdateRun is the linchpin: implementations must serialize mutations
// per run ID (per-key lock, optimistic transaction, or row lock) so that
// concurrent progress reports and cancellations apply as a strict
// sequence with no lost updates, while updates to distinct runs proceed
// fully concurrently. Reads must observe a consistent snapshot, never a
// torn record.
type Store interface {
	// CreateRun persists a new run. Fails with harvest.ErrRunAlreadyExists
	// if the ID is already present.
	CreateRun(ctx context.Context, r *Run) error

	// GetRun retrieves a run by ID. Fails with harvest.ErrRunNotFound if
	// absent. Readers of one run are never blocked behind writers of
	// another.
	GetRun(ctx context.Context, runID id.CollectionID) (*Run, error)

	// UpdateRun applies fn to the current run record atomically and
	// persists the result, refreshing UpdatedAt. If fn returns an error
	// the record is left untouched and the error is returned unchanged.
	// Fails with harvest.ErrRunNotFound if the ID is unknown.
	UpdateRun(ctx context.Context, runID id.CollectionID, fn Mutator) (*Run, error)

	// ListRunsByState returns runs matching the given state.
	ListRunsByState(ctx context.Context, state State, opts ListOpts) ([]*Run, error)

	// CountRuns returns the number of runs matching the given options.
	CountRuns(ctx context.Context, opts CountOpts) (int64, error)
}
