package collection

import (
	"fmt"
	"time"

	"github.com/xraph/harvest"
	"github.com/xraph/harvest/id"
)

// State represents the lifecycle state of a collection run.
type State string

const (
	// StateStarted means the run is created but no worker has reported yet.
	StateStarted State = "started"
	// StateInProgress means a worker is collecting and reporting progress.
	StateInProgress State = "in_progress"
	// StateCompleted means all requested services finished successfully.
	StateCompleted State = "completed"
	// StateCancelled means the run was explicitly cancelled.
	StateCancelled State = "cancelled"
	// StateFailed means the dispatcher reported a terminal failure.
	StateFailed State = "failed"
)

// IsTerminal reports whether no further transitions may leave the state.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// CanTransition reports whether the state machine permits moving from s
// to next. Terminal states permit nothing; started may not be revisited.
func (s State) CanTransition(next State) bool {
	if s.IsTerminal() {
		return false
	}

	switch next {
	case StateInProgress:
		return s == StateStarted || s == StateInProgress
	case StateCompleted, StateFailed:
		return s == StateStarted || s == StateInProgress
	case StateCancelled:
		return s == StateStarted || s == StateInProgress
	case StateStarted:
		return false
	default:
		return false
	}
}

// Type is the kind of collection run requested.
type Type string

const (
	// TypeFull collects everything from every requested service.
	TypeFull Type = "full"
	// TypeIncremental collects changes since the previous run.
	TypeIncremental Type = "incremental"
	// TypeTargeted collects a caller-selected subset.
	TypeTargeted Type = "targeted"
)

// ParseType validates a collection type string.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeFull, TypeIncremental, TypeTargeted:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown collection type %q", harvest.ErrValidation, s)
	}
}

// Run represents one data-collection run tracked by Harvest.
type Run struct {
	harvest.Entity

	ID                id.CollectionID `json:"id"`
	OwnerID           string          `json:"owner_id"`
	Type              Type            `json:"type"`
	Services          []Service       `json:"services"`
	State             State           `json:"state"`
	ProgressPercent   int             `json:"progress_percent"`
	RecordsProcessed  int             `json:"records_processed"`
	EstimatedDuration string          `json:"estimated_duration,omitempty"`
	LastError         string          `json:"last_error,omitempty"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
}

// Clone returns a deep copy of the run. Stores hand out clones so
// callers can never mutate a stored record in place.
func (r *Run) Clone() *Run {
	cp := *r
	cp.Services = append([]Service(nil), r.Services...)
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
