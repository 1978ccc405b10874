package collection

import (
	"time"

	"github.com/xraph/harvest/id"
)

// StatusView is the read-only status projection served to callers.
// It never exposes dispatch internals.
type StatusView struct {
	ID               id.CollectionID `json:"collection_id"`
	State            State           `json:"status"`
	ProgressPercent  int             `json:"progress_percent"`
	RecordsProcessed int             `json:"records_processed"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ResultsView is the projection served once a run has completed.
type ResultsView struct {
	ID                id.CollectionID `json:"collection_id"`
	TotalRecords      int             `json:"total_records"`
	ServicesProcessed []Service       `json:"services_processed"`
	CompletedAt       time.Time       `json:"completed_at"`
}

// StatusOf builds the status projection for a run.
func StatusOf(r *Run) StatusView {
	return StatusView{
		ID:               r.ID,
		State:            r.State,
		ProgressPercent:  r.ProgressPercent,
		RecordsProcessed: r.RecordsProcessed,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// ResultsOf builds the results projection for a completed run.
// Callers must gate on State == StateCompleted first.
func ResultsOf(r *Run) ResultsView {
	v := ResultsView{
		ID:                r.ID,
		TotalRecords:      r.RecordsProcessed,
		ServicesProcessed: append([]Service(nil), r.Services...),
	}
	if r.CompletedAt != nil {
		v.CompletedAt = *r.CompletedAt
	}
	return v
}
