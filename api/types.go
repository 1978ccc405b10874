package api

// TriggerRequest is the body for POST /v1/collections.
type TriggerRequest struct {
	// CollectionType selects the run kind: full, incremental, or targeted.
	CollectionType string `json:"collection_type"`
	// Services lists the services to collect from. Empty means the
	// default set.
	Services []string `json:"services,omitempty"`
}

// TriggerResponse acknowledges an accepted trigger.
type TriggerResponse struct {
	CollectionID      string `json:"collection_id"`
	Status            string `json:"status"`
	EstimatedDuration string `json:"estimated_duration,omitempty"`
}

// ListCollectionsRequest holds query parameters for listing runs.
type ListCollectionsRequest struct {
	State  string `query:"state"`
	Limit  int    `query:"limit"`
	Offset int    `query:"offset"`
}

// CountsResponse groups run counts by state.
type CountsResponse struct {
	Started    int64 `json:"started"`
	InProgress int64 `json:"in_progress"`
	Completed  int64 `json:"completed"`
	Cancelled  int64 `json:"cancelled"`
	Failed     int64 `json:"failed"`
}

// defaultLimit caps unbounded list requests.
func defaultLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 100
	}
	return limit
}
