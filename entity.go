package harvest

import "time"

// Entity carries the timestamps common to all Harvest entities.
// CreatedAt is set once at creation; UpdatedAt is refreshed on every
// state or progress change.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity returns an Entity with both timestamps set to now (UTC).
func NewEntity() Entity {
	now := time.Now().UTC()
	return Entity{CreatedAt: now, UpdatedAt: now}
}

// Touch refreshes UpdatedAt to now (UTC).
func (e *Entity) Touch() {
	e.UpdatedAt = time.Now().UTC()
}
