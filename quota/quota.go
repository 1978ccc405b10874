// Package quota enforces per-owner limits on collection triggers: a
// token-bucket rate limit on how often an owner may trigger runs, and
// a cap on how many of their runs may be in flight at once.
//
// The Manager implements lifecycle.Limiter. Owners without an explicit
// config fall back to the default config; a zero default means no
// limits at all.
package quota

import (
	"sync"

	"golang.org/x/time/rate"
)

// Config defines trigger limits for one owner.
type Config struct {
	// OwnerID is the owner this config applies to. Empty marks the
	// default config applied to owners without one of their own.
	OwnerID string

	// MaxInFlight caps simultaneous active runs for the owner. Zero
	// means no concurrency cap.
	MaxInFlight int

	// RateLimit is the maximum sustained triggers per second. Zero
	// disables rate limiting.
	RateLimit float64

	// RateBurst is the burst size for the token-bucket rate limiter.
	// Defaults to 1 if RateLimit is set but RateBurst is zero.
	RateBurst int
}

// ownerState tracks runtime state for a single owner.
type ownerState struct {
	config  Config
	limiter *rate.Limiter
	active  int
}

// Manager enforces per-owner trigger quotas. Safe for concurrent use.
type Manager struct {
	mu     sync.Mutex
	def    Config
	owners map[string]*ownerState
}

// NewManager creates a Manager with the given owner configurations.
// A config with an empty OwnerID becomes the default for owners not
// listed; without one, unlisted owners are unlimited.
func NewManager(configs ...Config) *Manager {
	m := &Manager{owners: make(map[string]*ownerState, len(configs))}
	for _, cfg := range configs {
		if cfg.OwnerID == "" {
			m.def = cfg
			continue
		}
		m.owners[cfg.OwnerID] = newOwnerState(cfg)
	}
	return m
}

func newOwnerState(cfg Config) *ownerState {
	os := &ownerState{config: cfg}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		os.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return os
}

// SetConfig configures limits for one owner, replacing any previous
// configuration. The active count carries over.
func (m *Manager) SetConfig(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cfg.OwnerID == "" {
		m.def = cfg
		return
	}

	next := newOwnerState(cfg)
	if prev := m.owners[cfg.OwnerID]; prev != nil {
		next.active = prev.active
	}
	m.owners[cfg.OwnerID] = next
}

// Acquire checks the owner's rate limit and concurrency cap. If the
// trigger is allowed it increments the active counter and returns
// true. The caller MUST call Release when the run reaches a terminal
// state.
func (m *Manager) Acquire(ownerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	os := m.owners[ownerID]
	if os == nil {
		if m.def == (Config{}) {
			return true
		}
		os = newOwnerState(m.def)
		os.config.OwnerID = ownerID
		m.owners[ownerID] = os
	}

	if os.limiter != nil && !os.limiter.Allow() {
		return false
	}
	if os.config.MaxInFlight > 0 && os.active >= os.config.MaxInFlight {
		return false
	}

	os.active++
	return true
}

// Release decrements the owner's active count.
func (m *Manager) Release(ownerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	os := m.owners[ownerID]
	if os != nil && os.active > 0 {
		os.active--
	}
}

// Active returns the owner's current in-flight count.
func (m *Manager) Active(ownerID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if os := m.owners[ownerID]; os != nil {
		return os.active
	}
	return 0
}
