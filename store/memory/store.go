// Package memory is a fully in-memory store backend. Safe for
// concurrent access; intended for unit testing and development.
//
// Each run gets its own lock, so mutations on one run never block
// readers or writers of another. The outer map lock is held only long
// enough to look up or insert an entry.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/harvest"
	"github.com/xraph/harvest/collection"
	"github.com/xraph/harvest/id"
)

// Ensure Store implements the run store contract at compile time.
var _ collection.Store = (*Store)(nil)

// entry pairs a run record with its own lock. Writers hold mu
// exclusively for the whole read-modify-write; readers share it just
// long enough to clone a consistent snapshot.
type entry struct {
	mu  sync.RWMutex
	run *collection.Run
}

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu     sync.RWMutex
	runs   map[string]*entry
	closed bool
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		runs: make(map[string]*entry),
	}
}

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping reports whether the store is open.
func (m *Store) Ping(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return harvest.ErrStoreClosed
	}
	return nil
}

// Close marks the store closed. Subsequent operations fail with
// harvest.ErrStoreClosed.
func (m *Store) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// CreateRun persists a new run.
func (m *Store) CreateRun(_ context.Context, r *collection.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return harvest.ErrStoreClosed
	}

	key := r.ID.String()
	if _, exists := m.runs[key]; exists {
		return harvest.ErrRunAlreadyExists
	}
	m.runs[key] = &entry{run: r.Clone()}
	return nil
}

// GetRun retrieves a run by ID. The returned run is a copy; callers can
// mutate it without racing with the store.
func (m *Store) GetRun(_ context.Context, runID id.CollectionID) (*collection.Run, error) {
	e, err := m.lookup(runID)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.run.Clone(), nil
}

// UpdateRun applies fn to the run under its per-run lock and persists
// the result. Concurrent updates to the same run apply as a strict
// sequence; updates to distinct runs proceed in parallel.
func (m *Store) UpdateRun(_ context.Context, runID id.CollectionID, fn collection.Mutator) (*collection.Run, error) {
	e, err := m.lookup(runID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.run.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.Touch()
	e.run = next
	return next.Clone(), nil
}

// ListRunsByState returns runs matching the given state, newest first.
func (m *Store) ListRunsByState(_ context.Context, state collection.State, opts collection.ListOpts) ([]*collection.Run, error) {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil, harvest.ErrStoreClosed
	}
	entries := make([]*entry, 0, len(m.runs))
	for _, e := range m.runs {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	result := make([]*collection.Run, 0, len(entries))
	for _, e := range entries {
		e.mu.RLock()
		r := e.run
		if r.State == state && (opts.OwnerID == "" || r.OwnerID == opts.OwnerID) {
			result = append(result, r.Clone())
		}
		e.mu.RUnlock()
	}

	sort.Slice(result, func(i, k int) bool {
		return result[i].CreatedAt.After(result[k].CreatedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(result) {
			return []*collection.Run{}, nil
		}
		result = result[opts.Offset:]
	}
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}

	return result, nil
}

// CountRuns returns the number of runs matching the given options.
func (m *Store) CountRuns(_ context.Context, opts collection.CountOpts) (int64, error) {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return 0, harvest.ErrStoreClosed
	}
	entries := make([]*entry, 0, len(m.runs))
	for _, e := range m.runs {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	var count int64
	for _, e := range entries {
		e.mu.RLock()
		r := e.run
		if (opts.State == "" || r.State == opts.State) &&
			(opts.OwnerID == "" || r.OwnerID == opts.OwnerID) {
			count++
		}
		e.mu.RUnlock()
	}
	return count, nil
}

// lookup finds the entry for a run ID under the map lock.
func (m *Store) lookup(runID id.CollectionID) (*entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, harvest.ErrStoreClosed
	}
	e, ok := m.runs[runID.String()]
	if !ok {
		return nil, harvest.ErrRunNotFound
	}
	return e, nil
}
