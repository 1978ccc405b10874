// Package worker provides the reference collection dispatcher — a
// Registry of per-service collectors and a Pool that executes runs
// through middleware with bounded concurrency, reporting progress back
// into the lifecycle tracker.
package worker

import (
	"context"
	"sync"

	"github.com/xraph/harvest/collection"
)

// Collector extracts data from one service for a run. It returns the
// number of records collected. Collectors must honour ctx cancellation
// and deadlines; long extractions should check ctx between batches.
type Collector interface {
	Collect(ctx context.Context, r *collection.Run) (records int, err error)
}

// CollectorFunc adapts a function to the Collector interface.
type CollectorFunc func(ctx context.Context, r *collection.Run) (int, error)

// Collect calls f.
func (f CollectorFunc) Collect(ctx context.Context, r *collection.Run) (int, error) {
	return f(ctx, r)
}

// Registry maps service names to collectors. It is safe for
// concurrent use.
type Registry struct {
	mu         sync.RWMutex
	collectors map[collection.Service]Collector
}

// NewRegistry creates an empty collector registry.
func NewRegistry() *Registry {
	return &Registry{
		collectors: make(map[collection.Service]Collector),
	}
}

// Register registers the collector for a service, replacing any
// previous registration.
func (r *Registry) Register(svc collection.Service, c Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collectors[svc] = c
}

// Get returns the collector for the given service.
// Returns false if none is registered.
func (r *Registry) Get(svc collection.Service) (Collector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collectors[svc]
	return c, ok
}

// Services returns all registered service names.
func (r *Registry) Services() []collection.Service {
	r.mu.RLock()
	defer r.mu.RUnlock()
	services := make([]collection.Service, 0, len(r.collectors))
	for svc := range r.collectors {
		services = append(services, svc)
	}
	return services
}
