// Package store defines the aggregate persistence interface. The
// collection package owns the run store contract; the composite Store
// adds backend lifecycle operations. Backends: Memory, Redis, Postgres.
package store

import (
	"context"

	"github.com/xraph/harvest/collection"
)

// Store is the aggregate persistence interface. A single backend
// implements the run store contract plus lifecycle operations.
type Store interface {
	collection.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
