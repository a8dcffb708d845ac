// Package store persists catalog snapshots. Two backends are provided: a
// directory of small JSON documents (the default) and a single SQLite
// database. Saves are full replacements, never merges.
package store

import (
	"context"
	"fmt"

	"github.com/papapumpkin/parallax/internal/catalog"
)

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Store loads and saves catalog snapshots.
type Store interface {
	// Load returns the persisted snapshot. A missing store yields an empty
	// snapshot and is created. Corrupt parts are returned empty together
	// with a non-nil error wrapping ErrRead; the snapshot is still usable.
	Load(ctx context.Context) (catalog.Snapshot, error)
	// Save atomically replaces the persisted snapshot.
	Save(ctx context.Context, snap catalog.Snapshot) error
	// Reset removes everything persisted.
	Reset(ctx context.Context) error
	Close() error
}

// Open returns the store for backend rooted at dir.
func Open(ctx context.Context, backend, dir string) (Store, error) {
	switch backend {
	case "", BackendJSON:
		return NewJSONStore(dir)
	case BackendSQLite:
		return NewSQLiteStore(ctx, dir)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
