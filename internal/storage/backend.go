// Package storage persists food web snapshots.
//
// It defines the Backend interface that all storage implementations must
// satisfy, along with the Snapshot record they store.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Benny93/foodweb-go/internal/foodweb"
)

// ErrEmptyName is returned when a snapshot without a name is stored.
var ErrEmptyName = errors.New("snapshot name must not be empty")

// ErrNotInitialized is returned when a backend is used before Initialize.
var ErrNotInitialized = errors.New("storage backend not initialized")

// ErrReadOnly is returned when a read-only backend is written to.
var ErrReadOnly = errors.New("storage backend is read-only")

// Snapshot is a dataset stored together with the analysis computed from it.
type Snapshot struct {
	// Name is the key the snapshot is stored under.
	Name string `json:"name"`

	// Dataset is the food web configuration.
	Dataset foodweb.Dataset `json:"dataset"`

	// Metrics is the analysis of Dataset at the time it was saved.
	Metrics foodweb.Metrics `json:"metrics"`

	// SavedAt is when the snapshot was written.
	SavedAt time.Time `json:"saved_at"`
}

// NewSnapshot captures the web under the given name. An empty name falls back
// to the dataset name.
func NewSnapshot(name string, web *foodweb.FoodWeb, now time.Time) Snapshot {
	if name == "" {
		name = web.Name()
	}
	return Snapshot{
		Name:    name,
		Dataset: web.Dataset(),
		Metrics: web.Metrics(),
		SavedAt: now.UTC(),
	}
}

// Backend defines the interface for storage implementations.
//
// Implementations must be thread-safe and support concurrent access.
type Backend interface {
	// Lifecycle methods

	// Initialize opens or creates the storage backend at the given path.
	// If readOnly is true, the backend is opened in read-only mode.
	Initialize(path string, readOnly bool) error

	// Close releases all resources held by the backend.
	Close() error

	// Snapshot operations

	// Put stores the snapshot, replacing any snapshot with the same name.
	Put(ctx context.Context, snap Snapshot) error

	// Get returns the named snapshot, or nil if it does not exist.
	Get(ctx context.Context, name string) (*Snapshot, error)

	// List returns the names of all stored snapshots in lexical order.
	List(ctx context.Context) ([]string, error)

	// Delete removes the named snapshot. Returns true if it existed.
	Delete(ctx context.Context, name string) (bool, error)
}
