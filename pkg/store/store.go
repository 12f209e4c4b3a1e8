// Package store provides persistence for designer project documents.
//
// This package defines the Store interface with implementations for
// different backends:
//   - memory: In-memory storage for development/testing
//   - file: JSON files on disk for desktop/CLI usage
//   - redis: Redis-backed storage for shared short-lived state
//   - mongo: MongoDB-backed storage for multi-user server deployments
//
// # Architecture
//
// A project document bundles every workspace layer of one project
// (see schema.ProjectDocument). The Store interface supports:
//   - Load/Save/Delete by project name
//   - Listing stored project names
//
// All backends serialize through pkg/schema, so a project written by one
// backend can be read by any other.
//
// # Usage
//
// Create a store:
//
//	// Development
//	st := store.NewMemory()
//
//	// Desktop
//	st, err := store.NewFile("")  // Uses ~/.config/ssaa-designer/projects/
//
//	// Server
//	st, err := store.NewRedis(ctx, store.RedisConfig{Addr: "localhost:6379"})
//
// Load and save:
//
//	doc, err := st.Load(ctx, "SE Maitencillo")
//	if errors.Is(err, store.ErrNotFound) {
//	    doc = &schema.ProjectDocument{Name: "SE Maitencillo"}
//	}
//	doc.Migrate()
//	// ... mutate layers ...
//	err = st.Save(ctx, "SE Maitencillo", doc)
package store

import (
	"context"
	"errors"

	"github.com/jzagalv/ssaa-designer/pkg/schema"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a project does not exist.
	ErrNotFound = errors.New("project not found")

	// ErrClosed is returned when the store has been closed.
	ErrClosed = errors.New("store closed")
)

// Store is the interface for project persistence backends.
type Store interface {
	// Load retrieves a project document by name.
	// Returns ErrNotFound if the project doesn't exist.
	Load(ctx context.Context, name string) (*schema.ProjectDocument, error)

	// Save stores a project document under the given name.
	Save(ctx context.Context, name string, doc *schema.ProjectDocument) error

	// Delete removes a project. Deleting a missing project is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the stored project names, sorted.
	List(ctx context.Context) ([]string, error)

	// Close releases backend resources.
	Close() error
}
