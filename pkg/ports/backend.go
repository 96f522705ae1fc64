package ports

import "context"

// Backend persists serialized collections, one document per collection name.
// The storage engine owns the format; backends only move bytes.
type Backend interface {
	// Load returns the document stored under name.
	// Returns domain.ErrCollectionNotFound if nothing was ever saved.
	Load(ctx context.Context, name string) ([]byte, error)

	// Save replaces the document stored under name.
	Save(ctx context.Context, name string, data []byte) error

	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, name string) error
}

// Lister is implemented by backends able to enumerate their collections.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}
