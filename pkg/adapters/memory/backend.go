package memory

import (
	"context"
	"sync"

	"github.com/aretw0/todosoa/pkg/domain"
)

// Backend implements ports.Backend in memory.
// Safe for concurrent use.
type Backend struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// New creates a new in-memory backend.
func New() *Backend {
	return &Backend{
		data: make(map[string][]byte),
	}
}

// Save stores a copy of the document.
func (b *Backend) Save(ctx context.Context, name string, data []byte) error {
	// Copy so the caller can reuse its buffer
	copied := make([]byte, len(data))
	copy(copied, data)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[name] = copied
	return nil
}

// Load returns a copy of the stored document.
func (b *Backend) Load(ctx context.Context, name string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.data[name]
	if !ok {
		return nil, domain.ErrCollectionNotFound
	}

	ret := make([]byte, len(data))
	copy(ret, data)
	return ret, nil
}

// Delete removes the document.
func (b *Backend) Delete(ctx context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, name)
	return nil
}

// List returns the stored collection names.
func (b *Backend) List(ctx context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.data))
	for name := range b.data {
		names = append(names, name)
	}
	return names, nil
}
