package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/todosoa/internal/logging"
	"github.com/aretw0/todosoa/pkg/domain"
	"github.com/aretw0/todosoa/pkg/ports"
	"github.com/google/uuid"
)

// DefaultName is the collection used when none is configured.
const DefaultName = "todos-hypermedia"

// document is the persisted shape of a collection.
type document struct {
	Todos []domain.Item `json:"todos"`
}

// Store is one named collection of items.
type Store struct {
	name    string
	backend ports.Backend
	guard   *Guard
	logger  *slog.Logger
	newID   func() (string, error)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger configures a logger for the Store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithGuard shares a Guard between stores (and with a distributed locker).
func WithGuard(guard *Guard) Option {
	return func(s *Store) {
		s.guard = guard
	}
}

// WithIDGenerator replaces the UUIDv7 generator. Intended for tests.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// Open binds a collection to a backend. An absent or unreadable document is
// replaced by an empty collection; any other backend failure is returned.
func Open(ctx context.Context, name string, backend ports.Backend, opts ...Option) (*Store, error) {
	if name == "" {
		name = DefaultName
	}
	s := &Store{
		name:    name,
		backend: backend,
		logger:  logging.NewNop(),
		newID:   newUUID,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.guard == nil {
		s.guard = NewGuard(WithGuardLogger(s.logger))
	}

	err := s.guard.WithLock(ctx, s.name, func(ctx context.Context) error {
		_, err := s.load(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrCollectionNotFound) && !errors.Is(err, errCorrupt) {
			return err
		}
		if errors.Is(err, errCorrupt) {
			s.logger.Warn("Collection unreadable, resetting to empty", "collection", s.name, "err", err)
		}
		return s.save(ctx, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %q: %w", name, err)
	}
	return s, nil
}

func newUUID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

var errCorrupt = errors.New("corrupt collection document")

// Name returns the collection name.
func (s *Store) Name() string {
	return s.name
}

func (s *Store) load(ctx context.Context) ([]domain.Item, error) {
	data, err := s.backend.Load(ctx, s.name)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", errCorrupt, err)
	}
	return doc.Todos, nil
}

func (s *Store) save(ctx context.Context, items []domain.Item) error {
	if items == nil {
		items = []domain.Item{}
	}
	data, err := json.Marshal(document{Todos: items})
	if err != nil {
		return fmt.Errorf("failed to marshal collection: %w", err)
	}
	if err := s.backend.Save(ctx, s.name, data); err != nil {
		return fmt.Errorf("failed to save collection: %w", err)
	}
	return nil
}

// read loads the collection, treating a vanished document as empty.
func (s *Store) read(ctx context.Context) ([]domain.Item, error) {
	items, err := s.load(ctx)
	if errors.Is(err, domain.ErrCollectionNotFound) {
		return []domain.Item{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}
	return items, nil
}

// mutate runs a read-modify-write cycle under the collection lock.
func (s *Store) mutate(ctx context.Context, fn func([]domain.Item) ([]domain.Item, bool, error)) ([]domain.Item, error) {
	var out []domain.Item
	err := s.guard.WithLock(ctx, s.name, func(ctx context.Context) error {
		items, err := s.read(ctx)
		if err != nil {
			return err
		}
		next, changed, err := fn(items)
		if err != nil {
			return err
		}
		out = next
		if !changed {
			return nil
		}
		return s.save(ctx, next)
	})
	return out, err
}

// Find returns the items matching every field of the filter, in insertion order.
func (s *Store) Find(ctx context.Context, filter domain.Filter) ([]domain.Item, error) {
	var out []domain.Item
	err := s.guard.WithLock(ctx, s.name, func(ctx context.Context) error {
		items, err := s.read(ctx)
		if err != nil {
			return err
		}
		out = make([]domain.Item, 0, len(items))
		for _, item := range items {
			if filter.Match(item) {
				out = append(out, item)
			}
		}
		return nil
	})
	return out, err
}

// FindAll returns every item in insertion order.
func (s *Store) FindAll(ctx context.Context) ([]domain.Item, error) {
	return s.Find(ctx, domain.Filter{})
}

// Create appends a new item with a fresh id. The title is required.
func (s *Store) Create(ctx context.Context, patch domain.Patch) (domain.Item, error) {
	if patch.Title == nil {
		return domain.Item{}, fmt.Errorf("%w: title is required", domain.ErrMalformedBody)
	}
	title, err := SanitizeTitle(strings.TrimSpace(*patch.Title))
	if err != nil {
		return domain.Item{}, err
	}
	if title == "" {
		return domain.Item{}, fmt.Errorf("%w: title is empty", domain.ErrMalformedBody)
	}

	id, err := s.newID()
	if err != nil {
		return domain.Item{}, fmt.Errorf("failed to generate id: %w", err)
	}
	item := domain.Item{ID: id, Title: title}
	if patch.Completed != nil {
		item.Completed = *patch.Completed
	}

	_, err = s.mutate(ctx, func(items []domain.Item) ([]domain.Item, bool, error) {
		return append(items, item), true, nil
	})
	if err != nil {
		return domain.Item{}, err
	}

	s.logger.Debug("Item created", "collection", s.name, "id", item.ID)
	return item, nil
}

// Update overwrites the fields set in patch on the item with the given id
// and returns the full collection. An absent id leaves the collection as is.
func (s *Store) Update(ctx context.Context, id string, patch domain.Patch) ([]domain.Item, error) {
	if patch.Title != nil {
		title, err := SanitizeTitle(*patch.Title)
		if err != nil {
			return nil, err
		}
		patch.Title = &title
	}

	return s.mutate(ctx, func(items []domain.Item) ([]domain.Item, bool, error) {
		for i := range items {
			if items[i].ID == id {
				patch.Apply(&items[i])
				return items, !patch.Empty(), nil
			}
		}
		return items, false, nil
	})
}

// Remove deletes the item with the given id. An absent id is not an error.
func (s *Store) Remove(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, func(items []domain.Item) ([]domain.Item, bool, error) {
		for i := range items {
			if items[i].ID == id {
				return append(items[:i], items[i+1:]...), true, nil
			}
		}
		return items, false, nil
	})
	return err
}

// Drop empties the collection.
func (s *Store) Drop(ctx context.Context) error {
	_, err := s.mutate(ctx, func([]domain.Item) ([]domain.Item, bool, error) {
		return []domain.Item{}, true, nil
	})
	return err
}

// Count partitions the collection by the completed flag.
func (s *Store) Count(ctx context.Context) (domain.Counts, error) {
	items, err := s.FindAll(ctx)
	if err != nil {
		return domain.Counts{}, err
	}
	return domain.CountItems(items), nil
}
