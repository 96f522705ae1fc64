package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/todosoa/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key this package writes.
const DefaultPrefix = "todosoa:collection:"

// far-future index score for collections without expiration (2100-01-01)
const noExpiryScore = 4102444800

// Backend implements ports.Backend using Redis.
// Each collection document is a plain string value; a sorted set indexes the names.
type Backend struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures a Backend.
type Option func(*Backend)

// WithTTL sets the expiration for collection documents.
func WithTTL(ttl time.Duration) Option {
	return func(b *Backend) {
		b.ttl = ttl
	}
}

// WithPrefix sets the key prefix for collection documents.
func WithPrefix(prefix string) Option {
	return func(b *Backend) {
		b.prefix = prefix
	}
}

// New creates a new Redis backend with its own client.
func New(address, password string, db int, opts ...Option) *Backend {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis backend from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Backend {
	b := &Backend{
		client: client,
		prefix: DefaultPrefix,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Client exposes the underlying client so a Locker can share it.
func (b *Backend) Client() *backend.Client {
	return b.client
}

// Prefix returns the configured key prefix.
func (b *Backend) Prefix() string {
	return b.prefix
}

func (b *Backend) key(name string) string {
	return b.prefix + name
}

func (b *Backend) indexKey() string {
	return b.prefix + "index"
}

// Save writes the document and refreshes its index entry in one pipeline.
func (b *Backend) Save(ctx context.Context, name string, data []byte) error {
	pipe := b.client.Pipeline()

	pipe.Set(ctx, b.key(name), data, b.ttl)

	score := float64(time.Now().Add(b.ttl).Unix())
	if b.ttl == 0 {
		score = noExpiryScore
	}
	pipe.ZAdd(ctx, b.indexKey(), backend.Z{
		Score:  score,
		Member: name,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the document.
func (b *Backend) Load(ctx context.Context, name string) ([]byte, error) {
	val, err := b.client.Get(ctx, b.key(name)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrCollectionNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return val, nil
}

// Delete removes the document and its index entry.
func (b *Backend) Delete(ctx context.Context, name string) error {
	pipe := b.client.Pipeline()
	pipe.Del(ctx, b.key(name))
	pipe.ZRem(ctx, b.indexKey(), name)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// List returns the live collection names, pruning expired index entries first.
func (b *Backend) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := b.client.ZRemRangeByScore(ctx, b.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired collections: %w", err)
	}

	names, err := b.client.ZRange(ctx, b.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return names, nil
}

// Close closes the redis client.
func (b *Backend) Close() error {
	return b.client.Close()
}
