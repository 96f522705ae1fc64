package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/aretw0/todosoa"
	"github.com/aretw0/todosoa/internal/config"
	"github.com/aretw0/todosoa/pkg/adapters/file"
	"github.com/aretw0/todosoa/pkg/adapters/memory"
	"github.com/aretw0/todosoa/pkg/adapters/redis"
	"github.com/aretw0/todosoa/pkg/adapters/sqlite"
	"github.com/aretw0/todosoa/pkg/host"
	"github.com/aretw0/todosoa/pkg/persistence/middleware"
	"github.com/aretw0/todosoa/pkg/ports"
	"github.com/aretw0/todosoa/pkg/render"
	"github.com/prometheus/client_golang/prometheus"
)

// NewApp builds an App from configuration. reg may be nil to skip metrics.
func NewApp(ctx context.Context, cfg config.Config, logger *slog.Logger, reg prometheus.Registerer) (*todosoa.App, error) {
	opts := []todosoa.Option{
		todosoa.WithLogger(logger),
		todosoa.WithCollection(cfg.Store.Name),
		todosoa.WithHostOptions(
			host.WithName(cfg.Host.Domain),
			host.WithTimeout(cfg.Host.Timeout),
			host.WithConcurrency(cfg.Host.Concurrency),
		),
	}
	if reg != nil {
		opts = append(opts, todosoa.WithMetrics(reg))
	}

	// 1. Backend (+ closer and optional distributed lock)
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	opts = append(opts, todosoa.WithBackend(b.backend))
	if b.closer != nil {
		opts = append(opts, todosoa.WithCloser(b.closer))
	}
	if b.locker != nil {
		opts = append(opts, todosoa.WithLocker(b.locker))
	}

	// 2. Encryption at rest
	if cfg.Store.EncryptionKey != "" {
		encCfg := middleware.EncryptionConfig{ActiveKey: middleware.DeriveKey(cfg.Store.EncryptionKey)}
		for _, k := range cfg.Store.FallbackKeys {
			encCfg.FallbackKeys = append(encCfg.FallbackKeys, middleware.DeriveKey(k))
		}
		opts = append(opts, todosoa.WithMiddleware(middleware.NewEncryptionMiddleware(encCfg)))
	}

	// 3. Template overrides
	if cfg.Render.Templates != "" {
		defs, err := render.LoadDefinitions(cfg.Render.Templates)
		if err != nil {
			b.close()
			return nil, err
		}
		opts = append(opts, todosoa.WithTemplates(defs...))
	}

	app, err := todosoa.New(ctx, opts...)
	if err != nil {
		b.close()
		return nil, fmt.Errorf("error initializing app: %w", err)
	}
	logger.Debug("App ready", "backend", cfg.Store.Backend, "collection", cfg.Store.Name, "host", cfg.Host.Domain)
	return app, nil
}

type openedBackend struct {
	backend ports.Backend
	locker  ports.DistributedLocker
	closer  io.Closer
}

func (b openedBackend) close() {
	if b.closer != nil {
		_ = b.closer.Close()
	}
}

func openBackend(ctx context.Context, cfg config.Config) (openedBackend, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return openedBackend{backend: memory.New()}, nil

	case config.BackendFile:
		return openedBackend{backend: file.New(filepath.Join(cfg.Store.Path, "collections"))}, nil

	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, sqlitePath(cfg.Store.Path))
		if err != nil {
			return openedBackend{}, err
		}
		return openedBackend{backend: db, closer: db}, nil

	case config.BackendRedis:
		rb := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		opened := openedBackend{backend: rb, closer: rb}
		if cfg.Redis.Lock {
			opened.locker = redis.NewLocker(rb.Client(), rb.Prefix())
		}
		return opened, nil
	}
	return openedBackend{}, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// sqlitePath treats store.path as a directory unless it names a database file.
func sqlitePath(path string) string {
	if path == ":memory:" || strings.HasSuffix(path, ".db") || strings.HasSuffix(path, ".sqlite") {
		return path
	}
	return filepath.Join(path, "todosoa.db")
}
