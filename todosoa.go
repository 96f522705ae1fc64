package todosoa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/todosoa/pkg/dispatch"
	"github.com/aretw0/todosoa/pkg/domain"
	"github.com/aretw0/todosoa/pkg/host"
	"github.com/aretw0/todosoa/pkg/persistence/middleware"
	"github.com/aretw0/todosoa/pkg/ports"
	"github.com/aretw0/todosoa/pkg/render"
	"github.com/aretw0/todosoa/pkg/store"
	"github.com/aretw0/todosoa/pkg/view"
	"github.com/prometheus/client_golang/prometheus"
)

// Version of the todosoa module.
var Version = "0.1.0"

// Addresses of the servers every App registers next to its host.
const (
	StorageHost = "storage"
	RenderHost  = "view"
)

// App wires the storage engine, the render service and the resource host
// into one dispatcher, with an in-memory list view as the host's output.
type App struct {
	registry *dispatch.Registry
	store    *store.Store
	render   *render.Service
	host     *host.Host
	view     *view.Model
	metrics  *dispatch.Metrics
	logger   *slog.Logger
	closers  []io.Closer
}

type options struct {
	backend     ports.Backend
	middlewares []middleware.Middleware
	locker      ports.DistributedLocker
	collection  string
	definitions []render.Definition
	hostOpts    []host.Option
	registerer  prometheus.Registerer
	logger      *slog.Logger
	closers     []io.Closer
}

// Option defines a functional option for configuring the App.
type Option func(*options)

// WithBackend sets where the collection document lives (default: in memory).
func WithBackend(b ports.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithMiddleware decorates the backend. The first middleware is outermost.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(o *options) {
		o.middlewares = append(o.middlewares, mws...)
	}
}

// WithLocker serializes writers across processes.
func WithLocker(l ports.DistributedLocker) Option {
	return func(o *options) {
		o.locker = l
	}
}

// WithCollection names the stored collection (default: store.DefaultName).
func WithCollection(name string) Option {
	return func(o *options) {
		o.collection = name
	}
}

// WithTemplates adds templates to the render service, replacing built-ins
// of the same name.
func WithTemplates(defs ...render.Definition) Option {
	return func(o *options) {
		o.definitions = defs
	}
}

// WithHostOptions forwards options to the resource host.
func WithHostOptions(opts ...host.Option) Option {
	return func(o *options) {
		o.hostOpts = append(o.hostOpts, opts...)
	}
}

// WithMetrics registers request metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCloser hands resources to the App; Close releases them in reverse order.
func WithCloser(c io.Closer) Option {
	return func(o *options) {
		o.closers = append(o.closers, c)
	}
}

// New builds an App. It opens (or self-heals) the collection before returning.
func New(ctx context.Context, opts ...Option) (*App, error) {
	o := &options{collection: store.DefaultName}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.backend == nil {
		return nil, errors.New("a backend is required")
	}

	backend := middleware.Chain(o.backend, o.middlewares...)

	guardOpts := []store.GuardOption{store.WithGuardLogger(o.logger)}
	if o.locker != nil {
		guardOpts = append(guardOpts, store.WithLocker(o.locker))
	}
	s, err := store.Open(ctx, o.collection, backend,
		store.WithLogger(o.logger.With("collection", o.collection)),
		store.WithGuard(store.NewGuard(guardOpts...)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	renderOpts := []render.Option{render.WithLogger(o.logger)}
	if len(o.definitions) > 0 {
		renderOpts = append(renderOpts, render.WithDefinitions(o.definitions...))
	}
	svc, err := render.New(renderOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build render service: %w", err)
	}

	wrappers := []dispatch.Wrapper{dispatch.Recover(o.logger), dispatch.Logging(o.logger)}
	var metrics *dispatch.Metrics
	if o.registerer != nil {
		metrics = dispatch.NewMetrics(o.registerer)
		wrappers = append([]dispatch.Wrapper{metrics.Wrapper()}, wrappers...)
	}
	registry := dispatch.NewRegistry(dispatch.WithWrappers(wrappers...), dispatch.WithLogger(o.logger))
	registry.Register(StorageHost, store.NewHandler(s, o.logger))
	registry.Register(RenderHost, svc)

	model := view.New()
	hostOpts := append([]host.Option{host.WithLogger(o.logger)}, o.hostOpts...)
	h := host.New(registry,
		domain.FormatAddress(StorageHost, "/", nil),
		domain.FormatAddress(RenderHost, "/", nil),
		model, hostOpts...)
	registry.Register(h.Name(), h)

	return &App{
		registry: registry,
		store:    s,
		render:   svc,
		host:     h,
		view:     model,
		metrics:  metrics,
		logger:   o.logger,
		closers:  o.closers,
	}, nil
}

// Registry returns the dispatcher every server is registered on.
func (a *App) Registry() *dispatch.Registry { return a.registry }

// Store returns the storage engine.
func (a *App) Store() *store.Store { return a.store }

// View returns the list view the host renders into.
func (a *App) View() *view.Model { return a.view }

// Host returns the resource host.
func (a *App) Host() *host.Host { return a.host }

// Render returns the render service.
func (a *App) Render() *render.Service { return a.render }

// Metrics returns nil unless the App was built WithMetrics.
func (a *App) Metrics() *dispatch.Metrics { return a.metrics }

// Dispatch sends a request to the host.
func (a *App) Dispatch(ctx context.Context, method, path string, body any) (*domain.Response, error) {
	return a.registry.Dispatch(ctx, &domain.Request{
		Method: method,
		Host:   a.host.Name(),
		Path:   path,
		Body:   body,
	})
}

// Add creates an item and refreshes the view.
func (a *App) Add(ctx context.Context, title string) error {
	_, err := a.Dispatch(ctx, domain.MethodPost, "/", map[string]any{"title": title})
	return err
}

// SetCompleted checks or unchecks an item or a pseudo-collection.
func (a *App) SetCompleted(ctx context.Context, id string, completed bool) error {
	method := domain.MethodUncheck
	if completed {
		method = domain.MethodCheck
	}
	_, err := a.Dispatch(ctx, method, "/"+id, nil)
	return err
}

// Remove deletes an item or a pseudo-collection.
func (a *App) Remove(ctx context.Context, id string) error {
	_, err := a.Dispatch(ctx, domain.MethodDelete, "/"+id, nil)
	return err
}

// ClearCompleted deletes every completed item.
func (a *App) ClearCompleted(ctx context.Context) error {
	return a.Remove(ctx, string(domain.RouteCompleted))
}

// ToggleAll completes every active item when checked, and reopens every
// completed item otherwise.
func (a *App) ToggleAll(ctx context.Context, checked bool) error {
	if checked {
		return a.SetCompleted(ctx, string(domain.RouteActive), true)
	}
	return a.SetCompleted(ctx, string(domain.RouteCompleted), false)
}

// Rename edits an item's title. An empty title removes the item.
func (a *App) Rename(ctx context.Context, id, title string) error {
	if _, err := a.Dispatch(ctx, domain.MethodEdit, "/"+id, nil); err != nil {
		return err
	}
	return a.host.CommitEdit(ctx, id, title, false)
}

// Navigate selects the route named by a fragment ("#/active") and redraws.
func (a *App) Navigate(ctx context.Context, fragment string) error {
	return a.host.Navigate(ctx, fragment)
}

// Show selects route and redraws the list.
func (a *App) Show(ctx context.Context, route domain.Route) error {
	return a.Navigate(ctx, route.Fragment())
}

// Count returns the item counts straight from storage.
func (a *App) Count(ctx context.Context) (domain.Counts, error) {
	return a.store.Count(ctx)
}

// Close releases every resource handed over WithCloser, last first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
