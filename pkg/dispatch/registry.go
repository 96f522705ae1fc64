package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/todosoa/internal/logging"
	"github.com/aretw0/todosoa/pkg/domain"
	"github.com/aretw0/todosoa/pkg/ports"
)

// Registry routes requests to servers by host name.
type Registry struct {
	mu       sync.RWMutex
	servers  map[string]ports.RequestHandler
	wrappers []Wrapper
	logger   *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithWrappers adds dispatch wrappers. The first one listed is the outermost.
func WithWrappers(wrappers ...Wrapper) Option {
	return func(r *Registry) {
		r.wrappers = append(r.wrappers, wrappers...)
	}
}

// WithLogger configures a logger for the Registry.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		servers: make(map[string]ports.RequestHandler),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register binds a server to a host name, replacing any previous one.
func (r *Registry) Register(host string, server ports.RequestHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.servers[host] = server
	r.logger.Debug("Server registered", "host", host)
}

// Unregister removes the server bound to host.
func (r *Registry) Unregister(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.servers, host)
}

// Hosts lists the registered host names in sorted order.
func (r *Registry) Hosts() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hosts := make([]string, 0, len(r.servers))
	for host := range r.servers {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}

// Dispatch delivers req to the server registered for req.Host.
//
// The response is never nil. When its status is 400 or above the error is a
// *domain.ResponseError wrapping it, so callers can treat failed responses
// and transport failures alike.
func (r *Registry) Dispatch(ctx context.Context, req *domain.Request) (*domain.Response, error) {
	if req.Path == "" {
		req.Path = "/"
	}

	r.mu.RLock()
	server, ok := r.servers[req.Host]
	r.mu.RUnlock()

	if !ok {
		res := domain.ErrorResponse(fmt.Errorf("%w: %s", domain.ErrUnknownAddress, req.Host))
		return res, &domain.ResponseError{Response: res}
	}

	if err := ctx.Err(); err != nil {
		res := domain.ErrorResponse(err)
		return res, &domain.ResponseError{Response: res}
	}

	res := Chain(server, r.wrappers...).Handle(ctx, req)
	if res == nil {
		res = domain.ErrorResponse(fmt.Errorf("server %s returned no response", req.Host))
	}
	if res.Status >= domain.StatusBadRequest {
		return res, &domain.ResponseError{Response: res}
	}
	return res, nil
}
