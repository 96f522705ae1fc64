package host

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/todosoa/internal/logging"
	"github.com/aretw0/todosoa/pkg/dispatch"
	"github.com/aretw0/todosoa/pkg/domain"
	"github.com/aretw0/todosoa/pkg/fanout"
	"github.com/aretw0/todosoa/pkg/link"
	"github.com/aretw0/todosoa/pkg/ports"
	"github.com/aretw0/todosoa/pkg/render"
)

// DefaultName is the host name the server is registered under.
const DefaultName = "todo"

// Title names the host in its root link.
const Title = "Todo App Host"

// Host is the resource host. Create it with New and register it with a
// dispatcher under Name().
type Host struct {
	name       string
	dispatcher ports.Dispatcher
	view       ports.View
	logger     *slog.Logger
	timeout    time.Duration
	limit      int

	storage  *dispatch.Agent
	listItem *dispatch.Agent
	counter  *dispatch.Agent
	clearBtn *dispatch.Agent
	shows    map[domain.Route]*dispatch.Agent

	mu              sync.Mutex
	activeRoute     domain.Route
	lastActiveRoute domain.Route
}

// Option configures a Host.
type Option func(*Host)

// WithName overrides DefaultName.
func WithName(name string) Option {
	return func(h *Host) {
		h.name = name
	}
}

// WithTimeout bounds every aggregate wait. Zero waits indefinitely.
func WithTimeout(d time.Duration) Option {
	return func(h *Host) {
		h.timeout = d
	}
}

// WithConcurrency caps the in-flight sub-requests of one fan-out.
func WithConcurrency(n int) Option {
	return func(h *Host) {
		h.limit = n
	}
}

// WithLogger configures a logger for the Host.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		h.logger = logger
	}
}

// New creates a host talking to the storage server at storageURL and the
// render server at renderURL (for example "local://storage/").
func New(dispatcher ports.Dispatcher, storageURL, renderURL string, view ports.View, opts ...Option) *Host {
	h := &Host{
		name:        DefaultName,
		dispatcher:  dispatcher,
		view:        view,
		logger:      logging.NewNop(),
		activeRoute: domain.RouteAll,
	}
	for _, opt := range opts {
		opt(h)
	}

	h.storage = dispatch.NewAgent(dispatcher, storageURL)
	renderer := dispatch.NewAgent(dispatcher, renderURL)
	h.listItem = renderer.Follow(link.Query{Rel: "item", ID: render.ListItem})
	h.counter = renderer.Follow(link.Query{Rel: "item", ID: render.Counter})
	h.clearBtn = renderer.Follow(link.Query{Rel: "item", ID: render.ClearBtn})

	self := dispatch.NewAgent(dispatcher, domain.FormatAddress(h.name, "/", nil))
	h.shows = map[domain.Route]*dispatch.Agent{}
	for _, r := range []domain.Route{domain.RouteAll, domain.RouteActive, domain.RouteCompleted} {
		h.shows[r] = self.Follow(link.Query{Rel: "item", ID: string(r)})
	}
	return h
}

// Name returns the host name to register the server under.
func (h *Host) Name() string {
	return h.name
}

// URL returns the root address of the host.
func (h *Host) URL() string {
	return domain.FormatAddress(h.name, "/", nil)
}

// Route returns the active route.
func (h *Host) Route() domain.Route {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.activeRoute
}

// Unresolve drops every cached agent address, for instance after the render
// server was replaced.
func (h *Host) Unresolve() {
	h.listItem.Unresolve()
	h.counter.Unresolve()
	h.clearBtn.Unresolve()
	for _, a := range h.shows {
		a.Unresolve()
	}
}

func (h *Host) fanoutOptions() []fanout.Option {
	var opts []fanout.Option
	if h.timeout > 0 {
		opts = append(opts, fanout.WithTimeout(h.timeout))
	}
	if h.limit > 0 {
		opts = append(opts, fanout.WithLimit(h.limit))
	}
	return opts
}

func rootLinks() []domain.Link {
	return []domain.Link{
		{Href: "/", Rel: "self service collection", Title: Title},
		{Href: "/active", Rel: "item", ID: string(domain.RouteActive)},
		{Href: "/completed", Rel: "item", ID: string(domain.RouteCompleted)},
		{Href: "/{id}", Rel: "item"},
	}
}

func itemLinks(id string) []domain.Link {
	return []domain.Link{
		{Href: "/", Rel: "up service collection", Title: Title},
		{Href: "/" + id, Rel: "self item", ID: id},
	}
}

// Handle implements ports.RequestHandler.
func (h *Host) Handle(ctx context.Context, req *domain.Request) *domain.Response {
	id := strings.TrimPrefix(req.Path, "/")

	var (
		status int
		err    error
		links  []domain.Link
	)
	if id == "" {
		links = rootLinks()
		status, err = h.handleRoot(ctx, req)
	} else {
		links = itemLinks(id)
		status, err = h.handleItem(ctx, req, id)
	}

	var res *domain.Response
	if err != nil {
		res = domain.ErrorResponse(err)
		if res.Status >= domain.StatusInternalServerError {
			h.logger.Error("Request failed", "method", req.Method, "url", req.URL(), "status", res.Status, "err", err)
		}
	} else {
		res = domain.NewResponse(status)
	}
	res.Links = links
	return res
}

func (h *Host) handleRoot(ctx context.Context, req *domain.Request) (int, error) {
	switch req.Method {
	case domain.MethodHead:
		return domain.StatusNoContent, nil
	case domain.MethodPost:
		return domain.StatusNoContent, h.create(ctx, req.Body)
	}
	return 0, fmt.Errorf("%w: %s /", domain.ErrUnsupportedMethod, req.Method)
}

func (h *Host) handleItem(ctx context.Context, req *domain.Request, id string) (int, error) {
	switch req.Method {
	case domain.MethodHead:
		return domain.StatusNoContent, nil
	case domain.MethodShow:
		route := domain.Route(id)
		if !route.Valid() {
			return 0, fmt.Errorf("%w: SHOW /%s", domain.ErrUnsupportedMethod, id)
		}
		return domain.StatusNoContent, h.show(ctx, route)
	case domain.MethodEdit:
		h.edit(id)
		return domain.StatusNoContent, nil
	case domain.MethodCheck, domain.MethodUncheck:
		return domain.StatusNoContent, h.setCompleted(ctx, id, req.Method == domain.MethodCheck)
	case domain.MethodDelete:
		return domain.StatusNoContent, h.remove(ctx, id)
	}
	return 0, fmt.Errorf("%w: %s /%s", domain.ErrUnsupportedMethod, req.Method, id)
}
