package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/todosoa/pkg/domain"
	"github.com/aretw0/todosoa/pkg/link"
	"github.com/aretw0/todosoa/pkg/ports"
)

// Agent points at one resource. Root agents carry a fixed address; followed
// agents find theirs by sending HEAD to the parent and matching its links.
type Agent struct {
	dispatcher ports.Dispatcher
	parent     *Agent
	query      link.Query

	mu  sync.Mutex
	url string
}

// NewAgent creates a root agent for a fixed address such as "local://storage/".
func NewAgent(dispatcher ports.Dispatcher, url string) *Agent {
	return &Agent{dispatcher: dispatcher, url: url}
}

// Follow returns a child agent for the first parent link matching q.
// Nothing is dispatched until the child is used.
func (a *Agent) Follow(q link.Query) *Agent {
	return &Agent{dispatcher: a.dispatcher, parent: a, query: q}
}

// Resolve returns the agent's address, navigating and caching it if needed.
func (a *Agent) Resolve(ctx context.Context) (string, error) {
	a.mu.Lock()
	url := a.url
	a.mu.Unlock()
	if url != "" {
		return url, nil
	}
	if a.parent == nil {
		return "", fmt.Errorf("agent has no address")
	}

	base, err := a.parent.Resolve(ctx)
	if err != nil {
		return "", err
	}

	res, err := a.parent.dispatch(ctx, base, &domain.Request{Method: domain.MethodHead})
	if err != nil {
		return "", fmt.Errorf("failed to fetch links of %s: %w", base, err)
	}

	href, err := link.Resolve(res.Links, a.query)
	if err != nil {
		return "", fmt.Errorf("failed to follow %s from %s: %w", a.query, base, err)
	}
	url, err = domain.ResolveReference(base, href)
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	a.url = url
	a.mu.Unlock()
	return url, nil
}

// Unresolve drops the cached address of a followed agent.
// Root agents keep their fixed address.
func (a *Agent) Unresolve() {
	if a.parent == nil {
		return
	}
	a.mu.Lock()
	a.url = ""
	a.mu.Unlock()
}

// Dispatch sends req to the agent's address. Host and path come from the
// address; query parameters from the request are merged over the address's.
func (a *Agent) Dispatch(ctx context.Context, req *domain.Request) (*domain.Response, error) {
	url, err := a.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return a.dispatch(ctx, url, req)
}

func (a *Agent) dispatch(ctx context.Context, url string, req *domain.Request) (*domain.Response, error) {
	host, path, query, err := domain.ParseAddress(url)
	if err != nil {
		return nil, err
	}
	for k, v := range req.Query {
		query[k] = v
	}

	out := *req
	out.Host = host
	out.Path = path
	out.Query = query
	return a.dispatcher.Dispatch(ctx, &out)
}

// Do is shorthand for Dispatch with a method, query and body.
func (a *Agent) Do(ctx context.Context, method string, query map[string]string, body any) (*domain.Response, error) {
	return a.Dispatch(ctx, &domain.Request{Method: method, Query: query, Body: body})
}

// Head sends HEAD.
func (a *Agent) Head(ctx context.Context) (*domain.Response, error) {
	return a.Do(ctx, domain.MethodHead, nil, nil)
}

// Get sends GET with optional query parameters.
func (a *Agent) Get(ctx context.Context, query map[string]string) (*domain.Response, error) {
	return a.Do(ctx, domain.MethodGet, query, nil)
}

// Post sends POST with body.
func (a *Agent) Post(ctx context.Context, body any) (*domain.Response, error) {
	return a.Do(ctx, domain.MethodPost, nil, body)
}

// Put sends PUT with body.
func (a *Agent) Put(ctx context.Context, body any) (*domain.Response, error) {
	return a.Do(ctx, domain.MethodPut, nil, body)
}

// Delete sends DELETE.
func (a *Agent) Delete(ctx context.Context) (*domain.Response, error) {
	return a.Do(ctx, domain.MethodDelete, nil, nil)
}
