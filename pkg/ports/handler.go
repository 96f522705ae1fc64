package ports

import (
	"context"

	"github.com/aretw0/todosoa/pkg/domain"
)

// RequestHandler is implemented by every in-process server.
// Handle must always produce exactly one response; failures are expressed
// through the response status.
type RequestHandler interface {
	Handle(ctx context.Context, req *domain.Request) *domain.Response
}

// HandlerFunc adapts a function to RequestHandler.
type HandlerFunc func(ctx context.Context, req *domain.Request) *domain.Response

// Handle calls f(ctx, req).
func (f HandlerFunc) Handle(ctx context.Context, req *domain.Request) *domain.Response {
	return f(ctx, req)
}

// Dispatcher delivers a request to the server registered for its host.
// It returns *domain.ResponseError for responses with a failure status.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *domain.Request) (*domain.Response, error)
}
