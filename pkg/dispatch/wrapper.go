package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/aretw0/todosoa/pkg/domain"
	"github.com/aretw0/todosoa/pkg/ports"
)

// Wrapper decorates every delivery made by a Registry.
type Wrapper func(next ports.RequestHandler) ports.RequestHandler

// Chain wraps h so that the first wrapper listed runs first.
func Chain(h ports.RequestHandler, wrappers ...Wrapper) ports.RequestHandler {
	for i := len(wrappers) - 1; i >= 0; i-- {
		h = wrappers[i](h)
	}
	return h
}

// Logging logs each delivery: debug for successes, warn for failures.
func Logging(logger *slog.Logger) Wrapper {
	return func(next ports.RequestHandler) ports.RequestHandler {
		return ports.HandlerFunc(func(ctx context.Context, req *domain.Request) *domain.Response {
			start := time.Now()
			res := next.Handle(ctx, req)

			level := slog.LevelDebug
			if res != nil && res.Status >= domain.StatusBadRequest {
				level = slog.LevelWarn
			}
			status := 0
			if res != nil {
				status = res.Status
			}
			logger.Log(ctx, level, "Dispatch",
				"method", req.Method,
				"url", req.URL(),
				"status", status,
				"duration", time.Since(start),
			)
			return res
		})
	}
}

// Recover turns a panicking server into a 500 response.
func Recover(logger *slog.Logger) Wrapper {
	return func(next ports.RequestHandler) ports.RequestHandler {
		return ports.HandlerFunc(func(ctx context.Context, req *domain.Request) (res *domain.Response) {
			defer func() {
				if p := recover(); p != nil {
					logger.Error("Server panicked",
						"method", req.Method,
						"url", req.URL(),
						"panic", p,
						"stack", string(debug.Stack()),
					)
					res = domain.ErrorResponse(fmt.Errorf("server panic: %v", p))
				}
			}()
			return next.Handle(ctx, req)
		})
	}
}
