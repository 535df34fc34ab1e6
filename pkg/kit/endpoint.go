package kit

import (
	"context"
	"time"
)

// Endpoint is one query, callable from HTTP handlers and MCP tools alike.
type Endpoint func(ctx context.Context, request any) (response any, err error)

// Middleware decorates an Endpoint.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares so the first is outermost.
// Chain(a, b, c)(endpoint) == a(b(c(endpoint)))
func Chain(outer Middleware, others ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(others) - 1; i >= 0; i-- {
			next = others[i](next)
		}
		return outer(next)
	}
}

// Observer receives the outcome of one endpoint call.
type Observer func(ctx context.Context, elapsed time.Duration, err error)

// Observe times every call and reports it to obs after the endpoint returns.
func Observe(obs Observer) Middleware {
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, request any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, request)
			obs(ctx, time.Since(start), err)
			return resp, err
		}
	}
}
