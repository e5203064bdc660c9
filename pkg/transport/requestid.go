package transport

import (
	"context"

	"github.com/google/uuid"

	"github.com/rhuss/qaserve/pkg/api"
)

type requestIDKey struct{}

// ContextWithRequestID returns a copy of ctx that carries id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID carried by ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// NewRequestID returns a random UUID string.
func NewRequestID() string {
	return uuid.NewString()
}

// RequestID makes sure every query runs with a request ID. An ID already
// present in the context, typically taken from X-Request-ID by the HTTP
// adapter, is kept.
func RequestID() Middleware {
	return func(next QueryHandler) QueryHandler {
		return QueryHandlerFunc(func(ctx context.Context, q *api.AnswerQuery) (*api.AnswerResult, error) {
			if RequestIDFromContext(ctx) == "" {
				ctx = ContextWithRequestID(ctx, NewRequestID())
			}
			return next.HandleQuery(ctx, q)
		})
	}
}
