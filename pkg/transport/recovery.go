package transport

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/rhuss/qaserve/pkg/api"
)

// Recovery turns a panic in the wrapped handler into a server error so a
// single bad query cannot take the process down.
func Recovery() Middleware {
	return func(next QueryHandler) QueryHandler {
		return QueryHandlerFunc(func(ctx context.Context, q *api.AnswerQuery) (res *api.AnswerResult, err error) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				slog.ErrorContext(ctx, "panic while answering query",
					"request_id", RequestIDFromContext(ctx),
					"panic", p,
					"stack", string(debug.Stack()),
				)
				res, err = nil, api.NewServerError(fmt.Sprintf("internal server error: %v", p))
			}()
			return next.HandleQuery(ctx, q)
		})
	}
}
