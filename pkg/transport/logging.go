package transport

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/rhuss/qaserve/pkg/api"
)

// Logging returns middleware that emits one structured log entry per query
// with the request ID, backend name, input sizes, duration and outcome.
func Logging(logger *slog.Logger, backend string) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next QueryHandler) QueryHandler {
		return QueryHandlerFunc(func(ctx context.Context, q *api.AnswerQuery) (*api.AnswerResult, error) {
			start := time.Now()

			res, err := next.HandleQuery(ctx, q)

			attrs := []slog.Attr{
				slog.String("request_id", RequestIDFromContext(ctx)),
				slog.String("backend", backend),
				slog.Int("question_chars", utf8.RuneCountInString(q.Question)),
				slog.Int("context_chars", utf8.RuneCountInString(q.Context)),
				slog.Duration("duration", time.Since(start)),
			}

			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelError, "query failed", attrs...)
			} else {
				attrs = append(attrs, slog.Float64("score", res.Score))
				logger.LogAttrs(ctx, slog.LevelInfo, "query answered", attrs...)
			}

			return res, err
		})
	}
}
