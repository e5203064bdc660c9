package transport

import (
	"context"

	"github.com/rhuss/qaserve/pkg/api"
	"github.com/rhuss/qaserve/pkg/qa"
)

// QueryHandler answers a single decoded question. It is the contract between
// the HTTP adapter and the question answering capability.
type QueryHandler interface {
	HandleQuery(ctx context.Context, q *api.AnswerQuery) (*api.AnswerResult, error)
}

// QueryHandlerFunc is an adapter that allows using an ordinary function
// as a QueryHandler.
type QueryHandlerFunc func(ctx context.Context, q *api.AnswerQuery) (*api.AnswerResult, error)

// HandleQuery calls f(ctx, q).
func (f QueryHandlerFunc) HandleQuery(ctx context.Context, q *api.AnswerQuery) (*api.AnswerResult, error) {
	return f(ctx, q)
}

// Backend returns a QueryHandler that forwards every query to a.
func Backend(a qa.Answerer) QueryHandler {
	return QueryHandlerFunc(func(ctx context.Context, q *api.AnswerQuery) (*api.AnswerResult, error) {
		return a.Answer(ctx, q.Question, q.Context)
	})
}
