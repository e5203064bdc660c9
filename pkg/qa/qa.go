package qa

import (
	"context"

	"github.com/rhuss/qaserve/pkg/api"
)

// Answerer is the external question answering capability. Implementations
// must be safe for concurrent use.
type Answerer interface {
	// Name returns the backend identifier (e.g., "huggingface").
	Name() string

	// Answer returns the best answer span for question within passage.
	Answer(ctx context.Context, question, passage string) (*api.AnswerResult, error)

	// Close releases backend resources.
	Close() error
}

// AnswerFunc adapts a function to the Answerer interface. Useful for tests
// and lightweight in-process backends.
type AnswerFunc func(ctx context.Context, question, passage string) (*api.AnswerResult, error)

// Name returns "func".
func (f AnswerFunc) Name() string { return "func" }

// Answer calls f.
func (f AnswerFunc) Answer(ctx context.Context, question, passage string) (*api.AnswerResult, error) {
	return f(ctx, question, passage)
}

// Close is a no-op.
func (f AnswerFunc) Close() error { return nil }
