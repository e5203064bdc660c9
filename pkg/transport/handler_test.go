package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/rhuss/qaserve/pkg/api"
	"github.com/rhuss/qaserve/pkg/qa"
)

func TestQueryHandlerFuncAdapter(t *testing.T) {
	called := false
	var received *api.AnswerQuery

	fn := QueryHandlerFunc(func(ctx context.Context, q *api.AnswerQuery) (*api.AnswerResult, error) {
		called = true
		received = q
		return &api.AnswerResult{Answer: "x", End: 1}, nil
	})

	// Verify it satisfies the interface.
	var _ QueryHandler = fn

	q := &api.AnswerQuery{Question: "q", Context: "x"}
	res, err := fn.HandleQuery(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected function to be called")
	}
	if received != q {
		t.Error("query not passed through")
	}
	if res.Answer != "x" {
		t.Errorf("answer = %q, want %q", res.Answer, "x")
	}
}

func TestBackendForwardsFields(t *testing.T) {
	var gotQuestion, gotPassage string
	a := qa.AnswerFunc(func(_ context.Context, question, passage string) (*api.AnswerResult, error) {
		gotQuestion, gotPassage = question, passage
		return &api.AnswerResult{Answer: "Paris", Score: 0.9, Start: 0, End: 5}, nil
	})

	res, err := Backend(a).HandleQuery(context.Background(), &api.AnswerQuery{
		Question: "Capital?",
		Context:  "Paris is the capital.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuestion != "Capital?" || gotPassage != "Paris is the capital." {
		t.Errorf("backend received (%q, %q)", gotQuestion, gotPassage)
	}
	if res.End != 5 {
		t.Errorf("end = %d, want 5", res.End)
	}
}

func TestBackendReturnsError(t *testing.T) {
	want := errors.New("model unavailable")
	a := qa.AnswerFunc(func(context.Context, string, string) (*api.AnswerResult, error) {
		return nil, want
	})

	_, err := Backend(a).HandleQuery(context.Background(), &api.AnswerQuery{})
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}
