package qa

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rhuss/qaserve/pkg/api"
	"github.com/rhuss/qaserve/pkg/observability"
)

type mapCache struct {
	mu sync.Mutex
	m  map[string]*api.AnswerResult
}

func (c *mapCache) Get(key string) (*api.AnswerResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.m[key]
	return r, ok
}

func (c *mapCache) Put(key string, r *api.AnswerResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = r
}

func countingAnswerer(calls *int, err error) AnswerFunc {
	return func(_ context.Context, question, passage string) (*api.AnswerResult, error) {
		*calls++
		if err != nil {
			return nil, err
		}
		return &api.AnswerResult{Answer: "Paris", Score: 0.9, Start: 0, End: 5}, nil
	}
}

func TestCacheKeyIsBoundarySafe(t *testing.T) {
	if CacheKey("ab", "c") == CacheKey("a", "bc") {
		t.Error("keys collide across the question/context boundary")
	}
	if CacheKey("q", "c") != CacheKey("q", "c") {
		t.Error("keys are not deterministic")
	}
}

func TestWithCacheServesHits(t *testing.T) {
	m := observability.Discard()
	calls := 0
	a := WithCache(countingAnswerer(&calls, nil), &mapCache{m: map[string]*api.AnswerResult{}}, m)

	first, err := a.Answer(context.Background(), "q", "Paris is nice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := a.Answer(context.Background(), "q", "Paris is nice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls != 1 {
		t.Errorf("backend called %d times, want 1", calls)
	}
	if *first != *second {
		t.Errorf("cached result differs: %+v vs %+v", first, second)
	}

	// Callers must not be able to corrupt the cached entry.
	second.Answer = "mutated"
	third, _ := a.Answer(context.Background(), "q", "Paris is nice")
	if third.Answer != "Paris" {
		t.Errorf("cache entry was mutated through a returned result: %q", third.Answer)
	}

	if got := testutil.ToFloat64(m.CacheRequestsTotal.WithLabelValues("hit")); got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CacheRequestsTotal.WithLabelValues("miss")); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
}

func TestWithCacheDoesNotCacheErrors(t *testing.T) {
	calls := 0
	a := WithCache(countingAnswerer(&calls, errors.New("boom")), &mapCache{m: map[string]*api.AnswerResult{}}, observability.Discard())

	for i := 0; i < 2; i++ {
		if _, err := a.Answer(context.Background(), "q", "c"); err == nil {
			t.Fatal("expected error")
		}
	}
	if calls != 2 {
		t.Errorf("backend called %d times, want 2", calls)
	}
}

func TestInstrumentRecordsOutcome(t *testing.T) {
	m := observability.Discard()
	calls := 0

	ok := Instrument(countingAnswerer(&calls, nil), m)
	if _, err := ok.Answer(context.Background(), "q", "c"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	failing := Instrument(countingAnswerer(&calls, &BackendError{Backend: "func", StatusCode: 503}), m)
	if _, err := failing.Answer(context.Background(), "q", "c"); err == nil {
		t.Fatal("expected error")
	}

	if got := testutil.ToFloat64(m.BackendRequestsTotal.WithLabelValues("func", "ok")); got != 1 {
		t.Errorf("ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.BackendRequestsTotal.WithLabelValues("func", "backend_error")); got != 1 {
		t.Errorf("backend_error = %v, want 1", got)
	}
	if ok.Name() != "func" {
		t.Errorf("Name() = %q, want func", ok.Name())
	}
}

func TestOutcome(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want string
	}{
		{"ok", context.Background(), nil, "ok"},
		{"canceled", canceled, context.Canceled, "canceled"},
		{"deadline", context.Background(), context.DeadlineExceeded, "timeout"},
		{"span", context.Background(), ErrSpanNotFound, "invalid_answer"},
		{"other", context.Background(), errors.New("x"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outcome(tt.ctx, tt.err); got != tt.want {
				t.Errorf("outcome = %q, want %q", got, tt.want)
			}
		})
	}
}
