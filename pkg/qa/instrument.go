package qa

import (
	"context"
	"errors"
	"time"

	"github.com/rhuss/qaserve/pkg/api"
	"github.com/rhuss/qaserve/pkg/debug"
	"github.com/rhuss/qaserve/pkg/observability"
)

// Instrument wraps next so that every call records
// qaserve_backend_requests_total and qaserve_backend_latency_seconds.
func Instrument(next Answerer, m *observability.Metrics) Answerer {
	return &instrumented{next: next, metrics: m}
}

type instrumented struct {
	next    Answerer
	metrics *observability.Metrics
}

func (i *instrumented) Name() string { return i.next.Name() }

func (i *instrumented) Close() error { return i.next.Close() }

func (i *instrumented) Answer(ctx context.Context, question, passage string) (*api.AnswerResult, error) {
	name := i.next.Name()
	start := time.Now()

	res, err := i.next.Answer(ctx, question, passage)

	elapsed := time.Since(start)
	i.metrics.BackendLatency.WithLabelValues(name).Observe(elapsed.Seconds())
	i.metrics.BackendRequestsTotal.WithLabelValues(name, outcome(ctx, err)).Inc()

	debug.Log("backend", "answer",
		"backend", name,
		"duration", elapsed,
		"error", err,
	)
	return res, err
}

// outcome classifies an error for the status label.
func outcome(ctx context.Context, err error) string {
	var backendErr *BackendError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "timeout"
	case ctx.Err() != nil, errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &backendErr):
		return "backend_error"
	case errors.Is(err, ErrSpanNotFound), errors.Is(err, ErrInvalidSpan), errors.Is(err, ErrNoAnswer):
		return "invalid_answer"
	default:
		return "error"
	}
}
