// Package observability provides the Prometheus metrics of qaserve, the
// HTTP instrumentation middleware and the dedicated metrics listener.
//
// Metrics live in a [Metrics] value registered against a caller-supplied
// registry, so tests and embedders can use isolated registries.
package observability

import "github.com/prometheus/client_golang/prometheus"

// InferenceBuckets defines histogram buckets suited for extractive QA
// latencies, ranging from 5ms to 60s.
var InferenceBuckets = []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// Metrics holds all collectors exported by the service.
type Metrics struct {
	// CorrectRequests counts successfully answered queries per endpoint.
	CorrectRequests *prometheus.CounterVec

	// RequestsTotal counts HTTP requests by handler, method, and status class.
	RequestsTotal *prometheus.CounterVec

	// RequestDuration records HTTP request duration in seconds by handler.
	RequestDuration *prometheus.HistogramVec

	// InFlightRequests tracks requests currently being served.
	InFlightRequests prometheus.Gauge

	// BackendRequestsTotal counts calls to the QA backend by outcome.
	BackendRequestsTotal *prometheus.CounterVec

	// BackendLatency records QA backend latency in seconds.
	BackendLatency *prometheus.HistogramVec

	// CacheRequestsTotal counts answer cache lookups by result (hit, miss).
	CacheRequestsTotal *prometheus.CounterVec

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// It panics if registration fails, like prometheus.MustRegister.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CorrectRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "correct_http_requests",
				Help: "Total HTTP requests that were processed correctly.",
			},
			[]string{"endpoint"},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qaserve_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qaserve_request_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: InferenceBuckets,
			},
			[]string{"handler"},
		),
		InFlightRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "qaserve_requests_in_flight",
				Help: "Requests currently being served",
			},
		),
		BackendRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qaserve_backend_requests_total",
				Help: "QA backend requests",
			},
			[]string{"backend", "status"},
		),
		BackendLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qaserve_backend_latency_seconds",
				Help:    "QA backend latency",
				Buckets: InferenceBuckets,
			},
			[]string{"backend"},
		),
		CacheRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qaserve_cache_requests_total",
				Help: "Answer cache lookups",
			},
			[]string{"result"},
		),
		RateLimitRejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qaserve_ratelimit_rejected_total",
				Help: "Rate limit rejections",
			},
			[]string{"tier"},
		),
	}

	reg.MustRegister(
		m.CorrectRequests,
		m.RequestsTotal,
		m.RequestDuration,
		m.InFlightRequests,
		m.BackendRequestsTotal,
		m.BackendLatency,
		m.CacheRequestsTotal,
		m.RateLimitRejectedTotal,
	)
	return m
}

// Discard returns a Metrics value backed by a private registry. Useful
// where a component needs metrics but nobody scrapes them.
func Discard() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

// RecordCorrect increments the correct request counter for endpoint.
func (m *Metrics) RecordCorrect(endpoint string) {
	m.CorrectRequests.WithLabelValues(endpoint).Inc()
}
