package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rhuss/qaserve/pkg/api"
	"github.com/rhuss/qaserve/pkg/observability"
	"github.com/rhuss/qaserve/pkg/transport"
)

// QAEndpoint is the path of the question answering endpoint. It is also the
// endpoint label of the correct_http_requests counter.
const QAEndpoint = "/qa"

// Adapter serves the question answering API over HTTP.
// It routes requests to the QueryHandler and serializes results.
type Adapter struct {
	handler transport.QueryHandler
	metrics *observability.Metrics
	mux     *http.ServeMux
	config  Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize int64
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize: 10 << 20, // 10 MB
	}
}

// NewAdapter creates an HTTP adapter with the given QueryHandler. Middleware
// is applied to the handler in the given order. A nil metrics value records
// into a private registry.
func NewAdapter(handler transport.QueryHandler, metrics *observability.Metrics, cfg Config, middlewares ...transport.Middleware) *Adapter {
	if len(middlewares) > 0 {
		handler = transport.Chain(middlewares...)(handler)
	}
	if metrics == nil {
		metrics = observability.Discard()
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultConfig().MaxBodySize
	}

	a := &Adapter{
		handler: handler,
		metrics: metrics,
		mux:     http.NewServeMux(),
		config:  cfg,
	}

	a.mux.Handle("POST "+QAEndpoint, metrics.InstrumentHandler(QAEndpoint, http.HandlerFunc(a.handleQA)))
	a.mux.HandleFunc("GET /healthz", handleHealth)

	return a
}

// Mount registers an additional handler on the adapter's mux, e.g. the MCP
// endpoint. The handler is instrumented under its pattern.
func (a *Adapter) Mount(pattern string, h http.Handler) {
	a.mux.Handle(pattern, a.metrics.InstrumentHandler(pattern, h))
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest. The returned handler includes
// HTTP-level middleware for request ID propagation.
func (a *Adapter) Handler() http.Handler {
	return httpRequestIDMiddleware(a.mux)
}

// httpRequestIDMiddleware propagates the X-Request-ID header. A client
// supplied ID is reused, otherwise a new one is generated. The ID is placed
// in the request context and echoed in the response headers.
func httpRequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = transport.NewRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(transport.ContextWithRequestID(r.Context(), id)))
	})
}

// handleQA handles POST /qa. Every failure, whatever its cause, is reported
// as a 500 with the error message as plain text. The success counter is
// incremented only after the JSON body has been produced.
func (a *Adapter) handleQA(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	q, err := api.DecodeQuery(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			err = fmt.Errorf("request body too large (max %d bytes)", a.config.MaxBodySize)
		}
		transport.WriteQueryError(w, err)
		return
	}

	res, err := a.handler.HandleQuery(r.Context(), q)
	if err != nil {
		transport.WriteQueryError(w, err)
		return
	}
	if res == nil {
		transport.WriteQueryError(w, errors.New("backend returned no result"))
		return
	}

	body, err := json.Marshal(res)
	if err != nil {
		transport.WriteQueryError(w, fmt.Errorf("encoding response: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)

	a.metrics.RecordCorrect(QAEndpoint)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}
