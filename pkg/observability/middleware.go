package observability

import (
	"net/http"
	"strconv"
	"time"
)

// InstrumentHandler records qaserve_requests_total,
// qaserve_request_duration_seconds and qaserve_requests_in_flight for every
// request served by next. Status codes are reported by class ("2xx", "5xx").
func (m *Metrics) InstrumentHandler(handler string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.InFlightRequests.Inc()
		defer m.InFlightRequests.Dec()

		rec := &statusRecorder{ResponseWriter: w}
		began := time.Now()
		next.ServeHTTP(rec, r)

		m.RequestDuration.WithLabelValues(handler).Observe(time.Since(began).Seconds())
		m.RequestsTotal.WithLabelValues(handler, r.Method, statusClass(rec.code())).Inc()
	})
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

// statusRecorder remembers the first status code written through it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) code() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Flush is needed by the streamable MCP transport.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
