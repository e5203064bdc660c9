package transport

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/rhuss/qaserve/pkg/api"
)

// HTTPStatusFromError returns the status code for an APIError type.
// Unknown types are server errors.
func HTTPStatusFromError(err *api.APIError) int {
	switch err.Type {
	case api.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case api.ErrorTypeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteAPIError writes apiErr as a JSON error document. Unauthorized
// responses carry a Bearer challenge and rate-limited responses a
// Retry-After header in whole seconds.
func WriteAPIError(w http.ResponseWriter, apiErr *api.APIError) {
	h := w.Header()
	switch apiErr.Type {
	case api.ErrorTypeUnauthorized:
		h.Set("WWW-Authenticate", `Bearer realm="qaserve"`)
	case api.ErrorTypeTooManyRequests:
		if apiErr.RetryAfter > 0 {
			h.Set("Retry-After", strconv.Itoa(int(math.Ceil(apiErr.RetryAfter.Seconds()))))
		}
	}
	h.Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatusFromError(apiErr))
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: apiErr})
}

// WriteQueryError writes the failure response of the query endpoint:
// status 500 with the error message as a plain-text body.
func WriteQueryError(w http.ResponseWriter, err error) {
	h := w.Header()
	h.Del("Content-Length")
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusInternalServerError)
	io.WriteString(w, err.Error())
}
