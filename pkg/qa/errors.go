package qa

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrSpanNotFound is returned when an answer text does not occur in the context.
	ErrSpanNotFound = errors.New("answer not found in context")

	// ErrInvalidSpan is returned when backend offsets do not describe the answer.
	ErrInvalidSpan = errors.New("invalid answer span")

	// ErrNoAnswer is returned when a backend responds without an answer.
	ErrNoAnswer = errors.New("backend returned no answer")
)

// BackendError describes a failed call to a QA backend.
type BackendError struct {
	Backend    string
	StatusCode int // 0 when the request never got a response
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	var b strings.Builder
	b.WriteString(e.Backend)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " backend returned status %d", e.StatusCode)
	} else {
		b.WriteString(" backend request failed")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *BackendError) Unwrap() error { return e.Err }

// HTTPError builds a BackendError from a non-2xx HTTP response. The error
// message is taken from the body when it carries one.
func HTTPError(backend string, resp *http.Response) *BackendError {
	return &BackendError{
		Backend:    backend,
		StatusCode: resp.StatusCode,
		Message:    ExtractErrorMessage(resp.Body),
	}
}

// NetworkError builds a BackendError for a transport-level failure.
func NetworkError(backend string, err error) *BackendError {
	return &BackendError{
		Backend: backend,
		Message: err.Error(),
		Err:     err,
	}
}

// ExtractErrorMessage reads an error body and returns a human readable
// message. It understands {"error":"..."}, {"error":{"message":"..."}},
// {"detail":"..."} and falls back to the trimmed body text.
func ExtractErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil || len(data) == 0 {
		return ""
	}

	var parsed struct {
		Error  json.RawMessage `json:"error"`
		Detail string          `json:"detail"`
	}
	if json.Unmarshal(data, &parsed) == nil {
		if len(parsed.Error) > 0 {
			var s string
			if json.Unmarshal(parsed.Error, &s) == nil && s != "" {
				return s
			}
			var obj struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(parsed.Error, &obj) == nil && obj.Message != "" {
				return obj.Message
			}
		}
		if parsed.Detail != "" {
			return parsed.Detail
		}
	}

	return strings.TrimSpace(string(data))
}
