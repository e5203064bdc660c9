package api

import (
	"fmt"
	"time"
)

// ErrorType categorizes errors of the JSON error surface. Only requests
// rejected before they reach the query handler use it; the query endpoint
// itself reports failures as plain text.
type ErrorType string

const (
	ErrorTypeUnauthorized    ErrorType = "unauthorized"
	ErrorTypeTooManyRequests ErrorType = "too_many_requests"
	ErrorTypeServerError     ErrorType = "server_error"
)

// APIError is a JSON error body.
type APIError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`

	// RetryAfter tells rate-limited callers when to try again. It is sent
	// as the Retry-After header, not in the body.
	RetryAfter time.Duration `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorResponse is the top-level error document: {"error": {...}}.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// NewUnauthorizedError creates an APIError for missing or rejected credentials.
func NewUnauthorizedError(message string) *APIError {
	return &APIError{Type: ErrorTypeUnauthorized, Message: message}
}

// NewTooManyRequestsError creates an APIError for a caller over its rate limit.
func NewTooManyRequestsError(message string, retryAfter time.Duration) *APIError {
	return &APIError{Type: ErrorTypeTooManyRequests, Message: message, RetryAfter: retryAfter}
}

// NewServerError creates an APIError for internal failures.
func NewServerError(message string) *APIError {
	return &APIError{Type: ErrorTypeServerError, Message: message}
}
