// Package transport defines the query handler interface and middleware chain
// for the qaserve HTTP transport layer.
//
// The transport layer bridges external clients and the question answering
// backend. The HTTP adapter in pkg/transport/http decodes incoming requests
// into api.AnswerQuery values, dispatches them to a QueryHandler, and
// serializes the api.AnswerResult back to the client.
//
// # Middleware
//
// The middleware chain wraps a QueryHandler with cross-cutting concerns.
// Built-in middleware provides panic recovery, request ID assignment
// (X-Request-ID), and structured logging via log/slog.
package transport
