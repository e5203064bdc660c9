// Package api defines the wire types of the qaserve question answering API.
//
// The package has no external dependencies and performs no network I/O.
//
// Core types:
//   - [AnswerQuery]: a question paired with the context passage to search
//   - [AnswerResult]: the extracted answer span, its confidence and offsets
//   - [APIError]: structured error used by the authentication surface
//
// Offsets in [AnswerResult] count Unicode code points of the context, not
// bytes, so that clients in any language can slice the context directly.
package api
