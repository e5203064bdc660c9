// Package auth provides optional authentication and rate limiting in front
// of the question answering endpoint.
//
// Authentication uses a chain of authenticators with three-outcome voting:
// each authenticator returns Yes (identity found), No (credentials invalid),
// or Abstain (cannot handle the credentials). A configurable default decides
// when all authenticators abstain.
//
// Auth is implemented as HTTP middleware so the query handler stays unaware
// of callers. Health and metrics endpoints bypass it.
package auth
