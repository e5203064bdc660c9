package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// AuthDecision is an authenticator's vote on a request.
type AuthDecision int

const (
	// Yes accepts the request with the returned identity.
	Yes AuthDecision = iota
	// No rejects the request, typically for bad credentials.
	No
	// Abstain passes the request on to the next authenticator.
	Abstain
)

// String implements fmt.Stringer.
func (d AuthDecision) String() string {
	switch d {
	case Yes:
		return "yes"
	case No:
		return "no"
	case Abstain:
		return "abstain"
	default:
		return "unknown"
	}
}

// AuthResult is returned by an Authenticator. Identity is set for Yes and
// Err for No.
type AuthResult struct {
	Decision AuthDecision
	Identity *Identity
	Err      error
}

// Identity describes the caller of a request. Subject is never empty for an
// accepted request; ServiceTier selects the rate limit.
type Identity struct {
	Subject     string
	ServiceTier string
	Scopes      []string
	Metadata    map[string]string
}

// Tier returns the service tier, or "default" when none is set.
func (id *Identity) Tier() string {
	if id == nil || id.ServiceTier == "" {
		return "default"
	}
	return id.ServiceTier
}

// Anonymous is the identity assigned when the chain accepts a request
// without credentials.
func Anonymous() *Identity {
	return &Identity{Subject: "anonymous", ServiceTier: "default"}
}

// Authenticator inspects the credentials of r and votes on the request.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) AuthResult
}

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrTooManyRequests = errors.New("rate limit exceeded")
)

// AuthChain asks its Authenticators in order and takes the first vote that
// is not Abstain. DefaultDecision applies when every authenticator abstains;
// Yes admits the caller as Anonymous.
type AuthChain struct {
	Authenticators  []Authenticator
	DefaultDecision AuthDecision
}

// Authenticate returns the decisive result for r.
func (c *AuthChain) Authenticate(ctx context.Context, r *http.Request) AuthResult {
	for _, authn := range c.Authenticators {
		if result := authn.Authenticate(ctx, r); result.Decision != Abstain {
			return result
		}
	}

	if c.DefaultDecision == Yes {
		return AuthResult{Decision: Yes, Identity: Anonymous()}
	}
	return AuthResult{Decision: No, Err: ErrUnauthenticated}
}

// BearerToken extracts the token of a "Bearer" Authorization header. ok is
// false when the header is absent or uses another scheme, which
// authenticators treat as Abstain.
func BearerToken(r *http.Request) (token string, ok bool) {
	return strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
}
