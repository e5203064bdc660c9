// Package noop provides an authenticator that accepts all requests as the
// anonymous identity. It backs auth.type "none".
package noop

import (
	"context"
	"net/http"

	"github.com/rhuss/qaserve/pkg/auth"
)

// Authenticator always returns Yes with the anonymous identity.
type Authenticator struct{}

// Authenticate implements auth.Authenticator.
func (a *Authenticator) Authenticate(_ context.Context, _ *http.Request) auth.AuthResult {
	return auth.AuthResult{Decision: auth.Yes, Identity: auth.Anonymous()}
}
