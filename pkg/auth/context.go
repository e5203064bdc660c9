package auth

import "context"

type identityKey struct{}

// ContextWithIdentity returns a copy of ctx that carries id.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity set by the auth middleware.
// Requests served without authentication, or on a bypassed path, resolve to
// the anonymous identity.
func IdentityFromContext(ctx context.Context) *Identity {
	if id, ok := ctx.Value(identityKey{}).(*Identity); ok && id != nil {
		return id
	}
	return Anonymous()
}
