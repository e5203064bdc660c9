// Package apikey provides an API key authenticator that validates
// bearer tokens against a static key store using SHA-256 hashing
// and constant-time comparison.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"

	"github.com/rhuss/qaserve/pkg/auth"
)

// RawKeyEntry is the configuration format for API keys.
type RawKeyEntry struct {
	Key      string
	Identity auth.Identity
}

type keyEntry struct {
	hash     [32]byte
	identity auth.Identity
}

// Authenticator validates bearer tokens against a static key store.
type Authenticator struct {
	keys []keyEntry
}

// New creates an API key authenticator. Keys are hashed immediately;
// plaintext keys are not retained. Empty keys are ignored.
func New(entries []RawKeyEntry) *Authenticator {
	a := &Authenticator{keys: make([]keyEntry, 0, len(entries))}
	for _, e := range entries {
		if e.Key == "" {
			continue
		}
		a.keys = append(a.keys, keyEntry{
			hash:     sha256.Sum256([]byte(e.Key)),
			identity: e.Identity,
		})
	}
	return a
}

// Len returns the number of configured keys.
func (a *Authenticator) Len() int { return len(a.keys) }

// Authenticate validates the bearer token.
// Returns Yes if valid, No if a bearer token is present but unknown,
// Abstain if there is no bearer token at all.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	token, ok := auth.BearerToken(r)
	if !ok {
		return auth.AuthResult{Decision: auth.Abstain}
	}
	if token == "" {
		return auth.AuthResult{Decision: auth.No, Err: auth.ErrUnauthenticated}
	}

	tokenHash := sha256.Sum256([]byte(token))

	// Compare against every entry so timing does not reveal the position.
	match := -1
	for i, entry := range a.keys {
		if subtle.ConstantTimeCompare(tokenHash[:], entry.hash[:]) == 1 && match < 0 {
			match = i
		}
	}
	if match < 0 {
		return auth.AuthResult{Decision: auth.No, Err: auth.ErrUnauthenticated}
	}

	id := a.keys[match].identity
	id.Scopes = append([]string(nil), id.Scopes...)
	return auth.AuthResult{Decision: auth.Yes, Identity: &id}
}
