// Package jwt provides an authenticator that validates RSA-signed bearer
// JWTs against the keys published at a JWKS endpoint.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/rhuss/qaserve/pkg/auth"
	"github.com/rhuss/qaserve/pkg/debug"
)

// Config holds the JWT authenticator configuration.
type Config struct {
	// Issuer is the expected iss claim. Empty skips the check.
	Issuer string

	// Audience is the expected aud claim. Empty skips the check.
	Audience string

	// JWKSURL is where signing keys are fetched from. Required.
	JWKSURL string

	// UserClaim names the claim used as identity subject. Default: "sub".
	UserClaim string

	// TierClaim names the claim that selects the rate limit tier.
	// Default: "tier". Tokens without it get the default tier.
	TierClaim string

	// ScopesClaim names the scopes claim, either a space separated string
	// or an array. Default: "scope".
	ScopesClaim string

	// CacheTTL is how long fetched keys are trusted. Default: 1h.
	CacheTTL time.Duration

	// MinRefreshInterval throttles refetches triggered by unknown key IDs.
	// Default: 1m.
	MinRefreshInterval time.Duration

	// Leeway tolerates clock skew on exp, nbf and iat. Default: 0.
	Leeway time.Duration

	// HTTPClient fetches the JWKS. Defaults to a client with a 10s timeout.
	HTTPClient *http.Client
}

func (c *Config) applyDefaults() {
	if c.UserClaim == "" {
		c.UserClaim = "sub"
	}
	if c.TierClaim == "" {
		c.TierClaim = "tier"
	}
	if c.ScopesClaim == "" {
		c.ScopesClaim = "scope"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = time.Hour
	}
	if c.MinRefreshInterval == 0 {
		c.MinRefreshInterval = time.Minute
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
}

// Authenticator validates JWT bearer tokens.
type Authenticator struct {
	config Config
	keys   *keySet
	parser *jwtlib.Parser
}

var _ auth.Authenticator = (*Authenticator)(nil)

// New creates a JWT authenticator with the given configuration.
func New(cfg Config) (*Authenticator, error) {
	if cfg.JWKSURL == "" {
		return nil, errors.New("jwt: JWKSURL is required")
	}
	cfg.applyDefaults()

	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
		jwtlib.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwtlib.WithAudience(cfg.Audience))
	}
	if cfg.Leeway > 0 {
		opts = append(opts, jwtlib.WithLeeway(cfg.Leeway))
	}

	return &Authenticator{
		config: cfg,
		keys:   newKeySet(cfg.JWKSURL, cfg.HTTPClient, cfg.CacheTTL, cfg.MinRefreshInterval),
		parser: jwtlib.NewParser(opts...),
	}, nil
}

// Authenticate validates the bearer token.
//
// Decision outcomes:
//   - Abstain: no bearer token
//   - No: token present but invalid (signature, expiry, issuer, audience, subject)
//   - Yes: valid token, identity populated from claims
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) auth.AuthResult {
	tokenStr, ok := auth.BearerToken(r)
	if !ok {
		return auth.AuthResult{Decision: auth.Abstain}
	}
	if tokenStr == "" {
		return reject(errors.New("empty bearer token"))
	}

	claims := jwtlib.MapClaims{}
	_, err := a.parser.ParseWithClaims(tokenStr, claims, func(token *jwtlib.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token missing kid header")
		}
		return a.keys.key(ctx, kid)
	})
	if err != nil {
		debug.Log("auth", "JWT rejected", "error", err)
		return reject(fmt.Errorf("invalid JWT: %w", err))
	}

	subject := claimString(claims, a.config.UserClaim)
	if subject == "" {
		return reject(fmt.Errorf("JWT missing %q claim", a.config.UserClaim))
	}

	return auth.AuthResult{
		Decision: auth.Yes,
		Identity: &auth.Identity{
			Subject:     subject,
			ServiceTier: claimString(claims, a.config.TierClaim),
			Scopes:      claimScopes(claims, a.config.ScopesClaim),
		},
	}
}

func reject(err error) auth.AuthResult {
	return auth.AuthResult{Decision: auth.No, Err: err}
}

func claimString(claims jwtlib.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

// claimScopes accepts "read write" as well as ["read", "write"].
func claimScopes(claims jwtlib.MapClaims, key string) []string {
	var scopes []string
	switch v := claims[key].(type) {
	case string:
		scopes = strings.Fields(v)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				scopes = append(scopes, s)
			}
		}
	}
	if len(scopes) == 0 {
		return nil
	}
	return scopes
}
