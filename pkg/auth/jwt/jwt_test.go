package jwt

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/rhuss/qaserve/pkg/auth"
)

var signingKey *rsa.PrivateKey

func init() {
	var err error
	signingKey, err = rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(fmt.Sprintf("generating test RSA key: %v", err))
	}
}

const (
	testKID    = "qa-key-1"
	testIssuer = "https://auth.example.com"
	testAud    = "qaserve"
)

func jwksServer(t *testing.T, fetches *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		pub := signingKey.PublicKey
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{
				{"kty": "EC", "kid": "ignored"},
				{
					"kty": "RSA",
					"kid": testKID,
					"use": "sig",
					"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
					"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
				},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func sign(t *testing.T, kid string, claims jwtlib.MapClaims) string {
	t.Helper()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, claims)
	if kid != "" {
		token.Header["kid"] = kid
	}
	s, err := token.SignedString(signingKey)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}

func validClaims() jwtlib.MapClaims {
	return jwtlib.MapClaims{
		"sub": "user-123",
		"iss": testIssuer,
		"aud": testAud,
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
}

func newAuthenticator(t *testing.T, fetches *atomic.Int32, override func(*Config)) *Authenticator {
	t.Helper()
	if fetches == nil {
		fetches = new(atomic.Int32)
	}
	srv := jwksServer(t, fetches)
	cfg := Config{
		Issuer:   testIssuer,
		Audience: testAud,
		JWKSURL:  srv.URL + "/.well-known/jwks.json",
	}
	if override != nil {
		override(&cfg)
	}
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func authenticate(a *Authenticator, header string) auth.AuthResult {
	r := httptest.NewRequest("POST", "/qa", nil)
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	return a.Authenticate(context.Background(), r)
}

func TestAuthenticate_Decisions(t *testing.T) {
	with := func(mod func(jwtlib.MapClaims)) jwtlib.MapClaims {
		c := validClaims()
		mod(c)
		return c
	}

	tests := []struct {
		name   string
		header func(t *testing.T) string
		want   auth.AuthDecision
	}{
		{"valid", func(t *testing.T) string { return "Bearer " + sign(t, testKID, validClaims()) }, auth.Yes},
		{"no header", func(*testing.T) string { return "" }, auth.Abstain},
		{"basic scheme", func(*testing.T) string { return "Basic abc" }, auth.Abstain},
		{"empty token", func(*testing.T) string { return "Bearer " }, auth.No},
		{"garbage", func(*testing.T) string { return "Bearer not.a.jwt" }, auth.No},
		{"expired", func(t *testing.T) string {
			return "Bearer " + sign(t, testKID, with(func(c jwtlib.MapClaims) { c["exp"] = time.Now().Add(-time.Hour).Unix() }))
		}, auth.No},
		{"no exp", func(t *testing.T) string {
			return "Bearer " + sign(t, testKID, with(func(c jwtlib.MapClaims) { delete(c, "exp") }))
		}, auth.No},
		{"wrong issuer", func(t *testing.T) string {
			return "Bearer " + sign(t, testKID, with(func(c jwtlib.MapClaims) { c["iss"] = "https://evil.example.com" }))
		}, auth.No},
		{"wrong audience", func(t *testing.T) string {
			return "Bearer " + sign(t, testKID, with(func(c jwtlib.MapClaims) { c["aud"] = "other" }))
		}, auth.No},
		{"missing subject", func(t *testing.T) string {
			return "Bearer " + sign(t, testKID, with(func(c jwtlib.MapClaims) { delete(c, "sub") }))
		}, auth.No},
		{"missing kid", func(t *testing.T) string { return "Bearer " + sign(t, "", validClaims()) }, auth.No},
		{"unknown kid", func(t *testing.T) string { return "Bearer " + sign(t, "rotated-away", validClaims()) }, auth.No},
	}

	a := newAuthenticator(t, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := authenticate(a, tt.header(t))
			if result.Decision != tt.want {
				t.Fatalf("Decision = %s, want %s (err=%v)", result.Decision, tt.want, result.Err)
			}
			if tt.want == auth.No && result.Err == nil {
				t.Error("expected an error with No")
			}
		})
	}
}

func TestAuthenticate_HMACRejected(t *testing.T) {
	a := newAuthenticator(t, nil, nil)

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, validClaims())
	token.Header["kid"] = testKID
	s, err := token.SignedString([]byte("shared-secret"))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	if result := authenticate(a, "Bearer "+s); result.Decision != auth.No {
		t.Errorf("Decision = %s, want no", result.Decision)
	}
}

func TestAuthenticate_IdentityClaims(t *testing.T) {
	tests := []struct {
		name       string
		scope      any
		wantScopes []string
	}{
		{"space separated", "qa:read qa:admin", []string{"qa:read", "qa:admin"}},
		{"array", []any{"qa:read", 7, "qa:admin"}, []string{"qa:read", "qa:admin"}},
		{"absent", nil, nil},
	}

	a := newAuthenticator(t, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := validClaims()
			claims["tier"] = "premium"
			if tt.scope != nil {
				claims["scope"] = tt.scope
			}

			result := authenticate(a, "Bearer "+sign(t, testKID, claims))
			if result.Decision != auth.Yes {
				t.Fatalf("Decision = %s, err=%v", result.Decision, result.Err)
			}
			id := result.Identity
			if id.Subject != "user-123" || id.Tier() != "premium" {
				t.Errorf("identity = %+v", id)
			}
			if fmt.Sprint(id.Scopes) != fmt.Sprint(tt.wantScopes) {
				t.Errorf("Scopes = %v, want %v", id.Scopes, tt.wantScopes)
			}
		})
	}
}

func TestAuthenticate_CustomClaimsAndNoChecks(t *testing.T) {
	a := newAuthenticator(t, nil, func(c *Config) {
		c.Issuer = ""
		c.Audience = ""
		c.UserClaim = "email"
		c.TierClaim = "plan"
	})

	claims := jwtlib.MapClaims{
		"email": "alice@example.com",
		"plan":  "gold",
		"iss":   "anyone",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	result := authenticate(a, "Bearer "+sign(t, testKID, claims))

	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %s, err=%v", result.Decision, result.Err)
	}
	if result.Identity.Subject != "alice@example.com" || result.Identity.ServiceTier != "gold" {
		t.Errorf("identity = %+v", result.Identity)
	}
}

func TestAuthenticate_Leeway(t *testing.T) {
	a := newAuthenticator(t, nil, func(c *Config) { c.Leeway = time.Minute })

	claims := validClaims()
	claims["exp"] = time.Now().Add(-10 * time.Second).Unix()

	if result := authenticate(a, "Bearer "+sign(t, testKID, claims)); result.Decision != auth.Yes {
		t.Errorf("Decision = %s, want yes within leeway (err=%v)", result.Decision, result.Err)
	}
}

func TestKeySet_Caching(t *testing.T) {
	var fetches atomic.Int32
	a := newAuthenticator(t, &fetches, nil)
	header := "Bearer " + sign(t, testKID, validClaims())

	for i := 0; i < 5; i++ {
		if result := authenticate(a, header); result.Decision != auth.Yes {
			t.Fatalf("request %d: Decision = %s", i, result.Decision)
		}
	}
	if n := fetches.Load(); n != 1 {
		t.Errorf("JWKS fetched %d times, want 1", n)
	}
}

func TestKeySet_UnknownKidRefreshThrottled(t *testing.T) {
	var fetches atomic.Int32
	a := newAuthenticator(t, &fetches, nil)

	now := time.Now()
	a.keys.now = func() time.Time { return now }

	unknown := "Bearer " + sign(t, "unknown", validClaims())
	for i := 0; i < 3; i++ {
		authenticate(a, unknown)
	}
	if n := fetches.Load(); n != 1 {
		t.Fatalf("JWKS fetched %d times within refresh interval, want 1", n)
	}

	now = now.Add(2 * time.Minute)
	authenticate(a, unknown)
	if n := fetches.Load(); n != 2 {
		t.Errorf("JWKS fetched %d times after interval, want 2", n)
	}
}

func TestKeySet_TTLExpiry(t *testing.T) {
	var fetches atomic.Int32
	a := newAuthenticator(t, &fetches, func(c *Config) { c.CacheTTL = 5 * time.Minute })

	now := time.Now()
	a.keys.now = func() time.Time { return now }
	header := "Bearer " + sign(t, testKID, validClaims())

	authenticate(a, header)
	now = now.Add(6 * time.Minute)
	if result := authenticate(a, header); result.Decision != auth.Yes {
		t.Fatalf("Decision = %s", result.Decision)
	}
	if n := fetches.Load(); n != 2 {
		t.Errorf("JWKS fetched %d times, want 2", n)
	}
}

func TestNew_RequiresJWKSURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error without JWKS URL")
	}
}
