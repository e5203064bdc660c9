package jwt

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/rhuss/qaserve/pkg/debug"
)

// keySet caches the RSA signing keys of a JWKS endpoint. Keys are refetched
// when the TTL expires or an unknown kid shows up, at most once per
// minRefresh.
type keySet struct {
	url        string
	client     *http.Client
	ttl        time.Duration
	minRefresh time.Duration
	now        func() time.Time

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

func newKeySet(url string, client *http.Client, ttl, minRefresh time.Duration) *keySet {
	return &keySet{
		url:        url,
		client:     client,
		ttl:        ttl,
		minRefresh: minRefresh,
		now:        time.Now,
		keys:       map[string]*rsa.PublicKey{},
	}
}

func (s *keySet) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	s.mu.RLock()
	k, ok := s.keys[kid]
	fresh := s.now().Sub(s.fetchedAt) < s.ttl
	s.mu.RUnlock()
	if ok && fresh {
		return k, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	age := s.now().Sub(s.fetchedAt)
	if k, ok := s.keys[kid]; ok && age < s.ttl {
		return k, nil
	}
	if s.fetchedAt.IsZero() || age >= s.minRefresh {
		if err := s.refresh(ctx); err != nil {
			return nil, err
		}
	}

	if k, ok := s.keys[kid]; ok {
		return k, nil
	}
	return nil, fmt.Errorf("key %q not found in JWKS", kid)
}

// refresh must be called with mu held.
func (s *keySet) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("creating JWKS request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var doc struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("parsing JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		pub, err := k.rsaPublicKey()
		if err != nil {
			debug.Log("auth", "skipping JWKS key", "kid", k.Kid, "error", err)
			continue
		}
		keys[k.Kid] = pub
	}

	s.keys = keys
	s.fetchedAt = s.now()
	debug.Log("auth", "JWKS refreshed", "keys", len(keys), "url", s.url)
	return nil
}

// jwk is a single entry of a JSON Web Key Set.
type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (k jwk) rsaPublicKey() (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decoding modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decoding exponent: %w", err)
	}

	exp := new(big.Int).SetBytes(e)
	if !exp.IsInt64() || exp.Int64() > 1<<31-1 {
		return nil, errors.New("RSA exponent too large")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: int(exp.Int64())}, nil
}
