package qa

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/rhuss/qaserve/pkg/api"
	"github.com/rhuss/qaserve/pkg/debug"
	"github.com/rhuss/qaserve/pkg/observability"
)

// Cache stores answers by query key. Implementations must be safe for
// concurrent use and must not retain or mutate the results they are given.
type Cache interface {
	Get(key string) (*api.AnswerResult, bool)
	Put(key string, result *api.AnswerResult)
}

// CacheKey derives the cache key for a question and passage. The lengths are
// hashed in so that the boundary between the two strings is unambiguous.
func CacheKey(question, passage string) string {
	h := sha256.New()
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(question)))
	h.Write(n[:])
	h.Write([]byte(question))
	binary.BigEndian.PutUint64(n[:], uint64(len(passage)))
	h.Write(n[:])
	h.Write([]byte(passage))
	return hex.EncodeToString(h.Sum(nil))
}

// WithCache wraps next so that repeated queries are served from c. Errors
// are never cached.
func WithCache(next Answerer, c Cache, m *observability.Metrics) Answerer {
	return &cached{next: next, cache: c, metrics: m}
}

type cached struct {
	next    Answerer
	cache   Cache
	metrics *observability.Metrics
}

func (c *cached) Name() string { return c.next.Name() }

func (c *cached) Close() error { return c.next.Close() }

func (c *cached) Answer(ctx context.Context, question, passage string) (*api.AnswerResult, error) {
	key := CacheKey(question, passage)
	if res, ok := c.cache.Get(key); ok {
		c.metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
		debug.Log("cache", "hit", "key", key[:12])
		out := *res
		return &out, nil
	}
	c.metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()

	res, err := c.next.Answer(ctx, question, passage)
	if err != nil {
		return nil, err
	}
	stored := *res
	c.cache.Put(key, &stored)
	return res, nil
}
