package auth

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimiter checks whether a request should be allowed based on
// the identity's service tier.
type RateLimiter interface {
	Allow(ctx context.Context, identity *Identity) error
}

// TierConfig holds rate limit settings for a service tier.
type TierConfig struct {
	RequestsPerMinute int
}

// InProcessLimiter is a fixed-window rate limiter that tracks request
// counts per subject and tier in memory.
type InProcessLimiter struct {
	tiers      map[string]TierConfig
	defaultRPM int
	now        func() time.Time

	mu       sync.Mutex
	counters map[string]*counter
}

type counter struct {
	count    int
	windowAt time.Time
}

// NewInProcessLimiter creates a rate limiter with per-tier configuration.
// Tiers without an entry use defaultRPM; zero means unlimited.
func NewInProcessLimiter(tiers map[string]TierConfig, defaultRPM int) *InProcessLimiter {
	return &InProcessLimiter{
		tiers:      tiers,
		defaultRPM: defaultRPM,
		now:        time.Now,
		counters:   make(map[string]*counter),
	}
}

// RateLimitError reports a rejected request. It matches ErrTooManyRequests
// with errors.Is.
type RateLimitError struct {
	Tier       string
	Limit      int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d requests per minute for tier %q", e.Limit, e.Tier)
}

// Is reports whether target is ErrTooManyRequests.
func (e *RateLimitError) Is(target error) bool { return target == ErrTooManyRequests }

// Allow returns a *RateLimitError when the caller exceeded the limit of its
// tier in the current one-minute window.
func (l *InProcessLimiter) Allow(_ context.Context, identity *Identity) error {
	tier := identity.Tier()

	rpm := l.defaultRPM
	if tc, ok := l.tiers[tier]; ok {
		rpm = tc.RequestsPerMinute
	}
	if rpm <= 0 {
		return nil
	}

	key := identity.Subject + ":" + tier

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.counters[key]
	if !ok || now.Sub(c.windowAt) >= time.Minute {
		l.counters[key] = &counter{count: 1, windowAt: now}
		l.sweep(now)
		return nil
	}

	c.count++
	if c.count > rpm {
		return &RateLimitError{
			Tier:       tier,
			Limit:      rpm,
			RetryAfter: c.windowAt.Add(time.Minute).Sub(now),
		}
	}
	return nil
}

// sweep drops expired windows so idle subjects do not accumulate.
// Must be called with mu held.
func (l *InProcessLimiter) sweep(now time.Time) {
	for k, c := range l.counters {
		if now.Sub(c.windowAt) >= time.Minute {
			delete(l.counters, k)
		}
	}
}
