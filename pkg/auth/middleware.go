package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rhuss/qaserve/pkg/api"
	"github.com/rhuss/qaserve/pkg/observability"
	"github.com/rhuss/qaserve/pkg/transport"
)

// Middleware creates HTTP middleware from an AuthChain and optional
// RateLimiter. It checks the bypass list, runs authentication, enforces the
// rate limit and stores the identity in the request context. Rejections are
// counted in m when it is non-nil.
func Middleware(chain *AuthChain, limiter RateLimiter, bypassEndpoints []string, m *observability.Metrics) func(http.Handler) http.Handler {
	bypass := make(map[string]bool, len(bypassEndpoints))
	for _, ep := range bypassEndpoints {
		bypass[ep] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypass[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			result := chain.Authenticate(r.Context(), r)
			if result.Decision != Yes || result.Identity == nil {
				slog.Warn("authentication failed",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"decision", result.Decision.String(),
					"error", result.Err,
				)
				transport.WriteAPIError(w, api.NewUnauthorizedError(ErrUnauthenticated.Error()))
				return
			}

			if result.Identity.Subject == "" {
				slog.Error("authenticator returned identity with empty subject")
				transport.WriteAPIError(w, api.NewServerError("internal authentication error"))
				return
			}

			slog.Debug("authentication succeeded",
				"subject", result.Identity.Subject,
				"path", r.URL.Path,
			)

			if limiter != nil {
				if err := limiter.Allow(r.Context(), result.Identity); err != nil {
					tier := result.Identity.Tier()
					slog.Warn("rate limit exceeded",
						"subject", result.Identity.Subject,
						"tier", tier,
					)
					if m != nil {
						m.RateLimitRejectedTotal.WithLabelValues(tier).Inc()
					}
					var retryAfter time.Duration
					var rlErr *RateLimitError
					if errors.As(err, &rlErr) {
						retryAfter = rlErr.RetryAfter
					}
					transport.WriteAPIError(w, api.NewTooManyRequestsError(err.Error(), retryAfter))
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), result.Identity)))
		})
	}
}

// DefaultBypassEndpoints lists endpoints that skip authentication.
var DefaultBypassEndpoints = []string{"/healthz", "/metrics"}
