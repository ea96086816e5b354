package ratelimit

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/dejobratic/catalog/internal/metrics"
)

// Middleware rejects requests from clients that exhausted their admission
// budget. Rejections are answered with 429 and recorded as a distinct metric
// from request failures.
func Middleware(limiter Limiter, registry *metrics.Registry, logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := ClientKey(r)

		allowed, err := limiter.Allow(r.Context(), key)
		if err != nil {
			// Admission must not fail the request path on limiter errors.
			logger.ErrorContext(r.Context(), "rate limiter error", "client", key, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			registry.RecordRateLimited()
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":   "too many requests",
				"message": "rate limit exceeded, try again later",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClientKey derives the client identity from the request: the first address
// in X-Forwarded-For when present, otherwise the remote address host.
func ClientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
