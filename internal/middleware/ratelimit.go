package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"ypg-admin-api/internal/cache"
	"ypg-admin-api/internal/features"
	"ypg-admin-api/internal/metrics"
	"ypg-admin-api/internal/models"
)

// RateLimiter implements a fixed-window limiter keyed by (client, endpoint).
// Counters live in a cache.Store so limits hold across API instances.
type RateLimiter struct {
	store  cache.Store
	flags  *features.Manager
	logger *zap.Logger
}

// NewRateLimiter creates a new rate limiter backed by store.
func NewRateLimiter(store cache.Store, flags *features.Manager, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		store:  store,
		flags:  flags,
		logger: logger,
	}
}

func rateLimitKey(clientKey, endpointID string) string {
	return cache.Key("ratelimit", endpointID, clientKey)
}

// Allow admits at most maxRequests calls per window for the pair. The check
// and increment are one atomic store operation, and every admitted call
// restarts the window.
func (rl *RateLimiter) Allow(ctx context.Context, clientKey, endpointID string, maxRequests int, window time.Duration) (bool, error) {
	if maxRequests <= 0 {
		return false, nil
	}
	_, ok, err := rl.store.IncrBelow(ctx, rateLimitKey(clientKey, endpointID), int64(maxRequests), window)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// ClientIP extracts a client identifier from the request: the first address
// in X-Forwarded-For, otherwise the peer address without its port.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware wraps a handler so that each client may call endpointID at most
// maxRequests times per window. Rejected calls never reach next. Store
// failures are logged and the request is let through.
func (rl *RateLimiter) Middleware(endpointID string, maxRequests int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.flags.IsEnabled(features.FeatureRateLimiting) {
				next.ServeHTTP(w, r)
				return
			}

			client := ClientIP(r)
			allowed, err := rl.Allow(r.Context(), client, endpointID, maxRequests, window)
			if err != nil {
				rl.logger.Error("rate limit store unavailable",
					zap.String("endpoint", endpointID),
					zap.String("client", client),
					zap.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				rl.logger.Info("rate limit exceeded",
					zap.String("endpoint", endpointID),
					zap.String("client", client),
				)
				metrics.RateLimitExceeded.WithLabelValues(endpointID).Inc()
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(maxRequests))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Round(time.Second)/time.Second)))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{Success: false, Error: message})
}
