package ratelimit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"elearn-auth/internal/observability"
)

// Middleware applies the sliding-window limit to every request before any
// other handling. Denied requests are answered locally with 429 and never
// reach the next handler.
func Middleware(store Store, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, retryAfter := store.Allow(clientIP(r), time.Now().UTC())
		if !allowed {
			observability.RateLimitDecisions.WithLabelValues("denied").Inc()
			writeRateLimited(w, retryAfter)
			return
		}

		observability.RateLimitDecisions.WithLabelValues("allowed").Inc()
		next.ServeHTTP(w, r)
	})
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	seconds := int(retryAfter.Seconds())
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":    false,
		"statusCode": http.StatusTooManyRequests,
		"message":    "Too many requests. Please try again later.",
		"retryAfter": seconds,
	})
}

func clientIP(r *http.Request) string {
	xForwardedFor := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if xForwardedFor != "" {
		parts := strings.Split(xForwardedFor, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}

	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}

	return "unknown"
}
