package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RateLimitDecisions counts edge limiter outcomes, labelled allowed/denied.
	RateLimitDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "elearn_auth",
		Name:      "rate_limit_decisions_total",
		Help:      "Requests allowed or denied by the edge rate limiter.",
	}, []string{"decision"})

	// AuthOutcomes counts authentication operations (access, refresh, login,
	// logout) by outcome (ok or a rejection reason).
	AuthOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "elearn_auth",
		Name:      "outcomes_total",
		Help:      "Authentication operations by operation and outcome.",
	}, []string{"operation", "outcome"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "elearn_auth",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method and status code.",
	}, []string{"method", "status"})
)

// MetricsHandler exposes the default prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
