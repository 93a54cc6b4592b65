// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	authEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "petcare",
		Name:      "auth_events_total",
		Help:      "Authentication events by kind and outcome.",
	}, []string{"event", "outcome"})

	gatekeeperDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "petcare",
		Name:      "gatekeeper_decisions_total",
		Help:      "Edge gatekeeper decisions for /api requests.",
	}, []string{"decision"})
)

// AuthEvent counts one login/refresh/logout/reset outcome.
func AuthEvent(event, outcome string) {
	authEvents.WithLabelValues(event, outcome).Inc()
}

// GatekeeperDecision counts one allow/deny decision.
func GatekeeperDecision(decision string) {
	gatekeeperDecisions.WithLabelValues(decision).Inc()
}
