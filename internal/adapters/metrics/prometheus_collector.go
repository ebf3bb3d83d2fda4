// Package metrics exposes the simulator's observability surface as
// Prometheus collectors: tick pacing, fleet and negotiation state, package
// lifecycle counters, and the financial aggregates from the ledger.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "logisim"
	subsystem = "engine"
)

// Registry is the process-wide Prometheus registry for all simulator
// metrics; nil until InitRegistry runs (metrics disabled).
var Registry *prometheus.Registry

// InitRegistry initializes the Prometheus registry. Should be called once
// at application startup if metrics are enabled.
func InitRegistry() {
	Registry = prometheus.NewRegistry()
}

// IsEnabled reports whether metrics collection is active.
func IsEnabled() bool {
	return Registry != nil
}

// Handler returns the HTTP handler serving the registry, or a 404 handler
// when metrics are disabled.
func Handler() http.Handler {
	if Registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
