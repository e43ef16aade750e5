// Package metrics exposes Prometheus collectors shared by all services.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homestock_http_requests_total",
			Help: "Total HTTP requests by service, method, path and status code.",
		},
		[]string{"service", "method", "path", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "homestock_http_request_duration_seconds",
			Help:    "HTTP request latency by service, method and path.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	RequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "homestock_http_requests_in_flight",
			Help: "HTTP requests currently being served by service.",
		},
		[]string{"service"},
	)

	SyncChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homestock_sync_changes_total",
			Help: "Inventory sync change descriptors processed by outcome.",
		},
		[]string{"outcome"},
	)
)

// Handler serves the default registry for a /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
