// Package metrics exposes the Prometheus metrics of the gateway.
// All metrics are defined in their respective packages (store, cache)
// to maintain modularity and avoid circular dependencies.
//
// This package provides the /metrics handler and reference for all
// available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the gateway.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer paired with Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the HTTP handler serving every registered metric.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Store Metrics (pkg/store):
//   - projecthub_store_state (Gauge): Connection state (0=disconnected, 1=connecting, 2=ready, 3=error)
//   - projecthub_store_reconnect_attempts_total (Counter): Reconnect attempts made by the supervisor
//   - projecthub_store_errors_total{operation} (Counter): Failed store operations
//
// Cache Metrics (pkg/cache):
//   - projecthub_cache_requests_total{result} (Counter): hit, miss, bypass, passthrough
//   - projecthub_cache_writes_total{result} (Counter): stored, skipped, failed
//   - projecthub_cache_flushes_total{result} (Counter): ok, failed
//   - projecthub_cache_errors_total{operation} (Counter): get, set, flush, encode, decode
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(projecthub_cache_requests_total{result="hit"}[5m])) /
//   sum(rate(projecthub_cache_requests_total{result=~"hit|miss"}[5m]))
//
//   # Store Down
//   projecthub_store_state != 2
//
//   # Flush Rate
//   rate(projecthub_cache_flushes_total[5m])
//
//   # Reconnect Storm
//   increase(projecthub_store_reconnect_attempts_total[5m]) > 10
