package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConnectionState reports the current State as its numeric value.
	ConnectionState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "projecthub_store_state",
			Help: "Current store connection state (0=disconnected, 1=connecting, 2=ready, 3=error)",
		},
	)

	// ReconnectAttempts counts reconnect attempts made by the supervisor.
	ReconnectAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "projecthub_store_reconnect_attempts_total",
			Help: "Total number of store reconnect attempts",
		},
	)

	// OperationErrors counts failed store operations.
	OperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projecthub_store_errors_total",
			Help: "Total number of store operation errors",
		},
		[]string{"operation"}, // "connect", "get", "set", "flush", "ping", "disconnect"
	)
)
