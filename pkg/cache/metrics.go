package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Requests counts requests seen by the middleware by outcome.
	Requests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projecthub_cache_requests_total",
			Help: "Total number of requests handled by the response cache",
		},
		[]string{"result"}, // "hit", "miss", "bypass", "passthrough"
	)

	// Writes counts cache writes after a miss.
	Writes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projecthub_cache_writes_total",
			Help: "Total number of response cache writes",
		},
		[]string{"result"}, // "stored", "skipped", "failed"
	)

	// Flushes counts cache flushes triggered by mutating requests.
	Flushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projecthub_cache_flushes_total",
			Help: "Total number of response cache flushes",
		},
		[]string{"result"}, // "ok", "failed"
	)

	// Errors tracks cache operation errors.
	Errors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projecthub_cache_errors_total",
			Help: "Total number of response cache errors",
		},
		[]string{"operation"}, // "get", "set", "flush", "encode", "decode"
	)
)
