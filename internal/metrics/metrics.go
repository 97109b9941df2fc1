// Package metrics holds the Prometheus collectors for the web-service transport.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picard_ws_requests_total",
			Help: "Web-service requests completed, by host, method and outcome",
		},
		[]string{"host", "method", "outcome"}, // outcome: ok, http_error, error, canceled, rejected
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "picard_ws_request_duration_seconds",
			Help:    "Time from dispatch to reply for web-service requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"host", "method"},
	)

	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "picard_ws_queue_depth",
			Help: "Requests waiting in a per-host queue",
		},
		[]string{"host"},
	)

	// BreakerState is 0 closed, 1 half-open, 2 open.
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "picard_ws_circuit_breaker_state",
			Help: "Per-host circuit breaker state",
		},
		[]string{"host"},
	)
)
