// Package metrics provides Prometheus metrics for the request pipeline (RED).
// Scrapeable at /metrics; dashboards and alerts rely on these names.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "benefits"

var (
	// HTTPRequestTotal counts requests by method, path, status (RED: rate).
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, path, and status.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDurationSeconds is request latency histogram (RED: duration).
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10), // 1ms to ~9.3s
		},
		[]string{"method", "path"},
	)

	// PipelineOutcomeTotal counts pipeline terminations by operation and outcome
	// (success, rate_limited, csrf, unauthorized, forbidden, validation, malformed, internal).
	PipelineOutcomeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_outcome_total",
			Help:      "Total pipeline terminations by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	// RateLimitStoreErrorsTotal counts rate-limit backend failures by policy applied.
	RateLimitStoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_store_errors_total",
			Help:      "Total rate-limit store failures by recovery policy (fail_open, fail_closed).",
		},
		[]string{"policy"},
	)
)
