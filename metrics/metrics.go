// Package metrics provides Prometheus metrics collection for the medhub API.
// HTTP metrics:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//
// Domain metrics cover interaction checks, reference lookups, the catalog
// snapshot and assistant calls.
//
// All metrics are automatically registered with the Prometheus default registry
// during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Verdict stages for InteractionVerdicts
const (
	StageStatic    = "static"
	StageCategory  = "category"
	StageReference = "reference"
	StageNone      = "none"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen since the last cleanup)",
		},
	)

	InteractionChecks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interaction_checks_total",
			Help: "Interaction check requests that passed validation",
		},
	)

	InteractionVerdicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interaction_verdicts_total",
			Help: "Pair verdicts by the resolver stage that produced them",
		},
		[]string{"stage"},
	)

	ReferenceLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reference_lookups_total",
			Help: "Reference store lookups by outcome (found, not_found, error)",
		},
		[]string{"outcome"},
	)

	ReferenceCatalogEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "reference_catalog_entries",
			Help: "Rows in the in-memory reference catalog snapshot",
		},
	)

	AssistantRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_requests_total",
			Help: "AI assistant calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(InteractionChecks)
	prometheus.MustRegister(InteractionVerdicts)
	prometheus.MustRegister(ReferenceLookups)
	prometheus.MustRegister(ReferenceCatalogEntries)
	prometheus.MustRegister(AssistantRequests)
}
