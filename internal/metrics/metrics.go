// Package metrics defines the Prometheus collectors the server exports on
// /metrics, plus small helpers for recording into them.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rating submission outcomes.
const (
	ResultOK          = "ok"
	ResultValidation  = "validation"
	ResultNotFound    = "not_found"
	ResultRateLimited = "rate_limited"
	ResultError       = "error"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spice_http_requests_total",
			Help: "Total HTTP requests by method, route pattern and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spice_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Ratings
	RatingsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spice_ratings_submitted_total",
			Help: "Rating submissions by outcome",
		},
		[]string{"result"},
	)

	RatingRecordDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "spice_rating_record_duration_seconds",
			Help:    "Time to append a sample and recompute the aggregate, including lock wait",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	// Catalog
	PageFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spice_catalog_page_fetches_total",
			Help: "Catalog page fetches by outcome",
		},
		[]string{"result"},
	)

	ViewIncrementFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spice_view_increment_failures_total",
			Help: "Best-effort view count increments that failed",
		},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spice_sessions_active",
			Help: "Catalog sessions currently registered",
		},
	)

	SessionsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spice_sessions_evicted_total",
			Help: "Catalog sessions removed after idling",
		},
	)

	// Search
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spice_search_requests_total",
			Help: "Searches by backend (index, scan) and outcome",
		},
		[]string{"backend", "result"},
	)

	// Circuit breakers
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "spice_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spice_circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// ObserveHTTP records one finished request.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordRating records a rating submission outcome. d is only observed for
// successful submissions.
func RecordRating(result string, d time.Duration) {
	RatingsSubmitted.WithLabelValues(result).Inc()
	if result == ResultOK {
		RatingRecordDuration.Observe(d.Seconds())
	}
}

// RecordPageFetch counts a page fetch.
func RecordPageFetch(err error) {
	if err != nil {
		PageFetches.WithLabelValues(ResultError).Inc()
		return
	}
	PageFetches.WithLabelValues(ResultOK).Inc()
}

// RecordSearch counts a search served by backend.
func RecordSearch(backend string, err error) {
	if err != nil {
		SearchRequests.WithLabelValues(backend, ResultError).Inc()
		return
	}
	SearchRequests.WithLabelValues(backend, ResultOK).Inc()
}
