package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Current number of active HTTP requests",
		},
	)

	// Database metrics
	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Duration of database operations",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "collection"},
	)

	// Outbound calls to the secret store, provisioner and automation layer
	ExternalCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "external_call_duration_seconds",
			Help:    "Duration of calls to external services",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"service", "operation"},
	)

	// Orchestration metrics
	SessionLaunchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "banking_session_launches_total",
			Help: "Total number of banking session launch attempts",
		},
		[]string{"outcome"}, // active, failed, rejected
	)

	ActiveBankingSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "banking_sessions_active_total",
			Help: "Current number of active banking sessions",
		},
	)

	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Cache hits and misses by cache type",
		},
		[]string{"cache", "result"}, // hit/miss
	)

	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors by component and reason",
		},
		[]string{"component", "reason"},
	)
)

// TrackDBOperation times a database operation; observe via the returned timer.
func TrackDBOperation(operation, collection string) *prometheus.Timer {
	return prometheus.NewTimer(DBOperationDuration.WithLabelValues(operation, collection))
}

// TrackExternalCall times a call to an external service.
func TrackExternalCall(service, operation string) *prometheus.Timer {
	return prometheus.NewTimer(ExternalCallDuration.WithLabelValues(service, operation))
}

// TrackError increments the error counter for a component/reason pair.
func TrackError(component, reason string) {
	ErrorsTotal.WithLabelValues(component, reason).Inc()
}

// TrackCacheOperation records a cache hit or miss.
func TrackCacheOperation(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheOperations.WithLabelValues(cache, result).Inc()
}

// TrackLaunch records the outcome of a launch attempt.
func TrackLaunch(outcome string) {
	SessionLaunchesTotal.WithLabelValues(outcome).Inc()
}
