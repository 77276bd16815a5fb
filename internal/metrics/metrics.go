// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Cache Metrics (General)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "memory", "badger", "redis"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry or capacity)",
		},
		[]string{"cache_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// =============================================================================
// Recommendation Metrics
// =============================================================================

var (
	// RecommendRequests counts ensemble runs by outcome.
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of ensemble recommendation requests",
		},
		[]string{"result"}, // "success", "cold_start", "cache_hit", "error"
	)

	// RecommendCacheLookups counts ensemble result cache lookups.
	RecommendCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_cache_lookups_total",
			Help: "Total number of ensemble result cache lookups",
		},
		[]string{"result"}, // "hit", "miss"
	)

	// AlgorithmDuration tracks per-algorithm execution time.
	AlgorithmDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_algorithm_duration_seconds",
			Help:    "Duration of individual recommendation algorithms",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
		},
		[]string{"algorithm", "status"}, // status: "ok", "timeout", "failed"
	)

	// RecommendConfidence tracks the confidence score distribution.
	RecommendConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_confidence",
			Help:    "Confidence score of served recommendation lists",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	// SimilarityLookups counts similar-user lookups by tier.
	SimilarityLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "similarity_lookups_total",
			Help: "Total number of similar-user lookups",
		},
		[]string{"result"}, // "hit", "computed", "error"
	)

	// SimilarityComputeDuration tracks on-demand similarity computation.
	SimilarityComputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "similarity_compute_duration_seconds",
			Help:    "Duration of sampled similar-user computation",
			Buckets: prometheus.DefBuckets,
		},
	)

	// OutcomeEvents counts tracked recommendation outcomes.
	OutcomeEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_outcome_events_total",
			Help: "Total number of tracked recommendation outcome events",
		},
		[]string{"type", "result"}, // result: "recorded", "failed"
	)

	// RefreshRuns counts background refresh cycles.
	RefreshRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_refresh_runs_total",
			Help: "Total number of background refresh cycles",
		},
		[]string{"job", "result"}, // job: "similarity-refresh", "profile-refresh", "cache-gc"
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCacheLookup records a hit or miss for a cache backend.
func RecordCacheLookup(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
		return
	}
	CacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordOutcome records a tracked outcome event.
func RecordOutcome(eventType string, err error) {
	result := "recorded"
	if err != nil {
		result = "failed"
	}
	OutcomeEvents.WithLabelValues(eventType, result).Inc()
}

// RecordRefresh records one background refresh cycle.
func RecordRefresh(job string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	RefreshRuns.WithLabelValues(job, result).Inc()
}
