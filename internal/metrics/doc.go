// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry with promauto and
exposed at /metrics in Prometheus text format:

	curl http://localhost:3857/metrics

# Available Metrics

API Metrics:
  - api_requests_total: Labels method, endpoint, status_code
  - api_request_duration_seconds: Labels method, endpoint
  - api_active_requests
  - api_rate_limit_hits_total: Labels endpoint

Database Metrics:
  - duckdb_query_duration_seconds: Labels operation, table
  - duckdb_query_errors_total: Labels operation, table, error_type

Recommendation Metrics:
  - recommend_requests_total: Labels result (success, cold_start, cache_hit, error)
  - recommend_cache_lookups_total: Labels result (hit, miss)
  - recommend_algorithm_duration_seconds: Labels algorithm, status
  - recommend_confidence: Confidence score distribution
  - recommend_outcome_events_total: Labels type, result
  - recommend_refresh_runs_total: Labels job, result
  - similarity_lookups_total: Labels result (hit, computed, error)
  - similarity_compute_duration_seconds

Cache Metrics:
  - cache_hits_total, cache_misses_total, cache_evictions_total: Labels cache_type

Circuit Breaker Metrics (TMDB client):
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total: Labels name, result
  - circuit_breaker_state_transitions_total: Labels name, from_state, to_state

# Usage

	start := time.Now()
	rows, err := db.QueryContext(ctx, query)
	metrics.RecordDBQuery("select", "watchlist_items", time.Since(start), err)
*/
package metrics
