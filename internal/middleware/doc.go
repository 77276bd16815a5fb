// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package middleware provides HTTP instrumentation for the API router.

  - PrometheusMetrics: request counters, latency histograms and the
    active-request gauge, labelled by chi route pattern
  - PerformanceMonitor: an in-process sliding window of recent requests with
    per-route percentiles, served by the stats endpoint

Both are chi-style func(http.Handler) http.Handler middleware and must be
mounted inside a chi router so the route pattern is known after routing:

	r.Use(middleware.PrometheusMetrics)
	r.Use(monitor.Middleware)

Labels use the route pattern ("/api/v1/users/{userID}/recommendations")
rather than the raw path, keeping metric cardinality bounded.
*/
package middleware
