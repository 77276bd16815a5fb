// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package api exposes the recommendation engine over HTTP using the chi router.

# Routes

	GET    /health                                       overall status
	GET    /health/live                                  liveness check
	GET    /health/ready                                 readiness check (database)
	GET    /metrics                                      Prometheus metrics

	GET    /api/v1/users/{userID}/recommendations        ensemble recommendations
	GET    /api/v1/users/{userID}/recommendations/history recently shown items
	GET    /api/v1/users/{userID}/acceptance             acceptance rate
	GET    /api/v1/users/{userID}/algorithms/performance per-algorithm outcomes
	GET    /api/v1/users/{userID}/similar                nearest peers
	GET    /api/v1/users/{userID}/watchlist              watch list
	PUT    /api/v1/users/{userID}/watchlist              create or update an entry
	DELETE /api/v1/users/{userID}/watchlist/{contentKey} remove an entry
	GET    /api/v1/users/{userID}/watchlist/{contentKey}/history status and rating changes
	POST   /api/v1/recommendations/{logID}/outcome       record an outcome
	GET    /api/v1/algorithms                            registered algorithms
	GET    /api/v1/algorithms/performance                system-wide outcomes
	GET    /api/v1/stats                                 engine and latency stats

# Responses

Every JSON body uses the models.APIResponse envelope. Errors carry a
machine-readable code such as VALIDATION_ERROR, NOT_FOUND or
RATE_LIMIT_EXCEEDED.

# Middleware

Requests pass through request ID injection, real IP extraction, panic
recovery, CORS (go-chi/cors), Prometheus metrics and the in-process
performance monitor. API routes add per-IP rate limiting (go-chi/httprate),
security headers and gzip compression.

Handlers depend on small interfaces (Recommender, OutcomeTracker,
SimilarUsers, Store) so tests can substitute fakes.
*/
package api
