// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/cinematch/internal/config"
	"github.com/tomtom215/cinematch/internal/middleware"
)

// compressionLevel is the gzip level used for API responses.
const compressionLevel = 5

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. A nil chiMw uses DefaultChiMiddlewareConfig.
func NewRouter(handler *Handler, chiMw *ChiMiddleware) *Router {
	if chiMw == nil {
		chiMw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: chiMw,
	}
}

// NewChiMiddlewareFromSecurity builds the CORS and rate limit middleware
// from the security section of the configuration.
func NewChiMiddlewareFromSecurity(sec config.SecurityConfig) *ChiMiddleware {
	cfg := DefaultChiMiddlewareConfig()
	cfg.CORSAllowedOrigins = sec.CORSOrigins
	cfg.RateLimitRequests = sec.RateLimitReqs
	cfg.RateLimitWindow = sec.RateLimitWindow
	cfg.RateLimitDisabled = sec.RateLimitDisabled
	return NewChiMiddleware(cfg)
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()
	h := router.handler

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered
	r.Use(middleware.PrometheusMetrics)
	if h.monitor != nil {
		r.Use(h.monitor.Middleware)
	}

	r.Get("/health", h.Health)
	r.Get("/health/live", h.HealthLive)
	r.Get("/health/ready", h.HealthReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chimiddleware.Compress(compressionLevel))

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Use(userScoped)

			r.Get("/recommendations", h.GetRecommendations)
			r.Get("/recommendations/history", h.GetRecommendationHistory)
			r.Get("/acceptance", h.GetAcceptanceRate)
			r.Get("/algorithms/performance", h.GetUserAlgorithmPerformance)
			r.Get("/similar", h.GetSimilarUsers)

			r.Get("/watchlist", h.GetWatchList)
			r.Put("/watchlist", h.PutWatchListItem)
			r.Delete("/watchlist/{contentKey}", h.DeleteWatchListItem)
			r.Get("/watchlist/{contentKey}/history", h.GetWatchListHistory)
		})

		r.Post("/recommendations/{logID}/outcome", h.PostOutcome)
		r.Get("/algorithms", h.GetAlgorithms)
		r.Get("/algorithms/performance", h.GetSystemAlgorithmPerformance)
		r.Get("/stats", h.GetStats)
	})

	return r
}
