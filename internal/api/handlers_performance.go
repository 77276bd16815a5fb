// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/cinematch/internal/middleware"
	"github.com/tomtom215/cinematch/internal/models"
	"github.com/tomtom215/cinematch/internal/recommend"
	"github.com/tomtom215/cinematch/internal/recommend/outcome"
)

// StatsResponse combines engine counters with per-endpoint latency.
type StatsResponse struct {
	Engine    recommend.Stats            `json:"engine"`
	Endpoints []middleware.EndpointStats `json:"endpoints"`
	Uptime    float64                    `json:"uptime_seconds"`
}

// GetAcceptanceRate reports the share of the user's recommendations that
// were added or rated.
//
// Method: GET
// Path: /api/v1/users/{userID}/acceptance
//
// Query Parameters:
//   - algorithm: restrict to one algorithm
//   - from, to: RFC 3339 or YYYY-MM-DD bounds on shown time
func (h *Handler) GetAcceptanceRate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID := requestUserID(r)

	q := models.AcceptanceQuery{Algorithm: r.URL.Query().Get("algorithm")}
	if apiErr := validateRequest(&q); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	dr, err := parseDateRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	rate, err := h.tracker.CalculateAcceptanceRate(r.Context(), userID, q.Algorithm, dr)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to calculate acceptance rate", err)
		return
	}

	resp := models.AcceptanceResponse{
		UserID:      userID,
		Algorithm:   q.Algorithm,
		OverallRate: rate.OverallRate,
		Accepted:    rate.Accepted,
		Shown:       rate.Shown,
	}
	if dr != nil {
		if !dr.From.IsZero() {
			resp.From = &dr.From
		}
		if !dr.To.IsZero() {
			resp.To = &dr.To
		}
	}
	respondSuccess(w, r, http.StatusOK, resp, start, false)
}

// GetUserAlgorithmPerformance reports per-algorithm outcomes for one user.
//
// Method: GET
// Path: /api/v1/users/{userID}/algorithms/performance
func (h *Handler) GetUserAlgorithmPerformance(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	dr, err := parseDateRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	perf, err := h.tracker.GetAlgorithmPerformance(r.Context(), requestUserID(r), dr)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load algorithm performance", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, nonNilPerformance(perf), start, false)
}

// GetSystemAlgorithmPerformance reports per-algorithm outcomes across all users.
//
// Method: GET
// Path: /api/v1/algorithms/performance
func (h *Handler) GetSystemAlgorithmPerformance(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	dr, err := parseDateRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	perf, err := h.tracker.GetSystemAlgorithmPerformance(r.Context(), dr)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load algorithm performance", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, nonNilPerformance(perf), start, false)
}

// GetAlgorithms lists the registered algorithms.
func (h *Handler) GetAlgorithms(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, h.recommender.Algorithms(), time.Now(), false)
}

// GetStats reports engine counters and request latency per endpoint.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	resp := StatsResponse{
		Engine:    h.recommender.Stats(),
		Endpoints: []middleware.EndpointStats{},
		Uptime:    time.Since(h.startTime).Seconds(),
	}
	if h.monitor != nil {
		resp.Endpoints = h.monitor.Stats()
	}
	respondSuccess(w, r, http.StatusOK, resp, start, false)
}

func nonNilPerformance(perf []outcome.AlgorithmPerformance) []outcome.AlgorithmPerformance {
	if perf == nil {
		return []outcome.AlgorithmPerformance{}
	}
	return perf
}
