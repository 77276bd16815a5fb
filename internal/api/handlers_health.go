// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/cinematch/internal/models"
)

// coldStartState describes the cold-start provider for health output.
func (h *Handler) coldStartState() string {
	switch {
	case h.coldStart == nil:
		return "disabled"
	case !h.coldStart.Configured():
		return "not_configured"
	default:
		return h.coldStart.BreakerState()
	}
}

// Health reports overall status. The server is "degraded" when the
// database is unreachable or the cold-start breaker is open.
//
// Method: GET
// Path: /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.store != nil && h.store.Ping(r.Context()) == nil

	var schemaVersion int
	if dbConnected {
		if v, err := h.store.CurrentSchemaVersion(r.Context()); err == nil {
			schemaVersion = v
		}
	}

	coldStart := h.coldStartState()
	status := "healthy"
	if !dbConnected || coldStart == "open" {
		status = "degraded"
	}

	dbState := "ok"
	if !dbConnected {
		dbState = "unreachable"
	}

	health := models.HealthResponse{
		Status:        status,
		Version:       h.version,
		Database:      dbConnected,
		ColdStart:     coldStart,
		Algorithms:    h.recommender.Algorithms(),
		Components:    map[string]string{"database": dbState, "cold_start": coldStart},
		Uptime:        time.Since(h.startTime).Seconds(),
		SchemaVersion: schemaVersion,
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     health,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

// HealthLive is the liveness check. It never touches dependencies.
//
// Method: GET
// Path: /health/live
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

// HealthReady is the readiness check. Only the database gates readiness;
// cold start degrades to an empty response when its provider is down.
//
// Method: GET
// Path: /health/ready
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.store != nil && h.store.Ping(r.Context()) == nil

	statusCode := http.StatusOK
	status := "ready"
	if !dbConnected {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, statusCode, &models.APIResponse{
		Status: status,
		Data: map[string]interface{}{
			"database_connected": dbConnected,
			"ready_to_serve":     dbConnected,
			"uptime":             time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}
