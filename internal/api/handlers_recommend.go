// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/models"
	"github.com/tomtom215/cinematch/internal/recommend"
)

const (
	defaultHistoryLimit  = 50
	defaultWatchListSize = 100
)

// GetRecommendations serves the ensemble for one user.
//
// Method: GET
// Path: /api/v1/users/{userID}/recommendations
//
// Query Parameters:
//   - media_type: comma-separated subset of movie, tv, anime, cartoon
//
// A response with success=false is a transient failure and maps to 503.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID := requestUserID(r)

	mediaTypes, err := parseMediaTypes(r.URL.Query().Get("media_type"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	resp := h.recommender.RunEnsemble(r.Context(), userID, recommend.Request{
		Filters: recommend.Filters{MediaTypes: mediaTypes},
		Now:     h.now(),
	})
	if !resp.Success {
		logging.CtxWarn(r.Context()).Str("message", resp.Message).Msg("Recommendation run failed")
		respondError(w, http.StatusServiceUnavailable, "RECOMMENDATION_FAILED", resp.Message, nil)
		return
	}

	respondSuccess(w, r, http.StatusOK, resp, start, resp.Metadata.CacheHit)
}

// PostOutcome records the user's reaction to a shown recommendation.
//
// Method: POST
// Path: /api/v1/recommendations/{logID}/outcome
func (h *Handler) PostOutcome(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logID := chi.URLParam(r, "logID")

	var req models.OutcomeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body: "+err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	entry, err := h.store.GetLogEntry(r.Context(), logID)
	if err != nil {
		if errors.Is(err, recommend.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Recommendation log entry not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load recommendation", err)
		return
	}

	eventType := recommend.EventType(req.Action)
	event := h.tracker.TrackOutcome(r.Context(), logID, eventType, req.Rating)
	if event == nil {
		respondError(w, http.StatusInternalServerError, "OUTCOME_NOT_RECORDED", "Outcome could not be recorded", nil)
		return
	}

	// stamps the list item, if the user already added it
	if eventType.Positive() {
		keys := []recommend.ContentKey{entry.Key}
		if err := h.store.MarkRecommended(r.Context(), entry.UserID, keys, entry.ShownAt); err != nil {
			logging.CtxWarn(r.Context()).Err(err).Str("log_id", sanitizeLogValue(logID)).Msg("Failed to mark list item as recommended")
		}
	}

	respondSuccess(w, r, http.StatusCreated, event, start, false)
}

// GetRecommendationHistory lists the user's most recently shown recommendations.
//
// Method: GET
// Path: /api/v1/users/{userID}/recommendations/history
//
// Query Parameters:
//   - limit: 1-500 (default 50)
func (h *Handler) GetRecommendationHistory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := models.ListQuery{Limit: getIntParam(r, "limit", defaultHistoryLimit)}
	if apiErr := validateRequest(&q); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	entries, err := h.store.RecentLogEntries(r.Context(), requestUserID(r), q.Limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load recommendation history", err)
		return
	}
	if entries == nil {
		entries = []recommend.LogEntry{}
	}
	respondSuccess(w, r, http.StatusOK, entries, start, false)
}

// GetSimilarUsers returns the user's nearest peers.
//
// Method: GET
// Path: /api/v1/users/{userID}/similar
func (h *Handler) GetSimilarUsers(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	peers, err := h.similarity.GetSimilarUsers(r.Context(), requestUserID(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "SIMILARITY_ERROR", "Failed to compute similar users", err)
		return
	}
	if peers == nil {
		peers = []recommend.SimilarUser{}
	}
	respondSuccess(w, r, http.StatusOK, peers, start, false)
}

// GetWatchList lists the user's watch list, newest first.
//
// Method: GET
// Path: /api/v1/users/{userID}/watchlist
//
// Query Parameters:
//   - status: comma-separated status names (want, watched, rewatched, dropped)
//   - limit: 1-500 (default 100)
func (h *Handler) GetWatchList(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	statuses, err := parseStatuses(r.URL.Query().Get("status"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	q := models.ListQuery{Limit: getIntParam(r, "limit", defaultWatchListSize)}
	if apiErr := validateRequest(&q); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	items, err := h.store.FindItems(r.Context(), requestUserID(r), recommend.ItemQuery{
		Statuses: statuses,
		Limit:    q.Limit,
		OrderBy:  recommend.OrderRecent,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load watch list", err)
		return
	}
	if items == nil {
		items = []recommend.WatchListItem{}
	}
	respondSuccess(w, r, http.StatusOK, items, start, false)
}

// PutWatchListItem creates or updates one watch list entry and drops the
// user's cached recommendations.
//
// Method: PUT
// Path: /api/v1/users/{userID}/watchlist
func (h *Handler) PutWatchListItem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID := requestUserID(r)

	var req models.WatchListItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body: "+err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	item := &recommend.WatchListItem{
		UserID: userID,
		Key: recommend.ContentKey{
			ExternalID: req.ExternalID,
			MediaType:  recommend.MediaType(req.MediaType),
		},
		Title:      req.Title,
		Status:     recommend.WatchStatus(req.Status),
		Rating:     req.Rating,
		Popularity: req.Popularity,
		Genres:     req.Genres,
		WatchCount: req.WatchCount,
		AddedAt:    h.now().UTC(),
	}
	if err := h.store.UpsertWatchListItem(r.Context(), item); err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to save watch list item", err)
		return
	}
	h.invalidate(r, userID)

	respondSuccess(w, r, http.StatusOK, item, start, false)
}

// DeleteWatchListItem removes one entry, addressed as "mediaType:externalID".
//
// Method: DELETE
// Path: /api/v1/users/{userID}/watchlist/{contentKey}
func (h *Handler) DeleteWatchListItem(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)

	key, err := recommend.ParseContentKey(chi.URLParam(r, "contentKey"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_CONTENT_KEY", "Content key must look like movie:603", nil)
		return
	}

	if err := h.store.DeleteWatchListItem(r.Context(), userID, key); err != nil {
		if errors.Is(err, recommend.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Watch list item not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete watch list item", err)
		return
	}
	h.invalidate(r, userID)

	w.WriteHeader(http.StatusNoContent)
}

// GetWatchListHistory returns the status and rating changes of one entry,
// including entries already removed from the list.
//
// Method: GET
// Path: /api/v1/users/{userID}/watchlist/{contentKey}/history
func (h *Handler) GetWatchListHistory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	key, err := recommend.ParseContentKey(chi.URLParam(r, "contentKey"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_CONTENT_KEY", "Content key must look like movie:603", nil)
		return
	}

	history, err := h.store.WatchListHistory(r.Context(), requestUserID(r), key)
	if err != nil {
		if errors.Is(err, recommend.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "No history for this watch list item", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load watch list history", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, history, start, false)
}

// invalidate drops cached recommendations after a history change. Failures
// only delay freshness until the cache TTL expires.
func (h *Handler) invalidate(r *http.Request, userID int64) {
	if err := h.recommender.InvalidateUser(r.Context(), userID); err != nil {
		logging.CtxWarn(r.Context()).Err(err).Msg("Failed to invalidate cached recommendations")
	}
}
