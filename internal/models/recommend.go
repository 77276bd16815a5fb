// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package models

import "time"

// OutcomeRequest reports how the user reacted to one recommendation.
type OutcomeRequest struct {
	Action string `json:"action" validate:"required,outcome_action"`
	Rating *int   `json:"rating,omitempty" validate:"omitempty,min=1,max=10"`
}

// WatchListItemRequest creates or updates one watch list entry.
type WatchListItemRequest struct {
	MediaType  string   `json:"media_type" validate:"required,media_type"`
	ExternalID int64    `json:"external_id" validate:"required,gt=0"`
	Title      string   `json:"title" validate:"required,max=500"`
	Status     int      `json:"status" validate:"required,min=1,max=4"`
	Rating     *int     `json:"rating,omitempty" validate:"omitempty,min=1,max=10"`
	Popularity float64  `json:"popularity" validate:"gte=0"`
	Genres     []string `json:"genres,omitempty" validate:"max=50,dive,required,max=100"`
	WatchCount int      `json:"watch_count" validate:"gte=0"`
}

// AcceptanceResponse is the acceptance rate of a user's recommendations.
type AcceptanceResponse struct {
	UserID      int64      `json:"user_id"`
	Algorithm   string     `json:"algorithm,omitempty"`
	From        *time.Time `json:"from,omitempty"`
	To          *time.Time `json:"to,omitempty"`
	OverallRate float64    `json:"overall_rate"`
	Accepted    int        `json:"accepted"`
	Shown       int        `json:"shown"`
}

// AcceptanceQuery holds the optional algorithm filter of the acceptance endpoint.
type AcceptanceQuery struct {
	Algorithm string `json:"algorithm" validate:"omitempty,algorithm_name"`
}

// ListQuery bounds list endpoints.
type ListQuery struct {
	Limit int `json:"limit" validate:"min=1,max=500"`
}
