// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinematch/internal/middleware"
	"github.com/tomtom215/cinematch/internal/recommend"
	"github.com/tomtom215/cinematch/internal/recommend/outcome"
)

// Recommender serves and invalidates recommendations. Implemented by
// *recommend.Engine.
type Recommender interface {
	RunEnsemble(ctx context.Context, userID int64, req recommend.Request) *recommend.Response
	InvalidateUser(ctx context.Context, userID int64) error
	Algorithms() []string
	Stats() recommend.Stats
}

// OutcomeTracker records outcomes and reports acceptance. Implemented by
// *outcome.Tracker.
type OutcomeTracker interface {
	TrackOutcome(ctx context.Context, logID string, eventType recommend.EventType, rating *int) *recommend.Event
	CalculateAcceptanceRate(ctx context.Context, userID int64, algorithm string, dr *recommend.DateRange) (outcome.AcceptanceRate, error)
	GetAlgorithmPerformance(ctx context.Context, userID int64, dr *recommend.DateRange) ([]outcome.AlgorithmPerformance, error)
	GetSystemAlgorithmPerformance(ctx context.Context, dr *recommend.DateRange) ([]outcome.AlgorithmPerformance, error)
}

// SimilarUsers returns a user's nearest peers. Implemented by *similarity.Service.
type SimilarUsers interface {
	GetSimilarUsers(ctx context.Context, userID int64) ([]recommend.SimilarUser, error)
}

// Store is the subset of the database the handlers use directly.
type Store interface {
	Ping(ctx context.Context) error
	CurrentSchemaVersion(ctx context.Context) (int, error)
	GetLogEntry(ctx context.Context, id string) (*recommend.LogEntry, error)
	RecentLogEntries(ctx context.Context, userID int64, limit int) ([]recommend.LogEntry, error)
	FindItems(ctx context.Context, userID int64, q recommend.ItemQuery) ([]recommend.WatchListItem, error)
	UpsertWatchListItem(ctx context.Context, item *recommend.WatchListItem) error
	DeleteWatchListItem(ctx context.Context, userID int64, key recommend.ContentKey) error
	WatchListHistory(ctx context.Context, userID int64, key recommend.ContentKey) (*recommend.WatchListHistory, error)
	MarkRecommended(ctx context.Context, userID int64, keys []recommend.ContentKey, at time.Time) error
}

// ColdStartStatus reports the state of the external content provider.
type ColdStartStatus interface {
	Configured() bool
	BreakerState() string
}

// Dependencies are the services a Handler serves from. ColdStart and
// Monitor are optional.
type Dependencies struct {
	Recommender Recommender
	Tracker     OutcomeTracker
	Similarity  SimilarUsers
	Store       Store
	ColdStart   ColdStartStatus
	Monitor     *middleware.PerformanceMonitor
}

// Handler implements the HTTP endpoints.
type Handler struct {
	recommender Recommender
	tracker     OutcomeTracker
	similarity  SimilarUsers
	store       Store
	coldStart   ColdStartStatus
	monitor     *middleware.PerformanceMonitor

	version   string
	startTime time.Time
	now       func() time.Time
	logger    zerolog.Logger
}

// NewHandler creates a Handler. version is reported by the health endpoint.
func NewHandler(deps Dependencies, version string, logger zerolog.Logger) *Handler {
	return &Handler{
		recommender: deps.Recommender,
		tracker:     deps.Tracker,
		similarity:  deps.Similarity,
		store:       deps.Store,
		coldStart:   deps.ColdStart,
		monitor:     deps.Monitor,
		version:     version,
		startTime:   time.Now(),
		now:         time.Now,
		logger:      logger.With().Str("component", "api").Logger(),
	}
}
