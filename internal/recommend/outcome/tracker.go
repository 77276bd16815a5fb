// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package outcome records what users did with served recommendations and
// aggregates those outcomes into acceptance rates and per-algorithm health.
//
// Tracking is append-only: every call adds one event, repeated calls add
// repeated events. Tracking never fails the caller; errors are logged,
// counted and swallowed.
package outcome

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cinematch/internal/events"
	"github.com/tomtom215/cinematch/internal/metrics"
	"github.com/tomtom215/cinematch/internal/recommend"
)

// Publisher announces tracked outcomes to interested components.
type Publisher interface {
	PublishOutcome(ctx context.Context, m events.OutcomeMessage) error
}

// Config configures the tracker.
type Config struct {
	// KnownAlgorithms are reported by the performance queries even when
	// they have never been shown.
	KnownAlgorithms []string

	Health HealthPolicy
}

// Tracker records outcome events and answers acceptance queries.
type Tracker struct {
	logs      recommend.LogStore
	publisher Publisher
	cfg       Config
	logger    zerolog.Logger
	now       func() time.Time
}

// NewTracker creates a tracker. publisher may be nil.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTracker(cfg Config, logs recommend.LogStore, publisher Publisher, logger zerolog.Logger) *Tracker {
	if cfg.Health == (HealthPolicy{}) {
		cfg.Health = DefaultHealthPolicy()
	}
	return &Tracker{
		logs:      logs,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.With().Str("component", "outcome").Logger(),
		now:       time.Now,
	}
}

// TrackOutcome appends one event for the log entry logID. It returns the
// recorded event, or nil when recording failed. It never returns an error.
func (t *Tracker) TrackOutcome(ctx context.Context, logID string, eventType recommend.EventType, rating *int) *recommend.Event {
	logger := t.logger.With().Str("log_id", logID).Str("type", string(eventType)).Logger()

	if !eventType.Valid() {
		logger.Warn().Msg("ignoring outcome with unknown event type")
		metrics.RecordOutcome(string(eventType), errors.New("invalid type"))
		return nil
	}
	if rating != nil && (*rating < 1 || *rating > 10) {
		logger.Warn().Int("rating", *rating).Msg("dropping out-of-range rating")
		rating = nil
	}

	event := recommend.Event{
		ID:        uuid.New().String(),
		LogID:     logID,
		Type:      eventType,
		Rating:    rating,
		CreatedAt: t.now(),
	}
	if err := t.logs.InsertEvent(ctx, event); err != nil {
		logger.Error().Err(err).Msg("failed to record outcome")
		metrics.RecordOutcome(string(eventType), err)
		return nil
	}
	metrics.RecordOutcome(string(eventType), nil)

	entry, err := t.logs.GetLogEntry(ctx, logID)
	if err != nil {
		logger.Warn().Err(err).Msg("outcome recorded for unknown log entry")
		return &event
	}

	if action, ok := eventType.LogAction(); ok {
		if err := t.logs.UpdateLogAction(ctx, logID, action); err != nil {
			logger.Warn().Err(err).Str("action", string(action)).Msg("failed to update log action")
		}
	}

	if t.publisher != nil {
		msg := events.OutcomeMessage{
			EventID:   event.ID,
			LogID:     logID,
			UserID:    entry.UserID,
			Algorithm: entry.Algorithm,
			Type:      string(eventType),
			Rating:    rating,
			CreatedAt: event.CreatedAt,
		}
		if err := t.publisher.PublishOutcome(ctx, msg); err != nil {
			logger.Warn().Err(err).Msg("failed to publish outcome")
		}
	}

	logger.Debug().Int64("user_id", entry.UserID).Str("algorithm", entry.Algorithm).Msg("outcome tracked")
	return &event
}
