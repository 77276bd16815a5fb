// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

// EventRouter is a blocking message router such as *events.Bus.
type EventRouter interface {
	Run(ctx context.Context) error
	Close() error
}

// EventRouterService runs the outcome event router under supervision.
// A watermill router cannot be restarted once closed, so a failure stops
// the service permanently instead of looping on restarts.
type EventRouterService struct {
	router EventRouter
	logger zerolog.Logger
}

// NewEventRouterService wraps router.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEventRouterService(router EventRouter, logger zerolog.Logger) *EventRouterService {
	return &EventRouterService{
		router: router,
		logger: logger.With().Str("service", "event-router").Logger(),
	}
}

// Serve implements suture.Service.
func (s *EventRouterService) Serve(ctx context.Context) error {
	err := s.router.Run(ctx)
	if ctx.Err() != nil {
		if closeErr := s.router.Close(); closeErr != nil {
			s.logger.Warn().Err(closeErr).Msg("Failed to close event router")
		}
		return ctx.Err()
	}

	s.logger.Error().Err(err).Msg("Event router stopped unexpectedly; outcome events will no longer invalidate caches")
	return fmt.Errorf("event router stopped: %v: %w", err, suture.ErrDoNotRestart)
}

// String implements fmt.Stringer for suture's logs.
func (s *EventRouterService) String() string {
	return "event-router"
}
