// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package logging

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// EventLogger writes the domain log lines of the outcome message bus.
type EventLogger struct {
	logger zerolog.Logger
}

// NewEventLogger creates an EventLogger on the global logger.
func NewEventLogger() *EventLogger {
	return &EventLogger{logger: WithComponent("events")}
}

// NewEventLoggerWithLogger creates an EventLogger on logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEventLoggerWithLogger(logger zerolog.Logger) *EventLogger {
	return &EventLogger{logger: logger.With().Str("component", "events").Logger()}
}

// loggerWithContext adds the correlation and request IDs of ctx.
func (e *EventLogger) loggerWithContext(ctx context.Context) zerolog.Logger {
	logCtx := e.logger.With()
	if id := CorrelationIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("correlation_id", id)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("request_id", id)
	}
	return logCtx.Logger()
}

// LogOutcomePublished logs a published outcome message.
func (e *EventLogger) LogOutcomePublished(ctx context.Context, messageID, eventType string, userID int64) {
	l := e.loggerWithContext(ctx)
	l.Debug().
		Str("message_id", messageID).
		Str("event_type", eventType).
		Int64("user_id", userID).
		Msg("outcome published")
}

// LogOutcomeHandled logs a successfully handled outcome message.
func (e *EventLogger) LogOutcomeHandled(ctx context.Context, handler, messageID string, elapsed time.Duration) {
	l := e.loggerWithContext(ctx)
	l.Debug().
		Str("handler", handler).
		Str("message_id", messageID).
		Dur("duration", elapsed).
		Msg("outcome handled")
}

// LogOutcomeFailed logs a handler failure. The router retries the message.
func (e *EventLogger) LogOutcomeFailed(ctx context.Context, handler, messageID string, err error) {
	l := e.loggerWithContext(ctx)
	l.Warn().
		Str("handler", handler).
		Str("message_id", messageID).
		Err(err).
		Msg("outcome handler failed")
}

// LogUndecodable logs a dropped message whose payload could not be decoded.
func (e *EventLogger) LogUndecodable(messageID string, err error) {
	e.logger.Error().
		Str("message_id", messageID).
		Err(err).
		Msg("dropping undecodable outcome message")
}

// LogRouterStarted logs router startup with the registered handler count.
func (e *EventLogger) LogRouterStarted(handlers int) {
	e.logger.Info().Int("handlers", handlers).Msg("event router started")
}

// LogRouterStopped logs router shutdown.
func (e *EventLogger) LogRouterStopped() {
	e.logger.Info().Msg("event router stopped")
}
