// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package logging provides the zerolog-based structured logging used across
// Cinematch.
//
// A package-global logger is configured once at startup:
//
//	logging.Init(logging.Config{Level: "info", Format: "json", Timestamp: true})
//	logging.Info().Int("port", 8080).Msg("Server starting")
//
// Components that own a logger derive a child with a component field:
//
//	logger := logging.WithComponent("similarity")
//
// # Request scope
//
// The HTTP middleware stores a request ID (and, for user routes, the user ID)
// in the request context. Ctx(ctx) returns a logger carrying those fields:
//
//	logging.Ctx(ctx).Warn().Err(err).Msg("Recommendation request failed")
//
// # slog bridge
//
// Suture (via sutureslog) and Watermill (via watermill.NewSlogLogger) accept
// a *slog.Logger. NewSlogLogger returns one that writes through zerolog.
//
// # Redaction
//
// SanitizeURL and SanitizeError mask credentials such as the TMDB api_key
// query parameter before they reach a log line.
//
// Always terminate log chains with .Msg() or .Send(); an unterminated event
// is never written.
package logging
