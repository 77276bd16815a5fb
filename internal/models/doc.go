// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package models defines the HTTP request and response shapes.

Every JSON endpoint answers with an APIResponse envelope. Request bodies
carry validate tags checked by internal/validation before they reach the
recommendation engine or the outcome tracker.
*/
package models
