// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package database provides the DuckDB-backed store behind the recommendation
engine.

# Tables

  - watch_statuses: status catalog (want, watched, rewatched, dropped)
  - watchlist_items: one row per (user, external id, media type); removed
    entries keep their row with removed_at set
  - watchlist_status_history, watchlist_rating_history: transitions written
    in the same transaction as the list change
  - genre_profiles: per-user genre affinity scores (0-100)
  - person_profiles: per-user actor and director affinity scores (0-100)
  - content_credits, content_credits_fetched: TMDB cast and directors per title
  - recommendation_log: one row per shown recommendation
  - recommendation_events: append-only outcome events for log rows
  - schema_migrations: applied versioned migrations

# Contracts

*DB implements recommend.HistoryStore, recommend.ProfileProvider and
recommend.LogStore. Type profiles are computed on read from the watched
items. Genre profiles are rebuilt from history by RebuildGenreProfiles and
person profiles from history joined with content_credits by
RebuildPersonProfiles.

# Testing

Tests open ":memory:" databases:

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "256MB"})
*/
package database
