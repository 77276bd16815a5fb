// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package recommend implements the recommendation ensemble for watchlist content.
//
// # Architecture
//
// The engine fans a request out to a set of independent scoring algorithms
// (see package algorithms), each of which sources candidates from similar
// users or from the user's own taste profile and returns results normalized
// to the 0-100 range:
//
//   - Peer based: taste_match_v1, want_overlap_v1, drop_patterns_v1
//   - Profile twins: type_twins_v1, person_twins_v1, genre_twins_v1
//   - Profile driven: person_recommendations_v1, genre_recommendations_v1
//
// # Request Flow
//
//  1. Cache lookup keyed by user and request filters
//  2. Cold-start check (fewer than 10 watched items) with a trending/popular
//     fallback from the external content provider
//  3. Heavy-user sampling directive (500+ watched items)
//  4. Parallel execution with a per-algorithm timeout; failures are isolated
//  5. Deduplication by content identity keeping the highest score
//  6. Cooldown filter against the shown-log (7 days)
//  7. Ranking, truncation and confidence estimation
//  8. Logging of every shown item and caching of the response
//
// # Usage
//
//	engine := recommend.NewEngine(cfg, recommend.Dependencies{
//	    History:   db,
//	    Logs:      db,
//	    ColdStart: tmdbProvider,
//	    Cache:     store,
//	}, logger)
//	engine.RegisterAlgorithm(algorithms.NewTasteMatch(deps, algorithms.DefaultTasteMatchConfig()))
//
//	resp := engine.RunEnsemble(ctx, userID, recommend.Request{})
//
// # Thread Safety
//
// The engine is safe for concurrent use. A Session is shared by all
// algorithms of one request and guards its recommended set with a mutex.
package recommend
