// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package services adapts long-running components to suture.Service.

  - HTTPServerService: ListenAndServe with graceful Shutdown on cancellation
  - EventRouterService: the watermill outcome router; not restarted after failure
  - JobService: a JobFunc on a fixed interval, with per-run timeout

The job constructors (SimilarityRefreshJob, ProfileRefreshJob, CacheGCJob)
depend on narrow interfaces satisfied by the database, similarity service,
TMDB client and Badger cache.

Every service implements fmt.Stringer so suture's event hook can name it.
*/
package services
