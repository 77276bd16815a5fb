// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package main is the entry point for the Cinematch server.

Cinematch recommends movies and shows to users from their watch lists. An
ensemble of collaborative and profile-based algorithms runs concurrently
per request, each result is logged, and user outcomes on those results
feed back into per-algorithm acceptance statistics.

# Application Architecture

Services run under Suture v4 supervision:

	RootSupervisor ("cinematch")
	├── JobsSupervisor ("jobs-layer")
	│   ├── similarity-refresh (precomputes similar users)
	│   ├── profile-refresh (fetches credits, rebuilds genre and person profiles)
	│   └── cache-gc (badger backend only)
	├── MessagingSupervisor ("messaging-layer")
	│   └── event-router (outcome events to cache invalidation)
	└── APISupervisor ("api-layer")
	    └── http-server

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config file and environment
 2. Logging: zerolog with the configured level and format
 3. Database: DuckDB watch lists, history, profiles and recommendation logs
 4. Cache: memory, badger or redis result cache
 5. TMDB client: cold-start titles and credits for person profiles
 6. Similarity service and recommendation engine with enabled algorithms
 7. Event bus and outcome tracker
 8. HTTP server and background jobs

# Configuration

Common environment variables:

	HTTP_PORT=8780
	DUCKDB_PATH=/data/cinematch.duckdb
	CACHE_BACKEND=memory        # memory, badger or redis
	REDIS_ADDR=localhost:6379
	TMDB_API_KEY=your-key       # unset disables cold-start results
	RECOMMEND_ALGORITHMS=taste_match_v1,genre_twins_v1
	LOG_LEVEL=info
	CONFIG_PATH=/etc/cinematch/config.yaml

Changes to the config file reload the log level without a restart.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The supervisor stops the HTTP
server with the configured shutdown timeout, closes the event router and
waits for running jobs before the database is checkpointed and closed.
*/
package main
