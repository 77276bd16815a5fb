// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package config provides centralized configuration management for Cinematch.

Configuration is loaded with Koanf v2 in three layers, later layers winning:

 1. Struct defaults (defaultConfig)
 2. An optional YAML file: CONFIG_PATH, then config.yaml / config.yml in the
    working directory, then /etc/cinematch/config.yaml
 3. Environment variables, through an explicit name to key map

Unmapped environment variables are ignored.

# Sections

  - server: HTTP listener (HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT, ENVIRONMENT)
  - database: DuckDB file and tuning (DUCKDB_PATH, DUCKDB_MAX_MEMORY, DUCKDB_THREADS)
  - cache: memory, badger or redis result cache (CACHE_BACKEND, REDIS_ADDR, ...)
  - tmdb: cold-start provider (TMDB_API_KEY, TMDB_LANGUAGE, ...)
  - recommend: ensemble thresholds, enabled algorithms, per-algorithm tuning
  - similarity: user similarity sampling and weights
  - events: in-process outcome bus
  - jobs: background refresh intervals
  - security: CORS origins and rate limiting
  - logging: level and format (LOG_LEVEL, LOG_FORMAT, LOG_CALLER)

Per-algorithm tuning is only available through the YAML file:

	recommend:
	  algorithms: [taste_match_v1, genre_twins_v1]
	  tuning:
	    taste_match_v1:
	      min_user_history: 20
	      similarity_threshold: 0.8

# Usage

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatal(err)
	}
*/
package config
