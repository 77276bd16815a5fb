// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package cache provides the string key-value stores used for ensemble results
and similar-user lists.

# Backends

Three implementations of Store are available, selected by Config.Backend:

  - memory: MemoryStore, an in-process LRU with per-entry TTL
  - badger: BadgerStore, entries written with badger's native TTL
  - redis: RedisStore, SET with expiry on a shared Redis

A miss is always reported as ok=false with a nil error. Only backend faults
produce errors.

# Keys

GenerateKey builds compact keys from a prefix and any JSON-encodable value:

	key := cache.GenerateKey("recommendations:42:0", filters)
	// recommendations:42:0:3f2a...

# Metrics

Every Get records a hit or miss on cache_hits_total / cache_misses_total
labelled with the backend name. MemoryStore also records evictions.
*/
package cache
