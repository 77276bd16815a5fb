// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Store is a string key-value store with per-entry expiry.
type Store interface {
	// Get returns the value and true when the key exists and has not
	// expired. A miss is not an error.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key for ttl. A ttl <= 0 stores without expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Backend names a Store implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendBadger Backend = "badger"
	BackendRedis  Backend = "redis"
)

// Config selects and configures the cache backend.
type Config struct {
	Backend Backend `koanf:"backend"`

	// Capacity bounds the memory backend. Zero uses DefaultCapacity.
	Capacity int `koanf:"capacity"`

	// BadgerPath is the badger data directory. Empty runs in memory.
	BadgerPath string `koanf:"badger_path"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// KeyPrefix namespaces keys on shared backends.
	KeyPrefix string `koanf:"key_prefix"`
}

// DefaultCapacity is the memory backend capacity when none is configured.
const DefaultCapacity = 10000

// Validate checks the configuration for the selected backend.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory, "":
		if c.Capacity < 0 {
			return fmt.Errorf("cache capacity must be non-negative, got %d", c.Capacity)
		}
	case BackendBadger:
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("cache redis_addr is required for the redis backend")
		}
		if c.RedisDB < 0 {
			return fmt.Errorf("cache redis_db must be non-negative, got %d", c.RedisDB)
		}
	default:
		return fmt.Errorf("unknown cache backend %q (want memory, badger or redis)", c.Backend)
	}
	return nil
}

// New creates the Store selected by cfg.Backend.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger = logger.With().Str("component", "cache").Str("backend", string(cfg.Backend)).Logger()

	switch cfg.Backend {
	case BackendBadger:
		store, err := OpenBadger(cfg.BadgerPath, cfg.KeyPrefix)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("path", cfg.BadgerPath).Msg("badger cache opened")
		return store, nil
	case BackendRedis:
		store, err := NewRedisStore(ctx, RedisOptions{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		logger.Info().Str("addr", cfg.RedisAddr).Msg("redis cache connected")
		return store, nil
	default:
		capacity := cfg.Capacity
		if capacity == 0 {
			capacity = DefaultCapacity
		}
		logger.Info().Int("capacity", capacity).Msg("memory cache created")
		return NewMemoryStore(capacity), nil
	}
}

// GenerateKey creates a cache key from a prefix and parameters.
func GenerateKey(method string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", method, params)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", method, hash[:16])
}
