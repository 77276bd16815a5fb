// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package tmdb

import (
	"fmt"
	"time"
)

// DefaultBaseURL is the TMDB v3 API root.
const DefaultBaseURL = "https://api.themoviedb.org/3"

// Config configures the TMDB client.
type Config struct {
	APIKey   string `koanf:"api_key"`
	BaseURL  string `koanf:"base_url"`
	Language string `koanf:"language"`

	// Timeout bounds a single HTTP request.
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond and Burst shape outgoing traffic.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`

	// MaxRetries is the number of retries after the first attempt for
	// network errors, 429 and 5xx responses.
	MaxRetries int           `koanf:"max_retries"`
	RetryDelay time.Duration `koanf:"retry_delay"`

	// BreakerFailureRatio opens the breaker once at least BreakerMinRequests
	// were made in the current interval.
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio"`
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests"`
	BreakerOpenTimeout  time.Duration `koanf:"breaker_open_timeout"`

	// ResponseTTL caches list responses in the shared cache. Zero disables.
	ResponseTTL time.Duration `koanf:"response_ttl"`
}

// DefaultConfig returns production defaults. The API key must be supplied.
func DefaultConfig() Config {
	return Config{
		BaseURL:             DefaultBaseURL,
		Language:            "en-US",
		Timeout:             10 * time.Second,
		RequestsPerSecond:   40,
		Burst:               10,
		MaxRetries:          2,
		RetryDelay:          300 * time.Millisecond,
		BreakerFailureRatio: 0.6,
		BreakerMinRequests:  10,
		BreakerOpenTimeout:  2 * time.Minute,
		ResponseTTL:         time.Hour,
	}
}

// Validate checks value ranges. An empty API key is allowed; the client then
// reports ErrNotConfigured and the engine degrades to an empty cold start.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("tmdb base_url is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("tmdb timeout must be positive, got %v", c.Timeout)
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("tmdb requests_per_second must be positive, got %v", c.RequestsPerSecond)
	}
	if c.Burst < 1 {
		return fmt.Errorf("tmdb burst must be at least 1, got %d", c.Burst)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("tmdb max_retries must be non-negative, got %d", c.MaxRetries)
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		return fmt.Errorf("tmdb breaker_failure_ratio must be in (0, 1], got %v", c.BreakerFailureRatio)
	}
	if c.ResponseTTL < 0 {
		return fmt.Errorf("tmdb response_ttl must be non-negative, got %v", c.ResponseTTL)
	}
	return nil
}
