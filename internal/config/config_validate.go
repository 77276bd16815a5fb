// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/recommend/algorithms"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateCache,
		c.validateTMDB,
		c.validateRecommend,
		c.validateSimilarity,
		c.validateEvents,
		c.validateJobs,
		c.validateSecurity,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

var validEnvironments = map[string]bool{
	"development": true,
	"staging":     true,
	"production":  true,
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must be positive")
	}
	if !validEnvironments[c.Server.Environment] {
		return fmt.Errorf("ENVIRONMENT must be one of: development, staging, production")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be non-negative")
	}
	return nil
}

func (c *Config) validateCache() error {
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}

// validateTMDB allows an empty API key; cold start then serves nothing.
func (c *Config) validateTMDB() error {
	if err := c.TMDB.Validate(); err != nil {
		return err
	}
	if err := validateHTTPURL(c.TMDB.BaseURL, "TMDB_BASE_URL"); err != nil {
		return err
	}
	if c.TMDB.APIKey != "" && containsPlaceholder(c.TMDB.APIKey) {
		return fmt.Errorf("TMDB_API_KEY contains a placeholder value")
	}
	return nil
}

func (c *Config) validateRecommend() error {
	if err := c.Recommend.Engine.Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}

	known := make(map[string]bool)
	for _, name := range algorithms.Names() {
		known[name] = true
	}
	for _, name := range c.Recommend.Algorithms {
		if !known[name] {
			return fmt.Errorf("RECOMMEND_ALGORITHMS contains unknown algorithm %q (known: %s)",
				name, strings.Join(algorithms.Names(), ", "))
		}
	}
	for name, tuning := range c.Recommend.Tuning {
		if !known[name] {
			return fmt.Errorf("recommend.tuning has unknown algorithm %q", name)
		}
		if t := tuning.SimilarityThreshold; t != nil && (*t < 0 || *t > 1) {
			return fmt.Errorf("recommend.tuning.%s.similarity_threshold must be in [0, 1]", name)
		}
		for _, v := range []*int{tuning.MinUserHistory, tuning.MaxPeers, tuning.ItemsPerPeer, tuning.Limit} {
			if v != nil && *v < 0 {
				return fmt.Errorf("recommend.tuning.%s values must be non-negative", name)
			}
		}
		if _, err := algorithms.New(name, algorithms.Deps{}, c.Recommend.OverridesFor(name)); err != nil {
			return fmt.Errorf("recommend.tuning.%s: %w", name, err)
		}
	}

	if c.Recommend.Health.MinShown < 0 {
		return fmt.Errorf("recommend.health.min_shown must be non-negative")
	}
	return nil
}

func (c *Config) validateSimilarity() error {
	if err := c.Similarity.Validate(); err != nil {
		return fmt.Errorf("similarity: %w", err)
	}
	return nil
}

func (c *Config) validateEvents() error {
	if c.Events.BufferSize < 0 {
		return fmt.Errorf("EVENTS_BUFFER_SIZE must be non-negative")
	}
	if c.Events.CloseTimeout <= 0 {
		return fmt.Errorf("EVENTS_CLOSE_TIMEOUT must be positive")
	}
	if c.Events.RetryMaxRetries < 0 {
		return fmt.Errorf("events.retry_max_retries must be non-negative")
	}
	return nil
}

func (c *Config) validateJobs() error {
	j := c.Jobs
	if j.SimilarityRefreshInterval < 0 || j.ProfileRefreshInterval < 0 || j.CacheGCInterval < 0 {
		return fmt.Errorf("job intervals must be non-negative")
	}
	if j.SimilarityRefreshInterval > 0 && j.SimilarityRefreshUsers < 1 {
		return fmt.Errorf("SIMILARITY_REFRESH_USERS must be positive when the refresh is enabled")
	}
	if j.CreditsFetchLimit < 0 {
		return fmt.Errorf("CREDITS_FETCH_LIMIT must be non-negative")
	}
	return nil
}

// Rate limit constants
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// hasWildcardCORS checks if CORS is configured with wildcard origins
func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS reports a wildcard CORS origin in production, which is
// logged at startup.
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.Server.IsProduction() && c.hasWildcardCORS()
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// placeholderPatterns indicate the user forgot to set a real value.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_API_KEY",
	"PLACEHOLDER",
	"EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}
