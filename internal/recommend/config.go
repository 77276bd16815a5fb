// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package recommend

import (
	"fmt"
	"time"
)

// Config contains all configuration for the ensemble engine.
type Config struct {
	// ColdStartThreshold is the watched count below which the ensemble
	// skips the algorithms and serves the cold-start fallback.
	ColdStartThreshold int `json:"cold_start_threshold" koanf:"cold_start_threshold"`

	// HeavyUserThreshold is the watched count at or above which the
	// session carries a sampling directive.
	HeavyUserThreshold int `json:"heavy_user_threshold" koanf:"heavy_user_threshold"`

	// HeavyUserSampleSize is the sampling limit set for heavy users.
	HeavyUserSampleSize int `json:"heavy_user_sample_size" koanf:"heavy_user_sample_size"`

	// AlgorithmTimeout bounds each algorithm call independently.
	AlgorithmTimeout time.Duration `json:"algorithm_timeout" koanf:"algorithm_timeout"`

	// CacheTTL is how long ensemble responses stay cached.
	CacheTTL time.Duration `json:"cache_ttl" koanf:"cache_ttl"`

	// CooldownWindow suppresses items shown within this window.
	CooldownWindow time.Duration `json:"cooldown_window" koanf:"cooldown_window"`

	// Limit is the maximum number of returned recommendations.
	Limit int `json:"limit" koanf:"limit"`

	// ColdStart configures the non-personalized fallback.
	ColdStart ColdStartConfig `json:"cold_start" koanf:"cold_start"`

	// Confidence configures the confidence heuristic.
	Confidence ConfidenceConfig `json:"confidence" koanf:"confidence"`
}

// ColdStartConfig configures the trending/popular fallback.
type ColdStartConfig struct {
	// TrendingWindow is passed to the provider ("day" or "week").
	TrendingWindow string `json:"trending_window" koanf:"trending_window"`

	// PopularPage is the page requested when trending is empty.
	PopularPage int `json:"popular_page" koanf:"popular_page"`

	// TopScore is the score of the first fallback item.
	TopScore float64 `json:"top_score" koanf:"top_score"`

	// ScoreStep is subtracted per rank.
	ScoreStep float64 `json:"score_step" koanf:"score_step"`
}

// ConfidenceConfig holds the confidence heuristic constants.
type ConfidenceConfig struct {
	Base             int     `json:"base" koanf:"base"`
	PerAlgorithm     int     `json:"per_algorithm" koanf:"per_algorithm"`
	Cap              int     `json:"cap" koanf:"cap"`
	PeerBonus        int     `json:"peer_bonus" koanf:"peer_bonus"`
	MinPeersForBonus int     `json:"min_peers_for_bonus" koanf:"min_peers_for_bonus"`
	StdDevThreshold  float64 `json:"stddev_threshold" koanf:"stddev_threshold"`
	StdDevPenalty    int     `json:"stddev_penalty" koanf:"stddev_penalty"`
	ColdStartPenalty int     `json:"cold_start_penalty" koanf:"cold_start_penalty"`
	HeavyUserPenalty int     `json:"heavy_user_penalty" koanf:"heavy_user_penalty"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		ColdStartThreshold:  10,
		HeavyUserThreshold:  500,
		HeavyUserSampleSize: 200,
		AlgorithmTimeout:    3000 * time.Millisecond,
		CacheTTL:            15 * time.Minute,
		CooldownWindow:      7 * 24 * time.Hour,
		Limit:               12,
		ColdStart: ColdStartConfig{
			TrendingWindow: "week",
			PopularPage:    1,
			TopScore:       100,
			ScoreStep:      5,
		},
		Confidence: DefaultConfidenceConfig(),
	}
}

// DefaultConfidenceConfig returns the default confidence constants.
func DefaultConfidenceConfig() ConfidenceConfig {
	return ConfidenceConfig{
		Base:             50,
		PerAlgorithm:     5,
		Cap:              90,
		PeerBonus:        10,
		MinPeersForBonus: 5,
		StdDevThreshold:  20,
		StdDevPenalty:    20,
		ColdStartPenalty: 30,
		HeavyUserPenalty: 10,
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.ColdStartThreshold < 0 {
		return fmt.Errorf("cold_start_threshold must be non-negative, got %d", c.ColdStartThreshold)
	}
	if c.HeavyUserThreshold <= c.ColdStartThreshold {
		return fmt.Errorf("heavy_user_threshold must be greater than cold_start_threshold, got %d <= %d",
			c.HeavyUserThreshold, c.ColdStartThreshold)
	}
	if c.HeavyUserSampleSize < 1 {
		return fmt.Errorf("heavy_user_sample_size must be positive, got %d", c.HeavyUserSampleSize)
	}
	if c.AlgorithmTimeout <= 0 {
		return fmt.Errorf("algorithm_timeout must be positive, got %v", c.AlgorithmTimeout)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must be non-negative, got %v", c.CacheTTL)
	}
	if c.CooldownWindow < 0 {
		return fmt.Errorf("cooldown_window must be non-negative, got %v", c.CooldownWindow)
	}
	if c.Limit < 1 {
		return fmt.Errorf("limit must be positive, got %d", c.Limit)
	}
	if c.ColdStart.ScoreStep < 0 {
		return fmt.Errorf("cold_start.score_step must be non-negative, got %f", c.ColdStart.ScoreStep)
	}
	if c.Confidence.Cap < 0 || c.Confidence.Cap > 100 {
		return fmt.Errorf("confidence.cap must be in [0, 100], got %d", c.Confidence.Cap)
	}
	return nil
}
