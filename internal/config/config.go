// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package config

import (
	"time"

	"github.com/tomtom215/cinematch/internal/cache"
	"github.com/tomtom215/cinematch/internal/events"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/recommend"
	"github.com/tomtom215/cinematch/internal/recommend/algorithms"
	"github.com/tomtom215/cinematch/internal/recommend/outcome"
	"github.com/tomtom215/cinematch/internal/recommend/similarity"
	"github.com/tomtom215/cinematch/internal/tmdb"
)

// Config holds all application configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values from defaultConfig
//  2. Config File: optional YAML file (config.yaml or CONFIG_PATH)
//  3. Environment Variables: explicit env to key mapping
type Config struct {
	Server     ServerConfig      `koanf:"server"`
	Database   DatabaseConfig    `koanf:"database"`
	Cache      cache.Config      `koanf:"cache"`
	TMDB       tmdb.Config       `koanf:"tmdb"`
	Recommend  RecommendConfig   `koanf:"recommend"`
	Similarity similarity.Config `koanf:"similarity"`
	Events     events.Config     `koanf:"events"`
	Jobs       JobsConfig        `koanf:"jobs"`
	Security   SecurityConfig    `koanf:"security"`
	Logging    logging.Config    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging or production
}

// IsProduction reports whether the server runs in production mode.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// DatabaseConfig holds DuckDB settings
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"`                  // 0 = use NumCPU
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"` // DuckDB default is true
	SkipIndexes            bool   `koanf:"skip_indexes"`             // fast test setup
}

// RecommendConfig holds the ensemble settings plus per-algorithm tuning.
type RecommendConfig struct {
	Engine recommend.Config `koanf:"engine"`

	// Algorithms lists the enabled algorithms. Empty enables all of them.
	Algorithms []string `koanf:"algorithms"`

	// Tuning overrides the settings of individual algorithms, keyed by
	// algorithm name.
	Tuning map[string]AlgorithmTuning `koanf:"tuning"`

	Health outcome.HealthPolicy `koanf:"health"`
}

// AlgorithmTuning overrides one algorithm's defaults. Unset fields keep the
// default; an explicit zero is honored. Fields the algorithm does not have
// fail validation.
type AlgorithmTuning struct {
	MinUserHistory      *int     `koanf:"min_user_history"`
	SimilarityThreshold *float64 `koanf:"similarity_threshold"`
	MaxPeers            *int     `koanf:"max_peers"`
	ItemsPerPeer        *int     `koanf:"items_per_peer"`
	Limit               *int     `koanf:"limit"`

	// Weights keys are signal names such as similarity, rating,
	// cooccurrence or genre_match.
	Weights map[string]float64 `koanf:"weights"`

	RecencyWindow     *time.Duration `koanf:"recency_window"`
	DropPenaltyScale  *float64       `koanf:"drop_penalty_scale"`
	MaxDropPenalty    *float64       `koanf:"max_drop_penalty"`
	FavoriteThreshold *float64       `koanf:"favorite_threshold"`
	DominantThreshold *float64       `koanf:"dominant_threshold"`
	DominantCount     *int           `koanf:"dominant_count"`
}

// Overrides converts the tuning into registry overrides.
func (t AlgorithmTuning) Overrides() algorithms.Overrides {
	return algorithms.Overrides{
		MinUserHistory:      t.MinUserHistory,
		SimilarityThreshold: t.SimilarityThreshold,
		MaxPeers:            t.MaxPeers,
		ItemsPerPeer:        t.ItemsPerPeer,
		Limit:               t.Limit,
		Weights:             t.Weights,
		RecencyWindow:       t.RecencyWindow,
		DropPenaltyScale:    t.DropPenaltyScale,
		MaxDropPenalty:      t.MaxDropPenalty,
		FavoriteThreshold:   t.FavoriteThreshold,
		DominantThreshold:   t.DominantThreshold,
		DominantCount:       t.DominantCount,
	}
}

// EnabledAlgorithms returns the configured algorithm names, or every
// registered algorithm when none are listed.
func (r *RecommendConfig) EnabledAlgorithms() []string {
	if len(r.Algorithms) == 0 {
		return algorithms.Names()
	}
	return r.Algorithms
}

// OverridesFor returns the overrides configured for name. The engine
// cooldown window always applies so the algorithms filter the same
// recently recommended items the ensemble does.
func (r *RecommendConfig) OverridesFor(name string) algorithms.Overrides {
	o := r.Tuning[name].Overrides()
	cooldown := r.Engine.CooldownWindow
	o.CooldownWindow = &cooldown
	return o
}

// JobsConfig schedules the background refresh services. A zero interval
// disables the job.
type JobsConfig struct {
	SimilarityRefreshInterval time.Duration `koanf:"similarity_refresh_interval"`
	SimilarityRefreshUsers    int           `koanf:"similarity_refresh_users"`
	ProfileRefreshInterval    time.Duration `koanf:"profile_refresh_interval"`
	CacheGCInterval           time.Duration `koanf:"cache_gc_interval"`

	// CreditsFetchLimit caps the TMDB credit lookups of one profile refresh.
	// Zero disables the lookups.
	CreditsFetchLimit int `koanf:"credits_fetch_limit"`
}

// SecurityConfig holds CORS and rate limit settings
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}
