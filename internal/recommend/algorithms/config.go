// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package algorithms

import (
	"fmt"
	"time"
)

// Config holds the settings shared by every algorithm.
type Config struct {
	// MinUserHistory is the watched-count gate.
	MinUserHistory int `json:"min_user_history"`

	// SimilarityThreshold is the minimum peer or profile similarity.
	SimilarityThreshold float64 `json:"similarity_threshold"`

	// MaxPeers caps the number of contributing peers.
	MaxPeers int `json:"max_peers"`

	// ItemsPerPeer caps the items sourced from each peer.
	ItemsPerPeer int `json:"items_per_peer"`

	// Limit is the number of items returned.
	Limit int `json:"limit"`

	// CooldownWindow suppresses items shown within this window.
	CooldownWindow time.Duration `json:"cooldown_window"`
}

// withDefaults fills zero values with the pipeline defaults.
func (c Config) withDefaults() Config {
	if c.MaxPeers == 0 {
		c.MaxPeers = 20
	}
	if c.ItemsPerPeer == 0 {
		c.ItemsPerPeer = 15
	}
	if c.Limit == 0 {
		c.Limit = 12
	}
	if c.CooldownWindow == 0 {
		c.CooldownWindow = 7 * 24 * time.Hour
	}
	return c
}

// Validate checks the shared settings.
func (c Config) Validate() error {
	if c.MinUserHistory < 0 {
		return fmt.Errorf("min_user_history must be non-negative, got %d", c.MinUserHistory)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be in [0, 1], got %f", c.SimilarityThreshold)
	}
	if c.MaxPeers < 0 || c.ItemsPerPeer < 0 || c.Limit < 0 {
		return fmt.Errorf("max_peers, items_per_peer and limit must be non-negative")
	}
	return nil
}

// TasteMatchConfig configures taste_match_v1.
type TasteMatchConfig struct {
	Config
	SimilarityWeight   float64 `json:"similarity_weight"`
	RatingWeight       float64 `json:"rating_weight"`
	CooccurrenceWeight float64 `json:"cooccurrence_weight"`
}

// DefaultTasteMatchConfig returns the taste_match_v1 defaults.
func DefaultTasteMatchConfig() TasteMatchConfig {
	return TasteMatchConfig{
		Config:             Config{MinUserHistory: 10, SimilarityThreshold: 0.7, MaxPeers: 20, ItemsPerPeer: 15},
		SimilarityWeight:   0.5,
		RatingWeight:       0.3,
		CooccurrenceWeight: 0.2,
	}
}

// WantOverlapConfig configures want_overlap_v1.
type WantOverlapConfig struct {
	Config
	SimilarityWeight    float64 `json:"similarity_weight"`
	WantFrequencyWeight float64 `json:"want_frequency_weight"`
	GenreMatchWeight    float64 `json:"genre_match_weight"`

	// RecencyWindow limits peers' want entries to those added within it.
	RecencyWindow time.Duration `json:"recency_window"`
}

// DefaultWantOverlapConfig returns the want_overlap_v1 defaults.
func DefaultWantOverlapConfig() WantOverlapConfig {
	return WantOverlapConfig{
		Config:              Config{MinUserHistory: 5, SimilarityThreshold: 0.6, MaxPeers: 20, ItemsPerPeer: 10},
		SimilarityWeight:    0.4,
		WantFrequencyWeight: 0.4,
		GenreMatchWeight:    0.2,
		RecencyWindow:       30 * 24 * time.Hour,
	}
}

// DropPatternsConfig configures drop_patterns_v1.
type DropPatternsConfig struct {
	Config
	SimilarityWeight   float64 `json:"similarity_weight"`
	RatingWeight       float64 `json:"rating_weight"`
	CooccurrenceWeight float64 `json:"cooccurrence_weight"`

	// DropPenaltyScale multiplies the fraction of peers that dropped an item.
	DropPenaltyScale float64 `json:"drop_penalty_scale"`

	// MaxDropPenalty caps the penalty.
	MaxDropPenalty float64 `json:"max_drop_penalty"`
}

// DefaultDropPatternsConfig returns the drop_patterns_v1 defaults.
func DefaultDropPatternsConfig() DropPatternsConfig {
	return DropPatternsConfig{
		Config:             Config{MinUserHistory: 8, SimilarityThreshold: 0.65, MaxPeers: 20, ItemsPerPeer: 15},
		SimilarityWeight:   0.5,
		RatingWeight:       0.3,
		CooccurrenceWeight: 0.2,
		DropPenaltyScale:   0.7,
		MaxDropPenalty:     0.7,
	}
}

// TypeTwinsConfig configures type_twins_v1.
type TypeTwinsConfig struct {
	Config
	TypeSimilarityWeight float64 `json:"type_similarity_weight"`
	RatingWeight         float64 `json:"rating_weight"`
	DominantTypeWeight   float64 `json:"dominant_type_weight"`
}

// DefaultTypeTwinsConfig returns the type_twins_v1 defaults.
func DefaultTypeTwinsConfig() TypeTwinsConfig {
	return TypeTwinsConfig{
		Config:               Config{MinUserHistory: 3, SimilarityThreshold: 0.7, MaxPeers: 15, ItemsPerPeer: 12},
		TypeSimilarityWeight: 0.5,
		RatingWeight:         0.3,
		DominantTypeWeight:   0.2,
	}
}

// PersonTwinsConfig configures person_twins_v1.
type PersonTwinsConfig struct {
	Config
	PersonSimilarityWeight float64 `json:"person_similarity_weight"`
	RatingWeight           float64 `json:"rating_weight"`
	CooccurrenceWeight     float64 `json:"cooccurrence_weight"`
}

// DefaultPersonTwinsConfig returns the person_twins_v1 defaults.
func DefaultPersonTwinsConfig() PersonTwinsConfig {
	return PersonTwinsConfig{
		Config:                 Config{MinUserHistory: 10, SimilarityThreshold: 0.5, MaxPeers: 15, ItemsPerPeer: 12},
		PersonSimilarityWeight: 0.5,
		RatingWeight:           0.3,
		CooccurrenceWeight:     0.2,
	}
}

// PersonRecommendationsConfig configures person_recommendations_v1.
type PersonRecommendationsConfig struct {
	Config
	PersonMatchWeight    float64 `json:"person_match_weight"`
	RatingWeight         float64 `json:"rating_weight"`
	UserSimilarityWeight float64 `json:"user_similarity_weight"`

	// FavoriteThreshold is the affinity score (0-100) at which an actor or
	// director counts as a favorite.
	FavoriteThreshold float64 `json:"favorite_threshold"`
}

// DefaultPersonRecommendationsConfig returns the person_recommendations_v1 defaults.
func DefaultPersonRecommendationsConfig() PersonRecommendationsConfig {
	return PersonRecommendationsConfig{
		Config:               Config{MinUserHistory: 5, MaxPeers: 20, ItemsPerPeer: 10},
		PersonMatchWeight:    0.4,
		RatingWeight:         0.4,
		UserSimilarityWeight: 0.2,
		FavoriteThreshold:    60,
	}
}

// GenreTwinsConfig configures genre_twins_v1.
type GenreTwinsConfig struct {
	Config
	GenreSimilarityWeight float64 `json:"genre_similarity_weight"`
	RatingWeight          float64 `json:"rating_weight"`
	CooccurrenceWeight    float64 `json:"cooccurrence_weight"`
}

// DefaultGenreTwinsConfig returns the genre_twins_v1 defaults.
func DefaultGenreTwinsConfig() GenreTwinsConfig {
	return GenreTwinsConfig{
		Config:                Config{MinUserHistory: 10, SimilarityThreshold: 0.6, MaxPeers: 15, ItemsPerPeer: 12},
		GenreSimilarityWeight: 0.5,
		RatingWeight:          0.3,
		CooccurrenceWeight:    0.2,
	}
}

// GenreRecommendationsConfig configures genre_recommendations_v1.
type GenreRecommendationsConfig struct {
	Config
	GenreMatchWeight     float64 `json:"genre_match_weight"`
	RatingWeight         float64 `json:"rating_weight"`
	UserSimilarityWeight float64 `json:"user_similarity_weight"`

	// DominantThreshold is the minimum genre score (0-100) of a dominant genre.
	DominantThreshold float64 `json:"dominant_threshold"`

	// DominantCount is how many top genres are considered.
	DominantCount int `json:"dominant_count"`
}

// DefaultGenreRecommendationsConfig returns the genre_recommendations_v1 defaults.
func DefaultGenreRecommendationsConfig() GenreRecommendationsConfig {
	return GenreRecommendationsConfig{
		Config:               Config{MinUserHistory: 5, MaxPeers: 20, ItemsPerPeer: 15},
		GenreMatchWeight:     0.4,
		RatingWeight:         0.4,
		UserSimilarityWeight: 0.2,
		DominantThreshold:    50,
		DominantCount:        3,
	}
}
