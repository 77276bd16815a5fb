// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package algorithms

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/cinematch/internal/recommend"
)

var (
	// ErrUnknownAlgorithm is returned by New for an unregistered name.
	ErrUnknownAlgorithm = errors.New("unknown algorithm")

	// ErrInvalidOverride is returned by New when an override does not apply
	// to the algorithm or is out of range.
	ErrInvalidOverride = errors.New("invalid override")
)

// Weight names accepted in Overrides.Weights.
const (
	WeightSimilarity       = "similarity"
	WeightRating           = "rating"
	WeightCooccurrence     = "cooccurrence"
	WeightWantFrequency    = "want_frequency"
	WeightGenreMatch       = "genre_match"
	WeightTypeSimilarity   = "type_similarity"
	WeightDominantType     = "dominant_type"
	WeightPersonSimilarity = "person_similarity"
	WeightPersonMatch      = "person_match"
	WeightUserSimilarity   = "user_similarity"
	WeightGenreSimilarity  = "genre_similarity"
)

// Overrides tunes one algorithm. Nil fields keep the algorithm default, so
// an explicit zero is honored where zero is meaningful. Setting a field the
// algorithm does not have is an error.
type Overrides struct {
	MinUserHistory      *int
	SimilarityThreshold *float64
	MaxPeers            *int
	ItemsPerPeer        *int
	Limit               *int

	// CooldownWindow should match the ensemble window. Zero or negative
	// disables the per-algorithm cooldown.
	CooldownWindow *time.Duration

	// Weights replaces signal weights by name (see the Weight constants).
	Weights map[string]float64

	RecencyWindow     *time.Duration // want_overlap_v1
	DropPenaltyScale  *float64       // drop_patterns_v1
	MaxDropPenalty    *float64       // drop_patterns_v1
	FavoriteThreshold *float64       // person_recommendations_v1
	DominantThreshold *float64       // genre_recommendations_v1
	DominantCount     *int           // genre_recommendations_v1
}

func (o Overrides) apply(c Config) Config {
	if o.MinUserHistory != nil {
		c.MinUserHistory = *o.MinUserHistory
	}
	if o.SimilarityThreshold != nil {
		c.SimilarityThreshold = *o.SimilarityThreshold
	}
	if o.MaxPeers != nil {
		c.MaxPeers = *o.MaxPeers
	}
	if o.ItemsPerPeer != nil {
		c.ItemsPerPeer = *o.ItemsPerPeer
	}
	if o.Limit != nil {
		c.Limit = *o.Limit
	}
	if o.CooldownWindow != nil {
		c.CooldownWindow = *o.CooldownWindow
		if c.CooldownWindow <= 0 {
			c.CooldownWindow = -1
		}
	}
	return c
}

// applyWeights sets the named weights. Names the algorithm lacks and
// negative values are rejected.
func (o Overrides) applyWeights(name string, weights map[string]*float64) error {
	keys := make([]string, 0, len(o.Weights))
	for k := range o.Weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		dst, ok := weights[k]
		if !ok {
			return fmt.Errorf("%w: %s has no %q weight", ErrInvalidOverride, name, k)
		}
		v := o.Weights[k]
		if v < 0 {
			return fmt.Errorf("%w: %s weight %q must be non-negative, got %f", ErrInvalidOverride, name, k, v)
		}
		*dst = v
	}
	return nil
}

// specific lists the algorithm-specific fields that are set.
func (o Overrides) specific() []string {
	var set []string
	if o.RecencyWindow != nil {
		set = append(set, "recency_window")
	}
	if o.DropPenaltyScale != nil {
		set = append(set, "drop_penalty_scale")
	}
	if o.MaxDropPenalty != nil {
		set = append(set, "max_drop_penalty")
	}
	if o.FavoriteThreshold != nil {
		set = append(set, "favorite_threshold")
	}
	if o.DominantThreshold != nil {
		set = append(set, "dominant_threshold")
	}
	if o.DominantCount != nil {
		set = append(set, "dominant_count")
	}
	return set
}

// allowOnly rejects algorithm-specific fields outside allowed.
func (o Overrides) allowOnly(name string, allowed ...string) error {
	for _, f := range o.specific() {
		ok := false
		for _, a := range allowed {
			if f == a {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("%w: %s does not support %s", ErrInvalidOverride, name, f)
		}
	}
	return nil
}

// Names returns every algorithm name in registration order.
func Names() []string {
	return []string{
		NameTasteMatch,
		NameWantOverlap,
		NameDropPatterns,
		NameTypeTwins,
		NamePersonTwins,
		NamePersonRecommendations,
		NameGenreTwins,
		NameGenreRecommendations,
	}
}

// New builds the named algorithm with its defaults adjusted by o.
//
//nolint:gocritic // hugeParam: deps copied once at construction
func New(name string, deps Deps, o Overrides) (recommend.Algorithm, error) {
	switch name {
	case NameTasteMatch:
		cfg := DefaultTasteMatchConfig()
		cfg.Config = o.apply(cfg.Config)
		err := o.configure(name, map[string]*float64{
			WeightSimilarity:   &cfg.SimilarityWeight,
			WeightRating:       &cfg.RatingWeight,
			WeightCooccurrence: &cfg.CooccurrenceWeight,
		})
		if err != nil {
			return nil, err
		}
		return newValidated(cfg.Config, NewTasteMatch(deps, cfg))

	case NameWantOverlap:
		cfg := DefaultWantOverlapConfig()
		cfg.Config = o.apply(cfg.Config)
		err := o.configure(name, map[string]*float64{
			WeightSimilarity:    &cfg.SimilarityWeight,
			WeightWantFrequency: &cfg.WantFrequencyWeight,
			WeightGenreMatch:    &cfg.GenreMatchWeight,
		}, "recency_window")
		if err != nil {
			return nil, err
		}
		if o.RecencyWindow != nil {
			if *o.RecencyWindow <= 0 {
				return nil, fmt.Errorf("%w: %s recency_window must be positive", ErrInvalidOverride, name)
			}
			cfg.RecencyWindow = *o.RecencyWindow
		}
		return newValidated(cfg.Config, NewWantOverlap(deps, cfg))

	case NameDropPatterns:
		cfg := DefaultDropPatternsConfig()
		cfg.Config = o.apply(cfg.Config)
		err := o.configure(name, map[string]*float64{
			WeightSimilarity:   &cfg.SimilarityWeight,
			WeightRating:       &cfg.RatingWeight,
			WeightCooccurrence: &cfg.CooccurrenceWeight,
		}, "drop_penalty_scale", "max_drop_penalty")
		if err != nil {
			return nil, err
		}
		if o.DropPenaltyScale != nil {
			if *o.DropPenaltyScale < 0 {
				return nil, fmt.Errorf("%w: %s drop_penalty_scale must be non-negative", ErrInvalidOverride, name)
			}
			cfg.DropPenaltyScale = *o.DropPenaltyScale
		}
		if o.MaxDropPenalty != nil {
			if *o.MaxDropPenalty < 0 || *o.MaxDropPenalty > 1 {
				return nil, fmt.Errorf("%w: %s max_drop_penalty must be in [0, 1]", ErrInvalidOverride, name)
			}
			cfg.MaxDropPenalty = *o.MaxDropPenalty
		}
		return newValidated(cfg.Config, NewDropPatterns(deps, cfg))

	case NameTypeTwins:
		cfg := DefaultTypeTwinsConfig()
		cfg.Config = o.apply(cfg.Config)
		err := o.configure(name, map[string]*float64{
			WeightTypeSimilarity: &cfg.TypeSimilarityWeight,
			WeightRating:         &cfg.RatingWeight,
			WeightDominantType:   &cfg.DominantTypeWeight,
		})
		if err != nil {
			return nil, err
		}
		return newValidated(cfg.Config, NewTypeTwins(deps, cfg))

	case NamePersonTwins:
		cfg := DefaultPersonTwinsConfig()
		cfg.Config = o.apply(cfg.Config)
		err := o.configure(name, map[string]*float64{
			WeightPersonSimilarity: &cfg.PersonSimilarityWeight,
			WeightRating:           &cfg.RatingWeight,
			WeightCooccurrence:     &cfg.CooccurrenceWeight,
		})
		if err != nil {
			return nil, err
		}
		return newValidated(cfg.Config, NewPersonTwins(deps, cfg))

	case NamePersonRecommendations:
		cfg := DefaultPersonRecommendationsConfig()
		cfg.Config = o.apply(cfg.Config)
		err := o.configure(name, map[string]*float64{
			WeightPersonMatch:    &cfg.PersonMatchWeight,
			WeightRating:         &cfg.RatingWeight,
			WeightUserSimilarity: &cfg.UserSimilarityWeight,
		}, "favorite_threshold")
		if err != nil {
			return nil, err
		}
		if o.FavoriteThreshold != nil {
			if err := checkPercent(name, "favorite_threshold", *o.FavoriteThreshold); err != nil {
				return nil, err
			}
			cfg.FavoriteThreshold = *o.FavoriteThreshold
		}
		return newValidated(cfg.Config, NewPersonRecommendations(deps, cfg))

	case NameGenreTwins:
		cfg := DefaultGenreTwinsConfig()
		cfg.Config = o.apply(cfg.Config)
		err := o.configure(name, map[string]*float64{
			WeightGenreSimilarity: &cfg.GenreSimilarityWeight,
			WeightRating:          &cfg.RatingWeight,
			WeightCooccurrence:    &cfg.CooccurrenceWeight,
		})
		if err != nil {
			return nil, err
		}
		return newValidated(cfg.Config, NewGenreTwins(deps, cfg))

	case NameGenreRecommendations:
		cfg := DefaultGenreRecommendationsConfig()
		cfg.Config = o.apply(cfg.Config)
		err := o.configure(name, map[string]*float64{
			WeightGenreMatch:     &cfg.GenreMatchWeight,
			WeightRating:         &cfg.RatingWeight,
			WeightUserSimilarity: &cfg.UserSimilarityWeight,
		}, "dominant_threshold", "dominant_count")
		if err != nil {
			return nil, err
		}
		if o.DominantThreshold != nil {
			if err := checkPercent(name, "dominant_threshold", *o.DominantThreshold); err != nil {
				return nil, err
			}
			cfg.DominantThreshold = *o.DominantThreshold
		}
		if o.DominantCount != nil {
			if *o.DominantCount < 1 {
				return nil, fmt.Errorf("%w: %s dominant_count must be at least 1", ErrInvalidOverride, name)
			}
			cfg.DominantCount = *o.DominantCount
		}
		return newValidated(cfg.Config, NewGenreRecommendations(deps, cfg))

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
}

// configure applies weights and rejects specific fields outside allowed.
func (o Overrides) configure(name string, weights map[string]*float64, allowed ...string) error {
	if err := o.checkSizes(name); err != nil {
		return err
	}
	if err := o.allowOnly(name, allowed...); err != nil {
		return err
	}
	return o.applyWeights(name, weights)
}

// checkSizes rejects peer and result sizes below 1; a zero would fall back
// to the default.
func (o Overrides) checkSizes(name string) error {
	sizes := []struct {
		field string
		v     *int
	}{
		{"max_peers", o.MaxPeers},
		{"items_per_peer", o.ItemsPerPeer},
		{"limit", o.Limit},
	}
	for _, s := range sizes {
		if s.v != nil && *s.v < 1 {
			return fmt.Errorf("%w: %s %s must be at least 1, got %d", ErrInvalidOverride, name, s.field, *s.v)
		}
	}
	return nil
}

func checkPercent(name, field string, v float64) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%w: %s %s must be in [0, 100], got %f", ErrInvalidOverride, name, field, v)
	}
	return nil
}

func newValidated(cfg Config, alg recommend.Algorithm) (recommend.Algorithm, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", alg.Name(), err)
	}
	return alg, nil
}
