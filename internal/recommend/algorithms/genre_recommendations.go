// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package algorithms

import (
	"context"
	"fmt"
	"sort"

	"github.com/tomtom215/cinematch/internal/recommend"
)

// GenreRecommendations recommends peers' titles in the user's dominant
// genres: the top DominantCount genres scoring at least DominantThreshold.
//
//	raw = 0.4 * genreMatch + 0.4 * rating + 0.2 * userSimilarity
//
// genreMatch is the strongest dominant-genre affinity the item carries.
type GenreRecommendations struct {
	BaseAlgorithm
	cfg GenreRecommendationsConfig
}

// NewGenreRecommendations creates genre_recommendations_v1.
//
//nolint:gocritic // hugeParam: configuration copied once at construction
func NewGenreRecommendations(deps Deps, cfg GenreRecommendationsConfig) *GenreRecommendations {
	return &GenreRecommendations{
		BaseAlgorithm: NewBaseAlgorithm(NameGenreRecommendations, cfg.Config, deps),
		cfg:           cfg,
	}
}

// Execute implements recommend.Algorithm.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (g *GenreRecommendations) Execute(ctx context.Context, userID int64, req recommend.Request, session *recommend.Session) (*recommend.Result, error) {
	if ok, err := g.eligible(ctx, userID); err != nil || !ok {
		return recommend.EmptyResult(), err
	}
	if g.deps.Profiles == nil {
		return recommend.EmptyResult(), nil
	}

	profile, err := g.deps.Profiles.GenreProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: genre profile: %w", g.name, err)
	}
	if profile == nil {
		return recommend.EmptyResult(), nil
	}
	dominant := DominantGenres(profile, g.cfg.DominantCount, g.cfg.DominantThreshold)
	if len(dominant) == 0 {
		return recommend.EmptyResult(), nil
	}

	peers, err := g.similarPeers(ctx, userID, overall)
	if err != nil || len(peers) == 0 {
		return recommend.EmptyResult(), err
	}

	items, err := g.peerItems(ctx, peers, recommend.ItemQuery{
		Statuses: recommend.WatchedLike,
		OrderBy:  recommend.OrderRating,
	})
	if err != nil {
		return nil, err
	}

	ag := newAggregator()
	byID := peerIndex(peers)
	for i := range items {
		p, ok := byID[items[i].UserID]
		if !ok || dominantGenreMatch(profile, dominant, items[i].Genres) == 0 {
			continue
		}
		ag.add(items[i], p)
	}

	aggs := ag.list()
	pool := make([]candidate, 0, len(aggs))
	for _, a := range aggs {
		raw := g.cfg.GenreMatchWeight*dominantGenreMatch(profile, dominant, a.genres) +
			g.cfg.RatingWeight*clamp01(a.avgRating()) +
			g.cfg.UserSimilarityWeight*clamp01(a.avgSimilarity())
		pool = append(pool, newCandidate(a, raw))
	}

	return g.finish(ctx, userID, req, session, pool)
}

// DominantGenres returns up to count genres with a score of at least
// threshold, highest first. Ties order by name.
func DominantGenres(profile recommend.GenreProfile, count int, threshold float64) []string {
	type genreScore struct {
		name  string
		score float64
	}
	scored := make([]genreScore, 0, len(profile))
	for name, score := range profile {
		if score >= threshold {
			scored = append(scored, genreScore{name: name, score: score})
		}
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].name < scored[j].name
	})
	if count > 0 && len(scored) > count {
		scored = scored[:count]
	}
	names := make([]string, len(scored))
	for i, s := range scored {
		names[i] = s.name
	}
	return names
}

// dominantGenreMatch is the highest profile score (scaled to [0, 1]) among
// the item's genres that are dominant. Zero when none match.
func dominantGenreMatch(profile recommend.GenreProfile, dominant, genres []string) float64 {
	var best float64
	for _, g := range genres {
		for _, d := range dominant {
			if g == d && profile[g] > best {
				best = profile[g]
			}
		}
	}
	return clamp01(best / 100)
}
