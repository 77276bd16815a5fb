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

// PersonRecommendations recommends titles for users with favorite actors
// or directors (affinity at or above FavoriteThreshold).
//
//	raw = 0.4 * personMatch + 0.4 * rating + 0.2 * userSimilarity
//
// personMatch is a constant relevance signal until item credits are
// available to join against the favorites.
type PersonRecommendations struct {
	BaseAlgorithm
	cfg PersonRecommendationsConfig
}

// NewPersonRecommendations creates person_recommendations_v1.
//
//nolint:gocritic // hugeParam: configuration copied once at construction
func NewPersonRecommendations(deps Deps, cfg PersonRecommendationsConfig) *PersonRecommendations {
	return &PersonRecommendations{
		BaseAlgorithm: NewBaseAlgorithm(NamePersonRecommendations, cfg.Config, deps),
		cfg:           cfg,
	}
}

// Execute implements recommend.Algorithm.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (p *PersonRecommendations) Execute(ctx context.Context, userID int64, req recommend.Request, session *recommend.Session) (*recommend.Result, error) {
	if ok, err := p.eligible(ctx, userID); err != nil || !ok {
		return recommend.EmptyResult(), err
	}
	if p.deps.Profiles == nil {
		return recommend.EmptyResult(), nil
	}

	profile, err := p.deps.Profiles.PersonProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: person profile: %w", p.name, err)
	}
	if profile == nil {
		return recommend.EmptyResult(), nil
	}
	favorites := FavoritePersons(profile, p.cfg.FavoriteThreshold)
	if len(favorites) == 0 {
		return recommend.EmptyResult(), nil
	}

	peers, err := p.similarPeers(ctx, userID, overall)
	if err != nil || len(peers) == 0 {
		return recommend.EmptyResult(), err
	}

	items, err := p.peerItems(ctx, peers, recommend.ItemQuery{
		Statuses: recommend.WatchedLike,
		OrderBy:  recommend.OrderRating,
	})
	if err != nil {
		return nil, err
	}

	ag := newAggregator()
	ag.addAll(items, peers)

	aggs := ag.list()
	pool := make([]candidate, 0, len(aggs))
	for _, a := range aggs {
		raw := p.cfg.PersonMatchWeight*personMatchScore(a, favorites) +
			p.cfg.RatingWeight*clamp01(a.avgRating()) +
			p.cfg.UserSimilarityWeight*clamp01(a.avgSimilarity())
		pool = append(pool, newCandidate(a, raw))
	}

	return p.finish(ctx, userID, req, session, pool)
}

// personMatchScore always reports full relevance. Items carry no credits,
// so there is nothing to match the favorites against yet.
func personMatchScore(_ *aggregate, _ []string) float64 {
	return 1
}

// FavoritePersons returns the actors and directors whose affinity is at
// least threshold, sorted by name.
func FavoritePersons(profile *recommend.PersonProfile, threshold float64) []string {
	if profile == nil {
		return nil
	}
	seen := make(map[string]struct{})
	for _, m := range []map[string]float64{profile.Actors, profile.Directors} {
		for name, score := range m {
			if score >= threshold {
				seen[name] = struct{}{}
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
