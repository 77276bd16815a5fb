// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package algorithms

import (
	"context"
	"fmt"

	"github.com/tomtom215/cinematch/internal/recommend"
)

// GenreTwins recommends from users whose genre profile vectors point the
// same way (cosine similarity at or above the threshold).
//
//	raw = 0.5 * avgGenreSimilarity + 0.3 * rating + 0.2 * cooccurrence
type GenreTwins struct {
	BaseAlgorithm
	cfg GenreTwinsConfig
}

// NewGenreTwins creates genre_twins_v1.
//
//nolint:gocritic // hugeParam: configuration copied once at construction
func NewGenreTwins(deps Deps, cfg GenreTwinsConfig) *GenreTwins {
	return &GenreTwins{
		BaseAlgorithm: NewBaseAlgorithm(NameGenreTwins, cfg.Config, deps),
		cfg:           cfg,
	}
}

// Execute implements recommend.Algorithm.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (g *GenreTwins) Execute(ctx context.Context, userID int64, req recommend.Request, session *recommend.Session) (*recommend.Result, error) {
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

	peers, err := g.similarPeers(ctx, userID, func(s recommend.SimilarUser) float64 { return s.Genre })
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
	ag.addAll(items, peers)

	aggs := ag.list()
	pool := make([]candidate, 0, len(aggs))
	for _, a := range aggs {
		raw := g.cfg.GenreSimilarityWeight*clamp01(a.avgSimilarity()) +
			g.cfg.RatingWeight*clamp01(a.avgRating()) +
			g.cfg.CooccurrenceWeight*Cooccurrence(a.count(), len(peers))
		pool = append(pool, newCandidate(a, raw))
	}

	return g.finish(ctx, userID, req, session, pool)
}
