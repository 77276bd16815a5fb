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

// TypeTwins matches users on their content-type mix (movie, tv, anime,
// cartoon percentages) rather than taste.
//
//	raw = 0.5 * avgTypeSimilarity + 0.3 * peerRating + 0.2 * dominantTypeMatch
type TypeTwins struct {
	BaseAlgorithm
	cfg TypeTwinsConfig
}

// NewTypeTwins creates type_twins_v1.
//
//nolint:gocritic // hugeParam: configuration copied once at construction
func NewTypeTwins(deps Deps, cfg TypeTwinsConfig) *TypeTwins {
	return &TypeTwins{
		BaseAlgorithm: NewBaseAlgorithm(NameTypeTwins, cfg.Config, deps),
		cfg:           cfg,
	}
}

// Execute implements recommend.Algorithm.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (t *TypeTwins) Execute(ctx context.Context, userID int64, req recommend.Request, session *recommend.Session) (*recommend.Result, error) {
	if ok, err := t.eligible(ctx, userID); err != nil || !ok {
		return recommend.EmptyResult(), err
	}
	if t.deps.Profiles == nil {
		return recommend.EmptyResult(), nil
	}

	profile, err := t.deps.Profiles.TypeProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: type profile: %w", t.name, err)
	}
	if profile == nil {
		return recommend.EmptyResult(), nil
	}
	dominant := profile.Dominant()

	peers, err := t.similarPeers(ctx, userID, func(s recommend.SimilarUser) float64 { return s.Type })
	if err != nil || len(peers) == 0 {
		return recommend.EmptyResult(), err
	}

	items, err := t.peerItems(ctx, peers, recommend.ItemQuery{
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
		var dominantMatch float64
		if a.key.MediaType == dominant {
			dominantMatch = 1
		}
		raw := t.cfg.TypeSimilarityWeight*clamp01(a.avgSimilarity()) +
			t.cfg.RatingWeight*clamp01(a.avgRating()) +
			t.cfg.DominantTypeWeight*dominantMatch
		pool = append(pool, newCandidate(a, raw))
	}

	return t.finish(ctx, userID, req, session, pool)
}
