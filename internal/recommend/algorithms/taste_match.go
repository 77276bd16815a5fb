// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package algorithms

import (
	"context"

	"github.com/tomtom215/cinematch/internal/recommend"
)

// TasteMatch is the baseline collaborative filter: it recommends the
// top-rated watched items of users whose overall taste match is high.
//
//	raw = 0.5 * avgSimilarity + 0.3 * rating + 0.2 * cooccurrence
type TasteMatch struct {
	BaseAlgorithm
	cfg TasteMatchConfig
}

// NewTasteMatch creates taste_match_v1.
//
//nolint:gocritic // hugeParam: configuration copied once at construction
func NewTasteMatch(deps Deps, cfg TasteMatchConfig) *TasteMatch {
	return &TasteMatch{
		BaseAlgorithm: NewBaseAlgorithm(NameTasteMatch, cfg.Config, deps),
		cfg:           cfg,
	}
}

// Execute implements recommend.Algorithm.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (t *TasteMatch) Execute(ctx context.Context, userID int64, req recommend.Request, session *recommend.Session) (*recommend.Result, error) {
	if ok, err := t.eligible(ctx, userID); err != nil || !ok {
		return recommend.EmptyResult(), err
	}

	peers, err := t.similarPeers(ctx, userID, overall)
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
		raw := t.cfg.SimilarityWeight*clamp01(a.avgSimilarity()) +
			t.cfg.RatingWeight*clamp01(a.avgRating()) +
			t.cfg.CooccurrenceWeight*Cooccurrence(a.count(), len(peers))
		pool = append(pool, newCandidate(a, raw))
	}

	return t.finish(ctx, userID, req, session, pool)
}
