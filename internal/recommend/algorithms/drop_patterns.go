// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package algorithms

import (
	"context"

	"github.com/tomtom215/cinematch/internal/recommend"
)

// DropPatterns scores peers' watched items like TasteMatch, then discounts
// items that similar users dropped:
//
//	penalty  = min(dropCount / totalPeers * 0.7, 0.7)
//	adjusted = base * (1 - penalty)
//
// The cap means an item is never eliminated by drops alone.
type DropPatterns struct {
	BaseAlgorithm
	cfg DropPatternsConfig
}

// NewDropPatterns creates drop_patterns_v1.
//
//nolint:gocritic // hugeParam: configuration copied once at construction
func NewDropPatterns(deps Deps, cfg DropPatternsConfig) *DropPatterns {
	return &DropPatterns{
		BaseAlgorithm: NewBaseAlgorithm(NameDropPatterns, cfg.Config, deps),
		cfg:           cfg,
	}
}

// Execute implements recommend.Algorithm.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (d *DropPatterns) Execute(ctx context.Context, userID int64, req recommend.Request, session *recommend.Session) (*recommend.Result, error) {
	if ok, err := d.eligible(ctx, userID); err != nil || !ok {
		return recommend.EmptyResult(), err
	}

	peers, err := d.similarPeers(ctx, userID, overall)
	if err != nil || len(peers) == 0 {
		return recommend.EmptyResult(), err
	}

	watched, err := d.peerItems(ctx, peers, recommend.ItemQuery{
		Statuses: recommend.WatchedLike,
		OrderBy:  recommend.OrderRating,
	})
	if err != nil {
		return nil, err
	}

	// Drops are counted over the peers' full dropped lists.
	dropped, err := d.peerItems(ctx, peers, recommend.ItemQuery{
		Statuses: recommend.DroppedOnly,
		Limit:    -1,
	})
	if err != nil {
		return nil, err
	}
	drops := make(map[recommend.ContentKey]map[int64]struct{})
	for i := range dropped {
		k := dropped[i].Key
		if drops[k] == nil {
			drops[k] = make(map[int64]struct{})
		}
		drops[k][dropped[i].UserID] = struct{}{}
	}

	ag := newAggregator()
	ag.addAll(watched, peers)

	aggs := ag.list()
	pool := make([]candidate, 0, len(aggs))
	for _, a := range aggs {
		base := d.cfg.SimilarityWeight*clamp01(a.avgSimilarity()) +
			d.cfg.RatingWeight*clamp01(a.avgRating()) +
			d.cfg.CooccurrenceWeight*Cooccurrence(a.count(), len(peers))
		penalty := DropPenalty(len(drops[a.key]), len(peers), d.cfg.DropPenaltyScale, d.cfg.MaxDropPenalty)
		pool = append(pool, newCandidate(a, base*(1-penalty)))
	}

	return d.finish(ctx, userID, req, session, pool)
}

// DropPenalty returns min(dropCount/totalPeers*scale, maxPenalty).
func DropPenalty(dropCount, totalPeers int, scale, maxPenalty float64) float64 {
	if totalPeers <= 0 || dropCount <= 0 {
		return 0
	}
	p := float64(dropCount) / float64(totalPeers) * scale
	if p > maxPenalty {
		p = maxPenalty
	}
	return clamp01(p)
}
