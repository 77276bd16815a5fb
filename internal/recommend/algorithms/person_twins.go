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

// PersonTwins recommends from users who favor the same actors and
// directors. Person similarity is the mean of the actor and director
// weighted Jaccard overlaps.
//
//	raw = 0.5 * avgPersonSimilarity + 0.3 * rating + 0.2 * cooccurrence
type PersonTwins struct {
	BaseAlgorithm
	cfg PersonTwinsConfig
}

// NewPersonTwins creates person_twins_v1.
//
//nolint:gocritic // hugeParam: configuration copied once at construction
func NewPersonTwins(deps Deps, cfg PersonTwinsConfig) *PersonTwins {
	return &PersonTwins{
		BaseAlgorithm: NewBaseAlgorithm(NamePersonTwins, cfg.Config, deps),
		cfg:           cfg,
	}
}

// Execute implements recommend.Algorithm.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (p *PersonTwins) Execute(ctx context.Context, userID int64, req recommend.Request, session *recommend.Session) (*recommend.Result, error) {
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

	peers, err := p.similarPeers(ctx, userID, func(s recommend.SimilarUser) float64 { return s.Person })
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
		raw := p.cfg.PersonSimilarityWeight*clamp01(a.avgSimilarity()) +
			p.cfg.RatingWeight*clamp01(a.avgRating()) +
			p.cfg.CooccurrenceWeight*Cooccurrence(a.count(), len(peers))
		pool = append(pool, newCandidate(a, raw))
	}

	return p.finish(ctx, userID, req, session, pool)
}
