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

// WantOverlap recommends items similar users recently added to their want
// lists. Frequency across peers is a strong signal of upcoming interest.
//
//	raw = 0.4 * avgSimilarity + 0.4 * wantFrequency + 0.2 * genreMatch
type WantOverlap struct {
	BaseAlgorithm
	cfg WantOverlapConfig
}

// NewWantOverlap creates want_overlap_v1.
//
//nolint:gocritic // hugeParam: configuration copied once at construction
func NewWantOverlap(deps Deps, cfg WantOverlapConfig) *WantOverlap {
	return &WantOverlap{
		BaseAlgorithm: NewBaseAlgorithm(NameWantOverlap, cfg.Config, deps),
		cfg:           cfg,
	}
}

// Execute implements recommend.Algorithm.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (w *WantOverlap) Execute(ctx context.Context, userID int64, req recommend.Request, session *recommend.Session) (*recommend.Result, error) {
	if ok, err := w.eligible(ctx, userID); err != nil || !ok {
		return recommend.EmptyResult(), err
	}

	peers, err := w.similarPeers(ctx, userID, overall)
	if err != nil || len(peers) == 0 {
		return recommend.EmptyResult(), err
	}

	items, err := w.peerItems(ctx, peers, recommend.ItemQuery{
		Statuses:   recommend.WantOnly,
		AddedAfter: req.At().Add(-w.cfg.RecencyWindow),
		OrderBy:    recommend.OrderRecent,
	})
	if err != nil {
		return nil, err
	}

	// Genre match is a secondary signal here; without a profile it is 0.
	var profile recommend.GenreProfile
	if w.deps.Profiles != nil {
		profile, err = w.deps.Profiles.GenreProfile(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("%s: genre profile: %w", w.name, err)
		}
	}

	ag := newAggregator()
	ag.addAll(items, peers)

	aggs := ag.list()
	pool := make([]candidate, 0, len(aggs))
	for _, a := range aggs {
		raw := w.cfg.SimilarityWeight*clamp01(a.avgSimilarity()) +
			w.cfg.WantFrequencyWeight*Cooccurrence(a.count(), len(peers)) +
			w.cfg.GenreMatchWeight*GenreMatch(profile, a.genres)
		pool = append(pool, newCandidate(a, raw))
	}

	return w.finish(ctx, userID, req, session, pool)
}
