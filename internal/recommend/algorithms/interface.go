// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package algorithms implements the scoring algorithms run by the ensemble.
//
// Each algorithm implements the recommend.Algorithm interface and follows
// the same pipeline:
//
//  1. Eligibility: the user must have MinUserHistory watched items
//  2. Peers or profile: similar users or the user's own taste profile
//  3. Candidate sourcing: a bounded number of items per peer
//  4. Aggregation: co-occurrence counts and averaged similarity per item
//  5. Raw scoring: weighted sum of components clamped to [0, 1]
//  6. Filtering: own lists, session duplicates, 7-day cooldown
//  7. Normalization to [0, 100] over the filtered pool
//  8. Truncation to the top Limit items
//
// Missing peers or profiles produce an empty result with a zero pool size,
// never a low score.
//
// # Thread Safety
//
// Algorithms hold no mutable state and are safe for concurrent use.
package algorithms

import (
	"context"
	"fmt"

	"github.com/tomtom215/cinematch/internal/recommend"
)

// Algorithm names.
const (
	NameTasteMatch            = "taste_match_v1"
	NameWantOverlap           = "want_overlap_v1"
	NameDropPatterns          = "drop_patterns_v1"
	NameTypeTwins             = "type_twins_v1"
	NamePersonTwins           = "person_twins_v1"
	NamePersonRecommendations = "person_recommendations_v1"
	NameGenreTwins            = "genre_twins_v1"
	NameGenreRecommendations  = "genre_recommendations_v1"
)

// Deps are the collaborators shared by all algorithms.
type Deps struct {
	History    recommend.HistoryStore
	Profiles   recommend.ProfileProvider
	Similarity recommend.SimilarityProvider
	Logs       recommend.LogStore
}

// BaseAlgorithm provides the pipeline steps common to all algorithms.
type BaseAlgorithm struct {
	name string
	cfg  Config
	deps Deps
}

// NewBaseAlgorithm creates a base with the given name and settings.
//
//nolint:gocritic // hugeParam: configuration copied once at construction
func NewBaseAlgorithm(name string, cfg Config, deps Deps) BaseAlgorithm {
	return BaseAlgorithm{name: name, cfg: cfg.withDefaults(), deps: deps}
}

// Name returns the algorithm identifier.
func (b *BaseAlgorithm) Name() string {
	return b.name
}

// MinUserHistory returns the watched-count gate of the algorithm.
func (b *BaseAlgorithm) MinUserHistory() int {
	return b.cfg.MinUserHistory
}

// Settings returns the shared configuration.
func (b *BaseAlgorithm) Settings() Config {
	return b.cfg
}

// eligible reports whether the user has enough watched history.
func (b *BaseAlgorithm) eligible(ctx context.Context, userID int64) (bool, error) {
	n, err := b.deps.History.CountWatched(ctx, userID, recommend.WatchedLike)
	if err != nil {
		return false, fmt.Errorf("%s: count watched: %w", b.name, err)
	}
	return n >= b.cfg.MinUserHistory, nil
}

// peer is a similar user selected by an algorithm with the similarity
// component that algorithm cares about.
type peer struct {
	userID     int64
	similarity float64
}

// similarPeers returns up to MaxPeers similar users whose selected
// component meets the similarity threshold, highest first.
func (b *BaseAlgorithm) similarPeers(ctx context.Context, userID int64, component func(recommend.SimilarUser) float64) ([]peer, error) {
	if b.deps.Similarity == nil {
		return nil, nil
	}
	similar, err := b.deps.Similarity.GetSimilarUsers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: similar users: %w", b.name, err)
	}

	peers := make([]peer, 0, len(similar))
	for _, s := range similar {
		if s.UserID == userID {
			continue
		}
		v := component(s)
		if v <= 0 || v < b.cfg.SimilarityThreshold {
			continue
		}
		peers = append(peers, peer{userID: s.UserID, similarity: clamp01(v)})
	}
	sortPeers(peers)
	if len(peers) > b.cfg.MaxPeers {
		peers = peers[:b.cfg.MaxPeers]
	}
	return peers, nil
}

// peerItems fetches up to ItemsPerPeer items for each peer.
//
//nolint:gocritic // hugeParam: query passed by value
func (b *BaseAlgorithm) peerItems(ctx context.Context, peers []peer, q recommend.ItemQuery) ([]recommend.WatchListItem, error) {
	if len(peers) == 0 {
		return nil, nil
	}
	ids := make([]int64, len(peers))
	for i, p := range peers {
		ids[i] = p.userID
	}
	if q.Limit == 0 {
		q.Limit = b.cfg.ItemsPerPeer
	}
	items, err := b.deps.History.FindItemsForUsers(ctx, ids, q)
	if err != nil {
		return nil, fmt.Errorf("%s: peer items: %w", b.name, err)
	}
	return items, nil
}

// overall selects the overall match of a similarity record.
func overall(s recommend.SimilarUser) float64 { return s.OverallMatch }

// Compile-time interface checks.
var (
	_ recommend.Algorithm = (*TasteMatch)(nil)
	_ recommend.Algorithm = (*WantOverlap)(nil)
	_ recommend.Algorithm = (*DropPatterns)(nil)
	_ recommend.Algorithm = (*TypeTwins)(nil)
	_ recommend.Algorithm = (*PersonTwins)(nil)
	_ recommend.Algorithm = (*PersonRecommendations)(nil)
	_ recommend.Algorithm = (*GenreTwins)(nil)
	_ recommend.Algorithm = (*GenreRecommendations)(nil)
)
