// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package algorithms

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/cinematch/internal/recommend"
)

// aggregate merges every appearance of one content item across peers.
// All fields are running totals so the merge is order independent.
type aggregate struct {
	key    recommend.ContentKey
	title  string
	genres []string

	contributors []peer
	simSum       float64
	ratingSum    float64
}

// count is the co-occurrence: distinct peers that surfaced the item.
func (a *aggregate) count() int { return len(a.contributors) }

func (a *aggregate) avgSimilarity() float64 {
	if len(a.contributors) == 0 {
		return 0
	}
	return a.simSum / float64(len(a.contributors))
}

func (a *aggregate) avgRating() float64 {
	if len(a.contributors) == 0 {
		return 0
	}
	return a.ratingSum / float64(len(a.contributors))
}

// sources returns up to MaxSourceUsers contributing peers, most similar first.
func (a *aggregate) sources() []int64 {
	ps := make([]peer, len(a.contributors))
	copy(ps, a.contributors)
	sortPeers(ps)
	n := min(len(ps), recommend.MaxSourceUsers)
	ids := make([]int64, n)
	for i := 0; i < n; i++ {
		ids[i] = ps[i].userID
	}
	return ids
}

type aggregator struct {
	byKey map[recommend.ContentKey]*aggregate
}

func newAggregator() *aggregator {
	return &aggregator{byKey: make(map[recommend.ContentKey]*aggregate)}
}

// add merges one peer item. A peer contributes at most once per item.
//
//nolint:gocritic // hugeParam: item copied from a slice range
func (ag *aggregator) add(item recommend.WatchListItem, p peer) {
	a, ok := ag.byKey[item.Key]
	if !ok {
		a = &aggregate{key: item.Key, title: item.Title, genres: item.Genres}
		ag.byKey[item.Key] = a
	}
	for _, c := range a.contributors {
		if c.userID == p.userID {
			return
		}
	}
	if a.title == "" {
		a.title = item.Title
	}
	if len(a.genres) == 0 {
		a.genres = item.Genres
	}
	a.contributors = append(a.contributors, p)
	a.simSum += p.similarity
	a.ratingSum += RatingSignal(item)
}

// addAll merges items using each item's owner as the contributing peer.
func (ag *aggregator) addAll(items []recommend.WatchListItem, peers []peer) {
	byID := peerIndex(peers)
	for i := range items {
		p, ok := byID[items[i].UserID]
		if !ok {
			continue
		}
		ag.add(items[i], p)
	}
}

func peerIndex(peers []peer) map[int64]peer {
	byID := make(map[int64]peer, len(peers))
	for _, p := range peers {
		byID[p.userID] = p
	}
	return byID
}

// list returns the aggregates in key order.
func (ag *aggregator) list() []*aggregate {
	out := make([]*aggregate, 0, len(ag.byKey))
	for _, a := range ag.byKey {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].key.String() < out[j].key.String()
	})
	return out
}

// candidate is an aggregated item with its raw score.
type candidate struct {
	key     recommend.ContentKey
	title   string
	raw     float64
	sources []int64
}

func newCandidate(a *aggregate, raw float64) candidate {
	return candidate{key: a.key, title: a.title, raw: raw, sources: a.sources()}
}

// exclusions is the set of keys an algorithm must not return.
type exclusions struct {
	keys    map[recommend.ContentKey]struct{}
	session *recommend.Session
	filters recommend.Filters
}

func (e *exclusions) excluded(key recommend.ContentKey) bool {
	if !e.filters.Allows(key.MediaType) {
		return true
	}
	if _, ok := e.keys[key]; ok {
		return true
	}
	return e.session != nil && e.session.WasRecommended(key)
}

// loadExclusions gathers the user's own list entries and the keys shown
// within the cooldown window. Heavy users only read a sample of their list.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (b *BaseAlgorithm) loadExclusions(ctx context.Context, userID int64, req recommend.Request, session *recommend.Session) (*exclusions, error) {
	own, err := b.deps.History.FindItems(ctx, userID, recommend.ItemQuery{
		Statuses: recommend.AllStatuses,
		Limit:    session.SampleSize(),
		OrderBy:  recommend.OrderRecent,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: own items: %w", b.name, err)
	}

	ex := &exclusions{
		keys:    make(map[recommend.ContentKey]struct{}, len(own)),
		session: session,
		filters: req.Filters,
	}
	for i := range own {
		ex.keys[own[i].Key] = struct{}{}
	}

	if b.deps.Logs != nil && b.cfg.CooldownWindow > 0 {
		shown, err := b.deps.Logs.ShownSince(ctx, userID, CooldownStart(req.At(), b.cfg.CooldownWindow))
		if err != nil {
			return nil, fmt.Errorf("%s: cooldown log: %w", b.name, err)
		}
		for _, k := range shown {
			ex.keys[k] = struct{}{}
		}
	}
	return ex, nil
}

// CooldownStart is the inclusive lower bound of the cooldown window.
func CooldownStart(now time.Time, window time.Duration) time.Time {
	return now.Add(-window)
}

// finish filters, normalizes and truncates a scored pool.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (b *BaseAlgorithm) finish(ctx context.Context, userID int64, req recommend.Request, session *recommend.Session, pool []candidate) (*recommend.Result, error) {
	if len(pool) == 0 {
		return recommend.EmptyResult(), nil
	}

	ex, err := b.loadExclusions(ctx, userID, req, session)
	if err != nil {
		return nil, err
	}

	kept := make([]candidate, 0, len(pool))
	for _, c := range pool {
		if !ex.excluded(c.key) {
			kept = append(kept, c)
		}
	}

	result := &recommend.Result{
		Recommendations: []recommend.Item{},
		Metrics: recommend.Metrics{
			CandidatesPoolSize: len(pool),
			AfterFilters:       len(kept),
		},
	}
	if len(kept) == 0 {
		return result, nil
	}

	raw := make([]float64, len(kept))
	for i, c := range kept {
		raw[i] = c.raw
	}
	scores := Normalize(raw)

	items := make([]recommend.Item, len(kept))
	for i, c := range kept {
		items[i] = recommend.Item{
			Key:           c.key,
			Title:         c.title,
			Score:         scores[i],
			Algorithm:     b.name,
			SourceUserIDs: c.sources,
		}
	}
	items = recommend.RankAndTruncate(items, b.cfg.Limit)

	var sum float64
	for _, item := range items {
		sum += item.Score
	}
	result.Recommendations = items
	result.Metrics.AvgScore = sum / float64(len(items))
	return result, nil
}

// Normalize rescales raw scores linearly to [0, 100] using the pool's own
// minimum and maximum. A single-item pool, or a pool of equal scores,
// normalizes to 100.
func Normalize(raw []float64) []float64 {
	out := make([]float64, len(raw))
	if len(raw) == 0 {
		return out
	}
	lo, hi := raw[0], raw[0]
	for _, v := range raw[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	for i, v := range raw {
		if span == 0 {
			out[i] = 100
			continue
		}
		out[i] = (v - lo) / span * 100
	}
	return out
}

// RatingSignal normalizes an item's rating to [0, 1]: the user rating over
// 10, or the weaker external popularity over 20 when unrated.
//
//nolint:gocritic // hugeParam: item is read-only
func RatingSignal(item recommend.WatchListItem) float64 {
	if item.Rating != nil {
		return clamp01(float64(*item.Rating) / 10)
	}
	return clamp01(item.Popularity / 20)
}

// Cooccurrence is the fraction of peers that surfaced the item.
func Cooccurrence(count, peers int) float64 {
	if peers == 0 {
		return 0
	}
	return clamp01(float64(count) / float64(peers))
}

// GenreMatch averages the user's genre affinity (0-100) over the item's
// genres, scaled to [0, 1]. A nil profile or genre-less item scores 0.
func GenreMatch(profile recommend.GenreProfile, genres []string) float64 {
	if profile == nil || len(genres) == 0 {
		return 0
	}
	var sum float64
	for _, g := range genres {
		sum += profile[g]
	}
	return clamp01(sum / float64(len(genres)) / 100)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// sortPeers orders peers by similarity descending, then user ID.
func sortPeers(ps []peer) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].similarity != ps[j].similarity {
			return ps[i].similarity > ps[j].similarity
		}
		return ps[i].userID < ps[j].userID
	})
}
