// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package recommendtest provides in-memory implementations of the
// recommendation store contracts for tests.
package recommendtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/cinematch/internal/recommend"
)

// Store is an in-memory HistoryStore, ProfileProvider, SimilarityProvider
// and LogStore. Set Err to make every call fail.
type Store struct {
	mu sync.RWMutex

	items   map[int64][]recommend.WatchListItem
	genres  map[int64]recommend.GenreProfile
	persons map[int64]*recommend.PersonProfile
	types   map[int64]recommend.TypeProfile
	similar map[int64][]recommend.SimilarUser
	logs    []recommend.LogEntry
	events  []recommend.Event

	// Err is returned by every method when set.
	Err error

	// Delay is slept (honoring ctx) before every call when set.
	Delay time.Duration

	nextFillerID int64
}

var (
	_ recommend.HistoryStore       = (*Store)(nil)
	_ recommend.ProfileProvider    = (*Store)(nil)
	_ recommend.SimilarityProvider = (*Store)(nil)
	_ recommend.LogStore           = (*Store)(nil)
)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		items:        make(map[int64][]recommend.WatchListItem),
		genres:       make(map[int64]recommend.GenreProfile),
		persons:      make(map[int64]*recommend.PersonProfile),
		types:        make(map[int64]recommend.TypeProfile),
		similar:      make(map[int64][]recommend.SimilarUser),
		nextFillerID: 9_000_000,
	}
}

// Rating returns a pointer to r for WatchListItem literals.
func Rating(r int) *int { return &r }

// Key builds a movie content key.
func Key(id int64) recommend.ContentKey {
	return recommend.ContentKey{ExternalID: id, MediaType: recommend.MediaMovie}
}

// AddItems appends watch-list entries. AddedAt defaults to now.
func (s *Store) AddItems(items ...recommend.WatchListItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		if it.AddedAt.IsZero() {
			it.AddedAt = time.Now()
		}
		s.items[it.UserID] = append(s.items[it.UserID], it)
	}
}

// AddWatched gives userID n filler watched movies that no other user has.
func (s *Store) AddWatched(userID int64, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.nextFillerID++
		s.items[userID] = append(s.items[userID], recommend.WatchListItem{
			UserID:  userID,
			Key:     Key(s.nextFillerID),
			Title:   "filler",
			Status:  recommend.StatusWatched,
			AddedAt: time.Now().Add(-time.Duration(i) * time.Hour),
		})
	}
}

// SetGenreProfile installs a genre profile.
func (s *Store) SetGenreProfile(userID int64, p recommend.GenreProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.genres[userID] = p
}

// SetPersonProfile installs a person profile.
func (s *Store) SetPersonProfile(userID int64, p *recommend.PersonProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persons[userID] = p
}

// SetTypeProfile installs a type profile.
func (s *Store) SetTypeProfile(userID int64, p recommend.TypeProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types[userID] = p
}

// SetSimilar installs the similar users of userID.
func (s *Store) SetSimilar(userID int64, peers ...recommend.SimilarUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.similar[userID] = peers
}

// Logs returns a copy of the log entries.
func (s *Store) Logs() []recommend.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]recommend.LogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

// Events returns a copy of the events.
func (s *Store) Events() []recommend.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]recommend.Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *Store) wait(ctx context.Context) error {
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.Err
}

// CountWatched implements recommend.HistoryStore.
func (s *Store) CountWatched(ctx context.Context, userID int64, statuses recommend.StatusSet) (int, error) {
	if err := s.wait(ctx); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, it := range s.items[userID] {
		if statuses.Contains(it.Status) {
			n++
		}
	}
	return n, nil
}

// FindItems implements recommend.HistoryStore.
//
//nolint:gocritic // hugeParam: query passed by value per interface
func (s *Store) FindItems(ctx context.Context, userID int64, q recommend.ItemQuery) ([]recommend.WatchListItem, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return selectItems(s.items[userID], q), nil
}

// FindItemsForUsers implements recommend.HistoryStore.
//
//nolint:gocritic // hugeParam: query passed by value per interface
func (s *Store) FindItemsForUsers(ctx context.Context, userIDs []int64, q recommend.ItemQuery) ([]recommend.WatchListItem, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []recommend.WatchListItem
	for _, id := range userIDs {
		out = append(out, selectItems(s.items[id], q)...)
	}
	return out, nil
}

// ActiveUsers implements recommend.HistoryStore.
func (s *Store) ActiveUsers(ctx context.Context, exclude int64, limit int) ([]int64, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[int64]time.Time)
	for uid, items := range s.items {
		if uid == exclude {
			continue
		}
		for _, it := range items {
			if it.AddedAt.After(latest[uid]) {
				latest[uid] = it.AddedAt
			}
		}
	}
	ids := make([]int64, 0, len(latest))
	for uid := range latest {
		ids = append(ids, uid)
	}
	sort.Slice(ids, func(i, j int) bool {
		if !latest[ids[i]].Equal(latest[ids[j]]) {
			return latest[ids[i]].After(latest[ids[j]])
		}
		return ids[i] < ids[j]
	})
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

//nolint:gocritic // hugeParam: query passed by value
func selectItems(items []recommend.WatchListItem, q recommend.ItemQuery) []recommend.WatchListItem {
	out := make([]recommend.WatchListItem, 0, len(items))
	for _, it := range items {
		if len(q.Statuses) > 0 && !q.Statuses.Contains(it.Status) {
			continue
		}
		if !q.AddedAfter.IsZero() && !it.AddedAt.After(q.AddedAfter) {
			continue
		}
		out = append(out, it)
	}
	switch q.OrderBy {
	case recommend.OrderRecent:
		sort.SliceStable(out, func(i, j int) bool { return out[i].AddedAt.After(out[j].AddedAt) })
	default:
		sort.SliceStable(out, func(i, j int) bool {
			ri, rj := ratingOf(out[i]), ratingOf(out[j])
			if ri != rj {
				return ri > rj
			}
			return out[i].Popularity > out[j].Popularity
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

//nolint:gocritic // hugeParam: item is read-only
func ratingOf(it recommend.WatchListItem) int {
	if it.Rating == nil {
		return 0
	}
	return *it.Rating
}

// GenreProfile implements recommend.ProfileProvider.
func (s *Store) GenreProfile(ctx context.Context, userID int64) (recommend.GenreProfile, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.genres[userID], nil
}

// PersonProfile implements recommend.ProfileProvider.
func (s *Store) PersonProfile(ctx context.Context, userID int64) (*recommend.PersonProfile, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persons[userID], nil
}

// TypeProfile implements recommend.ProfileProvider.
func (s *Store) TypeProfile(ctx context.Context, userID int64) (recommend.TypeProfile, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.types[userID], nil
}

// GetSimilarUsers implements recommend.SimilarityProvider.
func (s *Store) GetSimilarUsers(ctx context.Context, userID int64) ([]recommend.SimilarUser, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]recommend.SimilarUser, len(s.similar[userID]))
	copy(out, s.similar[userID])
	return out, nil
}

// InsertLogEntries implements recommend.LogStore.
func (s *Store) InsertLogEntries(ctx context.Context, entries []recommend.LogEntry) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entries...)
	return nil
}

// ShownSince implements recommend.LogStore.
func (s *Store) ShownSince(ctx context.Context, userID int64, since time.Time) ([]recommend.ContentKey, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []recommend.ContentKey
	for _, e := range s.logs {
		if e.UserID == userID && !e.ShownAt.Before(since) {
			keys = append(keys, e.Key)
		}
	}
	return keys, nil
}

// GetLogEntry implements recommend.LogStore.
func (s *Store) GetLogEntry(ctx context.Context, id string) (*recommend.LogEntry, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.logs {
		if s.logs[i].ID == id {
			e := s.logs[i]
			return &e, nil
		}
	}
	return nil, recommend.ErrNotFound
}

// UpdateLogAction implements recommend.LogStore.
func (s *Store) UpdateLogAction(ctx context.Context, id string, action recommend.Action) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.logs {
		if s.logs[i].ID == id {
			s.logs[i].Action = action
			return nil
		}
	}
	return recommend.ErrNotFound
}

// InsertEvent implements recommend.LogStore.
//
//nolint:gocritic // hugeParam: event passed by value per interface
func (s *Store) InsertEvent(ctx context.Context, event recommend.Event) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// AggregateOutcomes implements recommend.LogStore.
//
//nolint:gocritic // hugeParam: query passed by value per interface
func (s *Store) AggregateOutcomes(ctx context.Context, q recommend.OutcomeQuery) ([]recommend.AlgorithmOutcomes, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	byAlg := make(map[string]*recommend.AlgorithmOutcomes)
	logAlg := make(map[string]string)
	for _, e := range s.logs {
		if q.UserID != 0 && e.UserID != q.UserID {
			continue
		}
		if q.Algorithm != "" && e.Algorithm != q.Algorithm {
			continue
		}
		if q.Range != nil {
			if !q.Range.From.IsZero() && e.ShownAt.Before(q.Range.From) {
				continue
			}
			if !q.Range.To.IsZero() && e.ShownAt.After(q.Range.To) {
				continue
			}
		}
		o, ok := byAlg[e.Algorithm]
		if !ok {
			o = &recommend.AlgorithmOutcomes{Algorithm: e.Algorithm}
			byAlg[e.Algorithm] = o
		}
		o.Shown++
		logAlg[e.ID] = e.Algorithm
	}
	for _, ev := range s.events {
		alg, ok := logAlg[ev.LogID]
		if !ok {
			continue
		}
		o := byAlg[alg]
		switch ev.Type {
		case recommend.EventAdded:
			o.Added++
		case recommend.EventRated:
			o.Rated++
		case recommend.EventIgnored:
			o.Ignored++
		case recommend.EventDropped:
			o.Dropped++
		case recommend.EventHidden:
			o.Hidden++
		}
	}

	out := make([]recommend.AlgorithmOutcomes, 0, len(byAlg))
	for _, o := range byAlg {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Algorithm < out[j].Algorithm })
	return out, nil
}

// ColdStart is a static recommend.ColdStartProvider.
type ColdStart struct {
	TrendingItems []recommend.ContentItem
	PopularItems  []recommend.ContentItem
	TrendingErr   error
	PopularErr    error
}

// Trending implements recommend.ColdStartProvider.
func (c *ColdStart) Trending(_ context.Context, _ string) ([]recommend.ContentItem, error) {
	return c.TrendingItems, c.TrendingErr
}

// Popular implements recommend.ColdStartProvider.
func (c *ColdStart) Popular(_ context.Context, _ int) ([]recommend.ContentItem, error) {
	return c.PopularItems, c.PopularErr
}
