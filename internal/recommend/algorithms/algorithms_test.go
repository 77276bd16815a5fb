// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package algorithms_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/cinematch/internal/recommend"
	"github.com/tomtom215/cinematch/internal/recommend/algorithms"
	"github.com/tomtom215/cinematch/internal/recommend/recommendtest"
)

const (
	target int64 = 1
	peerA  int64 = 2
	peerB  int64 = 3
)

func deps(store *recommendtest.Store) algorithms.Deps {
	return algorithms.Deps{History: store, Profiles: store, Similarity: store, Logs: store}
}

func item(userID, id int64, status recommend.WatchStatus, rating int, genres ...string) recommend.WatchListItem {
	it := recommend.WatchListItem{
		UserID:  userID,
		Key:     recommendtest.Key(id),
		Title:   "title",
		Status:  status,
		Genres:  genres,
		AddedAt: time.Now().Add(-24 * time.Hour),
	}
	if rating > 0 {
		it.Rating = recommendtest.Rating(rating)
	}
	return it
}

func execute(t *testing.T, alg recommend.Algorithm, session *recommend.Session, req recommend.Request) *recommend.Result {
	t.Helper()
	if session == nil {
		session = recommend.NewSession(time.Now())
	}
	res, err := alg.Execute(context.Background(), target, req, session)
	if err != nil {
		t.Fatalf("%s Execute() error = %v", alg.Name(), err)
	}
	if res == nil {
		t.Fatalf("%s Execute() returned nil result", alg.Name())
	}
	return res
}

func find(res *recommend.Result, id int64) (recommend.Item, bool) {
	for _, it := range res.Recommendations {
		if it.Key == recommendtest.Key(id) {
			return it, true
		}
	}
	return recommend.Item{}, false
}

func assertEmpty(t *testing.T, res *recommend.Result) {
	t.Helper()
	if res.Recommendations == nil || len(res.Recommendations) != 0 {
		t.Errorf("Recommendations = %#v, want empty non-nil slice", res.Recommendations)
	}
	if res.Metrics != (recommend.Metrics{}) {
		t.Errorf("Metrics = %+v, want zero", res.Metrics)
	}
}

// tasteFixture is the canonical scenario: 20 watched items, one peer at
// 0.9 overall match who rated movie 100 at 9/10.
func tasteFixture() *recommendtest.Store {
	store := recommendtest.NewStore()
	store.AddWatched(target, 20)
	store.SetSimilar(target, recommend.SimilarUser{UserID: peerA, OverallMatch: 0.9})
	store.AddItems(item(peerA, 100, recommend.StatusWatched, 9))
	return store
}

func TestTasteMatch_SinglePeerScenario(t *testing.T) {
	t.Parallel()

	store := tasteFixture()
	alg := algorithms.NewTasteMatch(deps(store), algorithms.DefaultTasteMatchConfig())
	res := execute(t, alg, nil, recommend.Request{})

	got, ok := find(res, 100)
	if !ok {
		t.Fatalf("movie 100 missing from %+v", res.Recommendations)
	}
	if got.Score != 100 {
		t.Errorf("Score = %v, want 100", got.Score)
	}
	if got.Algorithm != algorithms.NameTasteMatch {
		t.Errorf("Algorithm = %q, want %q", got.Algorithm, algorithms.NameTasteMatch)
	}
	if len(got.SourceUserIDs) != 1 || got.SourceUserIDs[0] != peerA {
		t.Errorf("SourceUserIDs = %v, want [%d]", got.SourceUserIDs, peerA)
	}
	if res.Metrics.CandidatesPoolSize < 1 {
		t.Errorf("CandidatesPoolSize = %d, want >= 1", res.Metrics.CandidatesPoolSize)
	}
	if res.Metrics.AvgScore != 100 {
		t.Errorf("AvgScore = %v, want 100", res.Metrics.AvgScore)
	}
}

func TestTasteMatch_BelowThresholdIsExactlyEmpty(t *testing.T) {
	t.Parallel()

	store := recommendtest.NewStore()
	store.AddWatched(target, 5)
	store.SetSimilar(target, recommend.SimilarUser{UserID: peerA, OverallMatch: 0.9})
	store.AddItems(item(peerA, 100, recommend.StatusWatched, 9))

	alg := algorithms.NewTasteMatch(deps(store), algorithms.DefaultTasteMatchConfig())
	res := execute(t, alg, nil, recommend.Request{})

	assertEmpty(t, res)
}

// spyStore counts the peer and profile lookups an algorithm makes.
type spyStore struct {
	*recommendtest.Store
	lookups atomic.Int32
}

func (s *spyStore) GetSimilarUsers(ctx context.Context, userID int64) ([]recommend.SimilarUser, error) {
	s.lookups.Add(1)
	return s.Store.GetSimilarUsers(ctx, userID)
}

func (s *spyStore) GenreProfile(ctx context.Context, userID int64) (recommend.GenreProfile, error) {
	s.lookups.Add(1)
	return s.Store.GenreProfile(ctx, userID)
}

func (s *spyStore) PersonProfile(ctx context.Context, userID int64) (*recommend.PersonProfile, error) {
	s.lookups.Add(1)
	return s.Store.PersonProfile(ctx, userID)
}

func (s *spyStore) TypeProfile(ctx context.Context, userID int64) (recommend.TypeProfile, error) {
	s.lookups.Add(1)
	return s.Store.TypeProfile(ctx, userID)
}

func TestAlgorithms_ColdStartGate(t *testing.T) {
	t.Parallel()

	for _, name := range algorithms.Names() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			base, err := algorithms.New(name, algorithms.Deps{}, algorithms.Overrides{})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			minHistory := base.MinUserHistory()

			for _, tc := range []struct {
				watched    int
				wantLookup bool
			}{
				{watched: minHistory - 1, wantLookup: false},
				{watched: minHistory, wantLookup: true},
			} {
				spy := &spyStore{Store: recommendtest.NewStore()}
				spy.AddWatched(target, tc.watched)
				d := algorithms.Deps{History: spy, Profiles: spy, Similarity: spy, Logs: spy}
				alg, err := algorithms.New(name, d, algorithms.Overrides{})
				if err != nil {
					t.Fatalf("New() error = %v", err)
				}

				res := execute(t, alg, nil, recommend.Request{})
				if !tc.wantLookup {
					assertEmpty(t, res)
				}
				if got := spy.lookups.Load() > 0; got != tc.wantLookup {
					t.Errorf("watched=%d: looked up peers/profile = %v, want %v", tc.watched, got, tc.wantLookup)
				}
			}
		})
	}
}

func TestAlgorithms_ExcludeCooldownItems(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		shownAgo time.Duration
		wantSeen bool
	}{
		{name: "shown yesterday", shownAgo: 24 * time.Hour, wantSeen: false},
		{name: "shown just inside window", shownAgo: 7*24*time.Hour - time.Minute, wantSeen: false},
		{name: "shown eight days ago", shownAgo: 8 * 24 * time.Hour, wantSeen: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			now := time.Now()
			store := tasteFixture()
			store.AddItems(item(peerA, 101, recommend.StatusWatched, 7))
			err := store.InsertLogEntries(context.Background(), []recommend.LogEntry{{
				ID:      "log-1",
				UserID:  target,
				Key:     recommendtest.Key(100),
				Action:  recommend.ActionShown,
				ShownAt: now.Add(-tt.shownAgo),
			}})
			if err != nil {
				t.Fatalf("InsertLogEntries() error = %v", err)
			}

			alg := algorithms.NewTasteMatch(deps(store), algorithms.DefaultTasteMatchConfig())
			res := execute(t, alg, nil, recommend.Request{Now: now})
			if _, seen := find(res, 100); seen != tt.wantSeen {
				t.Errorf("movie 100 present = %v, want %v", seen, tt.wantSeen)
			}
			if _, seen := find(res, 101); !seen {
				t.Error("movie 101 should always be recommended")
			}
		})
	}
}

func TestAlgorithms_ExcludeOwnListSessionAndFilters(t *testing.T) {
	t.Parallel()

	t.Run("own list", func(t *testing.T) {
		t.Parallel()
		store := tasteFixture()
		store.AddItems(item(target, 100, recommend.StatusWant, 0))
		alg := algorithms.NewTasteMatch(deps(store), algorithms.DefaultTasteMatchConfig())
		res := execute(t, alg, nil, recommend.Request{})
		if _, ok := find(res, 100); ok {
			t.Error("item on the user's own list was recommended")
		}
		if res.Metrics.CandidatesPoolSize != 1 || res.Metrics.AfterFilters != 0 {
			t.Errorf("Metrics = %+v, want pool 1 after filters 0", res.Metrics)
		}
	})

	t.Run("session", func(t *testing.T) {
		t.Parallel()
		store := tasteFixture()
		session := recommend.NewSession(time.Now())
		session.MarkRecommended(recommendtest.Key(100))
		alg := algorithms.NewTasteMatch(deps(store), algorithms.DefaultTasteMatchConfig())
		res := execute(t, alg, session, recommend.Request{})
		if _, ok := find(res, 100); ok {
			t.Error("item already recommended in this session was returned")
		}
	})

	t.Run("media type filter", func(t *testing.T) {
		t.Parallel()
		store := tasteFixture()
		alg := algorithms.NewTasteMatch(deps(store), algorithms.DefaultTasteMatchConfig())
		req := recommend.Request{Filters: recommend.Filters{MediaTypes: []recommend.MediaType{recommend.MediaTV}}}
		res := execute(t, alg, nil, req)
		if len(res.Recommendations) != 0 {
			t.Errorf("movie returned under a tv-only filter: %+v", res.Recommendations)
		}
	})
}

func TestTasteMatch_PeerThresholdAndRanking(t *testing.T) {
	t.Parallel()

	store := recommendtest.NewStore()
	store.AddWatched(target, 20)
	store.SetSimilar(target,
		recommend.SimilarUser{UserID: peerA, OverallMatch: 0.95},
		recommend.SimilarUser{UserID: peerB, OverallMatch: 0.8},
		recommend.SimilarUser{UserID: 4, OverallMatch: 0.5}, // below threshold
	)
	store.AddItems(
		item(peerA, 100, recommend.StatusWatched, 9),
		item(peerB, 100, recommend.StatusWatched, 8),
		item(peerB, 101, recommend.StatusWatched, 4),
		item(4, 102, recommend.StatusWatched, 10),
	)

	alg := algorithms.NewTasteMatch(deps(store), algorithms.DefaultTasteMatchConfig())
	res := execute(t, alg, nil, recommend.Request{})

	if len(res.Recommendations) != 2 {
		t.Fatalf("got %d items, want 2: %+v", len(res.Recommendations), res.Recommendations)
	}
	if res.Recommendations[0].Key != recommendtest.Key(100) || res.Recommendations[0].Score != 100 {
		t.Errorf("top = %+v, want movie 100 at 100", res.Recommendations[0])
	}
	if res.Recommendations[1].Key != recommendtest.Key(101) || res.Recommendations[1].Score != 0 {
		t.Errorf("second = %+v, want movie 101 at 0", res.Recommendations[1])
	}
	if ids := res.Recommendations[0].SourceUserIDs; len(ids) != 2 || ids[0] != peerA || ids[1] != peerB {
		t.Errorf("SourceUserIDs = %v, want [%d %d]", ids, peerA, peerB)
	}
	if _, ok := find(res, 102); ok {
		t.Error("item from a below-threshold peer was recommended")
	}
}

func TestTasteMatch_Truncates(t *testing.T) {
	t.Parallel()

	store := recommendtest.NewStore()
	store.AddWatched(target, 20)
	store.SetSimilar(target, recommend.SimilarUser{UserID: peerA, OverallMatch: 0.9})
	for id := int64(100); id < 115; id++ {
		store.AddItems(item(peerA, id, recommend.StatusWatched, int(id-99)%10+1))
	}

	alg := algorithms.NewTasteMatch(deps(store), algorithms.DefaultTasteMatchConfig())
	res := execute(t, alg, nil, recommend.Request{})

	if len(res.Recommendations) != 12 {
		t.Errorf("got %d items, want 12", len(res.Recommendations))
	}
	if res.Metrics.CandidatesPoolSize != 15 {
		t.Errorf("CandidatesPoolSize = %d, want 15", res.Metrics.CandidatesPoolSize)
	}
	for i := 1; i < len(res.Recommendations); i++ {
		if res.Recommendations[i].Score > res.Recommendations[i-1].Score {
			t.Fatalf("results not sorted at %d: %+v", i, res.Recommendations)
		}
	}
}

func TestWantOverlap(t *testing.T) {
	t.Parallel()

	now := time.Now()
	store := recommendtest.NewStore()
	store.AddWatched(target, 5)
	store.SetSimilar(target, recommend.SimilarUser{UserID: peerA, OverallMatch: 0.7})

	recent := item(peerA, 100, recommend.StatusWant, 0, "Action")
	recent.AddedAt = now.Add(-2 * 24 * time.Hour)
	stale := item(peerA, 101, recommend.StatusWant, 0, "Action")
	stale.AddedAt = now.Add(-60 * 24 * time.Hour)
	watched := item(peerA, 102, recommend.StatusWatched, 9)
	store.AddItems(recent, stale, watched)

	alg := algorithms.NewWantOverlap(deps(store), algorithms.DefaultWantOverlapConfig())
	res := execute(t, alg, nil, recommend.Request{Now: now})

	if _, ok := find(res, 100); !ok {
		t.Error("recent want entry missing")
	}
	if _, ok := find(res, 101); ok {
		t.Error("want entry older than the recency window was recommended")
	}
	if _, ok := find(res, 102); ok {
		t.Error("watched entry was recommended by want overlap")
	}
}

func TestDropPatterns_PenaltyNeverEliminates(t *testing.T) {
	t.Parallel()

	store := recommendtest.NewStore()
	store.AddWatched(target, 10)
	store.SetSimilar(target,
		recommend.SimilarUser{UserID: peerA, OverallMatch: 0.9},
		recommend.SimilarUser{UserID: peerB, OverallMatch: 0.9},
	)
	store.AddItems(
		item(peerA, 100, recommend.StatusWatched, 9),
		item(peerB, 100, recommend.StatusDropped, 0),
		item(peerB, 101, recommend.StatusWatched, 9),
	)

	alg := algorithms.NewDropPatterns(deps(store), algorithms.DefaultDropPatternsConfig())
	res := execute(t, alg, nil, recommend.Request{})

	if _, ok := find(res, 100); !ok {
		t.Error("dropped item was eliminated")
	}
	top, ok := find(res, 101)
	if !ok || top.Score != 100 {
		t.Errorf("undropped item = %+v, want score 100", top)
	}
}

func TestDropPenalty_Cap(t *testing.T) {
	t.Parallel()

	for peers := 1; peers <= 30; peers++ {
		for drops := 0; drops <= peers; drops++ {
			p := algorithms.DropPenalty(drops, peers, 0.7, 0.7)
			if p < 0 || p > 0.7 {
				t.Fatalf("DropPenalty(%d, %d) = %v, outside [0, 0.7]", drops, peers, p)
			}
			base := 0.8
			if adjusted := base * (1 - p); adjusted < base*0.3-1e-12 {
				t.Fatalf("adjusted %v < 30%% of base %v", adjusted, base)
			}
		}
	}
	if p := algorithms.DropPenalty(10, 10, 0.7, 0.7); p != 0.7 {
		t.Errorf("all peers dropped: penalty = %v, want 0.7", p)
	}
	if p := algorithms.DropPenalty(3, 0, 0.7, 0.7); p != 0 {
		t.Errorf("no peers: penalty = %v, want 0", p)
	}
}

func TestTypeTwins(t *testing.T) {
	t.Parallel()

	store := recommendtest.NewStore()
	store.AddWatched(target, 3)
	store.SetTypeProfile(target, recommend.TypeProfile{recommend.MediaMovie: 80, recommend.MediaTV: 20})
	store.SetSimilar(target, recommend.SimilarUser{UserID: peerA, OverallMatch: 0.2, Type: 0.8})
	tv := item(peerA, 200, recommend.StatusWatched, 8)
	tv.Key = recommend.ContentKey{ExternalID: 200, MediaType: recommend.MediaTV}
	store.AddItems(item(peerA, 100, recommend.StatusWatched, 8), tv)

	alg := algorithms.NewTypeTwins(deps(store), algorithms.DefaultTypeTwinsConfig())
	res := execute(t, alg, nil, recommend.Request{})

	if len(res.Recommendations) != 2 {
		t.Fatalf("got %+v, want 2 items", res.Recommendations)
	}
	if res.Recommendations[0].Key != recommendtest.Key(100) {
		t.Errorf("top = %v, want the dominant-type movie", res.Recommendations[0].Key)
	}

	t.Run("missing profile", func(t *testing.T) {
		t.Parallel()
		store := recommendtest.NewStore()
		store.AddWatched(target, 3)
		store.SetSimilar(target, recommend.SimilarUser{UserID: peerA, Type: 0.8})
		store.AddItems(item(peerA, 100, recommend.StatusWatched, 8))
		res := execute(t, algorithms.NewTypeTwins(deps(store), algorithms.DefaultTypeTwinsConfig()), nil, recommend.Request{})
		assertEmpty(t, res)
	})
}

func TestPersonTwins(t *testing.T) {
	t.Parallel()

	store := recommendtest.NewStore()
	store.AddWatched(target, 10)
	store.SetPersonProfile(target, &recommend.PersonProfile{Actors: map[string]float64{"Keanu Reeves": 90}})
	store.SetSimilar(target,
		recommend.SimilarUser{UserID: peerA, OverallMatch: 0.1, Person: 0.6},
		recommend.SimilarUser{UserID: peerB, OverallMatch: 0.9, Person: 0.3},
	)
	store.AddItems(item(peerA, 100, recommend.StatusWatched, 9), item(peerB, 101, recommend.StatusWatched, 9))

	res := execute(t, algorithms.NewPersonTwins(deps(store), algorithms.DefaultPersonTwinsConfig()), nil, recommend.Request{})
	if _, ok := find(res, 100); !ok {
		t.Error("item from a person twin missing")
	}
	if _, ok := find(res, 101); ok {
		t.Error("item from a peer below the person threshold was recommended")
	}
}

func TestPersonRecommendations(t *testing.T) {
	t.Parallel()

	store := recommendtest.NewStore()
	store.AddWatched(target, 5)
	store.SetSimilar(target, recommend.SimilarUser{UserID: peerA, OverallMatch: 0.3})
	store.AddItems(item(peerA, 100, recommend.StatusWatched, 9))

	alg := algorithms.NewPersonRecommendations(deps(store), algorithms.DefaultPersonRecommendationsConfig())

	// No profile yet.
	assertEmpty(t, execute(t, alg, nil, recommend.Request{}))

	// A profile without favorites.
	store.SetPersonProfile(target, &recommend.PersonProfile{Actors: map[string]float64{"Extra": 10}})
	assertEmpty(t, execute(t, alg, nil, recommend.Request{}))

	store.SetPersonProfile(target, &recommend.PersonProfile{Directors: map[string]float64{"Denis Villeneuve": 95}})
	res := execute(t, alg, nil, recommend.Request{})
	if got, ok := find(res, 100); !ok || got.Score != 100 {
		t.Errorf("movie 100 = %+v (present %v), want score 100", got, ok)
	}
}

func TestGenreTwins(t *testing.T) {
	t.Parallel()

	store := recommendtest.NewStore()
	store.AddWatched(target, 10)
	store.SetGenreProfile(target, recommend.GenreProfile{"Drama": 80})
	store.SetSimilar(target, recommend.SimilarUser{UserID: peerA, Genre: 0.75})
	store.AddItems(item(peerA, 100, recommend.StatusWatched, 7, "Drama"))

	res := execute(t, algorithms.NewGenreTwins(deps(store), algorithms.DefaultGenreTwinsConfig()), nil, recommend.Request{})
	if _, ok := find(res, 100); !ok {
		t.Errorf("genre twin item missing: %+v", res.Recommendations)
	}
}

func TestGenreRecommendations(t *testing.T) {
	t.Parallel()

	store := recommendtest.NewStore()
	store.AddWatched(target, 5)
	store.SetGenreProfile(target, recommend.GenreProfile{"Action": 90, "Drama": 20})
	store.SetSimilar(target, recommend.SimilarUser{UserID: peerA, OverallMatch: 0.4})
	store.AddItems(
		item(peerA, 100, recommend.StatusWatched, 8, "Action", "Thriller"),
		item(peerA, 101, recommend.StatusWatched, 10, "Drama"),
	)

	res := execute(t, algorithms.NewGenreRecommendations(deps(store), algorithms.DefaultGenreRecommendationsConfig()), nil, recommend.Request{})
	if _, ok := find(res, 100); !ok {
		t.Error("dominant-genre item missing")
	}
	if _, ok := find(res, 101); ok {
		t.Error("item without a dominant genre was recommended")
	}
}

func TestAlgorithms_StoreErrorsPropagate(t *testing.T) {
	t.Parallel()

	for _, name := range algorithms.Names() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			store := recommendtest.NewStore()
			store.Err = errors.New("db down")
			alg, err := algorithms.New(name, deps(store), algorithms.Overrides{})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if _, err := alg.Execute(context.Background(), target, recommend.Request{}, recommend.NewSession(time.Now())); err == nil {
				t.Error("expected the store error to surface")
			}
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	if _, err := algorithms.New("nope", algorithms.Deps{}, algorithms.Overrides{}); !errors.Is(err, algorithms.ErrUnknownAlgorithm) {
		t.Errorf("New(unknown) error = %v, want ErrUnknownAlgorithm", err)
	}

	minHistory := 2
	alg, err := algorithms.New(algorithms.NameTasteMatch, algorithms.Deps{}, algorithms.Overrides{MinUserHistory: &minHistory})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if alg.MinUserHistory() != 2 {
		t.Errorf("MinUserHistory = %d, want 2", alg.MinUserHistory())
	}

	bad := 1.5
	if _, err := algorithms.New(algorithms.NameGenreTwins, algorithms.Deps{}, algorithms.Overrides{SimilarityThreshold: &bad}); err == nil {
		t.Error("expected error for threshold above 1")
	}

	if got := len(algorithms.Names()); got != 8 {
		t.Errorf("Names() = %d algorithms, want 8", got)
	}
	for _, name := range algorithms.Names() {
		alg, err := algorithms.New(name, algorithms.Deps{}, algorithms.Overrides{})
		if err != nil {
			t.Fatalf("New(%q) error = %v", name, err)
		}
		if alg.Name() != name {
			t.Errorf("Name() = %q, want %q", alg.Name(), name)
		}
	}
}
