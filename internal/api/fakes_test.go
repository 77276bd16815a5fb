// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cinematch/internal/middleware"
	"github.com/tomtom215/cinematch/internal/recommend"
	"github.com/tomtom215/cinematch/internal/recommend/outcome"
)

var errBoom = errors.New("boom")

type fakeRecommender struct {
	mu          sync.Mutex
	resp        *recommend.Response
	lastUser    int64
	lastReq     recommend.Request
	invalidated []int64
}

func (f *fakeRecommender) RunEnsemble(_ context.Context, userID int64, req recommend.Request) *recommend.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUser = userID
	f.lastReq = req
	if f.resp != nil {
		return f.resp
	}
	return &recommend.Response{Success: true, Recommendations: []recommend.Item{}}
}

func (f *fakeRecommender) InvalidateUser(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, userID)
	return nil
}

func (f *fakeRecommender) Algorithms() []string { return []string{"taste_match_v1"} }

func (f *fakeRecommender) Stats() recommend.Stats {
	return recommend.Stats{Requests: 3, Algorithms: f.Algorithms()}
}

type fakeTracker struct {
	event     *recommend.Event
	rate      outcome.AcceptanceRate
	perf      []outcome.AlgorithmPerformance
	err       error
	lastAlg   string
	lastRange *recommend.DateRange
	lastUser  int64
}

func (f *fakeTracker) TrackOutcome(_ context.Context, logID string, eventType recommend.EventType, rating *int) *recommend.Event {
	if f.event == nil {
		return nil
	}
	ev := *f.event
	ev.LogID = logID
	ev.Type = eventType
	ev.Rating = rating
	return &ev
}

func (f *fakeTracker) CalculateAcceptanceRate(_ context.Context, userID int64, algorithm string, dr *recommend.DateRange) (outcome.AcceptanceRate, error) {
	f.lastUser, f.lastAlg, f.lastRange = userID, algorithm, dr
	return f.rate, f.err
}

func (f *fakeTracker) GetAlgorithmPerformance(_ context.Context, userID int64, dr *recommend.DateRange) ([]outcome.AlgorithmPerformance, error) {
	f.lastUser, f.lastRange = userID, dr
	return f.perf, f.err
}

func (f *fakeTracker) GetSystemAlgorithmPerformance(_ context.Context, dr *recommend.DateRange) ([]outcome.AlgorithmPerformance, error) {
	f.lastRange = dr
	return f.perf, f.err
}

type fakeSimilarity struct {
	peers []recommend.SimilarUser
	err   error
}

func (f *fakeSimilarity) GetSimilarUsers(context.Context, int64) ([]recommend.SimilarUser, error) {
	return f.peers, f.err
}

type fakeStore struct {
	mu      sync.Mutex
	pingErr error
	logs    map[string]*recommend.LogEntry
	items   map[string]recommend.WatchListItem
	upserts int
	marked  []string

	histories map[string]*recommend.WatchListHistory
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		logs:  map[string]*recommend.LogEntry{},
		items: map[string]recommend.WatchListItem{},

		histories: map[string]*recommend.WatchListHistory{},
	}
}

func itemID(userID int64, key recommend.ContentKey) string {
	return fmt.Sprintf("%d/%s", userID, key)
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) CurrentSchemaVersion(context.Context) (int, error) { return 3, nil }

func (f *fakeStore) GetLogEntry(_ context.Context, id string) (*recommend.LogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.logs[id]
	if !ok {
		return nil, recommend.ErrNotFound
	}
	return e, nil
}

func (f *fakeStore) RecentLogEntries(_ context.Context, userID int64, limit int) ([]recommend.LogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recommend.LogEntry
	for _, e := range f.logs {
		if e.UserID == userID && len(out) < limit {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeStore) FindItems(_ context.Context, userID int64, q recommend.ItemQuery) ([]recommend.WatchListItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recommend.WatchListItem
	for _, it := range f.items {
		if it.UserID == userID && q.Statuses.Contains(it.Status) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertWatchListItem(_ context.Context, item *recommend.WatchListItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	f.items[itemID(item.UserID, item.Key)] = *item
	return nil
}

func (f *fakeStore) DeleteWatchListItem(_ context.Context, userID int64, key recommend.ContentKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := itemID(userID, key)
	if _, ok := f.items[id]; !ok {
		return recommend.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeStore) MarkRecommended(_ context.Context, userID int64, keys []recommend.ContentKey, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		f.marked = append(f.marked, itemID(userID, k))
	}
	return nil
}

func (f *fakeStore) WatchListHistory(_ context.Context, userID int64, key recommend.ContentKey) (*recommend.WatchListHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.histories[itemID(userID, key)]
	if !ok {
		return nil, recommend.ErrNotFound
	}
	return h, nil
}

type fakeColdStart struct {
	configured bool
	state      string
}

func (f fakeColdStart) Configured() bool     { return f.configured }
func (f fakeColdStart) BreakerState() string { return f.state }

type testEnv struct {
	rec     *fakeRecommender
	tracker *fakeTracker
	sim     *fakeSimilarity
	store   *fakeStore
	handler *Handler
	server  http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		rec:     &fakeRecommender{},
		tracker: &fakeTracker{event: &recommend.Event{ID: "ev-1", CreatedAt: time.Now()}},
		sim:     &fakeSimilarity{},
		store:   newFakeStore(),
	}
	env.handler = NewHandler(Dependencies{
		Recommender: env.rec,
		Tracker:     env.tracker,
		Similarity:  env.sim,
		Store:       env.store,
		ColdStart:   fakeColdStart{configured: true, state: "closed"},
		Monitor:     middleware.NewPerformanceMonitor(100, time.Second, zerolog.Nop()),
	}, "test", zerolog.Nop())

	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	env.server = NewRouter(env.handler, NewChiMiddleware(cfg)).SetupChi()
	return env
}

// envelope mirrors models.APIResponse with raw data for decoding in tests.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func (env *testEnv) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	env.server.ServeHTTP(w, req)

	var out envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %s %s: %v (body %q)", method, target, err, w.Body.String())
		}
	}
	return w, out
}
