// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cinematch/internal/recommend"
	"github.com/tomtom215/cinematch/internal/recommend/outcome"
)

func TestGetRecommendations(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.rec.resp = &recommend.Response{
		Success: true,
		Recommendations: []recommend.Item{
			{Key: recommend.ContentKey{ExternalID: 603, MediaType: recommend.MediaMovie}, Title: "The Matrix", Score: 100, Algorithm: "taste_match_v1"},
		},
		Metadata: recommend.ResponseMetadata{CacheHit: true},
	}

	w, body := env.do(t, http.MethodGet, "/api/v1/users/42/recommendations?media_type=anime,Movie", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	if env.rec.lastUser != 42 {
		t.Errorf("user = %d, want 42", env.rec.lastUser)
	}
	got := env.rec.lastReq.Filters.MediaTypes
	if len(got) != 2 || got[0] != recommend.MediaAnime || got[1] != recommend.MediaMovie {
		t.Errorf("media types = %v, want [anime movie]", got)
	}

	var resp recommend.Response
	if err := json.Unmarshal(body.Data, &resp); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(resp.Recommendations) != 1 || resp.Recommendations[0].Title != "The Matrix" {
		t.Errorf("recommendations = %+v", resp.Recommendations)
	}
}

func TestGetRecommendations_BadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target string
		code   string
	}{
		{"non-numeric user", "/api/v1/users/abc/recommendations", "INVALID_USER_ID"},
		{"zero user", "/api/v1/users/0/recommendations", "INVALID_USER_ID"},
		{"negative user", "/api/v1/users/-4/recommendations", "INVALID_USER_ID"},
		{"unknown media type", "/api/v1/users/1/recommendations?media_type=podcast", "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t)
			w, body := env.do(t, http.MethodGet, tt.target, "")
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if body.Error == nil || body.Error.Code != tt.code {
				t.Errorf("error = %+v, want code %s", body.Error, tt.code)
			}
		})
	}
}

func TestGetRecommendations_FailureIsUnavailable(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.rec.resp = &recommend.Response{Success: false, Message: "history unavailable"}

	w, body := env.do(t, http.MethodGet, "/api/v1/users/7/recommendations", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if body.Error == nil || body.Error.Code != "RECOMMENDATION_FAILED" || body.Error.Message != "history unavailable" {
		t.Errorf("error = %+v", body.Error)
	}
}

func TestPostOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		logID      string
		body       string
		noEvent    bool
		wantStatus int
		wantCode   string
	}{
		{name: "added", logID: "log-1", body: `{"action":"added"}`, wantStatus: http.StatusCreated},
		{name: "rated with rating", logID: "log-1", body: `{"action":"rated","rating":8}`, wantStatus: http.StatusCreated},
		{name: "unknown log", logID: "missing", body: `{"action":"added"}`, wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{name: "unknown action", logID: "log-1", body: `{"action":"loved"}`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR"},
		{name: "rating out of range", logID: "log-1", body: `{"action":"rated","rating":11}`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR"},
		{name: "malformed json", logID: "log-1", body: `{"action":`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_REQUEST"},
		{name: "unknown field", logID: "log-1", body: `{"action":"added","extra":1}`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_REQUEST"},
		{name: "tracker failure", logID: "log-1", body: `{"action":"hidden"}`, noEvent: true, wantStatus: http.StatusInternalServerError, wantCode: "OUTCOME_NOT_RECORDED"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t)
			env.store.logs["log-1"] = &recommend.LogEntry{
				ID:        "log-1",
				UserID:    5,
				Key:       recommend.ContentKey{ExternalID: 603, MediaType: recommend.MediaMovie},
				Algorithm: "taste_match_v1",
			}
			if tt.noEvent {
				env.tracker.event = nil
			}

			w, body := env.do(t, http.MethodPost, "/api/v1/recommendations/"+tt.logID+"/outcome", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantCode != "" {
				if body.Error == nil || body.Error.Code != tt.wantCode {
					t.Errorf("error = %+v, want code %s", body.Error, tt.wantCode)
				}
				return
			}

			var ev recommend.Event
			if err := json.Unmarshal(body.Data, &ev); err != nil {
				t.Fatalf("decode event: %v", err)
			}
			if ev.LogID != tt.logID {
				t.Errorf("log id = %q, want %q", ev.LogID, tt.logID)
			}
			if len(env.store.marked) != 1 || env.store.marked[0] != "5/movie:603" {
				t.Errorf("marked = %v, want [5/movie:603]", env.store.marked)
			}
		})
	}
}

func TestPostOutcome_NegativeDoesNotMark(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.store.logs["log-1"] = &recommend.LogEntry{ID: "log-1", UserID: 5, Key: recommend.ContentKey{ExternalID: 603, MediaType: recommend.MediaMovie}}

	w, _ := env.do(t, http.MethodPost, "/api/v1/recommendations/log-1/outcome", `{"action":"dropped"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if len(env.store.marked) != 0 {
		t.Errorf("marked = %v, want none", env.store.marked)
	}
}

func TestGetAcceptanceRate(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.tracker.rate = outcome.AcceptanceRate{OverallRate: 25, Accepted: 1, Shown: 4}

	w, body := env.do(t, http.MethodGet,
		"/api/v1/users/9/acceptance?algorithm=taste_match_v1&from=2026-01-01&to=2026-02-01T00:00:00Z", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	if env.tracker.lastUser != 9 || env.tracker.lastAlg != "taste_match_v1" {
		t.Errorf("tracker called with user=%d alg=%q", env.tracker.lastUser, env.tracker.lastAlg)
	}
	dr := env.tracker.lastRange
	if dr == nil {
		t.Fatal("date range not passed")
	}
	if !dr.From.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) || !dr.To.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("range = %v..%v", dr.From, dr.To)
	}

	var resp struct {
		UserID      int64   `json:"user_id"`
		OverallRate float64 `json:"overall_rate"`
		Shown       int     `json:"shown"`
	}
	if err := json.Unmarshal(body.Data, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.UserID != 9 || resp.OverallRate != 25 || resp.Shown != 4 {
		t.Errorf("response = %+v", resp)
	}
}

func TestGetAcceptanceRate_Invalid(t *testing.T) {
	t.Parallel()

	for _, target := range []string{
		"/api/v1/users/9/acceptance?algorithm=Not%20An%20Algorithm",
		"/api/v1/users/9/acceptance?from=2026-03-01&to=2026-02-01",
		"/api/v1/users/9/acceptance?from=yesterday",
	} {
		env := newTestEnv(t)
		w, _ := env.do(t, http.MethodGet, target, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, w.Code)
		}
	}
}

func TestAlgorithmPerformance(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	// nil slices serialize as empty arrays
	w, body := env.do(t, http.MethodGet, "/api/v1/algorithms/performance", "")
	if w.Code != http.StatusOK || string(body.Data) != "[]" {
		t.Fatalf("status = %d data = %s, want 200 []", w.Code, body.Data)
	}

	env.tracker.perf = []outcome.AlgorithmPerformance{{Algorithm: "taste_match_v1", Shown: 10, Accepted: 4, Health: outcome.HealthOK}}
	w, body = env.do(t, http.MethodGet, "/api/v1/users/3/algorithms/performance?from=2026-01-01", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var perf []outcome.AlgorithmPerformance
	if err := json.Unmarshal(body.Data, &perf); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(perf) != 1 || perf[0].Health != outcome.HealthOK {
		t.Errorf("perf = %+v", perf)
	}
	if env.tracker.lastUser != 3 || env.tracker.lastRange == nil || !env.tracker.lastRange.To.IsZero() {
		t.Errorf("tracker called with user=%d range=%+v", env.tracker.lastUser, env.tracker.lastRange)
	}

	env.tracker.err = errBoom
	w, _ = env.do(t, http.MethodGet, "/api/v1/algorithms/performance", "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestWatchList_Lifecycle(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	w, _ := env.do(t, http.MethodPut, "/api/v1/users/11/watchlist",
		`{"media_type":"anime","external_id":209867,"title":"Frieren","status":2,"rating":9,"genres":["Fantasy"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("put status = %d (body %s)", w.Code, w.Body.String())
	}
	if env.store.upserts != 1 {
		t.Errorf("upserts = %d, want 1", env.store.upserts)
	}
	if len(env.rec.invalidated) != 1 || env.rec.invalidated[0] != 11 {
		t.Errorf("invalidated = %v, want [11]", env.rec.invalidated)
	}

	w, body := env.do(t, http.MethodGet, "/api/v1/users/11/watchlist?status=watched", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var items []recommend.WatchListItem
	if err := json.Unmarshal(body.Data, &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Frieren" {
		t.Errorf("items = %+v", items)
	}

	w, body = env.do(t, http.MethodGet, "/api/v1/users/11/watchlist?status=want", "")
	if w.Code != http.StatusOK || string(body.Data) != "[]" {
		t.Errorf("want-only list = %d %s, want 200 []", w.Code, body.Data)
	}

	w, _ = env.do(t, http.MethodDelete, "/api/v1/users/11/watchlist/anime:209867", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", w.Code)
	}
	if len(env.rec.invalidated) != 2 {
		t.Errorf("invalidated = %v, want two calls", env.rec.invalidated)
	}

	w, body = env.do(t, http.MethodDelete, "/api/v1/users/11/watchlist/anime:209867", "")
	if w.Code != http.StatusNotFound || body.Error == nil || body.Error.Code != "NOT_FOUND" {
		t.Errorf("second delete = %d %+v, want 404 NOT_FOUND", w.Code, body.Error)
	}
}

func TestWatchListHistory(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	key := recommend.ContentKey{ExternalID: 603, MediaType: recommend.MediaMovie}
	want, watched := recommend.StatusWant, recommend.StatusWatched
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	env.store.histories[itemID(4, key)] = &recommend.WatchListHistory{
		Key: key,
		Statuses: []recommend.StatusChange{
			{To: &want, ChangedAt: at},
			{From: &want, To: &watched, ChangedAt: at.Add(time.Hour)},
			{From: &watched, ChangedAt: at.Add(2 * time.Hour)},
		},
		Ratings: []recommend.RatingChange{},
	}

	w, body := env.do(t, http.MethodGet, "/api/v1/users/4/watchlist/movie:603/history", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", w.Code, w.Body.String())
	}
	var got recommend.WatchListHistory
	if err := json.Unmarshal(body.Data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Key != key || len(got.Statuses) != 3 {
		t.Fatalf("history = %+v", got)
	}
	if removal := got.Statuses[2]; removal.To != nil || removal.From == nil || *removal.From != watched {
		t.Errorf("removal = %+v, want watched -> none", removal)
	}

	w, body = env.do(t, http.MethodGet, "/api/v1/users/4/watchlist/movie:604/history", "")
	if w.Code != http.StatusNotFound || body.Error == nil || body.Error.Code != "NOT_FOUND" {
		t.Errorf("unknown entry = %d %+v, want 404 NOT_FOUND", w.Code, body.Error)
	}

	w, _ = env.do(t, http.MethodGet, "/api/v1/users/4/watchlist/movie-603/history", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad key status = %d, want 400", w.Code)
	}
}

func TestWatchList_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		target string
		body   string
		code   string
	}{
		{"bad media type", http.MethodPut, "/api/v1/users/1/watchlist", `{"media_type":"book","external_id":1,"title":"x","status":1}`, "VALIDATION_ERROR"},
		{"missing external id", http.MethodPut, "/api/v1/users/1/watchlist", `{"media_type":"movie","title":"x","status":1}`, "VALIDATION_ERROR"},
		{"status out of range", http.MethodPut, "/api/v1/users/1/watchlist", `{"media_type":"movie","external_id":1,"title":"x","status":7}`, "VALIDATION_ERROR"},
		{"empty body", http.MethodPut, "/api/v1/users/1/watchlist", "", "INVALID_REQUEST"},
		{"bad content key", http.MethodDelete, "/api/v1/users/1/watchlist/movie-603", "", "INVALID_CONTENT_KEY"},
		{"bad status filter", http.MethodGet, "/api/v1/users/1/watchlist?status=binged", "", "VALIDATION_ERROR"},
		{"limit too large", http.MethodGet, "/api/v1/users/1/watchlist?limit=10000", "", "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t)
			w, body := env.do(t, tt.method, tt.target, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", w.Code, w.Body.String())
			}
			if body.Error == nil || body.Error.Code != tt.code {
				t.Errorf("error = %+v, want %s", body.Error, tt.code)
			}
			if len(env.rec.invalidated) != 0 {
				t.Error("cache invalidated on rejected request")
			}
		})
	}
}

func TestGetRecommendationHistory(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.store.logs["a"] = &recommend.LogEntry{ID: "a", UserID: 2, Action: recommend.ActionShown}
	env.store.logs["b"] = &recommend.LogEntry{ID: "b", UserID: 3, Action: recommend.ActionShown}

	w, body := env.do(t, http.MethodGet, "/api/v1/users/2/recommendations/history?limit=10", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var entries []recommend.LogEntry
	if err := json.Unmarshal(body.Data, &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "a" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestGetSimilarUsers(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.sim.peers = []recommend.SimilarUser{{UserID: 8, OverallMatch: 0.7}}

	w, body := env.do(t, http.MethodGet, "/api/v1/users/2/similar", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var peers []recommend.SimilarUser
	if err := json.Unmarshal(body.Data, &peers); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(peers) != 1 || peers[0].UserID != 8 {
		t.Errorf("peers = %+v", peers)
	}

	env.sim.err = errBoom
	w, _ = env.do(t, http.MethodGet, "/api/v1/users/2/similar", "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	w, body := env.do(t, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var health struct {
		Status        string `json:"status"`
		Database      bool   `json:"database_connected"`
		ColdStart     string `json:"cold_start_provider"`
		SchemaVersion int    `json:"schema_version"`
	}
	if err := json.Unmarshal(body.Data, &health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health.Status != "healthy" || !health.Database || health.ColdStart != "closed" || health.SchemaVersion != 3 {
		t.Errorf("health = %+v", health)
	}

	w, _ = env.do(t, http.MethodGet, "/health/ready", "")
	if w.Code != http.StatusOK {
		t.Errorf("ready status = %d, want 200", w.Code)
	}

	env.store.pingErr = errBoom
	_, body = env.do(t, http.MethodGet, "/health", "")
	if err := json.Unmarshal(body.Data, &health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health.Status != "degraded" || health.Database {
		t.Errorf("health with db down = %+v", health)
	}

	w, body = env.do(t, http.MethodGet, "/health/ready", "")
	if w.Code != http.StatusServiceUnavailable || body.Status != "not_ready" {
		t.Errorf("ready = %d %s, want 503 not_ready", w.Code, body.Status)
	}

	w, _ = env.do(t, http.MethodGet, "/health/live", "")
	if w.Code != http.StatusOK {
		t.Errorf("live status = %d, want 200", w.Code)
	}
}

func TestColdStartState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cs   ColdStartStatus
		want string
	}{
		{"absent", nil, "disabled"},
		{"no key", fakeColdStart{configured: false}, "not_configured"},
		{"open breaker", fakeColdStart{configured: true, state: "open"}, "open"},
	}
	for _, tt := range tests {
		h := &Handler{coldStart: tt.cs}
		if got := h.coldStartState(); got != tt.want {
			t.Errorf("%s: state = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestGetStats(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/api/v1/algorithms", "")

	w, body := env.do(t, http.MethodGet, "/api/v1/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var stats StatsResponse
	if err := json.Unmarshal(body.Data, &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Engine.Requests != 3 {
		t.Errorf("engine requests = %d, want 3", stats.Engine.Requests)
	}
	found := false
	for _, ep := range stats.Endpoints {
		if ep.Endpoint == "GET /api/v1/algorithms" {
			found = true
		}
	}
	if !found {
		t.Errorf("endpoints = %+v, want GET /api/v1/algorithms", stats.Endpoints)
	}
}

func TestAPIResponseHeaders(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/algorithms", nil)
	req.Header.Set("X-Request-Id", "req-123")
	w := httptest.NewRecorder()
	env.server.ServeHTTP(w, req)

	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Content-Type":           "application/json",
		"X-Request-Id":           "req-123",
	} {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if w.Header().Get("ETag") == "" {
		t.Error("ETag missing")
	}
}
