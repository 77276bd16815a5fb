// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/cinematch/internal/cache"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/metrics"
)

// Dependencies are the collaborators the engine reads and writes through.
type Dependencies struct {
	History   HistoryStore
	Logs      LogStore
	ColdStart ColdStartProvider
	Cache     ResultCache
}

// Engine runs the registered algorithms as an ensemble.
// It is safe for concurrent use.
type Engine struct {
	config Config
	logger zerolog.Logger
	deps   Dependencies

	algorithms []Algorithm
	algMu      sync.RWMutex

	// now is replaceable in tests.
	now func() time.Time

	requestCount atomic.Int64
	cacheHits    atomic.Int64
	coldStarts   atomic.Int64
	errorCount   atomic.Int64
}

// Stats is a snapshot of engine counters.
type Stats struct {
	Requests   int64    `json:"requests"`
	CacheHits  int64    `json:"cache_hits"`
	ColdStarts int64    `json:"cold_starts"`
	Errors     int64    `json:"errors"`
	Algorithms []string `json:"algorithms"`
}

// algResult is the outcome of one algorithm call.
type algResult struct {
	name    string
	status  AlgorithmStatus
	result  *Result
	err     error
	elapsed time.Duration
}

// NewEngine creates a new ensemble engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg Config, deps Dependencies, logger zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.History == nil || deps.Logs == nil || deps.Cache == nil {
		return nil, errors.New("history, log store and cache are required")
	}

	return &Engine{
		config:     cfg,
		logger:     logger.With().Str("component", "recommend").Logger(),
		deps:       deps,
		algorithms: make([]Algorithm, 0, 8),
		now:        time.Now,
	}, nil
}

// RegisterAlgorithm adds an algorithm to the ensemble.
func (e *Engine) RegisterAlgorithm(alg Algorithm) {
	e.algMu.Lock()
	defer e.algMu.Unlock()

	e.algorithms = append(e.algorithms, alg)
	e.logger.Info().
		Str("algorithm", alg.Name()).
		Int("min_user_history", alg.MinUserHistory()).
		Msg("registered algorithm")
}

// Algorithms returns the names of the registered algorithms.
func (e *Engine) Algorithms() []string {
	algs := e.getAlgorithms()
	names := make([]string, len(algs))
	for i, a := range algs {
		names[i] = a.Name()
	}
	return names
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Requests:   e.requestCount.Load(),
		CacheHits:  e.cacheHits.Load(),
		ColdStarts: e.coldStarts.Load(),
		Errors:     e.errorCount.Load(),
		Algorithms: e.Algorithms(),
	}
}

// RunEnsemble produces ranked recommendations for userID. It never returns
// an error: orchestrator failures produce Success=false with an empty list,
// which callers should treat as retryable.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) RunEnsemble(ctx context.Context, userID int64, req Request) (resp *Response) {
	e.requestCount.Add(1)
	if req.Now.IsZero() {
		req.Now = e.now()
	}
	logger := e.logger.With().
		Int64("user_id", userID).
		Str("request_id", logging.RequestIDFromContext(ctx)).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			e.errorCount.Add(1)
			metrics.RecommendRequests.WithLabelValues("error").Inc()
			logger.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("ensemble run panicked")
			resp = failureResponse(unavailableMessage)
		}
	}()

	resp, err := e.runEnsemble(ctx, userID, req, logger)
	if err != nil {
		e.errorCount.Add(1)
		metrics.RecommendRequests.WithLabelValues("error").Inc()
		logger.Error().Err(err).Msg("ensemble run failed")
		return failureResponse(unavailableMessage)
	}
	return resp
}

const unavailableMessage = "recommendations are temporarily unavailable, please retry"

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) runEnsemble(ctx context.Context, userID int64, req Request, logger zerolog.Logger) (*Response, error) {
	key, err := e.cacheKey(ctx, userID, req.Filters)
	if err != nil {
		return nil, err
	}

	if cached, err := e.checkCache(ctx, key); err != nil {
		return nil, err
	} else if cached != nil {
		e.cacheHits.Add(1)
		metrics.RecommendCacheLookups.WithLabelValues("hit").Inc()
		metrics.RecommendRequests.WithLabelValues("cache_hit").Inc()
		logger.Debug().Msg("cache hit")
		return cached, nil
	}
	metrics.RecommendCacheLookups.WithLabelValues("miss").Inc()

	watched, err := e.deps.History.CountWatched(ctx, userID, WatchedLike)
	if err != nil {
		return nil, fmt.Errorf("count watched: %w", err)
	}

	session := NewSession(req.Now)
	var resp *Response
	if watched < e.config.ColdStartThreshold {
		resp, err = e.coldStart(ctx, session, watched)
		if err != nil {
			return nil, err
		}
	} else {
		resp, err = e.personalized(ctx, userID, req, session, watched, logger)
		if err != nil {
			return nil, err
		}
	}

	if err := e.logShown(ctx, userID, req, session, resp); err != nil {
		return nil, err
	}
	if err := e.storeCache(ctx, key, resp); err != nil {
		return nil, err
	}

	metrics.RecommendConfidence.Observe(float64(resp.Metadata.Confidence))
	metrics.RecommendRequests.WithLabelValues(resultLabel(resp)).Inc()
	logger.Info().
		Int("watched", watched).
		Int("count", len(resp.Recommendations)).
		Int("confidence", resp.Metadata.Confidence).
		Bool("cold_start", resp.Metadata.ColdStart).
		Bool("heavy_user", resp.Metadata.HeavyUser).
		Strs("timed_out", resp.Metadata.TimedOut).
		Msg("recommendations generated")
	return resp, nil
}

// personalized runs the algorithm ensemble.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) personalized(ctx context.Context, userID int64, req Request, session *Session, watched int, logger zerolog.Logger) (*Response, error) {
	heavy := watched >= e.config.HeavyUserThreshold
	if heavy {
		session.SetSampling(e.config.HeavyUserSampleSize)
		logger.Debug().Int("sample_size", e.config.HeavyUserSampleSize).Msg("heavy user sampling enabled")
	}

	algs := e.getAlgorithms()
	results := e.runAlgorithms(ctx, userID, req, session, algs)

	meta := ResponseMetadata{
		SessionID:       session.ID,
		AlgorithmsRun:   make([]string, 0, len(results)),
		AlgorithmStatus: make(map[string]AlgorithmStatus, len(results)),
		PoolMetrics:     make(map[string]Metrics, len(results)),
		HeavyUser:       heavy,
		WatchedCount:    watched,
		GeneratedAt:     req.Now,
	}

	pooled := make([]Item, 0, len(results)*e.config.Limit)
	peers := make(map[int64]struct{})
	successes := 0
	for _, r := range results {
		meta.AlgorithmsRun = append(meta.AlgorithmsRun, r.name)
		meta.AlgorithmStatus[r.name] = r.status
		metrics.AlgorithmDuration.WithLabelValues(r.name, string(r.status)).Observe(r.elapsed.Seconds())

		switch r.status {
		case StatusTimeout:
			meta.TimedOut = append(meta.TimedOut, r.name)
			logger.Warn().Str("algorithm", r.name).Dur("timeout", e.config.AlgorithmTimeout).Msg("algorithm timed out")
			continue
		case StatusFailed:
			meta.Failed = append(meta.Failed, r.name)
			logger.Warn().Str("algorithm", r.name).Err(r.err).Msg("algorithm failed")
			continue
		}

		successes++
		meta.PoolMetrics[r.name] = r.result.Metrics
		for _, item := range r.result.Recommendations {
			pooled = append(pooled, item)
			for _, id := range item.SourceUserIDs {
				peers[id] = struct{}{}
			}
		}
	}

	items := DedupeKeepHighest(pooled)
	items, err := e.applyCooldown(ctx, userID, req.Now, items)
	if err != nil {
		return nil, err
	}
	items = RankAndTruncate(items, e.config.Limit)

	meta.Confidence = Confidence(e.config.Confidence, ConfidenceInputs{
		SuccessfulAlgorithms: successes,
		DistinctPeers:        len(peers),
		Scores:               scoresOf(items),
		HeavyUser:            heavy,
	})

	resp := &Response{
		Success:         true,
		Recommendations: items,
		Metadata:        meta,
	}
	if len(items) == 0 {
		resp.Message = "no recommendations available yet, try again after rating more titles"
	}
	return resp, nil
}

// runAlgorithms fans out to every algorithm and waits for all of them.
// Each call has its own timeout; a late result is discarded.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) runAlgorithms(ctx context.Context, userID int64, req Request, session *Session, algs []Algorithm) []algResult {
	results := make([]algResult, len(algs))

	var g errgroup.Group
	for i, alg := range algs {
		g.Go(func() error {
			results[i] = e.runSingleAlgorithm(ctx, userID, req, session, alg)
			if results[i].status == StatusOK {
				session.MarkRecommended(keysOf(results[i].result.Recommendations)...)
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// runSingleAlgorithm executes one algorithm under its own timeout.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) runSingleAlgorithm(ctx context.Context, userID int64, req Request, session *Session, alg Algorithm) algResult {
	res := algResult{name: alg.Name()}
	start := time.Now()

	algCtx, cancel := context.WithTimeout(ctx, e.config.AlgorithmTimeout)
	defer cancel()

	type outcome struct {
		result *Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("algorithm panic: %v", p)}
			}
		}()
		r, err := alg.Execute(algCtx, userID, req, session)
		done <- outcome{result: r, err: err}
	}()

	select {
	case <-algCtx.Done():
		res.elapsed = time.Since(start)
		if errors.Is(algCtx.Err(), context.DeadlineExceeded) {
			res.status = StatusTimeout
		} else {
			res.status = StatusFailed
		}
		res.err = algCtx.Err()
	case out := <-done:
		res.elapsed = time.Since(start)
		switch {
		case out.err != nil && errors.Is(out.err, context.DeadlineExceeded):
			res.status, res.err = StatusTimeout, out.err
		case out.err != nil:
			res.status, res.err = StatusFailed, out.err
		case out.result == nil:
			res.status, res.result = StatusOK, EmptyResult()
		default:
			res.status, res.result = StatusOK, out.result
		}
	}
	return res
}

// coldStart serves the non-personalized fallback. It never calls the algorithms.
func (e *Engine) coldStart(ctx context.Context, session *Session, watched int) (*Response, error) {
	e.coldStarts.Add(1)
	meta := ResponseMetadata{
		SessionID:     session.ID,
		AlgorithmsRun: []string{},
		ColdStart:     true,
		WatchedCount:  watched,
		GeneratedAt:   session.StartedAt,
	}

	items, err := e.coldStartItems(ctx)
	if err != nil {
		return nil, err
	}
	meta.Confidence = Confidence(e.config.Confidence, ConfidenceInputs{
		Scores:    scoresOf(items),
		ColdStart: true,
	})

	resp := &Response{
		Success:         true,
		Message:         "showing popular titles until we learn your taste",
		Recommendations: items,
		Metadata:        meta,
	}
	return resp, nil
}

func (e *Engine) coldStartItems(ctx context.Context) ([]Item, error) {
	if e.deps.ColdStart == nil {
		return []Item{}, nil
	}

	algorithm := AlgorithmTrendingFallback
	content, err := e.deps.ColdStart.Trending(ctx, e.config.ColdStart.TrendingWindow)
	if err != nil {
		e.logger.Warn().Err(err).Msg("trending fallback failed, trying popular")
		content = nil
	}
	if len(content) == 0 {
		algorithm = AlgorithmPopularFallback
		content, err = e.deps.ColdStart.Popular(ctx, e.config.ColdStart.PopularPage)
		if err != nil {
			return nil, fmt.Errorf("cold start fallback: %w", err)
		}
	}

	return FallbackItems(content, algorithm, e.config.Limit, e.config.ColdStart.TopScore, e.config.ColdStart.ScoreStep), nil
}

// FallbackItems converts provider content into placeholder-scored items,
// descending linearly by rank from topScore.
func FallbackItems(content []ContentItem, algorithm string, limit int, topScore, step float64) []Item {
	if len(content) > limit {
		content = content[:limit]
	}
	items := make([]Item, 0, len(content))
	for i, c := range content {
		score := topScore - step*float64(i)
		if score < 0 {
			score = 0
		}
		items = append(items, Item{
			Key:       c.Key,
			Title:     c.Title,
			Score:     score,
			Algorithm: algorithm,
		})
	}
	return items
}

// applyCooldown drops items shown to the user within the cooldown window.
func (e *Engine) applyCooldown(ctx context.Context, userID int64, now time.Time, items []Item) ([]Item, error) {
	if e.config.CooldownWindow <= 0 || len(items) == 0 {
		return items, nil
	}
	shown, err := e.deps.Logs.ShownSince(ctx, userID, now.Add(-e.config.CooldownWindow))
	if err != nil {
		return nil, fmt.Errorf("load cooldown log: %w", err)
	}
	return FilterCooldown(items, shown), nil
}

// logShown appends one "shown" log entry per returned item.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) logShown(ctx context.Context, userID int64, req Request, session *Session, resp *Response) error {
	if len(resp.Recommendations) == 0 {
		return nil
	}

	entries := make([]LogEntry, 0, len(resp.Recommendations))
	for _, item := range resp.Recommendations {
		logCtx := LogContext{
			FiltersRecord{Filters: req.Filters},
			TemporalRecord{Temporal: session.Temporal},
			FeaturesRecord{Features: session.Features},
		}
		if m, ok := resp.Metadata.PoolMetrics[item.Algorithm]; ok {
			logCtx = append(logCtx, PoolMetricsRecord{Algorithm: item.Algorithm, Metrics: m})
		}
		entries = append(entries, LogEntry{
			ID:        uuid.New().String(),
			UserID:    userID,
			Key:       item.Key,
			Title:     item.Title,
			Algorithm: item.Algorithm,
			Score:     item.Score,
			Action:    ActionShown,
			Context:   logCtx,
			ShownAt:   req.Now,
		})
	}

	if err := e.deps.Logs.InsertLogEntries(ctx, entries); err != nil {
		return fmt.Errorf("log shown recommendations: %w", err)
	}
	return nil
}

// InvalidateUser drops every cached response of userID by bumping the
// user's cache generation.
func (e *Engine) InvalidateUser(ctx context.Context, userID int64) error {
	gen := strconv.FormatInt(e.now().UnixNano(), 36)
	if err := e.deps.Cache.Set(ctx, generationKey(userID), gen, e.config.CacheTTL); err != nil {
		return fmt.Errorf("invalidate cache: %w", err)
	}
	return nil
}

func (e *Engine) cacheKey(ctx context.Context, userID int64, filters Filters) (string, error) {
	gen, _, err := e.deps.Cache.Get(ctx, generationKey(userID))
	if err != nil {
		return "", fmt.Errorf("read cache generation: %w", err)
	}
	if gen == "" {
		gen = "0"
	}
	return cache.GenerateKey(fmt.Sprintf("recommendations:%d:%s", userID, gen), filters), nil
}

func generationKey(userID int64) string {
	return "recommendations:gen:" + strconv.FormatInt(userID, 10)
}

func (e *Engine) checkCache(ctx context.Context, key string) (*Response, error) {
	raw, ok, err := e.deps.Cache.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var resp Response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		// A corrupt entry is treated as a miss and overwritten later.
		e.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		return nil, nil
	}
	resp.Metadata.CacheHit = true
	return &resp, nil
}

func (e *Engine) storeCache(ctx context.Context, key string, resp *Response) error {
	if e.config.CacheTTL <= 0 {
		return nil
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	if err := e.deps.Cache.Set(ctx, key, string(data), e.config.CacheTTL); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return nil
}

func (e *Engine) getAlgorithms() []Algorithm {
	e.algMu.RLock()
	defer e.algMu.RUnlock()

	algs := make([]Algorithm, len(e.algorithms))
	copy(algs, e.algorithms)
	return algs
}

// DedupeKeepHighest groups items by content key and keeps the highest
// scoring instance of each. Ties keep the first seen.
func DedupeKeepHighest(items []Item) []Item {
	best := make(map[ContentKey]int, len(items))
	out := make([]Item, 0, len(items))
	for _, item := range items {
		idx, ok := best[item.Key]
		if !ok {
			best[item.Key] = len(out)
			out = append(out, item)
			continue
		}
		if item.Score > out[idx].Score {
			out[idx] = item
		}
	}
	return out
}

// FilterCooldown removes items whose key appears in shown.
func FilterCooldown(items []Item, shown []ContentKey) []Item {
	if len(shown) == 0 {
		return items
	}
	blocked := make(map[ContentKey]struct{}, len(shown))
	for _, k := range shown {
		blocked[k] = struct{}{}
	}
	out := items[:0:0]
	for _, item := range items {
		if _, ok := blocked[item.Key]; !ok {
			out = append(out, item)
		}
	}
	return out
}

// RankAndTruncate sorts items by descending score and keeps the first limit.
// Equal scores order by content key for stable output.
func RankAndTruncate(items []Item, limit int) []Item {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Key.String() < items[j].Key.String()
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func keysOf(items []Item) []ContentKey {
	keys := make([]ContentKey, len(items))
	for i, item := range items {
		keys[i] = item.Key
	}
	return keys
}

func scoresOf(items []Item) []float64 {
	scores := make([]float64, len(items))
	for i, item := range items {
		scores[i] = item.Score
	}
	return scores
}

func resultLabel(resp *Response) string {
	if resp.Metadata.ColdStart {
		return "cold_start"
	}
	return "success"
}
