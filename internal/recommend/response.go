// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package recommend

import "time"

// AlgorithmStatus is the outcome of one algorithm in an ensemble run.
type AlgorithmStatus string

const (
	StatusOK      AlgorithmStatus = "ok"
	StatusTimeout AlgorithmStatus = "timeout"
	StatusFailed  AlgorithmStatus = "failed"
)

// Cold-start fallback algorithm names.
const (
	AlgorithmTrendingFallback = "tmdb_trending_fallback"
	AlgorithmPopularFallback  = "tmdb_popular_fallback"
)

// Response is the result of RunEnsemble. It is always well formed.
type Response struct {
	Success         bool             `json:"success"`
	Message         string           `json:"message,omitempty"`
	Recommendations []Item           `json:"recommendations"`
	Metadata        ResponseMetadata `json:"metadata"`
}

// ResponseMetadata describes how a response was produced.
type ResponseMetadata struct {
	SessionID string `json:"session_id,omitempty"`

	// AlgorithmsRun lists the algorithms that were started.
	AlgorithmsRun []string `json:"algorithms_run"`

	// AlgorithmStatus maps each started algorithm to its outcome.
	AlgorithmStatus map[string]AlgorithmStatus `json:"algorithm_status,omitempty"`

	TimedOut []string `json:"timed_out,omitempty"`
	Failed   []string `json:"failed,omitempty"`

	// PoolMetrics holds the metrics reported by each successful algorithm.
	PoolMetrics map[string]Metrics `json:"pool_metrics,omitempty"`

	Confidence   int       `json:"confidence"`
	ColdStart    bool      `json:"cold_start"`
	HeavyUser    bool      `json:"heavy_user"`
	CacheHit     bool      `json:"cache_hit"`
	WatchedCount int       `json:"watched_count"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// failureResponse builds the generic retryable failure response.
func failureResponse(message string) *Response {
	return &Response{
		Success:         false,
		Message:         message,
		Recommendations: []Item{},
		Metadata: ResponseMetadata{
			AlgorithmsRun: []string{},
			GeneratedAt:   time.Now(),
		},
	}
}
