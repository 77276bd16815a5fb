// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package recommend

import "math"

// ConfidenceInputs are the observations the confidence heuristic uses.
type ConfidenceInputs struct {
	SuccessfulAlgorithms int
	DistinctPeers        int
	Scores               []float64
	ColdStart            bool
	HeavyUser            bool
}

// Confidence computes the 0-100 trust signal surfaced with a response.
// It is a heuristic, not a statistical guarantee.
//
//nolint:gocritic // hugeParam: cfg is read-only
func Confidence(cfg ConfidenceConfig, in ConfidenceInputs) int {
	score := cfg.Base + cfg.PerAlgorithm*in.SuccessfulAlgorithms
	if score > cfg.Cap {
		score = cfg.Cap
	}
	if in.DistinctPeers >= cfg.MinPeersForBonus {
		score += cfg.PeerBonus
	}
	if StdDev(in.Scores) > cfg.StdDevThreshold {
		score -= cfg.StdDevPenalty
	}
	if in.ColdStart {
		score -= cfg.ColdStartPenalty
	}
	if in.HeavyUser {
		score -= cfg.HeavyUserPenalty
	}
	return clampInt(score, 0, 100)
}

// StdDev returns the population standard deviation of values.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
