// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package recommend

import (
	"math"
	"testing"
)

func TestConfidence(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfidenceConfig()
	spread := []float64{100, 20, 100, 20}

	tests := []struct {
		name string
		in   ConfidenceInputs
		want int
	}{
		{"nothing succeeded", ConfidenceInputs{}, 50},
		{"three algorithms", ConfidenceInputs{SuccessfulAlgorithms: 3}, 65},
		{"capped at 90", ConfidenceInputs{SuccessfulAlgorithms: 8}, 90},
		{"peer bonus after cap", ConfidenceInputs{SuccessfulAlgorithms: 8, DistinctPeers: 5}, 100},
		{"four peers no bonus", ConfidenceInputs{SuccessfulAlgorithms: 2, DistinctPeers: 4}, 60},
		{"high spread", ConfidenceInputs{SuccessfulAlgorithms: 2, Scores: spread}, 40},
		{"cold start", ConfidenceInputs{ColdStart: true, Scores: []float64{100, 95, 90}}, 20},
		{"heavy user", ConfidenceInputs{SuccessfulAlgorithms: 4, HeavyUser: true}, 60},
		{"clamped at zero", ConfidenceInputs{ColdStart: true, HeavyUser: true, Scores: spread}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Confidence(cfg, tt.in); got != tt.want {
				t.Errorf("Confidence() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStdDev(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{42}, 0},
		{"equal", []float64{5, 5, 5}, 0},
		{"population", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := StdDev(tt.values); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("StdDev() = %f, want %f", got, tt.want)
			}
		})
	}
}
