// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package similarity computes user-to-user similarity.
//
// The primitives in this file are pure and deterministic. Service wraps
// them with a two-tier lookup: a shared cache of precomputed similar users,
// and on a miss a computation over a bounded sample of recently active
// users whose result is written back to the cache.
package similarity

import (
	"math"

	"github.com/tomtom215/cinematch/internal/recommend"
)

// Cosine returns the cosine similarity of two sparse vectors, clamped to
// [0, 1]. Empty or zero vectors have similarity 0.
func Cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	// Iterate the smaller map for the dot product.
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	var dot float64
	for k, v := range small {
		dot += v * large[k]
	}
	normA, normB := norm(a), norm(b)
	if normA == 0 || normB == 0 {
		return 0
	}
	return clamp01(dot / (normA * normB))
}

func norm(v map[string]float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// WeightedJaccard returns Σmin / Σmax over the union of two weighted sets.
// Non-positive weights are ignored.
func WeightedJaccard(a, b map[string]float64) float64 {
	var minSum, maxSum float64
	for k, va := range a {
		va = math.Max(va, 0)
		vb := math.Max(b[k], 0)
		minSum += math.Min(va, vb)
		maxSum += math.Max(va, vb)
	}
	for k, vb := range b {
		if _, ok := a[k]; ok {
			continue
		}
		maxSum += math.Max(vb, 0)
	}
	if maxSum == 0 {
		return 0
	}
	return clamp01(minSum / maxSum)
}

// TypeSimilarity compares two media-type distributions given in percent:
// 1 − Σ|pA − pB| / 200. Either distribution being empty yields 0.
func TypeSimilarity(a, b recommend.TypeProfile) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var diff float64
	for _, mt := range recommend.MediaTypes {
		diff += math.Abs(a[mt] - b[mt])
	}
	return clamp01(1 - diff/200)
}

// PersonSimilarity averages the weighted Jaccard overlap of favorite actors
// and directors. A nil profile yields 0.
func PersonSimilarity(a, b *recommend.PersonProfile) float64 {
	if a == nil || b == nil {
		return 0
	}
	return (WeightedJaccard(a.Actors, b.Actors) + WeightedJaccard(a.Directors, b.Directors)) / 2
}

// RatingVector builds a taste vector from watched items, keyed by content.
// Unrated items count as a neutral 5.
func RatingVector(items []recommend.WatchListItem) map[string]float64 {
	v := make(map[string]float64, len(items))
	for i := range items {
		r := 5.0
		if items[i].Rating != nil {
			r = float64(*items[i].Rating)
		}
		v[items[i].Key.String()] = r
	}
	return v
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
