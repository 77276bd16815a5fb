// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package outcome

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/tomtom215/cinematch/internal/recommend"
)

// AcceptanceRate is the share of shown recommendations that were added or rated.
type AcceptanceRate struct {
	OverallRate float64 `json:"overall_rate"`
	Accepted    int     `json:"accepted"`
	Shown       int     `json:"shown"`
}

// Health classifies an algorithm's recent outcomes.
type Health string

const (
	HealthOK       Health = "ok"
	HealthWarning  Health = "warning"
	HealthCritical Health = "critical"
	HealthUnused   Health = "unused"
)

// HealthPolicy holds the thresholds used to derive Health. Rates are percent.
type HealthPolicy struct {
	// MinShown is the sample below which only "unused" or "ok" is reported.
	MinShown int `koanf:"min_shown"`

	WarningAcceptanceRate  float64 `koanf:"warning_acceptance_rate"`
	WarningNegativeRate    float64 `koanf:"warning_negative_rate"`
	CriticalNegativeRate   float64 `koanf:"critical_negative_rate"`
	CriticalAcceptanceRate float64 `koanf:"critical_acceptance_rate"`
}

// DefaultHealthPolicy returns the default thresholds.
func DefaultHealthPolicy() HealthPolicy {
	return HealthPolicy{
		MinShown:               20,
		WarningAcceptanceRate:  5,
		WarningNegativeRate:    15,
		CriticalNegativeRate:   30,
		CriticalAcceptanceRate: 1,
	}
}

// Classify derives the health of one algorithm.
//
//nolint:gocritic // hugeParam: performance row is read-only
func (p HealthPolicy) Classify(perf AlgorithmPerformance) Health {
	switch {
	case perf.Shown == 0:
		return HealthUnused
	case perf.Shown < p.MinShown:
		return HealthOK
	case perf.NegativeRate >= p.CriticalNegativeRate, perf.AcceptanceRate < p.CriticalAcceptanceRate:
		return HealthCritical
	case perf.NegativeRate >= p.WarningNegativeRate, perf.AcceptanceRate < p.WarningAcceptanceRate:
		return HealthWarning
	default:
		return HealthOK
	}
}

// AlgorithmPerformance separates positive, ignored and harmful outcomes of
// one algorithm.
type AlgorithmPerformance struct {
	Algorithm      string  `json:"algorithm"`
	Shown          int     `json:"shown"`
	Accepted       int     `json:"accepted"`
	Ignored        int     `json:"ignored"`
	Negative       int     `json:"negative"`
	Dropped        int     `json:"dropped"`
	Hidden         int     `json:"hidden"`
	AcceptanceRate float64 `json:"acceptance_rate"`
	NegativeRate   float64 `json:"negative_rate"`
	Health         Health  `json:"health"`
}

// CalculateAcceptanceRate returns (added+rated)/shown for userID, optionally
// scoped to one algorithm and a date range. A zero shown count yields rate 0.
func (t *Tracker) CalculateAcceptanceRate(ctx context.Context, userID int64, algorithm string, dr *recommend.DateRange) (AcceptanceRate, error) {
	rows, err := t.logs.AggregateOutcomes(ctx, recommend.OutcomeQuery{
		UserID:    userID,
		Algorithm: algorithm,
		Range:     dr,
	})
	if err != nil {
		return AcceptanceRate{}, fmt.Errorf("aggregate outcomes: %w", err)
	}

	var out AcceptanceRate
	for _, r := range rows {
		out.Shown += r.Shown
		out.Accepted += r.Accepted()
	}
	out.OverallRate = Rate(out.Accepted, out.Shown)
	return out, nil
}

// GetAlgorithmPerformance aggregates outcomes per algorithm for one user.
func (t *Tracker) GetAlgorithmPerformance(ctx context.Context, userID int64, dr *recommend.DateRange) ([]AlgorithmPerformance, error) {
	return t.performance(ctx, recommend.OutcomeQuery{UserID: userID, Range: dr})
}

// GetSystemAlgorithmPerformance aggregates outcomes per algorithm across all users.
func (t *Tracker) GetSystemAlgorithmPerformance(ctx context.Context, dr *recommend.DateRange) ([]AlgorithmPerformance, error) {
	return t.performance(ctx, recommend.OutcomeQuery{Range: dr})
}

//nolint:gocritic // hugeParam: query passed by value
func (t *Tracker) performance(ctx context.Context, q recommend.OutcomeQuery) ([]AlgorithmPerformance, error) {
	rows, err := t.logs.AggregateOutcomes(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("aggregate outcomes: %w", err)
	}

	byAlg := make(map[string]recommend.AlgorithmOutcomes, len(rows)+len(t.cfg.KnownAlgorithms))
	for _, name := range t.cfg.KnownAlgorithms {
		byAlg[name] = recommend.AlgorithmOutcomes{Algorithm: name}
	}
	for _, r := range rows {
		byAlg[r.Algorithm] = r
	}

	out := make([]AlgorithmPerformance, 0, len(byAlg))
	for _, r := range byAlg {
		perf := AlgorithmPerformance{
			Algorithm:      r.Algorithm,
			Shown:          r.Shown,
			Accepted:       r.Accepted(),
			Ignored:        r.Ignored,
			Negative:       r.Negative(),
			Dropped:        r.Dropped,
			Hidden:         r.Hidden,
			AcceptanceRate: Rate(r.Accepted(), r.Shown),
			NegativeRate:   Rate(r.Negative(), r.Shown),
		}
		perf.Health = t.cfg.Health.Classify(perf)
		out = append(out, perf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Algorithm < out[j].Algorithm })
	return out, nil
}

// Rate returns part/total as a percentage rounded to one decimal place.
// A zero total yields 0.
func Rate(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}
