// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package recommend

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// TemporalContext captures when a session started.
type TemporalContext struct {
	Hour      int          `json:"hour"`
	DayOfWeek time.Weekday `json:"day_of_week"`
	Weekend   bool         `json:"weekend"`
}

// NewTemporalContext derives the temporal context of t.
func NewTemporalContext(t time.Time) TemporalContext {
	wd := t.Weekday()
	return TemporalContext{
		Hour:      t.Hour(),
		DayOfWeek: wd,
		Weekend:   wd == time.Saturday || wd == time.Sunday,
	}
}

// MLFeatures are placeholders for model features recorded with each session.
// They are logged but not used for scoring.
type MLFeatures struct {
	Similarity          float64 `json:"similarity"`
	Novelty             float64 `json:"novelty"`
	Diversity           float64 `json:"diversity"`
	PredictedAcceptance float64 `json:"predicted_acceptance"`
}

// Sampling limits how much of a heavy user's own history algorithms read.
type Sampling struct {
	SampleSize int `json:"sample_size"`
}

// Session is the per-request state shared by every algorithm of one
// ensemble run. The recommended set is safe for concurrent use.
type Session struct {
	ID        string
	StartedAt time.Time
	Temporal  TemporalContext
	Features  MLFeatures

	mu          sync.RWMutex
	recommended map[ContentKey]struct{}
	sampling    *Sampling
}

// NewSession creates a session starting at now.
func NewSession(now time.Time) *Session {
	return &Session{
		ID:          uuid.New().String(),
		StartedAt:   now,
		Temporal:    NewTemporalContext(now),
		recommended: make(map[ContentKey]struct{}),
	}
}

// MarkRecommended records keys as already recommended in this session.
func (s *Session) MarkRecommended(keys ...ContentKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		s.recommended[k] = struct{}{}
	}
}

// WasRecommended reports whether key was already recommended in this session.
func (s *Session) WasRecommended(key ContentKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.recommended[key]
	return ok
}

// Recommended returns a snapshot of the recommended set.
func (s *Session) Recommended() []ContentKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]ContentKey, 0, len(s.recommended))
	for k := range s.recommended {
		keys = append(keys, k)
	}
	return keys
}

// SetSampling installs a heavy-user sampling directive.
func (s *Session) SetSampling(sampleSize int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sampling = &Sampling{SampleSize: sampleSize}
}

// SampleSize returns the sampling limit for the user's own history,
// or 0 when the session is not sampled.
func (s *Session) SampleSize() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sampling == nil {
		return 0
	}
	return s.sampling.SampleSize
}

// Sampled reports whether a sampling directive is active.
func (s *Session) Sampled() bool {
	return s.SampleSize() > 0
}
