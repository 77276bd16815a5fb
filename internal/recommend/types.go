// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package recommend

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MediaType classifies content items.
type MediaType string

const (
	MediaMovie   MediaType = "movie"
	MediaTV      MediaType = "tv"
	MediaAnime   MediaType = "anime"
	MediaCartoon MediaType = "cartoon"
)

// MediaTypes lists every supported media type in a stable order.
var MediaTypes = []MediaType{MediaMovie, MediaTV, MediaAnime, MediaCartoon}

// Valid reports whether the media type is one of the supported values.
func (m MediaType) Valid() bool {
	switch m {
	case MediaMovie, MediaTV, MediaAnime, MediaCartoon:
		return true
	default:
		return false
	}
}

// ContentKey is the identity of a content item: external ID plus media type.
// The same external ID can refer to different items across media types.
type ContentKey struct {
	ExternalID int64     `json:"external_id"`
	MediaType  MediaType `json:"media_type"`
}

// String renders the key as "mediaType:externalID".
func (k ContentKey) String() string {
	return string(k.MediaType) + ":" + strconv.FormatInt(k.ExternalID, 10)
}

// ParseContentKey parses the String form of a ContentKey.
func ParseContentKey(s string) (ContentKey, error) {
	mt, id, ok := strings.Cut(s, ":")
	if !ok {
		return ContentKey{}, fmt.Errorf("invalid content key %q", s)
	}
	extID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return ContentKey{}, fmt.Errorf("invalid content key %q: %w", s, err)
	}
	key := ContentKey{ExternalID: extID, MediaType: MediaType(mt)}
	if !key.MediaType.Valid() {
		return ContentKey{}, fmt.Errorf("invalid media type in content key %q", s)
	}
	return key, nil
}

// WatchListItem is one entry of a user's watch list.
type WatchListItem struct {
	// UserID owns the entry.
	UserID int64 `json:"user_id"`

	// Key is the content identity. Unique per user.
	Key ContentKey `json:"key"`

	// Title is the display title.
	Title string `json:"title"`

	// Status is the watch status from the status catalog.
	Status WatchStatus `json:"status"`

	// Rating is the user's own rating (1-10), nil when unrated.
	Rating *int `json:"rating,omitempty"`

	// Popularity is the external popularity rating of the item.
	Popularity float64 `json:"popularity"`

	// Genres lists the item's genre names.
	Genres []string `json:"genres,omitempty"`

	// AddedAt is when the item entered the list.
	AddedAt time.Time `json:"added_at"`

	// LastRecommendedAt is when the item was last recommended to this user.
	LastRecommendedAt *time.Time `json:"last_recommended_at,omitempty"`

	// RecCount is how many times the item was recommended to this user.
	RecCount int `json:"rec_count"`

	// WatchCount is how many times the user watched the item.
	WatchCount int `json:"watch_count"`
}

// Credits are the top-billed cast and the directors of one title.
type Credits struct {
	Actors    []string `json:"actors"`
	Directors []string `json:"directors"`
}

// StatusChange records one watch status transition. From is nil when the
// entry was added and To is nil when it was removed.
type StatusChange struct {
	From      *WatchStatus `json:"from,omitempty"`
	To        *WatchStatus `json:"to,omitempty"`
	ChangedAt time.Time    `json:"changed_at"`
}

// RatingChange records one rating transition. Nil means unrated.
type RatingChange struct {
	From      *int      `json:"from,omitempty"`
	To        *int      `json:"to,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

// WatchListHistory is the change log of one watch list entry, oldest first.
// It survives removal of the entry.
type WatchListHistory struct {
	Key      ContentKey     `json:"key"`
	Statuses []StatusChange `json:"statuses"`
	Ratings  []RatingChange `json:"ratings"`
}

// Item is a single scored recommendation.
type Item struct {
	Key   ContentKey `json:"key"`
	Title string     `json:"title"`

	// Score is normalized to [0, 100].
	Score float64 `json:"score"`

	// Algorithm is the name of the producing algorithm.
	Algorithm string `json:"algorithm"`

	// SourceUserIDs lists up to MaxSourceUsers contributing peers.
	SourceUserIDs []int64 `json:"source_user_ids,omitempty"`
}

// MaxSourceUsers caps the explainability list attached to an Item.
const MaxSourceUsers = 3

// Metrics describes the candidate pool of one algorithm run.
type Metrics struct {
	CandidatesPoolSize int     `json:"candidates_pool_size"`
	AfterFilters       int     `json:"after_filters"`
	AvgScore           float64 `json:"avg_score"`
}

// Result is the output of one algorithm execution.
type Result struct {
	Recommendations []Item  `json:"recommendations"`
	Metrics         Metrics `json:"metrics"`
}

// EmptyResult returns the canonical empty result: no items and zero metrics.
func EmptyResult() *Result {
	return &Result{Recommendations: []Item{}}
}

// Filters narrows a recommendation request.
type Filters struct {
	// MediaTypes restricts candidates to the listed types. Empty means all.
	MediaTypes []MediaType `json:"media_types,omitempty"`
}

// Allows reports whether the filters accept the given media type.
func (f Filters) Allows(mt MediaType) bool {
	if len(f.MediaTypes) == 0 {
		return true
	}
	for _, allowed := range f.MediaTypes {
		if allowed == mt {
			return true
		}
	}
	return false
}

// Request is the per-call context passed to every algorithm.
type Request struct {
	Filters Filters `json:"filters"`

	// Now pins the evaluation time. Zero means time.Now().
	Now time.Time `json:"-"`
}

// At returns the evaluation time of the request.
//
//nolint:gocritic // Request is small and passed by value throughout
func (r Request) At() time.Time {
	if r.Now.IsZero() {
		return time.Now()
	}
	return r.Now
}

// GenreProfile maps genre names to an affinity score in [0, 100].
type GenreProfile map[string]float64

// PersonProfile holds affinity scores in [0, 100] for actors and directors.
type PersonProfile struct {
	Actors    map[string]float64 `json:"actors"`
	Directors map[string]float64 `json:"directors"`
}

// TypeProfile maps media types to the percentage (0-100) of a user's
// watched items of that type.
type TypeProfile map[MediaType]float64

// Dominant returns the media type with the highest share.
// Ties resolve in MediaTypes order.
func (p TypeProfile) Dominant() MediaType {
	var best MediaType
	bestPct := -1.0
	for _, mt := range MediaTypes {
		if pct, ok := p[mt]; ok && pct > bestPct {
			best, bestPct = mt, pct
		}
	}
	return best
}

// SimilarUser is a similarity record between a target user and a peer.
// All scores are in [0, 1]. Records are replaced wholesale, never mutated.
type SimilarUser struct {
	UserID       int64   `json:"user_id"`
	OverallMatch float64 `json:"overall_match"`
	Taste        float64 `json:"taste"`
	Genre        float64 `json:"genre"`
	Person       float64 `json:"person"`
	Type         float64 `json:"type"`
}

// ContentItem is an item returned by the cold-start content provider.
type ContentItem struct {
	Key        ContentKey `json:"key"`
	Title      string     `json:"title"`
	Popularity float64    `json:"popularity"`
}
