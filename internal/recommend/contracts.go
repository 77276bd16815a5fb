// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package recommend

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

// Algorithm is a single scoring strategy run by the ensemble.
type Algorithm interface {
	// Name returns the stable algorithm identifier, e.g. "taste_match_v1".
	Name() string

	// MinUserHistory is the number of watched items required before the
	// algorithm runs. Below it Execute returns EmptyResult.
	MinUserHistory() int

	// Execute scores candidates for userID. The session is shared with the
	// other algorithms of the same request.
	Execute(ctx context.Context, userID int64, req Request, session *Session) (*Result, error)
}

// ItemQuery narrows FindItems and FindItemsForUsers.
type ItemQuery struct {
	Statuses StatusSet

	// Limit caps results (per user for FindItemsForUsers). Zero or
	// negative is unlimited.
	Limit int

	// AddedAfter keeps only items added strictly after this time when set.
	AddedAfter time.Time

	// OrderBy selects the sort order. Defaults to OrderRating.
	OrderBy ItemOrder
}

// ItemOrder is the sort order of item queries.
type ItemOrder int

const (
	// OrderRating sorts by user rating (unrated last), then popularity.
	OrderRating ItemOrder = iota
	// OrderRecent sorts by added time, newest first.
	OrderRecent
)

// HistoryStore reads per-user watch history.
type HistoryStore interface {
	CountWatched(ctx context.Context, userID int64, statuses StatusSet) (int, error)
	FindItems(ctx context.Context, userID int64, q ItemQuery) ([]WatchListItem, error)
	FindItemsForUsers(ctx context.Context, userIDs []int64, q ItemQuery) ([]WatchListItem, error)

	// ActiveUsers returns up to limit users ordered by most recent activity,
	// excluding the given user. Used to bound similarity sampling.
	ActiveUsers(ctx context.Context, exclude int64, limit int) ([]int64, error)
}

// ProfileProvider reads precomputed taste profiles. Each method returns a
// nil profile and no error when the profile has not been computed.
type ProfileProvider interface {
	GenreProfile(ctx context.Context, userID int64) (GenreProfile, error)
	PersonProfile(ctx context.Context, userID int64) (*PersonProfile, error)
	TypeProfile(ctx context.Context, userID int64) (TypeProfile, error)
}

// SimilarityProvider returns the similar users of a target user,
// sorted by OverallMatch descending.
type SimilarityProvider interface {
	GetSimilarUsers(ctx context.Context, userID int64) ([]SimilarUser, error)
}

// ColdStartProvider supplies non-personalized content.
type ColdStartProvider interface {
	Trending(ctx context.Context, window string) ([]ContentItem, error)
	Popular(ctx context.Context, page int) ([]ContentItem, error)
}

// LogStore is the append-only recommendation ledger.
type LogStore interface {
	InsertLogEntries(ctx context.Context, entries []LogEntry) error

	// ShownSince returns the content keys shown to userID at or after since.
	ShownSince(ctx context.Context, userID int64, since time.Time) ([]ContentKey, error)

	GetLogEntry(ctx context.Context, id string) (*LogEntry, error)
	UpdateLogAction(ctx context.Context, id string, action Action) error
	InsertEvent(ctx context.Context, event Event) error

	// AggregateOutcomes counts shown entries and events per algorithm.
	AggregateOutcomes(ctx context.Context, q OutcomeQuery) ([]AlgorithmOutcomes, error)
}

// ResultCache is the key-value cache used for ensemble results.
// A miss is reported with ok=false and a nil error.
type ResultCache interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
