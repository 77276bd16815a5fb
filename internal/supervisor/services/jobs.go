// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinematch/internal/recommend"
)

// Job names, also used as the job label of refresh_runs_total.
const (
	JobSimilarityRefresh = "similarity-refresh"
	JobProfileRefresh    = "profile-refresh"
	JobCacheGC           = "cache-gc"
)

// ActiveUserLister returns the most active users.
type ActiveUserLister interface {
	ActiveUsers(ctx context.Context, exclude int64, limit int) ([]int64, error)
}

// SimilarityRefresher recomputes cached similarity lists.
type SimilarityRefresher interface {
	Refresh(ctx context.Context, userIDs []int64) error
}

// ProfileStore rebuilds derived profiles from watch history and keeps the
// title credits person profiles are built from.
type ProfileStore interface {
	RebuildGenreProfiles(ctx context.Context) (int, error)
	RebuildPersonProfiles(ctx context.Context) (int, error)
	MissingCredits(ctx context.Context, limit int) ([]recommend.ContentKey, error)
	SetContentCredits(ctx context.Context, key recommend.ContentKey, credits recommend.Credits) error
}

// CreditsSource looks up the cast and directors of a title.
type CreditsSource interface {
	Credits(ctx context.Context, key recommend.ContentKey) (recommend.Credits, error)
}

// maxCreditFailures stops a credits sync after this many failed lookups in
// a row.
const maxCreditFailures = 5

// ValueLogCollector reclaims disk space of an on-disk cache.
type ValueLogCollector interface {
	RunValueLogGC(discardRatio float64) error
}

// SimilarityRefreshJob precomputes similar users for the limit most active
// users so their first request of the day is a cache hit.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func SimilarityRefreshJob(users ActiveUserLister, refresher SimilarityRefresher, limit int, logger zerolog.Logger) JobFunc {
	return func(ctx context.Context) error {
		ids, err := users.ActiveUsers(ctx, 0, limit)
		if err != nil {
			return fmt.Errorf("list active users: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}
		if err := refresher.Refresh(ctx, ids); err != nil {
			return fmt.Errorf("refresh similarity: %w", err)
		}
		logger.Info().Int("users", len(ids)).Msg("Similarity lists refreshed")
		return nil
	}
}

// ProfileRefreshJob fetches credits for up to fetchLimit watched titles that
// have none, then rebuilds every user's genre and person profiles. A nil
// source skips the fetch and person profiles use the credits already
// stored. Titles the source does not know are stored without credits. Other
// lookup failures are logged and do not fail the run.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func ProfileRefreshJob(store ProfileStore, source CreditsSource, fetchLimit int, logger zerolog.Logger) JobFunc {
	return func(ctx context.Context) error {
		if source != nil && fetchLimit > 0 {
			if err := syncCredits(ctx, store, source, fetchLimit, logger); err != nil {
				return err
			}
		}

		n, err := store.RebuildGenreProfiles(ctx)
		if err != nil {
			return fmt.Errorf("rebuild genre profiles: %w", err)
		}
		logger.Info().Int("users", n).Msg("Genre profiles rebuilt")

		n, err = store.RebuildPersonProfiles(ctx)
		if err != nil {
			return fmt.Errorf("rebuild person profiles: %w", err)
		}
		logger.Info().Int("users", n).Msg("Person profiles rebuilt")
		return nil
	}
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func syncCredits(ctx context.Context, store ProfileStore, source CreditsSource, limit int, logger zerolog.Logger) error {
	keys, err := store.MissingCredits(ctx, limit)
	if err != nil {
		return fmt.Errorf("list titles without credits: %w", err)
	}

	fetched, failures := 0, 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		credits, err := source.Credits(ctx, key)
		if errors.Is(err, recommend.ErrNotFound) {
			// unknown upstream: store no credits so the title is not retried
			credits, err = recommend.Credits{}, nil
		}
		if err != nil {
			failures++
			logger.Warn().Err(err).Str("key", key.String()).Msg("Credits lookup failed")
			if failures >= maxCreditFailures {
				logger.Warn().Int("fetched", fetched).Msg("Credits sync stopped after repeated failures")
				break
			}
			continue
		}
		failures = 0
		if err := store.SetContentCredits(ctx, key, credits); err != nil {
			return fmt.Errorf("store credits for %s: %w", key, err)
		}
		fetched++
	}

	if len(keys) > 0 {
		logger.Info().Int("titles", len(keys)).Int("fetched", fetched).Msg("Credits synced")
	}
	return nil
}

// CacheGCJob runs value log garbage collection with the given discard ratio.
func CacheGCJob(collector ValueLogCollector, discardRatio float64) JobFunc {
	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return collector.RunValueLogGC(discardRatio)
	}
}
