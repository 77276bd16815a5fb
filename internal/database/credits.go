// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/cinematch/internal/database/query"
	"github.com/tomtom215/cinematch/internal/recommend"
)

// watchedArgs returns the watched-like status IDs as query arguments.
func watchedArgs() []interface{} {
	ids := recommend.WatchedLike.IDs()
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// MissingCredits returns up to limit watched titles whose credits were never
// fetched. Titles on more lists come first. A limit <= 0 returns all.
func (db *DB) MissingCredits(ctx context.Context, limit int) ([]recommend.ContentKey, error) {
	args := watchedArgs()
	sqlQuery := fmt.Sprintf(`SELECT w.external_id, w.media_type FROM watchlist_items w
		LEFT JOIN content_credits_fetched f
			ON f.external_id = w.external_id AND f.media_type = w.media_type
		WHERE f.external_id IS NULL AND w.removed_at IS NULL AND w.status_id IN (%s)
		GROUP BY w.external_id, w.media_type
		ORDER BY COUNT(*) DESC, w.external_id, w.media_type`, query.Placeholders(len(args)))
	if limit > 0 {
		sqlQuery += " LIMIT ?"
		args = append(args, limit)
	}

	return queryAndScan(ctx, db, "missing_credits", "content_credits_fetched", sqlQuery, args,
		func(s scanner) (recommend.ContentKey, error) {
			var (
				key       recommend.ContentKey
				mediaType string
			)
			err := s.Scan(&key.ExternalID, &mediaType)
			key.MediaType = recommend.MediaType(mediaType)
			return key, err
		})
}

// SetContentCredits replaces the stored credits of one title and marks it
// fetched, so titles without any credits are not fetched again.
func (db *DB) SetContentCredits(ctx context.Context, key recommend.ContentKey, credits recommend.Credits) error {
	fetchedAt := toDBTime(db.now())

	const operation = "set_content_credits"
	return withConflictRetry(ctx, operation, func() (err error) {
		ctx, cancel := db.ensureContext(ctx)
		defer cancel()

		start := time.Now()
		defer func() { recordTx(operation, "content_credits", start, err) }()

		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("%s: begin: %w", operation, err)
		}
		defer rollbackUnlessCommitted(tx, &err)

		if _, err = tx.ExecContext(ctx,
			`DELETE FROM content_credits WHERE external_id = ? AND media_type = ?`,
			key.ExternalID, string(key.MediaType)); err != nil {
			return fmt.Errorf("%s: delete: %w", operation, err)
		}

		insert := func(role string, names []string) error {
			for i, name := range names {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO content_credits (external_id, media_type, role, name, billing)
					VALUES (?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
					key.ExternalID, string(key.MediaType), role, name, i); err != nil {
					return err
				}
			}
			return nil
		}
		if err = insert(RoleActor, credits.Actors); err != nil {
			return fmt.Errorf("%s: insert actors: %w", operation, err)
		}
		if err = insert(RoleDirector, credits.Directors); err != nil {
			return fmt.Errorf("%s: insert directors: %w", operation, err)
		}

		if _, err = tx.ExecContext(ctx,
			`INSERT INTO content_credits_fetched (external_id, media_type, fetched_at) VALUES (?, ?, ?)
			ON CONFLICT (external_id, media_type) DO UPDATE SET fetched_at = EXCLUDED.fetched_at`,
			key.ExternalID, string(key.MediaType), fetchedAt); err != nil {
			return fmt.Errorf("%s: mark fetched: %w", operation, err)
		}

		if err = tx.Commit(); err != nil {
			return fmt.Errorf("%s: commit: %w", operation, err)
		}
		return nil
	})
}

// BuildPersonProfile computes a user's actor and director affinities from
// watched items joined with their credits. Each item adds rating/10 (or 0.5
// when unrated) to every credited person, and each role is scaled so its
// strongest name is 100. Nil when no watched item has credits.
func (db *DB) BuildPersonProfile(ctx context.Context, userID int64) (*recommend.PersonProfile, error) {
	type roleRow struct {
		role string
		scoredName
	}

	statusArgs := watchedArgs()
	args := make([]interface{}, 0, len(statusArgs)+2)
	args = append(args, unratedItemWeight, userID)
	args = append(args, statusArgs...)

	rows, err := queryAndScan(ctx, db, "build_person_profile", "content_credits",
		fmt.Sprintf(`SELECT c.role, c.name,
			SUM(CASE WHEN w.rating IS NULL THEN CAST(? AS DOUBLE) ELSE w.rating / 10.0 END)::DOUBLE
		FROM watchlist_items w
		JOIN content_credits c ON c.external_id = w.external_id AND c.media_type = w.media_type
		WHERE w.user_id = ? AND w.removed_at IS NULL AND w.status_id IN (%s)
		GROUP BY c.role, c.name
		ORDER BY c.role, c.name`, query.Placeholders(len(statusArgs))),
		args,
		func(s scanner) (roleRow, error) {
			var r roleRow
			err := s.Scan(&r.role, &r.name, &r.score)
			return r, err
		})
	if err != nil {
		return nil, err
	}

	actors := make(map[string]float64)
	directors := make(map[string]float64)
	for _, r := range rows {
		switch r.role {
		case RoleActor:
			actors[r.name] = r.score
		case RoleDirector:
			directors[r.name] = r.score
		}
	}
	return newPersonProfile(actors, directors), nil
}

// newPersonProfile scales raw per-role sums into a profile. Nil when both
// roles are empty.
func newPersonProfile(actorSums, directorSums map[string]float64) *recommend.PersonProfile {
	actors := scaleToPercent(actorSums)
	directors := scaleToPercent(directorSums)
	if actors == nil && directors == nil {
		return nil
	}
	if actors == nil {
		actors = map[string]float64{}
	}
	if directors == nil {
		directors = map[string]float64{}
	}
	return &recommend.PersonProfile{Actors: actors, Directors: directors}
}

// RebuildPersonProfile recomputes one user's person profile from history
// and stored credits.
func (db *DB) RebuildPersonProfile(ctx context.Context, userID int64) error {
	profile, err := db.BuildPersonProfile(ctx, userID)
	if err != nil {
		return err
	}
	return db.SetPersonProfile(ctx, userID, profile)
}

// RebuildPersonProfiles rebuilds the person profile of every user and
// returns the number of users processed.
func (db *DB) RebuildPersonProfiles(ctx context.Context) (int, error) {
	return db.rebuildForAllUsers(ctx, "person", db.RebuildPersonProfile)
}
