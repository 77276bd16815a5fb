// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/cinematch/internal/database/query"
	"github.com/tomtom215/cinematch/internal/recommend"
)

// Person roles stored in person_profiles.role.
const (
	RoleActor    = "actor"
	RoleDirector = "director"
)

// unratedItemWeight is the contribution of an unrated watched item to its
// genres and credited people. Rated items contribute rating/10.
const unratedItemWeight = 0.5

type scoredName struct {
	name  string
	score float64
}

func scanScoredName(s scanner) (scoredName, error) {
	var sn scoredName
	err := s.Scan(&sn.name, &sn.score)
	return sn, err
}

// GenreProfile returns a user's genre affinities, or nil when none exist.
func (db *DB) GenreProfile(ctx context.Context, userID int64) (recommend.GenreProfile, error) {
	rows, err := queryAndScan(ctx, db, "genre_profile", "genre_profiles",
		`SELECT genre, score FROM genre_profiles WHERE user_id = ? ORDER BY genre`,
		[]interface{}{userID}, scanScoredName)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	profile := make(recommend.GenreProfile, len(rows))
	for _, r := range rows {
		profile[r.name] = r.score
	}
	return profile, nil
}

// PersonProfile returns a user's actor and director affinities, or nil when
// none exist.
func (db *DB) PersonProfile(ctx context.Context, userID int64) (*recommend.PersonProfile, error) {
	type roleRow struct {
		role string
		scoredName
	}
	rows, err := queryAndScan(ctx, db, "person_profile", "person_profiles",
		`SELECT role, name, score FROM person_profiles WHERE user_id = ? ORDER BY role, name`,
		[]interface{}{userID},
		func(s scanner) (roleRow, error) {
			var r roleRow
			err := s.Scan(&r.role, &r.name, &r.score)
			return r, err
		})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	profile := &recommend.PersonProfile{
		Actors:    map[string]float64{},
		Directors: map[string]float64{},
	}
	for _, r := range rows {
		switch r.role {
		case RoleActor:
			profile.Actors[r.name] = r.score
		case RoleDirector:
			profile.Directors[r.name] = r.score
		}
	}
	return profile, nil
}

// TypeProfile computes the share of each media type among the user's
// watched items, as percentages. Nil when the user has watched nothing.
func (db *DB) TypeProfile(ctx context.Context, userID int64) (recommend.TypeProfile, error) {
	ids := recommend.WatchedLike.IDs()
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := queryAndScan(ctx, db, "type_profile", "watchlist_items",
		fmt.Sprintf(`SELECT media_type, COUNT(*)::DOUBLE FROM watchlist_items
			WHERE user_id = ? AND status_id IN (%s) AND %s
			GROUP BY media_type ORDER BY media_type`, query.Placeholders(len(ids)), activeItem),
		args, scanScoredName)
	if err != nil {
		return nil, err
	}

	var total float64
	for _, r := range rows {
		total += r.score
	}
	if total == 0 {
		return nil, nil
	}

	profile := make(recommend.TypeProfile, len(rows))
	for _, r := range rows {
		profile[recommend.MediaType(r.name)] = r.score / total * 100
	}
	return profile, nil
}

// SetGenreProfile replaces a user's genre profile.
func (db *DB) SetGenreProfile(ctx context.Context, userID int64, profile recommend.GenreProfile) error {
	names := make([]scoredName, 0, len(profile))
	for genre, score := range profile {
		names = append(names, scoredName{name: genre, score: score})
	}
	return db.replaceProfileRows(ctx, "set_genre_profile", "genre_profiles",
		`DELETE FROM genre_profiles WHERE user_id = ?`,
		`INSERT INTO genre_profiles (user_id, genre, score, updated_at) VALUES (?, ?, ?, ?)`,
		userID, names, nil)
}

// SetPersonProfile replaces a user's actor and director profile.
func (db *DB) SetPersonProfile(ctx context.Context, userID int64, profile *recommend.PersonProfile) error {
	var names []scoredName
	var roles []string
	if profile != nil {
		for name, score := range profile.Actors {
			names = append(names, scoredName{name: name, score: score})
			roles = append(roles, RoleActor)
		}
		for name, score := range profile.Directors {
			names = append(names, scoredName{name: name, score: score})
			roles = append(roles, RoleDirector)
		}
	}
	return db.replaceProfileRows(ctx, "set_person_profile", "person_profiles",
		`DELETE FROM person_profiles WHERE user_id = ?`,
		`INSERT INTO person_profiles (user_id, role, name, score, updated_at) VALUES (?, ?, ?, ?, ?)`,
		userID, names, roles)
}

// replaceProfileRows deletes a user's rows and inserts the replacements in
// one transaction. When roles is non-nil it is inserted before each name.
func (db *DB) replaceProfileRows(ctx context.Context, operation, table, deleteSQL, insertSQL string,
	userID int64, rows []scoredName, roles []string) error {
	updatedAt := toDBTime(db.now())

	return withConflictRetry(ctx, operation, func() (err error) {
		ctx, cancel := db.ensureContext(ctx)
		defer cancel()

		start := time.Now()
		defer func() { recordTx(operation, table, start, err) }()

		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("%s: begin: %w", operation, err)
		}
		defer rollbackUnlessCommitted(tx, &err)

		if _, err = tx.ExecContext(ctx, deleteSQL, userID); err != nil {
			return fmt.Errorf("%s: delete: %w", operation, err)
		}
		for i, r := range rows {
			args := []interface{}{userID}
			if roles != nil {
				args = append(args, roles[i])
			}
			args = append(args, r.name, r.score, updatedAt)
			if _, err = tx.ExecContext(ctx, insertSQL, args...); err != nil {
				return fmt.Errorf("%s: insert: %w", operation, err)
			}
		}
		if err = tx.Commit(); err != nil {
			return fmt.Errorf("%s: commit: %w", operation, err)
		}
		return nil
	})
}

// BuildGenreProfile derives genre affinities from watched items. Each item
// adds rating/10 (or 0.5 when unrated) to each of its genres, and scores are
// scaled so the strongest genre is 100. Nil when no genres are known.
func BuildGenreProfile(items []recommend.WatchListItem) recommend.GenreProfile {
	sums := make(map[string]float64)
	for i := range items {
		weight := unratedItemWeight
		if items[i].Rating != nil {
			weight = float64(*items[i].Rating) / 10
		}
		for _, g := range items[i].Genres {
			sums[g] += weight
		}
	}
	return scaleToPercent(sums)
}

// scaleToPercent scales sums so the largest is 100. Nil when no sum is
// positive.
func scaleToPercent(sums map[string]float64) map[string]float64 {
	var maxSum float64
	for _, s := range sums {
		if s > maxSum {
			maxSum = s
		}
	}
	if maxSum == 0 {
		return nil
	}

	scaled := make(map[string]float64, len(sums))
	for name, s := range sums {
		scaled[name] = s / maxSum * 100
	}
	return scaled
}

// RebuildGenreProfile recomputes one user's genre profile from history.
func (db *DB) RebuildGenreProfile(ctx context.Context, userID int64) error {
	items, err := db.FindItems(ctx, userID, recommend.ItemQuery{Statuses: recommend.WatchedLike})
	if err != nil {
		return err
	}
	return db.SetGenreProfile(ctx, userID, BuildGenreProfile(items))
}

// ListUsers returns every user with at least one list entry.
func (db *DB) ListUsers(ctx context.Context) ([]int64, error) {
	return queryAndScan(ctx, db, "list_users", "watchlist_items",
		`SELECT DISTINCT user_id FROM watchlist_items WHERE `+activeItem+` ORDER BY user_id`, nil,
		func(s scanner) (int64, error) {
			var id int64
			err := s.Scan(&id)
			return id, err
		})
}

// RebuildGenreProfiles rebuilds the genre profile of every user and returns
// the number of users processed.
func (db *DB) RebuildGenreProfiles(ctx context.Context) (int, error) {
	return db.rebuildForAllUsers(ctx, "genre", db.RebuildGenreProfile)
}

// rebuildForAllUsers runs rebuild for every listed user and returns how many
// completed.
func (db *DB) rebuildForAllUsers(ctx context.Context, kind string, rebuild func(context.Context, int64) error) (int, error) {
	users, err := db.ListUsers(ctx)
	if err != nil {
		return 0, err
	}
	for i, uid := range users {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := rebuild(ctx, uid); err != nil {
			return i, fmt.Errorf("rebuild %s profile for user %d: %w", kind, uid, err)
		}
	}
	return len(users), nil
}

// rollbackUnlessCommitted rolls back tx when *errp is set.
func rollbackUnlessCommitted(tx *sql.Tx, errp *error) {
	if *errp != nil {
		_ = tx.Rollback() //nolint:errcheck // rollback on error path
	}
}
