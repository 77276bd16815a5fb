// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cinematch/internal/database/query"
	"github.com/tomtom215/cinematch/internal/recommend"
)

const watchlistColumns = `user_id, external_id, media_type, title, status_id, rating, popularity,
	genres, added_at, last_recommended_at, rec_count, watch_count`

// orderClause returns the ORDER BY body for an item query.
func orderClause(order recommend.ItemOrder) string {
	if order == recommend.OrderRecent {
		return "added_at DESC, external_id, media_type"
	}
	return "rating DESC NULLS LAST, popularity DESC, external_id, media_type"
}

func scanWatchListItem(s scanner) (recommend.WatchListItem, error) {
	var (
		item      recommend.WatchListItem
		mediaType string
		statusID  int
		rating    sql.NullInt64
		genres    string
		lastRec   sql.NullTime
	)
	err := s.Scan(&item.UserID, &item.Key.ExternalID, &mediaType, &item.Title, &statusID,
		&rating, &item.Popularity, &genres, &item.AddedAt, &lastRec, &item.RecCount, &item.WatchCount)
	if err != nil {
		return item, err
	}
	item.Key.MediaType = recommend.MediaType(mediaType)
	item.Status = recommend.WatchStatus(statusID)
	item.Rating = nullInt(rating)
	item.AddedAt = item.AddedAt.UTC()
	item.LastRecommendedAt = nullTime(lastRec)
	if genres != "" {
		if err := json.Unmarshal([]byte(genres), &item.Genres); err != nil {
			return item, fmt.Errorf("decode genres: %w", err)
		}
	}
	return item, nil
}

// activeItem restricts a watchlist_items query to entries not removed.
const activeItem = "removed_at IS NULL"

// itemFilter builds the WHERE clause shared by the item queries. Removed
// entries never match.
//
//nolint:gocritic // hugeParam: ItemQuery passed by value to match the store interface
func itemFilter(q recommend.ItemQuery) *query.WhereBuilder {
	wb := query.NewWhereBuilder()
	wb.AddClause(activeItem)
	if len(q.Statuses) > 0 {
		ids := q.Statuses.IDs()
		args := make([]interface{}, len(ids))
		for i, id := range ids {
			args[i] = id
		}
		wb.AddIn("status_id", args...)
	}
	wb.AddAfter("added_at", q.AddedAfter)
	return wb
}

// CountWatched counts a user's items in the given statuses.
func (db *DB) CountWatched(ctx context.Context, userID int64, statuses recommend.StatusSet) (int, error) {
	wb := itemFilter(recommend.ItemQuery{Statuses: statuses})
	wb.AddEq("user_id", userID)
	where, args := wb.Build()

	counts, err := queryAndScan(ctx, db, "count_watched", "watchlist_items",
		"SELECT COUNT(*) FROM watchlist_items WHERE "+where, args,
		func(s scanner) (int, error) {
			var n int
			err := s.Scan(&n)
			return n, err
		})
	if err != nil {
		return 0, err
	}
	if len(counts) == 0 {
		return 0, nil
	}
	return counts[0], nil
}

// FindItems returns one user's items matching q.
//
//nolint:gocritic // hugeParam: ItemQuery passed by value to match the store interface
func (db *DB) FindItems(ctx context.Context, userID int64, q recommend.ItemQuery) ([]recommend.WatchListItem, error) {
	wb := itemFilter(q)
	wb.AddEq("user_id", userID)
	where, args := wb.Build()

	sqlQuery := fmt.Sprintf("SELECT %s FROM watchlist_items WHERE %s ORDER BY %s",
		watchlistColumns, where, orderClause(q.OrderBy))
	if q.Limit > 0 {
		sqlQuery += " LIMIT ?"
		args = append(args, q.Limit)
	}

	return queryAndScan(ctx, db, "find_items", "watchlist_items", sqlQuery, args, scanWatchListItem)
}

// FindItemsForUsers returns the items of several users. Limit applies per user.
//
//nolint:gocritic // hugeParam: ItemQuery passed by value to match the store interface
func (db *DB) FindItemsForUsers(ctx context.Context, userIDs []int64, q recommend.ItemQuery) ([]recommend.WatchListItem, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	wb := itemFilter(q)
	wb.AddIn("user_id", query.Int64Args(userIDs)...)
	where, args := wb.Build()
	order := orderClause(q.OrderBy)

	var sqlQuery string
	if q.Limit > 0 {
		sqlQuery = fmt.Sprintf(`SELECT %s FROM (
			SELECT *, ROW_NUMBER() OVER (PARTITION BY user_id ORDER BY %s) AS rn
			FROM watchlist_items WHERE %s
		) ranked WHERE rn <= ? ORDER BY user_id, %s`, watchlistColumns, order, where, order)
		args = append(args, q.Limit)
	} else {
		sqlQuery = fmt.Sprintf("SELECT %s FROM watchlist_items WHERE %s ORDER BY user_id, %s",
			watchlistColumns, where, order)
	}

	return queryAndScan(ctx, db, "find_items_for_users", "watchlist_items", sqlQuery, args, scanWatchListItem)
}

// ActiveUsers returns users ordered by their most recent list activity.
func (db *DB) ActiveUsers(ctx context.Context, exclude int64, limit int) ([]int64, error) {
	sqlQuery := `SELECT user_id FROM watchlist_items WHERE user_id <> ? AND ` + activeItem + `
		GROUP BY user_id ORDER BY MAX(added_at) DESC, user_id`
	args := []interface{}{exclude}
	if limit > 0 {
		sqlQuery += " LIMIT ?"
		args = append(args, limit)
	}

	return queryAndScan(ctx, db, "active_users", "watchlist_items", sqlQuery, args,
		func(s scanner) (int64, error) {
			var id int64
			err := s.Scan(&id)
			return id, err
		})
}

// itemState is the stored status and rating of a list entry.
type itemState struct {
	status  recommend.WatchStatus
	rating  *int
	removed bool
}

// loadItemState reads the current state of one entry inside tx. Nil when
// the entry has never been stored.
func loadItemState(ctx context.Context, tx *sql.Tx, userID int64, key recommend.ContentKey) (*itemState, error) {
	var (
		statusID int
		rating   sql.NullInt64
		removed  sql.NullTime
	)
	err := tx.QueryRowContext(ctx,
		`SELECT status_id, rating, removed_at FROM watchlist_items
		WHERE user_id = ? AND external_id = ? AND media_type = ?`,
		userID, key.ExternalID, string(key.MediaType)).Scan(&statusID, &rating, &removed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &itemState{
		status:  recommend.WatchStatus(statusID),
		rating:  nullInt(rating),
		removed: removed.Valid,
	}, nil
}

func statusArg(s *recommend.WatchStatus) interface{} {
	if s == nil {
		return nil
	}
	return int(*s)
}

func ratingArg(r *int) interface{} {
	if r == nil {
		return nil
	}
	return *r
}

func sameRating(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func insertStatusChange(ctx context.Context, tx *sql.Tx, userID int64, key recommend.ContentKey, from, to *recommend.WatchStatus, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO watchlist_status_history (user_id, external_id, media_type, old_status_id, new_status_id, changed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		userID, key.ExternalID, string(key.MediaType), statusArg(from), statusArg(to), toDBTime(at))
	return err
}

func insertRatingChange(ctx context.Context, tx *sql.Tx, userID int64, key recommend.ContentKey, from, to *int, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO watchlist_rating_history (user_id, external_id, media_type, old_rating, new_rating, changed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		userID, key.ExternalID, string(key.MediaType), ratingArg(from), ratingArg(to), toDBTime(at))
	return err
}

// UpsertWatchListItem inserts an item or replaces the mutable fields of an
// existing (user, key) entry. Recommendation counters are preserved. Status
// and rating transitions are recorded in the same transaction. Re-adding a
// removed entry restores it with the new added_at.
func (db *DB) UpsertWatchListItem(ctx context.Context, item *recommend.WatchListItem) error {
	if !item.Key.MediaType.Valid() {
		return fmt.Errorf("invalid media type %q", item.Key.MediaType)
	}
	if !item.Status.Valid() {
		return fmt.Errorf("invalid watch status %d", item.Status)
	}

	genres := item.Genres
	if genres == nil {
		genres = []string{}
	}
	genresJSON, err := json.Marshal(genres)
	if err != nil {
		return fmt.Errorf("encode genres: %w", err)
	}

	now := db.now()
	addedAt := item.AddedAt
	if addedAt.IsZero() {
		addedAt = now
	}
	key := item.Key
	status := item.Status

	const operation = "upsert_item"
	return withConflictRetry(ctx, operation, func() (err error) {
		ctx, cancel := db.ensureContext(ctx)
		defer cancel()

		start := time.Now()
		defer func() { recordTx(operation, "watchlist_items", start, err) }()

		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("%s: begin: %w", operation, err)
		}
		defer rollbackUnlessCommitted(tx, &err)

		prev, err := loadItemState(ctx, tx, item.UserID, key)
		if err != nil {
			return fmt.Errorf("%s: load: %w", operation, err)
		}

		if prev == nil {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO watchlist_items (user_id, external_id, media_type, title, status_id, rating,
					popularity, genres, added_at, watch_count)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				item.UserID, key.ExternalID, string(key.MediaType), item.Title, int(status),
				ratingArg(item.Rating), item.Popularity, string(genresJSON), toDBTime(addedAt), item.WatchCount)
		} else {
			_, err = tx.ExecContext(ctx,
				`UPDATE watchlist_items SET title = ?, status_id = ?, rating = ?, popularity = ?,
					genres = ?, watch_count = ?,
					added_at = CASE WHEN removed_at IS NULL THEN added_at ELSE ? END,
					removed_at = NULL
				WHERE user_id = ? AND external_id = ? AND media_type = ?`,
				item.Title, int(status), ratingArg(item.Rating), item.Popularity,
				string(genresJSON), item.WatchCount, toDBTime(addedAt),
				item.UserID, key.ExternalID, string(key.MediaType))
		}
		if err != nil {
			return fmt.Errorf("%s: write: %w", operation, err)
		}

		// a removed entry counts as absent for both histories
		var oldStatus *recommend.WatchStatus
		var oldRating *int
		if prev != nil && !prev.removed {
			oldStatus = &prev.status
			oldRating = prev.rating
		}
		if oldStatus == nil || *oldStatus != status {
			if err = insertStatusChange(ctx, tx, item.UserID, key, oldStatus, &status, now); err != nil {
				return fmt.Errorf("%s: status history: %w", operation, err)
			}
		}
		if !sameRating(oldRating, item.Rating) {
			if err = insertRatingChange(ctx, tx, item.UserID, key, oldRating, item.Rating, now); err != nil {
				return fmt.Errorf("%s: rating history: %w", operation, err)
			}
		}

		if err = tx.Commit(); err != nil {
			return fmt.Errorf("%s: commit: %w", operation, err)
		}
		return nil
	})
}

// DeleteWatchListItem removes an item from a user's list. The row is kept
// with removed_at set so its history stays attached, and the removal is
// recorded as a status change to none.
func (db *DB) DeleteWatchListItem(ctx context.Context, userID int64, key recommend.ContentKey) error {
	now := db.now()

	const operation = "delete_item"
	return withConflictRetry(ctx, operation, func() (err error) {
		ctx, cancel := db.ensureContext(ctx)
		defer cancel()

		start := time.Now()
		defer func() { recordTx(operation, "watchlist_items", start, err) }()

		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("%s: begin: %w", operation, err)
		}
		defer rollbackUnlessCommitted(tx, &err)

		prev, err := loadItemState(ctx, tx, userID, key)
		if err != nil {
			return fmt.Errorf("%s: load: %w", operation, err)
		}
		if prev == nil || prev.removed {
			return recommend.ErrNotFound
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE watchlist_items SET removed_at = ?
			WHERE user_id = ? AND external_id = ? AND media_type = ?`,
			toDBTime(now), userID, key.ExternalID, string(key.MediaType))
		if err != nil {
			return fmt.Errorf("%s: update: %w", operation, err)
		}
		if err = insertStatusChange(ctx, tx, userID, key, &prev.status, nil, now); err != nil {
			return fmt.Errorf("%s: status history: %w", operation, err)
		}

		if err = tx.Commit(); err != nil {
			return fmt.Errorf("%s: commit: %w", operation, err)
		}
		return nil
	})
}

// WatchListHistory returns the recorded status and rating changes of one
// entry, oldest first. Removed entries keep their history. ErrNotFound when
// nothing was ever recorded for the key.
func (db *DB) WatchListHistory(ctx context.Context, userID int64, key recommend.ContentKey) (*recommend.WatchListHistory, error) {
	args := []interface{}{userID, key.ExternalID, string(key.MediaType)}

	statuses, err := queryAndScan(ctx, db, "status_history", "watchlist_status_history",
		`SELECT old_status_id, new_status_id, changed_at FROM watchlist_status_history
		WHERE user_id = ? AND external_id = ? AND media_type = ?
		ORDER BY id`, args,
		func(s scanner) (recommend.StatusChange, error) {
			var (
				c        recommend.StatusChange
				from, to sql.NullInt64
			)
			if err := s.Scan(&from, &to, &c.ChangedAt); err != nil {
				return c, err
			}
			c.From = nullStatus(from)
			c.To = nullStatus(to)
			c.ChangedAt = c.ChangedAt.UTC()
			return c, nil
		})
	if err != nil {
		return nil, err
	}

	ratings, err := queryAndScan(ctx, db, "rating_history", "watchlist_rating_history",
		`SELECT old_rating, new_rating, changed_at FROM watchlist_rating_history
		WHERE user_id = ? AND external_id = ? AND media_type = ?
		ORDER BY id`, args,
		func(s scanner) (recommend.RatingChange, error) {
			var (
				c        recommend.RatingChange
				from, to sql.NullInt64
			)
			if err := s.Scan(&from, &to, &c.ChangedAt); err != nil {
				return c, err
			}
			c.From = nullInt(from)
			c.To = nullInt(to)
			c.ChangedAt = c.ChangedAt.UTC()
			return c, nil
		})
	if err != nil {
		return nil, err
	}

	if len(statuses) == 0 && len(ratings) == 0 {
		return nil, recommend.ErrNotFound
	}
	if statuses == nil {
		statuses = []recommend.StatusChange{}
	}
	if ratings == nil {
		ratings = []recommend.RatingChange{}
	}
	return &recommend.WatchListHistory{Key: key, Statuses: statuses, Ratings: ratings}, nil
}

func nullStatus(v sql.NullInt64) *recommend.WatchStatus {
	if !v.Valid {
		return nil
	}
	s := recommend.WatchStatus(v.Int64)
	return &s
}

// MarkRecommended stamps last_recommended_at and bumps rec_count for the
// given keys that are already on the user's list.
func (db *DB) MarkRecommended(ctx context.Context, userID int64, keys []recommend.ContentKey, at time.Time) error {
	for _, key := range keys {
		_, err := db.execTimed(ctx, "mark_recommended", "watchlist_items",
			`UPDATE watchlist_items SET last_recommended_at = ?, rec_count = rec_count + 1
			WHERE user_id = ? AND external_id = ? AND media_type = ? AND `+activeItem,
			toDBTime(at), userID, key.ExternalID, string(key.MediaType))
		if err != nil {
			return err
		}
	}
	return nil
}
