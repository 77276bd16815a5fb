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

const logColumns = `id, user_id, external_id, media_type, title, algorithm, score, action, context, shown_at`

// InsertLogEntries appends shown recommendations in one transaction.
func (db *DB) InsertLogEntries(ctx context.Context, entries []recommend.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	contexts := make([]interface{}, len(entries))
	for i := range entries {
		if len(entries[i].Context) == 0 {
			continue
		}
		raw, err := json.Marshal(entries[i].Context)
		if err != nil {
			return fmt.Errorf("encode log context for %s: %w", entries[i].ID, err)
		}
		contexts[i] = string(raw)
	}

	return withConflictRetry(ctx, "insert_log_entries", func() (err error) {
		ctx, cancel := db.ensureContext(ctx)
		defer cancel()

		start := time.Now()
		defer func() { recordTx("insert_log_entries", "recommendation_log", start, err) }()

		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("insert_log_entries: begin: %w", err)
		}
		defer rollbackUnlessCommitted(tx, &err)

		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
			`INSERT INTO recommendation_log (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, logColumns))
		if err != nil {
			return fmt.Errorf("insert_log_entries: prepare: %w", err)
		}
		defer closeWithLog(stmt, "statement")

		for i := range entries {
			e := &entries[i]
			action := e.Action
			if action == "" {
				action = recommend.ActionShown
			}
			_, err = stmt.ExecContext(ctx, e.ID, e.UserID, e.Key.ExternalID, string(e.Key.MediaType),
				e.Title, e.Algorithm, e.Score, string(action), contexts[i], toDBTime(e.ShownAt))
			if err != nil {
				return fmt.Errorf("insert_log_entries: insert %s: %w", e.ID, err)
			}
		}

		if err = tx.Commit(); err != nil {
			return fmt.Errorf("insert_log_entries: commit: %w", err)
		}
		return nil
	})
}

// ShownSince returns the distinct content keys shown to userID at or after since.
func (db *DB) ShownSince(ctx context.Context, userID int64, since time.Time) ([]recommend.ContentKey, error) {
	return queryAndScan(ctx, db, "shown_since", "recommendation_log",
		`SELECT DISTINCT external_id, media_type FROM recommendation_log
		WHERE user_id = ? AND shown_at >= ? ORDER BY external_id, media_type`,
		[]interface{}{userID, toDBTime(since)},
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

func scanLogEntry(s scanner) (recommend.LogEntry, error) {
	var (
		e         recommend.LogEntry
		mediaType string
		action    string
		rawCtx    sql.NullString
	)
	err := s.Scan(&e.ID, &e.UserID, &e.Key.ExternalID, &mediaType, &e.Title, &e.Algorithm,
		&e.Score, &action, &rawCtx, &e.ShownAt)
	if err != nil {
		return e, err
	}
	e.Key.MediaType = recommend.MediaType(mediaType)
	e.Action = recommend.Action(action)
	e.ShownAt = e.ShownAt.UTC()
	if rawCtx.Valid && rawCtx.String != "" {
		if err := json.Unmarshal([]byte(rawCtx.String), &e.Context); err != nil {
			return e, fmt.Errorf("decode log context: %w", err)
		}
	}
	return e, nil
}

// GetLogEntry returns a log entry by ID, or recommend.ErrNotFound.
func (db *DB) GetLogEntry(ctx context.Context, id string) (entry *recommend.LogEntry, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() {
		// a missing row is not a query failure
		recErr := err
		if errors.Is(recErr, recommend.ErrNotFound) {
			recErr = nil
		}
		recordTx("get_log_entry", "recommendation_log", start, recErr)
	}()

	row := db.conn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM recommendation_log WHERE id = ?`, logColumns), id)
	e, err := scanLogEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, recommend.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get_log_entry: %w", err)
	}
	return &e, nil
}

// RecentLogEntries returns a user's most recently shown entries.
func (db *DB) RecentLogEntries(ctx context.Context, userID int64, limit int) ([]recommend.LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return queryAndScan(ctx, db, "recent_log_entries", "recommendation_log",
		fmt.Sprintf(`SELECT %s FROM recommendation_log WHERE user_id = ?
			ORDER BY shown_at DESC, id LIMIT ?`, logColumns),
		[]interface{}{userID, limit}, scanLogEntry)
}

// UpdateLogAction overwrites the action of a log entry.
func (db *DB) UpdateLogAction(ctx context.Context, id string, action recommend.Action) error {
	if !action.Valid() {
		return fmt.Errorf("invalid action %q", action)
	}
	res, err := db.execTimed(ctx, "update_log_action", "recommendation_log",
		`UPDATE recommendation_log SET action = ? WHERE id = ?`, string(action), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update_log_action: rows affected: %w", err)
	}
	if n == 0 {
		return recommend.ErrNotFound
	}
	return nil
}

// InsertEvent appends an outcome event.
func (db *DB) InsertEvent(ctx context.Context, event recommend.Event) error {
	var rating interface{}
	if event.Rating != nil {
		rating = *event.Rating
	}
	_, err := db.execTimed(ctx, "insert_event", "recommendation_events",
		`INSERT INTO recommendation_events (id, log_id, event_type, rating, created_at) VALUES (?, ?, ?, ?, ?)`,
		event.ID, event.LogID, string(event.Type), rating, toDBTime(event.CreatedAt))
	return err
}

// EventsForLog returns the events of one log entry, oldest first.
func (db *DB) EventsForLog(ctx context.Context, logID string) ([]recommend.Event, error) {
	return queryAndScan(ctx, db, "events_for_log", "recommendation_events",
		`SELECT id, log_id, event_type, rating, created_at FROM recommendation_events
		WHERE log_id = ? ORDER BY created_at, id`,
		[]interface{}{logID},
		func(s scanner) (recommend.Event, error) {
			var (
				e         recommend.Event
				eventType string
				rating    sql.NullInt64
			)
			err := s.Scan(&e.ID, &e.LogID, &eventType, &rating, &e.CreatedAt)
			e.Type = recommend.EventType(eventType)
			e.Rating = nullInt(rating)
			e.CreatedAt = e.CreatedAt.UTC()
			return e, err
		})
}

// AggregateOutcomes counts shown entries and their events per algorithm.
// The range bounds the log entries' shown time.
//
//nolint:gocritic // hugeParam: OutcomeQuery passed by value to match the store interface
func (db *DB) AggregateOutcomes(ctx context.Context, q recommend.OutcomeQuery) ([]recommend.AlgorithmOutcomes, error) {
	wb := query.NewWhereBuilder()
	if q.UserID != 0 {
		wb.AddEq("user_id", q.UserID)
	}
	if q.Algorithm != "" {
		wb.AddEq("algorithm", q.Algorithm)
	}
	if q.Range != nil {
		wb.AddTimeRange("shown_at", &q.Range.From, &q.Range.To)
	}
	where, args := wb.Build()

	sqlQuery := fmt.Sprintf(`WITH logs AS (
			SELECT id, algorithm FROM recommendation_log WHERE %s
		)
		SELECT
			l.algorithm,
			COUNT(DISTINCT l.id) AS shown,
			COUNT(e.id) FILTER (WHERE e.event_type = 'added') AS added,
			COUNT(e.id) FILTER (WHERE e.event_type = 'rated') AS rated,
			COUNT(e.id) FILTER (WHERE e.event_type = 'ignored') AS ignored,
			COUNT(e.id) FILTER (WHERE e.event_type = 'dropped') AS dropped,
			COUNT(e.id) FILTER (WHERE e.event_type = 'hidden') AS hidden
		FROM logs l
		LEFT JOIN recommendation_events e ON e.log_id = l.id
		GROUP BY l.algorithm
		ORDER BY l.algorithm`, where)

	return queryAndScan(ctx, db, "aggregate_outcomes", "recommendation_log", sqlQuery, args,
		func(s scanner) (recommend.AlgorithmOutcomes, error) {
			var o recommend.AlgorithmOutcomes
			err := s.Scan(&o.Algorithm, &o.Shown, &o.Added, &o.Rated, &o.Ignored, &o.Dropped, &o.Hidden)
			return o, err
		})
}
