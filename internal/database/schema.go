// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/cinematch/internal/recommend"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

var tableCreationQueries = []string{
	`CREATE TABLE IF NOT EXISTS watch_statuses (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	);`,

	`CREATE TABLE IF NOT EXISTS watchlist_items (
		user_id BIGINT NOT NULL,
		external_id BIGINT NOT NULL,
		media_type TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		status_id INTEGER NOT NULL,
		rating INTEGER,
		popularity DOUBLE NOT NULL DEFAULT 0,
		genres TEXT NOT NULL DEFAULT '[]',
		added_at TIMESTAMP NOT NULL,
		last_recommended_at TIMESTAMP,
		rec_count INTEGER NOT NULL DEFAULT 0,
		watch_count INTEGER NOT NULL DEFAULT 0,
		removed_at TIMESTAMP,
		PRIMARY KEY (user_id, external_id, media_type)
	);`,

	`CREATE SEQUENCE IF NOT EXISTS watchlist_history_seq START 1;`,

	`CREATE TABLE IF NOT EXISTS watchlist_status_history (
		id BIGINT PRIMARY KEY DEFAULT nextval('watchlist_history_seq'),
		user_id BIGINT NOT NULL,
		external_id BIGINT NOT NULL,
		media_type TEXT NOT NULL,
		old_status_id INTEGER,
		new_status_id INTEGER,
		changed_at TIMESTAMP NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS watchlist_rating_history (
		id BIGINT PRIMARY KEY DEFAULT nextval('watchlist_history_seq'),
		user_id BIGINT NOT NULL,
		external_id BIGINT NOT NULL,
		media_type TEXT NOT NULL,
		old_rating INTEGER,
		new_rating INTEGER,
		changed_at TIMESTAMP NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS genre_profiles (
		user_id BIGINT NOT NULL,
		genre TEXT NOT NULL,
		score DOUBLE NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, genre)
	);`,

	`CREATE TABLE IF NOT EXISTS person_profiles (
		user_id BIGINT NOT NULL,
		role TEXT NOT NULL,
		name TEXT NOT NULL,
		score DOUBLE NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, role, name)
	);`,

	`CREATE TABLE IF NOT EXISTS content_credits (
		external_id BIGINT NOT NULL,
		media_type TEXT NOT NULL,
		role TEXT NOT NULL,
		name TEXT NOT NULL,
		billing INTEGER NOT NULL,
		PRIMARY KEY (external_id, media_type, role, name)
	);`,

	`CREATE TABLE IF NOT EXISTS content_credits_fetched (
		external_id BIGINT NOT NULL,
		media_type TEXT NOT NULL,
		fetched_at TIMESTAMP NOT NULL,
		PRIMARY KEY (external_id, media_type)
	);`,

	`CREATE TABLE IF NOT EXISTS recommendation_log (
		id TEXT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		external_id BIGINT NOT NULL,
		media_type TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		algorithm TEXT NOT NULL,
		score DOUBLE NOT NULL,
		action TEXT NOT NULL DEFAULT 'shown',
		context TEXT,
		shown_at TIMESTAMP NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS recommendation_events (
		id TEXT PRIMARY KEY,
		log_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		rating INTEGER,
		created_at TIMESTAMP NOT NULL
	);`,
}

// createIndexes creates indexes for the store queries
func (db *DB) createIndexes() error {
	if db.cfg.SkipIndexes {
		return nil
	}

	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_watchlist_user_status ON watchlist_items(user_id, status_id);`,
		`CREATE INDEX IF NOT EXISTS idx_watchlist_added ON watchlist_items(added_at);`,
		`CREATE INDEX IF NOT EXISTS idx_log_user_shown ON recommendation_log(user_id, shown_at);`,
		`CREATE INDEX IF NOT EXISTS idx_events_log ON recommendation_events(log_id);`,
	}
	for _, idx := range indexes {
		if _, err := db.conn.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", idx, err)
		}
	}
	return nil
}

// seedStatusCatalog writes the watch status catalog rows.
func (db *DB) seedStatusCatalog() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for id, name := range recommend.StatusCatalog() {
		_, err := db.conn.ExecContext(ctx,
			`INSERT INTO watch_statuses (id, name) VALUES (?, ?) ON CONFLICT (id) DO NOTHING`,
			int(id), name)
		if err != nil {
			return fmt.Errorf("failed to seed status %s: %w", name, err)
		}
	}
	return nil
}

// StatusCatalog returns the status catalog as stored.
func (db *DB) StatusCatalog(ctx context.Context) (map[recommend.WatchStatus]string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT id, name FROM watch_statuses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query status catalog: %w", err)
	}
	defer rows.Close()

	catalog := make(map[recommend.WatchStatus]string)
	for rows.Next() {
		var (
			id   int
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		catalog[recommend.WatchStatus(id)] = name
	}
	return catalog, rows.Err()
}
