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

	"github.com/tomtom215/cinematch/internal/metrics"
)

// scanner is satisfied by *sql.Rows and *sql.Row.
type scanner interface {
	Scan(dest ...interface{}) error
}

// queryAndScan runs a query and scans every row with scanFn.
// The timing and error are recorded against operation/table.
func queryAndScan[T any](ctx context.Context, db *DB, operation, table, query string, args []interface{}, scanFn func(scanner) (T, error)) (results []T, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { metrics.RecordDBQuery(operation, table, time.Since(start), err) }()

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query failed: %w", operation, err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		item, scanErr := scanFn(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("%s: scan failed: %w", operation, scanErr)
		}
		results = append(results, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration failed: %w", operation, err)
	}
	return results, nil
}

// execTimed runs a statement and records its timing.
func (db *DB) execTimed(ctx context.Context, operation, table, query string, args ...interface{}) (res sql.Result, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { metrics.RecordDBQuery(operation, table, time.Since(start), err) }()

	res, err = db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return res, nil
}

// nullTime converts a nullable timestamp column to a pointer in UTC.
func nullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

// nullInt converts a nullable integer column to a pointer.
func nullInt(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}

// toDBTime normalizes a time for TIMESTAMP columns.
func toDBTime(t time.Time) time.Time {
	return t.UTC()
}

// recordTx records a transaction's timing.
func recordTx(operation, table string, start time.Time, err error) {
	metrics.RecordDBQuery(operation, table, time.Since(start), err)
}
