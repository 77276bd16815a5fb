// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package database

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/tomtom215/cinematch/internal/logging"
)

// closeQuietly closes a resource, ignoring errors.
// Use for cleanup on error paths where the primary error is already being returned.
func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close() //nolint:errcheck // cleanup on error path
	}
}

// closeWithLog closes a resource and logs failures.
func closeWithLog(c io.Closer, what string) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logging.Warn().Err(err).Str("resource", what).Msg("Failed to close resource")
	}
}

// isTransactionConflict reports whether err is a DuckDB write-write conflict.
// DuckDB uses optimistic concurrency, so concurrent upserts on the same row
// fail with a conflict that is safe to retry.
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Transaction conflict") ||
		strings.Contains(msg, "write-write conflict") ||
		strings.Contains(msg, "Conflict on update")
}

const (
	conflictRetryAttempts = 5
	conflictRetryDelay    = 10 * time.Millisecond
)

// withConflictRetry runs fn, retrying transaction conflicts with backoff.
func withConflictRetry(ctx context.Context, op string, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(conflictRetryAttempts),
		retry.Delay(conflictRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransactionConflict),
		retry.OnRetry(func(n uint, err error) {
			logging.Debug().Err(err).Str("operation", op).Uint("attempt", n+1).Msg("Retrying after transaction conflict")
		}),
	)
}
