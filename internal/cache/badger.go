// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/cinematch/internal/metrics"
)

const badgerMetricLabel = "badger"

// BadgerStore is a Store backed by BadgerDB. Expiry uses badger's entry TTL,
// which has one-second resolution.
type BadgerStore struct {
	db     *badger.DB
	prefix string
	owned  bool
}

var _ Store = (*BadgerStore)(nil)

// OpenBadger opens a BadgerDB at path. An empty path runs in memory.
func OpenBadger(path, keyPrefix string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}
	return &BadgerStore{db: db, prefix: keyPrefix, owned: true}, nil
}

// NewBadgerStore wraps an existing database. Close does not close it.
func NewBadgerStore(db *badger.DB, keyPrefix string) *BadgerStore {
	return &BadgerStore{db: db, prefix: keyPrefix}
}

// Get implements Store.
func (s *BadgerStore) Get(_ context.Context, key string) (string, bool, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		metrics.RecordCacheLookup(badgerMetricLabel, false)
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("badger get: %w", err)
	}

	metrics.RecordCacheLookup(badgerMetricLabel, true)
	return string(value), true, nil
}

// Set implements Store.
func (s *BadgerStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(s.key(key), []byte(value))
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("badger set: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *BadgerStore) Delete(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.key(key))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("badger delete: %w", err)
	}
	return nil
}

// Close implements Store. Databases passed to NewBadgerStore stay open.
func (s *BadgerStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// RunValueLogGC reclaims value log space. It returns nil when there was
// nothing to collect.
func (s *BadgerStore) RunValueLogGC(discardRatio float64) error {
	if s.db.Opts().InMemory {
		return nil
	}
	err := s.db.RunValueLogGC(discardRatio)
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return err
}

func (s *BadgerStore) key(key string) []byte {
	return []byte(s.prefix + key)
}
