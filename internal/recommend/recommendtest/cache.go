// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package recommendtest

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/cinematch/internal/recommend"
)

// Cache is a map-backed recommend.ResultCache that records TTLs instead of
// expiring entries.
type Cache struct {
	mu      sync.Mutex
	entries map[string]string
	ttls    map[string]time.Duration

	// Err is returned by every method when set.
	Err error
}

var _ recommend.ResultCache = (*Cache)(nil)

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]string),
		ttls:    make(map[string]time.Duration),
	}
}

// Get implements recommend.ResultCache.
func (c *Cache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return "", false, c.Err
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

// Set implements recommend.ResultCache.
func (c *Cache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}

// Delete implements recommend.ResultCache.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	delete(c.entries, key)
	delete(c.ttls, key)
	return nil
}

// TTL returns the TTL the key was stored with.
func (c *Cache) TTL(key string) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ttl, ok := c.ttls[key]
	return ttl, ok
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Put stores a raw value, bypassing Err.
func (c *Cache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Keys returns the stored keys in no particular order.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}
