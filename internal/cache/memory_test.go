// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestMemoryStore(capacity int) (*MemoryStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(capacity)
	s.now = clock.Now
	return s, clock
}

func TestMemoryStore_GetSetDelete(t *testing.T) {
	t.Parallel()

	s, _ := newTestMemoryStore(10)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("Get(missing) = %v, %v, want miss without error", ok, err)
	}

	if err := s.Set(ctx, "k", "v1", time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "k", "v2", time.Minute); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || got != "v2" {
		t.Errorf("Get(k) = %q, %v, %v, want v2", got, ok, err)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Error("deleted key still present")
	}

	stats := s.Stats()
	if stats.Hits != 1 || stats.Misses != 2 {
		t.Errorf("Stats = %+v, want 1 hit and 2 misses", stats)
	}
	if rate := stats.HitRate(); rate < 33.3 || rate > 33.4 {
		t.Errorf("HitRate() = %f", rate)
	}
}

func TestMemoryStore_TTL(t *testing.T) {
	t.Parallel()

	s, clock := newTestMemoryStore(10)
	ctx := context.Background()

	_ = s.Set(ctx, "short", "a", time.Minute)
	_ = s.Set(ctx, "forever", "b", 0)

	clock.Advance(59 * time.Second)
	if _, ok, _ := s.Get(ctx, "short"); !ok {
		t.Error("entry expired early")
	}

	clock.Advance(2 * time.Second)
	if _, ok, _ := s.Get(ctx, "short"); ok {
		t.Error("entry outlived its TTL")
	}
	if _, ok, _ := s.Get(ctx, "forever"); !ok {
		t.Error("entry without TTL expired")
	}
	if s.Stats().Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", s.Stats().Evictions)
	}
}

func TestMemoryStore_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	s, _ := newTestMemoryStore(3)
	ctx := context.Background()

	_ = s.Set(ctx, "a", "1", time.Hour)
	_ = s.Set(ctx, "b", "2", time.Hour)
	_ = s.Set(ctx, "c", "3", time.Hour)

	// Touch a so b becomes the oldest.
	_, _, _ = s.Get(ctx, "a")
	_ = s.Set(ctx, "d", "4", time.Hour)

	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
	if _, ok, _ := s.Get(ctx, "b"); ok {
		t.Error("least recently used entry was not evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok, _ := s.Get(ctx, k); !ok {
			t.Errorf("entry %s evicted", k)
		}
	}
}

func TestMemoryStore_Cleanup(t *testing.T) {
	t.Parallel()

	s, clock := newTestMemoryStore(10)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_ = s.Set(ctx, fmt.Sprintf("k%d", i), "v", time.Duration(i+1)*time.Minute)
	}

	clock.Advance(150 * time.Second)
	if removed := s.Cleanup(); removed != 2 {
		t.Errorf("Cleanup() = %d, want 2", removed)
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(50)
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (w*200+i)%80)
				_ = s.Set(ctx, key, "v", time.Minute)
				_, _, _ = s.Get(ctx, key)
				if i%10 == 0 {
					_ = s.Delete(ctx, key)
				}
			}
		}(w)
	}
	wg.Wait()

	if s.Len() > 50 {
		t.Errorf("Len() = %d, exceeds capacity 50", s.Len())
	}
}
