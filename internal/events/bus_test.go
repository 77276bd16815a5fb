// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeInvalidator struct {
	mu    sync.Mutex
	users []int64
	calls chan int64
	err   error
}

func newFakeInvalidator() *fakeInvalidator {
	return &fakeInvalidator{calls: make(chan int64, 16)}
}

func (f *fakeInvalidator) InvalidateUser(_ context.Context, userID int64) error {
	f.mu.Lock()
	f.users = append(f.users, userID)
	f.mu.Unlock()
	select {
	case f.calls <- userID:
	default:
	}
	return f.err
}

func startBus(t *testing.T, cfg Config, register func(*Bus)) *Bus {
	t.Helper()

	bus, err := NewBus(cfg, nil)
	if err != nil {
		t.Fatalf("NewBus() error = %v", err)
	}
	register(bus)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = bus.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		_ = bus.Close()
		<-done
	})

	select {
	case <-bus.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}
	return bus
}

func TestBus_InvalidateOnOutcome(t *testing.T) {
	t.Parallel()

	inv := newFakeInvalidator()
	bus := startBus(t, DefaultConfig(), func(b *Bus) {
		b.HandleOutcomes("invalidate", InvalidateOnOutcome(inv))
	})

	err := bus.PublishOutcome(context.Background(), OutcomeMessage{
		EventID:   "e1",
		LogID:     "l1",
		UserID:    42,
		Algorithm: "taste_match_v1",
		Type:      "added",
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("PublishOutcome() error = %v", err)
	}

	select {
	case uid := <-inv.calls:
		if uid != 42 {
			t.Errorf("invalidated user = %d, want 42", uid)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
	}

	if got := bus.Stats().Published; got != 1 {
		t.Errorf("Published = %d, want 1", got)
	}
}

func TestBus_RetriesFailedHandler(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.RetryMaxRetries = 2
	cfg.RetryInitialInterval = time.Millisecond

	inv := newFakeInvalidator()
	inv.err = errors.New("cache down")
	bus := startBus(t, cfg, func(b *Bus) {
		b.HandleOutcomes("invalidate", InvalidateOnOutcome(inv))
	})

	if err := bus.PublishOutcome(context.Background(), OutcomeMessage{UserID: 7, Type: "rated"}); err != nil {
		t.Fatalf("PublishOutcome() error = %v", err)
	}

	// One initial attempt plus two retries.
	for i := 0; i < 3; i++ {
		select {
		case <-inv.calls:
		case <-time.After(5 * time.Second):
			t.Fatalf("attempt %d not observed", i+1)
		}
	}
}

func TestInvalidateOnOutcome_SkipsAnonymous(t *testing.T) {
	t.Parallel()

	inv := newFakeInvalidator()
	h := InvalidateOnOutcome(inv)
	if err := h(context.Background(), OutcomeMessage{Type: "added"}); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if len(inv.users) != 0 {
		t.Errorf("invalidated %v, want none", inv.users)
	}
}
