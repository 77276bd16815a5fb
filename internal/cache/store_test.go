// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory default", Config{}, false},
		{"memory capacity", Config{Backend: BackendMemory, Capacity: 100}, false},
		{"memory negative", Config{Backend: BackendMemory, Capacity: -1}, true},
		{"badger in memory", Config{Backend: BackendBadger}, false},
		{"redis without addr", Config{Backend: BackendRedis}, true},
		{"redis negative db", Config{Backend: BackendRedis, RedisAddr: "localhost:6379", RedisDB: -1}, true},
		{"redis ok", Config{Backend: BackendRedis, RedisAddr: "localhost:6379"}, false},
		{"unknown", Config{Backend: "memcached"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	mem, err := New(ctx, Config{Backend: BackendMemory}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New(memory) error = %v", err)
	}
	if _, ok := mem.(*MemoryStore); !ok {
		t.Errorf("New(memory) = %T, want *MemoryStore", mem)
	}
	_ = mem.Close()

	bs, err := New(ctx, Config{Backend: BackendBadger}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New(badger) error = %v", err)
	}
	defer bs.Close()
	if err := bs.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v, ok, err := bs.Get(ctx, "k"); err != nil || !ok || v != "v" {
		t.Errorf("Get() = %q, %v, %v", v, ok, err)
	}

	if _, err := New(ctx, Config{Backend: "nope"}, zerolog.Nop()); err == nil {
		t.Error("New(unknown) succeeded")
	}
}

func TestGenerateKey(t *testing.T) {
	t.Parallel()

	type filters struct {
		MediaTypes []string `json:"media_types"`
	}

	a := GenerateKey("recommendations:1:0", filters{})
	b := GenerateKey("recommendations:1:0", filters{})
	c := GenerateKey("recommendations:1:0", filters{MediaTypes: []string{"tv"}})

	if a != b {
		t.Errorf("same params produced %q and %q", a, b)
	}
	if a == c {
		t.Error("different params produced the same key")
	}
	if !strings.HasPrefix(a, "recommendations:1:0:") {
		t.Errorf("key %q lost its prefix", a)
	}
	if len(a) != len("recommendations:1:0:")+32 {
		t.Errorf("key %q has unexpected hash length", a)
	}
}
