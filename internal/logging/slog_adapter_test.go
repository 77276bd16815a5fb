// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &m); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	return m
}

func TestSlogHandler_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "debug"},
		{slog.LevelInfo, "info"},
		{slog.LevelWarn, "warn"},
		{slog.LevelError, "error"},
		{slog.LevelError + 4, "error"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		logger := slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))
		logger.Log(context.Background(), tt.level, "msg")
		if got := decodeLine(t, &buf)["level"]; got != tt.want {
			t.Errorf("slog level %v -> %v, want %s", tt.level, got, tt.want)
		}
	}
}

func TestSlogHandler_Enabled(t *testing.T) {
	t.Parallel()

	h := NewSlogHandlerWithLogger(zerolog.New(&bytes.Buffer{}).Level(zerolog.WarnLevel))
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info enabled on a warn logger")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error disabled on a warn logger")
	}
}

func TestSlogHandler_AttrKinds(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf)))
	logger.Info("service event",
		slog.String("service", "similarity-refresh"),
		slog.Int("restarts", 2),
		slog.Uint64("queue", 7),
		slog.Float64("ratio", 0.5),
		slog.Bool("failed", true),
		slog.Duration("backoff", 15*time.Second),
		slog.Any("err", errors.New("boom")),
	)

	m := decodeLine(t, &buf)
	if m["message"] != "service event" || m["service"] != "similarity-refresh" {
		t.Errorf("line = %v", m)
	}
	if m["restarts"] != float64(2) || m["queue"] != float64(7) || m["ratio"] != 0.5 || m["failed"] != true {
		t.Errorf("numeric attrs = %v", m)
	}
	if m["err"] != "boom" {
		t.Errorf("error attr = %v", m["err"])
	}
	if _, ok := m["backoff"]; !ok {
		t.Error("duration attr missing")
	}
}

func TestSlogHandler_GroupsAndAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf))).
		With("supervisor", "root").
		WithGroup("event").
		WithGroup("service")
	logger.Info("terminated", slog.String("name", "http"), slog.Group("restart", slog.Int("count", 3)))

	m := decodeLine(t, &buf)
	for key, want := range map[string]interface{}{
		"supervisor":                  "root",
		"event.service.name":          "http",
		"event.service.restart.count": float64(3),
	} {
		if m[key] != want {
			t.Errorf("%s = %v, want %v (line %v)", key, m[key], want, m)
		}
	}
}

func TestSlogHandler_EmptyGroupAndAttrs(t *testing.T) {
	t.Parallel()

	h := NewSlogHandlerWithLogger(zerolog.Nop())
	if h.WithGroup("") != h {
		t.Error("empty group should return the same handler")
	}
	if h.WithAttrs(nil) != h {
		t.Error("no attrs should return the same handler")
	}
}

func TestSlogToZerologLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   slog.Level
		want zerolog.Level
	}{
		{slog.LevelDebug - 4, zerolog.TraceLevel},
		{slog.LevelDebug, zerolog.DebugLevel},
		{slog.LevelInfo, zerolog.InfoLevel},
		{slog.LevelWarn, zerolog.WarnLevel},
		{slog.LevelError, zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		if got := slogToZerologLevel(tt.in); got != tt.want {
			t.Errorf("slogToZerologLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewSlogLoggerForComponent(t *testing.T) {
	buf := captureGlobal(t, zerolog.InfoLevel)

	NewSlogLoggerForComponent("supervisor").Info("started")
	if !strings.Contains(buf.String(), `"component":"supervisor"`) {
		t.Errorf("output = %s", buf.String())
	}

	buf.Reset()
	NewSlogLogger().Warn("plain")
	if !strings.Contains(buf.String(), "plain") {
		t.Errorf("output = %s", buf.String())
	}
}
