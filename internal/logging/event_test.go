// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestEventLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	el := NewEventLoggerWithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
	ctx := ContextWithCorrelationID(context.Background(), "corr-1")

	tests := []struct {
		name string
		log  func()
		want []string
	}{
		{
			name: "published",
			log:  func() { el.LogOutcomePublished(ctx, "m1", "added", 42) },
			want: []string{`"component":"events"`, `"correlation_id":"corr-1"`, `"user_id":42`, "outcome published"},
		},
		{
			name: "handled",
			log:  func() { el.LogOutcomeHandled(ctx, "invalidate", "m1", 5*time.Millisecond) },
			want: []string{`"handler":"invalidate"`, "outcome handled"},
		},
		{
			name: "failed",
			log:  func() { el.LogOutcomeFailed(ctx, "invalidate", "m1", errors.New("cache down")) },
			want: []string{`"level":"warn"`, `"error":"cache down"`},
		},
		{
			name: "undecodable",
			log:  func() { el.LogUndecodable("m2", errors.New("bad json")) },
			want: []string{`"level":"error"`, `"message_id":"m2"`},
		},
		{
			name: "router lifecycle",
			log: func() {
				el.LogRouterStarted(2)
				el.LogRouterStopped()
			},
			want: []string{`"handlers":2`, "event router stopped"},
		},
	}
	for _, tt := range tests {
		buf.Reset()
		tt.log()
		for _, w := range tt.want {
			if !strings.Contains(buf.String(), w) {
				t.Errorf("%s: output missing %s: %s", tt.name, w, buf.String())
			}
		}
	}
}
