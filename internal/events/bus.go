// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package events carries recommendation outcome messages between the
// outcome tracker and the components that react to them.
//
// The bus is an in-process Watermill GoChannel pub/sub driven by a Watermill
// Router with panic recovery and retry middleware. Publishing never blocks
// on consumers.
package events

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/cinematch/internal/logging"
)

// TopicOutcomes carries OutcomeMessage payloads.
const TopicOutcomes = "recommend.outcomes"

// OutcomeMessage is published once per tracked recommendation outcome.
type OutcomeMessage struct {
	EventID   string    `json:"event_id"`
	LogID     string    `json:"log_id"`
	UserID    int64     `json:"user_id"`
	Algorithm string    `json:"algorithm"`
	Type      string    `json:"type"`
	Rating    *int      `json:"rating,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Config holds configuration for the bus.
type Config struct {
	// BufferSize is the per-subscriber output channel buffer.
	BufferSize int64 `koanf:"buffer_size"`

	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration `koanf:"close_timeout"`

	RetryMaxRetries      int           `koanf:"retry_max_retries"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
}

// DefaultConfig returns production defaults for the bus.
func DefaultConfig() Config {
	return Config{
		BufferSize:           256,
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
	}
}

// Bus is the in-process outcome message bus.
type Bus struct {
	pubsub  *gochannel.GoChannel
	router  *message.Router
	logger  watermill.LoggerAdapter
	events  *logging.EventLogger
	running atomic.Bool

	handlers int

	published atomic.Int64
	handled   atomic.Int64
	failed    atomic.Int64
}

// Stats are runtime counters of the bus.
type Stats struct {
	Published int64 `json:"published"`
	Handled   int64 `json:"handled"`
	Failed    int64 `json:"failed"`
	Running   bool  `json:"running"`
}

// NewBus creates the pub/sub and router with recovery and retry middleware.
func NewBus(cfg Config, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.BufferSize,
	}, logger)

	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	router.AddMiddleware(middleware.Recoverer)
	if cfg.RetryMaxRetries > 0 {
		retry := middleware.Retry{
			MaxRetries:      cfg.RetryMaxRetries,
			InitialInterval: cfg.RetryInitialInterval,
			MaxInterval:     time.Second,
			Multiplier:      2.0,
			Logger:          logger,
		}
		router.AddMiddleware(retry.Middleware)
	}

	return &Bus{
		pubsub: pubsub,
		router: router,
		logger: logger,
		events: logging.NewEventLogger(),
	}, nil
}

// PublishOutcome publishes one outcome message.
//
//nolint:gocritic // hugeParam: message copied into the payload
func (b *Bus) PublishOutcome(ctx context.Context, m OutcomeMessage) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode outcome message: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("type", m.Type)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set("correlation_id", id)
	}

	if err := b.pubsub.Publish(TopicOutcomes, msg); err != nil {
		return fmt.Errorf("publish outcome message: %w", err)
	}
	b.published.Add(1)
	b.events.LogOutcomePublished(ctx, msg.UUID, m.Type, m.UserID)
	return nil
}

// OutcomeHandler reacts to one decoded outcome message. A returned error
// makes the router retry the message.
type OutcomeHandler func(ctx context.Context, m OutcomeMessage) error

// HandleOutcomes registers a named consumer of outcome messages. Handlers
// must be registered before Run.
func (b *Bus) HandleOutcomes(name string, h OutcomeHandler) {
	b.handlers++
	b.router.AddConsumerHandler(name, TopicOutcomes, b.pubsub, func(msg *message.Message) error {
		var m OutcomeMessage
		if err := json.Unmarshal(msg.Payload, &m); err != nil {
			// Undecodable payloads are dropped, retrying cannot fix them.
			b.failed.Add(1)
			b.events.LogUndecodable(msg.UUID, err)
			return nil
		}

		ctx := msg.Context()
		if id := msg.Metadata.Get("correlation_id"); id != "" && logging.CorrelationIDFromContext(ctx) == "" {
			ctx = logging.ContextWithCorrelationID(ctx, id)
		}

		start := time.Now()
		if err := h(ctx, m); err != nil {
			b.failed.Add(1)
			b.events.LogOutcomeFailed(ctx, name, msg.UUID, err)
			return err
		}
		b.handled.Add(1)
		b.events.LogOutcomeHandled(ctx, name, msg.UUID, time.Since(start))
		return nil
	})
}

// Run starts the router and blocks until ctx is canceled or Close is called.
func (b *Bus) Run(ctx context.Context) error {
	b.running.Store(true)
	b.events.LogRouterStarted(b.handlers)
	defer func() {
		b.running.Store(false)
		b.events.LogRouterStopped()
	}()
	return b.router.Run(ctx)
}

// Running returns a channel that closes when the router is running.
func (b *Bus) Running() <-chan struct{} {
	return b.router.Running()
}

// Close stops the router and the pub/sub.
func (b *Bus) Close() error {
	if err := b.router.Close(); err != nil {
		return fmt.Errorf("close router: %w", err)
	}
	if err := b.pubsub.Close(); err != nil {
		return fmt.Errorf("close pubsub: %w", err)
	}
	return nil
}

// Stats returns the bus counters.
func (b *Bus) Stats() Stats {
	return Stats{
		Published: b.published.Load(),
		Handled:   b.handled.Load(),
		Failed:    b.failed.Load(),
		Running:   b.running.Load(),
	}
}

// Invalidator drops cached recommendations of a user.
type Invalidator interface {
	InvalidateUser(ctx context.Context, userID int64) error
}

// InvalidateOnOutcome returns a handler that invalidates the cached
// recommendations of the user an outcome belongs to.
func InvalidateOnOutcome(inv Invalidator) OutcomeHandler {
	return func(ctx context.Context, m OutcomeMessage) error {
		if m.UserID == 0 {
			return nil
		}
		return inv.InvalidateUser(ctx, m.UserID)
	}
}
