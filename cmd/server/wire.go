// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package main

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cinematch/internal/api"
	"github.com/tomtom215/cinematch/internal/cache"
	"github.com/tomtom215/cinematch/internal/config"
	"github.com/tomtom215/cinematch/internal/database"
	"github.com/tomtom215/cinematch/internal/events"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/middleware"
	"github.com/tomtom215/cinematch/internal/recommend"
	"github.com/tomtom215/cinematch/internal/recommend/algorithms"
	"github.com/tomtom215/cinematch/internal/recommend/outcome"
	"github.com/tomtom215/cinematch/internal/recommend/similarity"
	"github.com/tomtom215/cinematch/internal/supervisor"
	"github.com/tomtom215/cinematch/internal/supervisor/services"
	"github.com/tomtom215/cinematch/internal/tmdb"
)

// cacheGCDiscardRatio is the badger value log rewrite threshold.
const cacheGCDiscardRatio = 0.5

// components holds everything built from the configuration.
type components struct {
	store      cache.Store
	tmdb       *tmdb.Client
	similarity *similarity.Service
	engine     *recommend.Engine
	bus        *events.Bus
	tracker    *outcome.Tracker
	monitor    *middleware.PerformanceMonitor
}

// buildComponents wires the recommendation stack on top of db. The caller
// owns db; the returned cleanup closes everything else.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func buildComponents(ctx context.Context, cfg *config.Config, db *database.DB, logger zerolog.Logger) (*components, func(), error) {
	store, err := cache.New(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("cache: %w", err)
	}
	cleanup := func() {
		if cerr := store.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("Failed to close cache")
		}
	}

	c := &components{store: store}

	c.tmdb = tmdb.NewClient(cfg.TMDB, logger, tmdb.WithCache(store))
	if !c.tmdb.Configured() {
		logger.Warn().Msg("TMDB API key not set; users without history will receive no recommendations")
	}

	c.similarity, err = similarity.NewService(cfg.Similarity, db, db, store, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("similarity: %w", err)
	}

	deps := recommend.Dependencies{History: db, Logs: db, Cache: store}
	if c.tmdb.Configured() {
		deps.ColdStart = c.tmdb
	}
	c.engine, err = recommend.NewEngine(cfg.Recommend.Engine, deps, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("engine: %w", err)
	}

	algDeps := algorithms.Deps{
		History:    db,
		Profiles:   db,
		Similarity: c.similarity,
		Logs:       db,
	}
	for _, name := range cfg.Recommend.EnabledAlgorithms() {
		alg, aerr := algorithms.New(name, algDeps, cfg.Recommend.OverridesFor(name))
		if aerr != nil {
			cleanup()
			return nil, nil, fmt.Errorf("algorithm %s: %w", name, aerr)
		}
		c.engine.RegisterAlgorithm(alg)
	}
	logger.Info().Strs("algorithms", c.engine.Algorithms()).Msg("Recommendation engine ready")

	c.bus, err = events.NewBus(cfg.Events, watermill.NewSlogLogger(logging.NewSlogLoggerForComponent("events")))
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("event bus: %w", err)
	}
	c.bus.HandleOutcomes("invalidate-recommendations", events.InvalidateOnOutcome(c.engine))

	c.tracker = outcome.NewTracker(outcome.Config{
		KnownAlgorithms: c.engine.Algorithms(),
		Health:          cfg.Recommend.Health,
	}, db, c.bus, logger)

	c.monitor = middleware.NewPerformanceMonitor(1000, cfg.Server.Timeout/4, logger)

	return c, cleanup, nil
}

// handler builds the API handler for c.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (c *components) handler(db *database.DB, logger zerolog.Logger) *api.Handler {
	return api.NewHandler(api.Dependencies{
		Recommender: c.engine,
		Tracker:     c.tracker,
		Similarity:  c.similarity,
		Store:       db,
		ColdStart:   c.tmdb,
		Monitor:     c.monitor,
	}, version, logger)
}

// addBackgroundServices registers the event router and the refresh jobs.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (c *components) addBackgroundServices(tree *supervisor.SupervisorTree, cfg *config.Config, db *database.DB, logger zerolog.Logger) {
	tree.AddMessagingService(services.NewEventRouterService(c.bus, logger))

	tree.AddJobService(services.NewJobService(
		services.SimilarityRefreshJob(db, c.similarity, cfg.Jobs.SimilarityRefreshUsers, logger),
		services.JobConfig{
			Name:     services.JobSimilarityRefresh,
			Interval: cfg.Jobs.SimilarityRefreshInterval,
			Timeout:  cfg.Jobs.SimilarityRefreshInterval / 2,
		},
		logger,
	))

	var credits services.CreditsSource
	if c.tmdb.Configured() {
		credits = c.tmdb
	}
	tree.AddJobService(services.NewJobService(
		services.ProfileRefreshJob(db, credits, cfg.Jobs.CreditsFetchLimit, logger),
		services.JobConfig{
			Name:       services.JobProfileRefresh,
			Interval:   cfg.Jobs.ProfileRefreshInterval,
			RunOnStart: true,
		},
		logger,
	))

	if badger, ok := c.store.(*cache.BadgerStore); ok {
		tree.AddJobService(services.NewJobService(
			services.CacheGCJob(badger, cacheGCDiscardRatio),
			services.JobConfig{Name: services.JobCacheGC, Interval: cfg.Jobs.CacheGCInterval},
			logger,
		))
	}
}
