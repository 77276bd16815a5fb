// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cinematch/internal/metrics"
)

// JobFunc is one run of a periodic job.
type JobFunc func(ctx context.Context) error

// JobConfig controls a JobService.
type JobConfig struct {
	// Name identifies the job in logs and the refresh_runs_total metric.
	Name string

	// Interval between runs. Must be positive.
	Interval time.Duration

	// RunOnStart runs the job once before the first tick.
	RunOnStart bool

	// Timeout bounds a single run. Zero means Interval.
	Timeout time.Duration
}

// JobService runs a JobFunc on a fixed interval under supervision. A
// failed run is logged and counted; it does not stop the service.
type JobService struct {
	job    JobFunc
	config JobConfig
	logger zerolog.Logger
}

// NewJobService creates a periodic job service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewJobService(job JobFunc, cfg JobConfig, logger zerolog.Logger) *JobService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = cfg.Interval
	}
	return &JobService{
		job:    job,
		config: cfg,
		logger: logger.With().Str("service", cfg.Name).Logger(),
	}
}

// Serve implements suture.Service.
func (s *JobService) Serve(ctx context.Context) error {
	if s.config.Interval <= 0 {
		s.logger.Warn().Msg("Job interval not positive, job disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	s.logger.Info().
		Dur("interval", s.config.Interval).
		Bool("run_on_start", s.config.RunOnStart).
		Msg("Job service starting")

	if s.config.RunOnStart {
		s.run(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Job service shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *JobService) run(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	err := s.job(runCtx)

	// Shutdown mid-run is not a job failure.
	if err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return
	}
	metrics.RecordRefresh(s.config.Name, err)

	if err != nil {
		s.logger.Warn().Err(err).Dur("duration", time.Since(start)).Msg("Job run failed")
		return
	}
	s.logger.Debug().Dur("duration", time.Since(start)).Msg("Job run complete")
}

// String implements fmt.Stringer for suture's logs.
func (s *JobService) String() string {
	return s.config.Name
}
