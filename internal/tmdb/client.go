// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package tmdb is the cold-start content provider backed by The Movie
// Database API.
//
// Requests pass through a token-bucket rate limiter, are retried with
// exponential backoff on network errors, 429 and 5xx responses, and run
// inside a circuit breaker so a failing upstream is not hammered. List
// responses can be cached in the shared cache store.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tomtom215/cinematch/internal/cache"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/metrics"
	"github.com/tomtom215/cinematch/internal/recommend"
)

// breakerName labels the circuit breaker metrics.
const breakerName = "tmdb-api"

// maxResponseBytes caps a decoded response body.
const maxResponseBytes = 4 << 20

var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("tmdb api key not configured")

	// ErrInvalidWindow is returned for trending windows other than day or week.
	ErrInvalidWindow = errors.New("tmdb trending window must be day or week")
)

// StatusError is a non-2xx TMDB response.
type StatusError struct {
	StatusCode int
	Path       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb %s: unexpected status %d", e.Path, e.StatusCode)
}

// Is matches recommend.ErrNotFound for 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == recommend.ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Retryable reports whether the status is worth retrying.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client implements recommend.ColdStartProvider and supplies title credits
// for person profiles.
type Client struct {
	cfg     Config
	httpc   *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	cache   cache.Store
	logger  zerolog.Logger
}

var _ recommend.ColdStartProvider = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithCache caches list responses for Config.ResponseTTL.
func WithCache(store cache.Store) Option {
	return func(c *Client) { c.cache = store }
}

// NewClient creates a TMDB client.
//
//nolint:gocritic // hugeParam: Config and zerolog.Logger are passed by value at construction
func NewClient(cfg Config, logger zerolog.Logger, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		cfg:     cfg,
		httpc:   &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:  logger.With().Str("component", "tmdb").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = c.newBreaker()
	return c
}

func (c *Client) newBreaker() *gobreaker.CircuitBreaker[[]byte] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     c.cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < c.cfg.BreakerMinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= c.cfg.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			// a canceled caller or a missing title says nothing about upstream health
			return err == nil || errors.Is(err, context.Canceled) || isNotFound(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Info().Str("from", stateToString(from)).Str("to", stateToString(to)).Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
		},
	})
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

// BreakerState returns the circuit breaker state name.
func (c *Client) BreakerState() string {
	return stateToString(c.breaker.State())
}

// Trending returns trending movies and shows for window ("day" or "week").
func (c *Client) Trending(ctx context.Context, window string) ([]recommend.ContentItem, error) {
	if window != "day" && window != "week" {
		return nil, fmt.Errorf("%w, got %q", ErrInvalidWindow, window)
	}

	var resp listResponse
	if err := c.getList(ctx, "/trending/all/"+window, 1, &resp); err != nil {
		return nil, err
	}
	return toContentItems(resp.Results, ""), nil
}

// Popular returns one page of popular movies and shows, merged by popularity.
func (c *Client) Popular(ctx context.Context, page int) ([]recommend.ContentItem, error) {
	if page < 1 {
		page = 1
	}

	var movies, shows listResponse
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.getList(gctx, "/movie/popular", page, &movies) })
	g.Go(func() error { return c.getList(gctx, "/tv/popular", page, &shows) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return mergeByPopularity(
		toContentItems(movies.Results, "movie"),
		toContentItems(shows.Results, "tv"),
	), nil
}

// getList fetches and decodes one list endpoint, going through the cache
// when configured.
func (c *Client) getList(ctx context.Context, path string, page int, out *listResponse) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	cacheKey := ""
	if c.cache != nil && c.cfg.ResponseTTL > 0 {
		cacheKey = fmt.Sprintf("tmdb:%s:%s:%d", c.cfg.Language, path, page)
		if raw, ok, err := c.cache.Get(ctx, cacheKey); err != nil {
			c.logger.Warn().Err(err).Str("path", path).Msg("TMDB response cache read failed")
		} else if ok {
			if err := json.Unmarshal([]byte(raw), out); err == nil {
				return nil
			}
		}
	}

	body, err := c.get(ctx, path, url.Values{"page": {strconv.Itoa(page)}})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode tmdb %s: %w", path, err)
	}

	if cacheKey != "" {
		if err := c.cache.Set(ctx, cacheKey, string(body), c.cfg.ResponseTTL); err != nil {
			c.logger.Warn().Err(err).Str("path", path).Msg("TMDB response cache write failed")
		}
	}
	return nil
}

// get performs a rate-limited, retried GET inside the circuit breaker.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return retry.DoWithData(
			func() ([]byte, error) { return c.attempt(ctx, path, params) },
			retry.Context(ctx),
			retry.Attempts(uint(c.cfg.MaxRetries)+1),
			retry.Delay(c.cfg.RetryDelay),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
			retry.OnRetry(func(n uint, err error) {
				c.logger.Debug().Str("path", path).Uint("attempt", n+1).Str("error", logging.SanitizeError(err)).Msg("Retrying TMDB request")
			}),
		)
	})

	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
		return nil, fmt.Errorf("tmdb %s: %w", path, err)
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
		c.logger.Warn().Str("path", path).Str("error", logging.SanitizeError(err)).Msg("TMDB request failed")
	}
	return body, err
}

// attempt performs one HTTP round trip.
func (c *Client) attempt(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, retry.Unrecoverable(err)
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("api_key", c.cfg.APIKey)
	if c.cfg.Language != "" {
		q.Set("language", c.cfg.Language)
	}
	endpoint := c.cfg.BaseURL + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("build tmdb request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, retry.Unrecoverable(ctx.Err())
		}
		return nil, fmt.Errorf("tmdb %s: %s", path, logging.SanitizeError(err))
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("url", logging.SanitizeURL(endpoint)).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("TMDB request")

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // drain for connection reuse
		statusErr := &StatusError{StatusCode: resp.StatusCode, Path: path}
		if statusErr.Retryable() {
			return nil, statusErr
		}
		return nil, retry.Unrecoverable(statusErr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read tmdb %s: %w", path, err)
	}
	return body, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
