// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package similarity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/cinematch/internal/metrics"
	"github.com/tomtom215/cinematch/internal/recommend"
)

// Weights combine the similarity components into the overall match.
// Only components available for both users take part, and the weights of
// those components are renormalized.
type Weights struct {
	Taste  float64 `koanf:"taste"`
	Genre  float64 `koanf:"genre"`
	Person float64 `koanf:"person"`
	Type   float64 `koanf:"type"`
}

// Config tunes the similarity service.
type Config struct {
	// SampleSize bounds the candidate users compared on a cache miss.
	SampleSize int `koanf:"sample_size"`

	// MaxResults caps the stored similar-user list.
	MaxResults int `koanf:"max_results"`

	// ItemsPerUser caps the watched items loaded into a taste vector.
	ItemsPerUser int `koanf:"items_per_user"`

	// Concurrency bounds parallel candidate loads.
	Concurrency int `koanf:"concurrency"`

	CacheTTL time.Duration `koanf:"cache_ttl"`
	Weights  Weights       `koanf:"weights"`
}

// DefaultConfig returns the production similarity settings.
func DefaultConfig() Config {
	return Config{
		SampleSize:   50,
		MaxResults:   25,
		ItemsPerUser: 500,
		Concurrency:  8,
		CacheTTL:     6 * time.Hour,
		Weights: Weights{
			Taste:  0.4,
			Genre:  0.25,
			Person: 0.2,
			Type:   0.15,
		},
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.SampleSize < 1 {
		return fmt.Errorf("sample_size must be at least 1, got %d", c.SampleSize)
	}
	if c.MaxResults < 1 {
		return fmt.Errorf("max_results must be at least 1, got %d", c.MaxResults)
	}
	if c.ItemsPerUser < 1 {
		return fmt.Errorf("items_per_user must be at least 1, got %d", c.ItemsPerUser)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive, got %v", c.CacheTTL)
	}
	w := c.Weights
	if w.Taste < 0 || w.Genre < 0 || w.Person < 0 || w.Type < 0 {
		return errors.New("similarity weights must not be negative")
	}
	if w.Taste+w.Genre+w.Person+w.Type == 0 {
		return errors.New("at least one similarity weight must be positive")
	}
	return nil
}

// Service answers similar-user lookups. It reads the shared cache first and
// computes over a bounded sample of active users on a miss.
type Service struct {
	cfg      Config
	history  recommend.HistoryStore
	profiles recommend.ProfileProvider
	cache    recommend.ResultCache
	logger   zerolog.Logger
}

var _ recommend.SimilarityProvider = (*Service)(nil)

// NewService creates a similarity service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewService(cfg Config, history recommend.HistoryStore, profiles recommend.ProfileProvider, cache recommend.ResultCache, logger zerolog.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid similarity config: %w", err)
	}
	if history == nil || profiles == nil || cache == nil {
		return nil, errors.New("similarity service requires history, profiles and cache")
	}
	return &Service{
		cfg:      cfg,
		history:  history,
		profiles: profiles,
		cache:    cache,
		logger:   logger.With().Str("component", "similarity").Logger(),
	}, nil
}

// CacheKey is the cache entry holding the similar users of userID.
func CacheKey(userID int64) string {
	return "similar:v1:" + strconv.FormatInt(userID, 10)
}

// GetSimilarUsers returns the users most similar to userID, best first.
func (s *Service) GetSimilarUsers(ctx context.Context, userID int64) ([]recommend.SimilarUser, error) {
	if cached, ok := s.readCache(ctx, userID); ok {
		metrics.SimilarityLookups.WithLabelValues("hit").Inc()
		return cached, nil
	}

	similar, err := s.computeSample(ctx, userID)
	if err != nil {
		metrics.SimilarityLookups.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.SimilarityLookups.WithLabelValues("computed").Inc()

	if err := s.writeCache(ctx, userID, similar); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("failed to cache similar users")
	}
	return similar, nil
}

// ComputeSimilarity compares two users on demand.
func (s *Service) ComputeSimilarity(ctx context.Context, a, b int64) (recommend.SimilarUser, error) {
	va, err := s.load(ctx, a)
	if err != nil {
		return recommend.SimilarUser{}, err
	}
	vb, err := s.load(ctx, b)
	if err != nil {
		return recommend.SimilarUser{}, err
	}
	return s.compare(va, vb), nil
}

// Refresh recomputes and overwrites the cached lists of the given users.
// It keeps going past individual failures and returns them joined.
func (s *Service) Refresh(ctx context.Context, userIDs []int64) error {
	var errs []error
	for _, id := range userIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		similar, err := s.computeSample(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %d: %w", id, err))
			continue
		}
		if err := s.writeCache(ctx, id, similar); err != nil {
			errs = append(errs, fmt.Errorf("user %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// Invalidate drops the cached list of userID.
func (s *Service) Invalidate(ctx context.Context, userID int64) error {
	return s.cache.Delete(ctx, CacheKey(userID))
}

func (s *Service) readCache(ctx context.Context, userID int64) ([]recommend.SimilarUser, bool) {
	raw, ok, err := s.cache.Get(ctx, CacheKey(userID))
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("similarity cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var similar []recommend.SimilarUser
	if err := json.Unmarshal([]byte(raw), &similar); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("discarding undecodable similarity entry")
		return nil, false
	}
	return similar, true
}

func (s *Service) writeCache(ctx context.Context, userID int64, similar []recommend.SimilarUser) error {
	data, err := json.Marshal(similar)
	if err != nil {
		return fmt.Errorf("encode similar users: %w", err)
	}
	return s.cache.Set(ctx, CacheKey(userID), string(data), s.cfg.CacheTTL)
}

// computeSample compares userID against up to SampleSize active users.
func (s *Service) computeSample(ctx context.Context, userID int64) ([]recommend.SimilarUser, error) {
	start := time.Now()
	defer func() { metrics.SimilarityComputeDuration.Observe(time.Since(start).Seconds()) }()

	candidates, err := s.history.ActiveUsers(ctx, userID, s.cfg.SampleSize)
	if err != nil {
		return nil, fmt.Errorf("sample active users: %w", err)
	}
	self, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	results := make([]recommend.SimilarUser, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, id := range candidates {
		g.Go(func() error {
			other, err := s.load(gctx, id)
			if err != nil {
				return err
			}
			results[i] = s.compare(self, other)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	similar := make([]recommend.SimilarUser, 0, len(results))
	for _, r := range results {
		if r.UserID != userID && r.OverallMatch > 0 {
			similar = append(similar, r)
		}
	}
	sort.Slice(similar, func(i, j int) bool {
		if similar[i].OverallMatch != similar[j].OverallMatch {
			return similar[i].OverallMatch > similar[j].OverallMatch
		}
		return similar[i].UserID < similar[j].UserID
	})
	if len(similar) > s.cfg.MaxResults {
		similar = similar[:s.cfg.MaxResults]
	}

	s.logger.Debug().
		Int64("user_id", userID).
		Int("sampled", len(candidates)).
		Int("similar", len(similar)).
		Dur("elapsed", time.Since(start)).
		Msg("computed similar users")
	return similar, nil
}

// userVectors is everything needed to compare one user with another.
type userVectors struct {
	userID  int64
	ratings map[string]float64
	genres  recommend.GenreProfile
	persons *recommend.PersonProfile
	types   recommend.TypeProfile
}

func (s *Service) load(ctx context.Context, userID int64) (*userVectors, error) {
	items, err := s.history.FindItems(ctx, userID, recommend.ItemQuery{
		Statuses: recommend.WatchedLike,
		Limit:    s.cfg.ItemsPerUser,
		OrderBy:  recommend.OrderRecent,
	})
	if err != nil {
		return nil, fmt.Errorf("load history of user %d: %w", userID, err)
	}
	genres, err := s.profiles.GenreProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load genre profile of user %d: %w", userID, err)
	}
	persons, err := s.profiles.PersonProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load person profile of user %d: %w", userID, err)
	}
	types, err := s.profiles.TypeProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load type profile of user %d: %w", userID, err)
	}
	return &userVectors{
		userID:  userID,
		ratings: RatingVector(items),
		genres:  genres,
		persons: persons,
		types:   types,
	}, nil
}

func (s *Service) compare(a, b *userVectors) recommend.SimilarUser {
	out := recommend.SimilarUser{UserID: b.userID}
	w := s.cfg.Weights
	var sum, weight float64

	if len(a.ratings) > 0 && len(b.ratings) > 0 {
		out.Taste = Cosine(a.ratings, b.ratings)
		sum += w.Taste * out.Taste
		weight += w.Taste
	}
	if a.genres != nil && b.genres != nil {
		out.Genre = Cosine(a.genres, b.genres)
		sum += w.Genre * out.Genre
		weight += w.Genre
	}
	if a.persons != nil && b.persons != nil {
		out.Person = PersonSimilarity(a.persons, b.persons)
		sum += w.Person * out.Person
		weight += w.Person
	}
	if len(a.types) > 0 && len(b.types) > 0 {
		out.Type = TypeSimilarity(a.types, b.types)
		sum += w.Type * out.Type
		weight += w.Type
	}
	if weight > 0 {
		out.OverallMatch = clamp01(sum / weight)
	}
	return out
}
