// Package charts lists trending songs from the target catalog, topping the
// list up with broad fallback queries when the catalog's chart modules come
// back short.
package charts

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/justestif/go-musichub/internal/cache"
	"github.com/justestif/go-musichub/internal/match"
	"github.com/justestif/go-musichub/internal/resolve"
)

// Limits for the number of returned songs.
const (
	DefaultLimit = 24
	MaxLimit     = 50
)

// DefaultPerQuery caps how many songs one fallback query contributes.
const DefaultPerQuery = 8

// Source provides the catalog's own chart listing and song search.
type Source interface {
	resolve.TargetSearcher
	TopCharts(ctx context.Context, limit int) ([]match.CandidateTrack, error)
}

// Response carries the raw catalog records.
type Response struct {
	Data []json.RawMessage `json:"data"`
}

// Service builds chart listings.
type Service struct {
	source   Source
	resolver *resolve.Resolver
	cache    *cache.Cache
	queries  []string
	perQuery int
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache sets the response cache.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithResolver replaces the default resolver.
func WithResolver(r *resolve.Resolver) Option {
	return func(s *Service) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithFallbackQueries replaces resolve.FallbackQueries.
func WithFallbackQueries(queries []string) Option {
	return func(s *Service) {
		s.queries = queries
	}
}

// WithPerQuery sets how many songs one fallback query may contribute.
func WithPerQuery(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.perQuery = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a chart service.
func NewService(source Source, opts ...Option) *Service {
	s := &Service{
		source:   source,
		queries:  resolve.FallbackQueries,
		perQuery: DefaultPerQuery,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.resolver == nil {
		s.resolver = resolve.New(resolve.WithLogger(s.logger))
	}
	s.logger = s.logger.With("component", "charts")
	return s
}

// ClampLimit applies the default and maximum.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// Top returns up to limit chart songs. A failed chart fetch is treated as an
// empty chart and filled from the fallback queries. A chart built under a
// cancelled context is returned but not cached.
func (s *Service) Top(ctx context.Context, limit int) Response {
	limit = ClampLimit(limit)
	key := cache.Key(cache.KindCharts, map[string]string{"limit": strconv.Itoa(limit)})

	var cached Response
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached
	}

	songs, err := s.source.TopCharts(ctx, limit)
	if err != nil {
		s.logger.Warn("chart modules unavailable", "error", err)
		songs = nil
	}

	if len(songs) < limit {
		s.logger.Debug("filling chart from fallback queries", "have", len(songs), "want", limit)
	}
	songs = s.resolver.FillFromFallback(ctx, s.source, songs, limit, s.perQuery, s.queries)

	resp := Response{Data: make([]json.RawMessage, 0, len(songs))}
	for _, c := range songs {
		resp.Data = append(resp.Data, c.Raw)
	}
	if err := ctx.Err(); err != nil {
		s.logger.Debug("request abandoned, not caching chart", "error", err)
		return resp
	}
	if len(resp.Data) > 0 {
		s.cache.SetJSON(ctx, cache.KindCharts, key, resp)
	}
	return resp
}
