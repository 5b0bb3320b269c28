// Package search answers free-text song searches against the target catalog
// and decides whether one artist is confident enough to be shown as the
// top result.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/justestif/go-musichub/internal/cache"
	"github.com/justestif/go-musichub/internal/match"
	"github.com/justestif/go-musichub/internal/resolve"
	"github.com/justestif/go-musichub/internal/variants"
)

const (
	// DefaultVariants is how many query variants are searched.
	DefaultVariants = 3
	// DefaultLimit is the per-variant result count.
	DefaultLimit = 20
)

// ErrEmptyQuery is returned for a blank query.
var ErrEmptyQuery = errors.New("empty search query")

// Result is the search payload.
type Result struct {
	Songs     []json.RawMessage `json:"songs"`
	Artists   []Artist          `json:"artists"`
	TopResult *Artist           `json:"topResult"`
}

// Response wraps Result the way the catalog wraps its own responses.
type Response struct {
	Data Result `json:"data"`
}

// Service runs searches.
type Service struct {
	catalog  resolve.TargetSearcher
	cache    *cache.Cache
	variants int
	limit    int
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

// WithLimit sets the per-variant result count.
func WithLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.limit = n
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

// NewService creates a search service over the target catalog.
func NewService(catalog resolve.TargetSearcher, opts ...Option) *Service {
	s := &Service{
		catalog:  catalog,
		variants: DefaultVariants,
		limit:    DefaultLimit,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "search")
	return s
}

// Search queries the first variants of query concurrently, merges and
// de-duplicates the songs, and scores their distinct primary artists.
// Failed variants contribute nothing. Results gathered under a cancelled
// context are returned but not cached.
func (s *Service) Search(ctx context.Context, query string) (Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Response{}, ErrEmptyQuery
	}

	key := cache.Key(cache.KindSearch, map[string]string{"q": query})
	var cached Response
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	queries := variants.ForSearch(query)
	if len(queries) > s.variants {
		queries = queries[:s.variants]
	}

	batches := make([][]match.CandidateTrack, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			songs, err := s.catalog.SearchSongs(gctx, q, s.limit)
			if err != nil {
				s.logger.Debug("variant failed", "query", q, "error", err)
				return nil
			}
			batches[i] = songs
			return nil
		})
	}
	_ = g.Wait()

	seen := resolve.NewSeen()
	var songs []match.CandidateTrack
	for _, batch := range batches {
		for _, c := range batch {
			if seen.Add(c) {
				songs = append(songs, c)
			}
		}
	}

	resp := Response{Data: buildResult(songs, query)}
	if err := ctx.Err(); err != nil {
		s.logger.Debug("request abandoned, not caching results", "query", query, "error", err)
		return resp, nil
	}
	if len(resp.Data.Songs) > 0 {
		s.cache.SetJSON(ctx, cache.KindSearch, key, resp)
	}
	return resp, nil
}

func buildResult(songs []match.CandidateTrack, query string) Result {
	res := Result{
		Songs:   make([]json.RawMessage, 0, len(songs)),
		Artists: DistinctArtists(songs),
	}
	for _, c := range songs {
		res.Songs = append(res.Songs, c.Raw)
	}
	for i := range res.Artists {
		res.Artists[i].Score = ScoreArtist(res.Artists[i].Name, query)
	}
	if top, ok := PickTopArtist(res.Artists, query); ok {
		res.TopResult = &top
	}
	return res
}

// DistinctArtists returns the primary artist of each song, once per artist
// ID, in first-seen order. Songs without a primary artist ID are skipped.
func DistinctArtists(songs []match.CandidateTrack) []Artist {
	seen := make(map[string]struct{})
	out := make([]Artist, 0)
	for _, c := range songs {
		id := c.PrimaryArtistID
		if id == "" || c.PrimaryArtist() == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, Artist{ID: id, Name: c.PrimaryArtist()})
	}
	return out
}
