// Package recommend turns a played song into a list of playable
// target-catalog tracks: it resolves the seed in the recommender catalog,
// asks for recommendations and finds each recommended track in the target
// catalog.
package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/justestif/go-musichub/internal/cache"
	"github.com/justestif/go-musichub/internal/match"
	"github.com/justestif/go-musichub/internal/resolve"
)

// Limits for the number of returned tracks.
const (
	DefaultLimit = 12
	MaxLimit     = 20
)

// DefaultConcurrency is the number of recommended tracks resolved at once.
const DefaultConcurrency = 4

// runTimeout bounds a shared pipeline run. It stays below the HTTP request
// timeout.
const runTimeout = 45 * time.Second

// ErrSuperseded is returned when a newer request for the same slot started
// while this one was running.
var ErrSuperseded = errors.New("superseded by a newer request")

// Recommender abstracts the upstream recommender for testing.
type Recommender interface {
	resolve.SeedSearcher
	Recommend(ctx context.Context, seedID string, limit int, seedArtistID string) ([]match.SeedTrack, error)
}

// Request is one recommendation query.
type Request struct {
	Name   string
	Artist string
	Limit  int
	// Slot identifies the UI slot the results are for. A newer request for
	// the same slot supersedes this one. Empty means no slot.
	Slot string
}

// Normalize trims the text fields and clamps Limit to [1, MaxLimit],
// defaulting to DefaultLimit.
func (r Request) Normalize() Request {
	r.Name = strings.TrimSpace(r.Name)
	r.Artist = strings.TrimSpace(r.Artist)
	r.Slot = strings.TrimSpace(r.Slot)
	switch {
	case r.Limit <= 0:
		r.Limit = DefaultLimit
	case r.Limit > MaxLimit:
		r.Limit = MaxLimit
	}
	return r
}

// Response carries the raw target-catalog records.
type Response struct {
	Data []json.RawMessage `json:"data"`
}

func emptyResponse() Response {
	return Response{Data: []json.RawMessage{}}
}

// Service runs the recommendation pipeline.
type Service struct {
	recommender Recommender
	catalog     resolve.TargetSearcher
	resolver    *resolve.Resolver
	cache       *cache.Cache
	batches     *Batches
	group       singleflight.Group
	concurrency int
	logger      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRecommender sets the upstream recommender. Without one every request
// returns an empty list.
func WithRecommender(r Recommender) Option {
	return func(s *Service) {
		s.recommender = r
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

// WithCache sets the response cache.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithConcurrency sets the number of concurrent target resolutions.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
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

// NewService creates a recommendation service over the target catalog.
func NewService(catalog resolve.TargetSearcher, opts ...Option) *Service {
	s := &Service{
		catalog:     catalog,
		batches:     NewBatches(),
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.resolver == nil {
		s.resolver = resolve.New(resolve.WithLogger(s.logger))
	}
	s.logger = s.logger.With("component", "recommend")
	return s
}

// Configured reports whether an upstream recommender is available.
func (s *Service) Configured() bool {
	return s.recommender != nil
}

// Recommend returns up to req.Limit playable tracks similar to the requested
// song. Upstream failures, an unresolvable seed and a missing recommender
// all yield an empty list and a nil error. The only error is ErrSuperseded.
// Results of a run cut short by cancellation are discarded, never cached.
func (s *Service) Recommend(ctx context.Context, req Request) (Response, error) {
	req = req.Normalize()
	if req.Name == "" {
		return emptyResponse(), nil
	}

	key := cache.Key(cache.KindRecommendations, map[string]string{
		"name":   req.Name,
		"artist": req.Artist,
		"limit":  strconv.Itoa(req.Limit),
	})

	var cached Response
	if s.cache.GetJSON(ctx, key, &cached) {
		s.logger.Debug("cache hit", "key", key)
		return cached, nil
	}

	if s.recommender == nil {
		s.logger.Warn("recommender not configured, returning empty list")
		return emptyResponse(), nil
	}

	if req.Slot == "" {
		return s.shared(ctx, key, req), nil
	}

	bctx, batch := s.batches.Start(ctx, req.Slot)
	defer batch.Done()

	log := s.logger.With("batch", batch.ID, "slot", batch.Slot)
	data := s.run(bctx, req, log)
	if batch.Stale() {
		log.Debug("batch superseded, discarding results")
		return emptyResponse(), ErrSuperseded
	}
	if err := bctx.Err(); err != nil {
		log.Debug("request abandoned, discarding results", "error", err)
		return emptyResponse(), nil
	}

	resp := Response{Data: data}
	s.store(ctx, key, resp)
	return resp, nil
}

// shared runs the pipeline once per key for all concurrent callers. The run
// is detached from the callers' contexts and bounded by runTimeout, so a
// caller that leaves gets an empty list without cutting the run short for
// the others.
func (s *Service) shared(ctx context.Context, key string, req Request) Response {
	ch := s.group.DoChan(key, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), runTimeout)
		defer cancel()

		data := s.run(rctx, req, s.logger)
		if err := rctx.Err(); err != nil {
			s.logger.Warn("run did not finish, discarding results", "key", key, "error", err)
			return emptyResponse(), nil
		}

		resp := Response{Data: data}
		s.store(rctx, key, resp)
		return resp, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			s.logger.Debug("shared in-flight request", "key", key)
		}
		return res.Val.(Response)
	case <-ctx.Done():
		s.logger.Debug("caller left before the run finished", "key", key, "error", ctx.Err())
		return emptyResponse()
	}
}

// store caches a complete, non-empty response.
func (s *Service) store(ctx context.Context, key string, resp Response) {
	if len(resp.Data) > 0 {
		s.cache.SetJSON(ctx, cache.KindRecommendations, key, resp)
	}
}

// run executes seed resolution, recommendation and target resolution.
func (s *Service) run(ctx context.Context, req Request, log *slog.Logger) []json.RawMessage {
	seed := match.SeedTrack{Name: req.Name}
	if req.Artist != "" {
		seed.Artists = []string{req.Artist}
	}

	seedRes := s.resolver.ResolveSeed(ctx, s.recommender, seed)
	if !seedRes.Matched() {
		log.Debug("seed not found", "name", req.Name, "artist", req.Artist, "queries", seedRes.Queries)
		return []json.RawMessage{}
	}
	log.Debug("seed resolved",
		"id", seedRes.Best.ExternalID,
		"name", seedRes.Best.Name,
		"score", seedRes.Score,
	)

	tracks, err := s.recommender.Recommend(ctx, seedRes.Best.ExternalID, req.Limit, seedRes.Best.PrimaryArtistID())
	if err != nil {
		log.Warn("recommendations failed", "seed", seedRes.Best.ExternalID, "error", err)
		return []json.RawMessage{}
	}
	if len(tracks) == 0 {
		return []json.RawMessage{}
	}

	matches := s.resolveAll(ctx, tracks)

	seen := resolve.NewSeen()
	data := make([]json.RawMessage, 0, req.Limit)
	for i, m := range matches {
		if !m.Matched() {
			log.Debug("skipped", "track", tracks[i].Name, "best_score", m.Score)
			continue
		}
		if !seen.Add(m.Best) {
			continue
		}
		data = append(data, m.Best.Raw)
		if len(data) >= req.Limit {
			break
		}
	}

	log.Info("recommendations resolved",
		"seed", seedRes.Best.Name,
		"recommended", len(tracks),
		"matched", len(data),
	)
	return data
}

// resolveAll resolves tracks against the target catalog concurrently.
// Results are returned in the same order as tracks. Identical queries
// issued by different tracks share one upstream call.
func (s *Service) resolveAll(ctx context.Context, tracks []match.SeedTrack) []resolve.Resolution[match.CandidateTrack] {
	results := make([]resolve.Resolution[match.CandidateTrack], len(tracks))
	searcher := resolve.NewMemoSearcher(s.catalog, s.resolver.CallTimeout())

	type workItem struct {
		index int
		track match.SeedTrack
	}
	workCh := make(chan workItem, len(tracks))
	for i, t := range tracks {
		workCh <- workItem{index: i, track: t}
	}
	close(workCh)

	var wg sync.WaitGroup
	for range min(s.concurrency, len(tracks)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for work := range workCh {
				if ctx.Err() != nil {
					results[work.index] = resolve.Resolution[match.CandidateTrack]{State: resolve.StateExhausted}
					continue
				}
				results[work.index] = s.resolver.ResolveTarget(ctx, searcher, work.track)
			}
		}()
	}
	wg.Wait()

	return results
}
