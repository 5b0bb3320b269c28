// Package resolve runs the fallback resolution chains that locate a track in
// a catalog without shared identifiers: seed lookup in the recommender
// catalog and match lookup in the target catalog.
//
// Upstream errors and timeouts never fail a resolution. A failed query
// contributes zero candidates and the chain moves on to the next variant.
package resolve

import (
	"context"
	"log/slog"
	"time"

	"github.com/justestif/go-musichub/internal/match"
)

const (
	defaultCallTimeout     = 8 * time.Second
	defaultSeedSearchLimit = 5
)

// SeedSearcher searches the recommender catalog.
type SeedSearcher interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]match.SeedTrack, error)
}

// TargetSearcher searches the target catalog.
type TargetSearcher interface {
	SearchSongs(ctx context.Context, query string, limit int) ([]match.CandidateTrack, error)
}

// State is the progress of one resolution.
type State int

const (
	StatePending State = iota
	StateMatched
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateMatched:
		return "matched"
	case StateExhausted:
		return "exhausted"
	default:
		return "pending"
	}
}

// Resolution is the outcome of one chain. Both terminal states are normal
// outcomes; Best is only set when State is StateMatched.
type Resolution[T any] struct {
	State   State
	Best    T
	Score   float64
	Queries int
}

// Matched reports whether an acceptable item was found.
func (r Resolution[T]) Matched() bool {
	return r.State == StateMatched
}

// Resolver holds the scoring and timing settings shared by every chain.
// It keeps no per-request state and is safe for concurrent use.
type Resolver struct {
	thresholds      match.Thresholds
	seedScore       match.SeedScoreFunc
	targetScore     match.TargetScoreFunc
	callTimeout     time.Duration
	seedSearchLimit int
	logger          *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithThresholds overrides the early-exit thresholds, acceptance floor and
// scan limit.
func WithThresholds(t match.Thresholds) Option {
	return func(r *Resolver) {
		r.thresholds = t
	}
}

// WithSeedScorer replaces the seed scoring function.
func WithSeedScorer(fn match.SeedScoreFunc) Option {
	return func(r *Resolver) {
		if fn != nil {
			r.seedScore = fn
		}
	}
}

// WithTargetScorer replaces the target scoring function.
func WithTargetScorer(fn match.TargetScoreFunc) Option {
	return func(r *Resolver) {
		if fn != nil {
			r.targetScore = fn
		}
	}
}

// WithCallTimeout bounds each upstream search.
func WithCallTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.callTimeout = d
		}
	}
}

// WithSeedSearchLimit sets how many hits each seed query requests.
func WithSeedSearchLimit(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.seedSearchLimit = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Resolver with the default thresholds and scorers.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		thresholds:      match.DefaultThresholds(),
		seedScore:       match.SeedScore,
		targetScore:     match.TargetScore,
		callTimeout:     defaultCallTimeout,
		seedSearchLimit: defaultSeedSearchLimit,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.thresholds.ScanLimit <= 0 {
		r.thresholds.ScanLimit = match.DefaultThresholds().ScanLimit
	}
	r.logger = r.logger.With("component", "resolve")
	return r
}

// CallTimeout returns the timeout applied to each upstream call.
func (r *Resolver) CallTimeout() time.Duration {
	return r.callTimeout
}

// Thresholds returns the active thresholds.
func (r *Resolver) Thresholds() match.Thresholds {
	return r.thresholds
}

func (r *Resolver) searchSeed(ctx context.Context, s SeedSearcher, query string) []match.SeedTrack {
	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	hits, err := s.SearchTracks(callCtx, query, r.seedSearchLimit)
	if err != nil {
		r.logger.Debug("seed query failed", "query", query, "error", err)
		return nil
	}
	return hits
}

func (r *Resolver) searchTarget(ctx context.Context, s TargetSearcher, query string, limit int) []match.CandidateTrack {
	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	candidates, err := s.SearchSongs(callCtx, query, limit)
	if err != nil {
		r.logger.Debug("catalog query failed", "query", query, "error", err)
		return nil
	}
	return candidates
}
