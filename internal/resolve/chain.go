package resolve

import (
	"context"

	"github.com/justestif/go-musichub/internal/match"
	"github.com/justestif/go-musichub/internal/variants"
)

// ResolveSeed finds the recommender-catalog track that best matches seed.
// Variants are tried in order and the best hit across all of them is kept.
// The chain stops once a hit reaches the seed early-exit threshold. If no
// hit scores above 0 the seed is exhausted.
func (r *Resolver) ResolveSeed(ctx context.Context, s SeedSearcher, seed match.SeedTrack) Resolution[match.SeedTrack] {
	var res Resolution[match.SeedTrack]

	for _, query := range variants.ForSeed(seed) {
		if ctx.Err() != nil {
			break
		}

		res.Queries++
		for _, hit := range r.searchSeed(ctx, s, query) {
			if hit.ExternalID == "" {
				continue
			}
			if score := r.seedScore(seed, hit); score > res.Score {
				res.Best, res.Score = hit, score
			}
		}

		if res.Score >= r.thresholds.SeedEarlyExit {
			break
		}
	}

	if res.Score > 0 {
		res.State = StateMatched
	} else {
		res.State = StateExhausted
	}
	return res
}

// ResolveTarget finds the target-catalog candidate that best matches track.
// Each variant is searched in turn and at most ScanLimit candidates of each
// are scored. Scoring stops at the first candidate that reaches the target
// early-exit threshold, even if later candidates in the same response would
// score higher. The best candidate is accepted only if it clears the acceptance
// floor.
func (r *Resolver) ResolveTarget(ctx context.Context, s TargetSearcher, track match.SeedTrack) Resolution[match.CandidateTrack] {
	var (
		res   Resolution[match.CandidateTrack]
		found bool
	)
	limit := r.thresholds.ScanLimit

scan:
	for _, query := range variants.ForTrack(track) {
		if ctx.Err() != nil {
			break
		}

		res.Queries++
		candidates := r.searchTarget(ctx, s, query, limit)
		if len(candidates) > limit {
			candidates = candidates[:limit]
		}

		for _, c := range candidates {
			if c.ID == "" {
				continue
			}
			if score := r.targetScore(track, c); !found || score > res.Score {
				res.Best, res.Score, found = c, score, true
			}
			if res.Score >= r.thresholds.TargetEarlyExit {
				break scan
			}
		}
	}

	if found && res.Score >= r.thresholds.AcceptanceFloor {
		res.State = StateMatched
		return res
	}

	r.logger.Debug("no acceptable match",
		"track", track.Name,
		"artist", track.PrimaryArtist(),
		"best_score", res.Score,
		"queries", res.Queries,
	)
	res.State = StateExhausted
	res.Best = match.CandidateTrack{}
	return res
}
