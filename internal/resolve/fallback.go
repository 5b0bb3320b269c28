package resolve

import (
	"context"

	"github.com/justestif/go-musichub/internal/match"
)

// FallbackQueries are the broad queries tried, in order, when an aggregate
// source such as the charts comes back empty or short.
var FallbackQueries = []string{
	"trending",
	"top hits",
	"new releases",
	"bollywood",
	"punjabi",
	"pop",
	"rock",
	"hip hop",
}

// FillFromFallback returns have, de-duplicated, topped up with results of
// queries until it holds target items or the queries run out. Each query
// contributes at most perQuery new items. Failed queries contribute nothing.
func (r *Resolver) FillFromFallback(
	ctx context.Context,
	s TargetSearcher,
	have []match.CandidateTrack,
	target, perQuery int,
	queries []string,
) []match.CandidateTrack {
	seen := NewSeen()
	out := make([]match.CandidateTrack, 0, target)
	for _, c := range have {
		if len(out) >= target {
			return out
		}
		if seen.Add(c) {
			out = append(out, c)
		}
	}

	for _, query := range queries {
		if len(out) >= target || ctx.Err() != nil {
			break
		}

		added := 0
		for _, c := range r.searchTarget(ctx, s, query, perQuery) {
			if added >= perQuery || len(out) >= target {
				break
			}
			if c.ID != "" && seen.Add(c) {
				out = append(out, c)
				added++
			}
		}
		r.logger.Debug("fallback query", "query", query, "added", added, "total", len(out))
	}
	return out
}
