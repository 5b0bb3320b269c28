package resolve

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/justestif/go-musichub/internal/match"
	"github.com/justestif/go-musichub/internal/textnorm"
)

// MemoSearcher memoizes identical target searches for the lifetime of one
// request, so that several tracks resolving through the same query string
// issue it once. Concurrent identical searches share one upstream call,
// which runs detached from its callers under its own timeout; each caller
// stops waiting when its own context ends. Failed searches are not memoized.
// Returned slices are shared and must not be modified.
type MemoSearcher struct {
	next    TargetSearcher
	timeout time.Duration
	group   singleflight.Group

	mu      sync.Mutex
	results map[string][]match.CandidateTrack
}

// NewMemoSearcher wraps next. A non-positive timeout uses the default call
// timeout.
func NewMemoSearcher(next TargetSearcher, timeout time.Duration) *MemoSearcher {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &MemoSearcher{
		next:    next,
		timeout: timeout,
		results: make(map[string][]match.CandidateTrack),
	}
}

// SearchSongs implements TargetSearcher.
func (m *MemoSearcher) SearchSongs(ctx context.Context, query string, limit int) ([]match.CandidateTrack, error) {
	key := strconv.Itoa(limit) + ":" + strings.ToLower(textnorm.CollapseSpace(query))

	m.mu.Lock()
	cached, ok := m.results[key]
	m.mu.Unlock()
	if ok {
		return cached, nil
	}

	ch := m.group.DoChan(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
		defer cancel()

		songs, err := m.next.SearchSongs(callCtx, query, limit)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.results[key] = songs
		m.mu.Unlock()
		return songs, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]match.CandidateTrack), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
