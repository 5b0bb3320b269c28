package recommend

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/justestif/go-musichub/internal/cache"
	"github.com/justestif/go-musichub/internal/match"
)

// mockRecommender implements Recommender for testing.
type mockRecommender struct {
	hits   []match.SeedTrack
	recs   []match.SeedTrack
	recErr error

	searchCalls atomic.Int32
	recCalls    atomic.Int32

	// entered, when set, makes the first Recommend call signal it and block
	// until its context is cancelled.
	entered chan struct{}
	blocked atomic.Bool

	mu      sync.Mutex
	gotSeed string
	gotArt  string
}

func (m *mockRecommender) SearchTracks(_ context.Context, _ string, _ int) ([]match.SeedTrack, error) {
	m.searchCalls.Add(1)
	return m.hits, nil
}

func (m *mockRecommender) Recommend(ctx context.Context, seedID string, _ int, seedArtistID string) ([]match.SeedTrack, error) {
	m.recCalls.Add(1)
	m.mu.Lock()
	m.gotSeed, m.gotArt = seedID, seedArtistID
	m.mu.Unlock()

	if m.entered != nil && m.blocked.CompareAndSwap(false, true) {
		close(m.entered)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.recErr != nil {
		return nil, m.recErr
	}
	return m.recs, nil
}

// mockCatalog returns every song whose name occurs in the query.
type mockCatalog struct {
	songs     []match.CandidateTrack
	callCount atomic.Int32
}

func (m *mockCatalog) SearchSongs(_ context.Context, query string, _ int) ([]match.CandidateTrack, error) {
	m.callCount.Add(1)
	var out []match.CandidateTrack
	for _, s := range m.songs {
		if strings.Contains(strings.ToLower(query), strings.ToLower(s.Name)) {
			out = append(out, s)
		}
	}
	return out, nil
}

func song(id, name, artist string) match.CandidateTrack {
	return match.CandidateTrack{
		ID:      id,
		Name:    name,
		Artists: []string{artist},
		Raw:     []byte(`{"id":"` + id + `"}`),
	}
}

func newFixtures() (*mockRecommender, *mockCatalog) {
	rec := &mockRecommender{
		hits: []match.SeedTrack{
			{ExternalID: "seed", Name: "Tum Hi Ho", Artists: []string{"Arijit Singh"}, ArtistIDs: []string{"a1"}},
		},
		recs: []match.SeedTrack{
			{ExternalID: "r1", Name: "Channa Mereya", Artists: []string{"Arijit Singh"}},
			{ExternalID: "r2", Name: "Obscure Demo", Artists: []string{"Nobody"}},
			{ExternalID: "r3", Name: "Raabta", Artists: []string{"Arijit Singh"}},
			{ExternalID: "r4", Name: "Channa Mereya", Artists: []string{"Arijit Singh"}, Album: "Unplugged"},
		},
	}
	catalog := &mockCatalog{songs: []match.CandidateTrack{
		song("s-channa", "Channa Mereya", "Arijit Singh"),
		song("s-raabta", "Raabta", "Arijit Singh"),
	}}
	return rec, catalog
}

func ids(resp Response) []string {
	out := make([]string, len(resp.Data))
	for i, raw := range resp.Data {
		out[i] = string(raw)
	}
	return out
}

func TestRecommend_Pipeline(t *testing.T) {
	rec, catalog := newFixtures()
	svc := NewService(catalog, WithRecommender(rec), WithConcurrency(2))

	resp, err := svc.Recommend(context.Background(), Request{Name: "Tum Hi Ho", Artist: "Arijit Singh"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := ids(resp)
	want := []string{`{"id":"s-channa"}`, `{"id":"s-raabta"}`}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Recommend() = %v, want %v (order kept, unmatched skipped, duplicates dropped)", got, want)
	}
	if rec.gotSeed != "seed" || rec.gotArt != "a1" {
		t.Errorf("Recommend called with seed %q artist %q", rec.gotSeed, rec.gotArt)
	}
}

func TestRecommend_Limit(t *testing.T) {
	rec, catalog := newFixtures()
	svc := NewService(catalog, WithRecommender(rec))

	resp, _ := svc.Recommend(context.Background(), Request{Name: "Tum Hi Ho", Limit: 1})
	if len(resp.Data) != 1 {
		t.Errorf("got %d tracks, want 1", len(resp.Data))
	}
}

func TestRecommend_EmptyOutcomes(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*mockRecommender)
		req   Request
	}{
		{name: "blank name", req: Request{Name: "   "}},
		{name: "seed not found", setup: func(m *mockRecommender) { m.hits = nil }, req: Request{Name: "Tum Hi Ho"}},
		{name: "recommender error", setup: func(m *mockRecommender) { m.recErr = errors.New("502") }, req: Request{Name: "Tum Hi Ho"}},
		{name: "no recommendations", setup: func(m *mockRecommender) { m.recs = nil }, req: Request{Name: "Tum Hi Ho"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, catalog := newFixtures()
			if tt.setup != nil {
				tt.setup(rec)
			}
			svc := NewService(catalog, WithRecommender(rec))

			resp, err := svc.Recommend(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Data == nil || len(resp.Data) != 0 {
				t.Errorf("Data = %v, want empty non-nil list", resp.Data)
			}
		})
	}
}

func TestRecommend_NoRecommender(t *testing.T) {
	_, catalog := newFixtures()
	svc := NewService(catalog)

	if svc.Configured() {
		t.Error("Configured() = true without recommender")
	}
	resp, err := svc.Recommend(context.Background(), Request{Name: "Tum Hi Ho"})
	if err != nil || len(resp.Data) != 0 {
		t.Errorf("Recommend() = %v, %v, want empty list", resp.Data, err)
	}
	if catalog.callCount.Load() != 0 {
		t.Errorf("catalog called %d times", catalog.callCount.Load())
	}
}

func TestRecommend_Cache(t *testing.T) {
	rec, catalog := newFixtures()
	c := cache.New(cache.NewMemoryStore(16, time.Hour))
	svc := NewService(catalog, WithRecommender(rec), WithCache(c))
	ctx := context.Background()

	first, _ := svc.Recommend(ctx, Request{Name: "Tum Hi Ho", Artist: "Arijit Singh"})
	second, _ := svc.Recommend(ctx, Request{Name: " tum hi ho ", Artist: "ARIJIT SINGH", Limit: 12})

	if rec.searchCalls.Load() == 0 {
		t.Fatal("recommender never called")
	}
	calls := rec.recCalls.Load()
	if calls != 1 {
		t.Errorf("Recommend calls = %d, want 1 (second request served from cache)", calls)
	}
	if strings.Join(ids(first), ",") != strings.Join(ids(second), ",") {
		t.Errorf("cached response differs: %v vs %v", ids(first), ids(second))
	}
}

func TestRecommend_EmptyResultsNotCached(t *testing.T) {
	rec, catalog := newFixtures()
	rec.recs = nil
	c := cache.New(cache.NewMemoryStore(16, time.Hour))
	svc := NewService(catalog, WithRecommender(rec), WithCache(c))
	ctx := context.Background()

	_, _ = svc.Recommend(ctx, Request{Name: "Tum Hi Ho"})
	_, _ = svc.Recommend(ctx, Request{Name: "Tum Hi Ho"})

	if got := rec.recCalls.Load(); got != 2 {
		t.Errorf("Recommend calls = %d, want 2 (empty result must not be cached)", got)
	}
	if c.Stats().Writes != 0 {
		t.Errorf("cache writes = %d, want 0", c.Stats().Writes)
	}
}

func TestRecommend_SupersededBatch(t *testing.T) {
	rec, catalog := newFixtures()
	rec.entered = make(chan struct{})
	c := cache.New(cache.NewMemoryStore(16, time.Hour))
	svc := NewService(catalog, WithRecommender(rec), WithCache(c))

	type result struct {
		resp Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := svc.Recommend(context.Background(), Request{Name: "Tum Hi Ho", Slot: "player"})
		done <- result{resp, err}
	}()

	select {
	case <-rec.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first request never reached the recommender")
	}

	newer, err := svc.Recommend(context.Background(), Request{Name: "Kesariya", Slot: "player"})
	if err != nil {
		t.Fatalf("newer request error = %v", err)
	}

	var old result
	select {
	case old = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("superseded request did not finish")
	}

	if !errors.Is(old.err, ErrSuperseded) {
		t.Errorf("old request error = %v, want ErrSuperseded", old.err)
	}
	if len(old.resp.Data) != 0 {
		t.Errorf("old request returned %d tracks", len(old.resp.Data))
	}
	if len(newer.Data) == 0 {
		t.Error("newer request returned no tracks")
	}
	if c.Stats().Writes != 1 {
		t.Errorf("cache writes = %d, want 1 (newer request only)", c.Stats().Writes)
	}
}

func TestRequestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero uses default", 0, DefaultLimit},
		{"negative uses default", -3, DefaultLimit},
		{"in range", 7, 7},
		{"max", 20, 20},
		{"above max clamps", 50, MaxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Request{Name: " x ", Limit: tt.limit}.Normalize()
			if got.Limit != tt.want {
				t.Errorf("Limit = %d, want %d", got.Limit, tt.want)
			}
			if got.Name != "x" {
				t.Errorf("Name = %q, want trimmed", got.Name)
			}
		})
	}
}

func TestWithConcurrency(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"positive value", 10, 10},
		{"zero uses default", 0, DefaultConcurrency},
		{"negative uses default", -1, DefaultConcurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&mockCatalog{}, WithConcurrency(tt.input))
			if svc.concurrency != tt.expected {
				t.Errorf("expected concurrency %d, got %d", tt.expected, svc.concurrency)
			}
		})
	}
}

func TestBatches(t *testing.T) {
	b := NewBatches()

	ctx1, first := b.Start(context.Background(), "player")
	ctx2, second := b.Start(context.Background(), "player")
	_, other := b.Start(context.Background(), "sidebar")

	if !first.Stale() || ctx1.Err() == nil {
		t.Error("first batch not superseded")
	}
	if second.Stale() || ctx2.Err() != nil {
		t.Error("second batch superseded")
	}
	if other.Stale() {
		t.Error("batch in another slot superseded")
	}
	if second.Seq <= first.Seq || first.ID == second.ID {
		t.Errorf("batch ids not increasing: %d/%s then %d/%s", first.Seq, first.ID, second.Seq, second.ID)
	}

	first.Done()
	if b.slots["player"] != second {
		t.Error("finishing a superseded batch released the newer one")
	}
	second.Done()
	if _, ok := b.slots["player"]; ok {
		t.Error("slot not released")
	}
	if ctx2.Err() == nil {
		t.Error("Done did not cancel the context")
	}
}

// cancellingCatalog cancels the request context once the first search
// has returned.
type cancellingCatalog struct {
	next   *mockCatalog
	cancel context.CancelFunc
	once   sync.Once
}

func (c *cancellingCatalog) SearchSongs(ctx context.Context, query string, limit int) ([]match.CandidateTrack, error) {
	out, err := c.next.SearchSongs(ctx, query, limit)
	c.once.Do(c.cancel)
	return out, err
}

func TestRecommend_CancelledSlotNotCached(t *testing.T) {
	rec, catalog := newFixtures()
	c := cache.New(cache.NewMemoryStore(16, time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := NewService(&cancellingCatalog{next: catalog, cancel: cancel},
		WithRecommender(rec), WithCache(c), WithConcurrency(1))

	resp, err := svc.Recommend(ctx, Request{Name: "Tum Hi Ho", Artist: "Arijit Singh", Slot: "player"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Data) != 0 {
		t.Errorf("cancelled request returned %v, want empty", ids(resp))
	}
	if c.Stats().Writes != 0 {
		t.Errorf("cache writes = %d, want 0", c.Stats().Writes)
	}

	fresh, _ := svc.Recommend(context.Background(), Request{Name: "Tum Hi Ho", Artist: "Arijit Singh", Slot: "player"})
	if len(fresh.Data) != 2 {
		t.Errorf("later request returned %v, want 2 tracks", ids(fresh))
	}
}

func TestRecommend_CallerLeavingKeepsSharedRun(t *testing.T) {
	rec, catalog := newFixtures()
	c := cache.New(cache.NewMemoryStore(16, time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := NewService(&cancellingCatalog{next: catalog, cancel: cancel},
		WithRecommender(rec), WithCache(c), WithConcurrency(1))

	first, _ := svc.Recommend(ctx, Request{Name: "Tum Hi Ho", Artist: "Arijit Singh"})
	if n := len(first.Data); n != 0 && n != 2 {
		t.Errorf("departed caller got %d tracks, want 0 or the full 2", n)
	}

	// Joins the detached run, or reads what it cached.
	later, _ := svc.Recommend(context.Background(), Request{Name: "Tum Hi Ho", Artist: "Arijit Singh"})
	if len(later.Data) != 2 {
		t.Errorf("later request returned %v, want 2 tracks", ids(later))
	}
	if c.Stats().Writes != 1 {
		t.Errorf("cache writes = %d, want 1", c.Stats().Writes)
	}
}
