package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/justestif/go-musichub/internal/charts"
	"github.com/justestif/go-musichub/internal/lyrics"
	"github.com/justestif/go-musichub/internal/recommend"
	"github.com/justestif/go-musichub/internal/search"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Recommender produces recommendation lists.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (recommend.Response, error)
}

// Searcher runs free-text searches.
type Searcher interface {
	Search(ctx context.Context, query string) (search.Response, error)
}

// ChartLister lists top chart songs.
type ChartLister interface {
	Top(ctx context.Context, limit int) charts.Response
}

// LyricsFetcher fetches lyrics for a track.
type LyricsFetcher interface {
	Get(ctx context.Context, q lyrics.Query) (lyrics.Lyrics, error)
}

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	recommender Recommender
	searcher    Searcher
	charts      ChartLister
	lyrics      LyricsFetcher
	logger      *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(rec Recommender, s Searcher, c ChartLister, l LyricsFetcher, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		recommender: rec,
		searcher:    s,
		charts:      c,
		lyrics:      l,
		logger:      logger.With("component", "web"),
	}
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Recommendations handles GET /api/recommendations. Every failure yields
// 200 with an empty list.
func (h *Handlers) Recommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := recommend.Request{
		Name:   q.Get("name"),
		Artist: q.Get("artist"),
		Limit:  intParam(q.Get("limit")),
		Slot:   q.Get("slot"),
	}

	resp, err := h.recommender.Recommend(r.Context(), req)
	if err != nil && !errors.Is(err, recommend.ErrSuperseded) {
		h.logger.Warn("recommendations failed", "name", req.Name, "error", err)
	}
	if resp.Data == nil {
		resp.Data = []json.RawMessage{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Search handles GET /api/search.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	resp, err := h.searcher.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			writeError(w, http.StatusBadRequest, "query parameter q is required")
			return
		}
		h.logger.Warn("search failed", "error", err)
		writeError(w, http.StatusBadGateway, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Charts handles GET /api/charts.
func (h *Handlers) Charts(w http.ResponseWriter, r *http.Request) {
	limit := charts.ClampLimit(intParam(r.URL.Query().Get("limit")))
	writeJSON(w, http.StatusOK, h.charts.Top(r.Context(), limit))
}

// Lyrics handles GET /api/lyrics.
func (h *Handlers) Lyrics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := lyrics.Query{
		Track:           q.Get("track"),
		Artist:          q.Get("artist"),
		Album:           q.Get("album"),
		DurationSeconds: intParam(q.Get("duration")),
	}

	l, err := h.lyrics.Get(r.Context(), query)
	switch {
	case errors.Is(err, lyrics.ErrMissingParams):
		writeError(w, http.StatusBadRequest, "track and artist are required")
	case errors.Is(err, lyrics.ErrNotFound):
		writeError(w, http.StatusNotFound, "lyrics not found")
	case err != nil:
		h.logger.Warn("lyrics lookup failed", "track", query.Track, "error", err)
		writeError(w, http.StatusBadGateway, "lyrics provider unavailable")
	default:
		writeJSON(w, http.StatusOK, l)
	}
}

// intParam parses a non-negative integer, returning 0 when absent or invalid.
func intParam(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := codec.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encode error", http.StatusInternalServerError)
	}
}
