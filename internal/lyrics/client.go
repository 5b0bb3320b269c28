// Package lyrics provides LRCLIB integration for fetching synced and plain
// lyrics.
package lyrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/justestif/go-musichub/internal/cache"
)

const (
	defaultBaseURL = "https://lrclib.net/api"
	userAgent      = "MusicHub/1.0"
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
)

// Sentinel errors.
var (
	// ErrMissingParams is returned when the track or artist is empty.
	ErrMissingParams = errors.New("missing track or artist")

	// ErrNotFound is returned when no lyrics exist for the track.
	ErrNotFound = errors.New("lyrics not found")

	// ErrRateLimited is returned when the API rate limit is exceeded after retries.
	ErrRateLimited = errors.New("rate limit exceeded")
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Config holds LRCLIB client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is an LRCLIB API client. Results are cached in the shared response
// cache when one is configured.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	cache       *cache.Cache
	retryDelays []time.Duration
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithCache sets the response cache.
func WithCache(c *cache.Cache) Option {
	return func(cl *Client) {
		cl.cache = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		if logger != nil {
			cl.logger = logger
		}
	}
}

// NewClient creates a new LRCLIB client from the provided configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     base,
		retryDelays: []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "lyrics")
	return c
}

// Get fetches lyrics for q. A strict lookup is tried first when the album
// and duration are known; otherwise, or when it finds nothing, a search is
// run and the first result with synced lyrics is preferred.
// Returns ErrMissingParams or ErrNotFound.
func (c *Client) Get(ctx context.Context, q Query) (Lyrics, error) {
	q.Track = strings.TrimSpace(q.Track)
	q.Artist = strings.TrimSpace(q.Artist)
	q.Album = strings.TrimSpace(q.Album)
	if q.Track == "" || q.Artist == "" {
		return Lyrics{}, ErrMissingParams
	}

	key := cache.Key(cache.KindLyrics, map[string]string{
		"track":    q.Track,
		"artist":   q.Artist,
		"album":    q.Album,
		"duration": strconv.Itoa(q.DurationSeconds),
	})
	var cached Lyrics
	if c.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	l, err := c.lookup(ctx, q)
	if err != nil {
		return Lyrics{}, err
	}
	l = l.Sanitize()

	c.cache.SetJSON(ctx, cache.KindLyrics, key, l)
	return l, nil
}

func (c *Client) lookup(ctx context.Context, q Query) (Lyrics, error) {
	if q.strict() {
		l, err := c.getStrict(ctx, q)
		if err == nil {
			return l, nil
		}
		c.logger.Debug("strict lookup failed, searching", "track", q.Track, "error", err)
	}
	return c.search(ctx, q)
}

// getStrict calls /get, which matches track, artist, album and duration.
func (c *Client) getStrict(ctx context.Context, q Query) (Lyrics, error) {
	params := url.Values{
		"track_name":  {q.Track},
		"artist_name": {q.Artist},
		"album_name":  {q.Album},
		"duration":    {strconv.Itoa(q.DurationSeconds)},
	}

	body, err := c.doRequest(ctx, "/get", params)
	if err != nil {
		return Lyrics{}, fmt.Errorf("fetching lyrics: %w", err)
	}

	var l Lyrics
	if err := codec.Unmarshal(body, &l); err != nil {
		return Lyrics{}, fmt.Errorf("parsing lyrics response: %w", err)
	}
	return l, nil
}

// search calls /search and picks the best entry.
func (c *Client) search(ctx context.Context, q Query) (Lyrics, error) {
	params := url.Values{
		"track_name":  {q.Track},
		"artist_name": {q.Artist},
	}
	if q.Album != "" {
		params.Set("album_name", q.Album)
	}

	body, err := c.doRequest(ctx, "/search", params)
	if err != nil {
		return Lyrics{}, fmt.Errorf("searching lyrics: %w", err)
	}

	var results []Lyrics
	if err := codec.Unmarshal(body, &results); err != nil {
		return Lyrics{}, fmt.Errorf("parsing search response: %w", err)
	}

	best, ok := pickBest(results)
	if !ok {
		return Lyrics{}, ErrNotFound
	}
	return best, nil
}

// pickBest returns the first result with synced lyrics, else the first
// result.
func pickBest(results []Lyrics) (Lyrics, bool) {
	for _, r := range results {
		if strings.TrimSpace(r.SyncedLyrics) != "" {
			return r, true
		}
	}
	if len(results) > 0 {
		return results[0], true
	}
	return Lyrics{}, false
}

// doRequest performs an HTTP GET request with retry on rate limit.
func (c *Client) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + path + "?" + params.Encode()
	var lastErr error

	for attempt := 0; attempt <= len(c.retryDelays); attempt++ {
		// Wait before retry (skip on first attempt)
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelays[attempt-1]):
			}
		}

		body, err := c.doSingleRequest(ctx, reqURL)
		if err == nil {
			return body, nil
		}

		if errors.Is(err, ErrRateLimited) {
			lastErr = err
			continue
		}

		// Non-retryable error
		return nil, err
	}

	return nil, lastErr
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}
