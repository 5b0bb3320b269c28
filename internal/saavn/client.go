// Package saavn is a client for the public JioSaavn API mirrors, the target
// catalog that recommended tracks are resolved against.
package saavn

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
	"golang.org/x/time/rate"

	"github.com/justestif/go-musichub/internal/match"
	"github.com/justestif/go-musichub/internal/payload"
)

const (
	defaultUserAgent = "MusicHub/1.0"
	defaultTimeout   = 10 * time.Second
	maxBodyBytes     = 8 << 20
)

// DefaultBases are the public mirrors tried after the configured base.
var DefaultBases = []string{
	"https://saavn.me",
	"https://saavn.dev",
	"https://jiosaavn-api.vercel.app",
}

// Sentinel errors.
var (
	// ErrUpstream is returned when every mirror failed.
	ErrUpstream = errors.New("catalog unavailable")

	// ErrRateLimited is returned when a mirror keeps answering 429 after retries.
	ErrRateLimited = errors.New("rate limit exceeded")
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Config holds catalog client settings.
type Config struct {
	BaseURL           string
	FallbackBases     []string
	Timeout           time.Duration
	RequestsPerSecond float64
	UserAgent         string
}

// Client queries the catalog, falling back across mirrors.
type Client struct {
	bases       []string
	httpClient  *http.Client
	limiter     *rate.Limiter
	userAgent   string
	retryDelays []time.Duration
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a catalog client from cfg.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	fallbacks := cfg.FallbackBases
	if fallbacks == nil {
		fallbacks = DefaultBases
	}

	c := &Client{
		bases:       candidateBases(cfg.BaseURL, fallbacks),
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(limit, 1),
		userAgent:   ua,
		retryDelays: []time.Duration{1 * time.Second, 2 * time.Second},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "saavn")
	return c
}

// candidateBases expands each base into its "/api" and bare forms, keeping
// first-seen order.
func candidateBases(primary string, fallbacks []string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(b string) {
		b = strings.TrimRight(strings.TrimSpace(b), "/")
		if b == "" {
			return
		}
		if _, ok := seen[b]; ok {
			return
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}

	for _, base := range append([]string{primary}, fallbacks...) {
		base = strings.TrimRight(strings.TrimSpace(base), "/")
		if base == "" {
			continue
		}
		if strings.HasSuffix(base, "/api") {
			add(base)
			add(strings.TrimSuffix(base, "/api"))
			continue
		}
		add(base + "/api")
		add(base)
	}
	return out
}

// Bases returns the ordered mirror list.
func (c *Client) Bases() []string {
	return append([]string(nil), c.bases...)
}

// SearchSongs runs a song search and returns parsed candidates.
func (c *Client) SearchSongs(ctx context.Context, query string, limit int) ([]match.CandidateTrack, error) {
	params := url.Values{
		"query": {query},
		"q":     {query},
		"limit": {strconv.Itoa(limit)},
	}
	body, err := c.get(ctx, "/search/songs", params)
	if err != nil {
		return nil, fmt.Errorf("searching songs: %w", err)
	}

	songs := ParseSongs(payload.UnwrapResultArray(body, payload.ResultPaths))
	if limit > 0 && len(songs) > limit {
		songs = songs[:limit]
	}
	return songs, nil
}

// TopCharts returns song-like records from the catalog's home modules.
func (c *Client) TopCharts(ctx context.Context, limit int) ([]match.CandidateTrack, error) {
	params := url.Values{"language": {"hindi,english"}}
	body, err := c.get(ctx, "/modules", params)
	if err != nil {
		return nil, fmt.Errorf("fetching top charts: %w", err)
	}

	items := payload.FindSongLike(body, payload.WalkLimits{MaxFound: limit})
	return ParseSongs(items), nil
}

// get tries every base in order and returns the first successful body.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	var lastErr error
	for _, base := range c.bases {
		reqURL := base + path + "?" + params.Encode()

		body, err := c.doRequest(ctx, reqURL)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		c.logger.Debug("mirror failed", "base", base, "path", path, "error", err)
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no base URL configured")
	}
	return nil, fmt.Errorf("%w: %v", ErrUpstream, lastErr)
}

// doRequest performs an HTTP GET request with retry on rate limit.
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
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
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if !codec.Valid(body) {
		return nil, errors.New("response is not JSON")
	}

	// Some mirrors answer 200 with {"success": false}
	var envelope struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}
	if err := codec.Unmarshal(body, &envelope); err == nil && envelope.Success != nil && !*envelope.Success {
		return nil, fmt.Errorf("API error: %s", envelope.Message)
	}

	return body, nil
}
