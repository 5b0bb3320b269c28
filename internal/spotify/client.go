// Package spotify provides a wrapper around the Spotify Web API, used as the
// upstream recommender: seed lookup by text search and track recommendations.
package spotify

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const defaultTimeout = 10 * time.Second

var (
	// ErrMissingCredentials is returned when the client ID or secret is not set.
	ErrMissingCredentials = errors.New("missing Spotify client ID or client secret")

	// ErrNoSeed is returned when a seed ID is empty.
	ErrNoSeed = errors.New("no seed track")
)

// Config holds app credentials and request limits.
type Config struct {
	ClientID          string
	ClientSecret      string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Configured reports whether both credentials are present.
func (c Config) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Client wraps the Spotify API client with convenience methods.
type Client struct {
	api     *spotify.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// New creates a new Spotify client wrapper.
// The underlying client should already be authenticated.
func New(api *spotify.Client, opts ...Option) *Client {
	c := &Client{
		api:     api,
		limiter: rate.NewLimiter(rate.Inf, 1),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "spotify")
	return c
}

// NewClientCredentials creates a client authenticated with the client
// credentials flow. The token source refreshes the app token on expiry.
// Returns ErrMissingCredentials if either credential is empty.
func NewClientCredentials(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if !cfg.Configured() {
		return nil, ErrMissingCredentials
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}

	// Token requests use the same bounded client as API calls
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: timeout})
	httpClient := creds.Client(ctx)
	httpClient.Timeout = timeout

	api := spotify.New(httpClient)
	return New(api, append([]Option{WithRateLimit(cfg.RequestsPerSecond)}, opts...)...), nil
}

func (c *Client) wait(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}
