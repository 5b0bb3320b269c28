package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/justestif/go-musichub/internal/cache"
	"github.com/justestif/go-musichub/internal/charts"
	"github.com/justestif/go-musichub/internal/config"
	"github.com/justestif/go-musichub/internal/db"
	"github.com/justestif/go-musichub/internal/logging"
	"github.com/justestif/go-musichub/internal/lyrics"
	"github.com/justestif/go-musichub/internal/recommend"
	"github.com/justestif/go-musichub/internal/resolve"
	"github.com/justestif/go-musichub/internal/saavn"
	"github.com/justestif/go-musichub/internal/search"
	"github.com/justestif/go-musichub/internal/spotify"
)

const redisKeyPrefix = "musichub:"

// app holds the services shared by every command.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	cache  *cache.Cache

	recommend *recommend.Service
	search    *search.Service
	charts    *charts.Service
	lyrics    *lyrics.Client

	closers []func() error
}

// newApp loads configuration and wires the services. ctx must outlive the
// app, since the recommender token source refreshes with it.
func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, logCloser := logging.New(cfg.Logging)
	a := &app{cfg: cfg, logger: logger}
	a.closers = append(a.closers, logCloser.Close)

	c, err := a.openCache(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	a.cache = c

	resolver := resolve.New(
		resolve.WithThresholds(cfg.Matching.Thresholds()),
		resolve.WithCallTimeout(cfg.Matching.CallTimeout),
		resolve.WithSeedSearchLimit(cfg.Matching.SeedSearchLimit),
		resolve.WithLogger(logger),
	)

	catalog := saavn.NewClient(saavn.Config{
		BaseURL:           cfg.Saavn.BaseURL,
		FallbackBases:     cfg.Saavn.FallbackBases,
		Timeout:           cfg.Saavn.Timeout,
		RequestsPerSecond: cfg.Saavn.RequestsPerSecond,
		UserAgent:         cfg.Saavn.UserAgent,
	}, saavn.WithLogger(logger))

	recOpts := []recommend.Option{
		recommend.WithResolver(resolver),
		recommend.WithCache(c),
		recommend.WithConcurrency(cfg.Matching.Concurrency),
		recommend.WithLogger(logger),
	}
	sp, err := spotify.NewClientCredentials(ctx, spotify.Config{
		ClientID:          cfg.Spotify.ClientID,
		ClientSecret:      cfg.Spotify.ClientSecret,
		Timeout:           cfg.Spotify.Timeout,
		RequestsPerSecond: cfg.Spotify.RequestsPerSecond,
	}, spotify.WithLogger(logger))
	switch {
	case errors.Is(err, spotify.ErrMissingCredentials):
		logger.Warn("spotify credentials not set, recommendations disabled")
	case err != nil:
		a.close()
		return nil, fmt.Errorf("creating spotify client: %w", err)
	default:
		recOpts = append(recOpts, recommend.WithRecommender(sp))
	}

	a.recommend = recommend.NewService(catalog, recOpts...)
	a.search = search.NewService(catalog,
		search.WithCache(c),
		search.WithLogger(logger),
	)
	a.charts = charts.NewService(catalog,
		charts.WithCache(c),
		charts.WithResolver(resolver),
		charts.WithLogger(logger),
	)
	a.lyrics = lyrics.NewClient(lyrics.Config{
		BaseURL: cfg.Lyrics.BaseURL,
		Timeout: cfg.Lyrics.Timeout,
	}, lyrics.WithCache(c), lyrics.WithLogger(logger))

	return a, nil
}

// openCache builds the configured store. Connection failures degrade to an
// in-memory store so the service stays up.
func (a *app) openCache(ctx context.Context) (*cache.Cache, error) {
	cc := a.cfg.Cache
	opts := []cache.Option{
		cache.WithLogger(a.logger),
		cache.WithTTL(cache.KindSearch, cc.TTL.Search),
		cache.WithTTL(cache.KindRecommendations, cc.TTL.Recommendations),
		cache.WithTTL(cache.KindCharts, cc.TTL.Charts),
		cache.WithTTL(cache.KindLyrics, cc.TTL.Lyrics),
	}
	memory := func() *cache.Cache {
		return cache.New(cache.NewMemoryStore(cc.MemorySize, 0), opts...)
	}

	switch cc.Driver {
	case config.DriverNone:
		return cache.New(nil, opts...), nil

	case config.DriverMemory:
		return memory(), nil

	case config.DriverRedis:
		store, err := cache.NewRedisStore(ctx, cc.URL, redisKeyPrefix)
		if err != nil {
			a.logger.Warn("redis unavailable, using memory cache", "error", err)
			return memory(), nil
		}
		a.closers = append(a.closers, store.Close)
		return cache.New(store, opts...), nil

	case config.DriverPostgres:
		database, err := db.New(ctx, cc.URL)
		if err != nil {
			a.logger.Warn("postgres unavailable, using memory cache", "error", err)
			return memory(), nil
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, fmt.Errorf("migrating cache schema: %w", err)
		}
		a.closers = append(a.closers, func() error {
			database.Close()
			return nil
		})
		return cache.New(cache.NewPostgresStore(database), opts...), nil

	case config.DriverSQLite:
		store, err := cache.OpenSQLite(cc.Path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite cache: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		return cache.New(store, opts...), nil
	}

	return nil, fmt.Errorf("%w: unknown cache driver %q", config.ErrInvalidConfig, cc.Driver)
}

// purgeLoop removes expired cache rows every interval until ctx is done.
func (a *app) purgeLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.cache.Purge(ctx)
			if err != nil {
				a.logger.Warn("cache purge failed", "error", err)
				continue
			}
			if n > 0 {
				a.logger.Debug("cache purged", "removed", n)
			}
		}
	}
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.logger != nil {
			a.logger.Warn("closing resource", "error", err)
		}
	}
	a.closers = nil
}

// printJSON writes v to w as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := codec.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
