// Package config loads MusicHub settings from an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/justestif/go-musichub/internal/logging"
	"github.com/justestif/go-musichub/internal/match"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Cache drivers.
const (
	DriverNone     = "none"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Spotify  SpotifyConfig  `yaml:"spotify"`
	Saavn    SaavnConfig    `yaml:"saavn"`
	Lyrics   LyricsConfig   `yaml:"lyrics"`
	Cache    CacheConfig    `yaml:"cache"`
	Matching MatchingConfig `yaml:"matching"`
	Logging  logging.Config `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// SpotifyConfig holds recommender credentials.
type SpotifyConfig struct {
	ClientID          string        `yaml:"client_id"`
	ClientSecret      string        `yaml:"client_secret"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// Configured reports whether both credentials are present.
func (s SpotifyConfig) Configured() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// SaavnConfig holds target catalog settings.
type SaavnConfig struct {
	BaseURL           string        `yaml:"base_url"`
	FallbackBases     []string      `yaml:"fallback_bases"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	UserAgent         string        `yaml:"user_agent"`
}

// LyricsConfig holds LRCLIB settings.
type LyricsConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// CacheConfig selects and tunes the response cache store.
type CacheConfig struct {
	Driver        string        `yaml:"driver"`
	URL           string        `yaml:"url"`
	Path          string        `yaml:"path"`
	MemorySize    int           `yaml:"memory_size"`
	PurgeInterval time.Duration `yaml:"purge_interval"`
	TTL           CacheTTL      `yaml:"ttl"`
}

// CacheTTL overrides the per-kind TTLs. Zero keeps the built-in value.
type CacheTTL struct {
	Search          time.Duration `yaml:"search"`
	Recommendations time.Duration `yaml:"recommendations"`
	Charts          time.Duration `yaml:"charts"`
	Lyrics          time.Duration `yaml:"lyrics"`
}

// MatchingConfig tunes resolution.
type MatchingConfig struct {
	SeedEarlyExit   float64       `yaml:"seed_early_exit"`
	TargetEarlyExit float64       `yaml:"target_early_exit"`
	AcceptanceFloor float64       `yaml:"acceptance_floor"`
	ScanLimit       int           `yaml:"scan_limit"`
	SeedSearchLimit int           `yaml:"seed_search_limit"`
	Concurrency     int           `yaml:"concurrency"`
	CallTimeout     time.Duration `yaml:"call_timeout"`
}

// Thresholds converts the matching section to resolver thresholds.
func (m MatchingConfig) Thresholds() match.Thresholds {
	return match.Thresholds{
		SeedEarlyExit:   m.SeedEarlyExit,
		TargetEarlyExit: m.TargetEarlyExit,
		AcceptanceFloor: m.AcceptanceFloor,
		ScanLimit:       m.ScanLimit,
	}
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	t := match.DefaultThresholds()
	return &Config{
		Server: ServerConfig{
			Addr:         "127.0.0.1:8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Spotify: SpotifyConfig{
			Timeout:           10 * time.Second,
			RequestsPerSecond: 10,
		},
		Saavn: SaavnConfig{
			Timeout:           10 * time.Second,
			RequestsPerSecond: 20,
		},
		Lyrics: LyricsConfig{
			BaseURL: "https://lrclib.net/api",
			Timeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Driver:        DriverMemory,
			Path:          "musichub-cache.db",
			MemorySize:    4096,
			PurgeInterval: 10 * time.Minute,
		},
		Matching: MatchingConfig{
			SeedEarlyExit:   t.SeedEarlyExit,
			TargetEarlyExit: t.TargetEarlyExit,
			AcceptanceFloor: t.AcceptanceFloor,
			ScanLimit:       t.ScanLimit,
			SeedSearchLimit: 5,
			Concurrency:     4,
			CallTimeout:     8 * time.Second,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load reads configuration from a YAML file (if present) and then applies
// environment variable overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from a CLI flag
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		cfg.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		cfg.Spotify.ClientSecret = v
	}
	if v := os.Getenv("MUSICHUB_ADDR"); v != "" {
		cfg.Server.Addr = v
	}

	if v := firstEnv("MUSICHUB_SAAVN_URL", "NEXT_PUBLIC_API_URL"); v != "" {
		cfg.Saavn.BaseURL = v
	}

	// A connection URL selects its driver unless one is set explicitly.
	if v := firstEnv("REDIS_URL", "REDIS_CLOUD_URL"); v != "" {
		cfg.Cache.Driver = DriverRedis
		cfg.Cache.URL = v
	} else if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Cache.Driver = DriverPostgres
		cfg.Cache.URL = v
	}
	if v := os.Getenv("MUSICHUB_CACHE_DRIVER"); v != "" {
		cfg.Cache.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("MUSICHUB_CACHE_PATH"); v != "" {
		cfg.Cache.Path = v
	}

	if v := os.Getenv("MUSICHUB_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("MUSICHUB_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("MUSICHUB_LOG_FILE"); v != "" {
		cfg.Logging.FilePath = v
	}

	if v := os.Getenv("MUSICHUB_ACCEPTANCE_FLOOR"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: MUSICHUB_ACCEPTANCE_FLOOR %q: %w", ErrInvalidConfig, v, err)
		}
		cfg.Matching.AcceptanceFloor = f
	}

	return nil
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is required", ErrInvalidConfig)
	}

	switch c.Cache.Driver {
	case DriverNone, DriverMemory, DriverSQLite:
	case DriverRedis, DriverPostgres:
		if c.Cache.URL == "" {
			return fmt.Errorf("%w: cache.url is required for driver %q", ErrInvalidConfig, c.Cache.Driver)
		}
	default:
		return fmt.Errorf("%w: unknown cache driver %q", ErrInvalidConfig, c.Cache.Driver)
	}
	if c.Cache.Driver == DriverSQLite && c.Cache.Path == "" {
		return fmt.Errorf("%w: cache.path is required for sqlite", ErrInvalidConfig)
	}

	m := c.Matching
	for name, v := range map[string]float64{
		"seed_early_exit":   m.SeedEarlyExit,
		"target_early_exit": m.TargetEarlyExit,
		"acceptance_floor":  m.AcceptanceFloor,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: matching.%s must be within [0, 1], got %v", ErrInvalidConfig, name, v)
		}
	}
	if m.AcceptanceFloor > m.TargetEarlyExit {
		return fmt.Errorf("%w: matching.acceptance_floor exceeds target_early_exit", ErrInvalidConfig)
	}
	if m.ScanLimit < 1 || m.Concurrency < 1 || m.SeedSearchLimit < 1 {
		return fmt.Errorf("%w: matching limits must be positive", ErrInvalidConfig)
	}

	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.Logging.Level)
	}
	if !logging.ValidFormat(c.Logging.Format) {
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Logging.Format)
	}

	return nil
}
