package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envNames = []string{
	"SPOTIFY_CLIENT_ID", "SPOTIFY_CLIENT_SECRET", "MUSICHUB_ADDR",
	"MUSICHUB_SAAVN_URL", "NEXT_PUBLIC_API_URL", "REDIS_URL", "REDIS_CLOUD_URL",
	"DATABASE_URL", "MUSICHUB_CACHE_DRIVER", "MUSICHUB_CACHE_PATH",
	"MUSICHUB_LOG_LEVEL", "MUSICHUB_LOG_FORMAT", "MUSICHUB_LOG_FILE",
	"MUSICHUB_ACCEPTANCE_FLOOR",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range envNames {
		t.Setenv(name, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "musichub.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:8080" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Cache.Driver != DriverMemory {
		t.Errorf("Cache.Driver = %q, want memory", cfg.Cache.Driver)
	}
	if cfg.Matching.AcceptanceFloor != 0.24 {
		t.Errorf("AcceptanceFloor = %v, want 0.24", cfg.Matching.AcceptanceFloor)
	}
	if cfg.Spotify.Configured() {
		t.Error("Spotify.Configured() = true without credentials")
	}
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	path := writeFile(t, `
server:
  addr: ":9000"
spotify:
  client_id: id
  client_secret: secret
cache:
  driver: sqlite
  path: /tmp/cache.db
  ttl:
    charts: 10m
matching:
  acceptance_floor: 0.3
  call_timeout: 5s
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if !cfg.Spotify.Configured() {
		t.Error("Spotify.Configured() = false")
	}
	if cfg.Cache.Driver != DriverSQLite || cfg.Cache.Path != "/tmp/cache.db" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Cache.TTL.Charts != 10*time.Minute {
		t.Errorf("Cache.TTL.Charts = %v", cfg.Cache.TTL.Charts)
	}
	if cfg.Matching.AcceptanceFloor != 0.3 || cfg.Matching.CallTimeout != 5*time.Second {
		t.Errorf("Matching = %+v", cfg.Matching)
	}
	// untouched keys keep their defaults
	if cfg.Matching.ScanLimit != 12 {
		t.Errorf("ScanLimit = %d, want 12", cfg.Matching.ScanLimit)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q", cfg.Logging.Format)
	}
}

func TestLoad_Env(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "credentials and addr",
			env:  map[string]string{"SPOTIFY_CLIENT_ID": "a", "SPOTIFY_CLIENT_SECRET": "b", "MUSICHUB_ADDR": ":7000"},
			check: func(t *testing.T, cfg *Config) {
				if !cfg.Spotify.Configured() || cfg.Server.Addr != ":7000" {
					t.Errorf("cfg = %+v", cfg)
				}
			},
		},
		{
			name: "legacy catalog url",
			env:  map[string]string{"NEXT_PUBLIC_API_URL": "https://mirror.example"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Saavn.BaseURL != "https://mirror.example" {
					t.Errorf("Saavn.BaseURL = %q", cfg.Saavn.BaseURL)
				}
			},
		},
		{
			name: "redis url selects redis",
			env:  map[string]string{"REDIS_CLOUD_URL": "redis://localhost:6379/0"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Cache.Driver != DriverRedis || cfg.Cache.URL != "redis://localhost:6379/0" {
					t.Errorf("Cache = %+v", cfg.Cache)
				}
			},
		},
		{
			name: "database url selects postgres",
			env:  map[string]string{"DATABASE_URL": "postgres://localhost/musichub"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Cache.Driver != DriverPostgres {
					t.Errorf("Cache.Driver = %q", cfg.Cache.Driver)
				}
			},
		},
		{
			name: "explicit driver wins",
			env:  map[string]string{"DATABASE_URL": "postgres://localhost/musichub", "MUSICHUB_CACHE_DRIVER": "NONE"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Cache.Driver != DriverNone {
					t.Errorf("Cache.Driver = %q", cfg.Cache.Driver)
				}
			},
		},
		{
			name: "acceptance floor",
			env:  map[string]string{"MUSICHUB_ACCEPTANCE_FLOOR": "0.5"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Matching.Thresholds().AcceptanceFloor != 0.5 {
					t.Errorf("AcceptanceFloor = %v", cfg.Matching.AcceptanceFloor)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "unknown driver", file: "cache:\n  driver: mongo\n"},
		{name: "redis without url", file: "cache:\n  driver: redis\n"},
		{name: "floor out of range", file: "matching:\n  acceptance_floor: 1.5\n"},
		{name: "floor above early exit", file: "matching:\n  acceptance_floor: 0.96\n"},
		{name: "zero scan limit", file: "matching:\n  scan_limit: 0\n"},
		{name: "bad log level", file: "logging:\n  level: loud\n"},
		{name: "bad floor env", env: map[string]string{"MUSICHUB_ACCEPTANCE_FLOOR": "high"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeFile(t, tt.file)
			}

			_, err := Load(path)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Load() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeFile(t, "server: [unclosed"))
	if err == nil {
		t.Fatal("Load() error = nil for malformed YAML")
	}
}
