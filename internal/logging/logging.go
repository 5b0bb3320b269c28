// Package logging builds the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes the desired logging configuration.
type Config struct {
	Level          string `yaml:"level"`
	Format         string `yaml:"format"`
	FilePath       string `yaml:"file_path"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxFiles   int    `yaml:"file_max_files"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
}

// DefaultConfig logs text at info level to stderr only.
func DefaultConfig() Config {
	return Config{
		Level:          "info",
		Format:         "text",
		FileMaxSizeMB:  50,
		FileMaxFiles:   3,
		FileMaxAgeDays: 14,
	}
}

// New returns a logger for cfg and a closer for the log file, if any. Output
// always goes to stderr; a configured file receives a copy and is rotated.
func New(cfg Config) (*slog.Logger, io.Closer) {
	return newLogger(os.Stderr, cfg)
}

func newLogger(stderr io.Writer, cfg Config) (*slog.Logger, io.Closer) {
	w, closer := buildWriter(stderr, cfg)
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), closer
}

func buildWriter(stderr io.Writer, cfg Config) (io.Writer, io.Closer) {
	if cfg.FilePath == "" {
		return stderr, nopCloser{}
	}

	defaults := DefaultConfig()
	lj := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    positiveOr(cfg.FileMaxSizeMB, defaults.FileMaxSizeMB),
		MaxBackups: positiveOr(cfg.FileMaxFiles, defaults.FileMaxFiles),
		MaxAge:     positiveOr(cfg.FileMaxAgeDays, defaults.FileMaxAgeDays),
	}
	return io.MultiWriter(stderr, lj), lj
}

// ParseLevel converts a level name to slog.Level, defaulting to Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidLevel reports whether s is a recognized level name.
func ValidLevel(s string) bool {
	switch strings.ToLower(s) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// ValidFormat reports whether s is a recognized format.
func ValidFormat(s string) bool {
	switch strings.ToLower(s) {
	case "text", "json":
		return true
	}
	return false
}

func positiveOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
