// Package cache stores upstream response envelopes with a TTL chosen by
// endpoint kind. Degenerate payloads are never written and store failures
// behave as misses.
package cache

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/justestif/go-musichub/internal/payload"
	"github.com/justestif/go-musichub/internal/textnorm"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Store is a string key/value backend with per-entry expiry.
type Store interface {
	// Get returns ok=false on a miss or an expired entry.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Purger is implemented by stores that need expired rows removed.
type Purger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Kind identifies an endpoint family.
type Kind string

// Endpoint kinds.
const (
	KindSearch          Kind = "search"
	KindRecommendations Kind = "recommendations"
	KindCharts          Kind = "charts"
	KindLyrics          Kind = "lyrics"
)

// Policy decides how long a kind is cached and which payloads qualify.
type Policy struct {
	TTL        time.Duration
	Meaningful func(raw []byte) bool
}

// DefaultPolicies returns the built-in policy for every kind.
func DefaultPolicies() map[Kind]Policy {
	return map[Kind]Policy{
		KindSearch:          {TTL: 2 * time.Minute, Meaningful: payload.HasResults},
		KindRecommendations: {TTL: 5 * time.Minute, Meaningful: payload.HasResults},
		KindCharts:          {TTL: 5 * time.Minute, Meaningful: payload.HasResults},
		KindLyrics:          {TTL: 7 * 24 * time.Hour, Meaningful: HasLyrics},
	}
}

// HasLyrics reports whether a lyrics record carries synced or plain text.
func HasLyrics(raw []byte) bool {
	var rec struct {
		SyncedLyrics string `json:"syncedLyrics"`
		PlainLyrics  string `json:"plainLyrics"`
	}
	if err := codec.Unmarshal(raw, &rec); err != nil {
		return false
	}
	return strings.TrimSpace(rec.SyncedLyrics) != "" || strings.TrimSpace(rec.PlainLyrics) != ""
}

// Key builds a deterministic, lower-cased key from the endpoint kind and its
// parameters. Parameter values are whitespace-collapsed and parameters are
// ordered by name.
func Key(kind Kind, params map[string]string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(string(kind))
	for _, name := range names {
		b.WriteByte(':')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(textnorm.CollapseSpace(params[name]))
	}
	return strings.ToLower(b.String())
}

// Cache wraps a Store. A nil Store or nil *Cache disables caching.
type Cache struct {
	store    Store
	policies map[Kind]Policy
	logger   *slog.Logger

	hits, misses, writes, skips atomic.Int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides the TTL of one kind.
func WithTTL(kind Kind, ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl <= 0 {
			return
		}
		p := c.policies[kind]
		p.TTL = ttl
		c.policies[kind] = p
	}
}

// WithPolicy replaces the policy of one kind.
func WithPolicy(kind Kind, p Policy) Option {
	return func(c *Cache) {
		c.policies[kind] = p
	}
}

// WithLogger sets the logger for swallowed store errors.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a cache over store.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store:    store,
		policies: DefaultPolicies(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "cache")
	return c
}

// Enabled reports whether a store is configured.
func (c *Cache) Enabled() bool {
	return c != nil && c.store != nil
}

// IsMeaningful applies the kind's payload predicate.
func (c *Cache) IsMeaningful(kind Kind, raw []byte) bool {
	p := c.policy(kind)
	if p.Meaningful == nil {
		return len(raw) > 0
	}
	return p.Meaningful(raw)
}

// Get returns the cached payload for key. Store errors count as misses.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}

	value, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache get failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	if !ok || value == "" {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return []byte(value), true
}

// Set stores raw under key when it is meaningful for kind. It reports
// whether a write was attempted and succeeded.
func (c *Cache) Set(ctx context.Context, kind Kind, key string, raw []byte) bool {
	if !c.Enabled() {
		return false
	}
	if !c.IsMeaningful(kind, raw) {
		c.skips.Add(1)
		c.logger.Debug("cache write skipped", "key", key, "kind", kind)
		return false
	}

	if err := c.store.Set(ctx, key, string(raw), c.policy(kind).TTL); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
		return false
	}
	c.writes.Add(1)
	return true
}

// GetJSON decodes a cached payload into dst.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) bool {
	raw, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	if err := codec.Unmarshal(raw, dst); err != nil {
		c.logger.Warn("cache entry undecodable", "key", key, "error", err)
		return false
	}
	return true
}

// SetJSON encodes v and stores it with Set.
func (c *Cache) SetJSON(ctx context.Context, kind Kind, key string, v any) bool {
	if !c.Enabled() {
		return false
	}
	raw, err := codec.Marshal(v)
	if err != nil {
		c.logger.Warn("cache entry unencodable", "key", key, "error", err)
		return false
	}
	return c.Set(ctx, kind, key, raw)
}

// Purge removes expired entries when the store supports it.
func (c *Cache) Purge(ctx context.Context) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	p, ok := c.store.(Purger)
	if !ok {
		return 0, nil
	}
	return p.DeleteExpired(ctx)
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Writes int64 `json:"writes"`
	Skips  int64 `json:"skips"`
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Writes: c.writes.Load(),
		Skips:  c.skips.Load(),
	}
}

func (c *Cache) policy(kind Kind) Policy {
	if c == nil {
		return DefaultPolicies()[kind]
	}
	if p, ok := c.policies[kind]; ok {
		return p
	}
	return Policy{TTL: time.Minute, Meaningful: payload.HasResults}
}
