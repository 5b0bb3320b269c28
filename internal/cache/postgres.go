package cache

import (
	"context"
	"errors"
	"time"

	"github.com/justestif/go-musichub/internal/db"
)

// PostgresStore keeps entries in the cache_entries table, expiring them
// lazily on read.
type PostgresStore struct {
	repo *db.CacheEntryRepository
	now  func() time.Time
}

// NewPostgresStore creates a store over an open database.
func NewPostgresStore(database *db.DB) *PostgresStore {
	return &PostgresStore{repo: database.CacheEntries(), now: time.Now}
}

// Get implements Store.
func (p *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	e, err := p.repo.Get(ctx, key, p.now())
	if errors.Is(err, db.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return e.Value, true, nil
}

// Set implements Store.
func (p *PostgresStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return p.repo.Upsert(ctx, db.CacheEntry{
		Key:       key,
		Value:     value,
		ExpiresAt: p.now().Add(ttl),
	})
}

// DeleteExpired implements Purger.
func (p *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	return p.repo.DeleteExpired(ctx, p.now())
}
