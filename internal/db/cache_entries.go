package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CacheEntryRepository handles cache entry database operations.
type CacheEntryRepository struct {
	pool *pgxpool.Pool
}

// Get retrieves an unexpired entry. Returns ErrNotFound on a miss.
func (r *CacheEntryRepository) Get(ctx context.Context, key string, now time.Time) (*CacheEntry, error) {
	query := `
		SELECT key, value, expires_at, updated_at
		FROM cache_entries
		WHERE key = $1 AND expires_at > $2
	`
	var e CacheEntry
	err := r.pool.QueryRow(ctx, query, key, now).Scan(&e.Key, &e.Value, &e.ExpiresAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying cache entry: %w", err)
	}
	return &e, nil
}

// Upsert inserts or replaces an entry.
func (r *CacheEntryRepository) Upsert(ctx context.Context, e CacheEntry) error {
	query := `
		INSERT INTO cache_entries (key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			expires_at = EXCLUDED.expires_at,
			updated_at = now()
	`
	if _, err := r.pool.Exec(ctx, query, e.Key, e.Value, e.ExpiresAt); err != nil {
		return fmt.Errorf("upserting cache entry: %w", err)
	}
	return nil
}

// DeleteExpired removes entries that expired before now.
func (r *CacheEntryRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cache_entries WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired cache entries: %w", err)
	}
	return tag.RowsAffected(), nil
}
