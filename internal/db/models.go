package db

import (
	"time"
)

// CacheEntry is a cached upstream response envelope.
type CacheEntry struct {
	Key       string
	Value     string
	ExpiresAt time.Time
	UpdatedAt time.Time
}
