package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMemorySize is the entry capacity of a MemoryStore.
const DefaultMemorySize = 2048

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is an in-process LRU store. Entries expire at their own TTL and
// the LRU additionally evicts anything older than maxTTL.
type MemoryStore struct {
	lru *expirable.LRU[string, memoryEntry]
	now func() time.Time
}

// NewMemoryStore creates a store holding up to size entries.
func NewMemoryStore(size int, maxTTL time.Duration) *MemoryStore {
	if size <= 0 {
		size = DefaultMemorySize
	}
	if maxTTL <= 0 {
		maxTTL = 7 * 24 * time.Hour
	}
	return &MemoryStore{
		lru: expirable.NewLRU[string, memoryEntry](size, nil, maxTTL),
		now: time.Now,
	}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	e, ok := m.lru.Get(key)
	if !ok {
		return "", false, nil
	}
	if !m.now().Before(e.expiresAt) {
		m.lru.Remove(key)
		return "", false, nil
	}
	return e.value, true, nil
}

// Set implements Store.
func (m *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.lru.Add(key, memoryEntry{value: value, expiresAt: m.now().Add(ttl)})
	return nil
}

// Len returns the number of entries, expired ones included.
func (m *MemoryStore) Len() int {
	return m.lru.Len()
}
