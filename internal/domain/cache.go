package domain

import (
	"context"
	"time"
)

// CacheError represents an error originating from the cache.
type CacheError string

func (e CacheError) Error() string {
	return string(e)
}

// ErrCacheMiss is returned when a key is not found in the cache.
const ErrCacheMiss = CacheError("cache: key not found")

// Cache defines the interface (port) for caching operations.
// Implementations of this interface will be the adapters (e.g., RedisCacheAdapter).
type Cache interface {
	// Get retrieves an item from the cache.
	// It returns ErrCacheMiss if the key is not found.
	Get(ctx context.Context, key string) (string, error)

	// Set adds an item to the cache, overwriting an existing item if one exists.
	// If expiration is 0, the item is cached indefinitely.
	Set(ctx context.Context, key string, value string, expiration time.Duration) error

	// Delete removes an item from the cache.
	// It should not return an error if the key is not found.
	Delete(ctx context.Context, key string) error

	// Ping checks the health of the cache service.
	Ping(ctx context.Context) error
}

// CacheEntry records that a document with a given content hash was indexed.
type CacheEntry struct {
	DocID     string    `json:"doc_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Valid reports whether the entry is still inside its TTL at now.
func (e CacheEntry) Valid(now time.Time, ttl time.Duration) bool {
	if e.DocID == "" || e.CreatedAt.IsZero() {
		return false
	}
	return now.Sub(e.CreatedAt) < ttl
}

// DocumentCache maps content hashes to indexed document ids.
type DocumentCache interface {
	// Lookup returns the entry for hash when it exists and has not expired.
	// Expired entries are evicted as a side effect.
	Lookup(ctx context.Context, hash string) (CacheEntry, bool, error)
	Store(ctx context.Context, hash string, entry CacheEntry) error
	// Sweep evicts every expired entry and returns how many were removed.
	Sweep(ctx context.Context) (int, error)
}
