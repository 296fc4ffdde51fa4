package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
	"trivia-rag/internal/cache"
	"trivia-rag/internal/domain"
	"trivia-rag/internal/logger"

	"go.uber.org/zap"
)

const DefaultDocumentCacheTTL = time.Hour

// memoryDocumentCache keeps entries in a map and evicts them lazily.
type memoryDocumentCache struct {
	mu      sync.Mutex
	entries map[string]domain.CacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryDocumentCache returns a process-local domain.DocumentCache.
func NewMemoryDocumentCache(ttl time.Duration) domain.DocumentCache {
	return newMemoryDocumentCache(ttl, time.Now)
}

func newMemoryDocumentCache(ttl time.Duration, now func() time.Time) *memoryDocumentCache {
	if ttl <= 0 {
		ttl = DefaultDocumentCacheTTL
	}
	return &memoryDocumentCache{entries: make(map[string]domain.CacheEntry), ttl: ttl, now: now}
}

func (c *memoryDocumentCache) Lookup(ctx context.Context, hash string) (domain.CacheEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[hash]
	if !ok {
		return domain.CacheEntry{}, false, nil
	}
	if !entry.Valid(c.now(), c.ttl) {
		delete(c.entries, hash)
		return domain.CacheEntry{}, false, nil
	}
	return entry, true, nil
}

func (c *memoryDocumentCache) Store(ctx context.Context, hash string, entry domain.CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[hash] = entry
	return nil
}

func (c *memoryDocumentCache) Sweep(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for hash, entry := range c.entries {
		if !entry.Valid(now, c.ttl) {
			delete(c.entries, hash)
			removed++
		}
	}
	return removed, nil
}

// storeDocumentCache persists entries in a domain.Cache (Redis in production).
// The backing store expires keys itself, so Sweep has nothing to do.
type storeDocumentCache struct {
	store domain.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewStoreDocumentCache returns a domain.DocumentCache backed by store.
func NewStoreDocumentCache(store domain.Cache, ttl time.Duration) domain.DocumentCache {
	if ttl <= 0 {
		ttl = DefaultDocumentCacheTTL
	}
	return &storeDocumentCache{store: store, ttl: ttl, now: time.Now}
}

func documentCacheKey(hash string) string {
	return cache.GenerateCacheKey("document", "hash", hash)
}

func (c *storeDocumentCache) Lookup(ctx context.Context, hash string) (domain.CacheEntry, bool, error) {
	key := documentCacheKey(hash)
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return domain.CacheEntry{}, false, nil
		}
		return domain.CacheEntry{}, false, domain.NewStorageUnavailableError("document cache lookup failed", err)
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil || !entry.Valid(c.now(), c.ttl) {
		if delErr := c.store.Delete(ctx, key); delErr != nil {
			logger.Get().Warn("Failed to evict document cache entry", zap.String("key", key), zap.Error(delErr))
		}
		return domain.CacheEntry{}, false, nil
	}
	return entry, true, nil
}

func (c *storeDocumentCache) Store(ctx context.Context, hash string, entry domain.CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return domain.NewInternalError("failed to encode document cache entry", err)
	}
	if err := c.store.Set(ctx, documentCacheKey(hash), string(data), c.ttl); err != nil {
		return domain.NewStorageUnavailableError("document cache store failed", err)
	}
	return nil
}

func (c *storeDocumentCache) Sweep(ctx context.Context) (int, error) {
	return 0, nil
}
