package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
	"trivia-rag/internal/adapter"
	"trivia-rag/internal/domain"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryDocumentCache_LookupHonorsTTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	c := newMemoryDocumentCache(time.Hour, clock.Now)

	require.NoError(t, c.Store(ctx, "h1", domain.CacheEntry{DocID: "doc1", CreatedAt: clock.Now()}))

	clock.Advance(59 * time.Minute)
	entry, ok, err := c.Lookup(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "doc1", entry.DocID)

	clock.Advance(time.Minute)
	_, ok, err = c.Lookup(ctx, "h1")
	require.NoError(t, err)
	assert.False(t, ok, "entry expires at exactly TTL")
	assert.Empty(t, c.entries, "expired entry is evicted on lookup")
}

func TestMemoryDocumentCache_Sweep(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	c := newMemoryDocumentCache(time.Hour, clock.Now)

	require.NoError(t, c.Store(ctx, "old", domain.CacheEntry{DocID: "a", CreatedAt: clock.Now()}))
	clock.Advance(30 * time.Minute)
	require.NoError(t, c.Store(ctx, "new", domain.CacheEntry{DocID: "b", CreatedAt: clock.Now()}))
	clock.Advance(40 * time.Minute)

	assert.Len(t, c.entries, 2, "nothing is evicted without a lookup or sweep")
	removed, err := c.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, ok, _ := c.Lookup(ctx, "new")
	assert.True(t, ok)
}

func TestStoreDocumentCache_Redis(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewStoreDocumentCache(adapter.NewRedisCacheAdapter(db), time.Hour).(*storeDocumentCache)
	c.now = func() time.Time { return now }

	key := documentCacheKey("h1")
	entry := domain.CacheEntry{DocID: "doc1", CreatedAt: now.Add(-10 * time.Minute)}
	data, err := json.Marshal(entry)
	require.NoError(t, err)

	t.Run("store sets ttl", func(t *testing.T) {
		mock.ExpectSet(key, string(data), time.Hour).SetVal("OK")
		require.NoError(t, c.Store(ctx, "h1", entry))
	})

	t.Run("hit", func(t *testing.T) {
		mock.ExpectGet(key).SetVal(string(data))
		got, ok, err := c.Lookup(ctx, "h1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "doc1", got.DocID)
	})

	t.Run("miss", func(t *testing.T) {
		mock.ExpectGet(key).RedisNil()
		_, ok, err := c.Lookup(ctx, "h1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("expired entry is deleted", func(t *testing.T) {
		stale, _ := json.Marshal(domain.CacheEntry{DocID: "doc1", CreatedAt: now.Add(-2 * time.Hour)})
		mock.ExpectGet(key).SetVal(string(stale))
		mock.ExpectDel(key).SetVal(1)
		_, ok, err := c.Lookup(ctx, "h1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("backend failure", func(t *testing.T) {
		mock.ExpectGet(key).SetErr(errors.New("connection reset"))
		_, _, err := c.Lookup(ctx, "h1")
		assert.True(t, domain.IsCode(err, domain.ErrStorageUnavailable))
	})

	removed, err := c.Sweep(ctx)
	assert.NoError(t, err)
	assert.Zero(t, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
