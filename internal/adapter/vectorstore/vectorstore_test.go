package vectorstore

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"trivia-rag/internal/config"
	"trivia-rag/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id string, vec []float32, text, docID string) domain.IndexedEntry {
	return domain.IndexedEntry{
		ID:        id,
		Embedding: vec,
		Text:      text,
		Metadata:  map[string]string{domain.MetadataDocID: docID},
	}
}

// indexes returns a fresh instance of every implementation.
func indexes(t *testing.T) map[string]domain.VectorIndex {
	t.Helper()
	bolt, err := OpenBoltIndex(filepath.Join(t.TempDir(), "index.db"), "document_chunks")
	require.NoError(t, err)
	t.Cleanup(func() { _ = bolt.Close() })
	return map[string]domain.VectorIndex{
		"bolt":   bolt,
		"memory": NewMemoryIndex(),
	}
}

func TestIndex_QueryRanksByCosineSimilarity(t *testing.T) {
	ctx := context.Background()
	for name, idx := range indexes(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, idx.Upsert(ctx, []domain.IndexedEntry{
				entry("d_0", []float32{1, 0}, "east", "d"),
				entry("d_1", []float32{0, 1}, "north", "d"),
				entry("d_2", []float32{0.7, 0.7}, "north-east", "d"),
			}))

			got, err := idx.Query(ctx, []float32{1, 0.1}, 2, nil)
			require.NoError(t, err)
			assert.Equal(t, []string{"east", "north-east"}, got)

			all, err := idx.Query(ctx, []float32{1, 0.1}, 10, nil)
			require.NoError(t, err)
			assert.Len(t, all, 3, "fewer than k entries returns all of them")
		})
	}
}

func TestIndex_EmptyQueryReturnsEmpty(t *testing.T) {
	ctx := context.Background()
	for name, idx := range indexes(t) {
		t.Run(name, func(t *testing.T) {
			got, err := idx.Query(ctx, []float32{1, 2, 3}, 3, nil)
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)

			n, err := idx.Count(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestIndex_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	for name, idx := range indexes(t) {
		t.Run(name, func(t *testing.T) {
			batch := []domain.IndexedEntry{
				entry("d_0", []float32{1, 0}, "a", "d"),
				entry("d_1", []float32{0, 1}, "b", "d"),
			}
			require.NoError(t, idx.Upsert(ctx, batch))
			require.NoError(t, idx.Upsert(ctx, batch))

			n, err := idx.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			require.NoError(t, idx.Upsert(ctx, []domain.IndexedEntry{entry("d_0", []float32{1, 0}, "a2", "d")}))
			got, err := idx.Query(ctx, []float32{1, 0}, 1, nil)
			require.NoError(t, err)
			assert.Equal(t, []string{"a2"}, got, "upsert replaces by id")
		})
	}
}

func TestIndex_FilterScopesToDocument(t *testing.T) {
	ctx := context.Background()
	for name, idx := range indexes(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, idx.Upsert(ctx, []domain.IndexedEntry{
				entry("a_0", []float32{1, 0}, "from a", "a"),
				entry("b_0", []float32{1, 0}, "from b", "b"),
			}))

			got, err := idx.Query(ctx, []float32{1, 0}, 5, map[string]string{domain.MetadataDocID: "b"})
			require.NoError(t, err)
			assert.Equal(t, []string{"from b"}, got)

			none, err := idx.Query(ctx, []float32{1, 0}, 5, map[string]string{domain.MetadataDocID: "c"})
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestIndex_CountWhere(t *testing.T) {
	ctx := context.Background()
	for name, idx := range indexes(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, idx.Upsert(ctx, []domain.IndexedEntry{
				entry("a_0", []float32{1, 0}, "a0", "a"),
				entry("a_1", []float32{0, 1}, "a1", "a"),
				entry("b_0", []float32{1, 0}, "b0", "b"),
			}))

			n, err := idx.CountWhere(ctx, map[string]string{domain.MetadataDocID: "a"})
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			n, err = idx.CountWhere(ctx, map[string]string{domain.MetadataDocID: "c"})
			require.NoError(t, err)
			assert.Zero(t, n)

			n, err = idx.CountWhere(ctx, nil)
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			require.NoError(t, idx.Reset(ctx))
			n, err = idx.CountWhere(ctx, map[string]string{domain.MetadataDocID: "a"})
			require.NoError(t, err)
			assert.Zero(t, n, "reset drops every document")
		})
	}
}

func TestIndex_TiesBrokenByID(t *testing.T) {
	ctx := context.Background()
	for name, idx := range indexes(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, idx.Upsert(ctx, []domain.IndexedEntry{
				entry("z", []float32{1, 0}, "z", "d"),
				entry("a", []float32{2, 0}, "a", "d"),
			}))
			got, err := idx.Query(ctx, []float32{1, 0}, 2, nil)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "z"}, got)
		})
	}
}

func TestIndex_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	for name, idx := range indexes(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, idx.Upsert(ctx, []domain.IndexedEntry{entry("d_0", []float32{1, 0}, "a", "d")}))

			err := idx.Upsert(ctx, []domain.IndexedEntry{entry("d_1", []float32{1, 0, 0}, "b", "d")})
			assert.True(t, domain.IsCode(err, domain.ErrInvalidArgument))

			_, err = idx.Query(ctx, []float32{1, 0, 0}, 1, nil)
			assert.True(t, domain.IsCode(err, domain.ErrInvalidArgument))

			_, err = idx.Query(ctx, []float32{1, 0}, 0, nil)
			assert.True(t, domain.IsCode(err, domain.ErrInvalidArgument))

			n, err := idx.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, n, "rejected batch leaves the index unchanged")
		})
	}
}

func TestIndex_ResetDropsEntriesAndDimension(t *testing.T) {
	ctx := context.Background()
	for name, idx := range indexes(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, idx.Upsert(ctx, []domain.IndexedEntry{entry("d_0", []float32{1, 0}, "a", "d")}))
			require.NoError(t, idx.Reset(ctx))

			n, err := idx.Count(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)

			require.NoError(t, idx.Upsert(ctx, []domain.IndexedEntry{entry("d_0", []float32{1, 0, 0}, "a", "d")}))
		})
	}
}

func TestBoltIndex_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "index.db")

	idx, err := OpenBoltIndex(path, "document_chunks")
	require.NoError(t, err)
	require.NoError(t, idx.Upsert(ctx, []domain.IndexedEntry{
		entry("d_0", []float32{1, 0}, "kept", "d"),
		entry("d_1", []float32{0, 1}, "other", "d"),
	}))
	require.NoError(t, idx.Persist(ctx))
	require.NoError(t, idx.Persist(ctx), "persist is idempotent")
	require.NoError(t, idx.Close())

	reopened, err := OpenBoltIndex(path, "document_chunks")
	require.NoError(t, err)

	n, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := reopened.Query(ctx, []float32{1, 0}, 1, map[string]string{domain.MetadataDocID: "d"})
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, got)
	require.NoError(t, reopened.Close())

	// Collections are isolated buckets in the same file.
	other, err := OpenBoltIndex(path, "other_chunks")
	require.NoError(t, err)
	defer other.Close()
	n, err = other.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIndex_ConcurrentReadersAndWriter(t *testing.T) {
	ctx := context.Background()
	for name, idx := range indexes(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, idx.Upsert(ctx, []domain.IndexedEntry{entry("seed", []float32{1, 1}, "seed", "d")}))

			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					_ = idx.Upsert(ctx, []domain.IndexedEntry{entry(fmt.Sprintf("d_%d", i), []float32{float32(i), 1}, "t", "d")})
				}
			}()
			go func() {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					_, err := idx.Query(ctx, []float32{1, 1}, 3, nil)
					assert.NoError(t, err)
				}
			}()
			wg.Wait()

			n, err := idx.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 51, n)
		})
	}
}

func TestOpen_Drivers(t *testing.T) {
	idx, err := Open(config.VectorStoreConfig{Driver: "memory", Collection: "c"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryIndex{}, idx)

	_, err = Open(config.VectorStoreConfig{Driver: "chroma"})
	assert.Error(t, err)

	assert.Equal(t, "abc_3", EntryID("abc", 3))
}
