package domain

import (
	"context"
)

// Metadata keys stored alongside indexed entries.
const (
	MetadataDocID    = "doc_id"
	MetadataType     = "type"
	MetadataSource   = "source"
	MetadataSequence = "sequence"
)

// Chunk is a bounded-length slice of a source document.
type Chunk struct {
	Text     string
	SourceID string
	Sequence int
	// Offset is the rune offset of Text within the source document.
	Offset int
}

// IndexedEntry is one embedded chunk as stored in the vector index.
type IndexedEntry struct {
	ID        string
	Embedding []float32
	Text      string
	Metadata  map[string]string
}

// VectorIndex stores chunk embeddings for one named collection.
type VectorIndex interface {
	// Upsert inserts or replaces entries by ID. Entries are queryable once it returns.
	Upsert(ctx context.Context, entries []IndexedEntry) error

	// Query returns up to k entry texts ranked by similarity to embedding.
	// Only entries whose metadata contains every key/value of filter are considered;
	// a nil filter matches everything. An empty index yields an empty result.
	Query(ctx context.Context, embedding []float32, k int, filter map[string]string) ([]string, error)

	// Count returns the number of entries in the collection.
	Count(ctx context.Context) (int, error)

	// CountWhere returns the number of entries whose metadata matches filter.
	CountWhere(ctx context.Context, filter map[string]string) (int, error)

	// Persist flushes the collection to durable storage. It is idempotent.
	Persist(ctx context.Context) error

	// Reset drops and recreates the collection.
	Reset(ctx context.Context) error

	// Close releases the underlying store.
	Close() error
}
