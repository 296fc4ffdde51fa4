package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
	"trivia-rag/internal/domain"
	"trivia-rag/internal/logger"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// BoltIndex persists one collection as a bbolt bucket and serves queries from
// an in-memory mirror loaded at open.
type BoltIndex struct {
	db     *bbolt.DB
	bucket []byte

	// writeMu serializes Upsert, Persist and Reset; mu guards the mirror.
	writeMu sync.Mutex
	mu      sync.RWMutex
	coll    *collection
}

var _ domain.VectorIndex = (*BoltIndex)(nil)

// OpenBoltIndex opens (creating if absent) the bbolt file at path and loads collection into memory.
func OpenBoltIndex(path, collectionName string) (*BoltIndex, error) {
	if collectionName == "" {
		return nil, domain.NewInvalidArgumentError("collection name must not be empty")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, domain.NewStorageUnavailableError("failed to create index directory", err)
		}
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, domain.NewStorageUnavailableError(fmt.Sprintf("failed to open bolt db %s", path), err)
	}

	idx := &BoltIndex{db: db, bucket: []byte(collectionName), coll: newCollection()}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(idx.bucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, domain.NewStorageUnavailableError(fmt.Sprintf("failed to create bucket %s", collectionName), err)
	}

	if err := idx.load(); err != nil {
		db.Close()
		return nil, domain.NewStorageUnavailableError("failed to load vectors", err)
	}

	logger.Get().Info("Vector index opened",
		zap.String("path", path),
		zap.String("collection", collectionName),
		zap.Int("entries", len(idx.coll.entries)))
	return idx, nil
}

func (b *BoltIndex) load() error {
	return b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			var stored storedEntry
			if err := json.Unmarshal(v, &stored); err != nil {
				logger.Get().Warn("Skipping corrupted index entry", zap.ByteString("id", k), zap.Error(err))
				return nil
			}
			if b.coll.dimension != 0 && len(stored.Vector) != b.coll.dimension {
				logger.Get().Warn("Skipping index entry with foreign dimension", zap.ByteString("id", k))
				return nil
			}
			b.coll.put(string(k), stored)
			return nil
		})
	})
}

func (b *BoltIndex) Upsert(ctx context.Context, entries []domain.IndexedEntry) error {
	if len(entries) == 0 {
		return nil
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	b.mu.RLock()
	_, err := b.coll.checkBatch(entries)
	b.mu.RUnlock()
	if err != nil {
		return err
	}

	stored := make([]storedEntry, len(entries))
	err = b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return fmt.Errorf("bucket %s not found", b.bucket)
		}
		for i, e := range entries {
			stored[i] = toStored(e)
			data, err := json.Marshal(stored[i])
			if err != nil {
				return err
			}
			if err := bucket.Put([]byte(e.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.NewStorageUnavailableError("failed to upsert vectors", err)
	}

	b.mu.Lock()
	for i, e := range entries {
		b.coll.put(e.ID, stored[i])
	}
	b.mu.Unlock()
	return nil
}

func (b *BoltIndex) Query(ctx context.Context, embedding []float32, k int, filter map[string]string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.coll.query(embedding, k, filter)
}

func (b *BoltIndex) Count(ctx context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.coll.entries), nil
}

func (b *BoltIndex) CountWhere(ctx context.Context, filter map[string]string) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.coll.countWhere(filter), nil
}

// Persist fsyncs the database file. Committed upserts are already durable, so
// repeated calls are harmless.
func (b *BoltIndex) Persist(ctx context.Context) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	if err := b.db.Sync(); err != nil {
		return domain.NewStorageUnavailableError("failed to sync vector index", err)
	}
	return nil
}

func (b *BoltIndex) Reset(ctx context.Context) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	err := b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(b.bucket); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(b.bucket)
		return err
	})
	if err != nil {
		return domain.NewStorageUnavailableError(fmt.Sprintf("failed to reset collection %s", b.bucket), err)
	}

	b.mu.Lock()
	b.coll = newCollection()
	b.mu.Unlock()
	logger.Get().Info("Vector index collection reset", zap.ByteString("collection", b.bucket))
	return nil
}

func (b *BoltIndex) Close() error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return b.db.Close()
}
