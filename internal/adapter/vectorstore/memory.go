package vectorstore

import (
	"context"
	"sync"
	"trivia-rag/internal/domain"
)

// MemoryIndex is a process-local domain.VectorIndex. Persist is a no-op.
type MemoryIndex struct {
	mu   sync.RWMutex
	coll *collection
}

var _ domain.VectorIndex = (*MemoryIndex)(nil)

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{coll: newCollection()}
}

func (m *MemoryIndex) Upsert(ctx context.Context, entries []domain.IndexedEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.coll.checkBatch(entries); err != nil {
		return err
	}
	for _, e := range entries {
		m.coll.put(e.ID, toStored(e))
	}
	return nil
}

func (m *MemoryIndex) Query(ctx context.Context, embedding []float32, k int, filter map[string]string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.coll.query(embedding, k, filter)
}

func (m *MemoryIndex) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.coll.entries), nil
}

func (m *MemoryIndex) CountWhere(ctx context.Context, filter map[string]string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.coll.countWhere(filter), nil
}

func (m *MemoryIndex) Persist(ctx context.Context) error { return nil }

func (m *MemoryIndex) Reset(ctx context.Context) error {
	m.mu.Lock()
	m.coll = newCollection()
	m.mu.Unlock()
	return nil
}

func (m *MemoryIndex) Close() error { return nil }
