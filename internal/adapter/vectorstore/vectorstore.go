// Package vectorstore implements domain.VectorIndex.
package vectorstore

import (
	"fmt"
	"trivia-rag/internal/config"
	"trivia-rag/internal/domain"
)

// Open returns the index selected by cfg.Driver.
func Open(cfg config.VectorStoreConfig) (domain.VectorIndex, error) {
	switch cfg.Driver {
	case "", "bolt":
		idx, err := OpenBoltIndex(cfg.Path, cfg.Collection)
		if err != nil {
			return nil, err
		}
		return idx, nil
	case "memory":
		return NewMemoryIndex(), nil
	default:
		return nil, fmt.Errorf("unsupported vector store driver: %q", cfg.Driver)
	}
}

// EntryID is the deterministic id of the sequence-th chunk of docID.
func EntryID(docID string, sequence int) string {
	return fmt.Sprintf("%s_%d", docID, sequence)
}
