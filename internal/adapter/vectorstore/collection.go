package vectorstore

import (
	"fmt"
	"sort"
	"trivia-rag/internal/domain"
	"trivia-rag/internal/util"
)

type storedEntry struct {
	Vector   []float32         `json:"v"`
	Text     string            `json:"t"`
	Metadata map[string]string `json:"m,omitempty"`
}

// collection is the in-memory mirror shared by both index implementations.
// It is not safe for concurrent use; callers hold their own lock.
type collection struct {
	dimension int
	entries   map[string]storedEntry
}

func newCollection() *collection {
	return &collection{entries: make(map[string]storedEntry)}
}

// checkBatch validates a batch against the collection dimension and returns the
// dimension the collection will have after the batch is applied.
func (c *collection) checkBatch(entries []domain.IndexedEntry) (int, error) {
	dim := c.dimension
	for _, e := range entries {
		if e.ID == "" {
			return 0, domain.NewInvalidArgumentError("indexed entry id must not be empty")
		}
		if len(e.Embedding) == 0 {
			return 0, domain.NewInvalidArgumentError(fmt.Sprintf("entry %s has an empty embedding", e.ID))
		}
		if dim == 0 {
			dim = len(e.Embedding)
		}
		if len(e.Embedding) != dim {
			return 0, domain.NewInvalidArgumentError(
				fmt.Sprintf("vector dimension mismatch for %s: expected %d, got %d", e.ID, dim, len(e.Embedding)))
		}
	}
	return dim, nil
}

func (c *collection) put(id string, e storedEntry) {
	if c.dimension == 0 {
		c.dimension = len(e.Vector)
	}
	c.entries[id] = e
}

func toStored(e domain.IndexedEntry) storedEntry {
	vec := make([]float32, len(e.Embedding))
	copy(vec, e.Embedding)
	var meta map[string]string
	if len(e.Metadata) > 0 {
		meta = make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			meta[k] = v
		}
	}
	return storedEntry{Vector: vec, Text: e.Text, Metadata: meta}
}

func matches(meta, filter map[string]string) bool {
	for k, v := range filter {
		if meta[k] != v {
			return false
		}
	}
	return true
}

func (c *collection) countWhere(filter map[string]string) int {
	n := 0
	for _, e := range c.entries {
		if matches(e.Metadata, filter) {
			n++
		}
	}
	return n
}

// query ranks entries by cosine similarity, breaking ties by id.
func (c *collection) query(embedding []float32, k int, filter map[string]string) ([]string, error) {
	if k <= 0 {
		return nil, domain.NewInvalidArgumentError(fmt.Sprintf("k must be positive, got %d", k))
	}
	if len(c.entries) == 0 {
		return []string{}, nil
	}
	if len(embedding) != c.dimension {
		return nil, domain.NewInvalidArgumentError(
			fmt.Sprintf("query dimension mismatch: expected %d, got %d", c.dimension, len(embedding)))
	}

	type scored struct {
		id    string
		score float64
		text  string
	}
	queryNorm := util.Norm(embedding)
	scores := make([]scored, 0, len(c.entries))
	for id, e := range c.entries {
		if !matches(e.Metadata, filter) {
			continue
		}
		sim, err := util.CosineWithNorm(embedding, queryNorm, e.Vector)
		if err != nil {
			continue
		}
		scores = append(scores, scored{id: id, score: sim, text: e.Text})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].id < scores[j].id
	})

	if len(scores) > k {
		scores = scores[:k]
	}
	out := make([]string, len(scores))
	for i, s := range scores {
		out[i] = s.text
	}
	return out, nil
}
