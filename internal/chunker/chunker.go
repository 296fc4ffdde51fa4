// Package chunker splits documents into overlapping fixed-size windows.
package chunker

import (
	"fmt"
	"trivia-rag/internal/domain"
)

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// Chunker carries a validated size/overlap pair.
type Chunker struct {
	size    int
	overlap int
}

// New validates size and overlap once so Split calls on the hot path cannot fail on them.
func New(size, overlap int) (*Chunker, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

func validate(size, overlap int) error {
	if size <= 0 {
		return domain.NewInvalidArgumentError(fmt.Sprintf("chunk size must be positive, got %d", size))
	}
	if overlap < 0 {
		return domain.NewInvalidArgumentError(fmt.Sprintf("chunk overlap must not be negative, got %d", overlap))
	}
	if overlap >= size {
		return domain.NewInvalidArgumentError(fmt.Sprintf("chunk overlap %d must be smaller than chunk size %d", overlap, size))
	}
	return nil
}

func (c *Chunker) Size() int    { return c.size }
func (c *Chunker) Overlap() int { return c.overlap }

// Split chunks text, tagging each chunk with sourceID.
func (c *Chunker) Split(sourceID, text string) []domain.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := c.size - c.overlap
	var chunks []domain.Chunk
	for start, seq := 0, 0; ; start, seq = start+step, seq+1 {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, domain.Chunk{
			Text:     string(runes[start:end]),
			SourceID: sourceID,
			Sequence: seq,
			Offset:   start,
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// Split is a convenience for one-off splits with explicit parameters.
func Split(text string, chunkSize, overlap int) ([]domain.Chunk, error) {
	c, err := New(chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	return c.Split("", text), nil
}

// Texts returns the chunk texts in order.
func Texts(chunks []domain.Chunk) []string {
	out := make([]string, len(chunks))
	for i, ch := range chunks {
		out[i] = ch.Text
	}
	return out
}
