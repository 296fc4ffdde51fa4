package service

import (
	"context"
	"strconv"
	"trivia-rag/internal/adapter/vectorstore"
	"trivia-rag/internal/cache"
	"trivia-rag/internal/chunker"
	"trivia-rag/internal/domain"
	"trivia-rag/internal/logger"

	"go.uber.org/zap"
)

const defaultEmbedBatchSize = 32

// DocumentID derives the stable id of a document from its content.
func DocumentID(content string) string {
	return "doc_" + cache.ContentHash(content)[:16]
}

// IndexRequest describes one document to chunk, embed and store.
type IndexRequest struct {
	DocID   string
	Type    string
	Source  string
	Content string
	// Progress, if set, is called after each embedded batch with chunks done and total.
	Progress func(done, total int)
}

// Indexer writes documents into the vector index.
type Indexer struct {
	chunker   *chunker.Chunker
	embedder  domain.EmbeddingService
	index     domain.VectorIndex
	batchSize int
}

func NewIndexer(c *chunker.Chunker, embedder domain.EmbeddingService, index domain.VectorIndex) *Indexer {
	return &Indexer{chunker: c, embedder: embedder, index: index, batchSize: defaultEmbedBatchSize}
}

// Index chunks req.Content, embeds the chunks in batches, upserts them and persists
// the index. It returns the number of chunks written. Entry ids are derived from
// DocID and sequence, so re-indexing the same document is idempotent.
func (ix *Indexer) Index(ctx context.Context, req IndexRequest) (int, error) {
	if req.DocID == "" {
		req.DocID = DocumentID(req.Content)
	}
	chunks := ix.chunker.Split(req.DocID, req.Content)
	if len(chunks) == 0 {
		return 0, domain.NewInvalidArgumentError("document content is empty")
	}

	for start := 0; start < len(chunks); start += ix.batchSize {
		end := min(start+ix.batchSize, len(chunks))
		batch := chunks[start:end]

		vectors, err := ix.embedder.GenerateBatch(ctx, chunker.Texts(batch))
		if err != nil {
			return start, err
		}

		entries := make([]domain.IndexedEntry, len(batch))
		for i, ch := range batch {
			entries[i] = domain.IndexedEntry{
				ID:        vectorstore.EntryID(req.DocID, ch.Sequence),
				Embedding: vectors[i],
				Text:      ch.Text,
				Metadata: map[string]string{
					domain.MetadataDocID:    req.DocID,
					domain.MetadataType:     req.Type,
					domain.MetadataSource:   req.Source,
					domain.MetadataSequence: strconv.Itoa(ch.Sequence),
				},
			}
		}
		if err := ix.index.Upsert(ctx, entries); err != nil {
			return start, err
		}
		if req.Progress != nil {
			req.Progress(end, len(chunks))
		}
	}

	if err := ix.index.Persist(ctx); err != nil {
		return len(chunks), err
	}

	logger.Get().Info("Document indexed",
		zap.String("docID", req.DocID),
		zap.String("type", req.Type),
		zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}
