package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"trivia-rag/internal/adapter/vectorstore"
	"trivia-rag/internal/chunker"
	"trivia-rag/internal/config"
	"trivia-rag/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testRAGConfig() config.RAGConfig {
	return config.RAGConfig{
		ChunkSize:      50,
		ChunkOverlap:   0,
		TopK:           1,
		RetrievalMode:  config.RetrievalModeAuto,
		QueryTemplate:  "important concept %d",
		MaxConcurrency: 5,
	}
}

// markerDocument builds n chunks of size 50, each starting with CHUNK<k>.
func markerDocument(n int) string {
	var b strings.Builder
	for k := 0; k < n; k++ {
		part := "CHUNK" + string(rune('0'+k)) + " "
		b.WriteString(part + strings.Repeat("x", 50-len(part)))
	}
	return b.String()
}

func TestRetriever_RelevantContext_EmptyIndexSkipsEmbedding(t *testing.T) {
	emb := new(MockEmbeddingService)
	r := NewRetriever(emb, vectorstore.NewMemoryIndex(), testRAGConfig())

	got, err := r.RelevantContext(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Equal(t, "", got)
	emb.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestRetriever_RelevantContext_JoinsInRankOrder(t *testing.T) {
	ctx := context.Background()
	idx := vectorstore.NewMemoryIndex()
	require.NoError(t, idx.Upsert(ctx, []domain.IndexedEntry{
		{ID: "a", Embedding: []float32{1, 0}, Text: "best"},
		{ID: "b", Embedding: []float32{0.6, 0.4}, Text: "second"},
		{ID: "c", Embedding: []float32{0, 1}, Text: "worst"},
	}))
	emb := new(MockEmbeddingService)
	emb.On("Generate", ctx, "query").Return([]float32{1, 0}, nil).Once()

	got, err := NewRetriever(emb, idx, testRAGConfig()).RelevantContext(ctx, "query", 2)
	require.NoError(t, err)
	assert.Equal(t, "best\nsecond", got)
	emb.AssertExpectations(t)
}

func TestRetriever_RelevantContext_EmbeddingFailure(t *testing.T) {
	ctx := context.Background()
	idx := vectorstore.NewMemoryIndex()
	require.NoError(t, idx.Upsert(ctx, []domain.IndexedEntry{{ID: "a", Embedding: []float32{1}, Text: "t"}}))
	emb := new(MockEmbeddingService)
	emb.On("Generate", ctx, "q").Return(nil, domain.NewProviderUnavailableError("down", errors.New("refused"))).Once()

	_, err := NewRetriever(emb, idx, testRAGConfig()).RelevantContext(ctx, "q", 1)
	assert.True(t, domain.IsCode(err, domain.ErrProviderUnavailable))
}

func TestRetriever_Plan(t *testing.T) {
	r := NewRetriever(new(MockEmbeddingService), vectorstore.NewMemoryIndex(), testRAGConfig())

	short := r.Plan("short document", "doc_1")
	assert.False(t, short.PerQuestion(), "auto uses whole context for a single chunk")
	assert.Equal(t, 1, short.Len())

	long := r.Plan(markerDocument(3), "doc_1")
	assert.True(t, long.PerQuestion())
	assert.Equal(t, domain.QuestionSetSize, long.Len())
	assert.Equal(t, "important concept 1", long.queries[0])
	assert.Equal(t, "important concept 5", long.queries[4])
	assert.Equal(t, map[string]string{domain.MetadataDocID: "doc_1"}, long.filter)

	noDoc := r.Plan("", "")
	assert.True(t, noDoc.PerQuestion(), "nothing to use as whole context")
	assert.Nil(t, noDoc.filter)

	cfg := testRAGConfig()
	cfg.RetrievalMode = config.RetrievalModeWhole
	whole := NewRetriever(new(MockEmbeddingService), vectorstore.NewMemoryIndex(), cfg).Plan(markerDocument(3), "doc_1")
	assert.False(t, whole.PerQuestion())

	cfg.RetrievalMode = config.RetrievalModePerQuestion
	cfg.QueryTemplate = "key idea number %d"
	perQ := NewRetriever(new(MockEmbeddingService), vectorstore.NewMemoryIndex(), cfg).Plan("short", "")
	assert.True(t, perQ.PerQuestion())
	assert.Equal(t, "key idea number 2", perQ.queries[1])
}

func TestRetriever_MalformedQueryTemplateFallsBack(t *testing.T) {
	for _, tpl := range []string{"", "concept %d %s", "concept %s", "no verb"} {
		cfg := testRAGConfig()
		cfg.RetrievalMode = config.RetrievalModePerQuestion
		cfg.QueryTemplate = tpl
		plan := NewRetriever(new(MockEmbeddingService), vectorstore.NewMemoryIndex(), cfg).Plan("short", "")
		assert.Equal(t, "important concept 3", plan.queries[2], "template %q", tpl)
	}
}

func TestRetriever_SliceContext(t *testing.T) {
	ctx := context.Background()
	idx := vectorstore.NewMemoryIndex()
	emb := &markerEmbedder{dim: 5}
	c, err := chunker.New(50, 0)
	require.NoError(t, err)
	doc := markerDocument(5)
	_, err = NewIndexer(c, emb, idx).Index(ctx, IndexRequest{DocID: "doc_m", Content: doc})
	require.NoError(t, err)

	r := NewRetriever(emb, idx, testRAGConfig())
	plan := r.Plan(doc, "doc_m")
	for i := 0; i < plan.Len(); i++ {
		text, err := r.SliceContext(ctx, plan, i)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(text, "CHUNK"+string(rune('0'+i))), "slice %d got %q", i, text)
	}

	_, err = r.SliceContext(ctx, plan, 7)
	assert.True(t, domain.IsCode(err, domain.ErrInvalidArgument))

	t.Run("unknown document falls back to whole collection", func(t *testing.T) {
		text, err := r.SliceContext(ctx, r.Plan(doc, "doc_missing"), 2)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(text, "CHUNK2"))
	})

	t.Run("whole plan returns text verbatim", func(t *testing.T) {
		text, err := r.SliceContext(ctx, WholeContext("as is"), 0)
		require.NoError(t, err)
		assert.Equal(t, "as is", text)
	})
}

func TestIndexer_Index(t *testing.T) {
	ctx := context.Background()
	idx := vectorstore.NewMemoryIndex()
	emb := &markerEmbedder{dim: 5}
	c, err := chunker.New(50, 0)
	require.NoError(t, err)
	ix := NewIndexer(c, emb, idx)
	ix.batchSize = 2

	var progress [][2]int
	n, err := ix.Index(ctx, IndexRequest{
		Content:  markerDocument(5),
		Type:     "text",
		Progress: func(done, total int) { progress = append(progress, [2]int{done, total}) },
	})
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, [][2]int{{2, 5}, {4, 5}, {5, 5}}, progress)
	assert.Equal(t, int32(3), emb.batchCalls.Load())

	// Re-indexing the same content upserts the same ids.
	_, err = ix.Index(ctx, IndexRequest{Content: markerDocument(5)})
	require.NoError(t, err)
	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	_, err = ix.Index(ctx, IndexRequest{Content: ""})
	assert.True(t, domain.IsCode(err, domain.ErrInvalidArgument))
}

func TestDocumentID_IsStable(t *testing.T) {
	assert.Equal(t, DocumentID("abc"), DocumentID("abc"))
	assert.NotEqual(t, DocumentID("abc"), DocumentID("abd"))
	assert.True(t, strings.HasPrefix(DocumentID("abc"), "doc_"))
	assert.Len(t, DocumentID("abc"), len("doc_")+16)
}
