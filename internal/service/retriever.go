package service

import (
	"context"
	"fmt"
	"strings"
	"trivia-rag/internal/config"
	"trivia-rag/internal/domain"
	"trivia-rag/internal/logger"
	"unicode/utf8"

	"go.uber.org/zap"
)

// ContextPlan lists the context slices a generation request is built from.
// A whole-context plan has one slice holding the text itself; a per-question
// plan has one retrieval query per slice.
type ContextPlan struct {
	whole   string
	queries []string
	filter  map[string]string
}

// WholeContext returns a single-slice plan over text.
func WholeContext(text string) ContextPlan {
	return ContextPlan{whole: text}
}

// Len is the number of slices in the plan.
func (p ContextPlan) Len() int {
	if len(p.queries) > 0 {
		return len(p.queries)
	}
	return 1
}

// PerQuestion reports whether slices are retrieved rather than given.
func (p ContextPlan) PerQuestion() bool { return len(p.queries) > 0 }

// Retriever answers "what content is relevant to this query" from the vector index.
type Retriever struct {
	embedder      domain.EmbeddingService
	index         domain.VectorIndex
	topK          int
	mode          string
	chunkSize     int
	queryTemplate string
}

func NewRetriever(embedder domain.EmbeddingService, index domain.VectorIndex, cfg config.RAGConfig) *Retriever {
	r := &Retriever{
		embedder:      embedder,
		index:         index,
		topK:          cfg.TopK,
		mode:          cfg.RetrievalMode,
		chunkSize:     cfg.ChunkSize,
		queryTemplate: cfg.QueryTemplate,
	}
	if r.topK <= 0 {
		r.topK = 3
	}
	if r.mode == "" {
		r.mode = config.RetrievalModeAuto
	}
	if !config.ValidQueryTemplate(r.queryTemplate) {
		r.queryTemplate = "important concept %d"
	}
	return r
}

// RelevantContext embeds query and joins the top k fragments with newlines in rank order.
// An empty index yields "" without calling the embedding provider.
func (r *Retriever) RelevantContext(ctx context.Context, query string, k int) (string, error) {
	return r.relevantContext(ctx, query, k, nil)
}

func (r *Retriever) relevantContext(ctx context.Context, query string, k int, filter map[string]string) (string, error) {
	n, err := r.index.Count(ctx)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}

	embedding, err := r.embedder.Generate(ctx, query)
	if err != nil {
		return "", err
	}
	fragments, err := r.index.Query(ctx, embedding, k, filter)
	if err != nil {
		return "", err
	}
	return strings.Join(fragments, "\n"), nil
}

// Plan picks the retrieval strategy for document. docID scopes per-question
// retrieval to one document; empty searches the whole collection.
func (r *Retriever) Plan(document, docID string) ContextPlan {
	mode := r.mode
	if mode == config.RetrievalModeAuto {
		mode = config.RetrievalModePerQuestion
		if strings.TrimSpace(document) != "" && utf8.RuneCountInString(document) <= r.chunkSize {
			mode = config.RetrievalModeWhole
		}
	}
	if mode == config.RetrievalModeWhole && strings.TrimSpace(document) == "" {
		logger.Get().Debug("No document text for whole-context mode, retrieving instead")
		mode = config.RetrievalModePerQuestion
	}

	if mode == config.RetrievalModeWhole {
		return WholeContext(document)
	}

	plan := ContextPlan{queries: make([]string, domain.QuestionSetSize)}
	for i := range plan.queries {
		plan.queries[i] = fmt.Sprintf(r.queryTemplate, i+1)
	}
	if docID != "" {
		plan.filter = map[string]string{domain.MetadataDocID: docID}
	}
	return plan
}

// SliceContext returns the context text of slice i of plan.
func (r *Retriever) SliceContext(ctx context.Context, plan ContextPlan, i int) (string, error) {
	if !plan.PerQuestion() {
		return plan.whole, nil
	}
	if i < 0 || i >= len(plan.queries) {
		return "", domain.NewInvalidArgumentError(fmt.Sprintf("slice %d out of range", i))
	}

	text, err := r.relevantContext(ctx, plan.queries[i], r.topK, plan.filter)
	if err != nil {
		return "", err
	}
	if text == "" && plan.filter != nil {
		logger.Get().Warn("No fragments for document, searching whole collection",
			zap.String("docID", plan.filter[domain.MetadataDocID]))
		return r.relevantContext(ctx, plan.queries[i], r.topK, nil)
	}
	return text, nil
}
