package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"trivia-rag/internal/cache"
	"trivia-rag/internal/domain"
	"trivia-rag/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultMaxConcurrency = 5

// DocumentRequest is the input of the document flow.
type DocumentRequest struct {
	Content          string
	DocumentType     string
	Source           string
	UseExistingIndex bool
	Difficulty       domain.Difficulty
}

// TopicRequest is the input of the topic flow.
type TopicRequest struct {
	Topic      string
	Difficulty domain.Difficulty
}

// QuestionService defines the question generation flows.
type QuestionService interface {
	FromDocument(ctx context.Context, req DocumentRequest) (domain.QuestionSet, error)
	FromTopic(ctx context.Context, req TopicRequest) (domain.QuestionSet, error)
	SweepDocumentCache(ctx context.Context) (int, error)
}

type questionService struct {
	index          domain.VectorIndex
	indexer        *Indexer
	retriever      *Retriever
	prompts        *PromptBuilder
	generator      domain.GenerationService
	docCache       domain.DocumentCache
	maxConcurrency int
	now            func() time.Time
}

// NewQuestionService wires the pipeline. docCache may be nil to always re-index.
func NewQuestionService(
	index domain.VectorIndex,
	indexer *Indexer,
	retriever *Retriever,
	prompts *PromptBuilder,
	generator domain.GenerationService,
	docCache domain.DocumentCache,
	maxConcurrency int,
) QuestionService {
	if maxConcurrency <= 0 {
		maxConcurrency = defaultMaxConcurrency
	}
	return &questionService{
		index:          index,
		indexer:        indexer,
		retriever:      retriever,
		prompts:        prompts,
		generator:      generator,
		docCache:       docCache,
		maxConcurrency: maxConcurrency,
		now:            time.Now,
	}
}

// FromTopic generates questions about req.Topic with a single provider call.
func (s *questionService) FromTopic(ctx context.Context, req TopicRequest) (domain.QuestionSet, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return domain.QuestionSet{}, domain.NewInvalidArgumentError("topic must not be empty")
	}
	return s.generate(ctx, PromptKindTopic, WholeContext(topic), req.Difficulty.OrDefault())
}

// FromDocument indexes the document when needed and generates questions from it.
func (s *questionService) FromDocument(ctx context.Context, req DocumentRequest) (domain.QuestionSet, error) {
	hasContent := strings.TrimSpace(req.Content) != ""
	if !req.UseExistingIndex && !hasContent {
		return domain.QuestionSet{}, domain.NewInvalidArgumentError("document content must not be empty")
	}

	var docID string
	if req.UseExistingIndex {
		n, err := s.index.Count(ctx)
		if err != nil {
			return domain.QuestionSet{}, err
		}
		if n == 0 {
			if !hasContent {
				logger.Get().Warn("Existing index requested but it is empty and no content was given")
				return domain.PlaceholderSet(), nil
			}
			logger.Get().Info("Existing index requested but it is empty, indexing document")
			if docID, err = s.ensureIndexed(ctx, req); err != nil {
				return domain.QuestionSet{}, err
			}
		}
	} else {
		var err error
		if docID, err = s.ensureIndexed(ctx, req); err != nil {
			return domain.QuestionSet{}, err
		}
	}

	return s.generate(ctx, PromptKindDocument, s.retriever.Plan(req.Content, docID), req.Difficulty.OrDefault())
}

// ensureIndexed returns the document id for req.Content, indexing it unless the
// document cache holds a valid entry whose chunks are still in the index.
func (s *questionService) ensureIndexed(ctx context.Context, req DocumentRequest) (string, error) {
	hash := cache.ContentHash(req.Content)

	if s.docCache != nil {
		entry, ok, err := s.docCache.Lookup(ctx, hash)
		if err != nil {
			logger.Get().Warn("Document cache lookup failed, re-indexing", zap.Error(err))
		} else if ok {
			n, err := s.index.CountWhere(ctx, map[string]string{domain.MetadataDocID: entry.DocID})
			if err != nil {
				return "", err
			}
			if n > 0 {
				logger.Get().Debug("Document cache hit", zap.String("docID", entry.DocID))
				return entry.DocID, nil
			}
			// The index was reset or rebuilt since the entry was recorded.
			logger.Get().Info("Cached document missing from index, re-indexing", zap.String("docID", entry.DocID))
		}
	}

	docID := DocumentID(req.Content)
	if _, err := s.indexer.Index(ctx, IndexRequest{
		DocID:   docID,
		Type:    req.DocumentType,
		Source:  req.Source,
		Content: req.Content,
	}); err != nil {
		return "", err
	}

	if s.docCache != nil {
		if err := s.docCache.Store(ctx, hash, domain.CacheEntry{DocID: docID, CreatedAt: s.now()}); err != nil {
			logger.Get().Warn("Failed to record document in cache", zap.String("docID", docID), zap.Error(err))
		}
	}
	return docID, nil
}

func (s *questionService) SweepDocumentCache(ctx context.Context) (int, error) {
	if s.docCache == nil {
		return 0, nil
	}
	return s.docCache.Sweep(ctx)
}

// sliceResult is the outcome of one context-fetch-and-generate iteration.
type sliceResult struct {
	questions []domain.Question
	// retrievalErr aborts the request; genErr only counts against it.
	retrievalErr error
	genErr       error
}

// questionsPerSlice spreads the set across n slices, earlier slices taking the remainder.
func questionsPerSlice(n int) []int {
	counts := make([]int, n)
	for i := range counts {
		counts[i] = domain.QuestionSetSize / n
		if i < domain.QuestionSetSize%n {
			counts[i]++
		}
	}
	return counts
}

func (s *questionService) generate(ctx context.Context, kind PromptKind, plan ContextPlan, difficulty domain.Difficulty) (domain.QuestionSet, error) {
	n := min(plan.Len(), domain.QuestionSetSize)
	counts := questionsPerSlice(n)
	results := make([]sliceResult, n)

	var g errgroup.Group
	g.SetLimit(s.maxConcurrency)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			results[i] = s.generateSlice(ctx, kind, plan, i, counts[i], difficulty)
			return nil
		})
	}
	_ = g.Wait()

	// Each slice fills exactly counts[i] positions so a failed slice leaves its
	// placeholders where its questions would have been.
	questions := make([]domain.Question, 0, domain.QuestionSetSize)
	var genErrs []error
	for i, r := range results {
		if r.retrievalErr != nil {
			logger.Get().Error("Context retrieval failed", zap.Int("slice", i), zap.Error(r.retrievalErr))
			return domain.QuestionSet{}, r.retrievalErr
		}
		if r.genErr != nil {
			genErrs = append(genErrs, r.genErr)
		}
		questions = append(questions, r.questions...)
		for j := len(r.questions); j < counts[i]; j++ {
			questions = append(questions, domain.PlaceholderQuestion())
		}
	}

	if len(genErrs) == n && !allTimeouts(genErrs) {
		return domain.QuestionSet{}, domain.NewProviderUnavailableError("generation provider failed", errors.Join(genErrs...))
	}
	if len(genErrs) > 0 {
		logger.Get().Warn("Some generation calls failed, padding with placeholders",
			zap.Int("failed", len(genErrs)),
			zap.Int("slices", n))
	}
	return domain.NewQuestionSet(questions), nil
}

func (s *questionService) generateSlice(ctx context.Context, kind PromptKind, plan ContextPlan, i, count int, difficulty domain.Difficulty) (res sliceResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Get().Error("Recovered while generating slice", zap.Int("slice", i), zap.Any("panic", r))
			res = sliceResult{}
		}
	}()

	text, err := s.retriever.SliceContext(ctx, plan, i)
	if err != nil {
		return sliceResult{retrievalErr: err}
	}

	prompt, err := s.prompts.BuildN(kind, text, count, difficulty)
	if err != nil {
		return sliceResult{retrievalErr: err}
	}

	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return sliceResult{genErr: err}
	}

	questions, err := ExtractQuestions(raw)
	if err != nil {
		logger.Get().Warn("Discarding malformed LLM response", zap.Int("slice", i), zap.Error(err))
		return sliceResult{}
	}
	if len(questions) > count {
		questions = questions[:count]
	}
	return sliceResult{questions: questions}
}

func allTimeouts(errs []error) bool {
	for _, err := range errs {
		if !errors.Is(err, context.DeadlineExceeded) {
			return false
		}
	}
	return true
}
