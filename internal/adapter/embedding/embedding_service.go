package embedding

import (
	"context"
	"fmt"
	"strings"
	"trivia-rag/internal/domain"

	"github.com/tmc/langchaingo/embeddings"
)

// LangchainEmbeddingService implements domain.EmbeddingService over any langchaingo embedder.
type LangchainEmbeddingService struct {
	embedder embeddings.Embedder
	provider string
}

var (
	_ domain.EmbeddingService = (*LangchainEmbeddingService)(nil)
	_ domain.HealthChecker    = (*LangchainEmbeddingService)(nil)
)

// NewLangchainEmbeddingService wraps an existing embedder. provider is used in error messages only.
func NewLangchainEmbeddingService(embedder embeddings.Embedder, provider string) *LangchainEmbeddingService {
	return &LangchainEmbeddingService{embedder: embedder, provider: provider}
}

// Generate creates an embedding for a single query text.
func (s *LangchainEmbeddingService) Generate(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.NewInvalidArgumentError("input text cannot be empty for embedding")
	}

	embedding, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, domain.NewProviderUnavailableError(
			fmt.Sprintf("failed to generate embedding using %s", s.provider), err)
	}
	if len(embedding) == 0 {
		return nil, domain.NewProviderUnavailableError(
			fmt.Sprintf("received empty embedding from %s", s.provider), nil)
	}
	return embedding, nil
}

// GenerateBatch embeds texts in order. The result has one vector per input.
func (s *LangchainEmbeddingService) GenerateBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, domain.NewProviderUnavailableError(
			fmt.Sprintf("failed to embed %d documents using %s", len(texts), s.provider), err)
	}
	if len(vectors) != len(texts) {
		return nil, domain.NewProviderUnavailableError(
			fmt.Sprintf("%s returned %d embeddings for %d documents", s.provider, len(vectors), len(texts)), nil)
	}
	return vectors, nil
}

// Ping embeds a short probe string.
func (s *LangchainEmbeddingService) Ping(ctx context.Context) error {
	_, err := s.Generate(ctx, "ping")
	return err
}
