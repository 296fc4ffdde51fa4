package embedding

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"time"
	"trivia-rag/internal/cache"
	"trivia-rag/internal/domain"
	"trivia-rag/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CachedEmbeddingService memoizes embeddings in a domain.Cache, keyed by content hash.
// Concurrent requests for the same text share one provider call.
type CachedEmbeddingService struct {
	next    domain.EmbeddingService
	cache   domain.Cache
	ttl     time.Duration
	keySalt string
	sfGroup singleflight.Group
}

var _ domain.EmbeddingService = (*CachedEmbeddingService)(nil)

// NewCachedEmbeddingService decorates next. keySalt distinguishes provider/model combinations
// that share a cache.
func NewCachedEmbeddingService(next domain.EmbeddingService, c domain.Cache, ttl time.Duration, keySalt string) (*CachedEmbeddingService, error) {
	if next == nil {
		return nil, fmt.Errorf("embedding service cannot be nil")
	}
	if c == nil {
		return nil, fmt.Errorf("cache instance cannot be nil for CachedEmbeddingService")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("embedding cache TTL must be positive")
	}
	return &CachedEmbeddingService{next: next, cache: c, ttl: ttl, keySalt: keySalt}, nil
}

func (s *CachedEmbeddingService) cacheKey(text string) string {
	return cache.GenerateCacheKey("embedding", "text", cache.ContentHash(text), s.keySalt)
}

func (s *CachedEmbeddingService) lookup(ctx context.Context, key string) ([]float32, bool) {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Warn("Embedding cache read failed", zap.String("cacheKey", key), zap.Error(err))
		}
		return nil, false
	}

	var embedding []float32
	if err := gob.NewDecoder(bytes.NewReader([]byte(data))).Decode(&embedding); err != nil || len(embedding) == 0 {
		logger.Get().Warn("Discarding undecodable cached embedding", zap.String("cacheKey", key), zap.Error(err))
		return nil, false
	}
	return embedding, true
}

func (s *CachedEmbeddingService) store(ctx context.Context, key string, embedding []float32) {
	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(embedding); err != nil {
		logger.Get().Error("Failed to gob encode embedding for caching", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, buffer.String(), s.ttl); err != nil {
		logger.Get().Warn("Failed to cache embedding", zap.String("cacheKey", key), zap.Error(err))
	}
}

// Generate returns the cached embedding for text, calling the wrapped service on a miss.
func (s *CachedEmbeddingService) Generate(ctx context.Context, text string) ([]float32, error) {
	key := s.cacheKey(text)
	if embedding, ok := s.lookup(ctx, key); ok {
		return embedding, nil
	}

	res, err, _ := s.sfGroup.Do(key, func() (interface{}, error) {
		embedding, err := s.next.Generate(ctx, text)
		if err != nil {
			return nil, err
		}
		s.store(ctx, key, embedding)
		return embedding, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]float32), nil
}

// GenerateBatch serves hits from the cache and embeds the misses in one batch call.
func (s *CachedEmbeddingService) GenerateBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		if embedding, ok := s.lookup(ctx, s.cacheKey(text)); ok {
			out[i] = embedding
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := s.next.GenerateBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missTexts) {
		return nil, domain.NewProviderUnavailableError(
			fmt.Sprintf("expected %d embeddings, got %d", len(missTexts), len(vectors)), nil)
	}
	for j, i := range missIdx {
		out[i] = vectors[j]
		s.store(ctx, s.cacheKey(texts[i]), vectors[j])
	}
	return out, nil
}
