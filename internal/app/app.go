// Package app assembles the retrieval pipeline shared by the API server and the ingest CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"
	"trivia-rag/internal/adapter"
	"trivia-rag/internal/adapter/embedding"
	"trivia-rag/internal/adapter/vectorstore"
	"trivia-rag/internal/cache"
	"trivia-rag/internal/chunker"
	"trivia-rag/internal/config"
	"trivia-rag/internal/domain"
	"trivia-rag/internal/logger"
	"trivia-rag/internal/service"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const probeTimeout = 10 * time.Second

// Components holds the long-lived pieces built from configuration.
type Components struct {
	Index     domain.VectorIndex
	Embedder  domain.EmbeddingService
	Indexer   *service.Indexer
	Retriever *service.Retriever
	// Cache is nil when redis is not configured.
	Cache domain.Cache

	provider    domain.EmbeddingService
	redisClient *redis.Client
}

// Build opens the vector index and connects the embedding provider. The caller
// must Close the result.
func Build(cfg *config.Config) (*Components, error) {
	c := &Components{}

	if cfg.Redis.Address != "" {
		client, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, domain.NewStorageUnavailableError("failed to connect to redis", err)
		}
		logger.Get().Info("Successfully connected to Redis", zap.String("address", cfg.Redis.Address))
		c.redisClient = client
		c.Cache = adapter.NewRedisCacheAdapter(client)
	}

	provider, err := newEmbeddingProvider(cfg.Embedding)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.provider = provider
	c.Embedder = provider

	if c.Cache != nil && cfg.Embedding.CacheTTL > 0 {
		salt := cfg.Embedding.Source + ":" + embeddingModel(cfg.Embedding)
		cached, err := embedding.NewCachedEmbeddingService(provider, c.Cache, cfg.Embedding.CacheTTL, salt)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Embedder = cached
		logger.Get().Info("Embedding cache enabled", zap.Duration("ttl", cfg.Embedding.CacheTTL))
	}

	c.Index, err = vectorstore.Open(cfg.VectorStore)
	if err != nil {
		c.Close()
		return nil, err
	}

	ch, err := chunker.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Indexer = service.NewIndexer(ch, c.Embedder, c.Index)
	c.Retriever = service.NewRetriever(c.Embedder, c.Index, cfg.RAG)
	return c, nil
}

// NewDocumentCache picks the document cache driver.
func (c *Components) NewDocumentCache(cfg config.DocumentCacheConfig) (domain.DocumentCache, error) {
	switch cfg.Driver {
	case "", "memory":
		return service.NewMemoryDocumentCache(cfg.TTL), nil
	case "redis":
		if c.Cache == nil {
			return nil, fmt.Errorf("document_cache.driver is redis but redis is not configured")
		}
		return service.NewStoreDocumentCache(c.Cache, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unsupported document_cache.driver: %q", cfg.Driver)
	}
}

// ProbeEmbedding checks the embedding provider directly, bypassing the cache.
func (c *Components) ProbeEmbedding(ctx context.Context) error {
	return Probe(ctx, "embedding", c.provider)
}

// Close releases the index and the redis connection.
func (c *Components) Close() error {
	var errs []error
	if c.Index != nil {
		errs = append(errs, c.Index.Close())
	}
	if c.redisClient != nil {
		errs = append(errs, c.redisClient.Close())
	}
	return errors.Join(errs...)
}

// Probe pings target when it supports health checks.
func Probe(ctx context.Context, name string, target any) error {
	hc, ok := target.(domain.HealthChecker)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := hc.Ping(ctx); err != nil {
		return domain.NewProviderUnavailableError(name+" provider is not reachable", err)
	}
	return nil
}

func newEmbeddingProvider(cfg config.EmbeddingConfig) (*embedding.LangchainEmbeddingService, error) {
	switch cfg.Source {
	case "ollama":
		logger.Get().Info("Initializing Ollama Embedding Service",
			zap.String("server_url", cfg.Ollama.ServerURL),
			zap.String("model", cfg.Ollama.Model))
		return embedding.NewOllamaEmbeddingService(cfg.Ollama.ServerURL, cfg.Ollama.Model, cfg.Timeout)
	case "openai":
		logger.Get().Info("Initializing OpenAI Embedding Service", zap.String("model", cfg.OpenAI.Model))
		return embedding.NewOpenAIEmbeddingService(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unsupported embedding source: %q", cfg.Source)
	}
}

func embeddingModel(cfg config.EmbeddingConfig) string {
	if cfg.Source == "openai" {
		return cfg.OpenAI.Model
	}
	return cfg.Ollama.Model
}
