package embedding

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	ollamaLLM "github.com/tmc/langchaingo/llms/ollama"
)

// NewOllamaEmbeddingService creates an embedding service backed by an Ollama server.
func NewOllamaEmbeddingService(serverURL, modelName string, timeout time.Duration) (*LangchainEmbeddingService, error) {
	if serverURL == "" {
		return nil, fmt.Errorf("ollama server URL cannot be empty")
	}
	if modelName == "" {
		return nil, fmt.Errorf("ollama model name cannot be empty")
	}

	opts := []ollamaLLM.Option{
		ollamaLLM.WithModel(modelName),
		ollamaLLM.WithServerURL(serverURL),
	}
	if timeout > 0 {
		opts = append(opts, ollamaLLM.WithHTTPClient(&http.Client{Timeout: timeout}))
	}

	llm, err := ollamaLLM.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LangchainGo Ollama LLM client for embedder: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create generic embedder from Ollama LLM: %w", err)
	}

	return NewLangchainEmbeddingService(embedder, "ollama"), nil
}
