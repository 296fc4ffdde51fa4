package embedding

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	openaiLLM "github.com/tmc/langchaingo/llms/openai"
)

const defaultOpenAIEmbeddingModel = "text-embedding-ada-002"

// NewOpenAIEmbeddingService creates an embedding service backed by the OpenAI API.
func NewOpenAIEmbeddingService(apiKey, modelName string, timeout time.Duration) (*LangchainEmbeddingService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key cannot be empty")
	}
	if modelName == "" {
		modelName = defaultOpenAIEmbeddingModel
	}

	opts := []openaiLLM.Option{
		openaiLLM.WithToken(apiKey),
		openaiLLM.WithEmbeddingModel(modelName),
	}
	if timeout > 0 {
		opts = append(opts, openaiLLM.WithHTTPClient(&http.Client{Timeout: timeout}))
	}

	llm, err := openaiLLM.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LangchainGo OpenAI LLM client for embedder: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create generic embedder from OpenAI LLM: %w", err)
	}

	return NewLangchainEmbeddingService(embedder, "openai"), nil
}
