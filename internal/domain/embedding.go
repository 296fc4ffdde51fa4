package domain

import (
	"context"
)

// EmbeddingService defines the interface for generating text embeddings.
type EmbeddingService interface {
	Generate(ctx context.Context, text string) ([]float32, error)
	GenerateBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// GenerationService maps a prompt to a free-text completion.
type GenerationService interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// HealthChecker is implemented by providers that can be probed cheaply at startup.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
