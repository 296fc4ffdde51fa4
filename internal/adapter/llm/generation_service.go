package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"trivia-rag/internal/config"
	"trivia-rag/internal/domain"
	"trivia-rag/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

const defaultTimeout = 60 * time.Second

// GenerationService implements domain.GenerationService over a langchaingo model.
type GenerationService struct {
	model       llms.Model
	name        string
	temperature float64
	timeout     time.Duration
}

var (
	_ domain.GenerationService = (*GenerationService)(nil)
	_ domain.HealthChecker     = (*GenerationService)(nil)
)

// NewGenerationService wraps model. A non-positive timeout falls back to 60s.
func NewGenerationService(model llms.Model, name string, temperature float64, timeout time.Duration) *GenerationService {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &GenerationService{model: model, name: name, temperature: temperature, timeout: timeout}
}

// NewFromConfig builds the provider selected by cfg.Provider.
func NewFromConfig(cfg config.LLMConfig) (*GenerationService, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout + 5*time.Second}

	switch cfg.Provider {
	case "", "ollama":
		if cfg.ServerURL == "" {
			return nil, fmt.Errorf("ollama server URL cannot be empty")
		}
		model, err := ollama.New(
			ollama.WithServerURL(cfg.ServerURL),
			ollama.WithModel(cfg.Model),
			ollama.WithHTTPClient(httpClient),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		return NewGenerationService(model, "ollama/"+cfg.Model, cfg.Temperature, cfg.Timeout), nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai API key cannot be empty")
		}
		opts := []openai.Option{
			openai.WithToken(cfg.APIKey),
			openai.WithHTTPClient(httpClient),
		}
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		model, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai client: %w", err)
		}
		return NewGenerationService(model, "openai/"+cfg.Model, cfg.Temperature, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %q", cfg.Provider)
	}
}

// Generate sends prompt as a single user turn and returns the raw completion.
// A timeout is reported as ProviderUnavailable wrapping context.DeadlineExceeded.
func (s *GenerationService) Generate(ctx context.Context, prompt string) (string, error) {
	l := logger.Get()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	response, err := llms.GenerateFromSinglePrompt(ctx, s.model, prompt, llms.WithTemperature(s.temperature))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			l.Warn("LLM request timed out", zap.String("model", s.name), zap.Duration("timeout", s.timeout))
			return "", domain.NewProviderUnavailableError("LLM request timed out", context.DeadlineExceeded)
		}
		l.Error("Failed to get response from LLM", zap.String("model", s.name), zap.Error(err))
		return "", domain.NewProviderUnavailableError("LLM call failed", err)
	}

	l.Debug("LLM response received",
		zap.String("model", s.name),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("length", len(response)))
	return response, nil
}

// Ping issues a one-token completion.
func (s *GenerationService) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := llms.GenerateFromSinglePrompt(ctx, s.model, "ping", llms.WithMaxTokens(1)); err != nil {
		return domain.NewProviderUnavailableError(fmt.Sprintf("%s is not reachable", s.name), err)
	}
	return nil
}
