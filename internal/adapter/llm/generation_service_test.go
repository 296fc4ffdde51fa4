package llm

import (
	"context"
	"errors"
	"testing"
	"time"
	"trivia-rag/internal/config"
	"trivia-rag/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel is a minimal llms.Model.
type fakeModel struct {
	reply   string
	err     error
	delay   time.Duration
	prompts []string
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, m := range messages {
		for _, part := range m.Parts {
			if text, ok := part.(llms.TextContent); ok {
				f.prompts = append(f.prompts, text.Text)
			}
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestGenerationService_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("returns completion", func(t *testing.T) {
		model := &fakeModel{reply: `{"questions": []}`}
		svc := NewGenerationService(model, "fake", 0.7, time.Second)

		got, err := svc.Generate(ctx, "prompt text")
		require.NoError(t, err)
		assert.Equal(t, `{"questions": []}`, got)
		assert.Equal(t, []string{"prompt text"}, model.prompts)
	})

	t.Run("timeout wraps deadline exceeded", func(t *testing.T) {
		model := &fakeModel{reply: "late", delay: time.Second}
		svc := NewGenerationService(model, "fake", 0.7, 20*time.Millisecond)

		_, err := svc.Generate(ctx, "prompt")
		assert.True(t, domain.IsCode(err, domain.ErrProviderUnavailable))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("provider failure", func(t *testing.T) {
		cause := errors.New("connection refused")
		svc := NewGenerationService(&fakeModel{err: cause}, "fake", 0.7, time.Second)

		_, err := svc.Generate(ctx, "prompt")
		assert.True(t, domain.IsCode(err, domain.ErrProviderUnavailable))
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestGenerationService_Ping(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, NewGenerationService(&fakeModel{reply: "p"}, "fake", 0, 0).Ping(ctx))

	err := NewGenerationService(&fakeModel{err: errors.New("down")}, "fake", 0, 0).Ping(ctx)
	assert.True(t, domain.IsCode(err, domain.ErrProviderUnavailable))
}

func TestNewFromConfig_Validation(t *testing.T) {
	_, err := NewFromConfig(config.LLMConfig{Provider: "ollama"})
	assert.EqualError(t, err, "ollama server URL cannot be empty")

	_, err = NewFromConfig(config.LLMConfig{Provider: "openai"})
	assert.EqualError(t, err, "openai API key cannot be empty")

	_, err = NewFromConfig(config.LLMConfig{Provider: "gemini"})
	assert.EqualError(t, err, `unsupported llm provider: "gemini"`)
}
