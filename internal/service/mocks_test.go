package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"trivia-rag/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockEmbeddingService ---
type MockEmbeddingService struct {
	mock.Mock
}

func (m *MockEmbeddingService) Generate(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockEmbeddingService) GenerateBatch(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

// --- MockGenerationService ---
type MockGenerationService struct {
	mock.Mock
}

func (m *MockGenerationService) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

var (
	_ domain.EmbeddingService  = (*MockEmbeddingService)(nil)
	_ domain.GenerationService = (*MockGenerationService)(nil)
)

// markerEmbedder embeds "CHUNK<k>..." texts and "important concept <n>" queries as
// one-hot vectors so that query n retrieves chunk n-1.
type markerEmbedder struct {
	dim        int
	calls      atomic.Int32
	batchCalls atomic.Int32
	err        error
}

func (e *markerEmbedder) oneHot(i int) []float32 {
	v := make([]float32, e.dim)
	v[i%e.dim] = 1
	return v
}

func (e *markerEmbedder) Generate(ctx context.Context, text string) ([]float32, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(text, "important concept ")); err == nil {
		return e.oneHot(n - 1), nil
	}
	return e.oneHot(0), nil
}

func (e *markerEmbedder) GenerateBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.batchCalls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		var k int
		if _, err := fmt.Sscanf(text, "CHUNK%d", &k); err != nil {
			k = 0
		}
		out[i] = e.oneHot(k)
	}
	return out, nil
}

// scriptedGenerator answers with reply(prompt) and records every prompt.
type scriptedGenerator struct {
	mu      sync.Mutex
	prompts []string
	reply   func(prompt string) (string, error)
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	return g.reply(prompt)
}

func (g *scriptedGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}
