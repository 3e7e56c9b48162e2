package shopper

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/shopper/internal/domain"
)

// Embedder converts text to a vector in the catalog's embedding space.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Generator turns a rendered prompt into free-form text.
type Generator interface {
	Complete(ctx context.Context, prompt string) (CompletionResult, error)
}

// CompletionResult carries the generated text and token counts.
type CompletionResult struct {
	Text        string
	TotalTokens int
}

// embedderAdapter wraps the public Embedder to satisfy domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// generatorAdapter wraps the public Generator to satisfy domain.Generator.
type generatorAdapter struct {
	inner Generator
}

func (a *generatorAdapter) Complete(ctx context.Context, prompt string) (domain.CompletionResult, error) {
	r, err := a.inner.Complete(ctx, prompt)
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("%w: %w", domain.ErrGenerationProviderError, err)
	}
	return domain.CompletionResult{Text: r.Text, TotalTokens: r.TotalTokens}, nil
}
