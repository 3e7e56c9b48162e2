package domain

import (
	"context"
	"sync"
)

type usageKey struct{}

// Usage collects provider token usage for a single HTTP request.
// The handler puts a mutable pointer into the context before calling the service;
// the service writes after each provider call; the handler reads it for response headers.
type Usage struct {
	mu               sync.Mutex
	embeddingTokens  int
	generationTokens int
	embedded         bool // true if embedding was called, even on a cache hit with 0 tokens
	generated        bool
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *Usage) {
	u := &Usage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *Usage {
	u, _ := ctx.Value(usageKey{}).(*Usage)
	return u
}

// AddEmbeddingTokens records tokens consumed by the embedding provider.
func (u *Usage) AddEmbeddingTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.embeddingTokens += n
	u.embedded = true
	u.mu.Unlock()
}

// AddGenerationTokens records tokens consumed by the generation provider.
func (u *Usage) AddGenerationTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.generationTokens += n
	u.generated = true
	u.mu.Unlock()
}

// Embedding returns embedding tokens and whether the embedder was called.
func (u *Usage) Embedding() (int, bool) {
	if u == nil {
		return 0, false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.embeddingTokens, u.embedded
}

// Generation returns generation tokens and whether the generator was called.
func (u *Usage) Generation() (int, bool) {
	if u == nil {
		return 0, false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.generationTokens, u.generated
}
