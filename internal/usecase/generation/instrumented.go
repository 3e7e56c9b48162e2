// Package generation holds the logging decorator for text generators.
package generation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shopper/internal/domain"
)

// InstrumentedGenerator wraps Generator with logging.
type InstrumentedGenerator struct {
	inner    domain.Generator
	provider string
	model    string
	logger   *zap.Logger
}

// NewInstrumentedGenerator wraps a generator with observability.
func NewInstrumentedGenerator(inner domain.Generator, provider, model string, logger *zap.Logger) *InstrumentedGenerator {
	return &InstrumentedGenerator{inner: inner, provider: provider, model: model, logger: logger}
}

// Complete delegates to the inner generator and logs the outcome.
func (g *InstrumentedGenerator) Complete(ctx context.Context, prompt string) (domain.CompletionResult, error) {
	start := time.Now()
	result, err := g.inner.Complete(ctx, prompt)
	duration := time.Since(start)

	if err != nil {
		g.logger.Error("Generation request failed",
			zap.String("provider", g.provider),
			zap.String("model", g.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.CompletionResult{}, fmt.Errorf("complete: %w", err)
	}

	g.logger.Debug("Generation request completed",
		zap.String("provider", g.provider),
		zap.String("model", g.model),
		zap.Duration("duration", duration),
		zap.Int("answer_bytes", len(result.Text)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("completion_tokens", result.CompletionTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

// HealthCheck delegates to the inner generator when it supports health checks.
func (g *InstrumentedGenerator) HealthCheck(ctx context.Context) error {
	if hc, ok := g.inner.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("generation health: %w", err)
		}
	}
	return nil
}
