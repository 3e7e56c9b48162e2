package gemini

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/shopper/internal/domain"
	"github.com/kailas-cloud/shopper/internal/domain/vector"
	"github.com/kailas-cloud/shopper/internal/metrics"
)

// Embedder is an embedding provider backed by the Gemini API.
type Embedder struct {
	client     *genai.Client
	model      string
	dimensions int
	provider   string
	logger     *zap.Logger
}

// NewEmbedder creates a Gemini embedding provider.
func NewEmbedder(ctx context.Context, cfg *Config) (*Embedder, error) {
	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Embedder{
		client:     client,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		provider:   providerName(cfg),
		logger:     loggerOrNop(cfg.Logger),
	}, nil
}

// Embed implements domain.Embedder. The Gemini API reports no token usage for embeddings.
// Truncated outputs (Dimensions > 0) are not unit length, so they are normalized here.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	var ecfg *genai.EmbedContentConfig
	if e.dimensions > 0 {
		ecfg = &genai.EmbedContentConfig{OutputDimensionality: genai.Ptr(int32(e.dimensions))}
	}

	start := time.Now()
	resp, err := e.client.Models.EmbedContent(ctx, e.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, ecfg)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, e.model, errorType(err)).Inc()
		return domain.EmbeddingResult{}, wrapAPIError("embedding", err, domain.ErrEmbeddingProviderError)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, e.model, "empty_response").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, e.model).Observe(duration.Seconds())

	values := resp.Embeddings[0].Values
	if e.dimensions > 0 {
		values = vector.Normalize(values)
	}
	return domain.EmbeddingResult{Embedding: values}, nil
}

// HealthCheck fetches the model metadata.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.Models.Get(ctx, e.model, nil); err != nil {
		return fmt.Errorf("get model %s: %w", e.model, err)
	}
	return nil
}
