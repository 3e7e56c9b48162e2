package gemini

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/shopper/internal/domain"
	"github.com/kailas-cloud/shopper/internal/metrics"
)

// Generation defaults used when the config leaves them unset.
const (
	DefaultMaxTokens   = 300
	DefaultTemperature = 0.5
)

// Generator is a text generation provider backed by the Gemini API.
type Generator struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
	provider    string
	logger      *zap.Logger
}

// NewGenerator creates a Gemini generation provider.
func NewGenerator(ctx context.Context, cfg *Config) (*Generator, error) {
	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	temperature := float32(DefaultTemperature)
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Generator{
		client:      client,
		model:       cfg.Model,
		temperature: temperature,
		maxTokens:   int32(maxTokens), //nolint:gosec // bounded by config validation
		provider:    providerName(cfg),
		logger:      loggerOrNop(cfg.Logger),
	}, nil
}

// Complete implements domain.Generator. The prompt is sent as a single user turn.
func (g *Generator) Complete(ctx context.Context, prompt string) (domain.CompletionResult, error) {
	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(g.temperature),
			MaxOutputTokens: g.maxTokens,
			StopSequences:   []string{"\nHuman:"},
		})
	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(g.provider, g.model, errorType(err)).Inc()
		return domain.CompletionResult{}, wrapAPIError("generation", err, domain.ErrGenerationProviderError)
	}
	if len(resp.Candidates) == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(g.provider, g.model, "empty_response").Inc()
		reason := ""
		if resp.PromptFeedback != nil {
			reason = string(resp.PromptFeedback.BlockReason)
		}
		return domain.CompletionResult{}, fmt.Errorf("no candidates (block reason %q): %w",
			reason, domain.ErrGenerationProviderError)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		g.logger.Warn("Generated answer hit the token limit",
			zap.String("provider", g.provider),
			zap.String("model", g.model),
			zap.Int32("max_tokens", g.maxTokens),
		)
	}

	res := domain.CompletionResult{Text: resp.Text()}
	if u := resp.UsageMetadata; u != nil {
		res.PromptTokens = int(u.PromptTokenCount)
		res.CompletionTokens = int(u.CandidatesTokenCount)
		res.TotalTokens = int(u.TotalTokenCount)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(g.provider, g.model).Observe(duration.Seconds())
	if res.TotalTokens > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "prompt").Add(float64(res.PromptTokens))
		metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "completion").Add(float64(res.CompletionTokens))
	}
	return res, nil
}

// HealthCheck fetches the model metadata.
func (g *Generator) HealthCheck(ctx context.Context) error {
	if _, err := g.client.Models.Get(ctx, g.model, nil); err != nil {
		return fmt.Errorf("get model %s: %w", g.model, err)
	}
	return nil
}
