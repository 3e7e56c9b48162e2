package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shopper/internal/domain"
	"github.com/kailas-cloud/shopper/internal/metrics"
)

// Generation defaults used when the config leaves them unset.
const (
	DefaultMaxTokens   = 300
	DefaultTemperature = 0.5
)

// stopSequences keep the model from writing the next Human turn of the dialogue.
var stopSequences = []string{"\nHuman:"}

// Generator is a text generation provider using the OpenAI-compatible API.
type Generator struct {
	client      *openai.Client
	model       string
	mode        Mode
	temperature float32
	maxTokens   int
	user        string
	provider    string
	logger      *zap.Logger
}

// NewGenerator creates an OpenAI-compatible generation provider.
// An unset mode selects chat; unset max tokens and temperature use the package defaults.
func NewGenerator(cfg *Config) *Generator {
	mode := cfg.Mode
	if mode == "" {
		mode = ModeChat
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := float32(DefaultTemperature)
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	return &Generator{
		client:      newClient(cfg),
		model:       cfg.Model,
		mode:        mode,
		temperature: temperature,
		maxTokens:   maxTokens,
		user:        cfg.User,
		provider:    cfg.Provider,
		logger:      loggerOrNop(cfg.Logger),
	}
}

// Complete implements domain.Generator. The answer text is returned untrimmed.
func (g *Generator) Complete(ctx context.Context, prompt string) (domain.CompletionResult, error) {
	start := time.Now()

	var (
		res domain.CompletionResult
		err error
	)
	switch g.mode {
	case ModeCompletion:
		res, err = g.complete(ctx, prompt)
	default:
		res, err = g.chat(ctx, prompt)
	}

	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		return domain.CompletionResult{}, err
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(g.provider, g.model).Observe(duration.Seconds())
	if res.TotalTokens > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "prompt").Add(float64(res.PromptTokens))
		metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "completion").Add(float64(res.CompletionTokens))
	}
	return res, nil
}

func (g *Generator) complete(ctx context.Context, prompt string) (domain.CompletionResult, error) {
	resp, err := g.client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:       g.model,
		Prompt:      prompt,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		Stop:        stopSequences,
		User:        g.user,
	})
	if err != nil {
		metrics.GenerationErrorsTotal.WithLabelValues(g.provider, g.model, errorType(err)).Inc()
		return domain.CompletionResult{}, parseAPIError("completion", err, domain.ErrGenerationProviderError)
	}
	if len(resp.Choices) == 0 {
		metrics.GenerationErrorsTotal.WithLabelValues(g.provider, g.model, "empty_response").Inc()
		return domain.CompletionResult{}, fmt.Errorf("empty completion response: %w", domain.ErrGenerationProviderError)
	}
	if resp.Choices[0].FinishReason == string(openai.FinishReasonLength) {
		g.warnTruncated()
	}
	return domain.CompletionResult{
		Text:             resp.Choices[0].Text,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

func (g *Generator) chat(ctx context.Context, prompt string) (domain.CompletionResult, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		Stop:        stopSequences,
		User:        g.user,
	})
	if err != nil {
		metrics.GenerationErrorsTotal.WithLabelValues(g.provider, g.model, errorType(err)).Inc()
		return domain.CompletionResult{}, parseAPIError("chat completion", err, domain.ErrGenerationProviderError)
	}
	if len(resp.Choices) == 0 {
		metrics.GenerationErrorsTotal.WithLabelValues(g.provider, g.model, "empty_response").Inc()
		return domain.CompletionResult{}, fmt.Errorf("empty chat completion response: %w", domain.ErrGenerationProviderError)
	}
	if resp.Choices[0].FinishReason == openai.FinishReasonLength {
		g.warnTruncated()
	}
	return domain.CompletionResult{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

func (g *Generator) warnTruncated() {
	g.logger.Warn("Generated answer hit the token limit",
		zap.String("provider", g.provider),
		zap.String("model", g.model),
		zap.Int("max_tokens", g.maxTokens),
	)
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (g *Generator) HealthCheck(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
