// Package gemini adapts the Gemini API to the embedding and generation contracts.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Config holds the provider settings shared by Embedder and Generator.
type Config struct {
	APIKey   string
	BaseURL  string // optional endpoint override
	Model    string
	Provider string // metrics label, defaults to "gemini"
	Timeout  time.Duration
	Logger   *zap.Logger

	// Embedder only.
	Dimensions int

	// Generator only.
	Temperature *float32
	MaxTokens   int
}

func newClient(ctx context.Context, cfg *Config) (*genai.Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		cc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return client, nil
}

func providerName(cfg *Config) string {
	if cfg.Provider == "" {
		return "gemini"
	}
	return cfg.Provider
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// wrapAPIError keeps the API status in the message and always wraps sentinel.
func wrapAPIError(kind string, err, sentinel error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s API error %d %s: %s: %w", kind, apiErr.Code, apiErr.Status, apiErr.Message, sentinel)
	}
	return fmt.Errorf("%s request failed: %w: %w", kind, sentinel, err)
}

func errorType(err error) string {
	var apiErr genai.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests:
		return "rate_limited"
	case errors.As(err, &apiErr):
		return "api_error"
	default:
		return "transport"
	}
}
