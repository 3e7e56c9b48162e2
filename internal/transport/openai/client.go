// Package openai adapts OpenAI-compatible APIs to the embedding and generation contracts.
package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Config holds the provider settings shared by Embedder and Generator.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	User     string
	Provider string // metrics label, e.g. "openai" or "nebius"
	Timeout  time.Duration
	Logger   *zap.Logger

	// Embedder only.
	Dimensions int

	// Generator only.
	Mode        Mode
	Temperature *float32 // nil selects DefaultTemperature
	MaxTokens   int
}

// Mode selects the generation endpoint.
type Mode string

const (
	// ModeCompletion uses /completions with the prompt as-is.
	ModeCompletion Mode = "completion"
	// ModeChat sends the prompt as a single user message to /chat/completions.
	ModeChat Mode = "chat"
)

func newClient(cfg *Config) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return openai.NewClientWithConfig(clientCfg)
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// parseAPIError extracts a human-readable error from the API response.
// The result always wraps sentinel so the HTTP layer maps it to 502.
func parseAPIError(kind string, err, sentinel error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("%s API error %d: %s: %w", kind, reqErr.HTTPStatusCode, detail, sentinel)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s API error %d: %s: %w", kind, apiErr.HTTPStatusCode, apiErr.Message, sentinel)
	}

	return fmt.Errorf("%s request failed: %w: %w", kind, sentinel, err)
}

// errorType is the error_type metrics label for a provider failure.
func errorType(err error) string {
	var reqErr *openai.RequestError
	var apiErr *openai.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests,
		errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests:
		return "rate_limited"
	case apiErr != nil, reqErr != nil:
		return "api_error"
	default:
		return "transport"
	}
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
