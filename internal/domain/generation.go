package domain

import "context"

// Generator turns a fully rendered prompt into free-form text.
type Generator interface {
	Complete(ctx context.Context, prompt string) (CompletionResult, error)
}

// CompletionResult carries the generated text and token usage.
type CompletionResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
