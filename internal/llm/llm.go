// Package llm provides the Large Language Model client used for relevance
// judging.
package llm

import (
	"context"
)

// GenerateOptions configures a generation request.
type GenerateOptions struct {
	// Model specifies the model to use (e.g., "llama3.2").
	Model string

	// SystemPrompt sets the system-level instructions for the model.
	SystemPrompt string

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float32

	// MaxTokens limits the response length (0 = no limit).
	MaxTokens int
}

// LLM defines the interface for language model clients. Generate blocks
// until the full response is received, an error occurs, or ctx is done.
type LLM interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}
