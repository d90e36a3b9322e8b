// Package ai holds the text-generation provider contract shared by the alignment service.
package ai

import "context"

// Generator produces free text for a prompt.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)
