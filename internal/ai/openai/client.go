package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/spigell/collab-matcher/internal/logger"
)

const (
	defaultModel    = "gpt-4o-mini"
	temperature     = 0.3
	topP            = 0.8
	maxOutputTokens = 1000
)

type completer interface {
	CreateChatCompletion(ctx context.Context, request goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

// Generator implements ai.Generator on top of the OpenAI chat completions API.
type Generator struct {
	client completer
	model  string
	logger *zap.Logger
}

// NewGenerator creates an OpenAI generator. baseURL is optional and points the
// client at any OpenAI-compatible endpoint.
func NewGenerator(apiKey, model, baseURL string, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		cfg.BaseURL = baseURL
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Generator{
		client: goopenai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger.WithCommonFields(log, "openai", model),
	}, nil
}

func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.client == nil {
		return "", errors.New("openai generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	resp, err := g.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: g.model,
		Messages: []goopenai.ChatCompletionMessage{{
			Role:    goopenai.ChatMessageRoleUser,
			Content: prompt,
		}},
		MaxTokens:   maxOutputTokens,
		Temperature: temperature,
		TopP:        topP,
	})
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("openai api returned no choices")
	}

	g.logger.Debug("openai completion",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
	)

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
