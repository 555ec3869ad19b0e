package llm

import (
	"context"
	"fmt"

	"forum-letter/config"
)

// Request is one prompt sent to a model.
type Request struct {
	System    string
	Prompt    string
	Model     string
	MaxTokens int
}

type TokenUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

type Response struct {
	Text         string
	ModelVersion string
	Usage        TokenUsage
}

// Generator is a text completion backend.
type Generator interface {
	Provider() string
	Generate(ctx context.Context, req Request) (*Response, error)
}

// NewGenerator returns the backend configured in llm.provider.
func NewGenerator(ctx context.Context, cfg config.LLMConfig) (Generator, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiGenerator(ctx, cfg.GeminiAPIKey)
	case "openai":
		return NewOpenAIGenerator(ctx, cfg.BaseURL, cfg.OpenAIAPIKey, cfg.CategorizationModel)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
