package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// OpenAIGenerator talks to any OpenAI compatible endpoint through eino.
type OpenAIGenerator struct {
	chatModel model.ChatModel
}

func NewOpenAIGenerator(ctx context.Context, baseURL, apiKey, defaultModel string) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable is not set")
	}
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   defaultModel,
	})
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	return &OpenAIGenerator{chatModel: cm}, nil
}

func (g *OpenAIGenerator) Provider() string { return "openai" }

func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	messages := []*schema.Message{
		schema.SystemMessage(req.System),
		schema.UserMessage(req.Prompt),
	}
	var opts []model.Option
	if req.Model != "" {
		opts = append(opts, model.WithModel(req.Model))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}

	msg, err := g.chatModel.Generate(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}

	resp := &Response{Text: msg.Content, ModelVersion: req.Model}
	if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
		u := msg.ResponseMeta.Usage
		resp.Usage = TokenUsage{
			InputTokens:  int64(u.PromptTokens),
			OutputTokens: int64(u.CompletionTokens),
			TotalTokens:  int64(u.TotalTokens),
		}
	}
	return resp, nil
}
