package provider

import (
	"context"
	"fmt"

	"github.com/permitagent/permitagent/config"
	"github.com/teilomillet/gollm"
)

// GollmClient calls OpenAI through gollm. gollm returns plain text, so every
// successful call yields exactly one choice.
type GollmClient struct {
	llm gollm.LLM
}

// NewGollm creates a gollm backed client. Model, temperature and token limit
// are bound at construction; gollm does not support cfg.BaseURL.
func NewGollm(cfg config.LLMConfig) (*GollmClient, error) {
	llm, err := gollm.NewLLM(
		gollm.SetProvider(config.BackendOpenAI),
		gollm.SetModel(cfg.Model),
		gollm.SetAPIKey(cfg.APIKey),
		gollm.SetTemperature(cfg.Temperature),
		gollm.SetMaxTokens(cfg.MaxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("create gollm client: %w", err)
	}
	return NewGollmWithLLM(llm), nil
}

// NewGollmWithLLM wraps an existing gollm instance (used in tests).
func NewGollmWithLLM(llm gollm.LLM) *GollmClient {
	return &GollmClient{llm: llm}
}

// Complete implements Client. params were applied when the LLM was built.
func (c *GollmClient) Complete(ctx context.Context, messages []Message, _ Params) (*Completion, error) {
	prompt := &gollm.Prompt{Messages: make([]gollm.PromptMessage, 0, len(messages))}
	for _, m := range messages {
		prompt.Messages = append(prompt.Messages, gollm.PromptMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	text, err := c.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return &Completion{Choices: []Choice{textChoice(text)}, Raw: text}, nil
}
