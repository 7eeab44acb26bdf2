package provider

import (
	"context"
	"fmt"

	"github.com/permitagent/permitagent/config"
	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

// LangChainClient calls the OpenAI chat API through langchaingo.
type LangChainClient struct {
	model llms.Model
}

// NewLangChain creates a langchaingo backed client.
func NewLangChain(cfg config.LLMConfig) (*LangChainClient, error) {
	opts := []lcopenai.Option{
		lcopenai.WithToken(cfg.APIKey),
		lcopenai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create langchain client: %w", err)
	}
	return NewLangChainWithModel(llm), nil
}

// NewLangChainWithModel wraps any langchaingo model.
func NewLangChainWithModel(model llms.Model) *LangChainClient {
	return &LangChainClient{model: model}
}

// Complete implements Client.
func (c *LangChainClient) Complete(ctx context.Context, messages []Message, params Params) (*Completion, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, llms.TextParts(langChainRole(m.Role), m.Content))
	}

	resp, err := c.model.GenerateContent(ctx, content,
		llms.WithModel(params.Model),
		llms.WithTemperature(params.Temperature),
		llms.WithMaxTokens(params.MaxTokens),
	)
	if err != nil {
		return nil, err
	}

	out := &Completion{Raw: resp}
	if resp == nil {
		return out, nil
	}
	for _, choice := range resp.Choices {
		switch {
		case choice == nil:
			out.Choices = append(out.Choices, Choice{})
		case choice.Content == "" && len(choice.ToolCalls) > 0:
			out.Choices = append(out.Choices, Choice{})
		default:
			out.Choices = append(out.Choices, textChoice(choice.Content))
		}
	}
	return out, nil
}

func langChainRole(r Role) llms.ChatMessageType {
	switch r {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleUser:
		return llms.ChatMessageTypeHuman
	default:
		return llms.ChatMessageTypeGeneric
	}
}
