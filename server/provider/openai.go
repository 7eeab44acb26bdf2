package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/permitagent/permitagent/config"
	"github.com/sashabaranov/go-openai"
)

// ChatCompleter is the subset of *openai.Client the backend needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient talks to the chat completions endpoint through go-openai.
type OpenAIClient struct {
	client ChatCompleter
}

// NewOpenAI creates a go-openai backed client. cfg.BaseURL, when set, replaces
// the default https://api.openai.com/v1.
func NewOpenAI(cfg config.LLMConfig) *OpenAIClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return NewOpenAIWithClient(openai.NewClientWithConfig(oc))
}

// NewOpenAIWithClient wraps an existing completer (used in tests).
func NewOpenAIWithClient(client ChatCompleter) *OpenAIClient {
	return &OpenAIClient{client: client}
}

// Complete implements Client. Library errors are returned unwrapped so their
// type survives to the caller.
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message, params Params) (*Completion, error) {
	req := openai.ChatCompletionRequest{
		Model:       params.Model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
		Temperature: float32(params.Temperature),
		MaxTokens:   params.MaxTokens,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}

	out := &Completion{
		Choices: make([]Choice, 0, len(resp.Choices)),
		Raw:     openAIRaw(resp),
	}
	for _, choice := range resp.Choices {
		out.Choices = append(out.Choices, openAIChoice(choice.Message))
	}
	return out, nil
}

// openAIChoice reports no text for messages whose content was null or
// absent: tool and function calls, refusals and multi-part content.
func openAIChoice(msg openai.ChatCompletionMessage) Choice {
	if msg.Content == "" &&
		(len(msg.ToolCalls) > 0 || msg.FunctionCall != nil || msg.Refusal != "" || len(msg.MultiContent) > 0) {
		return Choice{}
	}
	return textChoice(msg.Content)
}

// openAIRaw renders resp as its JSON body. The response embeds the upstream
// HTTP headers, which must not reach clients through the degraded answer;
// encoding/json skips them since they are unexported.
func openAIRaw(resp openai.ChatCompletionResponse) string {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprintf("ChatCompletionResponse{ID:%s Model:%s}", resp.ID, resp.Model)
	}
	return string(data)
}
