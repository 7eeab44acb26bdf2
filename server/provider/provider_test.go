package provider_test

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/permitagent/permitagent/config"
	"github.com/permitagent/permitagent/server/mocks"
	"github.com/permitagent/permitagent/server/provider"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teilomillet/gollm"
)

var testMessages = []provider.Message{
	{Role: provider.RoleSystem, Content: "be brief"},
	{Role: provider.RoleUser, Content: "Do I need a permit?"},
}

var testParams = provider.Params{Model: "gpt-4o-mini", Temperature: 0.2, MaxTokens: 800}

// chatRequest is the subset of the OpenAI request body the tests inspect.
type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// newUpstream starts a fake OpenAI chat completions endpoint. It records the
// decoded request and answers with status and body.
func newUpstream(t *testing.T, status int, body string, got *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		data, err := io.ReadAll(r.Body)
		if err == nil && got != nil {
			_ = json.Unmarshal(data, got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

const okBody = `{
  "id": "chatcmpl-123",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [
    {"index": 0, "message": {"role": "assistant", "content": "  Yes, fences over 6ft need a permit.\n"}, "finish_reason": "stop"}
  ],
  "usage": {"prompt_tokens": 10, "completion_tokens": 9, "total_tokens": 19}
}`

func testLLMConfig(backend, baseURL string) config.LLMConfig {
	cfg := config.DefaultConfig().LLM
	cfg.Backend = backend
	cfg.APIKey = "sk-test"
	cfg.BaseURL = baseURL
	return cfg
}

func TestOpenAIClientComplete(t *testing.T) {
	var got chatRequest
	srv := newUpstream(t, http.StatusOK, okBody, &got)

	client := provider.NewOpenAI(testLLMConfig(config.BackendOpenAI, srv.URL+"/v1"))
	comp, err := client.Complete(context.Background(), testMessages, testParams)
	require.NoError(t, err)

	require.Len(t, comp.Choices, 1)
	require.NotNil(t, comp.Choices[0].Text)
	assert.Equal(t, "  Yes, fences over 6ft need a permit.\n", *comp.Choices[0].Text)
	assert.IsType(t, "", comp.Raw)
	assert.Contains(t, comp.Raw, `"id":"chatcmpl-123"`)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 800, got.MaxTokens)
	assert.InDelta(t, 0.2, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "be brief", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "Do I need a permit?", got.Messages[1].Content)
}

func TestOpenAIClientNoChoices(t *testing.T) {
	srv := newUpstream(t, http.StatusOK, `{"id": "chatcmpl-empty", "object": "chat.completion", "choices": []}`, nil)

	client := provider.NewOpenAI(testLLMConfig(config.BackendOpenAI, srv.URL+"/v1"))
	comp, err := client.Complete(context.Background(), testMessages, testParams)
	require.NoError(t, err)
	assert.Empty(t, comp.Choices)
	assert.NotNil(t, comp.Raw)
}

func TestOpenAIClientToolCallHasNoText(t *testing.T) {
	body := `{
  "id": "chatcmpl-tool",
  "object": "chat.completion",
  "choices": [
    {"index": 0, "message": {"role": "assistant", "content": "", "tool_calls": [
      {"id": "call_1", "type": "function", "function": {"name": "lookup", "arguments": "{}"}}
    ]}, "finish_reason": "tool_calls"}
  ]
}`
	srv := newUpstream(t, http.StatusOK, body, nil)

	client := provider.NewOpenAI(testLLMConfig(config.BackendOpenAI, srv.URL+"/v1"))
	comp, err := client.Complete(context.Background(), testMessages, testParams)
	require.NoError(t, err)
	require.Len(t, comp.Choices, 1)
	assert.Nil(t, comp.Choices[0].Text)
}

func TestOpenAIClientRefusalHasNoText(t *testing.T) {
	body := `{
  "id": "chatcmpl-refusal",
  "object": "chat.completion",
  "choices": [
    {"index": 0, "message": {"role": "assistant", "content": null, "refusal": "I can't help with that."}, "finish_reason": "stop"}
  ]
}`
	srv := newUpstream(t, http.StatusOK, body, nil)

	client := provider.NewOpenAI(testLLMConfig(config.BackendOpenAI, srv.URL+"/v1"))
	comp, err := client.Complete(context.Background(), testMessages, testParams)
	require.NoError(t, err)
	require.Len(t, comp.Choices, 1)
	assert.Nil(t, comp.Choices[0].Text)
	assert.Contains(t, comp.Raw, "I can't help with that.")
}

func TestOpenAIClientRawOmitsResponseHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Openai-Organization", "org-private")
		w.Header().Set("Set-Cookie", "__cf_bm=session-cookie; path=/")
		_, _ = io.WriteString(w, `{"id": "chatcmpl-empty", "object": "chat.completion", "choices": []}`)
	}))
	t.Cleanup(srv.Close)

	client := provider.NewOpenAI(testLLMConfig(config.BackendOpenAI, srv.URL+"/v1"))
	comp, err := client.Complete(context.Background(), testMessages, testParams)
	require.NoError(t, err)

	raw := fmt.Sprintf("%+v", comp.Raw)
	assert.Contains(t, raw, "chatcmpl-empty")
	assert.NotContains(t, raw, "org-private")
	assert.NotContains(t, raw, "session-cookie")
}

func TestOpenAIClientUpstreamError(t *testing.T) {
	srv := newUpstream(t, http.StatusInternalServerError,
		`{"error": {"message": "The server had an error", "type": "server_error"}}`, nil)

	client := provider.NewOpenAI(testLLMConfig(config.BackendOpenAI, srv.URL+"/v1"))
	_, err := client.Complete(context.Background(), testMessages, testParams)
	require.Error(t, err)

	var apiErr *openai.APIError
	require.True(t, stderrors.As(err, &apiErr), "got %T", err)
	assert.Equal(t, http.StatusInternalServerError, apiErr.HTTPStatusCode)
	assert.Contains(t, apiErr.Message, "The server had an error")
}

// fakeCompleter lets tests drive OpenAIClient without HTTP.
type fakeCompleter struct {
	resp openai.ChatCompletionResponse
	err  error
}

func (f fakeCompleter) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return f.resp, f.err
}

func TestOpenAIClientReturnsErrorUnwrapped(t *testing.T) {
	want := stderrors.New("dial tcp: connection refused")
	client := provider.NewOpenAIWithClient(fakeCompleter{err: want})

	_, err := client.Complete(context.Background(), testMessages, testParams)
	assert.Same(t, want, err)
}

func TestLangChainClientComplete(t *testing.T) {
	var got chatRequest
	srv := newUpstream(t, http.StatusOK, okBody, &got)

	client, err := provider.NewLangChain(testLLMConfig(config.BackendLangChain, srv.URL+"/v1"))
	require.NoError(t, err)

	comp, err := client.Complete(context.Background(), testMessages, testParams)
	require.NoError(t, err)
	require.Len(t, comp.Choices, 1)
	require.NotNil(t, comp.Choices[0].Text)
	assert.Equal(t, "  Yes, fences over 6ft need a permit.\n", *comp.Choices[0].Text)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
}

func TestGollmClientComplete(t *testing.T) {
	var prompt *gollm.Prompt
	llm := mocks.NewMockLLM(func(ctx context.Context, p *gollm.Prompt) (string, error) {
		prompt = p
		return "Check with your building department.", nil
	})

	comp, err := provider.NewGollmWithLLM(llm).Complete(context.Background(), testMessages, testParams)
	require.NoError(t, err)
	require.Len(t, comp.Choices, 1)
	assert.Equal(t, "Check with your building department.", *comp.Choices[0].Text)

	require.NotNil(t, prompt)
	require.Len(t, prompt.Messages, 2)
	assert.Equal(t, "system", prompt.Messages[0].Role)
	assert.Equal(t, "user", prompt.Messages[1].Role)
	assert.Equal(t, "Do I need a permit?", prompt.Messages[1].Content)
}

func TestGollmClientError(t *testing.T) {
	want := stderrors.New("rate limited")
	llm := mocks.NewMockLLM(func(context.Context, *gollm.Prompt) (string, error) {
		return "", want
	})

	_, err := provider.NewGollmWithLLM(llm).Complete(context.Background(), testMessages, testParams)
	assert.Same(t, want, err)
}

func TestNew(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		cfg := config.DefaultConfig().LLM
		_, err := provider.New(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing api key")
	})

	t.Run("openai backend", func(t *testing.T) {
		client, err := provider.New(testLLMConfig(config.BackendOpenAI, ""))
		require.NoError(t, err)
		assert.IsType(t, &provider.OpenAIClient{}, client)
	})

	t.Run("langchain backend", func(t *testing.T) {
		client, err := provider.New(testLLMConfig(config.BackendLangChain, ""))
		require.NoError(t, err)
		assert.IsType(t, &provider.LangChainClient{}, client)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := provider.New(testLLMConfig("smoke-signals", ""))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown backend")
	})
}
