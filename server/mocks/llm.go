package mocks

import (
	"context"
	"sync"

	"github.com/permitagent/permitagent/server/provider"
	"github.com/teilomillet/gollm"
	"github.com/teilomillet/gollm/llm"
)

// MockClient implements provider.Client for tests. It records every call so
// tests can assert on the prompt and on how many upstream calls were made.
//
// Example usage:
//
//	client := mocks.NewMockClient(func(ctx context.Context, msgs []provider.Message, p provider.Params) (*provider.Completion, error) {
//	    return mocks.TextCompletion("mocked answer"), nil
//	})
type MockClient struct {
	CompleteFunc func(context.Context, []provider.Message, provider.Params) (*provider.Completion, error)

	mu    sync.Mutex
	calls []Call
}

// Call captures the arguments of one Complete invocation.
type Call struct {
	Messages []provider.Message
	Params   provider.Params
}

var _ provider.Client = (*MockClient)(nil)

// NewMockClient creates a MockClient. A nil completeFunc answers with an
// empty completion.
func NewMockClient(completeFunc func(context.Context, []provider.Message, provider.Params) (*provider.Completion, error)) *MockClient {
	return &MockClient{CompleteFunc: completeFunc}
}

// Complete implements provider.Client.
func (m *MockClient) Complete(ctx context.Context, messages []provider.Message, params provider.Params) (*provider.Completion, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Messages: messages, Params: params})
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, messages, params)
	}
	return &provider.Completion{}, nil
}

// Calls returns a copy of the recorded calls.
func (m *MockClient) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// TextCompletion builds a completion with a single text choice.
func TextCompletion(text string) *provider.Completion {
	return &provider.Completion{
		Choices: []provider.Choice{{Text: &text}},
		Raw:     text,
	}
}

// MockLLM is a gollm.LLM whose Generate is scripted. The embedded interface
// is left nil; calling any other method panics, which flags unexpected use.
type MockLLM struct {
	gollm.LLM

	GenerateFunc func(context.Context, *gollm.Prompt) (string, error)
}

// NewMockLLM creates a new MockLLM with optional generate function.
// If generateFunc is nil, Generate will return empty string with no error.
func NewMockLLM(generateFunc func(context.Context, *gollm.Prompt) (string, error)) *MockLLM {
	return &MockLLM{GenerateFunc: generateFunc}
}

// Generate uses the provided GenerateFunc if available. The opts parameter
// is ignored.
func (m *MockLLM) Generate(ctx context.Context, prompt *gollm.Prompt, opts ...llm.GenerateOption) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return "", nil
}
