// Package provider adapts chat-completion client libraries to one small
// interface. Each backend turns the library's response into a list of
// choices and keeps the raw response for diagnostics.
package provider

import (
	"context"
	"fmt"

	"github.com/permitagent/permitagent/config"
)

// Role tags a prompt message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one role-tagged prompt segment.
type Message struct {
	Role    Role
	Content string
}

// Params are the sampling parameters sent with every call.
type Params struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Choice is one candidate answer. Text is nil when the upstream choice
// carried no message text, for example a tool call.
type Choice struct {
	Text *string
}

// Completion is the backend-neutral view of one upstream response.
type Completion struct {
	Choices []Choice

	// Raw is the library's response, or a printable rendering of it,
	// shown to clients when no choice carries text
	Raw interface{}
}

// Client performs a single blocking chat-completion call.
type Client interface {
	Complete(ctx context.Context, messages []Message, params Params) (*Completion, error)
}

// New creates the client selected by cfg.Backend. The credential must be set.
func New(cfg config.LLMConfig) (Client, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("create %s client: missing api key", cfg.Backend)
	}

	switch cfg.Backend {
	case config.BackendOpenAI:
		return NewOpenAI(cfg), nil
	case config.BackendLangChain:
		return NewLangChain(cfg)
	case config.BackendGollm:
		return NewGollm(cfg)
	default:
		return nil, fmt.Errorf("unknown backend: %q", cfg.Backend)
	}
}

func textChoice(s string) Choice {
	return Choice{Text: &s}
}
