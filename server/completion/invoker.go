package completion

import (
	"context"
	"fmt"
	"strings"

	"github.com/permitagent/permitagent/config"
	"github.com/permitagent/permitagent/server/provider"
	"go.uber.org/zap"
)

// Invoker asks the upstream API one question at a time. It holds no mutable
// state and is safe for concurrent use.
type Invoker struct {
	handle       Handle
	systemPrompt string
	params       provider.Params
	logger       *zap.Logger
}

// NewInvoker creates an invoker for handle using the prompt and sampling
// parameters from cfg.
func NewInvoker(handle Handle, cfg config.LLMConfig, logger *zap.Logger) *Invoker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invoker{
		handle:       handle,
		systemPrompt: cfg.SystemPrompt,
		params: provider.Params{
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		},
		logger: logger,
	}
}

// Configured reports whether the underlying handle can reach the upstream API.
func (inv *Invoker) Configured() bool {
	return inv.handle.IsConfigured()
}

// Prompt returns the two messages sent for question: the system instruction
// followed by the question verbatim.
func (inv *Invoker) Prompt(question string) []provider.Message {
	return []provider.Message{
		{Role: provider.RoleSystem, Content: inv.systemPrompt},
		{Role: provider.RoleUser, Content: question},
	}
}

// Ask sends question upstream and extracts the answer. It returns
// ErrMisconfigured without any network I/O when the handle is unconfigured.
// Upstream errors are returned as-is.
func (inv *Invoker) Ask(ctx context.Context, question string) (Result, error) {
	if !inv.handle.IsConfigured() {
		return Result{}, ErrMisconfigured
	}

	comp, err := inv.handle.client.Complete(ctx, inv.Prompt(question), inv.params)
	if err != nil {
		return Result{}, err
	}

	result := Extract(comp)
	if result.Degraded {
		inv.logger.Error("Couldn't extract choice text from completion response",
			zap.String("raw", result.Text),
		)
	}
	return result, nil
}

// Extract takes the first choice's text, trimmed. Without one it falls back to
// the stringified raw response and marks the result degraded.
func Extract(comp *provider.Completion) Result {
	if comp != nil && len(comp.Choices) > 0 && comp.Choices[0].Text != nil {
		return Result{Text: strings.TrimSpace(*comp.Choices[0].Text)}
	}

	var raw interface{}
	if comp != nil {
		raw = comp.Raw
	}
	return Result{Text: fmt.Sprintf("%+v", raw), Degraded: true}
}
