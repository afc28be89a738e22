// Package provider defines the language-model provider boundary used by the
// turn loop, and an implementation backed by the Anthropic Messages API.
package provider

import (
	"context"

	"github.com/armatrix/claude-agent-runtime/message"
)

// StopReason is the provider's signal for why a response ended.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopSequence  StopReason = "stop_sequence"
	StopToolUse   StopReason = "tool_use"
	StopMaxTokens StopReason = "max_tokens"
	StopPauseTurn StopReason = "pause_turn"
	StopRefusal   StopReason = "refusal"
)

// IsNaturalEnd reports whether the model finished its response on its own,
// as opposed to being truncated, paused or refused.
func (r StopReason) IsNaturalEnd() bool {
	return r == StopEndTurn || r == StopSequence
}

// InputSchema is the JSON Schema of a tool's input object.
type InputSchema struct {
	Properties map[string]any `json:"properties,omitempty"`
	Required   []string       `json:"required,omitempty"`
}

// ToolDefinition is the capability descriptor advertised to the model.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"input_schema"`

	// ProviderType names a provider built-in tool (e.g. "web_search_20250305").
	// Non-empty means the provider executes the tool itself.
	ProviderType string `json:"provider_type,omitempty"`
}

// ProviderExecuted reports whether the provider performs the tool's side effect.
func (d ToolDefinition) ProviderExecuted() bool {
	return d.ProviderType != ""
}

// Request is one model invocation.
type Request struct {
	Model        string
	SystemPrompt string
	Messages     []message.ConversationMessage
	Tools        []ToolDefinition
	Temperature  *float64
	MaxTokens    int
}

// Response is the model's reply to one Request.
type Response struct {
	Content    message.Blocks
	StopReason StopReason
	Usage      message.TokenUsage
	Model      string
}

// Provider calls a language model.
type Provider interface {
	Call(ctx context.Context, req Request) (*Response, error)
}

// Func adapts a plain function to the Provider interface.
type Func func(ctx context.Context, req Request) (*Response, error)

func (f Func) Call(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
