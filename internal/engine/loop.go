// Package engine implements the turn loop: repeated model calls and local
// tool executions against one session's message history until a stop
// condition is met.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/armatrix/claude-agent-runtime/message"
	"github.com/armatrix/claude-agent-runtime/permission"
	"github.com/armatrix/claude-agent-runtime/provider"
)

// ErrProviderCall marks a failed model invocation. It is fatal to the run.
var ErrProviderCall = errors.New("agent: provider call failed")

// Loop-level stop reasons. Natural ends report the provider's own reason.
const (
	StopMaxTurns        = "max_turns"
	StopBudgetExhausted = "budget_exhausted"
)

// ToolExecutor executes a tool by name with raw JSON input. A non-nil error
// means the tool could not be dispatched at all (e.g. unknown name); tool
// failures are reported through content and isError.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, input json.RawMessage) (content string, isError bool, err error)
}

// EventSink receives events from the loop in production order. The loop calls
// these methods instead of importing root package event types, breaking the
// import cycle.
type EventSink interface {
	OnAssistant(text string)
	OnToolUse(id, name string, input json.RawMessage, providerExecuted bool)
	OnToolResult(toolUseID, name, content string, isError, providerExecuted bool)
}

// SessionWriter is the loop's view of the session being driven. The session
// owner implements it; the loop never touches session state directly.
type SessionWriter interface {
	// Messages returns the history to send with the next model call.
	Messages() []message.ConversationMessage
	Append(msgs ...message.ConversationMessage)
	RecordUsage(usage message.TokenUsage, cost decimal.Decimal)
	// Checkpoint durably persists the session. An error is fatal to the run.
	Checkpoint(ctx context.Context) error
}

// BudgetChecker prices usage and enforces a spending limit. Nil means no
// pricing and no limit.
type BudgetChecker interface {
	RecordUsage(model string, usage message.TokenUsage) decimal.Decimal
	Exhausted() bool
	Remaining() decimal.Decimal
}

// PermissionChecker evaluates whether a tool is allowed to execute.
// Nil means all tools are allowed.
type PermissionChecker interface {
	Check(ctx context.Context, toolName string, input json.RawMessage) (permission.Decision, error)
}

// LoopConfig holds everything the turn loop needs to execute.
type LoopConfig struct {
	Provider provider.Provider
	Tools    ToolExecutor

	// Definitions is the capability list advertised to the model.
	Definitions []provider.ToolDefinition

	Model        string
	SystemPrompt string
	Temperature  *float64
	MaxTokens    int
	MaxTurns     int

	Session    SessionWriter
	Sink       EventSink
	Budget     BudgetChecker
	Permission PermissionChecker
	Logger     zerolog.Logger
}

// Outcome summarizes one loop invocation.
type Outcome struct {
	// Result is the latest text the model produced.
	Result     string
	StopReason string
	// Turns is the number of model invocations made.
	Turns int
	// Usage is the token usage of this invocation only.
	Usage message.TokenUsage
	Cost  decimal.Decimal
	Err   error
}

// RunLoop drives the model-call/tool-execution cycle until the model ends its
// response without requesting local tools, the turn budget or cost budget is
// exhausted, or a fatal error occurs. It runs in the calling goroutine.
func RunLoop(ctx context.Context, cfg LoopConfig) Outcome {
	out := Outcome{Cost: decimal.Zero}
	log := cfg.Logger

	for {
		if cfg.MaxTurns > 0 && out.Turns >= cfg.MaxTurns {
			out.StopReason = StopMaxTurns
			return out
		}
		if err := ctx.Err(); err != nil {
			out.Err = err
			return out
		}

		resp, err := cfg.Provider.Call(ctx, provider.Request{
			Model:        cfg.Model,
			SystemPrompt: cfg.SystemPrompt,
			Messages:     cfg.Session.Messages(),
			Tools:        cfg.Definitions,
			Temperature:  cfg.Temperature,
			MaxTokens:    cfg.MaxTokens,
		})
		out.Turns++
		if err != nil {
			if ctx.Err() != nil {
				out.Err = ctx.Err()
			} else {
				out.Err = fmt.Errorf("%w: %w", ErrProviderCall, err)
			}
			return out
		}

		model := resp.Model
		if model == "" {
			model = cfg.Model
		}
		cost := decimal.Zero
		if cfg.Budget != nil {
			cost = cfg.Budget.RecordUsage(model, resp.Usage)
		}
		out.Usage = out.Usage.Add(resp.Usage)
		out.Cost = out.Cost.Add(cost)
		cfg.Session.RecordUsage(resp.Usage, cost)

		uses := classify(cfg.Sink, resp.Content, &out)
		// An empty reply leaves no assistant turn; the provider rejects
		// replayed turns without content.
		if len(resp.Content) > 0 {
			cfg.Session.Append(message.NewAssistant(resp.Content...))
		}

		log.Debug().
			Int("turn", out.Turns).
			Str("stop_reason", string(resp.StopReason)).
			Int("tool_uses", len(uses)).
			Int64("input_tokens", resp.Usage.InputTokens).
			Int64("output_tokens", resp.Usage.OutputTokens).
			Msg("model turn")

		if len(uses) > 0 {
			results := executeTools(ctx, cfg, uses)
			cfg.Session.Append(message.NewToolResults(results...))
		}

		if len(uses) == 0 && isTerminal(resp.StopReason) {
			out.StopReason = string(resp.StopReason)
			return out
		}

		if err := cfg.Session.Checkpoint(ctx); err != nil {
			out.Err = err
			return out
		}
		if err := ctx.Err(); err != nil {
			out.Err = err
			return out
		}

		if cfg.Budget != nil && cfg.Budget.Exhausted() {
			log.Info().
				Str("cost", out.Cost.String()).
				Str("remaining", cfg.Budget.Remaining().String()).
				Int("turn", out.Turns).
				Msg("budget exhausted")
			out.StopReason = StopBudgetExhausted
			return out
		}
	}
}

// isTerminal reports whether a response without local tool use ends the run.
// A refusal will not change on retry, so it ends the run like a natural end.
func isTerminal(r provider.StopReason) bool {
	return r.IsNaturalEnd() || r == provider.StopRefusal
}

// classify emits events for the response content in order and returns the
// tool uses the local dispatcher must execute.
func classify(sink EventSink, blocks message.Blocks, out *Outcome) []message.ToolUseBlock {
	var uses []message.ToolUseBlock
	names := make(map[string]string)

	for _, b := range blocks {
		switch v := b.(type) {
		case message.TextBlock:
			sink.OnAssistant(v.Text)
			out.Result = v.Text
		case message.ToolUseBlock:
			sink.OnToolUse(v.ID, v.Name, v.Input, false)
			uses = append(uses, v)
		case message.ProviderToolUseBlock:
			names[v.ID] = v.Name
			sink.OnToolUse(v.ID, v.Name, v.Input, true)
		case message.ProviderToolResultBlock:
			name := v.Name
			if name == "" {
				name = names[v.ToolUseID]
			}
			sink.OnToolResult(v.ToolUseID, name, string(v.Content), false, true)
		case message.ToolResultBlock:
			// models do not emit tool results
		}
	}
	return uses
}

// executeTools runs each tool use in request order and returns exactly one
// result per use. Failures become Error: results; they never abort the loop.
func executeTools(ctx context.Context, cfg LoopConfig, uses []message.ToolUseBlock) []message.ToolResultBlock {
	results := make([]message.ToolResultBlock, 0, len(uses))

	for _, use := range uses {
		content, isError := executeOne(ctx, cfg, use)
		if isError {
			cfg.Logger.Debug().Str("tool", use.Name).Str("tool_use_id", use.ID).Str("result", content).Msg("tool failed")
		}
		cfg.Sink.OnToolResult(use.ID, use.Name, content, isError, false)
		results = append(results, message.ToolResultBlock{
			ToolUseID: use.ID,
			Content:   content,
			IsError:   isError,
		})
	}
	return results
}

func executeOne(ctx context.Context, cfg LoopConfig, use message.ToolUseBlock) (string, bool) {
	if err := ctx.Err(); err != nil {
		return fmt.Sprintf("Error: %s not run: %v", use.Name, err), true
	}

	input := use.Input
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}

	if cfg.Permission != nil {
		decision, err := cfg.Permission.Check(ctx, use.Name, input)
		if err != nil {
			return fmt.Sprintf("Error: permission check for %s failed: %v", use.Name, err), true
		}
		if decision == permission.Deny {
			return fmt.Sprintf("Error: permission denied for tool %s", use.Name), true
		}
		// Ask with nobody to ask proceeds.
	}

	content, isError, err := cfg.Tools.Execute(ctx, use.Name, input)
	if err != nil {
		return "Error: " + err.Error(), true
	}
	return content, isError
}
