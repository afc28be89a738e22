package agent

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/armatrix/claude-agent-runtime/message"
)

// EventType identifies the kind of event emitted by an AgentStream.
type EventType string

const (
	EventSystem     EventType = "system"
	EventAssistant  EventType = "assistant"
	EventToolUse    EventType = "tool_use"
	EventToolResult EventType = "tool_result"
	EventDone       EventType = "done"
	EventError      EventType = "error"
)

// Event is the interface implemented by all events emitted through AgentStream.
type Event interface {
	Type() EventType
	// ToWire flattens the event into its transport representation.
	ToWire() WireEvent
}

// SystemEvent is emitted once at the start of a run.
type SystemEvent struct {
	SessionID string
	Model     string
}

func (e *SystemEvent) Type() EventType { return EventSystem }

func (e *SystemEvent) ToWire() WireEvent {
	return WireEvent{Type: EventSystem, SessionID: e.SessionID, Model: e.Model}
}

// AssistantEvent carries one text block produced by the model.
type AssistantEvent struct {
	Text string
}

func (e *AssistantEvent) Type() EventType { return EventAssistant }

func (e *AssistantEvent) ToWire() WireEvent {
	return WireEvent{Type: EventAssistant, Content: e.Text}
}

// ToolUseEvent is emitted for every tool invocation the model requests,
// including those the provider executes itself.
type ToolUseEvent struct {
	ToolUseID        string
	ToolName         string
	Input            json.RawMessage
	ProviderExecuted bool
}

func (e *ToolUseEvent) Type() EventType { return EventToolUse }

func (e *ToolUseEvent) ToWire() WireEvent {
	return WireEvent{
		Type:             EventToolUse,
		ToolName:         e.ToolName,
		ToolInput:        e.Input,
		ToolUseID:        e.ToolUseID,
		ProviderExecuted: e.ProviderExecuted,
	}
}

// ToolResultEvent carries the result correlated to a ToolUseEvent.
type ToolResultEvent struct {
	ToolUseID        string
	ToolName         string
	Content          string
	IsError          bool
	ProviderExecuted bool
}

func (e *ToolResultEvent) Type() EventType { return EventToolResult }

func (e *ToolResultEvent) ToWire() WireEvent {
	return WireEvent{
		Type:             EventToolResult,
		ToolName:         e.ToolName,
		ToolResult:       e.Content,
		ToolUseID:        e.ToolUseID,
		IsError:          e.IsError,
		ProviderExecuted: e.ProviderExecuted,
	}
}

// DoneEvent is the terminal event of a successful run.
type DoneEvent struct {
	SessionID string
	// Result is the latest text the model produced.
	Result     string
	Usage      message.TokenUsage
	StopReason string
	NumTurns   int
	TotalCost  decimal.Decimal
	DurationMs int64

	// state is the session as this run left it, taken before the next
	// queued run could start.
	state *SessionState
}

func (e *DoneEvent) Type() EventType { return EventDone }

func (e *DoneEvent) ToWire() WireEvent {
	usage := e.Usage
	cost := e.TotalCost.String()
	return WireEvent{
		Type:       EventDone,
		Content:    e.Result,
		Usage:      &usage,
		SessionID:  e.SessionID,
		StopReason: e.StopReason,
		NumTurns:   e.NumTurns,
		TotalCost:  cost,
		DurationMs: e.DurationMs,
	}
}

// ErrorEvent is the terminal event of a failed run.
type ErrorEvent struct {
	SessionID string
	Err       error
	// Usage is whatever was consumed before the failure.
	Usage message.TokenUsage

	state *SessionState
}

func (e *ErrorEvent) Type() EventType { return EventError }

func (e *ErrorEvent) ToWire() WireEvent {
	w := WireEvent{Type: EventError, SessionID: e.SessionID}
	if e.Err != nil {
		w.Content = e.Err.Error()
	}
	if !e.Usage.IsZero() {
		usage := e.Usage
		w.Usage = &usage
	}
	return w
}

// WireEvent is the flat transport shape of every event.
type WireEvent struct {
	Type       EventType           `json:"type"`
	Content    string              `json:"content,omitempty"`
	ToolName   string              `json:"toolName,omitempty"`
	ToolInput  json.RawMessage     `json:"toolInput,omitempty"`
	ToolResult string              `json:"toolResult,omitempty"`
	ToolUseID  string              `json:"toolUseId,omitempty"`
	Usage      *message.TokenUsage `json:"usage,omitempty"`

	IsError          bool   `json:"isError,omitempty"`
	ProviderExecuted bool   `json:"providerExecuted,omitempty"`
	SessionID        string `json:"sessionId,omitempty"`
	Model            string `json:"model,omitempty"`
	StopReason       string `json:"stopReason,omitempty"`
	NumTurns         int    `json:"numTurns,omitempty"`
	TotalCost        string `json:"totalCost,omitempty"`
	DurationMs       int64  `json:"durationMs,omitempty"`
}
