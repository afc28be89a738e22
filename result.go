package agent

import (
	"github.com/shopspring/decimal"

	"github.com/armatrix/claude-agent-runtime/message"
)

// RunResult is the outcome of a batch Run.
type RunResult struct {
	Success bool   `json:"success"`
	Result  string `json:"result,omitempty"`
	// Messages is the session's full history after the run.
	Messages []message.ConversationMessage `json:"messages"`
	// Usage is the session's cumulative usage after the run.
	Usage message.TokenUsage `json:"usage"`
	Error string             `json:"error,omitempty"`

	SessionID  string          `json:"sessionId,omitempty"`
	StopReason string          `json:"stopReason,omitempty"`
	NumTurns   int             `json:"numTurns,omitempty"`
	TotalCost  decimal.Decimal `json:"totalCost"`
}
