package session_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agent "github.com/armatrix/claude-agent-runtime"
	"github.com/armatrix/claude-agent-runtime/message"
	"github.com/armatrix/claude-agent-runtime/provider"
	"github.com/armatrix/claude-agent-runtime/session"
)

func TestFileStore_SessionSurvivesRestart(t *testing.T) {
	dir := tempDir(t)
	ctx := context.Background()

	calls := 0
	p := provider.Func(func(_ context.Context, req provider.Request) (*provider.Response, error) {
		calls++
		if calls == 1 {
			return &provider.Response{
				Content: message.Blocks{message.ToolUseBlock{
					ID: "tu_1", Name: "Echo", Input: json.RawMessage(`{}`),
				}},
				StopReason: provider.StopToolUse,
				Usage:      message.TokenUsage{InputTokens: 10, OutputTokens: 2},
			}, nil
		}
		return &provider.Response{
			Content:    message.Blocks{message.TextBlock{Text: fmt.Sprintf("saw %d messages", len(req.Messages))}},
			StopReason: provider.StopEndTurn,
			Usage:      message.TokenUsage{InputTokens: 20, OutputTokens: 4},
		}, nil
	})

	newAgent := func() *agent.Agent {
		store, err := session.NewFileStore(dir)
		require.NoError(t, err)
		a := agent.NewAgent(agent.WithProvider(p), agent.WithSessionStore(store))
		a.Tools().Register("Echo", "Echo", provider.InputSchema{}, agent.ToolHandlerFunc(
			func(context.Context, json.RawMessage) (*agent.ToolResult, error) {
				return agent.TextResult("echo"), nil
			}), agent.WithReadOnly())
		return a
	}

	first := newAgent()
	state, err := first.Initialize(ctx, agent.SessionConfig{AllowedTools: []string{"Echo"}}, "restart-1")
	require.NoError(t, err)

	res := first.Session(state.ID).Run(ctx, "hello")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "saw 3 messages", res.Result)

	second := newAgent()
	reloaded, err := second.Session("restart-1").State(ctx)
	require.NoError(t, err)

	assert.Equal(t, agent.StatusCompleted, reloaded.Status)
	assert.Len(t, reloaded.Messages, 4)
	assert.Equal(t, message.TokenUsage{InputTokens: 30, OutputTokens: 6}, reloaded.Usage)
	assert.Equal(t, []string{"Echo"}, reloaded.Config.AllowedTools)
}
