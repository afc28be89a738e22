package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armatrix/claude-agent-runtime/provider"
)

// --- Mock Tool ---

type readInput struct {
	Path   string `json:"path" jsonschema:"required,description=Path relative to the session workspace"`
	Offset *int   `json:"offset,omitempty" jsonschema:"description=Line offset"`
}

type mockReadTool struct{}

func (t *mockReadTool) Name() string        { return "Read" }
func (t *mockReadTool) Description() string { return "Read a file from the workspace" }

func (t *mockReadTool) Execute(_ context.Context, input readInput) (*ToolResult, error) {
	if input.Path == "missing.txt" {
		return nil, errors.New("open missing.txt: no such file or directory")
	}
	return TextResult("content of " + input.Path), nil
}

func echoHandler(content string) ToolHandler {
	return ToolHandlerFunc(func(context.Context, json.RawMessage) (*ToolResult, error) {
		return TextResult(content), nil
	})
}

// --- Tests ---

func TestRegisterAndExecuteTool(t *testing.T) {
	registry := NewToolRegistry()
	RegisterTool[readInput](registry, &mockReadTool{}, WithReadOnly())

	content, isError, err := registry.Execute(context.Background(), "Read", json.RawMessage(`{"path": "notes.md"}`))

	require.NoError(t, err)
	assert.False(t, isError)
	assert.Equal(t, "content of notes.md", content)
	assert.True(t, registry.IsReadOnly("Read"))
}

func TestExecuteWithInvalidJSON(t *testing.T) {
	registry := NewToolRegistry()
	RegisterTool[readInput](registry, &mockReadTool{})

	content, isError, err := registry.Execute(context.Background(), "Read", json.RawMessage(`{invalid json}`))

	require.NoError(t, err, "invalid JSON should not return Go error, but tool error")
	assert.True(t, isError)
	assert.True(t, strings.HasPrefix(content, "Error:"))
	assert.Contains(t, content, "invalid input")
}

func TestExecuteHandlerErrorBecomesResult(t *testing.T) {
	registry := NewToolRegistry()
	RegisterTool[readInput](registry, &mockReadTool{})

	content, isError, err := registry.Execute(context.Background(), "Read", json.RawMessage(`{"path": "missing.txt"}`))

	require.NoError(t, err)
	assert.True(t, isError)
	assert.Equal(t, "Error: open missing.txt: no such file or directory", content)
}

func TestExecuteErrorResultPrefixedOnce(t *testing.T) {
	registry := NewToolRegistry()
	registry.Register("A", "", provider.InputSchema{}, ToolHandlerFunc(func(context.Context, json.RawMessage) (*ToolResult, error) {
		return ErrorResult("Error: already prefixed"), nil
	}))
	registry.Register("B", "", provider.InputSchema{}, ToolHandlerFunc(func(context.Context, json.RawMessage) (*ToolResult, error) {
		return &ToolResult{Content: "raw failure", IsError: true}, nil
	}))

	a, _, _ := registry.Execute(context.Background(), "A", nil)
	b, _, _ := registry.Execute(context.Background(), "B", nil)
	assert.Equal(t, "Error: already prefixed", a)
	assert.Equal(t, "Error: raw failure", b)
}

func TestExecuteRecoversPanic(t *testing.T) {
	registry := NewToolRegistry()
	registry.Register("Boom", "", provider.InputSchema{}, ToolHandlerFunc(func(context.Context, json.RawMessage) (*ToolResult, error) {
		panic("nil map write")
	}))

	content, isError, err := registry.Execute(context.Background(), "Boom", nil)

	require.NoError(t, err)
	assert.True(t, isError)
	assert.Contains(t, content, "panicked: nil map write")
}

func TestExecuteToolNotFound(t *testing.T) {
	registry := NewToolRegistry()

	_, _, err := registry.Execute(context.Background(), "NonExistent", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTool)
	assert.Contains(t, err.Error(), "NonExistent")
}

func TestExecuteProviderToolHasNoHandler(t *testing.T) {
	registry := NewToolRegistry()
	registry.RegisterProviderTool("WebSearch", "Search the web", "web_search_20250305")

	_, _, err := registry.Execute(context.Background(), "WebSearch", nil)
	assert.ErrorIs(t, err, ErrUnknownTool)
	assert.True(t, registry.ProviderExecuted("WebSearch"))
	assert.True(t, registry.IsReadOnly("WebSearch"))
}

func TestDefinitionsFor(t *testing.T) {
	registry := NewToolRegistry()
	RegisterTool[readInput](registry, &mockReadTool{})
	registry.Register("Write", "Write a file", provider.InputSchema{}, echoHandler("ok"))
	registry.RegisterProviderTool("WebSearch", "Search the web", "web_search_20250305")

	defs := registry.DefinitionsFor([]string{"WebSearch", "Stale", "Read", "Read"})
	require.Len(t, defs, 2, "unknown and duplicate names are dropped")

	assert.Equal(t, "WebSearch", defs[0].Name)
	assert.True(t, defs[0].ProviderExecuted())

	assert.Equal(t, "Read", defs[1].Name)
	assert.Equal(t, "Read a file from the workspace", defs[1].Description)
	assert.Contains(t, defs[1].InputSchema.Properties, "path")
	assert.Equal(t, []string{"path"}, defs[1].InputSchema.Required)

	assert.Empty(t, registry.DefinitionsFor(nil))
}

func TestRegisterReplacesKeepsOrder(t *testing.T) {
	registry := NewToolRegistry()
	registry.Register("A", "first", provider.InputSchema{}, echoHandler("a1"))
	registry.Register("B", "", provider.InputSchema{}, echoHandler("b"))
	registry.Register("A", "second", provider.InputSchema{}, echoHandler("a2"))

	assert.Equal(t, []string{"A", "B"}, registry.Names())
	content, _, err := registry.Execute(context.Background(), "A", nil)
	require.NoError(t, err)
	assert.Equal(t, "a2", content)
	assert.True(t, registry.Has("B"))
	assert.False(t, registry.Has("C"))
}

func TestScopedToolsRejectsDisallowed(t *testing.T) {
	registry := NewToolRegistry()
	registry.Register("Write", "", provider.InputSchema{}, echoHandler("written"))
	registry.Register("Read", "", provider.InputSchema{}, echoHandler("read"))

	scoped := newScopedTools(registry, []string{"Read"})

	content, _, err := scoped.Execute(context.Background(), "Read", nil)
	require.NoError(t, err)
	assert.Equal(t, "read", content)

	_, _, err = scoped.Execute(context.Background(), "Write", nil)
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestScopedToolsRejectsProviderTools(t *testing.T) {
	registry := NewToolRegistry()
	registry.RegisterProviderTool("WebSearch", "Search the web", provider.WebSearchType)

	scoped := newScopedTools(registry, []string{"WebSearch"})
	_, _, err := scoped.Execute(context.Background(), "WebSearch", json.RawMessage(`{"query":"go"}`))
	require.ErrorIs(t, err, ErrUnknownTool)
	assert.Contains(t, err.Error(), "executed by the provider")
}
