package agent

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armatrix/claude-agent-runtime/internal/config"
	"github.com/armatrix/claude-agent-runtime/permission"
)

func TestResolveOptionsDefaults(t *testing.T) {
	opts := resolveOptions(nil)

	assert.Equal(t, DefaultModel, opts.model)
	assert.Equal(t, config.Presets[DefaultSystemPromptPreset], opts.systemPrompt)
	assert.Equal(t, DefaultAllowedTools, opts.allowedTools)
	assert.Equal(t, permission.ModeDefault, opts.permissionMode)
	assert.Equal(t, DefaultMaxTurns, opts.maxTurns)
	assert.Equal(t, DefaultMaxOutputTokens, opts.maxOutputTokens)
	assert.Equal(t, DefaultStreamBufferSize, opts.streamBufferSize)
	assert.Equal(t, DefaultSaveRetries, opts.saveRetries)
	assert.Equal(t, DefaultSaveRetryInterval, opts.saveRetryInterval)
	assert.True(t, opts.maxBudget.IsZero())
	require.NotNil(t, opts.logger)
}

func TestWithOptions(t *testing.T) {
	opts := resolveOptions([]AgentOption{
		WithModel("claude-haiku-4-5"),
		WithSystemPrompt("be brief"),
		WithMaxTurns(4),
		WithMaxOutputTokens(1024),
		WithBudget(decimal.NewFromFloat(1.5)),
		WithPermissionMode(permission.ModeAcceptEdits),
		WithStreamBufferSize(8),
		WithStorageRoot("/srv/sessions"),
		WithSaveRetry(5, time.Millisecond),
	})

	assert.Equal(t, "claude-haiku-4-5", opts.model)
	assert.Equal(t, "be brief", opts.systemPrompt)
	assert.Equal(t, 4, opts.maxTurns)
	assert.Equal(t, 1024, opts.maxOutputTokens)
	assert.True(t, opts.maxBudget.Equal(decimal.NewFromFloat(1.5)))
	assert.Equal(t, permission.ModeAcceptEdits, opts.permissionMode)
	assert.Equal(t, 8, opts.streamBufferSize)
	assert.Equal(t, "/srv/sessions", opts.storageRoot)
	assert.Equal(t, 5, opts.saveRetries)
	assert.Equal(t, time.Millisecond, opts.saveRetryInterval)
}

func TestWithAllowedToolsEmpty(t *testing.T) {
	opts := resolveOptions([]AgentOption{WithAllowedTools()})
	assert.NotNil(t, opts.allowedTools)
	assert.Empty(t, opts.allowedTools)
}

func TestWithSaveRetryZero(t *testing.T) {
	opts := resolveOptions([]AgentOption{WithSaveRetry(0, time.Millisecond)})
	assert.Equal(t, 0, opts.saveRetries, "explicit zero is kept")

	opts = resolveOptions([]AgentOption{WithSaveRetry(-3, time.Millisecond)})
	assert.Equal(t, 0, opts.saveRetries)
}

func TestSettingsFilesFillUnsetOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{
		// shared team defaults
		"model": "claude-opus-4-6",
		"maxTurns": 25,
		"systemPromptPreset": "researcher",
		"allowedTools": ["WebSearch"],
		"permissionMode": "plan",
		"permissions": [{"pattern": "Write", "decision": "deny"}],
	}`), 0o644))

	opts := resolveOptions([]AgentOption{
		WithSettingsFiles(path),
		WithMaxTurns(3),
	})

	assert.Equal(t, "claude-opus-4-6", opts.model)
	assert.Equal(t, 3, opts.maxTurns, "explicit option wins over settings")
	assert.Equal(t, config.Presets["researcher"], opts.systemPrompt)
	assert.Equal(t, []string{"WebSearch"}, opts.allowedTools)
	assert.Equal(t, permission.ModePlan, opts.permissionMode)
	assert.Equal(t, []permission.Rule{{Pattern: "Write", Decision: permission.Deny}}, opts.permissionRules)
	assert.Empty(t, opts.warnings)
}

func TestEnvOverridesSettings(t *testing.T) {
	t.Setenv(config.EnvModel, "claude-haiku-4-5")
	t.Setenv(config.EnvMaxTurns, "6")

	opts := resolveOptions(nil)
	assert.Equal(t, "claude-haiku-4-5", opts.model)
	assert.Equal(t, 6, opts.maxTurns)

	opts = resolveOptions([]AgentOption{WithModel("claude-opus-4-6")})
	assert.Equal(t, "claude-opus-4-6", opts.model)
}

func TestInvalidSettingsAreLogged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"permissionMode": "yolo"}`), 0o644))

	var buf bytes.Buffer
	a := NewAgent(
		WithSettingsFiles(path),
		WithLogger(zerolog.New(&buf)),
	)

	assert.Equal(t, permission.ModeDefault, a.opts.permissionMode)
	assert.Contains(t, buf.String(), "ignoring settings")
	assert.Contains(t, buf.String(), "yolo")
}
