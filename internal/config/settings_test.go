package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armatrix/claude-agent-runtime/permission"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSettings_SingleFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "settings.jsonc", `{
		// model used by new sessions
		"model": "claude-sonnet-4-5",
		"maxTurns": 10,
		"maxBudgetUSD": 5.0, /* trailing comma below */
		"allowedTools": ["Read", "Write"],
	}`)

	result, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-5", result.Model)
	assert.Equal(t, 10, result.MaxTurns)
	assert.Equal(t, 5.0, result.MaxBudgetUSD)
	assert.Equal(t, []string{"Read", "Write"}, result.AllowedTools)
}

func TestLoadSettings_MergeOrder(t *testing.T) {
	dir := t.TempDir()
	userPath := writeFile(t, dir, "user.json", `{"model": "claude-haiku-4-5", "maxTurns": 5}`)
	projPath := writeFile(t, dir, "project.json", `{"model": "claude-sonnet-4-5", "systemPrompt": "Be helpful"}`)

	result, err := LoadSettings(userPath, projPath)
	require.NoError(t, err)

	assert.Equal(t, "claude-sonnet-4-5", result.Model, "project should override user")
	assert.Equal(t, 5, result.MaxTurns, "user value preserved when project doesn't set it")
	assert.Equal(t, "Be helpful", result.SystemPrompt)
}

func TestLoadSettings_EmptyToolListOverrides(t *testing.T) {
	dir := t.TempDir()
	userPath := writeFile(t, dir, "user.json", `{"allowedTools": ["Read"]}`)
	projPath := writeFile(t, dir, "project.json", `{"allowedTools": []}`)

	result, err := LoadSettings(userPath, projPath)
	require.NoError(t, err)
	assert.NotNil(t, result.AllowedTools)
	assert.Empty(t, result.AllowedTools)
}

func TestLoadSettings_PermissionRules(t *testing.T) {
	path := writeFile(t, t.TempDir(), "settings.json", `{
		"permissionMode": "plan",
		"permissions": [{"pattern": "Web*", "decision": "deny"}]
	}`)

	result, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "plan", result.PermissionMode)
	require.Len(t, result.Permissions, 1)
	assert.Equal(t, permission.Rule{Pattern: "Web*", Decision: permission.Deny}, result.Permissions[0])
}

func TestLoadSettings_MissingFileSkipped(t *testing.T) {
	result, err := LoadSettings("/nonexistent/path.json")
	require.NoError(t, err)
	assert.Equal(t, "", result.Model)
}

func TestLoadSettings_InvalidJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.json", `{"model": `)

	_, err := LoadSettings(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.json")
}

func TestResolvedSystemPrompt(t *testing.T) {
	s := &Settings{SystemPromptPreset: "researcher"}
	assert.Equal(t, Presets["researcher"], s.ResolvedSystemPrompt())

	s.SystemPrompt = "explicit"
	assert.Equal(t, "explicit", s.ResolvedSystemPrompt())

	assert.Empty(t, (&Settings{SystemPromptPreset: "missing"}).ResolvedSystemPrompt())
}

func TestDefaultSettingsPaths(t *testing.T) {
	paths := DefaultSettingsPaths("/work/project")
	assert.Contains(t, paths, filepath.Join("/work/project", ".agentd", "settings.jsonc"))
	assert.Contains(t, paths, filepath.Join("/work/project", ".agentd", "settings.local.jsonc"))
}
