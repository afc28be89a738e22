// Package config loads runtime settings from JSON-with-comments files and
// the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/armatrix/claude-agent-runtime/permission"
)

// Settings holds merged configuration from multiple sources.
// Later sources override earlier ones (user < project < env).
type Settings struct {
	Model              string            `json:"model,omitempty"`
	SystemPrompt       string            `json:"systemPrompt,omitempty"`
	SystemPromptPreset string            `json:"systemPromptPreset,omitempty"`
	MaxTurns           int               `json:"maxTurns,omitempty"`
	MaxOutputTokens    int               `json:"maxOutputTokens,omitempty"`
	MaxBudgetUSD       float64           `json:"maxBudgetUSD,omitempty"`
	AllowedTools       []string          `json:"allowedTools,omitempty"`
	PermissionMode     string            `json:"permissionMode,omitempty"`
	Permissions        []permission.Rule `json:"permissions,omitempty"`

	// StoreDir and LogLevel are consumed by the agentd binary.
	StoreDir string `json:"storeDir,omitempty"`
	LogLevel string `json:"logLevel,omitempty"`
}

// LoadSettings merges settings from multiple JSON or JSONC file paths.
// Later paths override earlier ones. Missing files are skipped; a file that
// exists but does not parse is an error.
func LoadSettings(paths ...string) (*Settings, error) {
	merged := &Settings{}

	for _, path := range paths {
		s, err := loadSettingsFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return merged, err
		}
		mergeSettings(merged, s)
	}

	return merged, nil
}

// DefaultSettingsPaths returns the standard settings file search paths.
func DefaultSettingsPaths(projectDir string) []string {
	home, _ := os.UserHomeDir()
	var paths []string

	if home != "" {
		paths = append(paths, filepath.Join(home, ".agentd", "settings.jsonc"))
	}
	if projectDir != "" {
		paths = append(paths,
			filepath.Join(projectDir, ".agentd", "settings.jsonc"),
			filepath.Join(projectDir, ".agentd", "settings.local.jsonc"),
		)
	}

	return paths
}

func loadSettingsFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Settings
	if err := json.Unmarshal(jsonc.ToJSON(data), &s); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return &s, nil
}

func mergeSettings(dst, src *Settings) {
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.SystemPrompt != "" {
		dst.SystemPrompt = src.SystemPrompt
	}
	if src.SystemPromptPreset != "" {
		dst.SystemPromptPreset = src.SystemPromptPreset
	}
	if src.MaxTurns > 0 {
		dst.MaxTurns = src.MaxTurns
	}
	if src.MaxOutputTokens > 0 {
		dst.MaxOutputTokens = src.MaxOutputTokens
	}
	if src.MaxBudgetUSD > 0 {
		dst.MaxBudgetUSD = src.MaxBudgetUSD
	}
	if src.AllowedTools != nil {
		dst.AllowedTools = src.AllowedTools
	}
	if src.PermissionMode != "" {
		dst.PermissionMode = src.PermissionMode
	}
	if len(src.Permissions) > 0 {
		dst.Permissions = append(dst.Permissions, src.Permissions...)
	}
	if src.StoreDir != "" {
		dst.StoreDir = src.StoreDir
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
}

// ResolvedSystemPrompt returns the explicit system prompt, or the named
// preset's text.
func (s *Settings) ResolvedSystemPrompt() string {
	if s.SystemPrompt != "" {
		return s.SystemPrompt
	}
	if s.SystemPromptPreset != "" {
		p, _ := GetPreset(s.SystemPromptPreset)
		return p
	}
	return ""
}
