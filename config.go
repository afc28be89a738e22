package agent

import (
	"fmt"

	"github.com/armatrix/claude-agent-runtime/permission"
)

// SessionConfig is the per-session configuration fixed at initialization.
//
// A nil AllowedTools means "use the default tool set"; an empty non-nil slice
// means the session has no tools. Zero MaxTurns and an empty PermissionMode,
// SystemPrompt or Model fall back to the agent defaults.
type SessionConfig struct {
	SystemPrompt   string          `json:"systemPrompt,omitempty"`
	AllowedTools   []string        `json:"allowedTools,omitempty"`
	PermissionMode permission.Mode `json:"permissionMode,omitempty"`
	MaxTurns       int             `json:"maxTurns,omitempty"`
	Model          string          `json:"model,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
}

// sessionDefaults are the values a partial SessionConfig is merged over.
type sessionDefaults struct {
	systemPrompt   string
	allowedTools   []string
	permissionMode permission.Mode
	maxTurns       int
	model          string
}

// merge returns c with every unset field taken from d. Tool names are
// deduplicated, keeping first occurrence order.
func (c SessionConfig) merge(d sessionDefaults) SessionConfig {
	out := c
	if out.SystemPrompt == "" {
		out.SystemPrompt = d.systemPrompt
	}
	if out.AllowedTools == nil {
		out.AllowedTools = append([]string(nil), d.allowedTools...)
	}
	out.AllowedTools = dedupe(out.AllowedTools)
	if out.PermissionMode == "" {
		out.PermissionMode = d.permissionMode
	}
	if out.MaxTurns == 0 {
		out.MaxTurns = d.maxTurns
	}
	if out.Model == "" {
		out.Model = d.model
	}
	if c.Temperature != nil {
		t := *c.Temperature
		out.Temperature = &t
	}
	return out
}

// Validate checks a merged config.
func (c SessionConfig) Validate() error {
	if c.MaxTurns < 1 {
		return fmt.Errorf("%w: maxTurns must be at least 1, got %d", ErrInvalidConfig, c.MaxTurns)
	}
	if _, err := permission.ParseMode(string(c.PermissionMode)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 1) {
		return fmt.Errorf("%w: temperature must be within [0, 1], got %v", ErrInvalidConfig, *c.Temperature)
	}
	return nil
}

// Clone returns a deep copy.
func (c SessionConfig) Clone() SessionConfig {
	out := c
	if c.AllowedTools != nil {
		out.AllowedTools = append([]string(nil), c.AllowedTools...)
	}
	if c.Temperature != nil {
		t := *c.Temperature
		out.Temperature = &t
	}
	return out
}

func dedupe(names []string) []string {
	if names == nil {
		return nil
	}
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
