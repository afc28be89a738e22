package agent

import (
	"time"

	"github.com/armatrix/claude-agent-runtime/permission"
)

// Session and runtime defaults.
const (
	// DefaultModel is used when neither the session nor the agent names one.
	DefaultModel = "claude-sonnet-4-5"

	// DefaultMaxTurns bounds the model invocations of one run.
	DefaultMaxTurns = 10

	// DefaultPermissionMode is the permission mode of a fresh session.
	DefaultPermissionMode = permission.ModeDefault

	// DefaultMaxOutputTokens is the default maximum output tokens per response.
	DefaultMaxOutputTokens = 16_384

	// DefaultStreamBufferSize is the default channel buffer size for streaming events.
	DefaultStreamBufferSize = 64

	// DefaultSystemPromptPreset names the preset used when a session is
	// initialized without a system prompt.
	DefaultSystemPromptPreset = "assistant"

	// DefaultSaveRetries is how many times a failed session save is retried.
	DefaultSaveRetries = 3

	// DefaultSaveRetryInterval is the first backoff interval between save retries.
	DefaultSaveRetryInterval = 100 * time.Millisecond
)

// DefaultAllowedTools is the tool set of a session initialized without one.
// Both tools are read-only.
var DefaultAllowedTools = []string{"Read", "Glob"}
