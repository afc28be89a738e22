package agent

import (
	"errors"

	"github.com/armatrix/claude-agent-runtime/internal/engine"
)

// Sentinel errors returned by the runtime, the session actor and the tool
// registry. Match them with errors.Is.
var (
	ErrSessionNotInitialized = errors.New("agent: session not initialized")
	ErrSessionNotFound       = errors.New("agent: session not found")
	ErrUnknownTool           = errors.New("agent: unknown tool")
	ErrNoProvider            = errors.New("agent: no provider configured")
	ErrStorage               = errors.New("agent: storage failure")
	ErrInvalidConfig         = errors.New("agent: invalid session config")
	ErrNoSessionStore        = errors.New("agent: no session store configured")
	ErrAborted               = errors.New("agent: run aborted")

	// ErrProviderCall wraps a failed model invocation. It ends the run.
	ErrProviderCall = engine.ErrProviderCall
)
