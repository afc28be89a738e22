package tools

import (
	agent "github.com/armatrix/claude-agent-runtime"
	"github.com/armatrix/claude-agent-runtime/provider"
)

// Options selects optional backends for the built-in tools.
type Options struct {
	// Search backs the WebSearch tool locally. When nil, WebSearch is
	// executed by the model provider.
	Search SearchFunc
}

// RegisterDefaults registers Read, Glob, Write and WebSearch into registry.
func RegisterDefaults(registry *agent.ToolRegistry, opts Options) {
	agent.RegisterTool(registry, &ReadTool{}, agent.WithReadOnly())
	agent.RegisterTool(registry, &GlobTool{}, agent.WithReadOnly())
	agent.RegisterTool(registry, &WriteTool{})
	RegisterWebSearch(registry, opts.Search)
}

// RegisterWebSearch registers the WebSearch tool. A nil search registers the
// provider's server-side web search.
func RegisterWebSearch(registry *agent.ToolRegistry, search SearchFunc) {
	if search == nil {
		registry.RegisterProviderTool(webSearchName, webSearchDescription, provider.WebSearchType)
		return
	}
	agent.RegisterTool(registry, &WebSearchTool{Search: search}, agent.WithReadOnly())
}
