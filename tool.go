package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/armatrix/claude-agent-runtime/internal/schema"
	"github.com/armatrix/claude-agent-runtime/provider"
)

// Tool is the generic interface for agent tools. The type parameter T defines
// the input struct that will be automatically deserialized from JSON.
type Tool[T any] interface {
	Name() string
	Description() string
	Execute(ctx context.Context, input T) (*ToolResult, error)
}

// ToolResult is the output of a tool execution.
type ToolResult struct {
	Content  string
	IsError  bool
	Metadata map[string]any
}

// TextResult is a convenience constructor for a text tool result.
func TextResult(text string) *ToolResult {
	return &ToolResult{Content: text}
}

// ErrorResult is a convenience constructor for an error tool result. The
// content always carries the "Error:" prefix.
func ErrorResult(text string) *ToolResult {
	return &ToolResult{Content: errorText(text), IsError: true}
}

func errorText(text string) string {
	if strings.HasPrefix(text, "Error:") {
		return text
	}
	return "Error: " + text
}

// ToolHandler executes a tool against raw JSON input. Handlers report
// expected failures through an error ToolResult; a returned error is turned
// into one by the registry.
type ToolHandler interface {
	Execute(ctx context.Context, input json.RawMessage) (*ToolResult, error)
}

// ToolHandlerFunc adapts a function to ToolHandler.
type ToolHandlerFunc func(ctx context.Context, input json.RawMessage) (*ToolResult, error)

func (f ToolHandlerFunc) Execute(ctx context.Context, input json.RawMessage) (*ToolResult, error) {
	return f(ctx, input)
}

// ToolOption sets registry attributes of a tool.
type ToolOption func(*toolEntry)

// WithReadOnly marks a tool as free of side effects. Read-only tools run
// without asking in the default permission mode and stay available in plan
// mode.
func WithReadOnly() ToolOption {
	return func(e *toolEntry) { e.readOnly = true }
}

// WithProviderType marks a tool as executed by the model provider. The
// provider maps the type to its built-in tool; the local handler, if any, is
// never dispatched by the turn loop.
func WithProviderType(providerType string) ToolOption {
	return func(e *toolEntry) { e.def.ProviderType = providerType }
}

// toolEntry is the type-erased wrapper stored in the registry.
type toolEntry struct {
	def      provider.ToolDefinition
	readOnly bool
	handler  ToolHandler
}

// ToolRegistry manages registered tools. It is concurrent-safe and may be
// shared by all sessions.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]*toolEntry
	order []string // preserve registration order
}

// NewToolRegistry creates a new empty ToolRegistry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]*toolEntry),
	}
}

// RegisterTool registers a generic tool into the registry.
// The input type T is used to auto-generate a JSON Schema.
func RegisterTool[T any](r *ToolRegistry, tool Tool[T], opts ...ToolOption) {
	handler := ToolHandlerFunc(func(ctx context.Context, raw json.RawMessage) (*ToolResult, error) {
		var input T
		if err := json.Unmarshal(raw, &input); err != nil {
			return ErrorResult(fmt.Sprintf("invalid input: %s", err.Error())), nil
		}
		return tool.Execute(ctx, input)
	})
	r.Register(tool.Name(), tool.Description(), schema.Generate[T](), handler, opts...)
}

// Register adds a tool with a pre-built schema. Registering a name twice
// replaces the earlier tool but keeps its position.
func (r *ToolRegistry) Register(name, description string, inputSchema provider.InputSchema, handler ToolHandler, opts ...ToolOption) {
	entry := &toolEntry{
		def: provider.ToolDefinition{
			Name:        name,
			Description: description,
			InputSchema: inputSchema,
		},
		handler: handler,
	}
	for _, opt := range opts {
		opt(entry)
	}
	r.add(entry)
}

// RegisterProviderTool adds a tool executed entirely by the model provider.
// Provider tools are read-only from the runtime's point of view.
func (r *ToolRegistry) RegisterProviderTool(name, description, providerType string) {
	r.add(&toolEntry{
		def: provider.ToolDefinition{
			Name:         name,
			Description:  description,
			ProviderType: providerType,
		},
		readOnly: true,
	})
}

func (r *ToolRegistry) add(entry *toolEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[entry.def.Name]; !exists {
		r.order = append(r.order, entry.def.Name)
	}
	r.tools[entry.def.Name] = entry
}

// DefinitionsFor returns the capability descriptors of the named tools in
// the requested order. Unknown and duplicate names are skipped.
func (r *ToolRegistry) DefinitionsFor(names []string) []provider.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]provider.ToolDefinition, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		entry, ok := r.tools[name]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		defs = append(defs, entry.def)
	}
	return defs
}

// Execute runs a tool by name with the given raw JSON input and returns the
// result text. The only error is ErrUnknownTool: handler errors and panics
// become "Error:" results.
func (r *ToolRegistry) Execute(ctx context.Context, name string, input json.RawMessage) (content string, isError bool, err error) {
	r.mu.RLock()
	entry, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return "", false, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if entry.handler == nil {
		return "", false, fmt.Errorf("%w: %s has no local handler", ErrUnknownTool, name)
	}

	defer func() {
		if p := recover(); p != nil {
			content, isError, err = fmt.Sprintf("Error: tool %s panicked: %v", name, p), true, nil
		}
	}()

	result, execErr := entry.handler.Execute(ctx, input)
	if execErr != nil {
		return errorText(execErr.Error()), true, nil
	}
	if result == nil {
		return "", false, nil
	}
	if result.IsError {
		return errorText(result.Content), true, nil
	}
	return result.Content, false, nil
}

// IsReadOnly reports whether the named tool is registered as read-only.
func (r *ToolRegistry) IsReadOnly(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.tools[name]
	return ok && entry.readOnly
}

// ProviderExecuted reports whether the named tool is executed by the provider.
func (r *ToolRegistry) ProviderExecuted(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.tools[name]
	return ok && entry.def.ProviderExecuted()
}

// Has reports whether a tool is registered under name.
func (r *ToolRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Names returns the names of all registered tools in registration order.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// scopedTools restricts execution to a session's allowed tools.
type scopedTools struct {
	registry *ToolRegistry
	allowed  map[string]bool
}

func newScopedTools(r *ToolRegistry, allowed []string) *scopedTools {
	m := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		m[name] = true
	}
	return &scopedTools{registry: r, allowed: m}
}

func (s *scopedTools) Execute(ctx context.Context, name string, input json.RawMessage) (string, bool, error) {
	if !s.allowed[name] {
		return "", false, fmt.Errorf("%w: %s is not enabled for this session", ErrUnknownTool, name)
	}
	if s.registry.ProviderExecuted(name) {
		return "", false, fmt.Errorf("%w: %s is executed by the provider", ErrUnknownTool, name)
	}
	return s.registry.Execute(ctx, name, input)
}
