package agent

import (
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/armatrix/claude-agent-runtime/internal/budget"
	"github.com/armatrix/claude-agent-runtime/internal/config"
	"github.com/armatrix/claude-agent-runtime/permission"
	"github.com/armatrix/claude-agent-runtime/provider"
)

// AgentOption configures an Agent via the functional options pattern.
type AgentOption func(*agentOptions)

// agentOptions holds all configurable fields set via AgentOption functions.
type agentOptions struct {
	provider       provider.Provider
	requestOptions []option.RequestOption
	store          SessionStore
	logger         *zerolog.Logger

	// Session defaults.
	model           string
	systemPrompt    string
	allowedTools    []string
	allowedToolsSet bool
	permissionMode  permission.Mode
	maxTurns        int

	maxOutputTokens  int
	maxBudget        decimal.Decimal
	pricing          budget.Table
	streamBufferSize int
	storageRoot      string

	saveRetries       int
	saveRetriesSet    bool
	saveRetryInterval time.Duration

	permissionFunc  permission.Func
	permissionRules []permission.Rule

	settingSources []string
	// warnings collects settings problems reported once the logger exists.
	warnings []error
}

// applySettings fills fields the caller left unset from settings files and
// the environment. Explicit options always win.
func (o *agentOptions) applySettings() {
	s, err := config.LoadSettings(o.settingSources...)
	if err != nil {
		o.warnings = append(o.warnings, err)
	}
	if err := config.ApplyEnv(s); err != nil {
		o.warnings = append(o.warnings, err)
	}

	if o.model == "" {
		o.model = s.Model
	}
	if o.systemPrompt == "" {
		o.systemPrompt = s.ResolvedSystemPrompt()
	}
	if o.maxTurns == 0 {
		o.maxTurns = s.MaxTurns
	}
	if o.maxOutputTokens == 0 {
		o.maxOutputTokens = s.MaxOutputTokens
	}
	if o.maxBudget.IsZero() && s.MaxBudgetUSD > 0 {
		o.maxBudget = decimal.NewFromFloat(s.MaxBudgetUSD)
	}
	if !o.allowedToolsSet && s.AllowedTools != nil {
		o.allowedTools = s.AllowedTools
		o.allowedToolsSet = true
	}
	if o.permissionMode == "" && s.PermissionMode != "" {
		mode, err := permission.ParseMode(s.PermissionMode)
		if err != nil {
			o.warnings = append(o.warnings, fmt.Errorf("settings: %w", err))
		} else {
			o.permissionMode = mode
		}
	}
	o.permissionRules = append(o.permissionRules, s.Permissions...)
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (o *agentOptions) applyDefaults() {
	if o.model == "" {
		o.model = DefaultModel
	}
	if o.systemPrompt == "" {
		o.systemPrompt, _ = config.GetPreset(DefaultSystemPromptPreset)
	}
	if !o.allowedToolsSet {
		o.allowedTools = append([]string(nil), DefaultAllowedTools...)
	}
	if o.permissionMode == "" {
		o.permissionMode = DefaultPermissionMode
	}
	if o.maxTurns == 0 {
		o.maxTurns = DefaultMaxTurns
	}
	if o.maxOutputTokens == 0 {
		o.maxOutputTokens = DefaultMaxOutputTokens
	}
	if o.streamBufferSize == 0 {
		o.streamBufferSize = DefaultStreamBufferSize
	}
	if !o.saveRetriesSet {
		o.saveRetries = DefaultSaveRetries
	}
	if o.saveRetryInterval == 0 {
		o.saveRetryInterval = DefaultSaveRetryInterval
	}
	if o.logger == nil {
		nop := zerolog.Nop()
		o.logger = &nop
	}
}

// resolveOptions applies all option functions, then settings, then defaults.
func resolveOptions(opts []AgentOption) agentOptions {
	var o agentOptions
	for _, fn := range opts {
		fn(&o)
	}
	o.applySettings()
	o.applyDefaults()
	return o
}

// sessionDefaults returns what a partial SessionConfig is merged over.
func (o *agentOptions) sessionDefaults() sessionDefaults {
	return sessionDefaults{
		systemPrompt:   o.systemPrompt,
		allowedTools:   o.allowedTools,
		permissionMode: o.permissionMode,
		maxTurns:       o.maxTurns,
		model:          o.model,
	}
}

// --- Backends ---

// WithProvider sets the model provider. The default is the Anthropic
// Messages API configured from the environment.
func WithProvider(p provider.Provider) AgentOption {
	return func(o *agentOptions) { o.provider = p }
}

// WithRequestOptions passes request options (API key, base URL, retries) to
// the default Anthropic provider. Ignored when WithProvider is used.
func WithRequestOptions(opts ...option.RequestOption) AgentOption {
	return func(o *agentOptions) { o.requestOptions = append(o.requestOptions, opts...) }
}

// WithSessionStore sets the persistence backend. Without one, sessions live
// only in memory for the lifetime of the Agent.
func WithSessionStore(store SessionStore) AgentOption {
	return func(o *agentOptions) { o.store = store }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) AgentOption {
	return func(o *agentOptions) { o.logger = &l }
}

// --- Session defaults ---

// WithModel sets the model of sessions initialized without one.
func WithModel(model string) AgentOption {
	return func(o *agentOptions) { o.model = model }
}

// WithSystemPrompt sets the system prompt of sessions initialized without one.
func WithSystemPrompt(prompt string) AgentOption {
	return func(o *agentOptions) { o.systemPrompt = prompt }
}

// WithAllowedTools sets the tool set of sessions initialized without one.
// Calling it with no names gives such sessions no tools.
func WithAllowedTools(names ...string) AgentOption {
	return func(o *agentOptions) {
		o.allowedTools = append([]string{}, names...)
		o.allowedToolsSet = true
	}
}

// WithPermissionMode sets the permission mode of sessions initialized without one.
func WithPermissionMode(mode permission.Mode) AgentOption {
	return func(o *agentOptions) { o.permissionMode = mode }
}

// WithMaxTurns sets the turn budget of sessions initialized without one.
func WithMaxTurns(n int) AgentOption {
	return func(o *agentOptions) { o.maxTurns = n }
}

// --- Limits ---

// WithMaxOutputTokens sets the maximum output tokens per response.
func WithMaxOutputTokens(tokens int) AgentOption {
	return func(o *agentOptions) { o.maxOutputTokens = tokens }
}

// WithBudget sets the maximum cost in USD of a single run. Zero means unlimited.
func WithBudget(maxUSD decimal.Decimal) AgentOption {
	return func(o *agentOptions) { o.maxBudget = maxUSD }
}

// WithPricing replaces the model pricing table used for cost accounting.
func WithPricing(table budget.Table) AgentOption {
	return func(o *agentOptions) { o.pricing = table }
}

// WithStreamBufferSize sets the event channel buffer of each stream.
func WithStreamBufferSize(n int) AgentOption {
	return func(o *agentOptions) { o.streamBufferSize = n }
}

// --- Storage ---

// WithStorageRoot sets the directory under which each session gets its own
// workspace directory, exposed to tools through ContextWorkDir.
func WithStorageRoot(dir string) AgentOption {
	return func(o *agentOptions) { o.storageRoot = dir }
}

// WithSaveRetry sets how often a failed session save is retried and the
// first backoff interval. Zero retries means a single attempt.
func WithSaveRetry(retries int, interval time.Duration) AgentOption {
	if retries < 0 {
		retries = 0
	}
	return func(o *agentOptions) {
		o.saveRetries = retries
		o.saveRetriesSet = true
		o.saveRetryInterval = interval
	}
}

// --- Permissions ---

// WithPermissionFunc sets a callback consulted for tools that are neither
// allowed nor denied by the session's mode and rules.
func WithPermissionFunc(fn permission.Func) AgentOption {
	return func(o *agentOptions) { o.permissionFunc = fn }
}

// WithPermissionRules adds declarative permission rules.
func WithPermissionRules(rules ...permission.Rule) AgentOption {
	return func(o *agentOptions) { o.permissionRules = append(o.permissionRules, rules...) }
}

// --- Settings ---

// WithSettingsFiles loads JSON or JSONC settings files in order. Values from
// files only apply where no explicit option was given.
func WithSettingsFiles(paths ...string) AgentOption {
	return func(o *agentOptions) { o.settingSources = append(o.settingSources, paths...) }
}
