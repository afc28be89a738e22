package permission

import (
	"context"
	"encoding/json"
	"fmt"
)

// Decision represents the outcome of a permission check.
type Decision int

const (
	Allow Decision = iota // Tool execution is permitted
	Deny                  // Tool execution is blocked
	Ask                   // Caller should confirm; allowed when nobody can be asked
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	case Ask:
		return "ask"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Decision) UnmarshalText(text []byte) error {
	switch string(text) {
	case "allow":
		*d = Allow
	case "deny":
		*d = Deny
	case "ask":
		*d = Ask
	default:
		return fmt.Errorf("unknown permission decision %q", text)
	}
	return nil
}

// Mode controls the default permission behavior. Values are the strings
// carried in a session's configuration.
type Mode string

const (
	ModeDefault           Mode = "default"           // read=allow, write=ask
	ModeAcceptEdits       Mode = "acceptEdits"       // read+write=allow
	ModeBypassPermissions Mode = "bypassPermissions" // all=allow
	ModePlan              Mode = "plan"              // read=allow, write=deny
)

// ParseMode validates a mode string. The empty string maps to ModeDefault.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeDefault, nil
	case ModeDefault, ModeAcceptEdits, ModeBypassPermissions, ModePlan:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown permission mode %q", s)
	}
}

// Func is a user-provided permission callback.
// It receives the tool name and input, returns a Decision.
type Func func(ctx context.Context, toolName string, input json.RawMessage) (Decision, error)

// ReadOnlyFunc reports whether a tool only reads state. Tool registries
// supply it from their per-tool attributes.
type ReadOnlyFunc func(toolName string) bool

// Checker evaluates whether a tool can be used.
type Checker struct {
	mode       Mode
	readOnly   ReadOnlyFunc
	rules      []Rule
	canUseTool Func
}

// NewChecker creates a permission checker with the given mode. readOnly may be
// nil, in which case every tool is treated as a write.
func NewChecker(mode Mode, readOnly ReadOnlyFunc, canUseTool Func, rules ...Rule) *Checker {
	if mode == "" {
		mode = ModeDefault
	}
	return &Checker{mode: mode, readOnly: readOnly, rules: rules, canUseTool: canUseTool}
}

// Check evaluates whether the named tool with the given input is allowed.
// Declarative rules are consulted first, then plan mode, then the callback,
// then the mode default.
func (c *Checker) Check(ctx context.Context, toolName string, input json.RawMessage) (Decision, error) {
	if d, ok := MatchRules(c.rules, toolName); ok && d != Allow {
		if d == Deny {
			return Deny, nil
		}
		if c.canUseTool != nil {
			return c.canUseTool(ctx, toolName, input)
		}
		return Ask, nil
	} else if ok {
		return Allow, nil
	}

	ro := c.readOnly != nil && c.readOnly(toolName)

	switch c.mode {
	case ModeBypassPermissions:
		return Allow, nil
	case ModePlan:
		if ro {
			return Allow, nil
		}
		return Deny, nil
	}

	if c.canUseTool != nil {
		return c.canUseTool(ctx, toolName, input)
	}

	if c.mode == ModeAcceptEdits || ro {
		return Allow, nil
	}
	return Ask, nil
}

// Mode returns the current permission mode.
func (c *Checker) Mode() Mode {
	return c.mode
}
