package permission

import "github.com/bmatcuk/doublestar/v4"

// Rule is a declarative permission rule with glob pattern matching.
type Rule struct {
	Pattern  string   `json:"pattern"`  // glob pattern, e.g. "Web*", "Write"
	Decision Decision `json:"decision"` // Allow, Deny, or Ask
}

// MatchRules evaluates rules against a tool name.
// Evaluation order: deny rules, then ask rules, then allow rules.
// Returns (decision, matched). If no rule matches, matched is false.
func MatchRules(rules []Rule, toolName string) (Decision, bool) {
	var hasAsk, hasAllow bool

	for _, r := range rules {
		ok, err := doublestar.Match(r.Pattern, toolName)
		if err != nil || !ok {
			continue
		}
		switch r.Decision {
		case Deny:
			return Deny, true
		case Ask:
			hasAsk = true
		case Allow:
			hasAllow = true
		}
	}

	if hasAsk {
		return Ask, true
	}
	if hasAllow {
		return Allow, true
	}
	return Allow, false
}
