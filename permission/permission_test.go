package permission_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/armatrix/claude-agent-runtime/permission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readOnly(names ...string) permission.ReadOnlyFunc {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

var ro = readOnly("Read", "Glob", "WebSearch")

func TestModeDefault(t *testing.T) {
	checker := permission.NewChecker(permission.ModeDefault, ro, nil)
	ctx := context.Background()

	for _, tool := range []string{"Read", "Glob", "WebSearch"} {
		d, err := checker.Check(ctx, tool, nil)
		require.NoError(t, err)
		assert.Equal(t, permission.Allow, d, "read tool %s should be allowed", tool)
	}

	d, err := checker.Check(ctx, "Write", nil)
	require.NoError(t, err)
	assert.Equal(t, permission.Ask, d)
}

func TestModeAcceptEdits(t *testing.T) {
	checker := permission.NewChecker(permission.ModeAcceptEdits, ro, nil)
	ctx := context.Background()

	for _, tool := range []string{"Read", "Write", "SomethingElse"} {
		d, err := checker.Check(ctx, tool, nil)
		require.NoError(t, err)
		assert.Equal(t, permission.Allow, d, "tool %s should be allowed", tool)
	}
}

func TestModeBypassPermissions(t *testing.T) {
	checker := permission.NewChecker(permission.ModeBypassPermissions, nil, nil)
	ctx := context.Background()

	for _, tool := range []string{"Read", "Write", "UnknownTool"} {
		d, err := checker.Check(ctx, tool, nil)
		require.NoError(t, err)
		assert.Equal(t, permission.Allow, d, "tool %s should be allowed in bypass mode", tool)
	}
}

func TestModePlan(t *testing.T) {
	checker := permission.NewChecker(permission.ModePlan, ro, nil)
	ctx := context.Background()

	d, err := checker.Check(ctx, "Read", nil)
	require.NoError(t, err)
	assert.Equal(t, permission.Allow, d)

	d, err = checker.Check(ctx, "Write", nil)
	require.NoError(t, err)
	assert.Equal(t, permission.Deny, d)
}

func TestModePlan_CallbackCannotAllowWrites(t *testing.T) {
	allowAll := func(ctx context.Context, toolName string, input json.RawMessage) (permission.Decision, error) {
		return permission.Allow, nil
	}
	checker := permission.NewChecker(permission.ModePlan, ro, allowAll)

	d, err := checker.Check(context.Background(), "Write", nil)
	require.NoError(t, err)
	assert.Equal(t, permission.Deny, d)
}

func TestCustomCanUseTool(t *testing.T) {
	var seen json.RawMessage
	deny := func(ctx context.Context, toolName string, input json.RawMessage) (permission.Decision, error) {
		seen = input
		return permission.Deny, nil
	}
	checker := permission.NewChecker(permission.ModeDefault, ro, deny)

	d, err := checker.Check(context.Background(), "Read", json.RawMessage(`{"file_path":"a"}`))
	require.NoError(t, err)
	assert.Equal(t, permission.Deny, d, "callback should override mode default")
	assert.JSONEq(t, `{"file_path":"a"}`, string(seen))
}

func TestUnknownToolFallthrough(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		mode     permission.Mode
		expected permission.Decision
	}{
		{permission.ModeDefault, permission.Ask},
		{permission.ModeAcceptEdits, permission.Allow},
		{permission.ModeBypassPermissions, permission.Allow},
		{permission.ModePlan, permission.Deny},
	}

	for _, tt := range tests {
		checker := permission.NewChecker(tt.mode, ro, nil)
		d, err := checker.Check(ctx, "SomeUnknownTool", nil)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, d, "unknown tool in mode %s", tt.mode)
	}
}

func TestNilReadOnlyTreatsEverythingAsWrite(t *testing.T) {
	checker := permission.NewChecker(permission.ModePlan, nil, nil)

	d, err := checker.Check(context.Background(), "Read", nil)
	require.NoError(t, err)
	assert.Equal(t, permission.Deny, d)
}

func TestParseMode(t *testing.T) {
	m, err := permission.ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, permission.ModeDefault, m)

	m, err = permission.ParseMode("plan")
	require.NoError(t, err)
	assert.Equal(t, permission.ModePlan, m)

	_, err = permission.ParseMode("yolo")
	require.Error(t, err)
}

func TestNewChecker_EmptyModeIsDefault(t *testing.T) {
	checker := permission.NewChecker("", ro, nil)
	assert.Equal(t, permission.ModeDefault, checker.Mode())
}

func TestDecision_TextRoundTrip(t *testing.T) {
	var rules []permission.Rule
	require.NoError(t, json.Unmarshal([]byte(`[{"pattern":"Write","decision":"deny"},{"pattern":"Web*","decision":"ask"}]`), &rules))
	require.Len(t, rules, 2)
	assert.Equal(t, permission.Deny, rules[0].Decision)
	assert.Equal(t, permission.Ask, rules[1].Decision)

	data, err := json.Marshal(rules[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"pattern":"Write","decision":"deny"}`, string(data))

	var d permission.Decision
	assert.Error(t, json.Unmarshal([]byte(`"maybe"`), &d))
}
