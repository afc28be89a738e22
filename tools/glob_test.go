package tools

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobTool_Execute(t *testing.T) {
	ctx, dir := sessionRoot(t)
	older := writeFile(t, dir, "notes/a.md", "a")
	writeFile(t, dir, "notes/deep/b.md", "b")
	writeFile(t, dir, "c.txt", "c")

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	result, err := (&GlobTool{}).Execute(ctx, GlobInput{Pattern: "**/*.md"})
	require.NoError(t, err)
	require.False(t, result.IsError, result.Content)

	lines := strings.Split(strings.TrimSpace(result.Content), "\n")
	assert.Equal(t, []string{"notes/deep/b.md", "notes/a.md"}, lines)
}

func TestGlobTool_Execute_SubdirAndFilesOnly(t *testing.T) {
	ctx, dir := sessionRoot(t)
	writeFile(t, dir, "notes/a.md", "a")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "notes", "empty"), 0o755))

	result, err := (&GlobTool{}).Execute(ctx, GlobInput{Pattern: "*", Path: "notes"})
	require.NoError(t, err)
	assert.Equal(t, "notes/a.md\n", result.Content)
}

func TestGlobTool_Execute_Errors(t *testing.T) {
	ctx, _ := sessionRoot(t)

	tests := map[string]GlobInput{
		"missing pattern": {},
		"bad pattern":     {Pattern: "[a-"},
		"escape":          {Pattern: "*", Path: ".."},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			result, err := (&GlobTool{}).Execute(ctx, in)
			require.NoError(t, err)
			assert.True(t, result.IsError)
		})
	}
}

func TestGlobTool_Execute_NoMatches(t *testing.T) {
	ctx, _ := sessionRoot(t)

	result, err := (&GlobTool{}).Execute(ctx, GlobInput{Pattern: "*.go"})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "No files matched the pattern.", result.Content)
}
