package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	agent "github.com/armatrix/claude-agent-runtime"
)

// GlobInput defines the input for the Glob tool.
type GlobInput struct {
	Pattern string `json:"pattern" jsonschema:"required,description=The glob pattern to match files against (supports **)"`
	Path    string `json:"path,omitempty" jsonschema:"description=Directory to search in relative to the session storage"`
}

// GlobTool lists files in the session storage matching a pattern, newest
// first.
type GlobTool struct{}

var _ agent.Tool[GlobInput] = (*GlobTool)(nil)

func (t *GlobTool) Name() string        { return "Glob" }
func (t *GlobTool) Description() string { return "Find files in the session storage by glob pattern" }

func (t *GlobTool) Execute(ctx context.Context, input GlobInput) (*agent.ToolResult, error) {
	if input.Pattern == "" {
		return agent.ErrorResult("pattern is required"), nil
	}
	if !doublestar.ValidatePattern(input.Pattern) {
		return agent.ErrorResult(fmt.Sprintf("invalid pattern %q", input.Pattern)), nil
	}

	base, err := resolvePath(ctx, input.Path)
	if err != nil {
		return agent.ErrorResult(err.Error()), nil
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return agent.ErrorResult(fmt.Sprintf("invalid path: %s", err.Error())), nil
	}

	matches, err := doublestar.Glob(os.DirFS(absBase), input.Pattern, doublestar.WithFilesOnly())
	if err != nil {
		return agent.ErrorResult(fmt.Sprintf("glob error: %s", err.Error())), nil
	}
	if len(matches) == 0 {
		return agent.TextResult("No files matched the pattern."), nil
	}

	type fileEntry struct {
		path    string
		modTime int64
	}
	entries := make([]fileEntry, 0, len(matches))
	for _, m := range matches {
		full := filepath.Join(absBase, filepath.FromSlash(m))
		info, err := os.Stat(full)
		if err != nil {
			continue
		}
		entries = append(entries, fileEntry{path: displayPath(ctx, full), modTime: info.ModTime().UnixNano()})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].modTime != entries[j].modTime {
			return entries[i].modTime > entries[j].modTime
		}
		return entries[i].path < entries[j].path
	})

	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.path)
		b.WriteByte('\n')
	}
	return agent.TextResult(b.String()), nil
}
