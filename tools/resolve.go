package tools

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	agent "github.com/armatrix/claude-agent-runtime"
)

// resolvePath resolves path against the session storage root from ctx.
// Paths that escape the root are rejected. Without a root in ctx the path is
// returned cleaned and unconfined.
func resolvePath(ctx context.Context, path string) (string, error) {
	root := agent.ContextWorkDir(ctx)
	if root == "" {
		if path == "" {
			return ".", nil
		}
		return filepath.Clean(path), nil
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid storage root: %w", err)
	}

	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(absRoot, resolved)
	}
	resolved = filepath.Clean(resolved)

	if !within(absRoot, resolved) {
		return "", fmt.Errorf("path %s is outside the session storage", path)
	}
	return resolved, nil
}

func within(root, path string) bool {
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

// displayPath renders an absolute path relative to the storage root when
// possible.
func displayPath(ctx context.Context, path string) string {
	root := agent.ContextWorkDir(ctx)
	if root == "" {
		return path
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(absRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
