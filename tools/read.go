package tools

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	agent "github.com/armatrix/claude-agent-runtime"
)

const (
	defaultReadLimit   = 2000
	maxLineLength      = 2000
	truncationSuffix   = "... [truncated]"
	lineNumberTabWidth = 6
)

// ReadInput defines the input for the Read tool.
type ReadInput struct {
	Path   string `json:"path" jsonschema:"required,description=Path of the file to read relative to the session storage"`
	Offset *int   `json:"offset,omitempty" jsonschema:"description=The line number to start reading from (1-based)"`
	Limit  *int   `json:"limit,omitempty" jsonschema:"description=The number of lines to read"`
}

// ReadTool reads a file from the session storage with line numbers.
type ReadTool struct{}

var _ agent.Tool[ReadInput] = (*ReadTool)(nil)

func (t *ReadTool) Name() string { return "Read" }
func (t *ReadTool) Description() string {
	return "Read a file from the session storage. Output lines are prefixed with line numbers."
}

func (t *ReadTool) Execute(ctx context.Context, input ReadInput) (*agent.ToolResult, error) {
	if input.Path == "" {
		return agent.ErrorResult("path is required"), nil
	}

	resolved, err := resolvePath(ctx, input.Path)
	if err != nil {
		return agent.ErrorResult(err.Error()), nil
	}

	f, err := os.Open(resolved)
	if err != nil {
		return agent.ErrorResult(fmt.Sprintf("failed to open file: %s", err.Error())), nil
	}
	defer f.Close()

	limit := defaultReadLimit
	if input.Limit != nil && *input.Limit > 0 {
		limit = *input.Limit
	}
	offset := 1
	if input.Offset != nil && *input.Offset > 0 {
		offset = *input.Offset
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var b strings.Builder
	lineNum := 0
	linesOutput := 0

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lineNum++
		if lineNum < offset {
			continue
		}
		if linesOutput >= limit {
			break
		}

		line := scanner.Text()
		if len(line) > maxLineLength {
			line = line[:maxLineLength-len(truncationSuffix)] + truncationSuffix
		}

		fmt.Fprintf(&b, "%*d\t%s\n", lineNumberTabWidth, lineNum, line)
		linesOutput++
	}

	if err := scanner.Err(); err != nil {
		return agent.ErrorResult(fmt.Sprintf("error reading file: %s", err.Error())), nil
	}

	if b.Len() == 0 {
		return agent.TextResult("(empty file)"), nil
	}
	return agent.TextResult(b.String()), nil
}
