package tools

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	agent "github.com/armatrix/claude-agent-runtime"
)

// WriteInput defines the input for the Write tool.
type WriteInput struct {
	Path    string `json:"path" jsonschema:"required,description=Path of the file to write relative to the session storage"`
	Content string `json:"content" jsonschema:"required,description=The content to write to the file"`
}

// WriteTool writes a file into the session storage, creating parent
// directories as needed. Written files are recorded on the session.
type WriteTool struct{}

var _ agent.Tool[WriteInput] = (*WriteTool)(nil)

func (t *WriteTool) Name() string { return "Write" }
func (t *WriteTool) Description() string {
	return "Write a file to the session storage, replacing any existing content."
}

func (t *WriteTool) Execute(ctx context.Context, input WriteInput) (*agent.ToolResult, error) {
	if input.Path == "" {
		return agent.ErrorResult("path is required"), nil
	}

	resolved, err := resolvePath(ctx, input.Path)
	if err != nil {
		return agent.ErrorResult(err.Error()), nil
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return agent.ErrorResult(fmt.Sprintf("failed to create directory: %s", err.Error())), nil
	}
	data := []byte(input.Content)
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return agent.ErrorResult(fmt.Sprintf("failed to write file: %s", err.Error())), nil
	}

	shown := displayPath(ctx, resolved)
	result := agent.TextResult(fmt.Sprintf("Successfully wrote %d bytes to %s", len(data), shown))

	if rec := agent.ContextFileRecorder(ctx); rec != nil {
		ref := rec.RecordFile(agent.FileReference{
			Name:     filepath.Base(resolved),
			Path:     shown,
			Size:     int64(len(data)),
			MimeType: detectMimeType(resolved, data),
		})
		result.Metadata = map[string]any{"fileId": ref.ID}
	}
	return result, nil
}

func detectMimeType(path string, data []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return http.DetectContentType(data)
}
