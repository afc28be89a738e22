package agent

import "context"

type contextKey int

const (
	ctxKeySessionID contextKey = iota
	ctxKeyWorkDir
	ctxKeyFileRecorder
)

// FileRecorder appends artifacts to the running session's file list.
type FileRecorder interface {
	RecordFile(ref FileReference) FileReference
}

// WithContextSessionID returns a context carrying the running session's id.
func WithContextSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeySessionID, id)
}

// ContextSessionID returns the session id from context, or empty string.
func ContextSessionID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeySessionID).(string); ok {
		return v
	}
	return ""
}

// WithContextWorkDir returns a context with the session's storage root set.
func WithContextWorkDir(ctx context.Context, dir string) context.Context {
	return context.WithValue(ctx, ctxKeyWorkDir, dir)
}

// ContextWorkDir returns the session's storage root from context, or empty string.
func ContextWorkDir(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyWorkDir).(string); ok {
		return v
	}
	return ""
}

// WithContextFileRecorder returns a context carrying a FileRecorder.
func WithContextFileRecorder(ctx context.Context, r FileRecorder) context.Context {
	return context.WithValue(ctx, ctxKeyFileRecorder, r)
}

// ContextFileRecorder returns the FileRecorder from context, or nil.
func ContextFileRecorder(ctx context.Context) FileRecorder {
	if v, ok := ctx.Value(ctxKeyFileRecorder).(FileRecorder); ok {
		return v
	}
	return nil
}
