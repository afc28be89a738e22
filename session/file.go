package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	agent "github.com/armatrix/claude-agent-runtime"
)

// FileStore persists sessions as individual JSON files in a directory.
// Each session is stored as {escaped id}.json and replaced atomically, so a
// crash during Save leaves the previous version intact.
type FileStore struct {
	dir string
}

var _ agent.FullSessionStore = (*FileStore)(nil)

// NewFileStore creates a FileStore that saves sessions to the given directory.
// The directory is created if it does not exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes a session to disk as JSON.
func (f *FileStore) Save(_ context.Context, state *agent.SessionState) error {
	if state == nil {
		return fmt.Errorf("session is nil")
	}
	if state.ID == "" {
		return fmt.Errorf("session has no id")
	}

	b, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path(state.ID)); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// Load reads a session from disk by ID.
func (f *FileStore) Load(_ context.Context, id string) (*agent.SessionState, error) {
	b, err := os.ReadFile(f.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", agent.ErrSessionNotFound, id)
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var state agent.SessionState
	if err := json.Unmarshal(b, &state); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return &state, nil
}

// Delete removes a session file from disk.
func (f *FileStore) Delete(_ context.Context, id string) error {
	if err := os.Remove(f.path(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", agent.ErrSessionNotFound, id)
		}
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// List returns all sessions stored on disk. Unreadable files are skipped.
func (f *FileStore) List(ctx context.Context) ([]*agent.SessionState, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("read session dir: %w", err)
	}

	var states []*agent.SessionState
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id, err := url.PathUnescape(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		s, err := f.Load(ctx, id)
		if err != nil {
			continue // skip corrupt files
		}
		states = append(states, s)
	}
	return states, nil
}

// path maps an id to its file. Escaping keeps external ids from naming
// files outside dir.
func (f *FileStore) path(id string) string {
	return filepath.Join(f.dir, url.PathEscape(id)+".json")
}
