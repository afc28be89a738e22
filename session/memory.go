package session

import (
	"context"
	"fmt"
	"sync"

	agent "github.com/armatrix/claude-agent-runtime"
)

// MemoryStore is an in-memory session store backed by a sync.RWMutex-protected map.
// Sessions are deep-copied on save and load to prevent external mutation.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*agent.SessionState
}

var _ agent.FullSessionStore = (*MemoryStore)(nil)

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*agent.SessionState),
	}
}

// Save persists a session by deep-copying it into the store.
func (m *MemoryStore) Save(_ context.Context, state *agent.SessionState) error {
	if state == nil {
		return fmt.Errorf("session is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[state.ID] = state.Clone()
	return nil
}

// Load retrieves a session by ID. Returns a deep copy so callers cannot mutate store state.
func (m *MemoryStore) Load(_ context.Context, id string) (*agent.SessionState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", agent.ErrSessionNotFound, id)
	}
	return s.Clone(), nil
}

// Delete removes a session by ID.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", agent.ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}

// List returns all sessions in the store as deep copies.
func (m *MemoryStore) List(_ context.Context) ([]*agent.SessionState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*agent.SessionState, 0, len(m.sessions))
	for _, s := range m.sessions {
		result = append(result, s.Clone())
	}
	return result, nil
}
