package agent

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/armatrix/claude-agent-runtime/message"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// FileReference records an artifact produced during a session.
type FileReference struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	MimeType  string    `json:"mimeType,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionState is the durable state of one conversation. Only the owning
// SessionActor mutates it; everything else sees snapshots.
type SessionState struct {
	ID       string                        `json:"id"`
	Status   Status                        `json:"status"`
	Messages []message.ConversationMessage `json:"messages"`
	Config   SessionConfig                 `json:"config"`
	Usage    message.TokenUsage            `json:"usage"`

	TotalCost decimal.Decimal `json:"totalCost"`
	Files     []FileReference `json:"files"`
	// LastError is the failure message of the most recent errored run.
	LastError string `json:"lastError,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// newSessionState creates a fresh idle state.
func newSessionState(id string, cfg SessionConfig) *SessionState {
	now := time.Now()
	return &SessionState{
		ID:        id,
		Status:    StatusIdle,
		Messages:  []message.ConversationMessage{},
		Config:    cfg,
		TotalCost: decimal.Zero,
		Files:     []FileReference{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy that shares nothing mutable with s.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	out := *s
	out.Messages = message.CloneMessages(s.Messages)
	out.Config = s.Config.Clone()
	if s.Files != nil {
		out.Files = append([]FileReference(nil), s.Files...)
	}
	return &out
}

// SessionStore defines the interface for session persistence backends.
// Load must return an error wrapping ErrSessionNotFound for unknown ids.
type SessionStore interface {
	Save(ctx context.Context, state *SessionState) error
	Load(ctx context.Context, id string) (*SessionState, error)
}

// SessionLister extends SessionStore with the ability to list sessions.
type SessionLister interface {
	SessionStore
	List(ctx context.Context) ([]*SessionState, error)
}

// FullSessionStore combines all session store capabilities. Deletion is an
// administrative operation; the runtime itself never deletes sessions.
type FullSessionStore interface {
	SessionStore
	List(ctx context.Context) ([]*SessionState, error)
	Delete(ctx context.Context, id string) error
}
