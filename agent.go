package agent

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/armatrix/claude-agent-runtime/provider"
)

// Agent is the runtime shared by all sessions: provider, tool registry,
// session store and defaults. It keeps exactly one SessionActor per session
// id. An Agent is safe for concurrent use.
type Agent struct {
	provider provider.Provider
	tools    *ToolRegistry
	store    SessionStore
	opts     agentOptions
	log      zerolog.Logger

	mu     sync.Mutex
	actors map[string]*SessionActor
}

// NewAgent creates a new Agent with the given options.
func NewAgent(opts ...AgentOption) *Agent {
	resolved := resolveOptions(opts)

	p := resolved.provider
	if p == nil {
		p = provider.NewAnthropic(resolved.requestOptions...)
	}

	a := &Agent{
		provider: p,
		tools:    NewToolRegistry(),
		store:    resolved.store,
		opts:     resolved,
		log:      *resolved.logger,
		actors:   make(map[string]*SessionActor),
	}
	for _, w := range resolved.warnings {
		a.log.Warn().Err(w).Msg("ignoring settings")
	}
	return a
}

// Tools returns the agent's tool registry for registering tools.
func (a *Agent) Tools() *ToolRegistry {
	return a.tools
}

// Store returns the configured session store, or nil.
func (a *Agent) Store() SessionStore {
	return a.store
}

// Session returns the actor owning session id, creating it on first use.
// A new actor starts loading the session from the store immediately; its
// operations block until the load has finished.
//
// An actor that holds no session once its operations have returned is
// dropped from the agent. A handle to it stays usable: its next operation
// moves to the current actor for the id.
func (a *Agent) Session(id string) *SessionActor {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessionLocked(id)
}

func (a *Agent) sessionLocked(id string) *SessionActor {
	if s, ok := a.actors[id]; ok {
		return s
	}
	s := newSessionActor(a, id)
	a.actors[id] = s
	go func() {
		s.load(context.Background())
		a.mu.Lock()
		a.retireLocked(s)
		a.mu.Unlock()
	}()
	return s
}

// pin marks the actor for id in use for one operation and returns it.
func (a *Agent) pin(s *SessionActor) *SessionActor {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s.retired {
		s = a.sessionLocked(s.id)
	}
	s.pins++
	return s
}

func (a *Agent) unpin(s *SessionActor) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s.pins--
	a.retireLocked(s)
}

// current returns the registered actor for s's id without creating one.
func (a *Agent) current(s *SessionActor) *SessionActor {
	a.mu.Lock()
	defer a.mu.Unlock()
	if live, ok := a.actors[s.id]; ok {
		return live
	}
	return s
}

// retireLocked drops an idle actor whose load failed or found nothing and
// that was never initialized. A failed load is retried by the next actor.
func (a *Agent) retireLocked(s *SessionActor) {
	if s.pins > 0 || a.actors[s.id] != s {
		return
	}
	select {
	case <-s.ready:
	default:
		return
	}
	if s.loadErr == nil && s.initialized() {
		return
	}
	delete(a.actors, s.id)
	s.retired = true
}

// Initialize creates a session with cfg merged over the agent defaults.
// A non-empty externalID is used as the session id, replacing any session
// stored under it; otherwise a new id is generated.
func (a *Agent) Initialize(ctx context.Context, cfg SessionConfig, externalID string) (*SessionState, error) {
	id := externalID
	if id == "" {
		id = GenerateID(PrefixSession)
	}
	return a.Session(id).Initialize(ctx, cfg)
}

// List returns all stored sessions, most recently updated first.
func (a *Agent) List(ctx context.Context) ([]*SessionState, error) {
	lister, ok := a.store.(SessionLister)
	if !ok {
		return nil, fmt.Errorf("%w: store cannot list sessions", ErrNoSessionStore)
	}
	states, err := lister.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions: %w", ErrStorage, err)
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].UpdatedAt.After(states[j].UpdatedAt)
	})
	return states, nil
}
