package agent

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/armatrix/claude-agent-runtime/internal/budget"
	"github.com/armatrix/claude-agent-runtime/internal/engine"
	"github.com/armatrix/claude-agent-runtime/message"
	"github.com/armatrix/claude-agent-runtime/permission"
)

// SessionActor exclusively owns one session's state. It serializes runs,
// persists after every turn and blocks every operation until the session
// has been loaded from the store.
//
// Obtain actors through Agent.Session; there is exactly one per session id.
type SessionActor struct {
	id    string
	agent *Agent
	log   zerolog.Logger

	ready   chan struct{}
	loadErr error

	mu    sync.RWMutex
	state *SessionState

	// runSem admits one run at a time. Later runs queue on it.
	runSem chan struct{}
	// saveMu orders snapshots so they reach the store in the order taken.
	saveMu sync.Mutex

	cancelMu sync.Mutex
	cancel   context.CancelCauseFunc

	// Guarded by agent.mu.
	pins    int
	retired bool
}

func newSessionActor(a *Agent, id string) *SessionActor {
	return &SessionActor{
		id:     id,
		agent:  a,
		log:    a.log.With().Str("session_id", id).Logger(),
		ready:  make(chan struct{}),
		runSem: make(chan struct{}, 1),
	}
}

// load reads prior state from the store and opens the ready barrier. A
// missing session is not an error: the actor starts uninitialized.
func (s *SessionActor) load(ctx context.Context) {
	defer close(s.ready)

	store := s.agent.store
	if store == nil {
		return
	}
	state, err := store.Load(ctx, s.id)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return
	case err != nil:
		s.loadErr = fmt.Errorf("%w: load session %s: %w", ErrStorage, s.id, err)
		s.log.Error().Err(err).Msg("session load failed")
		return
	}
	s.state = state
	s.log.Debug().Int("messages", len(state.Messages)).Str("status", string(state.Status)).Msg("session loaded")
}

// ID returns the session id.
func (s *SessionActor) ID() string { return s.id }

func (s *SessionActor) waitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return s.loadErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SessionActor) acquire(ctx context.Context) error {
	select {
	case s.runSem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SessionActor) release() { <-s.runSem }

// Initialize creates fresh idle state from cfg merged over the agent's
// defaults, replacing any prior state of this session. It waits for an
// in-flight run to finish first.
func (s *SessionActor) Initialize(ctx context.Context, cfg SessionConfig) (*SessionState, error) {
	live := s.agent.pin(s)
	defer s.agent.unpin(live)
	return live.initialize(ctx, cfg)
}

func (s *SessionActor) initialize(ctx context.Context, cfg SessionConfig) (*SessionState, error) {
	if err := s.waitReady(ctx); err != nil {
		return nil, err
	}
	merged := cfg.merge(s.agent.opts.sessionDefaults())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	state := newSessionState(s.id, merged)
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	s.log.Info().Str("model", merged.Model).Strs("tools", merged.AllowedTools).Msg("session initialized")
	return s.snapshot(), nil
}

// State returns a snapshot of the session state.
func (s *SessionActor) State(ctx context.Context) (*SessionState, error) {
	live := s.agent.pin(s)
	defer s.agent.unpin(live)
	return live.loadedState(ctx)
}

func (s *SessionActor) loadedState(ctx context.Context) (*SessionState, error) {
	if err := s.waitReady(ctx); err != nil {
		return nil, err
	}
	state := s.snapshot()
	if state == nil {
		return nil, ErrSessionNotInitialized
	}
	return state, nil
}

func (s *SessionActor) initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state != nil
}

func (s *SessionActor) snapshot() *SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Stream starts a run for prompt and returns its events. The run waits for
// any in-flight run of this session to finish. ctx bounds only that wait:
// once started, the run continues until it completes or Abort is called,
// whether or not anyone reads the stream.
func (s *SessionActor) Stream(ctx context.Context, prompt string) *AgentStream {
	events, detached := s.start(ctx, prompt)
	return newStream(events, detached)
}

// Run executes prompt and returns once the run has finished. If ctx ends
// first, Run returns a failed result while the run keeps going.
func (s *SessionActor) Run(ctx context.Context, prompt string) *RunResult {
	events, detached := s.start(ctx, prompt)

	var terminal Event
drain:
	for {
		select {
		case e, ok := <-events:
			if !ok {
				break drain
			}
			switch e.(type) {
			case *DoneEvent, *ErrorEvent:
				terminal = e
			}
		case <-ctx.Done():
			close(detached)
			return &RunResult{SessionID: s.id, Error: ctx.Err().Error()}
		}
	}

	res := &RunResult{SessionID: s.id, TotalCost: decimal.Zero}
	var state *SessionState
	switch e := terminal.(type) {
	case *DoneEvent:
		res.Success = true
		res.Result = e.Result
		res.StopReason = e.StopReason
		res.NumTurns = e.NumTurns
		state = e.state
	case *ErrorEvent:
		res.Error = e.Err.Error()
		state = e.state
	}
	if state != nil {
		res.Messages = state.Messages
		res.Usage = state.Usage
		res.TotalCost = state.TotalCost
	}
	return res
}

// start launches the run goroutine. events is closed after the terminal
// event has been delivered.
func (s *SessionActor) start(ctx context.Context, prompt string) (<-chan Event, chan struct{}) {
	events := make(chan Event, s.agent.opts.streamBufferSize)
	detached := make(chan struct{})
	em := newEmitter(events, detached)

	live := s.agent.pin(s)
	go func() {
		defer em.close()
		defer s.agent.unpin(live)
		live.execute(ctx, prompt, em)
	}()
	return events, detached
}

// execute is the body of one run. It always emits exactly one terminal event.
func (s *SessionActor) execute(ctx context.Context, prompt string, em *emitter) {
	started := time.Now()
	fail := func(err error) {
		em.emit(&ErrorEvent{SessionID: s.id, Err: err})
	}

	if err := s.waitReady(ctx); err != nil {
		fail(err)
		return
	}
	if err := s.acquire(ctx); err != nil {
		fail(err)
		return
	}
	defer s.release()

	if s.agent.provider == nil {
		fail(ErrNoProvider)
		return
	}

	s.mu.Lock()
	if s.state == nil {
		s.mu.Unlock()
		fail(ErrSessionNotInitialized)
		return
	}
	s.state.Messages = append(s.state.Messages, message.NewUserText(prompt))
	s.state.Status = StatusRunning
	s.state.LastError = ""
	s.state.UpdatedAt = time.Now()
	cfg := s.state.Config.Clone()
	s.mu.Unlock()

	runCtx, cancel := context.WithCancelCause(context.WithoutCancel(ctx))
	s.setCancel(cancel)
	defer func() {
		s.setCancel(nil)
		cancel(nil)
	}()

	log := s.log.With().Str("run_id", GenerateID(PrefixRun)).Logger()
	log.Info().Int("max_turns", cfg.MaxTurns).Str("model", cfg.Model).Msg("run started")

	em.emit(&SystemEvent{SessionID: s.id, Model: cfg.Model})

	var outcome engine.Outcome
	if err := s.persist(runCtx); err != nil {
		outcome.Err = err
	} else {
		outcome = engine.RunLoop(s.toolContext(runCtx), s.loopConfig(cfg, em, log))
	}

	runErr := outcome.Err
	if runErr != nil && errors.Is(context.Cause(runCtx), ErrAborted) {
		runErr = ErrAborted
	}
	s.finish(runErr)
	if err := s.persist(context.WithoutCancel(runCtx)); err != nil && runErr == nil {
		runErr = err
		s.finish(runErr)
	}

	state := s.snapshot()
	if runErr != nil {
		log.Error().Err(runErr).Int("turns", outcome.Turns).Msg("run failed")
		em.emit(&ErrorEvent{SessionID: s.id, Err: runErr, Usage: state.Usage, state: state})
		return
	}

	log.Info().
		Int("turns", outcome.Turns).
		Str("stop_reason", outcome.StopReason).
		Int64("input_tokens", outcome.Usage.InputTokens).
		Int64("output_tokens", outcome.Usage.OutputTokens).
		Msg("run completed")

	em.emit(&DoneEvent{
		SessionID:  s.id,
		Result:     outcome.Result,
		Usage:      state.Usage,
		StopReason: outcome.StopReason,
		NumTurns:   outcome.Turns,
		TotalCost:  state.TotalCost,
		DurationMs: time.Since(started).Milliseconds(),
		state:      state,
	})
}

// finish records the final status of a run in memory.
func (s *SessionActor) finish(runErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if runErr != nil {
		s.state.Status = StatusError
		s.state.LastError = runErr.Error()
	} else {
		s.state.Status = StatusCompleted
	}
	s.state.UpdatedAt = time.Now()
}

func (s *SessionActor) loopConfig(cfg SessionConfig, em *emitter, log zerolog.Logger) engine.LoopConfig {
	a := s.agent
	return engine.LoopConfig{
		Provider:     a.provider,
		Tools:        newScopedTools(a.tools, cfg.AllowedTools),
		Definitions:  a.tools.DefinitionsFor(cfg.AllowedTools),
		Model:        cfg.Model,
		SystemPrompt: cfg.SystemPrompt,
		Temperature:  cfg.Temperature,
		MaxTokens:    a.opts.maxOutputTokens,
		MaxTurns:     cfg.MaxTurns,
		Session:      &actorWriter{actor: s},
		Sink:         em,
		Budget:       budget.NewTracker(a.opts.maxBudget, a.opts.pricing),
		Permission: permission.NewChecker(
			cfg.PermissionMode,
			a.tools.IsReadOnly,
			a.opts.permissionFunc,
			a.opts.permissionRules...,
		),
		Logger: log,
	}
}

// toolContext carries the session id, its workspace and the file recorder
// to tool handlers.
func (s *SessionActor) toolContext(ctx context.Context) context.Context {
	ctx = WithContextSessionID(ctx, s.id)
	ctx = WithContextFileRecorder(ctx, s)
	if root := s.agent.opts.storageRoot; root != "" {
		ctx = WithContextWorkDir(ctx, sessionDir(root, s.id))
	}
	return ctx
}

// sessionDir maps a session id to a directory directly below root. External
// ids are escaped so they cannot name a path outside it.
func sessionDir(root, id string) string {
	name := url.PathEscape(id)
	if name == "." || name == ".." {
		name = strings.ReplaceAll(name, ".", "%2E")
	}
	return filepath.Join(root, name)
}

func (s *SessionActor) setCancel(cancel context.CancelCauseFunc) {
	s.cancelMu.Lock()
	s.cancel = cancel
	s.cancelMu.Unlock()
}

// Abort cancels the in-flight run, if any. The run stops at its next
// suspension point, keeps every completed turn and ends with ErrAborted.
// Returns false when nothing was running.
func (s *SessionActor) Abort() bool {
	return s.agent.current(s).abort()
}

func (s *SessionActor) abort() bool {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()
	if s.cancel == nil {
		return false
	}
	s.cancel(ErrAborted)
	return true
}

// AddFile appends ref to the session's files and persists the session.
// A missing ID or CreatedAt is filled in.
func (s *SessionActor) AddFile(ctx context.Context, ref FileReference) (FileReference, error) {
	live := s.agent.pin(s)
	defer s.agent.unpin(live)
	return live.addFile(ctx, ref)
}

func (s *SessionActor) addFile(ctx context.Context, ref FileReference) (FileReference, error) {
	if err := s.waitReady(ctx); err != nil {
		return FileReference{}, err
	}
	s.mu.Lock()
	if s.state == nil {
		s.mu.Unlock()
		return FileReference{}, ErrSessionNotInitialized
	}
	ref = s.appendFileLocked(ref)
	s.mu.Unlock()

	if err := s.persist(ctx); err != nil {
		return ref, err
	}
	return ref, nil
}

// ListFiles returns the session's files in the order they were added.
func (s *SessionActor) ListFiles(ctx context.Context) ([]FileReference, error) {
	state, err := s.State(ctx)
	if err != nil {
		return nil, err
	}
	return state.Files, nil
}

// RecordFile appends ref during a run. The next per-turn save persists it.
func (s *SessionActor) RecordFile(ref FileReference) FileReference {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return ref
	}
	return s.appendFileLocked(ref)
}

func (s *SessionActor) appendFileLocked(ref FileReference) FileReference {
	if ref.ID == "" {
		ref.ID = GenerateID(PrefixFile)
	}
	if ref.CreatedAt.IsZero() {
		ref.CreatedAt = time.Now()
	}
	s.state.Files = append(s.state.Files, ref)
	s.state.UpdatedAt = time.Now()
	return ref
}

// persist saves a snapshot of the current state, retrying with exponential
// backoff. Exhausted retries yield an error wrapping ErrStorage.
func (s *SessionActor) persist(ctx context.Context) error {
	store := s.agent.store
	if store == nil {
		return nil
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	snap := s.snapshot()
	if snap == nil {
		return nil
	}

	op := func() error { return store.Save(ctx, snap) }
	notify := func(err error, wait time.Duration) {
		s.log.Warn().Err(err).Dur("retry_in", wait).Msg("session save failed, retrying")
	}
	if err := backoff.RetryNotify(op, s.newSaveBackoff(ctx), notify); err != nil {
		s.log.Error().Err(err).Msg("session save failed")
		return fmt.Errorf("%w: save session %s: %w", ErrStorage, s.id, err)
	}
	return nil
}

func (s *SessionActor) newSaveBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.agent.opts.saveRetryInterval
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	b.RandomizationFactor = 0.5
	b.Multiplier = 2.0
	b.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.agent.opts.saveRetries)), ctx)
}

// actorWriter is the turn loop's view of the actor's state.
type actorWriter struct {
	actor *SessionActor
}

func (w *actorWriter) Messages() []message.ConversationMessage {
	w.actor.mu.RLock()
	defer w.actor.mu.RUnlock()
	return message.CloneMessages(w.actor.state.Messages)
}

func (w *actorWriter) Append(msgs ...message.ConversationMessage) {
	w.actor.mu.Lock()
	defer w.actor.mu.Unlock()
	w.actor.state.Messages = append(w.actor.state.Messages, msgs...)
	w.actor.state.UpdatedAt = time.Now()
}

func (w *actorWriter) RecordUsage(usage message.TokenUsage, cost decimal.Decimal) {
	w.actor.mu.Lock()
	defer w.actor.mu.Unlock()
	w.actor.state.Usage = w.actor.state.Usage.Add(usage)
	w.actor.state.TotalCost = w.actor.state.TotalCost.Add(cost)
}

// Checkpoint persists the completed turn even when the run is being aborted.
func (w *actorWriter) Checkpoint(ctx context.Context) error {
	return w.actor.persist(context.WithoutCancel(ctx))
}
