package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	agent "github.com/armatrix/claude-agent-runtime"
)

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	// ExternalID, when set, becomes the session id and replaces any session
	// stored under it.
	ExternalID string              `json:"externalId,omitempty"`
	Config     agent.SessionConfig `json:"config"`
}

// PromptRequest is the body of the run and stream endpoints.
type PromptRequest struct {
	Prompt string `json:"prompt"`
}

// AbortResponse reports whether a run was cancelled.
type AbortResponse struct {
	Aborted bool `json:"aborted"`
}

func sessionID(r *http.Request) string {
	return chi.URLParam(r, "sessionID")
}

func decodePrompt(w http.ResponseWriter, r *http.Request) (PromptRequest, bool) {
	var req PromptRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON body")
		return req, false
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "prompt is required")
		return req, false
	}
	return req, true
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listSessions handles GET /sessions
func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	states, err := s.agent.List(r.Context())
	if err != nil {
		writeAgentError(w, err)
		return
	}
	if states == nil {
		states = []*agent.SessionState{}
	}
	writeJSON(w, http.StatusOK, states)
}

// createSession handles POST /sessions
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON body")
		return
	}

	state, err := s.agent.Initialize(r.Context(), req.Config, req.ExternalID)
	if err != nil {
		writeAgentError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

// getSession handles GET /sessions/{sessionID}
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.agent.Session(sessionID(r)).State(r.Context())
	if err != nil {
		writeAgentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// runSession handles POST /sessions/{sessionID}/run. Run failures are
// reported in the result body, not the status code.
func (s *Server) runSession(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePrompt(w, r)
	if !ok {
		return
	}
	result := s.agent.Session(sessionID(r)).Run(r.Context(), req.Prompt)
	writeJSON(w, http.StatusOK, result)
}

// abortSession handles POST /sessions/{sessionID}/abort
func (s *Server) abortSession(w http.ResponseWriter, r *http.Request) {
	aborted := s.agent.Session(sessionID(r)).Abort()
	writeJSON(w, http.StatusOK, AbortResponse{Aborted: aborted})
}

// listFiles handles GET /sessions/{sessionID}/files
func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.agent.Session(sessionID(r)).ListFiles(r.Context())
	if err != nil {
		writeAgentError(w, err)
		return
	}
	if files == nil {
		files = []agent.FileReference{}
	}
	writeJSON(w, http.StatusOK, files)
}

// addFile handles POST /sessions/{sessionID}/files
func (s *Server) addFile(w http.ResponseWriter, r *http.Request) {
	var ref agent.FileReference
	if err := decodeBody(r, &ref); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid JSON body")
		return
	}
	if ref.Name == "" && ref.Path == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "name or path is required")
		return
	}

	added, err := s.agent.Session(sessionID(r)).AddFile(r.Context(), ref)
	if err != nil {
		writeAgentError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}
