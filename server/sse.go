package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	agent "github.com/armatrix/claude-agent-runtime"
)

// SSEHeartbeatInterval is the default interval between SSE heartbeats.
const SSEHeartbeatInterval = 15 * time.Second

type sseWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	return &sseWriter{w: w, rc: http.NewResponseController(w)}
}

func (s *sseWriter) writeEvent(eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", eventType, payload); err != nil {
		return err
	}
	return s.rc.Flush()
}

func (s *sseWriter) writeHeartbeat() error {
	if _, err := fmt.Fprint(s.w, ": heartbeat\n\n"); err != nil {
		return err
	}
	return s.rc.Flush()
}

// pump forwards stream events to a channel until the stream ends. The
// channel is closed afterwards.
func pump(stream *agent.AgentStream) <-chan agent.Event {
	out := make(chan agent.Event)
	go func() {
		defer close(out)
		for stream.Next() {
			out <- stream.Current()
		}
	}()
	return out
}

// streamSession handles POST /sessions/{sessionID}/stream. A client that
// disconnects detaches from the run without cancelling it.
func (s *Server) streamSession(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	req, ok := decodePrompt(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	sse := newSSEWriter(w)
	if err := sse.rc.Flush(); err != nil {
		s.log.Warn().Err(err).Msg("streaming not supported")
		return
	}

	stream := s.agent.Session(id).Stream(r.Context(), req.Prompt)
	events := pump(stream)

	// detach stops the run's events from reaching this client and lets pump
	// exit; the run itself continues.
	detach := func() {
		stream.Close()
		for range events {
		}
	}

	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			s.log.Debug().Str("session_id", id).Msg("stream client disconnected")
			detach()
			return
		case <-ticker.C:
			if err := sse.writeHeartbeat(); err != nil {
				detach()
				return
			}
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := sse.writeEvent(string(e.Type()), e.ToWire()); err != nil {
				s.log.Debug().Err(err).Str("session_id", id).Msg("write event")
				detach()
				return
			}
		}
	}
}
