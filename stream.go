package agent

import (
	"encoding/json"
	"sync"
)

// AgentStream is an iterator over events emitted during one run.
// Usage:
//
//	stream := actor.Stream(ctx, "prompt")
//	defer stream.Close()
//	for stream.Next() {
//	    event := stream.Current()
//	    // handle event
//	}
//	if err := stream.Err(); err != nil {
//	    // the run failed
//	}
//
// Every stream ends with exactly one DoneEvent or ErrorEvent. Closing the
// stream early only detaches the consumer: the run keeps executing and
// persisting in the background.
type AgentStream struct {
	events   <-chan Event
	detached chan struct{}
	once     sync.Once

	current Event
	err     error
	done    bool
}

func newStream(events <-chan Event, detached chan struct{}) *AgentStream {
	return &AgentStream{events: events, detached: detached}
}

// Next advances to the next event. Returns false when the stream is
// exhausted or closed.
func (s *AgentStream) Next() bool {
	if s.done {
		return false
	}
	select {
	case <-s.detached:
		s.done = true
		return false
	default:
	}

	var event Event
	var ok bool
	select {
	case event, ok = <-s.events:
	case <-s.detached:
	}
	if !ok {
		s.done = true
		return false
	}
	if e, isErr := event.(*ErrorEvent); isErr {
		s.err = e.Err
	}
	s.current = event
	return true
}

// Current returns the most recent event returned by Next.
func (s *AgentStream) Current() Event {
	return s.current
}

// Err returns the run's failure once its ErrorEvent has been read.
func (s *AgentStream) Err() error {
	return s.err
}

// Close detaches the consumer. Events produced afterwards are discarded.
// Close may be called from any goroutine and unblocks a pending Next.
func (s *AgentStream) Close() {
	s.once.Do(func() { close(s.detached) })
}

// emitter is the producer side of an AgentStream. It implements
// engine.EventSink. Events are queued without bound and handed to the
// consumer by a forwarding goroutine, so the run never waits on a slow or
// absent reader.
type emitter struct {
	detached <-chan struct{}
	wake     chan struct{}

	mu     sync.Mutex
	queue  []Event
	closed bool
}

// newEmitter starts forwarding to out. out is closed after the last queued
// event has been delivered, or once the consumer detaches.
func newEmitter(out chan<- Event, detached <-chan struct{}) *emitter {
	em := &emitter{detached: detached, wake: make(chan struct{}, 1)}
	go em.forward(out)
	return em
}

// emit queues e in production order, or drops it once the consumer has
// detached.
func (em *emitter) emit(e Event) {
	select {
	case <-em.detached:
		return
	default:
	}
	em.mu.Lock()
	em.queue = append(em.queue, e)
	em.mu.Unlock()
	em.signal()
}

// close marks the end of the run. Queued events are still delivered.
func (em *emitter) close() {
	em.mu.Lock()
	em.closed = true
	em.mu.Unlock()
	em.signal()
}

func (em *emitter) signal() {
	select {
	case em.wake <- struct{}{}:
	default:
	}
}

func (em *emitter) forward(out chan<- Event) {
	defer close(out)
	for {
		em.mu.Lock()
		batch, closed := em.queue, em.closed
		em.queue = nil
		em.mu.Unlock()

		for _, e := range batch {
			select {
			case out <- e:
			case <-em.detached:
				return
			}
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		select {
		case <-em.wake:
		case <-em.detached:
			return
		}
	}
}

func (em *emitter) OnAssistant(text string) {
	em.emit(&AssistantEvent{Text: text})
}

func (em *emitter) OnToolUse(id, name string, input json.RawMessage, providerExecuted bool) {
	em.emit(&ToolUseEvent{
		ToolUseID:        id,
		ToolName:         name,
		Input:            input,
		ProviderExecuted: providerExecuted,
	})
}

func (em *emitter) OnToolResult(toolUseID, name, content string, isError, providerExecuted bool) {
	em.emit(&ToolResultEvent{
		ToolUseID:        toolUseID,
		ToolName:         name,
		Content:          content,
		IsError:          isError,
		ProviderExecuted: providerExecuted,
	})
}
