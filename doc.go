// Package agent is an embeddable runtime for tool-using language-model
// agents with durable, per-turn persisted sessions.
//
// An [Agent] holds the provider, the tool registry and the session store.
// Each session id maps to exactly one [SessionActor], which owns that
// session's state, serializes runs against it and saves it after every turn.
//
// # Quick Start
//
//	a := agent.NewAgent(agent.WithSessionStore(session.NewMemoryStore()))
//	tools.RegisterDefaults(a.Tools())
//	actor, _ := a.Initialize(ctx, agent.SessionConfig{}, "")
//	stream := actor.Stream(ctx, "What files are in my workspace?")
//	for stream.Next() {
//	    if e, ok := stream.Current().(*agent.AssistantEvent); ok {
//	        fmt.Println(e.Text)
//	    }
//	}
//
// # Sub-packages
//
//   - [message] defines content blocks, conversation messages and token usage.
//   - [provider] defines the model provider interface and the Anthropic implementation.
//   - [tools] provides example tools (Read, Write, Glob, WebSearch).
//   - [session] provides SessionStore implementations (FileStore, MemoryStore).
//   - [permission] provides permission modes and rules.
//   - [server] exposes sessions over HTTP with SSE streaming.
package agent
