// Package session provides SessionStore implementations for persisting
// agent session state.
//
// Available stores:
//   - [MemoryStore] keeps sessions in memory (useful for testing).
//   - [FileStore] persists sessions as JSON files on disk.
//
// Both implement [agent.FullSessionStore]. Load reports unknown ids with an
// error wrapping [agent.ErrSessionNotFound].
package session
