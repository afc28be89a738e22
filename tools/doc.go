// Package tools provides built-in tools that operate on a session's storage
// root.
//
// Register them on an agent's registry and enable them per session through
// SessionConfig.AllowedTools:
//
//	a := agent.NewAgent(agent.WithStorageRoot("/var/lib/agentd/files"))
//	tools.RegisterDefaults(a.Tools(), tools.Options{})
//
// Read and Glob are read-only. Write records every file it produces on the
// session. WebSearch runs on the model provider unless Options.Search is set.
package tools
