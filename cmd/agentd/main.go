// Command agentd serves and runs agent sessions.
package main

import (
	"fmt"
	"os"

	"github.com/armatrix/claude-agent-runtime/cmd/agentd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
