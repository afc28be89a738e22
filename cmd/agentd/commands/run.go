package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	agent "github.com/armatrix/claude-agent-runtime"
	"github.com/armatrix/claude-agent-runtime/permission"
)

const maxToolOutputPreview = 200

var (
	runSessionID      string
	runModel          string
	runSystemPrompt   string
	runTools          []string
	runPermissionMode string
	runMaxTurns       int
	runJSON           bool
)

var runCmd = &cobra.Command{
	Use:   "run [prompt]",
	Short: "Run a prompt in a session",
	Long: `Run a prompt and print the reply. With --session the named session is
resumed, or created with that id if it does not exist yet. The prompt is read
from stdin when no arguments are given.

Interrupting the command aborts the run.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runSessionID, "session", "s", "", "Session id to resume or create")
	runCmd.Flags().StringVarP(&runModel, "model", "m", "", "Model for a new session")
	runCmd.Flags().StringVar(&runSystemPrompt, "system-prompt", "", "System prompt for a new session")
	runCmd.Flags().StringSliceVar(&runTools, "tools", nil, "Allowed tools for a new session")
	runCmd.Flags().StringVar(&runPermissionMode, "permission-mode", "", "Permission mode for a new session")
	runCmd.Flags().IntVar(&runMaxTurns, "max-turns", 0, "Turn limit for a new session")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print the run result as JSON")
}

func runRun(cmd *cobra.Command, args []string) error {
	prompt, err := readPrompt(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	actor, err := openSession(ctx, rt.agent, cmd.Flags().Changed("tools"))
	if err != nil {
		return err
	}

	// Runs outlive their caller's context, so an interrupt aborts explicitly.
	go func() {
		<-ctx.Done()
		actor.Abort()
	}()

	out := cmd.OutOrStdout()
	if runJSON {
		res := actor.Run(context.WithoutCancel(ctx), prompt)
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
		if !res.Success {
			return errors.New(res.Error)
		}
		return nil
	}

	stream := actor.Stream(ctx, prompt)
	defer stream.Close()
	printStream(out, cmd.ErrOrStderr(), stream)
	return stream.Err()
}

func readPrompt(in io.Reader, args []string) (string, error) {
	prompt := strings.Join(args, " ")
	if prompt == "" {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", err
		}
		prompt = string(data)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt is required")
	}
	return prompt, nil
}

// openSession resumes --session when it exists and initializes it otherwise.
func openSession(ctx context.Context, a *agent.Agent, toolsSet bool) (*agent.SessionActor, error) {
	if runSessionID != "" {
		actor := a.Session(runSessionID)
		_, err := actor.State(ctx)
		if err == nil {
			return actor, nil
		}
		if !errors.Is(err, agent.ErrSessionNotInitialized) {
			return nil, err
		}
	}

	cfg := agent.SessionConfig{
		SystemPrompt:   runSystemPrompt,
		PermissionMode: permission.Mode(runPermissionMode),
		MaxTurns:       runMaxTurns,
		Model:          runModel,
	}
	if toolsSet {
		cfg.AllowedTools = append([]string{}, runTools...)
	}
	state, err := a.Initialize(ctx, cfg, runSessionID)
	if err != nil {
		return nil, err
	}
	return a.Session(state.ID), nil
}

// printStream writes assistant text to out and progress to status.
func printStream(out, status io.Writer, stream *agent.AgentStream) {
	for stream.Next() {
		switch e := stream.Current().(type) {
		case *agent.SystemEvent:
			fmt.Fprintf(status, "session %s (%s)\n", e.SessionID, e.Model)
		case *agent.AssistantEvent:
			fmt.Fprintln(out, e.Text)
		case *agent.ToolUseEvent:
			fmt.Fprintf(status, "> %s %s\n", e.ToolName, string(e.Input))
		case *agent.ToolResultEvent:
			fmt.Fprintf(status, "< %s %s\n", e.ToolName, preview(e.Content))
		case *agent.DoneEvent:
			fmt.Fprintf(status, "done: %s after %d turns, %d tokens, $%s\n",
				e.StopReason, e.NumTurns, e.Usage.Total(), e.TotalCost.StringFixed(4))
		case *agent.ErrorEvent:
			fmt.Fprintf(status, "error: %v\n", e.Err)
		}
	}
}

func preview(s string) string { return previewN(s, maxToolOutputPreview) }

func previewN(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
