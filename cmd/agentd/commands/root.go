// Package commands provides the agentd CLI commands.
package commands

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

// Global flags
var (
	logLevel   string
	prettyLogs bool
	projectDir string
	storeDir   string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "agentd",
	Short: "agentd - session runtime for tool-using Claude agents",
	Long: `agentd hosts long-lived agent sessions. Each session keeps its own
conversation, usage and files, and is persisted after every turn.

Run 'agentd serve' to expose sessions over HTTP, or 'agentd run' to drive
a session from the terminal.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The default .env is optional; an explicit --env-file must load.
		if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env-file") {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&prettyLogs, "pretty", false, "Human-readable log output")
	rootCmd.PersistentFlags().StringVar(&projectDir, "directory", "", "Project directory for .agentd settings (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&storeDir, "store-dir", "", "Directory for session files (default: in-memory sessions)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load")

	rootCmd.SetVersionTemplate(fmt.Sprintf("agentd %s\n", Version))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sessionsCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
