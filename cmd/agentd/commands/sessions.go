package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	agent "github.com/armatrix/claude-agent-runtime"
)

const maxListPreview = 40

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		states, err := rt.agent.List(cmd.Context())
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTATUS\tMESSAGES\tTOKENS\tCOST\tUPDATED\tLAST")
		for _, s := range states {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t$%s\t%s\t%s\n",
				s.ID, s.Status, len(s.Messages), s.Usage.Total(),
				s.TotalCost.StringFixed(4), s.UpdatedAt.Format(time.RFC3339), lastText(s))
		}
		return tw.Flush()
	},
}

// lastText previews the most recent message that carries text.
func lastText(s *agent.SessionState) string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if text := s.Messages[i].Content.Text(); text != "" {
			return previewN(text, maxListPreview)
		}
	}
	return ""
}
