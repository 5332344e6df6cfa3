package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/andresmejia3/formcheck/internal/store"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:         "history",
	Short:       "List stored analysis sessions",
	Annotations: map[string]string{dbAnnotation: dbRequired},
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := DB.ListSessions(cmd.Context(), historyLimit)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}
		printSessions(os.Stdout, sessions)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Maximum number of sessions to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func printSessions(out io.Writer, sessions []store.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions found in database.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tEXERCISE\tFRAMES\tCORRECT\tTRANSITIONS\tSTARTED\tSOURCE")
	fmt.Fprintln(w, "--\t--------\t------\t-------\t-----------\t-------\t------")

	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%s\t%s\n",
			s.ID, s.Exercise, s.TotalFrames, correctPercent(s.CorrectFrames, s.TotalFrames),
			s.Transitions, fmtTime(&s.StartedAt), s.Source)
	}
	w.Flush()
}

func correctPercent(correct, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(correct)/float64(total)*100)
}
