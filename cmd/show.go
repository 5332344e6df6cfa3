package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/andresmejia3/formcheck/internal/store"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:         "show <session_id>",
	Short:       "Show a stored session and its correctness timeline",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{dbAnnotation: dbRequired},
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid session ID: %w", err)
		}

		s, err := DB.GetSession(cmd.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("session %s not found", id)
		}
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		transitions, err := DB.GetTransitions(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to load transitions: %w", err)
		}

		printSession(os.Stdout, s, transitions)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func printSession(w io.Writer, s store.Session, transitions []store.FrameResult) {
	fmt.Fprintf(w, "Session:        %s\n", s.ID)
	fmt.Fprintf(w, "Exercise:       %s\n", s.Exercise)
	fmt.Fprintf(w, "Source:         %s\n", s.Source)
	fmt.Fprintf(w, "Started:        %s\n", fmtTime(&s.StartedAt))
	fmt.Fprintf(w, "Finished:       %s\n", fmtTime(s.FinishedAt))
	fmt.Fprintf(w, "Frames:         %d\n", s.TotalFrames)
	fmt.Fprintf(w, "Correct:        %d (%s)\n", s.CorrectFrames, correctPercent(s.CorrectFrames, s.TotalFrames))
	fmt.Fprintf(w, "Longest Streak: %d\n", s.LongestStreak)

	if len(transitions) == 0 {
		fmt.Fprintln(w, "\nNo correctness transitions recorded.")
		return
	}
	fmt.Fprintf(w, "\nTimeline (%d transitions):\n", len(transitions))
	for _, t := range transitions {
		mark := "❌"
		if t.Correct {
			mark = "✅"
		}
		fmt.Fprintf(w, "  frame %6d  %s  %s\n", t.FrameIndex, mark, t.Feedback)
	}
}
