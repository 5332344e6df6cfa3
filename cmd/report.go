package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/andresmejia3/formcheck/internal/logger"
	"github.com/andresmejia3/formcheck/internal/session"
	"github.com/sirupsen/logrus"
)

// appLog returns the command logger, falling back to the process default
// when no command has initialized it (tests).
func appLog() *logrus.Logger {
	if Log != nil {
		return Log
	}
	return logger.Get()
}

// printSummary writes the session report box.
func printSummary(w io.Writer, t *session.Tracker) {
	sum := t.Summary()

	fmt.Fprintf(w, "\n---------------------------------------------------------\n")
	fmt.Fprintf(w, "📊 %s SUMMARY\n", t.Exercise)
	fmt.Fprintf(w, "---------------------------------------------------------\n")
	fmt.Fprintf(w, "🎞️  Frames:            %d (%d with a pose)\n", sum.Frames, sum.Classified)
	fmt.Fprintf(w, "✅ Correct Frames:     %d (%.1f%%)\n", sum.Correct, sum.CorrectRatio()*100)
	fmt.Fprintf(w, "🔁 Transitions:        %d\n", sum.Transitions)
	fmt.Fprintf(w, "🏆 Longest Streak:     %d frames\n", sum.LongestStreak)

	if top := sum.TopFeedback(); len(top) > 0 {
		fmt.Fprintf(w, "\n💬 Feedback:\n")
		for _, fc := range top {
			fmt.Fprintf(w, "   %5d  %s\n", fc.Count, fc.Message)
		}
	}
	fmt.Fprintf(w, "---------------------------------------------------------\n")
}

func fmtTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
