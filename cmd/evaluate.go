package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/andresmejia3/formcheck/internal/form"
	"github.com/andresmejia3/formcheck/internal/pose"
	"github.com/andresmejia3/formcheck/internal/session"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var (
	evalInput    string
	evalExercise string
	evalJSON     bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate keypoint frames read as NDJSON from a file or stdin",
	Long: `Reads one frame per line, either {"frame": n, "keypoints": [...]} or a bare
array of 17 keypoints ({"x", "y", "score"}) in nose..right_ankle order, and
prints the feedback for each frame.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ex, ok := form.ParseExercise(evalExercise)
		if !ok {
			return fmt.Errorf("unknown exercise %q (supported: %v)", evalExercise, form.Exercises())
		}

		in := cmd.InOrStdin()
		if evalInput != "" && evalInput != "-" {
			f, err := os.Open(evalInput)
			if err != nil {
				return fmt.Errorf("failed to open frames: %w", err)
			}
			defer f.Close()
			in = f
		}

		tracker, err := runEvaluate(cmd.Context(), in, cmd.OutOrStdout(), ex, evalJSON)
		if err != nil {
			return err
		}
		if !evalJSON {
			printSummary(cmd.ErrOrStderr(), tracker)
		}
		return nil
	},
}

func init() {
	evaluateCmd.Flags().StringVarP(&evalInput, "input", "i", "", "NDJSON keypoint frames (default: stdin)")
	evaluateCmd.Flags().StringVarP(&evalExercise, "exercise", "x", "", "Exercise to evaluate")
	evaluateCmd.Flags().BoolVar(&evalJSON, "json", false, "Print one JSON object per frame")
	evaluateCmd.MarkFlagRequired("exercise")
	rootCmd.AddCommand(evaluateCmd)
}

// runEvaluate evaluates every frame from r in order and writes one line per frame to w.
func runEvaluate(ctx context.Context, r io.Reader, w io.Writer, ex form.Exercise, asJSON bool) (*session.Tracker, error) {
	tracker := session.NewTracker(ex)
	frames := pose.NewFrameReader(r)
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)

	for {
		if err := ctx.Err(); err != nil {
			return tracker, err
		}

		f, err := frames.Next()
		if errors.Is(err, io.EOF) {
			return tracker, nil
		}
		if err != nil {
			return tracker, fmt.Errorf("failed to read frame: %w", err)
		}

		res := form.NoPose()
		if f.Detected {
			res = form.Evaluate(ex, &f.Keypoints)
		}
		obs := tracker.ObserveFrame(f.Index, res)

		if asJSON {
			if err := enc.Encode(obs.Reply()); err != nil {
				return tracker, err
			}
			continue
		}

		mark := "❌"
		if res.Correct {
			mark = "✅"
		}
		line := fmt.Sprintf("frame %5d  %s  %s", obs.Frame, mark, res.Feedback)
		if obs.Cue != session.CueNone {
			line += fmt.Sprintf("  [%s]", obs.Cue)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return tracker, err
		}
	}
}
