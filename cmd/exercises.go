package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/andresmejia3/formcheck/internal/form"
	"github.com/spf13/cobra"
)

var exercisesCmd = &cobra.Command{
	Use:   "exercises",
	Short: "List supported exercises and the keypoints each one needs",
	Run: func(cmd *cobra.Command, args []string) {
		printExercises(os.Stdout, form.DefaultRegistry())
	},
}

func init() {
	rootCmd.AddCommand(exercisesCmd)
}

func printExercises(out io.Writer, reg *form.Registry) {
	fmt.Fprintf(out, "Keypoints must score above %.2f to be evaluated.\n\n", form.ClassificationThreshold)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "EXERCISE\tKEYPOINTS\tSUCCESS")
	fmt.Fprintln(w, "--------\t---------\t-------")
	for _, ex := range form.Exercises() {
		e, ok := reg.Lookup(ex)
		if !ok {
			continue
		}
		names := make([]string, 0, len(e.Required()))
		for _, l := range e.Required() {
			names = append(names, l.String())
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", ex, strings.Join(names, ","), e.SuccessMessage())
	}
	w.Flush()
}
