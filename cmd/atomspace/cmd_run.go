package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nvandessel/atomspace/internal/atomspace"
	"github.com/nvandessel/atomspace/internal/models"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Drive attention and inference cycles over a scenario",
		Long: `Load a scenario and run economy and inference cycles over it.

Each cycle is one attention economy step followed by one inference step.
Ctrl+C stops the run after the step in progress.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			cycles, _ := cmd.Flags().GetInt("cycles")
			top, _ := cmd.Flags().GetInt("top")
			if cycles < 0 {
				return fmt.Errorf("--cycles must not be negative")
			}

			sess, err := openSession(cmd, args[0], cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			report, err := sess.space.Drive(ctx, cycles)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("running scenario: %w", err)
			}

			important := sess.space.GetImportantAtoms(top)
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"drive":      report,
					"atoms":      sess.space.Len(),
					"violations": sess.space.Violations(),
					"important":  important,
				})
			}
			printDriveSummary(cmd.OutOrStdout(), sess.space, report, important)
			return nil
		},
	}

	cmd.Flags().Int("cycles", 10, "Number of economy and inference cycles")
	cmd.Flags().Int("top", 5, "Number of important atoms to show")

	return cmd
}

func printDriveSummary(w io.Writer, sp *atomspace.Space, report atomspace.DriveReport, important []models.Atom) {
	var exhausted, overrun, forgotten int
	for _, c := range report.Cycles {
		if c.Exhausted {
			exhausted++
		}
		if c.Overrun {
			overrun++
		}
		forgotten += len(c.Economy.Forgotten)
	}

	fmt.Fprintf(w, "Drive %s %s after %s cycles in %s\n",
		report.ID, report.Reason, humanize.Comma(int64(len(report.Cycles))), report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Atoms:     %s\n", humanize.Comma(int64(sp.Len())))
	fmt.Fprintf(w, "  Derived:   %s new, %s revised\n", humanize.Comma(int64(report.New)), humanize.Comma(int64(report.Revised)))
	fmt.Fprintf(w, "  Forgotten: %s\n", humanize.Comma(int64(forgotten)))
	if exhausted > 0 {
		fmt.Fprintf(w, "  Inference over budget in %s cycles\n", humanize.Comma(int64(exhausted)))
	}
	if overrun > 0 {
		fmt.Fprintf(w, "  Cycles over timeout: %s\n", humanize.Comma(int64(overrun)))
	}
	if v := sp.Violations(); v > 0 {
		fmt.Fprintf(w, "  Bound violations clamped: %s\n", humanize.Comma(int64(v)))
	}

	if len(important) == 0 {
		return
	}
	fmt.Fprintln(w, "\nMost important:")
	for i, a := range important {
		fmt.Fprintf(w, "  %d. %s\n", i+1, describeAtom(a))
	}
}

// describeAtom renders an atom on one line with its truth and attention.
func describeAtom(a models.Atom) string {
	s := a.ID
	if a.Truth != nil {
		s += " " + a.Truth.String()
	}
	if a.Attention != nil {
		s += fmt.Sprintf(" sti=%s lti=%s",
			humanize.FormatFloat("#,###.##", a.Attention.STI),
			humanize.FormatFloat("#,###.##", a.Attention.LTI))
		if a.Attention.VLTI {
			s += " vlti"
		}
	}
	return s
}
