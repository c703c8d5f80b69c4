package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newImportantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "important <scenario>",
		Short: "Show the atoms the attention economy currently favours",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			count, _ := cmd.Flags().GetInt("count")
			cycles, _ := cmd.Flags().GetInt("cycles")

			sess, err := openSession(cmd, args[0], cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.Close()

			if cycles > 0 {
				ctx, cancel := signalContext(cmd.Context())
				defer cancel()
				if _, err := sess.space.Drive(ctx, cycles); err != nil {
					return fmt.Errorf("running scenario: %w", err)
				}
			}

			atoms := sess.space.GetImportantAtoms(count)
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"atoms": atoms,
					"count": len(atoms),
				})
			}
			if len(atoms) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No atoms in the attention economy.")
				return nil
			}
			for i, a := range atoms {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, describeAtom(a))
			}
			return nil
		},
	}

	cmd.Flags().Int("count", 5, "Number of atoms to select")
	cmd.Flags().Int("cycles", 0, "Cycles to run before selecting")

	return cmd
}
