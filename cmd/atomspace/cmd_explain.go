package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newExplainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <scenario> <atom>",
		Short: "Show how an atom was derived",
		Long: `Run the scenario for --cycles cycles, then print the chain of rule
applications that produced the atom, premises first.

Atoms are named by ID (InheritanceLink:(ConceptNode:a,ConceptNode:b)) or,
for concepts, by bare name.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			cycles, _ := cmd.Flags().GetInt("cycles")

			sess, err := openSession(cmd, args[0], cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			if _, err := sess.space.Drive(ctx, cycles); err != nil {
				return fmt.Errorf("running scenario: %w", err)
			}

			id := resolveRef(args[1])
			text, found := sess.space.ExplainInference(id)
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"atom":        id,
					"derived":     found,
					"explanation": text,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().Int("cycles", 10, "Cycles to run before explaining")

	return cmd
}
