package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvandessel/atomspace/internal/matching"
	"github.com/nvandessel/atomspace/internal/models"
)

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match <scenario>",
		Short: "Run a pattern query against a scenario",
		Long: `Match atoms of --type against the scenario.

With --arg, the pattern is a link whose outgoing positions are given in
order: $name binds a variable, _ matches anything, and any other value is
an atom reference. Without --arg, --var binds each matching atom itself.

Examples:
  atomspace match zoo.yaml --type InheritanceLink --arg '$x' --arg mammal
  atomspace match zoo.yaml --type ConceptNode --var c`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			typeName, _ := cmd.Flags().GetString("type")
			varName, _ := cmd.Flags().GetString("var")
			elems, _ := cmd.Flags().GetStringArray("arg")
			cycles, _ := cmd.Flags().GetInt("cycles")

			if typeName == "" {
				return fmt.Errorf("--type is required")
			}
			p := buildPattern(models.AtomType(typeName), varName, elems)

			sess, err := openSession(cmd, args[0], cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			if cycles > 0 {
				if _, err := sess.space.Drive(ctx, cycles); err != nil {
					return fmt.Errorf("running scenario: %w", err)
				}
			}

			results, err := sess.space.Match(ctx, p)
			if err != nil {
				return fmt.Errorf("matching: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"pattern": p,
					"results": results,
					"count":   len(results),
				})
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matches.")
				return nil
			}
			for i, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, formatResult(r))
			}
			return nil
		},
	}

	cmd.Flags().String("type", "", "Atom type to match (required)")
	cmd.Flags().String("var", "", "Variable bound to each matching atom")
	cmd.Flags().StringArray("arg", nil, "Outgoing position: $var, _ or an atom reference (repeatable)")
	cmd.Flags().Int("cycles", 0, "Cycles to run before matching")

	return cmd
}

func buildPattern(t models.AtomType, varName string, args []string) matching.Pattern {
	if len(args) == 0 {
		if varName != "" {
			return matching.Var(varName, t)
		}
		return matching.Typed(t)
	}
	elems := make([]matching.Element, len(args))
	for i, a := range args {
		switch {
		case a == "_":
			elems[i] = matching.Any()
		case strings.HasPrefix(a, "$") && len(a) > 1:
			elems[i] = matching.V(a[1:])
		default:
			elems[i] = matching.Lit(resolveRef(a))
		}
	}
	p := matching.Link(t, elems...)
	if varName != "" {
		p = matching.And(matching.Var(varName), p)
	}
	return p
}

// formatResult prints the variable bindings of r in name order, or the
// matched atom when the pattern binds nothing.
func formatResult(r matching.MatchResult) string {
	if len(r.Bindings) == 0 {
		if len(r.MatchedAtoms) > 0 {
			return r.MatchedAtoms[0].ID
		}
		return "(match)"
	}
	names := make([]string, 0, len(r.Bindings))
	for name := range r.Bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + r.Bindings[name].ID
	}
	return strings.Join(parts, " ")
}
