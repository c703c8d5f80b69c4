package simulation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/nvandessel/atomspace/internal/atomspace"
	"github.com/nvandessel/atomspace/internal/attention"
	"github.com/nvandessel/atomspace/internal/models"
)

// Runner orchestrates multi-cycle simulation experiments against a real
// atom space.
type Runner struct {
	t    *testing.T
	opts atomspace.Options
}

// NewRunner creates a simulation runner with a sandboxed HOME directory.
func NewRunner(t *testing.T) *Runner {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	return &Runner{t: t, opts: atomspace.DefaultOptions()}
}

// Run executes the scenario and returns the collected results.
func (r *Runner) Run(scenario Scenario) SimulationResult {
	r.t.Helper()
	ctx := context.Background()

	// Phase 1: Build the space.
	opts := r.opts
	if scenario.Attention != nil {
		opts.Attention = *scenario.Attention
	}
	if scenario.PLN != nil {
		opts.PLN = *scenario.PLN
	}
	sp, err := atomspace.New(opts)
	if err != nil {
		r.t.Fatalf("%s: New: %v", scenario.Name, err)
	}

	// Phase 2: Seed atoms and links.
	r.seed(sp, scenario)
	if scenario.Goal != "" {
		if err := sp.SetGoal(scenario.Goal); err != nil {
			r.t.Fatalf("%s: SetGoal: %v", scenario.Name, err)
		}
	}

	// Phase 3: Run cycles.
	cycles := make([]CycleResult, scenario.Cycles)
	for i := range cycles {
		if scenario.BeforeCycle != nil {
			scenario.BeforeCycle(i, sp)
		}
		cycles[i] = r.runCycle(ctx, sp, i, scenario)
	}

	return SimulationResult{Cycles: cycles, Space: sp}
}

// seed inserts all atoms and links from the scenario.
func (r *Runner) seed(sp *atomspace.Space, scenario Scenario) {
	r.t.Helper()

	for _, as := range scenario.Atoms {
		id, err := sp.AddAtom(as.nodeType(), as.Name, as.Truth)
		if err != nil {
			r.t.Fatalf("seed: AddAtom(%s): %v", as.Name, err)
		}
		if as.Attention != nil {
			if err := sp.SetAttention(id, *as.Attention); err != nil {
				r.t.Fatalf("seed: SetAttention(%s): %v", id, err)
			}
		}
	}

	for _, ls := range scenario.Links {
		if _, err := sp.AddLink(ls.Type, ls.Outgoing, ls.Truth); err != nil {
			r.t.Fatalf("seed: AddLink(%s %v): %v", ls.Type, ls.Outgoing, err)
		}
	}
}

// runCycle injects the cycle's stimuli, drives one cycle and snapshots the
// space.
func (r *Runner) runCycle(ctx context.Context, sp *atomspace.Space, index int, scenario Scenario) CycleResult {
	r.t.Helper()

	var stimuli []attention.StimulusResult
	if scenario.Stimuli != nil {
		for _, s := range scenario.Stimuli(index) {
			res, err := sp.StimulateAtom(s.Atom, s.Amount, s.Context)
			if err != nil {
				r.t.Fatalf("cycle %d: StimulateAtom(%s): %v", index, s.Atom, err)
			}
			stimuli = append(stimuli, res)
		}
	}

	report, err := sp.Drive(ctx, 1)
	if err != nil {
		r.t.Fatalf("cycle %d: Drive: %v", index, err)
	}
	if len(report.Cycles) != 1 {
		r.t.Fatalf("cycle %d: Drive ran %d cycles, want 1", index, len(report.Cycles))
	}

	result := CycleResult{
		Index:     index,
		Cycle:     report.Cycles[0],
		Stimuli:   stimuli,
		Attention: make(map[string]models.AttentionValue),
		Truth:     make(map[string]models.TruthValue),
	}
	for _, a := range sp.Atoms() {
		if a.Attention != nil {
			result.Attention[a.ID] = *a.Attention
			result.TotalSTI += a.Attention.STI
		}
		if a.Truth != nil {
			result.Truth[a.ID] = *a.Truth
		}
	}
	return result
}

// FormatCycleDebug returns a debug string for a cycle result.
func FormatCycleDebug(cr CycleResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cycle %d: atoms=%d total_sti=%.3f new=%d revised=%d forgotten=%d\n",
		cr.Index, len(cr.Attention), cr.TotalSTI,
		len(cr.Cycle.Inference.New), len(cr.Cycle.Inference.Revised), len(cr.Cycle.Economy.Forgotten))

	ids := make([]string, 0, len(cr.Attention))
	for id := range cr.Attention {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		av := cr.Attention[id]
		fmt.Fprintf(&b, "  %s: sti=%.4f lti=%.4f vlti=%t\n", id, av.STI, av.LTI, av.VLTI)
	}
	return b.String()
}

// Options returns the options scenarios start from.
func (r *Runner) Options() atomspace.Options {
	return r.opts
}
