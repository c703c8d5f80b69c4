package simulation_test

import (
	"fmt"
	"testing"

	"github.com/nvandessel/atomspace/internal/attention"
	"github.com/nvandessel/atomspace/internal/models"
	"github.com/nvandessel/atomspace/internal/simulation"
)

// TestAttentionMonopolyIsBounded validates that one atom hammered with huge
// stimuli cannot push importance out of bounds or starve its neighbours.
//
// Setup:
//   - 1 "monopolist" stimulated with 1000 before every cycle
//   - 4 others stimulated once, before the first cycle
//
// Expected: the saturating response caps each stimulus below 1/k, STI
// stays clamped, strong stimuli build LTI, and the others keep positive
// STI through redistribution and diffusion.
func TestAttentionMonopolyIsBounded(t *testing.T) {
	r := simulation.NewRunner(t)
	cfg := attention.DefaultConfig()

	mono := models.NodeID(models.ConceptNode, "monopolist")
	atoms := []simulation.AtomSpec{{Name: "monopolist"}}
	var others []string
	for i := 0; i < 4; i++ {
		name := fmt.Sprintf("other-%d", i)
		atoms = append(atoms, simulation.AtomSpec{Name: name})
		others = append(others, models.NodeID(models.ConceptNode, name))
	}

	result := r.Run(simulation.Scenario{
		Name:   "monopoly",
		Atoms:  atoms,
		Cycles: 30,
		Stimuli: func(cycle int) []simulation.Stimulus {
			stimuli := []simulation.Stimulus{{Atom: mono, Amount: 1000}}
			if cycle == 0 {
				for _, id := range others {
					stimuli = append(stimuli, simulation.Stimulus{Atom: id, Amount: 5})
				}
			}
			return stimuli
		},
	})

	ceiling := 1 / cfg.StimulusSaturation
	for _, cr := range result.Cycles {
		for _, s := range cr.Stimuli {
			if s.Applied >= ceiling {
				t.Errorf("cycle %d: stimulus to %s applied %.4f, want < %.4f", cr.Index, s.AtomID, s.Applied, ceiling)
			}
		}
	}
	simulation.AssertAttentionBounded(t, result, cfg)
	simulation.AssertRentConserved(t, result, 1e-9)

	final := result.Final()
	if lti := final.Attention[mono].LTI; lti < 30 {
		t.Errorf("monopolist LTI %.2f, want at least one point per strong stimulus", lti)
	}
	if final.Attention[mono].VLTI {
		t.Error("a busy atom must not become VLTI")
	}
	for _, id := range others {
		if sti := final.Attention[id].STI; sti <= 0 {
			t.Errorf("%s starved: sti %.4f", id, sti)
		}
	}

	top := result.Space.GetImportantAtoms(3)
	seen := make(map[string]bool)
	for _, a := range top {
		if seen[a.ID] {
			t.Errorf("important atoms repeat %s", a.ID)
		}
		seen[a.ID] = true
	}
	if len(top) != 3 {
		t.Errorf("expected 3 important atoms, got %d", len(top))
	}
}
