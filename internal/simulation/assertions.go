package simulation

import (
	"math"
	"testing"

	"github.com/nvandessel/atomspace/internal/attention"
	"github.com/nvandessel/atomspace/internal/models"
)

// AssertAttentionBounded asserts that every participant's STI and LTI stay
// within the configured bounds after every cycle.
func AssertAttentionBounded(t *testing.T, result SimulationResult, cfg attention.Config) {
	t.Helper()
	for _, cr := range result.Cycles {
		for id, av := range cr.Attention {
			if av.STI < cfg.MinSTI || av.STI > cfg.MaxSTI {
				t.Errorf("AssertAttentionBounded: cycle %d: %s sti %.4f not in [%.1f, %.1f]", cr.Index, id, av.STI, cfg.MinSTI, cfg.MaxSTI)
			}
			if av.LTI < cfg.MinLTI || av.LTI > cfg.MaxLTI {
				t.Errorf("AssertAttentionBounded: cycle %d: %s lti %.4f not in [%.1f, %.1f]", cr.Index, id, av.LTI, cfg.MinLTI, cfg.MaxLTI)
			}
		}
	}
}

// AssertVLTINeverForgotten asserts that an atom seen with VLTI in one cycle
// keeps VLTI and stays stored in every later cycle.
func AssertVLTINeverForgotten(t *testing.T, result SimulationResult) {
	t.Helper()
	protected := make(map[string]int)
	for _, cr := range result.Cycles {
		for id, first := range protected {
			av, ok := cr.Attention[id]
			if !ok {
				t.Errorf("AssertVLTINeverForgotten: cycle %d: %s (VLTI since cycle %d) was removed", cr.Index, id, first)
				continue
			}
			if !av.VLTI {
				t.Errorf("AssertVLTINeverForgotten: cycle %d: %s lost VLTI", cr.Index, id)
			}
		}
		for id, av := range cr.Attention {
			if _, seen := protected[id]; av.VLTI && !seen {
				protected[id] = cr.Index
			}
		}
	}
}

// AssertRentConserved asserts that every cycle redistributed what it
// collected, and that total STI changed only by stimuli, clamp loss and
// forgetting.
func AssertRentConserved(t *testing.T, result SimulationResult, tolerance float64) {
	t.Helper()
	for _, cr := range result.Cycles {
		rent := cr.Cycle.Economy.Rent
		if len(rent.Recipients) > 0 && math.Abs(rent.Collected-rent.Redistributed) > tolerance {
			t.Errorf("AssertRentConserved: cycle %d: collected %.6f but redistributed %.6f", cr.Index, rent.Collected, rent.Redistributed)
		}
	}
}

// AssertAtomDerived asserts that id exists after the final cycle and was
// not part of the seeded graph.
func AssertAtomDerived(t *testing.T, result SimulationResult, scenario Scenario, id string) {
	t.Helper()
	for _, as := range scenario.Atoms {
		if as.ID() == id {
			t.Fatalf("AssertAtomDerived: %s was seeded, not derived", id)
		}
	}
	for _, ls := range scenario.Links {
		if ls.ID() == id {
			t.Fatalf("AssertAtomDerived: %s was seeded, not derived", id)
		}
	}
	if _, ok := result.Space.GetAtom(id); !ok {
		t.Errorf("AssertAtomDerived: %s was never derived", id)
	}
}

// AssertTruthIn asserts that the truth value of id lies within the given
// strength and confidence ranges after every cycle from afterCycle on.
func AssertTruthIn(t *testing.T, result SimulationResult, id string, strength, confidence [2]float64, afterCycle int) {
	t.Helper()
	for i := afterCycle; i < len(result.Cycles); i++ {
		tv, ok := result.Cycles[i].Truth[id]
		if !ok {
			t.Errorf("AssertTruthIn: cycle %d: %s has no truth value", i, id)
			continue
		}
		if tv.Strength < strength[0] || tv.Strength > strength[1] {
			t.Errorf("AssertTruthIn: cycle %d: %s strength %.4f not in [%.4f, %.4f]", i, id, tv.Strength, strength[0], strength[1])
		}
		if tv.Confidence < confidence[0] || tv.Confidence > confidence[1] {
			t.Errorf("AssertTruthIn: cycle %d: %s confidence %.4f not in [%.4f, %.4f]", i, id, tv.Confidence, confidence[0], confidence[1])
		}
	}
}

// AssertHebbianConverges asserts that the association between a and b has
// strength within [min, max] after every cycle from afterCycle on.
func AssertHebbianConverges(t *testing.T, result SimulationResult, a, b string, min, max float64, afterCycle int) {
	t.Helper()
	key := models.HebbianID(a, b)
	for i := afterCycle; i < len(result.Cycles); i++ {
		tv, ok := result.Cycles[i].Truth[key]
		if !ok {
			t.Errorf("AssertHebbianConverges: cycle %d: %s not found", i, key)
			continue
		}
		if tv.Strength < min || tv.Strength > max {
			t.Errorf("AssertHebbianConverges: cycle %d: %s strength %.6f not in [%.4f, %.4f]", i, key, tv.Strength, min, max)
		}
	}
}

// AssertHebbianStable asserts that the association strength between a and b
// varies less than maxVariance over the last lastN cycles.
func AssertHebbianStable(t *testing.T, result SimulationResult, a, b string, maxVariance float64, lastN int) {
	t.Helper()
	key := models.HebbianID(a, b)
	start := max(len(result.Cycles)-lastN, 0)
	var vals []float64
	for _, cr := range result.Cycles[start:] {
		if tv, ok := cr.Truth[key]; ok {
			vals = append(vals, tv.Strength)
		}
	}
	if len(vals) < 2 {
		t.Errorf("AssertHebbianStable: %s has fewer than 2 samples in the last %d cycles", key, lastN)
		return
	}
	if v := variance(vals); v > maxVariance {
		t.Errorf("AssertHebbianStable: %s variance %.8f > max %.8f over last %d cycles", key, v, maxVariance, lastN)
	}
}

// HebbianStrength returns the association strength between a and b after
// cycle i, or -1 when there is no association.
func HebbianStrength(result SimulationResult, a, b string, i int) float64 {
	tv, ok := result.Cycles[i].Truth[models.HebbianID(a, b)]
	if !ok {
		return -1
	}
	return tv.Strength
}

// CountForgotten returns how many atoms the economy removed across all
// cycles.
func CountForgotten(result SimulationResult) int {
	n := 0
	for _, cr := range result.Cycles {
		n += len(cr.Cycle.Economy.Forgotten)
	}
	return n
}

// CountDerived returns how many new atoms inference created across all
// cycles.
func CountDerived(result SimulationResult) int {
	n := 0
	for _, cr := range result.Cycles {
		n += len(cr.Cycle.Inference.New)
	}
	return n
}

// variance computes the population variance of a slice of float64 values.
func variance(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))

	sumSq := 0.0
	for _, v := range vals {
		d := v - mean
		sumSq += d * d
	}
	return sumSq / float64(len(vals))
}
