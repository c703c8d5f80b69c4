// Package simulation provides a multi-cycle test harness for validating
// the emergent dynamics of the attention economy and the inference engine.
//
// The simulation exercises the real atomspace.Space, so the store, the
// economy and the engine run together exactly as a host would drive them
// with no mocks. Scenarios are Go builders that seed atoms and links,
// inject stimuli per cycle, and capture attention and truth snapshots for
// property-based assertions.
//
// Each runner gets a sandboxed HOME to prevent touching user data.
//
// Usage:
//
//	func TestHebbianConvergence(t *testing.T) {
//	    r := simulation.NewRunner(t)
//	    result := r.Run(simulation.Scenario{
//	        Name:    "hebbian-convergence",
//	        Atoms:   []simulation.AtomSpec{...},
//	        Cycles:  40,
//	        Stimuli: simulation.Every(simulation.Stimulus{Atom: a, Amount: 5}),
//	    })
//	    simulation.AssertHebbianConverges(t, result, a, b, 0.3, 1, 20)
//	}
package simulation
