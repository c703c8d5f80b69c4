package pln

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nvandessel/atomspace/internal/models"
)

// InferenceStep records one kept derivation.
type InferenceStep struct {
	ID          string            `json:"id"`
	Rule        string            `json:"rule"`
	InputAtoms  []string          `json:"input_atoms"`
	OutputAtoms []string          `json:"output_atoms"`
	Truth       models.TruthValue `json:"truth"`
	// Revised is set when the output already existed and its truth value
	// was revised rather than created.
	Revised   bool      `json:"revised"`
	Timestamp time.Time `json:"timestamp"`
}

type ruleOutcome struct {
	attempts  int
	successes int
}

// Tracker is the append-only inference log plus per-rule success history.
//
// All public methods are safe for concurrent use.
type Tracker struct {
	mu       sync.RWMutex
	steps    []InferenceStep
	byOutput map[string][]int
	outcomes map[string]*ruleOutcome
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		byOutput: make(map[string][]int),
		outcomes: make(map[string]*ruleOutcome),
	}
}

// Record appends a step, assigning its ID and timestamp when unset.
func (t *Tracker) Record(step InferenceStep) InferenceStep {
	if step.ID == "" {
		step.ID = uuid.NewString()
	}
	if step.Timestamp.IsZero() {
		step.Timestamp = time.Now()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	idx := len(t.steps)
	t.steps = append(t.steps, step)
	for _, id := range step.OutputAtoms {
		t.byOutput[id] = append(t.byOutput[id], idx)
	}
	return step
}

// RecordOutcome notes whether an application of rule produced a kept atom.
func (t *Tracker) RecordOutcome(rule string, success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	o, ok := t.outcomes[rule]
	if !ok {
		o = &ruleOutcome{}
		t.outcomes[rule] = o
	}
	o.attempts++
	if success {
		o.successes++
	}
}

// SuccessRate returns the share of rule's applications that produced a
// kept atom. ok is false when the rule has never been applied.
func (t *Tracker) SuccessRate(rule string) (rate float64, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	o, exists := t.outcomes[rule]
	if !exists || o.attempts == 0 {
		return 0, false
	}
	return float64(o.successes) / float64(o.attempts), true
}

// Steps returns a copy of the log in recording order.
func (t *Tracker) Steps() []InferenceStep {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]InferenceStep(nil), t.steps...)
}

// ByOutput returns the steps that produced or revised id.
func (t *Tracker) ByOutput(id string) []InferenceStep {
	t.mu.RLock()
	defer t.mu.RUnlock()
	idx := t.byOutput[id]
	out := make([]InferenceStep, len(idx))
	for i, j := range idx {
		out[i] = t.steps[j]
	}
	return out
}

// Len returns the number of recorded steps.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.steps)
}

// Reset clears the log and the success history.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps = nil
	t.byOutput = make(map[string][]int)
	t.outcomes = make(map[string]*ruleOutcome)
}

// Explain walks the log backward from id and renders the derivation chain,
// premises first. label renders an atom ID; nil prints IDs. ok is false
// when no step produced id.
func (t *Tracker) Explain(id string, label func(string) string) (string, bool) {
	if label == nil {
		label = func(s string) string { return s }
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.byOutput[id]) == 0 {
		return fmt.Sprintf("no derivation known for %s", label(id)), false
	}

	var chain []InferenceStep
	seen := make(map[int]bool)
	onPath := make(map[string]bool)
	var visit func(string)
	visit = func(atomID string) {
		if onPath[atomID] {
			return
		}
		onPath[atomID] = true
		defer delete(onPath, atomID)
		for _, idx := range t.byOutput[atomID] {
			if seen[idx] {
				continue
			}
			seen[idx] = true
			step := t.steps[idx]
			for _, in := range step.InputAtoms {
				visit(in)
			}
			chain = append(chain, step)
		}
	}
	visit(id)

	var b strings.Builder
	fmt.Fprintf(&b, "Derivation of %s:\n", label(id))
	for i, step := range chain {
		inputs := make([]string, len(step.InputAtoms))
		for j, in := range step.InputAtoms {
			inputs[j] = label(in)
		}
		outputs := make([]string, len(step.OutputAtoms))
		for j, out := range step.OutputAtoms {
			outputs[j] = label(out)
		}
		verb := "derived"
		if step.Revised {
			verb = "revised"
		}
		fmt.Fprintf(&b, "%d. %s %s %s from %s %s\n",
			i+1, step.Rule, verb, strings.Join(outputs, ", "), strings.Join(inputs, ", "), step.Truth)
	}
	return b.String(), true
}
