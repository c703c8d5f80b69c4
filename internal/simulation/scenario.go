package simulation

import (
	"github.com/nvandessel/atomspace/internal/atomspace"
	"github.com/nvandessel/atomspace/internal/attention"
	"github.com/nvandessel/atomspace/internal/models"
	"github.com/nvandessel/atomspace/internal/pln"
)

// Scenario defines a complete simulation experiment.
type Scenario struct {
	Name   string
	Atoms  []AtomSpec
	Links  []LinkSpec
	Cycles int

	// Attention and PLN override the default configs when non-nil.
	Attention *attention.Config
	PLN       *pln.Config

	// Goal, when set, directs inference toward the atom with this ID.
	Goal string

	// Stimuli, when non-nil, returns the stimuli injected before a cycle.
	Stimuli func(cycle int) []Stimulus

	// BeforeCycle, when non-nil, is called before each cycle's stimuli.
	// Use it to manipulate the space between cycles.
	BeforeCycle func(cycle int, sp *atomspace.Space)
}

// AtomSpec defines a pre-seeded node.
type AtomSpec struct {
	Type  models.AtomType
	Name  string
	Truth *models.TruthValue

	// Attention is applied after the node is added when non-nil.
	Attention *models.AttentionValue
}

// ID returns the identity the node is stored under.
func (s AtomSpec) ID() string {
	return models.NodeID(s.nodeType(), s.Name)
}

func (s AtomSpec) nodeType() models.AtomType {
	if s.Type == "" {
		return models.ConceptNode
	}
	return s.Type
}

// LinkSpec defines a pre-seeded link. Outgoing holds atom IDs; links may
// reference atoms or earlier links.
type LinkSpec struct {
	Type     models.AtomType
	Outgoing []string
	Truth    *models.TruthValue
}

// ID returns the identity the link is stored under.
func (s LinkSpec) ID() string {
	return models.IdentityKey(s.Type, "", s.Outgoing)
}

// Stimulus is one injection into the economy.
type Stimulus struct {
	Atom    string
	Amount  float64
	Context string
}

// Every returns a Stimuli function that injects the same stimuli before
// every cycle.
func Every(stimuli ...Stimulus) func(int) []Stimulus {
	return func(int) []Stimulus { return stimuli }
}

// Until returns a Stimuli function that injects stimuli before cycles
// [0, last) and nothing afterwards.
func Until(last int, stimuli ...Stimulus) func(int) []Stimulus {
	return func(cycle int) []Stimulus {
		if cycle >= last {
			return nil
		}
		return stimuli
	}
}

// CycleResult captures the outcome of a single cycle.
type CycleResult struct {
	Index   int
	Cycle   atomspace.Cycle
	Stimuli []attention.StimulusResult

	// Attention holds every participant's attention value after the cycle.
	Attention map[string]models.AttentionValue

	// Truth holds every atom's truth value after the cycle.
	Truth map[string]models.TruthValue

	// TotalSTI is the sum of all participants' STI after the cycle.
	TotalSTI float64
}

// SimulationResult captures all cycles and the final space.
type SimulationResult struct {
	Cycles []CycleResult
	Space  *atomspace.Space
}

// Final returns the last cycle, or the zero CycleResult when none ran.
func (r SimulationResult) Final() CycleResult {
	if len(r.Cycles) == 0 {
		return CycleResult{}
	}
	return r.Cycles[len(r.Cycles)-1]
}
