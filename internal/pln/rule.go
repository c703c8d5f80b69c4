// Package pln implements probabilistic rule inference over the atom store.
//
// Rules are polymorphic: each declares the premise patterns it consumes,
// validates a candidate tuple, and derives new atoms from it. The Engine
// joins premise patterns over attended atoms, scores the applicable rules
// per tuple, applies the best of them on a working copy of the store, and
// commits kept derivations in one batch.
package pln

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nvandessel/atomspace/internal/matching"
	"github.com/nvandessel/atomspace/internal/models"
)

// Category groups rules by inference form. It sets the base of a rule's score.
type Category string

const (
	CategoryDeductive   Category = "Deductive"
	CategoryIntensional Category = "Intensional"
	CategoryContextual  Category = "Contextual"
	CategoryFuzzy       Category = "Fuzzy"
	CategoryInductive   Category = "Inductive"
	CategoryAbductive   Category = "Abductive"
	CategoryAnalogical  Category = "Analogical"
)

// Priority returns the base score of the category.
func (c Category) Priority() float64 {
	switch c {
	case CategoryDeductive:
		return 1.0
	case CategoryIntensional:
		return 0.9
	case CategoryContextual:
		return 0.8
	case CategoryFuzzy:
		return 0.7
	default:
		return 0.5
	}
}

// Rule derives atoms from a tuple of premises.
type Rule interface {
	Name() string
	Category() Category

	// Arity is the number of premises the rule consumes.
	Arity() int

	// ComputationalCost is charged against the step budget per application.
	ComputationalCost() float64

	// Premises returns one pattern per premise position. Variables shared
	// between patterns must bind the same atom. A nil slice asks the engine
	// for every combination of Arity eligible atoms instead.
	Premises() []matching.Pattern

	// Validate reports whether the tuple fits the rule.
	Validate(atoms []models.Atom) bool

	// Apply derives atoms from a validated tuple. Derived atoms carry no ID
	// unless they refer to an atom that already exists; the engine revises
	// those in place.
	Apply(atoms []models.Atom) []models.Atom
}

// Adjacent is implemented by rules whose later premises always share an
// outgoing atom with an earlier one even though their patterns cannot bind
// it, as with unordered links meeting at either end. The engine then only
// joins those premises against links incident to the atoms already chosen.
type Adjacent interface {
	Adjacent() bool
}

// baseRule carries the descriptive half of a Rule.
type baseRule struct {
	name     string
	category Category
	arity    int
	cost     float64
}

func (r baseRule) Name() string               { return r.name }
func (r baseRule) Category() Category         { return r.category }
func (r baseRule) Arity() int                 { return r.arity }
func (r baseRule) ComputationalCost() float64 { return r.cost }

// Registry holds the rules an engine may fire, keyed by name.
//
// All public methods are safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

// NewRegistry creates a registry holding rules.
func NewRegistry(rules ...Rule) (*Registry, error) {
	r := &Registry{rules: make(map[string]Rule)}
	for _, rule := range rules {
		if err := r.Register(rule); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a rule. Names must be unique and arity positive.
func (r *Registry) Register(rule Rule) error {
	if rule == nil || rule.Name() == "" {
		return fmt.Errorf("rule must have a name")
	}
	if rule.Arity() < 1 {
		return fmt.Errorf("rule %s: arity must be at least 1, got %d", rule.Name(), rule.Arity())
	}
	if p := rule.Premises(); p != nil && len(p) != rule.Arity() {
		return fmt.Errorf("rule %s: %d premises for arity %d", rule.Name(), len(p), rule.Arity())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rules[rule.Name()]; exists {
		return fmt.Errorf("rule already registered: %s", rule.Name())
	}
	r.rules[rule.Name()] = rule
	return nil
}

// Get returns the rule with the given name.
func (r *Registry) Get(name string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[name]
	return rule, ok
}

// Rules returns every registered rule, sorted by name.
func (r *Registry) Rules() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}
