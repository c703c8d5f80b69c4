// Package matching implements type-aware pattern queries over an atom view.
//
// A query is a Pattern. Matching dispatches each pattern to a strategy:
// recursive traversal, logical composition, variable binding, or the
// literal fallback that compares type, name and outgoing structure.
package matching

import (
	"github.com/nvandessel/atomspace/internal/models"
)

// Operator composes sub-patterns.
type Operator string

const (
	OpAnd Operator = "AND"
	OpOr  Operator = "OR"
	OpNot Operator = "NOT"
)

// DefaultMaxDepth bounds recursive traversal when a pattern leaves MaxDepth at 0.
const DefaultMaxDepth = 32

// Recursion turns a pattern into a graph traversal over outgoing edges.
type Recursion struct {
	MaxDepth     int  `json:"max_depth" yaml:"max_depth"`
	FollowLinks  bool `json:"follow_links" yaml:"follow_links"`
	DetectCycles bool `json:"detect_cycles" yaml:"detect_cycles"`
}

// Pattern is an immutable query template. It never references the atoms it
// matches.
type Pattern struct {
	Type models.AtomType `json:"type,omitempty" yaml:"type,omitempty"`
	Name string          `json:"name,omitempty" yaml:"name,omitempty"`

	IsVariable      bool              `json:"is_variable,omitempty" yaml:"is_variable,omitempty"`
	VariableName    string            `json:"variable_name,omitempty" yaml:"variable_name,omitempty"`
	TypeRestriction []models.AtomType `json:"type_restriction,omitempty" yaml:"type_restriction,omitempty"`

	Outgoing []Element `json:"outgoing,omitempty" yaml:"outgoing,omitempty"`

	Operator Operator  `json:"operator,omitempty" yaml:"operator,omitempty"`
	Patterns []Pattern `json:"patterns,omitempty" yaml:"patterns,omitempty"`

	Recursive *Recursion `json:"recursive,omitempty" yaml:"recursive,omitempty"`
}

// Element is one position of a pattern's outgoing set: either a literal
// atom ID or a nested pattern.
type Element struct {
	ID      string   `json:"id,omitempty" yaml:"id,omitempty"`
	Pattern *Pattern `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// Lit matches exactly the atom with the given ID.
func Lit(id string) Element {
	return Element{ID: id}
}

// Sub nests a pattern at an outgoing position.
func Sub(p Pattern) Element {
	return Element{Pattern: &p}
}

// Any matches any atom at an outgoing position.
func Any() Element {
	return Sub(Pattern{})
}

// Node matches atoms of type t (or a subtype) with the given name.
func Node(t models.AtomType, name string) Pattern {
	return Pattern{Type: t, Name: name}
}

// Typed matches any atom of type t or a subtype.
func Typed(t models.AtomType) Pattern {
	return Pattern{Type: t}
}

// Link matches links of type t whose outgoing set matches elems position by
// position.
func Link(t models.AtomType, elems ...Element) Pattern {
	return Pattern{Type: t, Outgoing: elems}
}

// Var binds an atom to name. A non-empty restriction admits only atoms of
// one of the listed types.
func Var(name string, restriction ...models.AtomType) Pattern {
	return Pattern{IsVariable: true, VariableName: name, TypeRestriction: restriction}
}

// V is shorthand for Sub(Var(name, restriction...)).
func V(name string, restriction ...models.AtomType) Element {
	return Sub(Var(name, restriction...))
}

// And succeeds when every sub-pattern matches the same atom.
func And(ps ...Pattern) Pattern {
	return Pattern{Operator: OpAnd, Patterns: ps}
}

// Or succeeds with the first sub-pattern that matches.
func Or(ps ...Pattern) Pattern {
	return Pattern{Operator: OpOr, Patterns: ps}
}

// Not succeeds when p does not match.
func Not(p Pattern) Pattern {
	return Pattern{Operator: OpNot, Patterns: []Pattern{p}}
}

// Recurse returns p as a traversal pattern following outgoing edges.
func Recurse(p Pattern, r Recursion) Pattern {
	p.Recursive = &r
	return p
}

// Variables returns every variable name p binds, in first-seen order.
func (p Pattern) Variables() []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(Pattern)
	walk = func(q Pattern) {
		if q.IsVariable && !seen[q.VariableName] {
			seen[q.VariableName] = true
			out = append(out, q.VariableName)
		}
		for _, e := range q.Outgoing {
			if e.Pattern != nil {
				walk(*e.Pattern)
			}
		}
		for _, sub := range q.Patterns {
			walk(sub)
		}
	}
	walk(p)
	return out
}

// withoutRecursion strips the traversal settings so the same template can
// be applied to each visited atom.
func (p Pattern) withoutRecursion() Pattern {
	p.Recursive = nil
	return p
}
