// Package typesys holds the static atom type lattice, the link signatures
// built on it, and the type inference used to vet queries before matching.
package typesys

import (
	"sort"

	"github.com/nvandessel/atomspace/internal/models"
)

// Signature constrains the outgoing set of a link type.
type Signature struct {
	// Arity is the exact outgoing length; 0 means any non-empty length.
	Arity int

	// Args holds positional type constraints. An empty entry is unconstrained.
	Args []models.AtomType
}

// ArgType returns the constraint at position i, or "" when there is none.
func (s Signature) ArgType(i int) models.AtomType {
	if i < len(s.Args) {
		return s.Args[i]
	}
	return ""
}

// Hierarchy is a fixed forest of atom types. It is built once by
// NewHierarchy and never mutated afterwards, so it is safe to share.
type Hierarchy struct {
	parent     map[models.AtomType]models.AtomType
	abstract   map[models.AtomType]bool
	signatures map[models.AtomType]Signature
	concrete   []models.AtomType
}

// NewHierarchy builds the standard type forest rooted at Node and Link.
func NewHierarchy() *Hierarchy {
	h := &Hierarchy{
		parent:     make(map[models.AtomType]models.AtomType),
		abstract:   make(map[models.AtomType]bool),
		signatures: make(map[models.AtomType]Signature),
	}

	h.addAbstract(models.Node, "")
	h.addAbstract(models.Link, "")
	h.addAbstract(models.OrderedLink, models.Link)
	h.addAbstract(models.UnorderedLink, models.Link)

	for _, t := range []models.AtomType{
		models.ConceptNode, models.PredicateNode, models.VariableNode,
		models.NumberNode, models.TypeNode, models.ContextNode,
	} {
		h.addConcrete(t, models.Node)
	}
	for _, t := range []models.AtomType{
		models.InheritanceLink, models.ImplicationLink, models.EvaluationLink,
		models.ListLink, models.SubsetLink, models.ContextualImplicationLink,
	} {
		h.addConcrete(t, models.OrderedLink)
	}
	for _, t := range []models.AtomType{
		models.SimilarityLink, models.EquivalenceLink, models.HebbianLink,
		models.AndLink, models.OrLink, models.AttentionalLink,
	} {
		h.addConcrete(t, models.UnorderedLink)
	}

	binary := Signature{Arity: 2}
	for _, t := range []models.AtomType{
		models.InheritanceLink, models.ImplicationLink, models.SubsetLink,
		models.SimilarityLink, models.EquivalenceLink, models.HebbianLink,
		models.AttentionalLink,
	} {
		h.signatures[t] = binary
	}
	h.signatures[models.EvaluationLink] = Signature{
		Arity: 2,
		Args:  []models.AtomType{models.PredicateNode, models.ListLink},
	}
	h.signatures[models.ContextualImplicationLink] = Signature{
		Arity: 3,
		Args:  []models.AtomType{models.Node},
	}

	sort.Slice(h.concrete, func(i, j int) bool { return h.concrete[i] < h.concrete[j] })
	return h
}

func (h *Hierarchy) addAbstract(t, parent models.AtomType) {
	h.abstract[t] = true
	if parent != "" {
		h.parent[t] = parent
	}
}

func (h *Hierarchy) addConcrete(t, parent models.AtomType) {
	h.parent[t] = parent
	h.concrete = append(h.concrete, t)
}

// Known reports whether t is part of the lattice.
func (h *Hierarchy) Known(t models.AtomType) bool {
	if h.abstract[t] {
		return true
	}
	_, ok := h.parent[t]
	return ok
}

// IsAbstract reports whether t may only be used as a query target.
func (h *Hierarchy) IsAbstract(t models.AtomType) bool {
	return h.abstract[t]
}

// Parent returns the direct supertype of t, or "" for a root.
func (h *Hierarchy) Parent(t models.AtomType) models.AtomType {
	return h.parent[t]
}

// Ancestors returns t followed by each supertype up to its root.
func (h *Hierarchy) Ancestors(t models.AtomType) []models.AtomType {
	if !h.Known(t) {
		return nil
	}
	chain := []models.AtomType{t}
	for p := h.parent[t]; p != ""; p = h.parent[p] {
		chain = append(chain, p)
	}
	return chain
}

// IsSubtype reports whether a equals b or descends from it.
func (h *Hierarchy) IsSubtype(a, b models.AtomType) bool {
	if a == b {
		return h.Known(a)
	}
	for p := h.parent[a]; p != ""; p = h.parent[p] {
		if p == b {
			return true
		}
	}
	return false
}

// IsLinkType reports whether t is Link or one of its descendants.
func (h *Hierarchy) IsLinkType(t models.AtomType) bool {
	return h.IsSubtype(t, models.Link)
}

// MostSpecificCommonType returns the deepest type every input descends from.
// It reports false for an empty input or when the inputs sit in different
// trees of the forest.
func (h *Hierarchy) MostSpecificCommonType(types []models.AtomType) (models.AtomType, bool) {
	if len(types) == 0 {
		return "", false
	}
	for _, candidate := range h.Ancestors(types[0]) {
		common := true
		for _, t := range types[1:] {
			if !h.IsSubtype(t, candidate) {
				common = false
				break
			}
		}
		if common {
			return candidate, true
		}
	}
	return "", false
}

// ConcreteSubtypes returns every concrete type descending from t (t included
// when it is concrete), sorted by name.
func (h *Hierarchy) ConcreteSubtypes(t models.AtomType) []models.AtomType {
	var out []models.AtomType
	for _, c := range h.concrete {
		if h.IsSubtype(c, t) {
			out = append(out, c)
		}
	}
	return out
}

// ConcreteTypes returns all storable types, sorted by name.
func (h *Hierarchy) ConcreteTypes() []models.AtomType {
	return append([]models.AtomType(nil), h.concrete...)
}

// Signature returns the outgoing constraints for a link type.
func (h *Hierarchy) Signature(t models.AtomType) (Signature, bool) {
	s, ok := h.signatures[t]
	return s, ok
}
