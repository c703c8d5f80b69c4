package pln

import (
	"math"

	"github.com/nvandessel/atomspace/internal/matching"
	"github.com/nvandessel/atomspace/internal/models"
	"github.com/nvandessel/atomspace/internal/typesys"
)

// Type rule names.
const (
	RuleTypeInheritance  = "TypeInheritance"
	RuleTypeSubsumption  = "TypeSubsumption"
	RuleTypeIntersection = "TypeIntersection"
	RuleTypeComposition  = "TypeComposition"
	RuleTypeConstraint   = "TypeConstraint"
	RuleTypeVariance     = "TypeVariance"
)

// CategoryType groups the rules that reason about the type lattice itself.
const CategoryType Category = "Type"

// Names of the ConceptNodes that select a variance for TypeVariance.
const (
	Covariant     = "Covariant"
	Contravariant = "Contravariant"
)

// TypeRules returns the rules over TypeNodes. A TypeNode's name is read as
// an atom type of h; TypeNodes naming anything else are left alone. A
// type's constraints are its ancestors in h, itself included, and the
// graded rules measure how many of them two types share.
func TypeRules(h *typesys.Hierarchy) []Rule {
	return []Rule{
		typeInheritanceRule{typeRule{baseRule{RuleTypeInheritance, CategoryType, 2, 0.6}, h}},
		typeSubsumptionRule{typeRule{baseRule{RuleTypeSubsumption, CategoryType, 2, 0.7}, h}},
		typeIntersectionRule{typeRule{baseRule{RuleTypeIntersection, CategoryType, 2, 0.5}, h}},
		typeCompositionRule{typeRule{baseRule{RuleTypeComposition, CategoryType, 2, 0.7}, h}},
		typeConstraintRule{typeRule{baseRule{RuleTypeConstraint, CategoryType, 2, 0.6}, h}},
		typeVarianceRule{typeRule{baseRule{RuleTypeVariance, CategoryType, 3, 0.8}, h}},
	}
}

type typeRule struct {
	baseRule
	h *typesys.Hierarchy
}

func (typeRule) Premises() []matching.Pattern {
	return []matching.Pattern{
		matching.Var("a", models.TypeNode),
		matching.Var("b", models.TypeNode),
	}
}

// named returns the lattice type a TypeNode stands for.
func (r typeRule) named(a models.Atom) (models.AtomType, bool) {
	if a.Type != models.TypeNode || a.Truth == nil {
		return "", false
	}
	t := models.AtomType(a.Name)
	return t, r.h.Known(t)
}

// pair resolves the first two atoms to distinct lattice types.
func (r typeRule) pair(atoms []models.Atom) (models.AtomType, models.AtomType, bool) {
	if len(atoms) < 2 {
		return "", "", false
	}
	a, ok := r.named(atoms[0])
	if !ok {
		return "", "", false
	}
	b, ok := r.named(atoms[1])
	if !ok || a == b {
		return "", "", false
	}
	return a, b, true
}

// shared counts the constraints a and b have in common.
func (r typeRule) shared(a, b models.AtomType) int {
	n := 0
	for _, x := range r.h.Ancestors(a) {
		if r.h.IsSubtype(b, x) {
			n++
		}
	}
	return n
}

func (r typeRule) depth(t models.AtomType) int {
	return len(r.h.Ancestors(t))
}

func typeTruth(x, y models.Atom, strength, discount float64) models.TruthValue {
	return models.TruthValue{
		Strength:   strength,
		Confidence: min(x.Truth.Confidence, y.Truth.Confidence) * discount,
	}.Clamped()
}

// typeInheritanceRule: a ⊑ b ⊢ (a→b).
type typeInheritanceRule struct{ typeRule }

func (r typeInheritanceRule) Validate(atoms []models.Atom) bool {
	a, b, ok := r.pair(atoms)
	return ok && len(atoms) == 2 && r.h.IsSubtype(a, b)
}

func (r typeInheritanceRule) Apply(atoms []models.Atom) []models.Atom {
	tv := typeTruth(atoms[0], atoms[1], 1, 0.9)
	return []models.Atom{derive(models.InheritanceLink, tv, atoms[0].ID, atoms[1].ID)}
}

// typeSubsumptionRule: b subsumes a, graded by how far apart they sit. A
// direct parent subsumes at 0.9 and each further generation costs another
// factor of 0.9.
type typeSubsumptionRule struct{ typeRule }

func (r typeSubsumptionRule) Validate(atoms []models.Atom) bool {
	a, b, ok := r.pair(atoms)
	return ok && len(atoms) == 2 && r.h.IsSubtype(a, b)
}

func (r typeSubsumptionRule) Apply(atoms []models.Atom) []models.Atom {
	a, b, _ := r.pair(atoms)
	generations := r.depth(a) - r.depth(b)
	tv := typeTruth(atoms[0], atoms[1], math.Pow(0.9, float64(generations)), 0.85)
	return []models.Atom{derive(models.SubsetLink, tv, atoms[0].ID, atoms[1].ID)}
}

// typeIntersectionRule relates two unrelated types of one tree by the
// share of the shallower type's constraints they have in common.
type typeIntersectionRule struct{ typeRule }

func (r typeIntersectionRule) Validate(atoms []models.Atom) bool {
	a, b, ok := r.pair(atoms)
	if !ok || len(atoms) != 2 || atoms[0].ID >= atoms[1].ID {
		return false
	}
	return !r.h.IsSubtype(a, b) && !r.h.IsSubtype(b, a) && r.shared(a, b) > 0
}

func (r typeIntersectionRule) Apply(atoms []models.Atom) []models.Atom {
	a, b, _ := r.pair(atoms)
	strength := float64(r.shared(a, b)) / float64(min(r.depth(a), r.depth(b)))
	tv := typeTruth(atoms[0], atoms[1], strength, 1)
	return []models.Atom{derive(models.AndLink, tv, atoms[0].ID, atoms[1].ID)}
}

// typeCompositionRule joins two types at the same depth of one tree into a
// choice between them, graded by the constraints they share.
type typeCompositionRule struct{ typeRule }

func (r typeCompositionRule) Validate(atoms []models.Atom) bool {
	a, b, ok := r.pair(atoms)
	if !ok || len(atoms) != 2 || atoms[0].ID >= atoms[1].ID {
		return false
	}
	return r.depth(a) == r.depth(b) && r.shared(a, b) > 0
}

func (r typeCompositionRule) Apply(atoms []models.Atom) []models.Atom {
	a, b, _ := r.pair(atoms)
	strength := float64(r.shared(a, b)) / float64(max(r.depth(a), r.depth(b)))
	tv := typeTruth(atoms[0], atoms[1], strength, 0.8)
	return []models.Atom{derive(models.OrLink, tv, atoms[0].ID, atoms[1].ID)}
}

// typeConstraintRule: how far type a satisfies the abstract type b, as the
// share of b's constraints a meets.
type typeConstraintRule struct{ typeRule }

func (r typeConstraintRule) Validate(atoms []models.Atom) bool {
	a, b, ok := r.pair(atoms)
	if !ok || len(atoms) != 2 || !r.h.IsAbstract(b) {
		return false
	}
	return !r.h.IsSubtype(b, a) && r.shared(a, b) > 0
}

func (r typeConstraintRule) Apply(atoms []models.Atom) []models.Atom {
	a, b, _ := r.pair(atoms)
	strength := float64(r.shared(a, b)) / float64(r.depth(b))
	tv := typeTruth(atoms[0], atoms[1], strength, 0.9)
	return []models.Atom{derive(models.ImplicationLink, tv, atoms[0].ID, atoms[1].ID)}
}

// typeVarianceRule: under a Covariant node, a ⊑ b carries over as
// v:(a⇒b); under a Contravariant node it is b ⊑ a that does.
type typeVarianceRule struct{ typeRule }

func (typeVarianceRule) Premises() []matching.Pattern {
	return []matching.Pattern{
		matching.Var("a", models.TypeNode),
		matching.Var("b", models.TypeNode),
		matching.Var("v", models.ConceptNode),
	}
}

func (r typeVarianceRule) Validate(atoms []models.Atom) bool {
	if len(atoms) != 3 {
		return false
	}
	a, b, ok := r.pair(atoms)
	v := atoms[2]
	if !ok || v.Type != models.ConceptNode || v.Truth == nil {
		return false
	}
	switch v.Name {
	case Covariant:
		return r.h.IsSubtype(a, b)
	case Contravariant:
		return r.h.IsSubtype(b, a)
	}
	return false
}

func (r typeVarianceRule) Apply(atoms []models.Atom) []models.Atom {
	tv := typeTruth(atoms[0], atoms[1], 1, 0.9)
	return []models.Atom{derive(models.ContextualImplicationLink, tv, atoms[2].ID, atoms[0].ID, atoms[1].ID)}
}
