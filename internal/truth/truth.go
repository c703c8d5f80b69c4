// Package truth implements the truth-value algebra shared by every
// inference rule. Every function returns values clamped into [0, 1].
package truth

import (
	"math"

	"github.com/nvandessel/atomspace/internal/models"
)

// Confidence discounts applied by each inference form. Weaker forms of
// inference yield less certain conclusions.
const (
	DeductionDiscount = 0.9
	InductionDiscount = 0.8
	AbductionDiscount = 0.7
	AnalogyDiscount   = 0.6
)

// RevisionK damps revised confidence. With k=1 the result is the mean of
// the noisy-or of both confidences and zero.
const RevisionK = 1.0

// Revision merges two truth values about the same proposition. Strength is
// the confidence-weighted mean and confidence is (c1+c2-c1*c2)/(1+k), so a
// revised value is never more confident than the stronger input.
func Revision(a, b models.TruthValue) models.TruthValue {
	a, b = a.Clamped(), b.Clamped()
	total := a.Confidence + b.Confidence
	if total == 0 {
		return tv((a.Strength+b.Strength)/2, 0)
	}
	strength := (a.Confidence*a.Strength + b.Confidence*b.Strength) / total
	confidence := (total - a.Confidence*b.Confidence) / (1 + RevisionK)
	return tv(strength, confidence)
}

// Deduction chains A→B and B→C into A→C.
func Deduction(ab, bc models.TruthValue) models.TruthValue {
	ab, bc = ab.Clamped(), bc.Clamped()
	return tv(ab.Strength*bc.Strength, ab.Confidence*bc.Confidence*DeductionDiscount)
}

// Induction generalizes from two premises sharing a subject.
func Induction(ab, ac models.TruthValue) models.TruthValue {
	ab, ac = ab.Clamped(), ac.Clamped()
	denom := ab.Strength + ac.Strength - ab.Strength*ac.Strength
	strength := 0.0
	if denom > 0 {
		strength = ab.Strength * ac.Strength / denom
	}
	return tv(strength, ab.Confidence*ac.Confidence*InductionDiscount)
}

// Abduction infers a shared cause from two premises sharing a predicate.
func Abduction(ac, bc models.TruthValue) models.TruthValue {
	ac, bc = ac.Clamped(), bc.Clamped()
	return tv(math.Sqrt(ac.Strength*bc.Strength), ac.Confidence*bc.Confidence*AbductionDiscount)
}

// Analogy transfers a relation across a similarity.
func Analogy(sim, rel models.TruthValue) models.TruthValue {
	sim, rel = sim.Clamped(), rel.Clamped()
	return tv(sim.Strength*rel.Strength, sim.Confidence*rel.Confidence*AnalogyDiscount)
}

// ModusPonens derives B from A and A→B. It is deduction with the premise
// taking the place of the first link.
func ModusPonens(a, ab models.TruthValue) models.TruthValue {
	return Deduction(a, ab)
}

// Intersection is the fuzzy conjunction of two truth values.
func Intersection(a, b models.TruthValue) models.TruthValue {
	return tv(math.Min(a.Strength, b.Strength), math.Min(a.Confidence, b.Confidence))
}

// Union is the fuzzy disjunction of two truth values.
func Union(a, b models.TruthValue) models.TruthValue {
	return tv(math.Max(a.Strength, b.Strength), math.Min(a.Confidence, b.Confidence))
}

// Complement negates the strength and keeps the confidence.
func Complement(a models.TruthValue) models.TruthValue {
	return tv(1-a.Strength, a.Confidence)
}

// Symmetric returns the truth value of the reversed statement of a
// symmetric relation, discounted slightly for the extra step.
func Symmetric(a models.TruthValue) models.TruthValue {
	return tv(a.Strength, a.Confidence*DeductionDiscount)
}

// MutualInheritance turns A→B and B→A into the similarity of A and B.
func MutualInheritance(ab, ba models.TruthValue) models.TruthValue {
	ab, ba = ab.Clamped(), ba.Clamped()
	denom := ab.Strength + ba.Strength - ab.Strength*ba.Strength
	strength := 0.0
	if denom > 0 {
		strength = ab.Strength * ba.Strength / denom
	}
	return tv(strength, math.Min(ab.Confidence, ba.Confidence)*DeductionDiscount)
}

func tv(strength, confidence float64) models.TruthValue {
	return models.TruthValue{Strength: strength, Confidence: confidence}.Clamped()
}
