package pln

import (
	"math"

	"github.com/nvandessel/atomspace/internal/attention"
	"github.com/nvandessel/atomspace/internal/matching"
	"github.com/nvandessel/atomspace/internal/models"
	"github.com/nvandessel/atomspace/internal/truth"
)

// Built-in rule names.
const (
	RuleDeduction           = "Deduction"
	RuleInheritance         = "Inheritance"
	RuleSubsetDeduction     = "SubsetDeduction"
	RuleInduction           = "Induction"
	RuleAbduction           = "Abduction"
	RuleAnalogy             = "Analogy"
	RuleModusPonens         = "ModusPonens"
	RuleSymmetry            = "Symmetry"
	RuleSimilarity          = "Similarity"
	RuleHebbianComposition  = "HebbianComposition"
	RuleAttentionModulated  = "AttentionModulated"
	RuleContextualDeduction = "ContextualDeduction"
)

// MinAttentionCorrelation is the correlation two atoms need before the
// attention-modulated rule relates them.
const MinAttentionCorrelation = 0.8

// DefaultRules returns the built-in rule set. Rules that weigh attention
// normalize it with cfg.
func DefaultRules(cfg attention.Config) []Rule {
	return []Rule{
		chainRule{baseRule{RuleDeduction, CategoryDeductive, 2, 1}, models.ImplicationLink, nil},
		chainRule{baseRule{RuleInheritance, CategoryDeductive, 2, 1}, models.InheritanceLink, nil},
		chainRule{baseRule{RuleSubsetDeduction, CategoryDeductive, 2, 1.5}, models.SubsetLink, &cfg},
		inductionRule{baseRule{RuleInduction, CategoryInductive, 2, 1.5}},
		abductionRule{baseRule{RuleAbduction, CategoryAbductive, 2, 1.5}},
		analogyRule{baseRule{RuleAnalogy, CategoryAnalogical, 2, 2}},
		modusPonensRule{baseRule{RuleModusPonens, CategoryDeductive, 2, 1}},
		symmetryRule{baseRule{RuleSymmetry, CategoryIntensional, 1, 0.5}},
		similarityRule{baseRule{RuleSimilarity, CategoryIntensional, 2, 1}},
		hebbianCompositionRule{baseRule{RuleHebbianComposition, CategoryFuzzy, 2, 2}},
		attentionModulatedRule{baseRule{RuleAttentionModulated, CategoryFuzzy, 2, 2.5}, cfg},
		contextualDeductionRule{baseRule{RuleContextualDeduction, CategoryContextual, 3, 3}, cfg},
	}
}

// binary reports whether a is a link of type t with two outgoing atoms and
// a truth value.
func binary(a models.Atom, t models.AtomType) bool {
	return a.Type == t && len(a.Outgoing) == 2 && a.Truth != nil
}

func derive(t models.AtomType, tv models.TruthValue, outgoing ...string) models.Atom {
	return models.Atom{Type: t, Outgoing: outgoing, Truth: &tv}
}

// chainRule is transitivity over one link type: (a→b), (b→c) ⊢ (a→c).
// When attn is set, the derived confidence is scaled by the product of the
// premises' normalized STI.
type chainRule struct {
	baseRule
	link models.AtomType
	attn *attention.Config
}

func (r chainRule) Premises() []matching.Pattern {
	return []matching.Pattern{
		matching.Link(r.link, matching.V("a"), matching.V("b")),
		matching.Link(r.link, matching.V("b"), matching.V("c")),
	}
}

func (r chainRule) Validate(atoms []models.Atom) bool {
	if len(atoms) != 2 || !binary(atoms[0], r.link) || !binary(atoms[1], r.link) {
		return false
	}
	ab, bc := atoms[0], atoms[1]
	return ab.Outgoing[1] == bc.Outgoing[0] && ab.Outgoing[0] != bc.Outgoing[1]
}

func (r chainRule) Apply(atoms []models.Atom) []models.Atom {
	ab, bc := atoms[0], atoms[1]
	tv := truth.Deduction(*ab.Truth, *bc.Truth)
	if r.attn != nil {
		tv.Confidence *= r.attn.NormalizeSTI(ab.STI()) * r.attn.NormalizeSTI(bc.STI())
	}
	return []models.Atom{derive(r.link, tv, ab.Outgoing[0], bc.Outgoing[1])}
}

// inductionRule: (a→b), (a→c) ⊢ (b→c).
type inductionRule struct{ baseRule }

func (inductionRule) Premises() []matching.Pattern {
	return []matching.Pattern{
		matching.Link(models.InheritanceLink, matching.V("a"), matching.V("b")),
		matching.Link(models.InheritanceLink, matching.V("a"), matching.V("c")),
	}
}

func (inductionRule) Validate(atoms []models.Atom) bool {
	if len(atoms) != 2 || !binary(atoms[0], models.InheritanceLink) || !binary(atoms[1], models.InheritanceLink) {
		return false
	}
	return atoms[0].Outgoing[0] == atoms[1].Outgoing[0] && atoms[0].Outgoing[1] != atoms[1].Outgoing[1]
}

func (inductionRule) Apply(atoms []models.Atom) []models.Atom {
	ab, ac := atoms[0], atoms[1]
	tv := truth.Induction(*ab.Truth, *ac.Truth)
	return []models.Atom{derive(models.InheritanceLink, tv, ab.Outgoing[1], ac.Outgoing[1])}
}

// abductionRule: (a→c), (b→c) ⊢ (a→b).
type abductionRule struct{ baseRule }

func (abductionRule) Premises() []matching.Pattern {
	return []matching.Pattern{
		matching.Link(models.InheritanceLink, matching.V("a"), matching.V("c")),
		matching.Link(models.InheritanceLink, matching.V("b"), matching.V("c")),
	}
}

func (abductionRule) Validate(atoms []models.Atom) bool {
	if len(atoms) != 2 || !binary(atoms[0], models.InheritanceLink) || !binary(atoms[1], models.InheritanceLink) {
		return false
	}
	return atoms[0].Outgoing[1] == atoms[1].Outgoing[1] && atoms[0].Outgoing[0] != atoms[1].Outgoing[0]
}

func (abductionRule) Apply(atoms []models.Atom) []models.Atom {
	ac, bc := atoms[0], atoms[1]
	tv := truth.Abduction(*ac.Truth, *bc.Truth)
	return []models.Atom{derive(models.InheritanceLink, tv, ac.Outgoing[0], bc.Outgoing[0])}
}

// analogyRule: (a~b), (a→c) ⊢ (b→c). Similarity is symmetric, so a may sit
// at either end of the similarity link.
type analogyRule struct{ baseRule }

func (analogyRule) Premises() []matching.Pattern {
	return []matching.Pattern{
		matching.Typed(models.SimilarityLink),
		matching.Link(models.InheritanceLink, matching.V("a"), matching.V("c")),
	}
}

func (analogyRule) Adjacent() bool { return true }

func (analogyRule) counterpart(sim, inh models.Atom) (string, bool) {
	switch inh.Outgoing[0] {
	case sim.Outgoing[0]:
		return sim.Outgoing[1], true
	case sim.Outgoing[1]:
		return sim.Outgoing[0], true
	}
	return "", false
}

func (r analogyRule) Validate(atoms []models.Atom) bool {
	if len(atoms) != 2 || !binary(atoms[0], models.SimilarityLink) || !binary(atoms[1], models.InheritanceLink) {
		return false
	}
	b, ok := r.counterpart(atoms[0], atoms[1])
	return ok && b != atoms[1].Outgoing[1] && atoms[0].Outgoing[0] != atoms[0].Outgoing[1]
}

func (r analogyRule) Apply(atoms []models.Atom) []models.Atom {
	sim, inh := atoms[0], atoms[1]
	b, _ := r.counterpart(sim, inh)
	tv := truth.Analogy(*sim.Truth, *inh.Truth)
	return []models.Atom{derive(models.InheritanceLink, tv, b, inh.Outgoing[1])}
}

// modusPonensRule: a, (a⇒b) ⊢ b. The conclusion already exists, so the
// derived atom is a reference the engine revises.
type modusPonensRule struct{ baseRule }

func (modusPonensRule) Premises() []matching.Pattern {
	return []matching.Pattern{
		matching.Var("a"),
		matching.Link(models.ImplicationLink, matching.V("a"), matching.V("b")),
	}
}

func (modusPonensRule) Validate(atoms []models.Atom) bool {
	if len(atoms) != 2 || atoms[0].Truth == nil || !binary(atoms[1], models.ImplicationLink) {
		return false
	}
	return atoms[1].Outgoing[0] == atoms[0].ID && atoms[1].Outgoing[1] != atoms[0].ID
}

func (modusPonensRule) Apply(atoms []models.Atom) []models.Atom {
	a, ab := atoms[0], atoms[1]
	tv := truth.ModusPonens(*a.Truth, *ab.Truth)
	return []models.Atom{{ID: ab.Outgoing[1], Truth: &tv}}
}

// symmetryRule: (a~b) ⊢ (b~a) for similarity and equivalence.
type symmetryRule struct{ baseRule }

func (symmetryRule) Premises() []matching.Pattern {
	return []matching.Pattern{
		matching.Or(matching.Typed(models.SimilarityLink), matching.Typed(models.EquivalenceLink)),
	}
}

func (symmetryRule) Validate(atoms []models.Atom) bool {
	if len(atoms) != 1 {
		return false
	}
	a := atoms[0]
	if !binary(a, models.SimilarityLink) && !binary(a, models.EquivalenceLink) {
		return false
	}
	return a.Outgoing[0] != a.Outgoing[1]
}

func (symmetryRule) Apply(atoms []models.Atom) []models.Atom {
	a := atoms[0]
	return []models.Atom{derive(a.Type, truth.Symmetric(*a.Truth), a.Outgoing[1], a.Outgoing[0])}
}

// similarityRule: (a→b), (b→a) ⊢ (a~b).
type similarityRule struct{ baseRule }

func (similarityRule) Premises() []matching.Pattern {
	return []matching.Pattern{
		matching.Link(models.InheritanceLink, matching.V("a"), matching.V("b")),
		matching.Link(models.InheritanceLink, matching.V("b"), matching.V("a")),
	}
}

func (similarityRule) Validate(atoms []models.Atom) bool {
	if len(atoms) != 2 || !binary(atoms[0], models.InheritanceLink) || !binary(atoms[1], models.InheritanceLink) {
		return false
	}
	ab, ba := atoms[0], atoms[1]
	// Each mutual pair is taken once, in ID order.
	return ab.ID < ba.ID &&
		ab.Outgoing[0] == ba.Outgoing[1] &&
		ab.Outgoing[1] == ba.Outgoing[0] &&
		ab.Outgoing[0] != ab.Outgoing[1]
}

func (similarityRule) Apply(atoms []models.Atom) []models.Atom {
	ab, ba := atoms[0], atoms[1]
	tv := truth.MutualInheritance(*ab.Truth, *ba.Truth)
	return []models.Atom{derive(models.SimilarityLink, tv, ab.Outgoing[0], ab.Outgoing[1])}
}

// hebbianCompositionRule: two associations sharing one endpoint relate the
// other two endpoints attentionally.
type hebbianCompositionRule struct{ baseRule }

func (hebbianCompositionRule) Premises() []matching.Pattern {
	return []matching.Pattern{
		matching.Typed(models.HebbianLink),
		matching.Typed(models.HebbianLink),
	}
}

func (hebbianCompositionRule) Adjacent() bool { return true }

// ends returns the endpoints of x and y that are not shared, ordered, when
// exactly one endpoint is shared.
func (hebbianCompositionRule) ends(x, y models.Atom) (string, string, bool) {
	for i, a := range x.Outgoing {
		for j, b := range y.Outgoing {
			if a != b {
				continue
			}
			p, q := x.Outgoing[1-i], y.Outgoing[1-j]
			if p == q {
				return "", "", false
			}
			if p > q {
				p, q = q, p
			}
			return p, q, true
		}
	}
	return "", "", false
}

func (r hebbianCompositionRule) Validate(atoms []models.Atom) bool {
	if len(atoms) != 2 || !binary(atoms[0], models.HebbianLink) || !binary(atoms[1], models.HebbianLink) {
		return false
	}
	if atoms[0].ID >= atoms[1].ID {
		return false
	}
	_, _, ok := r.ends(atoms[0], atoms[1])
	return ok
}

func (r hebbianCompositionRule) Apply(atoms []models.Atom) []models.Atom {
	p, q, _ := r.ends(atoms[0], atoms[1])
	tv := truth.Deduction(*atoms[0].Truth, *atoms[1].Truth)
	return []models.Atom{derive(models.AttentionalLink, tv, p, q)}
}

// attentionModulatedRule relates two attended nodes whose importance moves
// together.
type attentionModulatedRule struct {
	baseRule
	cfg attention.Config
}

func (attentionModulatedRule) Premises() []matching.Pattern {
	return []matching.Pattern{
		matching.Var("a", models.Node),
		matching.Var("b", models.Node),
	}
}

// Correlation is 70% STI agreement and 30% LTI agreement, each measured
// over the width of its range.
func (r attentionModulatedRule) Correlation(a, b models.Atom) float64 {
	stiSpan := r.cfg.MaxSTI - r.cfg.MinSTI
	ltiSpan := r.cfg.MaxLTI - r.cfg.MinLTI
	sti := 1 - math.Abs(a.STI()-b.STI())/stiSpan
	lti := 1 - math.Abs(a.LTI()-b.LTI())/ltiSpan
	return 0.7*sti + 0.3*lti
}

func (r attentionModulatedRule) Validate(atoms []models.Atom) bool {
	if len(atoms) != 2 {
		return false
	}
	a, b := atoms[0], atoms[1]
	if a.IsLink() || b.IsLink() || a.Truth == nil || b.Truth == nil || a.Attention == nil || b.Attention == nil {
		return false
	}
	if a.ID >= b.ID || a.STI() <= 0 || b.STI() <= 0 {
		return false
	}
	return r.Correlation(a, b) >= MinAttentionCorrelation
}

func (r attentionModulatedRule) Apply(atoms []models.Atom) []models.Atom {
	a, b := atoms[0], atoms[1]
	corr := r.Correlation(a, b)
	tv := models.TruthValue{
		Strength:   (a.Truth.Strength + b.Truth.Strength) * corr / 2,
		Confidence: min(a.Truth.Confidence, b.Truth.Confidence) * corr,
	}.Clamped()
	return []models.Atom{derive(models.AttentionalLink, tv, a.ID, b.ID)}
}

// contextualDeductionRule is deduction that holds within a context:
// ctx, (a⇒b), (b⇒c) ⊢ ctx:(a⇒c). The context's truth scales the result
// and its attention weighs more than the premises'.
type contextualDeductionRule struct {
	baseRule
	cfg attention.Config
}

func (contextualDeductionRule) Premises() []matching.Pattern {
	return []matching.Pattern{
		matching.Var("ctx", models.ContextNode),
		matching.Link(models.ImplicationLink, matching.V("a"), matching.V("b")),
		matching.Link(models.ImplicationLink, matching.V("b"), matching.V("c")),
	}
}

func (contextualDeductionRule) Validate(atoms []models.Atom) bool {
	if len(atoms) != 3 || atoms[0].Type != models.ContextNode || atoms[0].Truth == nil {
		return false
	}
	return chainRule{link: models.ImplicationLink}.Validate(atoms[1:])
}

func (r contextualDeductionRule) Apply(atoms []models.Atom) []models.Atom {
	ctx, ab, bc := atoms[0], atoms[1], atoms[2]
	tv := truth.Deduction(*ab.Truth, *bc.Truth)
	weight := (1.5*r.cfg.NormalizeSTI(ctx.STI()) + r.cfg.NormalizeSTI(ab.STI()) + r.cfg.NormalizeSTI(bc.STI())) / 3.5
	tv = models.TruthValue{
		Strength:   tv.Strength * ctx.Truth.Strength,
		Confidence: tv.Confidence * ctx.Truth.Confidence * weight,
	}.Clamped()
	return []models.Atom{derive(models.ContextualImplicationLink, tv, ctx.ID, ab.Outgoing[0], bc.Outgoing[1])}
}
