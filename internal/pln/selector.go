package pln

import (
	"math"
	"sort"

	"github.com/nvandessel/atomspace/internal/attention"
	"github.com/nvandessel/atomspace/internal/models"
)

// RuleContext is the optional situation a rule is scored in.
type RuleContext struct {
	// Goal is the ID of an atom inference should work toward, or "".
	Goal string

	// History reports each rule's past success rate.
	History *Tracker

	// Budget is the computational cost still available this step. When
	// positive, Select leaves out rules that no longer fit in it and cheap
	// rules score higher. Zero means unbounded.
	Budget float64
}

// ScoredRule is a rule with its score for one candidate tuple.
type ScoredRule struct {
	Rule  Rule
	Score float64

	// Component scores for transparency
	PriorityScore     float64
	ImportanceScore   float64
	SignificanceScore float64
	ContextScore      float64
}

// Selector ranks the rules applicable to a candidate tuple.
type Selector struct {
	weights SelectorWeights
	cfg     attention.Config
}

// NewSelector creates a selector. Importance is computed with the economy's
// attention configuration.
func NewSelector(weights SelectorWeights, cfg attention.Config) *Selector {
	return &Selector{weights: weights, cfg: cfg}
}

// Score computes the weighted score of rule for atoms.
func (s *Selector) Score(rule Rule, atoms []models.Atom, rc *RuleContext) ScoredRule {
	scored := ScoredRule{
		Rule:              rule,
		PriorityScore:     rule.Category().Priority(),
		ImportanceScore:   s.importanceScore(atoms),
		SignificanceScore: significanceScore(atoms),
		ContextScore:      s.contextScore(rule, atoms, rc),
	}
	scored.Score = scored.PriorityScore*s.weights.Priority +
		scored.ImportanceScore*s.weights.Importance +
		scored.SignificanceScore*s.weights.Significance +
		scored.ContextScore*s.weights.Context
	return scored
}

// Select returns up to limit rules that validate atoms, best first. Ties
// keep the order of rules. With a positive rc.Budget, the selected rules'
// costs sum to at most the budget; a rule that does not fit is passed over
// for the next cheaper one.
func (s *Selector) Select(rules []Rule, atoms []models.Atom, rc *RuleContext, limit int) []ScoredRule {
	budget := math.Inf(1)
	if rc != nil && rc.Budget > 0 {
		budget = rc.Budget
	}
	selected, _ := s.selectWithin(rules, atoms, rc, limit, budget)
	return selected
}

// selectWithin is Select against an explicit budget. over reports whether
// a validating rule was left out because the budget could not pay for it.
func (s *Selector) selectWithin(rules []Rule, atoms []models.Atom, rc *RuleContext, limit int, budget float64) (selected []ScoredRule, over bool) {
	var scored []ScoredRule
	for _, rule := range rules {
		if rule.Arity() != len(atoms) || !rule.Validate(atoms) {
			continue
		}
		scored = append(scored, s.Score(rule, atoms, rc))
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	for _, sr := range scored {
		if len(selected) == limit {
			break
		}
		cost := sr.Rule.ComputationalCost()
		if cost > budget {
			over = true
			continue
		}
		budget -= cost
		selected = append(selected, sr)
	}
	return selected, over
}

// importanceScore is the mean importance of the atoms. Atoms outside the
// attention economy contribute nothing.
func (s *Selector) importanceScore(atoms []models.Atom) float64 {
	if len(atoms) == 0 {
		return 0
	}
	sum := 0.0
	for _, a := range atoms {
		if a.Attention != nil {
			sum += s.cfg.Importance(a)
		}
	}
	return sum / float64(len(atoms))
}

func significanceScore(atoms []models.Atom) float64 {
	if len(atoms) == 0 {
		return 0
	}
	sum := 0.0
	for _, a := range atoms {
		if a.Truth != nil {
			sum += a.Truth.Significance()
		}
	}
	return sum / float64(len(atoms))
}

// contextScore adds 0.3 when the tuple touches the goal, 0.2 when the rule
// has mostly succeeded before, and up to 0.2 for rules cheap relative to the
// remaining budget.
func (s *Selector) contextScore(rule Rule, atoms []models.Atom, rc *RuleContext) float64 {
	if rc == nil {
		return 0
	}
	score := 0.0
	if rc.Goal != "" && touches(atoms, rc.Goal) {
		score += 0.3
	}
	if rc.History != nil {
		if rate, ok := rc.History.SuccessRate(rule.Name()); ok && rate > 0.5 {
			score += 0.2
		}
	}
	if rc.Budget > 0 {
		score += max(0, (1-rule.ComputationalCost()/rc.Budget)*0.2)
	}
	return score
}

func touches(atoms []models.Atom, id string) bool {
	for _, a := range atoms {
		if a.ID == id {
			return true
		}
		for _, out := range a.Outgoing {
			if out == id {
				return true
			}
		}
	}
	return false
}
