package pln

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/nvandessel/atomspace/internal/matching"
	"github.com/nvandessel/atomspace/internal/models"
	"github.com/nvandessel/atomspace/internal/store"
	"github.com/nvandessel/atomspace/internal/typesys"
)

// candidate is one ordered premise tuple.
type candidate struct {
	atoms []models.Atom
	key   string
}

func newCandidate(atoms []models.Atom) candidate {
	ids := make([]string, len(atoms))
	for i, a := range atoms {
		ids[i] = a.ID
	}
	return candidate{atoms: atoms, key: strings.Join(ids, ",")}
}

func (c candidate) ids() []string {
	out := make([]string, len(c.atoms))
	for i, a := range c.atoms {
		out[i] = a.ID
	}
	return out
}

// Eligible reports whether a may serve as a premise: it has a confident
// enough truth value and, when it takes part in the attention economy, STI
// above the attention threshold.
func (c Config) Eligible(a models.Atom) bool {
	if a.Truth == nil || a.Truth.Confidence < c.ConfidenceThreshold {
		return false
	}
	return a.Attention == nil || a.Attention.STI > c.AttentionThreshold
}

func (e *Engine) eligible(view store.View) []models.Atom {
	var out []models.Atom
	for _, a := range view.All() {
		if e.cfg.Eligible(a) {
			out = append(out, a)
		}
	}
	return out
}

// candidates joins each rule's premise patterns over the eligible atoms of
// view and returns the distinct tuples, in rule order. A rule contributes
// at most MaxCandidates tuples, and only tuples it validates and has not
// yet fired on, so a large pool stops generating early instead of being
// trimmed afterwards.
func (e *Engine) candidates(m *matching.Matcher, view *store.Store, rules []Rule) ([]candidate, error) {
	pool := e.eligible(view)
	seen := make(map[string]bool)
	var out []candidate

	for _, rule := range rules {
		fresh := func(t []models.Atom) bool {
			return rule.Validate(t) && !e.applied[rule.Name()+"|"+newCandidate(t).key]
		}
		var tuples [][]models.Atom
		if premises := rule.Premises(); premises != nil {
			j := joiner{
				matcher:  m,
				view:     view,
				premises: premises,
				adjacent: isAdjacent(rule),
				limit:    e.cfg.MaxCandidates,
				keep:     fresh,
			}
			var err error
			if tuples, err = j.join(pool); err != nil {
				return nil, fmt.Errorf("rule %s: %w", rule.Name(), err)
			}
		} else {
			tuples = combinations(pool, rule.Arity(), e.cfg.MaxCandidates, fresh)
		}
		for _, t := range tuples {
			c := newCandidate(t)
			if !seen[c.key] {
				seen[c.key] = true
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func isAdjacent(rule Rule) bool {
	a, ok := rule.(Adjacent)
	return ok && a.Adjacent()
}

// joiner finds tuples of distinct pool atoms that match premises position
// by position with consistent variable bindings. Once a premise's variable
// is bound, later premises that place it in their outgoing set are looked
// up through the store's incoming index rather than scanned.
type joiner struct {
	matcher  *matching.Matcher
	view     *store.Store
	premises []matching.Pattern
	adjacent bool
	limit    int
	keep     func([]models.Atom) bool

	buckets []map[string]models.Atom
	order   [][]models.Atom
	out     [][]models.Atom
	chosen  []models.Atom
	matches int
}

func (j *joiner) join(pool []models.Atom) ([][]models.Atom, error) {
	h := j.view.Hierarchy()
	j.buckets = make([]map[string]models.Atom, len(j.premises))
	j.order = make([][]models.Atom, len(j.premises))
	for i, p := range j.premises {
		j.order[i] = bucket(h, p, pool)
		j.buckets[i] = make(map[string]models.Atom, len(j.order[i]))
		for _, a := range j.order[i] {
			j.buckets[i][a.ID] = a
		}
	}
	j.chosen = make([]models.Atom, 0, len(j.premises))
	if err := j.extend(0, nil); err != nil {
		return nil, err
	}
	return j.out, nil
}

func (j *joiner) full() bool {
	return j.limit > 0 && len(j.out) >= j.limit
}

func (j *joiner) extend(i int, bindings map[string]models.Atom) error {
	if i == len(j.premises) {
		t := slices.Clone(j.chosen)
		if j.keep == nil || j.keep(t) {
			j.out = append(j.out, t)
		}
		return nil
	}
	for _, a := range j.options(i, bindings) {
		if j.full() {
			return nil
		}
		if slices.ContainsFunc(j.chosen, func(c models.Atom) bool { return c.ID == a.ID }) {
			continue
		}
		j.matches++
		r, err := j.matcher.MatchAtom(a, j.premises[i], bindings)
		if err != nil {
			return fmt.Errorf("premise %d: %w", i, err)
		}
		if !r.Matched {
			continue
		}
		j.chosen = append(j.chosen, a)
		if err := j.extend(i+1, r.Bindings); err != nil {
			return err
		}
		j.chosen = j.chosen[:len(j.chosen)-1]
	}
	return nil
}

// options narrows premise i's bucket using what is already bound: the
// bound atom itself for a bound variable, the incoming links of a bound or
// literal outgoing position, or, for adjacent rules, the links touching an
// endpoint of an earlier premise.
func (j *joiner) options(i int, bindings map[string]models.Atom) []models.Atom {
	p := j.premises[i]
	in := j.buckets[i]
	if p.Operator == "" && p.IsVariable {
		if b, ok := bindings[p.VariableName]; ok {
			if a, ok := in[b.ID]; ok {
				return []models.Atom{a}
			}
			return nil
		}
	}
	if p.Operator == "" && p.Recursive == nil {
		for pos, el := range p.Outgoing {
			anchor := el.ID
			if el.Pattern != nil && el.Pattern.IsVariable {
				if b, ok := bindings[el.Pattern.VariableName]; ok {
					anchor = b.ID
				}
			}
			if anchor == "" {
				continue
			}
			var out []models.Atom
			for _, l := range j.view.Incoming(anchor) {
				if a, ok := in[l.ID]; ok && len(l.Outgoing) > pos && l.Outgoing[pos] == anchor {
					out = append(out, a)
				}
			}
			return out
		}
	}
	if j.adjacent && i > 0 {
		return j.incident(in)
	}
	return j.order[i]
}

// incident returns the bucket atoms linked to an outgoing atom of a chosen
// premise, sorted by ID.
func (j *joiner) incident(in map[string]models.Atom) []models.Atom {
	found := make(map[string]models.Atom)
	for _, c := range j.chosen {
		for _, end := range c.Outgoing {
			for _, l := range j.view.Incoming(end) {
				if a, ok := in[l.ID]; ok {
					found[a.ID] = a
				}
			}
		}
	}
	out := make([]models.Atom, 0, len(found))
	for _, a := range found {
		out = append(out, a)
	}
	sort.Slice(out, func(x, y int) bool { return out[x].ID < out[y].ID })
	return out
}

// bucket narrows pool to the atoms whose type p could accept.
func bucket(h *typesys.Hierarchy, p matching.Pattern, pool []models.Atom) []models.Atom {
	var accept []models.AtomType
	switch {
	case p.Operator != "":
		return pool
	case p.Type != "":
		accept = []models.AtomType{p.Type}
	case p.IsVariable && len(p.TypeRestriction) > 0:
		accept = p.TypeRestriction
	default:
		return pool
	}

	var out []models.Atom
	for _, a := range pool {
		for _, t := range accept {
			if h.IsSubtype(a.Type, t) {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// combinations returns k-subsets of pool in index order that keep accepts,
// stopping after limit of them. A non-positive limit means no limit.
func combinations(pool []models.Atom, k, limit int, keep func([]models.Atom) bool) [][]models.Atom {
	if k <= 0 || k > len(pool) {
		return nil
	}
	var out [][]models.Atom
	idx := make([]int, k)
	var rec func(start, depth int) bool
	rec = func(start, depth int) bool {
		if depth == k {
			t := make([]models.Atom, k)
			for i, j := range idx {
				t[i] = pool[j]
			}
			if keep == nil || keep(t) {
				out = append(out, t)
			}
			return limit <= 0 || len(out) < limit
		}
		for i := start; i <= len(pool)-(k-depth); i++ {
			idx[depth] = i
			if !rec(i+1, depth+1) {
				return false
			}
		}
		return true
	}
	rec(0, 0)
	return out
}

// trim keeps at most MaxCandidates tuples, chosen by tournament on mean
// importance, in their original order.
func (e *Engine) trim(cands []candidate) []candidate {
	if len(cands) <= e.cfg.MaxCandidates {
		return cands
	}
	acfg := e.economy.Config()
	idx := e.tournament.SelectIndices(len(cands), e.cfg.MaxCandidates, func(i int) float64 {
		sum := 0.0
		for _, a := range cands[i].atoms {
			sum += acfg.Importance(a)
		}
		return sum / float64(len(cands[i].atoms))
	})
	sort.Ints(idx)
	out := make([]candidate, len(idx))
	for i, j := range idx {
		out[i] = cands[j]
	}
	return out
}
