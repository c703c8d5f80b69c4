package matching

import (
	"sort"

	"github.com/nvandessel/atomspace/internal/models"
	"github.com/nvandessel/atomspace/internal/store"
	"github.com/nvandessel/atomspace/internal/typesys"
)

// Matcher runs patterns against a store view.
type Matcher struct {
	view       store.View
	hierarchy  *typesys.Hierarchy
	inference  *typesys.InferenceEngine
	validator  *typesys.Validator
	syntax     *Validator
	strategies []Strategy
}

// New creates a matcher over view using the default strategies.
func New(view store.View, h *typesys.Hierarchy) *Matcher {
	return &Matcher{
		view:       view,
		hierarchy:  h,
		inference:  typesys.NewInferenceEngine(h),
		validator:  typesys.NewValidator(h),
		syntax:     NewValidator(h),
		strategies: DefaultStrategies(),
	}
}

// WithView returns a matcher sharing m's configuration over another view,
// such as the working copy of a step.
func (m *Matcher) WithView(view store.View) *Matcher {
	c := *m
	c.view = view
	return &c
}

// Validate reports syntax errors in p without matching anything.
func (m *Matcher) Validate(p Pattern) error {
	return m.syntax.Validate(p)
}

// Match scans the view and returns one result per atom that matches p.
// Syntax errors are returned as StructuralErrors. A pattern whose types
// cannot be satisfied yields no results and no error.
//
// The scan is O(atoms), narrowed to the matching type buckets when the
// pattern declares a type.
func (m *Matcher) Match(p Pattern) ([]MatchResult, error) {
	if err := m.syntax.Validate(p); err != nil {
		return nil, err
	}
	types := m.inference.Infer(Terms(p)...)
	if !types.Consistent() {
		return nil, nil
	}

	var results []MatchResult
	for _, atom := range m.candidates(p) {
		ctx := newContext(types, nil)
		if r := m.dispatch(atom, p, ctx); r.Matched {
			results = append(results, r)
		}
	}
	return results, nil
}

// MatchAtom matches p against a single atom, starting from the given
// bindings. The bindings map is not modified.
func (m *Matcher) MatchAtom(atom models.Atom, p Pattern, bindings map[string]models.Atom) (MatchResult, error) {
	if err := m.syntax.Validate(p); err != nil {
		return noMatch(), err
	}
	types := m.inference.Infer(Terms(p)...)
	if !types.Consistent() {
		return noMatch(), nil
	}
	return m.dispatch(atom, p, newContext(types, bindings)), nil
}

// dispatch hands p to the first strategy that accepts it.
func (m *Matcher) dispatch(atom models.Atom, p Pattern, ctx *matchContext) MatchResult {
	if p.Operator == "" && !m.validator.Admits(atom.Type, p.Type, p.TypeRestriction) {
		return noMatch()
	}
	for _, s := range m.strategies {
		if s.CanHandle(p) {
			return s.Match(m, atom, p, ctx)
		}
	}
	return noMatch()
}

// matchOutgoing matches the outgoing elements of p position by position,
// threading bindings left to right. A pattern without outgoing elements
// places no constraint on the atom's outgoing set.
func (m *Matcher) matchOutgoing(atom models.Atom, p Pattern, ctx *matchContext) MatchResult {
	if len(p.Outgoing) == 0 {
		return ctx.result(atom)
	}
	if len(p.Outgoing) != len(atom.Outgoing) {
		return noMatch()
	}

	saved := ctx.save()
	results := []MatchResult{ctx.result(atom)}
	for i, e := range p.Outgoing {
		id := atom.Outgoing[i]
		if e.Pattern == nil {
			if e.ID != id {
				ctx.restore(saved)
				return noMatch()
			}
			continue
		}
		target, ok := m.view.Get(id)
		if !ok {
			ctx.restore(saved)
			return noMatch()
		}
		r := m.dispatch(target, *e.Pattern, ctx.nested())
		if !r.Matched {
			ctx.restore(saved)
			return noMatch()
		}
		results = append(results, r)
	}

	merged := Merge(results...)
	merged.Bindings = ctx.save()
	return merged
}

// candidates narrows the scan to the type buckets p can match.
func (m *Matcher) candidates(p Pattern) []models.Atom {
	if p.Operator != "" || p.IsVariable || p.Type == "" {
		return m.view.All()
	}
	var out []models.Atom
	for _, t := range m.hierarchy.ConcreteSubtypes(p.Type) {
		out = append(out, m.view.ByType(t)...)
	}
	sortAtoms(out)
	return out
}

// Terms converts p into the structural terms the type inference engine
// reasons about. Alternatives under OR and NOT bind nothing for certain, so
// they contribute no constraints.
func Terms(p Pattern) []*typesys.Term {
	switch p.Operator {
	case OpAnd:
		var out []*typesys.Term
		for _, sub := range p.Patterns {
			out = append(out, Terms(sub)...)
		}
		return out
	case OpOr, OpNot:
		return nil
	}
	return []*typesys.Term{term(p)}
}

func term(p Pattern) *typesys.Term {
	t := &typesys.Term{Type: p.Type}
	if p.IsVariable {
		t.Variable = p.VariableName
		t.Restriction = p.TypeRestriction
	}
	if len(p.Outgoing) > 0 {
		t.Args = make([]*typesys.Term, len(p.Outgoing))
		for i, e := range p.Outgoing {
			if e.Pattern != nil && e.Pattern.Operator == "" {
				t.Args[i] = term(*e.Pattern)
			}
		}
	}
	return t
}

func sortAtoms(atoms []models.Atom) {
	sort.Slice(atoms, func(i, j int) bool { return atoms[i].ID < atoms[j].ID })
}
