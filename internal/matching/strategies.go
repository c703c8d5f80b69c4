package matching

import (
	"slices"

	"github.com/nvandessel/atomspace/internal/models"
)

// Strategy matches one kind of pattern against one atom.
type Strategy interface {
	Name() string
	CanHandle(p Pattern) bool
	Match(m *Matcher, atom models.Atom, p Pattern, ctx *matchContext) MatchResult
}

// DefaultStrategies returns the built-in strategies in dispatch order. The
// literal strategy accepts every pattern and must come last.
func DefaultStrategies() []Strategy {
	return []Strategy{
		recursiveStrategy{},
		logicalStrategy{},
		variableStrategy{},
		literalStrategy{},
	}
}

// literalStrategy compares type, name and outgoing structure.
type literalStrategy struct{}

func (literalStrategy) Name() string             { return "literal" }
func (literalStrategy) CanHandle(p Pattern) bool { return true }

func (literalStrategy) Match(m *Matcher, atom models.Atom, p Pattern, ctx *matchContext) MatchResult {
	if p.Type != "" && !m.hierarchy.IsSubtype(atom.Type, p.Type) {
		return noMatch()
	}
	if p.Name != "" && atom.Name != p.Name {
		return noMatch()
	}
	return m.matchOutgoing(atom, p, ctx)
}

// variableStrategy binds an atom to a name or checks an existing binding.
type variableStrategy struct{}

func (variableStrategy) Name() string             { return "variable" }
func (variableStrategy) CanHandle(p Pattern) bool { return p.IsVariable }

func (variableStrategy) Match(m *Matcher, atom models.Atom, p Pattern, ctx *matchContext) MatchResult {
	if !m.validator.Admits(atom.Type, p.Type, p.TypeRestriction) {
		return noMatch()
	}
	if ctx.types != nil {
		if admissible := ctx.types.Admissible(p.VariableName); admissible != nil && !slices.Contains(admissible, atom.Type) {
			return noMatch()
		}
	}
	if p.Name != "" && atom.Name != p.Name {
		return noMatch()
	}

	if bound, ok := ctx.bindings[p.VariableName]; ok {
		if bound.ID != atom.ID {
			return noMatch()
		}
	}

	saved := ctx.save()
	ctx.bindings[p.VariableName] = atom
	r := m.matchOutgoing(atom, p, ctx)
	if !r.Matched {
		ctx.restore(saved)
		return noMatch()
	}
	return r
}

// logicalStrategy implements AND, OR and NOT.
type logicalStrategy struct{}

func (logicalStrategy) Name() string             { return "logical" }
func (logicalStrategy) CanHandle(p Pattern) bool { return p.Operator != "" }

func (logicalStrategy) Match(m *Matcher, atom models.Atom, p Pattern, ctx *matchContext) MatchResult {
	switch p.Operator {
	case OpAnd:
		saved := ctx.save()
		results := make([]MatchResult, 0, len(p.Patterns))
		for _, sub := range p.Patterns {
			r := m.dispatch(atom, sub, ctx)
			if !r.Matched {
				ctx.restore(saved)
				return noMatch()
			}
			results = append(results, r)
		}
		return Merge(results...)

	case OpOr:
		for _, sub := range p.Patterns {
			saved := ctx.save()
			r := m.dispatch(atom, sub, ctx)
			if r.Matched {
				return r
			}
			ctx.restore(saved)
		}
		return noMatch()

	case OpNot:
		saved := ctx.save()
		r := m.dispatch(atom, p.Patterns[0], ctx)
		ctx.restore(saved)
		if r.Matched {
			return noMatch()
		}
		return ctx.result(atom)
	}
	return noMatch()
}

// recursiveStrategy applies the pattern to the atom and then to everything
// reachable through outgoing edges, depth first.
type recursiveStrategy struct{}

func (recursiveStrategy) Name() string             { return "recursive" }
func (recursiveStrategy) CanHandle(p Pattern) bool { return p.Recursive != nil }

func (s recursiveStrategy) Match(m *Matcher, atom models.Atom, p Pattern, ctx *matchContext) MatchResult {
	base := p.withoutRecursion()
	root := m.dispatch(atom, base, ctx)
	if !root.Matched {
		return noMatch()
	}
	if !p.Recursive.FollowLinks {
		return root
	}

	maxDepth := p.Recursive.MaxDepth
	if maxDepth == 0 {
		maxDepth = DefaultMaxDepth
	}
	t := traversal{
		m:        m,
		base:     base,
		ctx:      ctx,
		maxDepth: maxDepth,
		detect:   p.Recursive.DetectCycles,
		result:   root,
		path:     []string{atom.ID},
	}
	t.walk(atom, 0)
	return t.result
}

type traversal struct {
	m        *Matcher
	base     Pattern
	ctx      *matchContext
	maxDepth int
	detect   bool
	result   MatchResult
	path     []string
}

func (t *traversal) walk(atom models.Atom, depth int) {
	for _, id := range atom.Outgoing {
		if t.detect && slices.Contains(t.path, id) {
			cycle := append(slices.Clone(t.path), id)
			t.result.CyclicPaths = append(t.result.CyclicPaths, cycle)
			continue
		}
		if depth+1 > t.maxDepth {
			continue
		}
		target, ok := t.m.view.Get(id)
		if !ok {
			continue
		}

		child := t.m.dispatch(target, t.base, t.ctx.scope(t.ctx.depth+depth+1))
		if child.Matched {
			merged := Merge(t.result, child)
			merged.RecursiveDepth = max(merged.RecursiveDepth, depth+1)
			t.result = merged
		}

		t.path = append(t.path, id)
		t.walk(target, depth+1)
		t.path = t.path[:len(t.path)-1]
	}
}
