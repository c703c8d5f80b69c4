package matching

import (
	"maps"

	"github.com/nvandessel/atomspace/internal/models"
	"github.com/nvandessel/atomspace/internal/typesys"
)

// matchContext carries the state threaded through one top-level match.
type matchContext struct {
	bindings map[string]models.Atom
	types    *typesys.InferenceContext
	depth    int
}

func newContext(types *typesys.InferenceContext, bindings map[string]models.Atom) *matchContext {
	ctx := &matchContext{
		bindings: make(map[string]models.Atom, len(bindings)),
		types:    types,
	}
	maps.Copy(ctx.bindings, bindings)
	return ctx
}

// nested returns a context one outgoing level deeper that shares bindings.
func (c *matchContext) nested() *matchContext {
	return &matchContext{bindings: c.bindings, types: c.types, depth: c.depth + 1}
}

// scope returns a context at the given depth with its own binding scope.
func (c *matchContext) scope(depth int) *matchContext {
	return &matchContext{bindings: make(map[string]models.Atom), types: c.types, depth: depth}
}

func (c *matchContext) save() map[string]models.Atom {
	return maps.Clone(c.bindings)
}

// restore rolls bindings back to a saved state in place, so that nested
// contexts sharing the map see the rollback too.
func (c *matchContext) restore(saved map[string]models.Atom) {
	clear(c.bindings)
	maps.Copy(c.bindings, saved)
}

func (c *matchContext) result(atoms ...models.Atom) MatchResult {
	return MatchResult{
		Matched:      true,
		MatchedAtoms: atoms,
		Bindings:     maps.Clone(c.bindings),
		Depth:        c.depth,
	}
}
