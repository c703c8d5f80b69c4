package matching

import (
	"github.com/nvandessel/atomspace/internal/models"
)

// MatchResult is the outcome of matching one pattern against one atom.
type MatchResult struct {
	Matched bool `json:"matched"`

	// MatchedAtoms lists atoms in traversal order. Duplicates are allowed.
	MatchedAtoms []models.Atom `json:"matched_atoms,omitempty"`

	// Bindings maps each variable name to the atom it was bound to.
	Bindings map[string]models.Atom `json:"bindings,omitempty"`

	// Depth is the deepest outgoing nesting level the match reached.
	Depth int `json:"depth"`

	// RecursiveDepth is the deepest traversal level of a recursive pattern.
	RecursiveDepth int `json:"recursive_depth,omitempty"`

	// CyclicPaths holds each traversal path that revisited an atom already
	// on the stack, ending with the revisited ID.
	CyclicPaths [][]string `json:"cyclic_paths,omitempty"`
}

// Binding returns the atom bound to name.
func (r MatchResult) Binding(name string) (models.Atom, bool) {
	a, ok := r.Bindings[name]
	return a, ok
}

// Merge combines sub-match results: matched atoms and cyclic paths are
// concatenated, bindings are unioned with later values winning, and depths
// take the max. The merge never checks binding consistency; callers that
// need consistency thread bindings through a shared context instead.
func Merge(results ...MatchResult) MatchResult {
	out := MatchResult{
		Matched:  len(results) > 0,
		Bindings: make(map[string]models.Atom),
	}
	for _, r := range results {
		out.Matched = out.Matched && r.Matched
		out.MatchedAtoms = append(out.MatchedAtoms, r.MatchedAtoms...)
		for name, a := range r.Bindings {
			out.Bindings[name] = a
		}
		out.Depth = max(out.Depth, r.Depth)
		out.RecursiveDepth = max(out.RecursiveDepth, r.RecursiveDepth)
		out.CyclicPaths = append(out.CyclicPaths, r.CyclicPaths...)
	}
	return out
}

func noMatch() MatchResult {
	return MatchResult{}
}
