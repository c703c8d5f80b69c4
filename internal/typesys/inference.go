package typesys

import (
	"fmt"
	"sort"

	"github.com/nvandessel/atomspace/internal/models"
)

// Term is the structural shape of one query element, stripped of the
// matching details the inference engine does not need.
type Term struct {
	// Type is the declared type filter, or "" when unconstrained.
	Type models.AtomType

	// Variable is set for terms that bind an atom.
	Variable string

	// Restriction lists admissible types for a variable; any one suffices.
	Restriction []models.AtomType

	// Args holds the positional outgoing terms. A nil entry stands for a
	// literal atom ID, which carries no type information.
	Args []*Term
}

// InferenceContext is the outcome of one inference pass: the concrete
// types each variable may still take, plus any conflicts found.
type InferenceContext struct {
	h          *Hierarchy
	admissible map[string][]models.AtomType
	conflicts  []string
}

// Consistent reports whether every variable and term can still be satisfied.
func (c *InferenceContext) Consistent() bool {
	return len(c.conflicts) == 0
}

// Conflicts describes each unsatisfiable constraint.
func (c *InferenceContext) Conflicts() []string {
	return c.conflicts
}

// Variables returns the inferred variable names, sorted.
func (c *InferenceContext) Variables() []string {
	names := make([]string, 0, len(c.admissible))
	for name := range c.admissible {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Admissible returns the concrete types a variable may bind to.
func (c *InferenceContext) Admissible(variable string) []models.AtomType {
	return c.admissible[variable]
}

// InferredType returns the most specific type covering every admissible
// type of the variable.
func (c *InferenceContext) InferredType(variable string) (models.AtomType, bool) {
	return c.h.MostSpecificCommonType(c.admissible[variable])
}

// InferenceEngine propagates type constraints across variables and link
// signatures.
type InferenceEngine struct {
	h *Hierarchy
}

// NewInferenceEngine creates an inference engine over h.
func NewInferenceEngine(h *Hierarchy) *InferenceEngine {
	return &InferenceEngine{h: h}
}

// Hierarchy returns the lattice the engine infers over.
func (e *InferenceEngine) Hierarchy() *Hierarchy {
	return e.h
}

// Infer collects the constraints every term places on its variables and
// resolves them to admissible concrete types. Each occurrence of a variable
// narrows its type; positional link signatures narrow it further.
func (e *InferenceEngine) Infer(terms ...*Term) *InferenceContext {
	ctx := &InferenceContext{
		h:          e.h,
		admissible: make(map[string][]models.AtomType),
	}
	constraints := make(map[string][][]models.AtomType)

	for _, t := range terms {
		e.walk(ctx, constraints, t, "")
	}

	for name, sets := range constraints {
		types := e.resolve(sets)
		ctx.admissible[name] = types
		if len(types) == 0 {
			ctx.conflicts = append(ctx.conflicts, fmt.Sprintf("variable %s has no admissible type", name))
		}
	}
	sort.Strings(ctx.conflicts)
	return ctx
}

func (e *InferenceEngine) walk(ctx *InferenceContext, constraints map[string][][]models.AtomType, t *Term, positional models.AtomType) {
	if t == nil {
		return
	}

	var sets [][]models.AtomType
	if t.Type != "" {
		if !e.h.Known(t.Type) {
			ctx.conflicts = append(ctx.conflicts, fmt.Sprintf("unknown type %s", t.Type))
			return
		}
		sets = append(sets, []models.AtomType{t.Type})
	}
	if positional != "" {
		sets = append(sets, []models.AtomType{positional})
	}
	if len(t.Args) > 0 {
		sets = append(sets, []models.AtomType{models.Link})
	}

	if t.Variable != "" {
		if len(t.Restriction) > 0 {
			sets = append(sets, t.Restriction)
		}
		// Assigning even an empty append registers an unconstrained variable.
		constraints[t.Variable] = append(constraints[t.Variable], sets...)
	} else if len(sets) > 0 && len(e.resolve(sets)) == 0 {
		ctx.conflicts = append(ctx.conflicts, fmt.Sprintf("type %s does not fit position %s", t.Type, positional))
	}

	if len(t.Args) == 0 {
		return
	}
	sig, hasSig := e.h.Signature(t.Type)
	if hasSig && sig.Arity > 0 && len(t.Args) != sig.Arity {
		ctx.conflicts = append(ctx.conflicts, fmt.Sprintf("%s takes %d arguments, pattern has %d", t.Type, sig.Arity, len(t.Args)))
	}
	for i, arg := range t.Args {
		var pos models.AtomType
		if hasSig {
			pos = sig.ArgType(i)
		}
		e.walk(ctx, constraints, arg, pos)
	}
}

// resolve returns the concrete types satisfying every constraint set. A nil
// set places no constraint.
func (e *InferenceEngine) resolve(sets [][]models.AtomType) []models.AtomType {
	var out []models.AtomType
	for _, c := range e.h.concrete {
		ok := true
		for _, set := range sets {
			if set == nil {
				continue
			}
			if !e.satisfiesAny(c, set) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, c)
		}
	}
	return out
}

func (e *InferenceEngine) satisfiesAny(t models.AtomType, set []models.AtomType) bool {
	for _, s := range set {
		if e.h.IsSubtype(t, s) {
			return true
		}
	}
	return false
}
