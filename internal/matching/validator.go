package matching

import (
	"fmt"
	"regexp"

	"github.com/nvandessel/atomspace/internal/models"
	"github.com/nvandessel/atomspace/internal/typesys"
)

var variableNameRE = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validator checks pattern syntax before any atom is examined.
type Validator struct {
	h *typesys.Hierarchy
}

// NewValidator creates a pattern validator over h.
func NewValidator(h *typesys.Hierarchy) *Validator {
	return &Validator{h: h}
}

// Validate returns a StructuralError describing the first syntax problem
// in p, or nil.
func (v *Validator) Validate(p Pattern) error {
	return v.validate(p, "$")
}

func (v *Validator) validate(p Pattern, path string) error {
	fail := func(format string, args ...any) error {
		return models.Structuralf("pattern", path, format, args...)
	}

	if p.Type != "" && !v.h.Known(p.Type) {
		return fail("unknown type %s", p.Type)
	}
	for _, t := range p.TypeRestriction {
		if !v.h.Known(t) {
			return fail("unknown type %s in restriction", t)
		}
	}
	if p.IsVariable && !variableNameRE.MatchString(p.VariableName) {
		return fail("invalid variable name %q", p.VariableName)
	}
	if !p.IsVariable && len(p.TypeRestriction) > 0 {
		return fail("type restriction requires a variable")
	}

	switch p.Operator {
	case "":
		if len(p.Patterns) > 0 {
			return fail("sub-patterns require an operator")
		}
	case OpAnd, OpOr:
		if len(p.Patterns) == 0 {
			return fail("%s requires at least one sub-pattern", p.Operator)
		}
	case OpNot:
		if len(p.Patterns) != 1 {
			return fail("NOT requires exactly one sub-pattern, got %d", len(p.Patterns))
		}
	default:
		return fail("unknown operator %q", p.Operator)
	}

	if p.Recursive != nil && p.Recursive.MaxDepth < 0 {
		return fail("max depth must be non-negative, got %d", p.Recursive.MaxDepth)
	}

	for i, e := range p.Outgoing {
		elemPath := fmt.Sprintf("%s.outgoing[%d]", path, i)
		switch {
		case e.Pattern != nil && e.ID != "":
			return models.Structuralf("pattern", elemPath, "element has both an ID and a pattern")
		case e.Pattern == nil && e.ID == "":
			return models.Structuralf("pattern", elemPath, "element is empty")
		case e.Pattern != nil:
			if err := v.validate(*e.Pattern, elemPath); err != nil {
				return err
			}
		}
	}
	for i, sub := range p.Patterns {
		if err := v.validate(sub, fmt.Sprintf("%s.patterns[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}
