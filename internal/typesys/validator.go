package typesys

import (
	"fmt"

	"github.com/nvandessel/atomspace/internal/models"
)

// Validator checks individual atoms against type constraints.
type Validator struct {
	h *Hierarchy
}

// NewValidator creates a validator over h.
func NewValidator(h *Hierarchy) *Validator {
	return &Validator{h: h}
}

// Admits reports whether an atom of type t satisfies a declared type and a
// restriction list (any one member suffices). Empty constraints admit all.
func (v *Validator) Admits(t, declared models.AtomType, restriction []models.AtomType) bool {
	if declared != "" && !v.h.IsSubtype(t, declared) {
		return false
	}
	if len(restriction) == 0 {
		return true
	}
	for _, r := range restriction {
		if v.h.IsSubtype(t, r) {
			return true
		}
	}
	return false
}

// CheckStorable verifies that an atom of type t with the given outgoing
// types may be stored. outgoingTypes is nil for nodes.
func (v *Validator) CheckStorable(t models.AtomType, outgoingTypes []models.AtomType) error {
	if t == "" {
		return fmt.Errorf("atom type is required")
	}
	if !v.h.Known(t) {
		return fmt.Errorf("unknown atom type %s", t)
	}
	if v.h.IsAbstract(t) {
		return fmt.Errorf("abstract type %s cannot be stored", t)
	}

	isLink := v.h.IsLinkType(t)
	switch {
	case isLink && len(outgoingTypes) == 0:
		return fmt.Errorf("%s requires a non-empty outgoing set", t)
	case !isLink && len(outgoingTypes) > 0:
		return fmt.Errorf("%s is a node and cannot have outgoing atoms", t)
	}

	sig, ok := v.h.Signature(t)
	if !ok {
		return nil
	}
	if sig.Arity > 0 && len(outgoingTypes) != sig.Arity {
		return fmt.Errorf("%s takes %d outgoing atoms, got %d", t, sig.Arity, len(outgoingTypes))
	}
	for i, ot := range outgoingTypes {
		want := sig.ArgType(i)
		if want != "" && !v.h.IsSubtype(ot, want) {
			return fmt.Errorf("%s argument %d must be %s, got %s", t, i, want, ot)
		}
	}
	return nil
}
