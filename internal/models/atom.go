package models

import (
	"fmt"
	"math"
	"strings"
)

// TruthValue expresses probabilistic belief in a proposition.
type TruthValue struct {
	Strength   float64 `json:"strength" yaml:"strength"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// NewTruthValue returns a truth value clamped into [0, 1].
func NewTruthValue(strength, confidence float64) *TruthValue {
	tv := TruthValue{Strength: strength, Confidence: confidence}.Clamped()
	return &tv
}

// Clamped returns a copy with both fields restricted to [0, 1].
// NaN and infinite values collapse to 0.
func (tv TruthValue) Clamped() TruthValue {
	return TruthValue{
		Strength:   ClampUnit(tv.Strength),
		Confidence: ClampUnit(tv.Confidence),
	}
}

// InRange reports whether both fields already lie in [0, 1].
func (tv TruthValue) InRange() bool {
	return tv.Strength >= 0 && tv.Strength <= 1 && tv.Confidence >= 0 && tv.Confidence <= 1
}

// Significance is strength weighted by confidence.
func (tv TruthValue) Significance() float64 {
	return tv.Strength * tv.Confidence
}

func (tv TruthValue) String() string {
	return fmt.Sprintf("<%.3f, %.3f>", tv.Strength, tv.Confidence)
}

// AttentionValue holds an atom's importance in the attention economy.
type AttentionValue struct {
	STI  float64 `json:"sti" yaml:"sti"`
	LTI  float64 `json:"lti" yaml:"lti"`
	VLTI bool    `json:"vlti" yaml:"vlti"`
}

// Atom is the universal hypergraph record. Nodes have no outgoing set;
// links reference other atoms by ID.
type Atom struct {
	ID        string          `json:"id" yaml:"id"`
	Type      AtomType        `json:"type" yaml:"type"`
	Name      string          `json:"name,omitempty" yaml:"name,omitempty"`
	Outgoing  []string        `json:"outgoing,omitempty" yaml:"outgoing,omitempty"`
	Truth     *TruthValue     `json:"truth,omitempty" yaml:"truth,omitempty"`
	Attention *AttentionValue `json:"attention,omitempty" yaml:"attention,omitempty"`
}

// IsLink reports whether the atom references other atoms.
func (a Atom) IsLink() bool {
	return len(a.Outgoing) > 0
}

// Confidence returns the truth confidence, or 0 when the atom has no truth value.
func (a Atom) Confidence() float64 {
	if a.Truth == nil {
		return 0
	}
	return a.Truth.Confidence
}

// STI returns the short-term importance, or 0 when the atom is outside the economy.
func (a Atom) STI() float64 {
	if a.Attention == nil {
		return 0
	}
	return a.Attention.STI
}

// LTI returns the long-term importance, or 0 when the atom is outside the economy.
func (a Atom) LTI() float64 {
	if a.Attention == nil {
		return 0
	}
	return a.Attention.LTI
}

// IsVLTI reports whether the atom is protected from rent, decay and forgetting.
func (a Atom) IsVLTI() bool {
	return a.Attention != nil && a.Attention.VLTI
}

// Label is the name for nodes and the ID for links.
func (a Atom) Label() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

// Clone returns a deep copy of the atom.
func (a Atom) Clone() Atom {
	c := a
	if a.Outgoing != nil {
		c.Outgoing = append([]string(nil), a.Outgoing...)
	}
	if a.Truth != nil {
		tv := *a.Truth
		c.Truth = &tv
	}
	if a.Attention != nil {
		av := *a.Attention
		c.Attention = &av
	}
	return c
}

// NodeID derives the identity key of a node.
func NodeID(t AtomType, name string) string {
	return string(t) + ":" + name
}

// LinkID derives the identity key of a link from its type and outgoing set.
func LinkID(t AtomType, outgoing []string) string {
	return string(t) + ":(" + strings.Join(outgoing, ",") + ")"
}

// HebbianID derives the identity of the association between a and b.
// The key is independent of argument order.
func HebbianID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return "hebbian:" + a + "|" + b
}

// IdentityKey returns the key an atom is deduplicated on.
func IdentityKey(t AtomType, name string, outgoing []string) string {
	if t == HebbianLink && len(outgoing) == 2 {
		return HebbianID(outgoing[0], outgoing[1])
	}
	if len(outgoing) > 0 {
		return LinkID(t, outgoing)
	}
	return NodeID(t, name)
}

// ClampUnit restricts v to [0, 1]. NaN and infinities collapse to 0.
func ClampUnit(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Clamp restricts v to [lo, hi]. NaN and infinities collapse to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
