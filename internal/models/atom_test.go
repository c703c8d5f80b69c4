package models

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"inside", 0.4, 0.4},
		{"below", -0.2, 0},
		{"above", 1.7, 1},
		{"nan", math.NaN(), 0},
		{"inf", math.Inf(1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampUnit(tt.in))
		})
	}
}

func TestNewTruthValueClamps(t *testing.T) {
	tv := NewTruthValue(1.5, -1)
	assert.Equal(t, TruthValue{Strength: 1, Confidence: 0}, *tv)
	assert.True(t, tv.InRange())
	assert.False(t, TruthValue{Strength: 2}.InRange())
}

func TestAtomCloneIsDeep(t *testing.T) {
	a := Atom{
		ID:        "InheritanceLink:(a,b)",
		Type:      InheritanceLink,
		Outgoing:  []string{"a", "b"},
		Truth:     &TruthValue{Strength: 0.5, Confidence: 0.5},
		Attention: &AttentionValue{STI: 10},
	}
	c := a.Clone()
	c.Outgoing[0] = "x"
	c.Truth.Strength = 0.9
	c.Attention.STI = 50

	assert.Equal(t, "a", a.Outgoing[0])
	assert.Equal(t, 0.5, a.Truth.Strength)
	assert.Equal(t, 10.0, a.Attention.STI)
}

func TestIdentityKeys(t *testing.T) {
	assert.Equal(t, "ConceptNode:bird", IdentityKey(ConceptNode, "bird", nil))
	assert.Equal(t, "InheritanceLink:(a,b)", IdentityKey(InheritanceLink, "", []string{"a", "b"}))
	assert.Equal(t, HebbianID("b", "a"), IdentityKey(HebbianLink, "", []string{"a", "b"}))
	assert.Equal(t, "hebbian:a|b", HebbianID("b", "a"))
}

func TestAccessorsOnBareAtom(t *testing.T) {
	a := Atom{ID: "ConceptNode:x", Type: ConceptNode, Name: "x"}
	assert.Zero(t, a.STI())
	assert.Zero(t, a.LTI())
	assert.Zero(t, a.Confidence())
	assert.False(t, a.IsVLTI())
	assert.False(t, a.IsLink())
	assert.Equal(t, "x", a.Label())
}

func TestStructuralErrorIs(t *testing.T) {
	err := fmt.Errorf("adding link: %w", Structuralf("put", "L1", "outgoing %q does not resolve", "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStructural))

	var se *StructuralError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "L1", se.ID)
	assert.Contains(t, err.Error(), `outgoing "missing" does not resolve`)
}
