package typesys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvandessel/atomspace/internal/models"
)

func TestIsSubtype(t *testing.T) {
	h := NewHierarchy()
	tests := []struct {
		a, b models.AtomType
		want bool
	}{
		{models.ConceptNode, models.ConceptNode, true},
		{models.ConceptNode, models.Node, true},
		{models.InheritanceLink, models.OrderedLink, true},
		{models.InheritanceLink, models.Link, true},
		{models.SimilarityLink, models.OrderedLink, false},
		{models.HebbianLink, models.UnorderedLink, true},
		{models.Node, models.ConceptNode, false},
		{models.ConceptNode, models.Link, false},
		{"Bogus", "Bogus", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.a)+"<"+string(tt.b), func(t *testing.T) {
			assert.Equal(t, tt.want, h.IsSubtype(tt.a, tt.b))
		})
	}
}

func TestMostSpecificCommonType(t *testing.T) {
	h := NewHierarchy()
	tests := []struct {
		name   string
		in     []models.AtomType
		want   models.AtomType
		wantOK bool
	}{
		{"empty", nil, "", false},
		{"single", []models.AtomType{models.ConceptNode}, models.ConceptNode, true},
		{"siblings", []models.AtomType{models.ConceptNode, models.PredicateNode}, models.Node, true},
		{"ordered links", []models.AtomType{models.InheritanceLink, models.ImplicationLink}, models.OrderedLink, true},
		{"mixed links", []models.AtomType{models.InheritanceLink, models.SimilarityLink}, models.Link, true},
		{"type and supertype", []models.AtomType{models.ListLink, models.OrderedLink}, models.OrderedLink, true},
		{"different trees", []models.AtomType{models.ConceptNode, models.ListLink}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := h.MostSpecificCommonType(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAbstractTypes(t *testing.T) {
	h := NewHierarchy()
	for _, a := range []models.AtomType{models.Node, models.Link, models.OrderedLink, models.UnorderedLink} {
		assert.True(t, h.IsAbstract(a), a)
		assert.NotContains(t, h.ConcreteTypes(), a)
	}
	assert.False(t, h.IsAbstract(models.ConceptNode))
}

func TestAncestorsAndSubtypes(t *testing.T) {
	h := NewHierarchy()
	assert.Equal(t,
		[]models.AtomType{models.EvaluationLink, models.OrderedLink, models.Link},
		h.Ancestors(models.EvaluationLink))
	assert.Nil(t, h.Ancestors("Bogus"))

	unordered := h.ConcreteSubtypes(models.UnorderedLink)
	assert.ElementsMatch(t, []models.AtomType{
		models.AndLink, models.AttentionalLink, models.EquivalenceLink,
		models.HebbianLink, models.OrLink, models.SimilarityLink,
	}, unordered)
}

func TestValidatorCheckStorable(t *testing.T) {
	v := NewValidator(NewHierarchy())

	require.NoError(t, v.CheckStorable(models.ConceptNode, nil))
	require.NoError(t, v.CheckStorable(models.InheritanceLink, []models.AtomType{models.ConceptNode, models.ConceptNode}))
	require.NoError(t, v.CheckStorable(models.EvaluationLink, []models.AtomType{models.PredicateNode, models.ListLink}))
	require.NoError(t, v.CheckStorable(models.ListLink, []models.AtomType{models.ConceptNode, models.NumberNode, models.ConceptNode}))

	assert.Error(t, v.CheckStorable("", nil))
	assert.Error(t, v.CheckStorable("Bogus", nil))
	assert.Error(t, v.CheckStorable(models.Link, []models.AtomType{models.ConceptNode}))
	assert.Error(t, v.CheckStorable(models.InheritanceLink, nil))
	assert.Error(t, v.CheckStorable(models.ConceptNode, []models.AtomType{models.ConceptNode}))
	assert.Error(t, v.CheckStorable(models.HebbianLink, []models.AtomType{models.ConceptNode}))
	assert.Error(t, v.CheckStorable(models.EvaluationLink, []models.AtomType{models.ConceptNode, models.ListLink}))
}

func TestValidatorAdmits(t *testing.T) {
	v := NewValidator(NewHierarchy())
	assert.True(t, v.Admits(models.ConceptNode, "", nil))
	assert.True(t, v.Admits(models.ConceptNode, models.Node, nil))
	assert.False(t, v.Admits(models.ConceptNode, models.Link, nil))
	assert.True(t, v.Admits(models.PredicateNode, "", []models.AtomType{models.ConceptNode, models.PredicateNode}))
	assert.False(t, v.Admits(models.NumberNode, "", []models.AtomType{models.ConceptNode, models.PredicateNode}))
}
