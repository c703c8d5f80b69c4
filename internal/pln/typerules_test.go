package pln

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvandessel/atomspace/internal/models"
	"github.com/nvandessel/atomspace/internal/typesys"
)

func typeRulesByName(t *testing.T) map[string]Rule {
	t.Helper()
	out := make(map[string]Rule)
	for _, r := range TypeRules(typesys.NewHierarchy()) {
		out[r.Name()] = r
	}
	require.Len(t, out, 6)
	return out
}

func typeNode(name string) models.Atom {
	return atomNode(models.TypeNode, name, 0.9, 0.9, 0, 0)
}

func TestTypeRules(t *testing.T) {
	rules := typeRulesByName(t)
	concept := typeNode(string(models.ConceptNode))
	predicate := typeNode(string(models.PredicateNode))
	node := typeNode(string(models.Node))
	link := typeNode(string(models.Link))
	inheritance := typeNode(string(models.InheritanceLink))
	similarity := typeNode(string(models.SimilarityLink))
	unordered := typeNode(string(models.UnorderedLink))

	tests := []struct {
		name       string
		rule       string
		atoms      []models.Atom
		valid      bool
		out        models.AtomType
		strength   float64
		confidence float64
	}{
		{"inheritance up the lattice", RuleTypeInheritance, []models.Atom{concept, node}, true, models.InheritanceLink, 1, 0.81},
		{"inheritance never runs down", RuleTypeInheritance, []models.Atom{node, concept}, false, "", 0, 0},
		{"inheritance across trees", RuleTypeInheritance, []models.Atom{concept, link}, false, "", 0, 0},
		{"direct subsumption", RuleTypeSubsumption, []models.Atom{concept, node}, true, models.SubsetLink, 0.9, 0.765},
		{"subsumption over two generations", RuleTypeSubsumption, []models.Atom{inheritance, link}, true, models.SubsetLink, 0.81, 0.765},
		{"sibling intersection", RuleTypeIntersection, []models.Atom{concept, predicate}, true, models.AndLink, 0.5, 0.9},
		{"cousin intersection", RuleTypeIntersection, []models.Atom{inheritance, similarity}, true, models.AndLink, 1.0 / 3, 0.9},
		{"intersection wants unrelated types", RuleTypeIntersection, []models.Atom{concept, node}, false, "", 0, 0},
		{"intersection takes each pair once", RuleTypeIntersection, []models.Atom{predicate, concept}, false, "", 0, 0},
		{"sibling composition", RuleTypeComposition, []models.Atom{concept, predicate}, true, models.OrLink, 0.5, 0.72},
		{"composition needs equal depth", RuleTypeComposition, []models.Atom{concept, node}, false, "", 0, 0},
		{"composition across trees", RuleTypeComposition, []models.Atom{concept, inheritance}, false, "", 0, 0},
		{"constraint fully met", RuleTypeConstraint, []models.Atom{concept, node}, true, models.ImplicationLink, 1, 0.81},
		{"constraint half met", RuleTypeConstraint, []models.Atom{inheritance, unordered}, true, models.ImplicationLink, 0.5, 0.81},
		{"constraint must be abstract", RuleTypeConstraint, []models.Atom{concept, predicate}, false, "", 0, 0},
		{"constraint across trees", RuleTypeConstraint, []models.Atom{concept, link}, false, "", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := rules[tt.rule]
			require.Equal(t, tt.valid, r.Validate(tt.atoms))
			if !tt.valid {
				return
			}
			out := r.Apply(tt.atoms)
			require.Len(t, out, 1)
			assert.Equal(t, tt.out, out[0].Type)
			assert.Equal(t, []string{tt.atoms[0].ID, tt.atoms[1].ID}, out[0].Outgoing)
			assert.InDelta(t, tt.strength, out[0].Truth.Strength, 1e-9)
			assert.InDelta(t, tt.confidence, out[0].Truth.Confidence, 1e-9)
		})
	}
}

func TestTypeRulesIgnoreUnknownTypes(t *testing.T) {
	animal := typeNode("Animal")
	node := typeNode(string(models.Node))
	concept := atomNode(models.ConceptNode, string(models.ConceptNode), 0.9, 0.9, 0, 0)
	for name, r := range typeRulesByName(t) {
		if r.Arity() != 2 {
			continue
		}
		assert.False(t, r.Validate([]models.Atom{animal, node}), name)
		assert.False(t, r.Validate([]models.Atom{concept, node}), "%s: a ConceptNode is not a type", name)
	}
}

func TestTypeVariance(t *testing.T) {
	r := typeRulesByName(t)[RuleTypeVariance]
	concept := typeNode(string(models.ConceptNode))
	node := typeNode(string(models.Node))
	co := atomNode(models.ConceptNode, Covariant, 1, 0.5, 0, 0)
	contra := atomNode(models.ConceptNode, Contravariant, 1, 0.5, 0, 0)
	other := atomNode(models.ConceptNode, "Invariant", 1, 0.5, 0, 0)

	assert.True(t, r.Validate([]models.Atom{concept, node, co}))
	assert.False(t, r.Validate([]models.Atom{node, concept, co}))
	assert.True(t, r.Validate([]models.Atom{node, concept, contra}))
	assert.False(t, r.Validate([]models.Atom{concept, node, contra}))
	assert.False(t, r.Validate([]models.Atom{concept, node, other}))

	out := r.Apply([]models.Atom{node, concept, contra})
	require.Len(t, out, 1)
	assert.Equal(t, models.ContextualImplicationLink, out[0].Type)
	assert.Equal(t, []string{contra.ID, node.ID, concept.ID}, out[0].Outgoing)
	assert.InDelta(t, 1, out[0].Truth.Strength, 1e-9)
	assert.InDelta(t, 0.81, out[0].Truth.Confidence, 1e-9)
}

func TestEngineDerivesTypeRelations(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	_, ok := f.engine.Registry().Get(RuleTypeConstraint)
	require.True(t, ok, "type rules are registered with the engine")

	concept, err := f.store.AddNode(models.TypeNode, string(models.ConceptNode), strong())
	require.NoError(t, err)
	node, err := f.store.AddNode(models.TypeNode, string(models.Node), strong())
	require.NoError(t, err)

	step, err := f.engine.Step(context.Background())
	require.NoError(t, err)
	assert.Len(t, step.New, 3)

	for _, typ := range []models.AtomType{models.InheritanceLink, models.SubsetLink, models.ImplicationLink} {
		got, ok := f.store.Lookup(typ, "", []string{concept, node})
		if assert.True(t, ok, "%s between the types", typ) {
			assert.Greater(t, got.Truth.Strength, 0.8)
		}
	}

	text, ok := f.engine.Explain(models.LinkID(models.InheritanceLink, []string{concept, node}))
	require.True(t, ok)
	assert.Contains(t, text, RuleTypeInheritance)
}
