package pln

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvandessel/atomspace/internal/models"
)

// path links n000 - n001 - ... - n<size> with one link of type t per
// neighbouring pair and returns the links.
func (f *fixture) path(t *testing.T, typ models.AtomType, size int) []models.Atom {
	t.Helper()
	nodes := make([]string, size+1)
	for i := range nodes {
		nodes[i] = f.node(t, fmt.Sprintf("n%03d", i), strong())
	}
	var links []models.Atom
	for i := 0; i < size; i++ {
		id := f.link(t, typ, strong(), nodes[i], nodes[i+1])
		a, ok := f.store.Get(id)
		require.True(t, ok)
		links = append(links, a)
	}
	return links
}

func (f *fixture) joiner(rule Rule, limit int) *joiner {
	return &joiner{
		matcher:  f.engine.matcher,
		view:     f.store,
		premises: rule.Premises(),
		adjacent: isAdjacent(rule),
		limit:    limit,
		keep:     rule.Validate,
	}
}

func TestJoinFollowsSharedVariables(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	links := f.path(t, models.InheritanceLink, 50)

	j := f.joiner(rulesByName(t)[RuleInheritance], 0)
	tuples, err := j.join(links)
	require.NoError(t, err)
	assert.Len(t, tuples, 49)
	for _, tuple := range tuples {
		assert.Equal(t, tuple[0].Outgoing[1], tuple[1].Outgoing[0])
	}
	// One scan of the first premise plus one incoming lookup per binding;
	// a cross product would try 2500 pairs.
	assert.LessOrEqual(t, j.matches, 2*len(links))
}

func TestAdjacentJoinOnlyTriesIncidentLinks(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	links := f.path(t, models.HebbianLink, 200)

	rule := rulesByName(t)[RuleHebbianComposition]
	require.True(t, isAdjacent(rule))
	j := f.joiner(rule, 0)
	tuples, err := j.join(links)
	require.NoError(t, err)
	assert.Len(t, tuples, 199, "each pair of neighbouring links, once")
	// Each link touches itself and at most two neighbours.
	assert.LessOrEqual(t, j.matches, 4*len(links))
}

func TestJoinStopsAtLimit(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	links := f.path(t, models.HebbianLink, 200)

	j := f.joiner(rulesByName(t)[RuleHebbianComposition], 25)
	tuples, err := j.join(links)
	require.NoError(t, err)
	assert.Len(t, tuples, 25)
	assert.Less(t, j.matches, 4*30)
}

func TestCombinationsStopAtLimit(t *testing.T) {
	pool := make([]models.Atom, 10)
	for i := range pool {
		pool[i] = models.Atom{ID: fmt.Sprintf("a%d", i)}
	}
	assert.Len(t, combinations(pool, 2, 0, nil), 45)
	assert.Len(t, combinations(pool, 2, 7, nil), 7)

	even := func(t []models.Atom) bool { return t[0].ID[1]%2 == 0 }
	got := combinations(pool, 2, 100, even)
	assert.Len(t, got, 9+7+5+3+1)
}

func TestCandidatesSkipFiredTuplesAndRespectLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCandidates = 10
	f := newFixture(t, cfg)
	for i := 0; i < 30; i++ {
		id := f.node(t, fmt.Sprintf("n%02d", i), strong())
		_, err := f.econ.Stimulate(id, 10, "")
		require.NoError(t, err)
	}

	rules := f.engine.registry.Rules()
	cands, err := f.engine.candidates(f.engine.matcher, f.store, rules)
	require.NoError(t, err)
	require.Len(t, cands, 10, "only AttentionModulated takes node pairs")

	modulated := rulesByName(t)[RuleAttentionModulated]
	for _, c := range cands {
		assert.True(t, modulated.Validate(c.atoms))
		f.engine.applied[RuleAttentionModulated+"|"+c.key] = true
	}

	next, err := f.engine.candidates(f.engine.matcher, f.store, rules)
	require.NoError(t, err)
	require.Len(t, next, 10)
	for _, c := range next {
		assert.False(t, f.engine.applied[RuleAttentionModulated+"|"+c.key], "fired tuples are not generated again")
	}
}

// BenchmarkStepDenseHebbian steps an engine over 60 attended nodes joined
// pairwise by Hebbian associations.
func BenchmarkStepDenseHebbian(b *testing.B) {
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		f := newFixture(b, DefaultConfig())
		nodes := make([]string, 60)
		for k := range nodes {
			id, err := f.store.AddNode(models.ConceptNode, fmt.Sprintf("n%02d", k), strong())
			require.NoError(b, err)
			_, err = f.econ.Stimulate(id, 30, "")
			require.NoError(b, err)
			nodes[k] = id
		}
		for x := range nodes {
			for y := x + 1; y < len(nodes); y++ {
				_, err := f.store.AddLink(models.HebbianLink, []string{nodes[x], nodes[y]}, models.NewTruthValue(0.8, 0.5))
				require.NoError(b, err)
			}
		}
		b.StartTimer()

		for s := 0; s < 4; s++ {
			if _, err := f.engine.Step(b.Context()); err != nil && !errors.Is(err, models.ErrResourceExhausted) {
				b.Fatal(err)
			}
		}
	}
}
