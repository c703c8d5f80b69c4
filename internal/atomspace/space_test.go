package atomspace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/nvandessel/atomspace/internal/attention"
	"github.com/nvandessel/atomspace/internal/logging"
	"github.com/nvandessel/atomspace/internal/matching"
	"github.com/nvandessel/atomspace/internal/models"
	"github.com/nvandessel/atomspace/internal/pln"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newSpace(t *testing.T) *Space {
	t.Helper()
	sp, err := New(Options{})
	require.NoError(t, err)
	return sp
}

func strong() *models.TruthValue {
	return models.NewTruthValue(0.9, 0.9)
}

func TestNewFillsZeroConfigs(t *testing.T) {
	sp := newSpace(t)
	assert.Equal(t, pln.DefaultConfig(), sp.engine.Config())
	assert.Equal(t, attention.DefaultConfig(), sp.economy.Config())
	assert.Len(t, sp.Rules(), 18)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	opts := DefaultOptions()
	opts.Attention.MinSTI = opts.Attention.MaxSTI
	_, err := New(opts)
	assert.ErrorContains(t, err, "attention economy")

	opts = DefaultOptions()
	opts.PLN.MaxActiveRules = 0
	_, err = New(opts)
	assert.ErrorContains(t, err, "inference engine")
}

func TestStoreOperations(t *testing.T) {
	sp := newSpace(t)

	cat, err := sp.AddAtom(models.ConceptNode, "cat", strong())
	require.NoError(t, err)
	assert.Equal(t, "ConceptNode:cat", cat)

	again, err := sp.AddAtom(models.ConceptNode, "cat", nil)
	require.NoError(t, err)
	assert.Equal(t, cat, again, "nodes are deduplicated on type and name")

	animal, err := sp.AddAtom(models.ConceptNode, "animal", nil)
	require.NoError(t, err)
	isA, err := sp.AddAtom(models.PredicateNode, "is-a", nil)
	require.NoError(t, err)

	link, err := sp.AddLink(models.InheritanceLink, []string{cat, animal}, strong())
	require.NoError(t, err)

	got, ok := sp.GetAtom(cat)
	require.True(t, ok)
	assert.Equal(t, "cat", got.Name)
	require.NotNil(t, got.Attention, "new atoms join the attention economy")

	nodes := sp.GetAtomsByType(models.Node)
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	assert.Equal(t, []string{animal, cat, isA}, ids)
	assert.Len(t, sp.GetAtomsByType(models.ConceptNode), 2)
	assert.Len(t, sp.GetAtomsByType(models.Link), 1)

	incoming := sp.GetIncoming(animal)
	require.Len(t, incoming, 1)
	assert.Equal(t, link, incoming[0].ID)
	assert.Equal(t, 4, sp.Len())

	_, err = sp.AddLink(models.InheritanceLink, []string{cat, "ConceptNode:ghost"}, nil)
	assert.True(t, errors.Is(err, models.ErrStructural))
}

func TestModusPonensThroughInference(t *testing.T) {
	sp := newSpace(t)
	a, _ := sp.AddAtom(models.ConceptNode, "A", strong())
	b, _ := sp.AddAtom(models.ConceptNode, "B", nil)
	_, err := sp.AddLink(models.ImplicationLink, []string{a, b}, strong())
	require.NoError(t, err)

	run, err := sp.RunInference(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, pln.StopConverged, run.Reason)
	assert.NotEmpty(t, run.ID)

	got, _ := sp.GetAtom(b)
	require.NotNil(t, got.Truth)
	assert.InDelta(t, 0.81, got.Truth.Strength, 1e-9)
	assert.InDelta(t, 0.729, got.Truth.Confidence, 1e-9)

	text, ok := sp.ExplainInference(b)
	assert.True(t, ok)
	assert.Contains(t, text, "ModusPonens")

	text, ok = sp.ExplainInference(a)
	assert.False(t, ok)
	assert.Equal(t, "no derivation known for A", text)
}

func TestRunInferenceZeroChangesNothing(t *testing.T) {
	sp := newSpace(t)
	a, _ := sp.AddAtom(models.ConceptNode, "A", nil)
	b, _ := sp.AddAtom(models.ConceptNode, "B", nil)
	c, _ := sp.AddAtom(models.ConceptNode, "C", nil)
	sp.AddLink(models.ImplicationLink, []string{a, b}, strong())
	sp.AddLink(models.ImplicationLink, []string{b, c}, strong())

	before := sp.Atoms()
	run, err := sp.RunInference(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, run.Steps)
	if diff := cmp.Diff(before, sp.Atoms()); diff != "" {
		t.Errorf("RunInference(0) changed the store (-before +after):\n%s", diff)
	}
}

func TestStimulateAndImportantAtoms(t *testing.T) {
	sp := newSpace(t)
	hot, _ := sp.AddAtom(models.ConceptNode, "hot", nil)
	sp.AddAtom(models.ConceptNode, "cold", nil)

	res, err := sp.StimulateAtom(hot, 10, "")
	require.NoError(t, err)
	assert.Greater(t, res.Applied, 0.0)
	assert.Less(t, res.Applied, 10.0, "the response saturates")

	top := sp.GetImportantAtoms(1)
	require.Len(t, top, 1)

	_, err = sp.StimulateAtom("ConceptNode:missing", 5, "")
	assert.Error(t, err)
}

func TestMatch(t *testing.T) {
	sp := newSpace(t)
	cat, _ := sp.AddAtom(models.ConceptNode, "cat", nil)
	dog, _ := sp.AddAtom(models.ConceptNode, "dog", nil)
	animal, _ := sp.AddAtom(models.ConceptNode, "animal", nil)
	sp.AddLink(models.InheritanceLink, []string{cat, animal}, strong())
	sp.AddLink(models.InheritanceLink, []string{dog, animal}, strong())

	results, err := sp.Match(context.Background(),
		matching.Link(models.InheritanceLink, matching.V("x"), matching.Lit(animal)))
	require.NoError(t, err)
	require.Len(t, results, 2)
	var bound []string
	for _, r := range results {
		x, ok := r.Binding("x")
		require.True(t, ok)
		bound = append(bound, x.Name)
	}
	assert.ElementsMatch(t, []string{"cat", "dog"}, bound)

	_, err = sp.Match(context.Background(), matching.Pattern{Operator: matching.OpNot})
	assert.True(t, errors.Is(err, models.ErrStructural))
}

func TestApplyRuleAndGoal(t *testing.T) {
	sp := newSpace(t)
	a, _ := sp.AddAtom(models.ConceptNode, "A", nil)
	b, _ := sp.AddAtom(models.ConceptNode, "B", nil)
	c, _ := sp.AddAtom(models.ConceptNode, "C", nil)
	ab, _ := sp.AddLink(models.ImplicationLink, []string{a, b}, strong())
	bc, _ := sp.AddLink(models.ImplicationLink, []string{b, c}, strong())

	require.NoError(t, sp.SetGoal(c))
	assert.Error(t, sp.SetGoal("ConceptNode:nowhere"))

	steps, err := sp.ApplyRule(pln.RuleDeduction, []string{ab, bc})
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, []string{models.LinkID(models.ImplicationLink, []string{a, c})}, steps[0].OutputAtoms)

	_, err = sp.ApplyRule(pln.RuleDeduction, []string{bc, ab})
	assert.True(t, errors.Is(err, models.ErrStructural))
}

func TestDriveRunsCycles(t *testing.T) {
	var trace bytes.Buffer
	opts := DefaultOptions()
	opts.Steps = logging.NewStepWriter(&trace)
	sp, err := New(opts)
	require.NoError(t, err)

	a, _ := sp.AddAtom(models.ConceptNode, "A", nil)
	b, _ := sp.AddAtom(models.ConceptNode, "B", nil)
	c, _ := sp.AddAtom(models.ConceptNode, "C", nil)
	sp.AddLink(models.ImplicationLink, []string{a, b}, strong())
	sp.AddLink(models.ImplicationLink, []string{b, c}, strong())

	report, err := sp.Drive(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, DriveCompleted, report.Reason)
	require.Len(t, report.Cycles, 3)
	assert.GreaterOrEqual(t, report.New, 1)
	assert.Equal(t, 1, report.Cycles[0].Economy.Step)

	_, ok := sp.GetAtom(models.LinkID(models.ImplicationLink, []string{a, c}))
	assert.True(t, ok)

	assert.Equal(t, 3, strings.Count(trace.String(), `"kind":"economy"`))
	assert.GreaterOrEqual(t, strings.Count(trace.String(), `"kind":"inference"`), 1)
}

func TestDriveHonoursCancellation(t *testing.T) {
	sp := newSpace(t)
	sp.AddAtom(models.ConceptNode, "A", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := sp.Drive(ctx, 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, DriveCancelled, report.Reason)
	assert.Empty(t, report.Cycles)
}

func TestDriveFlagsExhaustedInference(t *testing.T) {
	opts := DefaultOptions()
	opts.PLN.MaxComputationalCost = 0.5
	sp, err := New(opts)
	require.NoError(t, err)

	a, _ := sp.AddAtom(models.ConceptNode, "A", strong())
	b, _ := sp.AddAtom(models.ConceptNode, "B", nil)
	sp.AddLink(models.ImplicationLink, []string{a, b}, strong())
	before, _ := sp.GetAtom(b)

	report, err := sp.Drive(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, report.Cycles, 2)
	assert.True(t, report.Cycles[0].Exhausted)
	assert.Zero(t, report.New)

	after, _ := sp.GetAtom(b)
	assert.Equal(t, before.Truth, after.Truth, "no rule fits a budget of 0.5")
}

func TestRunInferenceResumesAfterExhaustion(t *testing.T) {
	sp := newSpace(t)
	for i := 0; i < 30; i++ {
		id, err := sp.AddAtom(models.ConceptNode, fmt.Sprintf("n%02d", i), strong())
		require.NoError(t, err)
		_, err = sp.StimulateAtom(id, 10, "")
		require.NoError(t, err)
	}
	ctx := context.Background()

	// 435 correlated pairs at 2.5 each overrun a budget of 1000.
	first, err := sp.RunInference(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, pln.StopResourceExhausted, first.Reason)
	require.Len(t, first.Steps, 1)
	assert.Equal(t, 400, first.New)

	second, err := sp.RunInference(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 35, second.New, "the pairs left over are served next")
	assert.Equal(t, pln.StopConverged, second.Reason)

	third, err := sp.RunInference(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, third.New)
	assert.Len(t, sp.GetAtomsByType(models.AttentionalLink), 435)
}

func TestDriveCountsPartialInference(t *testing.T) {
	opts := DefaultOptions()
	opts.PLN.MaxComputationalCost = 1
	sp, err := New(opts)
	require.NoError(t, err)

	var ids []string
	for _, name := range []string{"A", "B", "C", "D"} {
		id, _ := sp.AddAtom(models.ConceptNode, name, nil)
		ids = append(ids, id)
	}
	for i := 0; i+1 < len(ids); i++ {
		_, err := sp.AddLink(models.ImplicationLink, []string{ids[i], ids[i+1]}, strong())
		require.NoError(t, err)
	}

	report, err := sp.Drive(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, report.Cycles, 2)
	for i, c := range report.Cycles {
		assert.True(t, c.Exhausted, "cycle %d", i)
		assert.Len(t, c.Inference.New, 1, "cycle %d", i)
	}
	assert.Equal(t, 2, report.New)
}

func TestConcurrentCallersAreSerialized(t *testing.T) {
	sp := newSpace(t)
	var ids []string
	for _, name := range []string{"a", "b", "c", "d"} {
		id, err := sp.AddAtom(models.ConceptNode, name, strong())
		require.NoError(t, err)
		ids = append(ids, id)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = sp.RunEconomyStep(context.Background())
				return
			}
			_, _ = sp.StimulateAtom(ids[i%len(ids)], 5, "")
		}(i)
	}
	wg.Wait()

	cfg := attention.DefaultConfig()
	for _, a := range sp.Atoms() {
		if a.Attention == nil {
			continue
		}
		assert.GreaterOrEqual(t, a.STI(), cfg.MinSTI)
		assert.LessOrEqual(t, a.STI(), cfg.MaxSTI)
	}
}

func TestSetAttention(t *testing.T) {
	sp := newSpace(t)
	a, _ := sp.AddAtom(models.ConceptNode, "A", nil)

	require.NoError(t, sp.SetAttention(a, models.AttentionValue{STI: 500, LTI: 40, VLTI: true}))
	got, _ := sp.GetAtom(a)
	assert.Equal(t, models.AttentionValue{STI: 100, LTI: 40, VLTI: true}, *got.Attention)

	require.NoError(t, sp.SetAttention(a, models.AttentionValue{STI: -5}))
	got, _ = sp.GetAtom(a)
	assert.True(t, got.IsVLTI(), "VLTI is sticky")

	assert.Error(t, sp.SetAttention("ConceptNode:none", models.AttentionValue{}))
}
