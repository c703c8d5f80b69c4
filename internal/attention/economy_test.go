package attention

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvandessel/atomspace/internal/matching"
	"github.com/nvandessel/atomspace/internal/models"
	"github.com/nvandessel/atomspace/internal/store"
	"github.com/nvandessel/atomspace/internal/typesys"
)

func newTestEconomy(t *testing.T, cfg Config) (*Economy, *store.Store) {
	t.Helper()
	h := typesys.NewHierarchy()
	s := store.New(h)
	e, err := NewEconomy(s, matching.New(s, h), cfg)
	require.NoError(t, err)
	return e, s
}

// addAtom stores a concept node with the given importance.
func addAtom(t *testing.T, s *store.Store, name string, sti, lti float64) string {
	t.Helper()
	id, err := s.Put(models.Atom{
		Type:      models.ConceptNode,
		Name:      name,
		Truth:     models.NewTruthValue(0.5, 0.5),
		Attention: &models.AttentionValue{STI: sti, LTI: lti},
	})
	require.NoError(t, err)
	return id
}

func setAttention(t *testing.T, s *store.Store, id string, av models.AttentionValue) {
	t.Helper()
	a, ok := s.Get(id)
	require.True(t, ok)
	a.Attention = &av
	_, err := s.Put(a)
	require.NoError(t, err)
}

func totalSTI(s store.View) float64 {
	sum := 0.0
	for _, a := range s.All() {
		sum += a.STI()
	}
	return sum
}

func TestNewEconomyRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSTI = cfg.MinSTI
	h := typesys.NewHierarchy()
	s := store.New(h)
	_, err := NewEconomy(s, matching.New(s, h), cfg)
	assert.Error(t, err)
}

func TestRentIsConservedBeforeClamping(t *testing.T) {
	e, s := newTestEconomy(t, DefaultConfig())
	addAtom(t, s, "a", 10, 0)
	addAtom(t, s, "b", 20, 50)
	addAtom(t, s, "c", 30, 20)
	addAtom(t, s, "d", -40, 10)
	vlti := addAtom(t, s, "e", 5, 90)
	setAttention(t, s, vlti, models.AttentionValue{STI: 5, LTI: 90, VLTI: true})

	k := &clamper{cfg: e.cfg}
	rentBatch, report := e.collectRent(s, k)
	require.NoError(t, s.Apply(rentBatch.storeBatch()))
	afterRent := totalSTI(s)
	redist := e.redistribute(s, k, &report)
	require.NoError(t, s.Apply(redist.storeBatch()))

	// 10*0.8 + 20*0.8*0.5 + 30*0.8*0.8 + 5*0.8*0.1*0.15
	assert.InDelta(t, 8+8+19.2+0.06, report.Collected, 1e-9)
	assert.InDelta(t, report.Collected, report.Redistributed, 1e-9)
	assert.Len(t, report.Recipients, 4, "negative STI neither pays nor receives")
	assert.Zero(t, report.ClampLoss)
	assert.InDelta(t, afterRent+report.Collected, totalSTI(s), 1e-9)
}

func TestRentClampLossAtUpperBound(t *testing.T) {
	e, s := newTestEconomy(t, DefaultConfig())
	full := addAtom(t, s, "full", 100, 100) // pays no rent at max LTI
	other := addAtom(t, s, "other", 50, 0)
	before := totalSTI(s)

	k := &clamper{cfg: e.cfg}
	rentBatch, report := e.collectRent(s, k)
	require.NoError(t, s.Apply(rentBatch.storeBatch()))
	redist := e.redistribute(s, k, &report)
	require.NoError(t, s.Apply(redist.storeBatch()))

	assert.InDelta(t, 40, report.Collected, 1e-9)
	assert.InDelta(t, 40, report.Redistributed, 1e-9)
	assert.InDelta(t, 20, report.PerAtom, 1e-9)

	// The atom already at MaxSTI cannot absorb its share: the economy is
	// not conserved across the boundary and the loss is reported.
	assert.InDelta(t, 20, report.ClampLoss, 1e-9)
	assert.InDelta(t, before-report.ClampLoss, totalSTI(s), 1e-9)
	got, _ := s.Get(full)
	assert.Equal(t, 100.0, got.STI())
	got, _ = s.Get(other)
	assert.InDelta(t, 30, got.STI(), 1e-9)
	assert.Equal(t, 1, k.violations)
}

func TestStepReportsRentConservation(t *testing.T) {
	e, s := newTestEconomy(t, DefaultConfig())
	addAtom(t, s, "full", 100, 100)
	addAtom(t, s, "other", 50, 0)

	report, err := e.Step(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, report.Rent.Collected, report.Rent.Redistributed, 1e-9)
	assert.InDelta(t, 20, report.Rent.ClampLoss, 1e-9)
	assert.Equal(t, 1, e.Steps())
}

func TestStepKeepsAttentionInBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxForgettingPercentage = 0.2
	e, s := newTestEconomy(t, cfg)
	r := rand.New(rand.NewPCG(7, 11))

	var ids []string
	for i := 0; i < 25; i++ {
		ids = append(ids, addAtom(t, s, string(rune('a'+i)), r.Float64()*200-100, r.Float64()*100))
	}
	for i := 0; i+1 < len(ids); i += 2 {
		_, err := s.AddLink(models.InheritanceLink, []string{ids[i], ids[i+1]}, models.NewTruthValue(0.7, 0.6))
		require.NoError(t, err)
	}

	ctx := context.Background()
	for step := 0; step < 30; step++ {
		for j := 0; j < 3; j++ {
			id := ids[r.IntN(len(ids))]
			if !s.Has(id) {
				continue
			}
			_, err := e.Stimulate(id, r.Float64()*400-100, "")
			require.NoError(t, err)
		}
		_, err := e.Step(ctx)
		require.NoError(t, err)

		for _, a := range s.All() {
			if a.Attention == nil {
				continue
			}
			assert.GreaterOrEqual(t, a.STI(), cfg.MinSTI, a.ID)
			assert.LessOrEqual(t, a.STI(), cfg.MaxSTI, a.ID)
			assert.GreaterOrEqual(t, a.LTI(), cfg.MinLTI, a.ID)
			assert.LessOrEqual(t, a.LTI(), cfg.MaxLTI, a.ID)
		}
	}
}

func TestStepHonoursCancellation(t *testing.T) {
	e, s := newTestEconomy(t, DefaultConfig())
	addAtom(t, s, "a", 50, 0)
	before := s.All()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Step(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, before, s.All())
	assert.Zero(t, e.Steps())
}

func TestStimulusSaturates(t *testing.T) {
	e, s := newTestEconomy(t, DefaultConfig())
	id := addAtom(t, s, "a", 0, 0)

	res, err := e.Stimulate(id, 10, "")
	require.NoError(t, err)
	assert.Greater(t, res.After.STI, 0.0)
	assert.Less(t, res.After.STI, e.cfg.MaxSTI)
	assert.InDelta(t, 12/2.2, res.After.STI, 1e-9, "amplified 12 through a/(1+|a|*0.1)")
	assert.Zero(t, res.After.LTI, "a stimulus of exactly 10 earns no LTI")

	big, err := e.Stimulate(id, 1000, "")
	require.NoError(t, err)
	assert.Less(t, big.Applied, 10.0, "response saturates below 1/k")
	assert.Equal(t, 1.0, big.After.LTI)
}

func TestStimulusWithContext(t *testing.T) {
	e, s := newTestEconomy(t, DefaultConfig())
	plain := addAtom(t, s, "plain", 0, 0)
	inContext := addAtom(t, s, "focused", 0, 0)
	ctxID := addAtom(t, s, "context", 100, 0)

	a, err := e.Stimulate(plain, 10, "")
	require.NoError(t, err)
	b, err := e.Stimulate(inContext, 10, ctxID)
	require.NoError(t, err)

	// contextual 1.0 * hebbian bonus 1.25 → 15 → 15/2.5
	assert.InDelta(t, 6, b.Applied, 1e-9)
	assert.Greater(t, b.Applied, a.Applied)

	_, err = e.Stimulate(plain, 1, "ConceptNode:missing")
	assert.Error(t, err)
}

func TestStimulateRejectsNonParticipants(t *testing.T) {
	e, s := newTestEconomy(t, DefaultConfig())
	a := addAtom(t, s, "a", 0, 0)
	b := addAtom(t, s, "b", 0, 0)
	link, err := s.AddLink(models.HebbianLink, []string{a, b}, models.NewTruthValue(0.5, 0.1))
	require.NoError(t, err)

	_, err = e.Stimulate(link, 5, "")
	assert.ErrorIs(t, err, models.ErrStructural)
	_, err = e.Stimulate("ConceptNode:missing", 5, "")
	assert.Error(t, err)
}

func TestHighLTIBecomesVLTIAndIsNeverForgotten(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxForgettingPercentage = 1
	cfg.ForgettingThreshold = 1
	e, s := newTestEconomy(t, cfg)

	protected := addAtom(t, s, "protected", 5, 95)
	for _, name := range []string{"x", "y", "z"} {
		addAtom(t, s, name, -50, 0)
	}

	promoted, err := e.AllocationPass()
	require.NoError(t, err)
	assert.Equal(t, []string{protected}, promoted)
	got, _ := s.Get(protected)
	assert.True(t, got.IsVLTI())

	// Even with no STI left it stays protected.
	setAttention(t, s, protected, models.AttentionValue{STI: -100, LTI: 10, VLTI: true})
	for _, a := range e.Forgetter().SelectAtomsToForget(s) {
		assert.NotEqual(t, protected, a.ID)
	}

	_, err = e.Step(context.Background())
	require.NoError(t, err)
	assert.True(t, s.Has(protected))
}

func TestImportanceFormula(t *testing.T) {
	cfg := DefaultConfig()
	a := models.Atom{
		Truth:     &models.TruthValue{Strength: 0.8, Confidence: 0.5},
		Attention: &models.AttentionValue{STI: 0, LTI: 50},
	}
	assert.InDelta(t, 0.2+0.15+0.08+0.05, cfg.Importance(a), 1e-9)

	a.Attention.VLTI = true
	assert.InDelta(t, 0.2+0.15+0.08+0.1, cfg.Importance(a), 1e-9)
}

func TestMergeBatches(t *testing.T) {
	rent := newBatch("rent")
	rent.set(models.Atom{ID: "a", Attention: &models.AttentionValue{STI: 10, LTI: 40, VLTI: true}})
	alloc := newBatch("allocation")
	alloc.set(models.Atom{ID: "a", Attention: &models.AttentionValue{STI: 20, LTI: 30}})
	alloc.set(models.Atom{ID: "b", Attention: &models.AttentionValue{STI: 1}})
	forget := newBatch("forgetting")
	forget.remove("b")

	merged := mergeBatches([]*phaseBatch{rent, alloc, forget})
	require.Len(t, merged.Puts, 1)
	assert.Equal(t, models.AttentionValue{STI: 20, LTI: 40, VLTI: true}, *merged.Puts[0].Attention)
	assert.Equal(t, []string{"b"}, merged.Removals)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"lti bounds", func(c *Config) { c.MaxLTI = 0 }},
		{"rent scale", func(c *Config) { c.RentScale = 1.5 }},
		{"tournament", func(c *Config) { c.TournamentSize = 0 }},
		{"hebbian rule", func(c *Config) { c.HebbianRule = "hopfield" }},
		{"negative threshold", func(c *Config) { c.SpreadingThreshold = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
