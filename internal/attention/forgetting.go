package attention

import (
	"math"
	"sort"

	"github.com/nvandessel/atomspace/internal/models"
	"github.com/nvandessel/atomspace/internal/store"
)

// ForgettingManager decides which atoms the economy removes.
type ForgettingManager struct {
	cfg Config
}

// NewForgettingManager creates a forgetting manager for cfg.
func NewForgettingManager(cfg Config) *ForgettingManager {
	return &ForgettingManager{cfg: cfg}
}

// Priority is the removal priority of an atom: 50% normalized STI, 30%
// normalized LTI, 20% truth confidence. Lower values are forgotten first.
func (f *ForgettingManager) Priority(a models.Atom) float64 {
	return 0.5*f.cfg.NormalizeSTI(a.STI()) + 0.3*f.cfg.NormalizeLTI(a.LTI()) + 0.2*a.Confidence()
}

// Eligible reports whether a may be forgotten at all: it takes part in the
// economy, is not VLTI, has LTI below the ceiling and non-positive STI, and
// nothing but Hebbian associations refers to it.
func (f *ForgettingManager) Eligible(view store.View, a models.Atom) bool {
	if a.Attention == nil || a.Attention.VLTI {
		return false
	}
	if a.Attention.LTI >= f.cfg.MaxLTI*f.cfg.ForgettingLTICeiling {
		return false
	}
	if a.Attention.STI > 0 {
		return false
	}
	for _, link := range view.Incoming(a.ID) {
		if link.Type != models.HebbianLink {
			return false
		}
	}
	return true
}

// SelectAtomsToForget ranks eligible atoms by priority and returns the
// lowest ones below ForgettingThreshold, at most MaxForgettingPercentage of
// the economy's population.
func (f *ForgettingManager) SelectAtomsToForget(view store.View) []models.Atom {
	population := participants(view)
	limit := int(math.Floor(float64(len(population)) * f.cfg.MaxForgettingPercentage))
	if limit == 0 {
		return nil
	}

	type ranked struct {
		atom     models.Atom
		priority float64
	}
	var candidates []ranked
	for _, a := range population {
		if !f.Eligible(view, a) {
			continue
		}
		p := f.Priority(a)
		if p >= f.cfg.ForgettingThreshold {
			continue
		}
		candidates = append(candidates, ranked{atom: a, priority: p})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].priority < candidates[j].priority
	})

	out := make([]models.Atom, 0, min(limit, len(candidates)))
	for _, c := range candidates[:min(limit, len(candidates))] {
		out = append(out, c.atom)
	}
	return out
}

// SelectAssociationsToPrune returns Hebbian links whose strength has
// decayed below MinHebbianStrength.
func (f *ForgettingManager) SelectAssociationsToPrune(view store.View) []models.Atom {
	var out []models.Atom
	for _, link := range view.ByType(models.HebbianLink) {
		if link.Truth == nil || link.Truth.Strength < f.cfg.MinHebbianStrength {
			out = append(out, link)
		}
	}
	return out
}

// forget removes the selected atoms together with their Hebbian links, and
// prunes associations that decayed away.
func (e *Economy) forget(work store.View) (*phaseBatch, []string, []string) {
	b := newBatch("forgetting")
	removed := make(map[string]bool)
	var forgotten, pruned []string

	for _, link := range e.forgetter.SelectAssociationsToPrune(work) {
		removed[link.ID] = true
		b.remove(link.ID)
		pruned = append(pruned, link.ID)
	}
	for _, a := range e.forgetter.SelectAtomsToForget(work) {
		for _, link := range work.Incoming(a.ID) {
			if !removed[link.ID] {
				removed[link.ID] = true
				b.remove(link.ID)
			}
		}
		removed[a.ID] = true
		b.remove(a.ID)
		forgotten = append(forgotten, a.ID)
	}
	return b, forgotten, pruned
}
