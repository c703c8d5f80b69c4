package attention

import (
	"sort"

	"github.com/nvandessel/atomspace/internal/models"
	"github.com/nvandessel/atomspace/internal/store"
)

// phaseBatch holds the atoms one phase changed, keyed by ID, plus the IDs
// it removed.
type phaseBatch struct {
	phase    string
	updates  map[string]models.Atom
	removals []string
}

func newBatch(phase string) *phaseBatch {
	return &phaseBatch{phase: phase, updates: make(map[string]models.Atom)}
}

func (b *phaseBatch) set(a models.Atom) {
	b.updates[a.ID] = a
}

func (b *phaseBatch) remove(id string) {
	b.removals = append(b.removals, id)
}

// storeBatch orders the updates by ID so commits are deterministic.
func (b *phaseBatch) storeBatch() store.Batch {
	return store.Batch{Puts: sortedAtoms(b.updates), Removals: b.removals}
}

// mergeBatches folds per-phase batches into one commit. A later phase wins
// on STI and truth values, LTI takes the max across phases, and VLTI is OR'd
// so protection is never lost within a step. Removals apply after all puts.
func mergeBatches(batches []*phaseBatch) store.Batch {
	merged := make(map[string]models.Atom)
	var removals []string
	removed := make(map[string]bool)

	for _, b := range batches {
		for id, next := range b.updates {
			prev, ok := merged[id]
			if !ok {
				merged[id] = next.Clone()
				continue
			}
			out := next.Clone()
			if prev.Attention != nil && out.Attention != nil {
				out.Attention.LTI = max(prev.Attention.LTI, out.Attention.LTI)
				out.Attention.VLTI = prev.Attention.VLTI || out.Attention.VLTI
			}
			merged[id] = out
		}
		for _, id := range b.removals {
			if !removed[id] {
				removed[id] = true
				removals = append(removals, id)
			}
		}
	}
	for id := range removed {
		delete(merged, id)
	}
	return store.Batch{Puts: sortedAtoms(merged), Removals: removals}
}

func sortedAtoms(m map[string]models.Atom) []models.Atom {
	out := make([]models.Atom, 0, len(m))
	for _, a := range m {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
