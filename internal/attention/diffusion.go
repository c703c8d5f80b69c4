package attention

import (
	"math"
	"sort"

	"github.com/nvandessel/atomspace/internal/models"
	"github.com/nvandessel/atomspace/internal/store"
)

// diffusionTarget is one neighbour receiving importance from a source.
type diffusionTarget struct {
	id     string
	weight float64
}

// diffuse lets the most important atoms push a share of their STI to their
// outgoing atoms and Hebbian neighbours. All sources read the phase-start
// STI and their transfers are summed afterwards (synchronous update), so the
// order in which sources are visited does not matter.
func (e *Economy) diffuse(work *store.Store, k *clamper) (*phaseBatch, int, float64) {
	b := newBatch("diffusion")
	atoms := participants(work)
	if len(atoms) == 0 {
		return b, 0, 0
	}

	sort.SliceStable(atoms, func(i, j int) bool {
		return math.Abs(atoms[i].Attention.STI) > math.Abs(atoms[j].Attention.STI)
	})
	n := int(math.Ceil(float64(len(atoms)) * e.cfg.DiffusionFraction))
	sources := atoms[:min(n, len(atoms))]

	delta := make(map[string]float64)
	spread := 0
	total := 0.0
	for _, src := range sources {
		amount := src.Attention.STI * e.cfg.SpreadingFactor
		if amount < e.cfg.SpreadingThreshold {
			continue
		}
		targets := e.diffusionTargets(work, src)
		weightSum := 0.0
		for _, t := range targets {
			weightSum += t.weight
		}
		if weightSum <= 0 {
			continue
		}

		delta[src.ID] -= amount
		for _, t := range targets {
			delta[t.id] += amount * t.weight / weightSum
		}
		spread++
		total += amount
	}

	ids := make([]string, 0, len(delta))
	for id := range delta {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		a, ok := work.Get(id)
		if !ok || a.Attention == nil {
			continue
		}
		a.Attention.STI = k.sti(a.Attention.STI + delta[id])
		b.set(a)
	}
	return b, spread, total
}

// diffusionTargets collects the outgoing atoms and Hebbian neighbours of
// src that can still absorb importance. Each target is weighted by its
// association strength with src, or BaseEdgeWeight for a plain outgoing
// edge with no association.
func (e *Economy) diffusionTargets(view *store.Store, src models.Atom) []diffusionTarget {
	weights := make(map[string]float64)
	var order []string
	add := func(id string, w float64) {
		if id == src.ID {
			return
		}
		if _, seen := weights[id]; !seen {
			order = append(order, id)
		}
		weights[id] = max(weights[id], w)
	}

	for _, id := range src.Outgoing {
		w := e.cfg.BaseEdgeWeight
		if link, ok := view.Get(models.HebbianID(src.ID, id)); ok && link.Truth != nil {
			w = link.Truth.Strength
		}
		add(id, w)
	}
	assocs, err := e.Associations(view, src.ID)
	if err != nil {
		e.logger.Warn("hebbian lookup failed", "atom", src.ID, "error", err)
	}
	for _, as := range assocs {
		add(as.Neighbor, as.Strength)
	}

	out := make([]diffusionTarget, 0, len(order))
	for _, id := range order {
		t, ok := view.Get(id)
		if !ok || t.Attention == nil || t.Attention.VLTI {
			continue
		}
		if math.Abs(t.Attention.STI) >= e.cfg.MaxSTI {
			continue
		}
		if weights[id] <= 0 {
			continue
		}
		out = append(out, diffusionTarget{id: id, weight: weights[id]})
	}
	return out
}
