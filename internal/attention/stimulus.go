package attention

import (
	"fmt"
	"math"

	"github.com/nvandessel/atomspace/internal/models"
)

// StimulusResult describes the effect of one stimulus.
type StimulusResult struct {
	AtomID     string                `json:"atom_id"`
	Applied    float64               `json:"applied"`
	Before     models.AttentionValue `json:"before"`
	After      models.AttentionValue `json:"after"`
	BecameVLTI bool                  `json:"became_vlti"`
}

// Stimulate injects importance into an atom. The amount is amplified, then
// modulated by the context atom when one is given and contextual stimulus is
// enabled, then passed through the saturating response before clamping.
// Strong stimuli also raise LTI, and the atom's VLTI eligibility is
// re-evaluated.
func (e *Economy) Stimulate(id string, amount float64, contextID string) (StimulusResult, error) {
	atom, ok := e.store.Get(id)
	if !ok {
		return StimulusResult{}, fmt.Errorf("atom not found: %s", id)
	}
	if atom.Attention == nil {
		return StimulusResult{}, models.Structuralf("stimulate", id, "%s does not take part in the attention economy", atom.Type)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return StimulusResult{}, fmt.Errorf("stimulus for %s must be finite, got %v", id, amount)
	}

	a := amount * e.cfg.StimulusAmplification
	if contextID != "" && e.cfg.ContextualStimulus {
		ctxAtom, ok := e.store.Get(contextID)
		if !ok {
			return StimulusResult{}, fmt.Errorf("context atom not found: %s", contextID)
		}
		a *= e.contextMultiplier(atom, ctxAtom)
	}
	applied := e.cfg.Response(a)

	k := &clamper{cfg: e.cfg}
	before := *atom.Attention
	after := before
	after.STI = k.sti(before.STI + applied)
	if math.Abs(amount) > e.cfg.StimulusLTIThreshold {
		after.LTI = k.lti(before.LTI + e.cfg.LTIReward)
	}
	promoted := false
	if !after.VLTI && e.cfg.QualifiesForVLTI(after.STI, after.LTI) {
		after.VLTI = true
		promoted = true
	}

	atom.Attention = &after
	if _, err := e.store.Put(atom); err != nil {
		return StimulusResult{}, fmt.Errorf("stimulating %s: %w", id, err)
	}
	e.violations += k.violations
	if k.violations > 0 {
		e.logger.Debug("stimulus clamped", "atom", id, "raw", before.STI+applied)
	}

	return StimulusResult{
		AtomID:     id,
		Applied:    applied,
		Before:     before,
		After:      after,
		BecameVLTI: promoted,
	}, nil
}

// contextMultiplier scales a stimulus by the context's own activation and
// by how co-activated the atom and its context are.
func (e *Economy) contextMultiplier(atom, ctxAtom models.Atom) float64 {
	ctxNorm := e.cfg.NormalizeSTI(ctxAtom.STI())
	contextual := 0.5 + 0.5*ctxNorm
	coactivation := min(e.cfg.NormalizeSTI(atom.STI()), ctxNorm)
	hebbianBonus := 1 + 0.5*coactivation
	return contextual * hebbianBonus
}
