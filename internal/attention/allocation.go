package attention

import (
	"github.com/nvandessel/atomspace/internal/store"
)

// allocate is the normalization pass: atoms holding STI above the reward
// threshold earn LTI, every value is clamped into bounds, and quiet atoms
// with high LTI become VLTI. It returns the IDs that became VLTI.
func (e *Economy) allocate(work store.View, k *clamper) (*phaseBatch, []string) {
	b := newBatch("allocation")
	var promoted []string

	for _, a := range participants(work) {
		av := *a.Attention
		next := av
		if next.STI > e.cfg.MaxSTI*e.cfg.LTIRewardThreshold {
			next.LTI += e.cfg.LTIReward
		}
		next.STI = k.sti(next.STI)
		next.LTI = k.lti(next.LTI)
		if !next.VLTI && e.cfg.QualifiesForVLTI(next.STI, next.LTI) {
			next.VLTI = true
			promoted = append(promoted, a.ID)
		}
		if next != av {
			a.Attention = &next
			b.set(a)
		}
	}
	return b, promoted
}

// AllocationPass runs only the normalization pass against the live store
// and commits it. It returns the IDs that became VLTI.
func (e *Economy) AllocationPass() ([]string, error) {
	k := &clamper{cfg: e.cfg}
	b, promoted := e.allocate(e.store, k)
	if err := e.store.Apply(b.storeBatch()); err != nil {
		return nil, err
	}
	e.violations += k.violations
	return promoted, nil
}
