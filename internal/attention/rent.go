package attention

import (
	"github.com/nvandessel/atomspace/internal/models"
	"github.com/nvandessel/atomspace/internal/store"
)

// RentReport accounts for the STI moved by rent and redistribution.
type RentReport struct {
	// Collected is the STI removed by the rent phase.
	Collected float64 `json:"collected"`

	// Redistributed is the STI handed back before clamping. It equals
	// Collected whenever at least one atom paid rent.
	Redistributed float64 `json:"redistributed"`

	// PerAtom is each recipient's share.
	PerAtom float64 `json:"per_atom"`

	// Recipients are the atoms that had positive STI when the step began.
	Recipients []string `json:"recipients,omitempty"`

	// ClampLoss is the redistributed STI that recipients at the upper bound
	// could not absorb. Conservation holds only up to this amount.
	ClampLoss float64 `json:"clamp_loss"`
}

// Rent returns what an atom owes this step:
// sti * rentScale * (1 - lti/maxLTI) * (1 - vltiRentDiscount if VLTI).
// Atoms with non-positive STI pay nothing.
func (c Config) Rent(a models.Atom) float64 {
	sti := a.STI()
	if sti <= 0 {
		return 0
	}
	rent := sti * c.RentScale * (1 - a.LTI()/c.MaxLTI)
	if a.IsVLTI() {
		rent *= 1 - c.VLTIRentDiscount
	}
	return max(rent, 0)
}

// collectRent charges every positive-STI atom its rent.
func (e *Economy) collectRent(work store.View, k *clamper) (*phaseBatch, RentReport) {
	b := newBatch("rent")
	var report RentReport

	for _, a := range participants(work) {
		if a.Attention.STI <= 0 {
			continue
		}
		report.Recipients = append(report.Recipients, a.ID)
		rent := e.cfg.Rent(a)
		if rent == 0 {
			continue
		}
		report.Collected += rent
		a.Attention.STI = k.sti(a.Attention.STI - rent)
		b.set(a)
	}
	return b, report
}

// redistribute splits the collected rent evenly across the atoms that had
// positive STI when the step began. Shares pushed past MaxSTI are clamped
// and the excess recorded as ClampLoss.
func (e *Economy) redistribute(work store.View, k *clamper, report *RentReport) *phaseBatch {
	b := newBatch("redistribution")
	if report.Collected == 0 || len(report.Recipients) == 0 {
		return b
	}

	report.PerAtom = report.Collected / float64(len(report.Recipients))
	for _, id := range report.Recipients {
		a, ok := work.Get(id)
		if !ok || a.Attention == nil {
			continue
		}
		raw := a.Attention.STI + report.PerAtom
		report.Redistributed += report.PerAtom
		clamped := k.sti(raw)
		report.ClampLoss += raw - clamped
		a.Attention.STI = clamped
		b.set(a)
	}
	return b
}
