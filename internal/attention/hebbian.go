package attention

import (
	"github.com/nvandessel/atomspace/internal/matching"
	"github.com/nvandessel/atomspace/internal/models"
	"github.com/nvandessel/atomspace/internal/store"
)

// CoActivationPair is two atoms whose normalized STI both exceed the
// co-activation threshold. A is always the smaller ID.
type CoActivationPair struct {
	A, B         string
	NormA, NormB float64
}

// Coactivation is the weaker of the two activations.
func (p CoActivationPair) Coactivation() float64 {
	return min(p.NormA, p.NormB)
}

// ExtractCoActivationPairs returns every co-activated pair among atoms.
// Atoms outside the economy are ignored.
func ExtractCoActivationPairs(atoms []models.Atom, cfg Config) []CoActivationPair {
	type active struct {
		id   string
		norm float64
	}
	var hot []active
	for _, a := range atoms {
		if a.Attention == nil {
			continue
		}
		if n := cfg.NormalizeSTI(a.Attention.STI); n > cfg.CoactivationThreshold {
			hot = append(hot, active{id: a.ID, norm: n})
		}
	}
	if len(hot) < 2 {
		return nil
	}

	pairs := make([]CoActivationPair, 0, len(hot)*(len(hot)-1)/2)
	for i := 0; i < len(hot); i++ {
		for j := i + 1; j < len(hot); j++ {
			// Canonical ordering: smaller ID first
			a, b := hot[i], hot[j]
			if a.id > b.id {
				a, b = b, a
			}
			pairs = append(pairs, CoActivationPair{A: a.id, B: b.id, NormA: a.norm, NormB: b.norm})
		}
	}
	return pairs
}

// OjaUpdate computes the new weight under Oja's rule:
//
//	dW = eta * (A_i * A_j - A_j^2 * W)
//
// The forgetting term A_j^2 * W keeps the weight from growing without
// bound. The result is clamped to [minWeight, 1].
func OjaUpdate(current, activationA, activationB, eta, minWeight float64) float64 {
	hebbian := activationA * activationB
	forgetting := activationB * activationB * current
	return clampWeight(current+eta*(hebbian-forgetting), minWeight, 1)
}

// DeltaUpdate moves the weight toward the pair's co-activation by eta.
func DeltaUpdate(current, coactivation, eta float64) float64 {
	return clampWeight(current+(coactivation-current)*eta, 0, 1)
}

type hebbianCounts struct {
	created, updated, decayed int
}

// updateHebbian strengthens the association of every co-activated pair and
// decays every other association not touching a VLTI atom.
func (e *Economy) updateHebbian(work *store.Store) (*phaseBatch, hebbianCounts) {
	b := newBatch("hebbian")
	var counts hebbianCounts
	rate := e.cfg.HebbianLearningRate

	touched := make(map[string]bool)
	for _, pair := range ExtractCoActivationPairs(work.All(), e.cfg) {
		id := models.HebbianID(pair.A, pair.B)
		touched[id] = true
		coact := pair.Coactivation()

		link, exists := work.Get(id)
		if !exists {
			link = models.Atom{
				ID:       id,
				Type:     models.HebbianLink,
				Outgoing: []string{pair.A, pair.B},
				Truth:    &models.TruthValue{Strength: coact, Confidence: models.ClampUnit(rate * coact)},
			}
			b.set(link)
			counts.created++
			continue
		}

		tv := models.TruthValue{}
		if link.Truth != nil {
			tv = *link.Truth
		}
		switch e.cfg.HebbianRule {
		case HebbianOja:
			tv.Strength = OjaUpdate(tv.Strength, pair.NormA, pair.NormB, rate, e.cfg.MinHebbianStrength)
		default:
			tv.Strength = DeltaUpdate(tv.Strength, coact, rate)
		}
		tv.Confidence = models.ClampUnit(tv.Confidence + rate*coact)
		link.Truth = &tv
		b.set(link)
		counts.updated++
	}

	for _, link := range work.ByType(models.HebbianLink) {
		if touched[link.ID] || link.Truth == nil || e.protected(work, link) {
			continue
		}
		link.Truth.Strength = clampWeight(link.Truth.Strength*(1-e.cfg.HebbianDecayRate), 0, 1)
		b.set(link)
		counts.decayed++
	}
	return b, counts
}

// protected reports whether a link touches a VLTI atom.
func (e *Economy) protected(view store.View, link models.Atom) bool {
	for _, id := range link.Outgoing {
		if a, ok := view.Get(id); ok && a.IsVLTI() {
			return true
		}
	}
	return false
}

// Association is one Hebbian link seen from one of its endpoints.
type Association struct {
	LinkID   string
	Neighbor string
	Strength float64
}

// Associations returns the Hebbian associations of atom id in view.
func (e *Economy) Associations(view store.View, id string) ([]Association, error) {
	m := e.matcher.WithView(view)
	p := matching.Or(
		matching.Link(models.HebbianLink, matching.Lit(id), matching.V("neighbor")),
		matching.Link(models.HebbianLink, matching.V("neighbor"), matching.Lit(id)),
	)

	var out []Association
	for _, link := range view.Incoming(id) {
		if link.Type != models.HebbianLink {
			continue
		}
		r, err := m.MatchAtom(link, p, nil)
		if err != nil {
			return nil, err
		}
		if !r.Matched {
			continue
		}
		strength := 0.0
		if link.Truth != nil {
			strength = link.Truth.Strength
		}
		out = append(out, Association{
			LinkID:   link.ID,
			Neighbor: r.Bindings["neighbor"].ID,
			Strength: strength,
		})
	}
	return out, nil
}

// HebbianStrength returns the association strength between a and b in the
// live store, or 0 when they are not associated.
func (e *Economy) HebbianStrength(a, b string) float64 {
	link, ok := e.store.Get(models.HebbianID(a, b))
	if !ok || link.Truth == nil {
		return 0
	}
	return link.Truth.Strength
}

// clampWeight restricts a weight to [min, max].
func clampWeight(w, min, max float64) float64 {
	return models.Clamp(w, min, max)
}
