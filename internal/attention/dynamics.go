package attention

import (
	"math"

	"github.com/nvandessel/atomspace/internal/models"
)

// NormalizeSTI maps sti from [MinSTI, MaxSTI] onto [0, 1].
func (c Config) NormalizeSTI(sti float64) float64 {
	return models.ClampUnit((sti - c.MinSTI) / (c.MaxSTI - c.MinSTI))
}

// NormalizeLTI maps lti from [MinLTI, MaxLTI] onto [0, 1].
func (c Config) NormalizeLTI(lti float64) float64 {
	return models.ClampUnit((lti - c.MinLTI) / (c.MaxLTI - c.MinLTI))
}

// Response applies the saturating stimulus response a/(1+|a|*k). Small
// stimuli pass almost unchanged; large ones approach 1/k.
func (c Config) Response(a float64) float64 {
	return a / (1 + math.Abs(a)*c.StimulusSaturation)
}

// QualifiesForVLTI reports whether an atom with the given importance should
// become VLTI: high long-term importance while short-term importance is quiet.
func (c Config) QualifiesForVLTI(sti, lti float64) bool {
	return lti > c.MaxLTI*c.VLTIThreshold && math.Abs(sti) < c.MaxSTI*c.VLTISTIBand
}

// Importance scores an atom for selection: 40% normalized STI, 30%
// normalized LTI, 20% truth significance, 10% VLTI protection.
func (c Config) Importance(a models.Atom) float64 {
	significance := 0.0
	if a.Truth != nil {
		significance = a.Truth.Significance()
	}
	usage := 0.5
	if a.IsVLTI() {
		usage = 1
	}
	return 0.4*c.NormalizeSTI(a.STI()) + 0.3*c.NormalizeLTI(a.LTI()) + 0.2*significance + 0.1*usage
}

// clamper restricts attention values to the configured bounds and counts
// every value that had to be pulled back in.
type clamper struct {
	cfg        Config
	violations int
	loss       float64
}

func (k *clamper) sti(v float64) float64 {
	return k.clamp(v, k.cfg.MinSTI, k.cfg.MaxSTI)
}

func (k *clamper) lti(v float64) float64 {
	return k.clamp(v, k.cfg.MinLTI, k.cfg.MaxLTI)
}

func (k *clamper) clamp(v, lo, hi float64) float64 {
	c := models.Clamp(v, lo, hi)
	if c != v {
		k.violations++
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			k.loss += v - c
		}
	}
	return c
}
