package attention

import (
	"fmt"
)

// Hebbian update rules.
const (
	HebbianDelta = "delta"
	HebbianOja   = "oja"
)

// Config holds the tunable parameters of the attention economy. It is
// constructed once per run and treated as immutable.
type Config struct {
	// Importance bounds.
	MaxSTI float64 `json:"max_sti" yaml:"max_sti"`
	MinSTI float64 `json:"min_sti" yaml:"min_sti"`
	MaxLTI float64 `json:"max_lti" yaml:"max_lti"`
	MinLTI float64 `json:"min_lti" yaml:"min_lti"`

	// RentScale is the fraction of positive STI charged as rent per step,
	// before the LTI and VLTI discounts. Default: 0.8.
	RentScale float64 `json:"rent_scale" yaml:"rent_scale"`

	// VLTIRentDiscount is the fraction of rent waived for VLTI atoms. Default: 0.85.
	VLTIRentDiscount float64 `json:"vlti_rent_discount" yaml:"vlti_rent_discount"`

	// HebbianLearningRate is how far a co-activated link moves toward the
	// pair's co-activation per step. Default: 0.08.
	HebbianLearningRate float64 `json:"hebbian_learning_rate" yaml:"hebbian_learning_rate"`

	// HebbianDecayRate is the per-step strength loss of idle links. Default: 0.03.
	HebbianDecayRate float64 `json:"hebbian_decay_rate" yaml:"hebbian_decay_rate"`

	// HebbianRule selects the update: "delta" (default) or "oja".
	HebbianRule string `json:"hebbian_rule" yaml:"hebbian_rule"`

	// CoactivationThreshold is the normalized STI both atoms of a pair must
	// exceed to count as co-activated. Default: 0.5.
	CoactivationThreshold float64 `json:"coactivation_threshold" yaml:"coactivation_threshold"`

	// MinHebbianStrength is the strength below which associations are pruned
	// by the forgetting phase. Default: 0.01.
	MinHebbianStrength float64 `json:"min_hebbian_strength" yaml:"min_hebbian_strength"`

	// SpreadingFactor is the fraction of STI a source pushes to its
	// neighbours. Default: 0.4.
	SpreadingFactor float64 `json:"spreading_factor" yaml:"spreading_factor"`

	// SpreadingThreshold is the smallest amount worth diffusing. Default: 0.15.
	SpreadingThreshold float64 `json:"spreading_threshold" yaml:"spreading_threshold"`

	// DiffusionFraction is the share of atoms, ranked by |STI|, that
	// diffuse each step. Default: 0.1.
	DiffusionFraction float64 `json:"diffusion_fraction" yaml:"diffusion_fraction"`

	// BaseEdgeWeight weights outgoing edges with no Hebbian association. Default: 0.5.
	BaseEdgeWeight float64 `json:"base_edge_weight" yaml:"base_edge_weight"`

	// TournamentSize is the number of atoms sampled per tournament. Default: 4.
	TournamentSize int `json:"tournament_size" yaml:"tournament_size"`

	// SelectionPressure is the chance a tournament picks its most important
	// entrant rather than a random one. Default: 0.65.
	SelectionPressure float64 `json:"selection_pressure" yaml:"selection_pressure"`

	// VLTIThreshold is the fraction of MaxLTI above which a quiet atom
	// becomes VLTI. Default: 0.75.
	VLTIThreshold float64 `json:"vlti_threshold" yaml:"vlti_threshold"`

	// VLTISTIBand is the fraction of MaxSTI that |STI| must stay under for
	// an atom to become VLTI. Default: 0.1.
	VLTISTIBand float64 `json:"vlti_sti_band" yaml:"vlti_sti_band"`

	// LTIRewardThreshold is the fraction of MaxSTI above which an atom earns
	// LTIReward during allocation. Default: 0.8.
	LTIRewardThreshold float64 `json:"lti_reward_threshold" yaml:"lti_reward_threshold"`

	// LTIReward is the LTI granted for sustained or strong attention. Default: 1.
	LTIReward float64 `json:"lti_reward" yaml:"lti_reward"`

	// ForgettingThreshold is the removal priority at or above which an atom
	// is kept regardless of budget. Default: 0.5.
	ForgettingThreshold float64 `json:"forgetting_threshold" yaml:"forgetting_threshold"`

	// MaxForgettingPercentage caps removals per step as a share of the
	// population. Default: 0.03.
	MaxForgettingPercentage float64 `json:"max_forgetting_percentage" yaml:"max_forgetting_percentage"`

	// ForgettingLTICeiling is the fraction of MaxLTI at or above which an
	// atom is never forgotten. Default: 0.8.
	ForgettingLTICeiling float64 `json:"forgetting_lti_ceiling" yaml:"forgetting_lti_ceiling"`

	// StimulusAmplification scales every injected stimulus. Default: 1.2.
	StimulusAmplification float64 `json:"stimulus_amplification" yaml:"stimulus_amplification"`

	// ContextualStimulus enables modulation by a context atom. Default: true.
	ContextualStimulus bool `json:"contextual_stimulus" yaml:"contextual_stimulus"`

	// StimulusSaturation shapes the response a/(1+|a|*k). Default: 0.1.
	StimulusSaturation float64 `json:"stimulus_saturation" yaml:"stimulus_saturation"`

	// StimulusLTIThreshold is the |stimulus| above which a stimulus also
	// earns LTIReward. Default: 10.
	StimulusLTIThreshold float64 `json:"stimulus_lti_threshold" yaml:"stimulus_lti_threshold"`

	// Seed drives tournament sampling.
	Seed uint64 `json:"seed" yaml:"seed"`
}

// DefaultConfig returns the default economy configuration.
func DefaultConfig() Config {
	return Config{
		MaxSTI:                  100,
		MinSTI:                  -100,
		MaxLTI:                  100,
		MinLTI:                  0,
		RentScale:               0.8,
		VLTIRentDiscount:        0.85,
		HebbianLearningRate:     0.08,
		HebbianDecayRate:        0.03,
		HebbianRule:             HebbianDelta,
		CoactivationThreshold:   0.5,
		MinHebbianStrength:      0.01,
		SpreadingFactor:         0.4,
		SpreadingThreshold:      0.15,
		DiffusionFraction:       0.1,
		BaseEdgeWeight:          0.5,
		TournamentSize:          4,
		SelectionPressure:       0.65,
		VLTIThreshold:           0.75,
		VLTISTIBand:             0.1,
		LTIRewardThreshold:      0.8,
		LTIReward:               1,
		ForgettingThreshold:     0.5,
		MaxForgettingPercentage: 0.03,
		ForgettingLTICeiling:    0.8,
		StimulusAmplification:   1.2,
		ContextualStimulus:      true,
		StimulusSaturation:      0.1,
		StimulusLTIThreshold:    10,
		Seed:                    1,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.MaxSTI <= c.MinSTI {
		return fmt.Errorf("max_sti (%v) must exceed min_sti (%v)", c.MaxSTI, c.MinSTI)
	}
	if c.MaxSTI <= 0 {
		return fmt.Errorf("max_sti must be positive, got %v", c.MaxSTI)
	}
	if c.MaxLTI <= c.MinLTI {
		return fmt.Errorf("max_lti (%v) must exceed min_lti (%v)", c.MaxLTI, c.MinLTI)
	}
	if c.MaxLTI <= 0 {
		return fmt.Errorf("max_lti must be positive, got %v", c.MaxLTI)
	}

	fractions := map[string]float64{
		"rent_scale":                c.RentScale,
		"vlti_rent_discount":        c.VLTIRentDiscount,
		"hebbian_learning_rate":     c.HebbianLearningRate,
		"hebbian_decay_rate":        c.HebbianDecayRate,
		"coactivation_threshold":    c.CoactivationThreshold,
		"min_hebbian_strength":      c.MinHebbianStrength,
		"spreading_factor":          c.SpreadingFactor,
		"diffusion_fraction":        c.DiffusionFraction,
		"base_edge_weight":          c.BaseEdgeWeight,
		"selection_pressure":        c.SelectionPressure,
		"vlti_threshold":            c.VLTIThreshold,
		"vlti_sti_band":             c.VLTISTIBand,
		"lti_reward_threshold":      c.LTIRewardThreshold,
		"forgetting_threshold":      c.ForgettingThreshold,
		"max_forgetting_percentage": c.MaxForgettingPercentage,
		"forgetting_lti_ceiling":    c.ForgettingLTICeiling,
	}
	for name, v := range fractions {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", name, v)
		}
	}

	if c.SpreadingThreshold < 0 {
		return fmt.Errorf("spreading_threshold must be non-negative, got %v", c.SpreadingThreshold)
	}
	if c.LTIReward < 0 {
		return fmt.Errorf("lti_reward must be non-negative, got %v", c.LTIReward)
	}
	if c.StimulusAmplification < 0 || c.StimulusSaturation < 0 {
		return fmt.Errorf("stimulus amplification and saturation must be non-negative")
	}
	if c.TournamentSize < 1 {
		return fmt.Errorf("tournament_size must be at least 1, got %d", c.TournamentSize)
	}
	if c.HebbianRule != HebbianDelta && c.HebbianRule != HebbianOja {
		return fmt.Errorf("invalid hebbian_rule: %s (valid: delta, oja)", c.HebbianRule)
	}
	return nil
}
