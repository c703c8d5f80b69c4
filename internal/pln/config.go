package pln

import (
	"fmt"
	"time"
)

// Config controls the inference engine.
type Config struct {
	// AttentionThreshold is the STI an atom must exceed to take part in
	// candidate generation. Atoms outside the attention economy (Hebbian
	// links) are exempt. Default: -10.
	AttentionThreshold float64 `json:"attention_threshold" yaml:"attention_threshold"`

	// ConfidenceThreshold is the minimum truth confidence of a premise.
	// Default: 0.1.
	ConfidenceThreshold float64 `json:"confidence_threshold" yaml:"confidence_threshold"`

	// MinConfidence is the significance (strength*confidence) a derived
	// atom must exceed to be kept. Default: 0.3.
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"`

	// MaxActiveRules is how many rules may fire per candidate tuple. Default: 3.
	MaxActiveRules int `json:"max_active_rules" yaml:"max_active_rules"`

	// MaxSteps is the step budget used by Run when none is given. Default: 100.
	MaxSteps int `json:"max_steps" yaml:"max_steps"`

	// Timeout bounds a Run. It is checked between steps. Default: 5s.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxComputationalCost is the total rule cost one step may spend.
	// Rules that no longer fit are left for later steps. Default: 1000.
	MaxComputationalCost float64 `json:"max_computational_cost" yaml:"max_computational_cost"`

	// MaxCandidates caps the candidate tuples per step; larger sets are
	// trimmed by tournament selection on importance. Default: 5000.
	MaxCandidates int `json:"max_candidates" yaml:"max_candidates"`

	// InputStimulus is given to each premise of a kept inference. Default: 1.
	InputStimulus float64 `json:"input_stimulus" yaml:"input_stimulus"`

	// NewAtomStimulus scales the initial stimulus of a new atom, which is
	// strength*confidence*NewAtomStimulus. Default: 10.
	NewAtomStimulus float64 `json:"new_atom_stimulus" yaml:"new_atom_stimulus"`

	// Weights configures rule scoring.
	Weights SelectorWeights `json:"weights" yaml:"weights"`

	// Seed drives candidate trimming.
	Seed uint64 `json:"seed" yaml:"seed"`
}

// SelectorWeights weight the components of a rule's score.
type SelectorWeights struct {
	Priority     float64 `json:"priority" yaml:"priority"`
	Importance   float64 `json:"importance" yaml:"importance"`
	Significance float64 `json:"significance" yaml:"significance"`
	Context      float64 `json:"context" yaml:"context"`
}

// DefaultConfig returns the default inference configuration.
func DefaultConfig() Config {
	return Config{
		AttentionThreshold:   -10,
		ConfidenceThreshold:  0.1,
		MinConfidence:        0.3,
		MaxActiveRules:       3,
		MaxSteps:             100,
		Timeout:              5 * time.Second,
		MaxComputationalCost: 1000,
		MaxCandidates:        5000,
		InputStimulus:        1,
		NewAtomStimulus:      10,
		Weights: SelectorWeights{
			Priority:     1,
			Importance:   1,
			Significance: 1,
			Context:      1,
		},
		Seed: 1,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be between 0 and 1, got %v", c.ConfidenceThreshold)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be between 0 and 1, got %v", c.MinConfidence)
	}
	if c.MaxActiveRules < 1 {
		return fmt.Errorf("max_active_rules must be at least 1, got %d", c.MaxActiveRules)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be non-negative, got %d", c.MaxSteps)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %v", c.Timeout)
	}
	if c.MaxComputationalCost <= 0 {
		return fmt.Errorf("max_computational_cost must be positive, got %v", c.MaxComputationalCost)
	}
	if c.MaxCandidates < 1 {
		return fmt.Errorf("max_candidates must be at least 1, got %d", c.MaxCandidates)
	}
	if c.InputStimulus < 0 || c.NewAtomStimulus < 0 {
		return fmt.Errorf("stimulus amounts must be non-negative")
	}
	w := c.Weights
	if w.Priority < 0 || w.Importance < 0 || w.Significance < 0 || w.Context < 0 {
		return fmt.Errorf("selector weights must be non-negative")
	}
	return nil
}
