// Package attention implements the attention economy: bounded short- and
// long-term importance per atom, rent and redistribution, Hebbian
// association learning, importance diffusion, forgetting, and stimulus
// injection.
//
// A step never mutates the store while it runs. Each phase reads a working
// copy, emits a batch of updated atoms, and applies it to the working copy so
// the next phase sees it. The batches are merged and committed to the store
// in one Apply at the end of the step.
package attention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nvandessel/atomspace/internal/logging"
	"github.com/nvandessel/atomspace/internal/matching"
	"github.com/nvandessel/atomspace/internal/models"
	"github.com/nvandessel/atomspace/internal/store"
)

// StepReport summarizes one economy step.
type StepReport struct {
	Step int `json:"step"`

	Rent RentReport `json:"rent"`

	HebbianCreated int `json:"hebbian_created"`
	HebbianUpdated int `json:"hebbian_updated"`
	HebbianDecayed int `json:"hebbian_decayed"`

	DiffusionSources int     `json:"diffusion_sources"`
	Diffused         float64 `json:"diffused"`

	NewVLTI   []string `json:"new_vlti,omitempty"`
	Forgotten []string `json:"forgotten,omitempty"`
	Pruned    []string `json:"pruned,omitempty"`

	// Clamped counts attention values pulled back into bounds.
	Clamped int `json:"clamped"`

	Duration time.Duration `json:"duration"`
}

// Economy runs the attention economy over a store.
type Economy struct {
	store      *store.Store
	matcher    *matching.Matcher
	cfg        Config
	forgetter  *ForgettingManager
	tournament *Tournament
	logger     *slog.Logger
	steps      int
	violations int
}

// NewEconomy creates an economy over s. The matcher is used for Hebbian
// neighbour lookups and is re-pointed at each step's working copy.
func NewEconomy(s *store.Store, m *matching.Matcher, cfg Config) (*Economy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid attention config: %w", err)
	}
	return &Economy{
		store:      s,
		matcher:    m,
		cfg:        cfg,
		forgetter:  NewForgettingManager(cfg),
		tournament: NewTournament(cfg.TournamentSize, cfg.SelectionPressure, cfg.Seed),
		logger:     logging.Discard(),
	}, nil
}

// SetLogger sets the operational logger. A nil logger discards output.
func (e *Economy) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = logging.Discard()
	}
	e.logger = logger
}

// Config returns the configuration the economy was built with.
func (e *Economy) Config() Config {
	return e.cfg
}

// Forgetter returns the forgetting manager used by the final phase.
func (e *Economy) Forgetter() *ForgettingManager {
	return e.forgetter
}

// Tournament returns the shared tournament selector.
func (e *Economy) Tournament() *Tournament {
	return e.tournament
}

// Violations returns the total number of clamped attention values.
func (e *Economy) Violations() int {
	return e.violations
}

// Steps returns how many steps have been committed.
func (e *Economy) Steps() int {
	return e.steps
}

// Step runs one full economy step: rent, redistribution, Hebbian update,
// diffusion, allocation, forgetting. It checks ctx only before starting;
// once started a step runs to completion.
func (e *Economy) Step(ctx context.Context) (StepReport, error) {
	if err := ctx.Err(); err != nil {
		return StepReport{}, err
	}
	start := time.Now()
	report := StepReport{Step: e.steps + 1}
	work := e.store.Clone()
	k := &clamper{cfg: e.cfg}

	var batches []*phaseBatch
	apply := func(b *phaseBatch) error {
		if err := work.Apply(b.storeBatch()); err != nil {
			return fmt.Errorf("economy step %d: %s phase: %w", report.Step, b.phase, err)
		}
		batches = append(batches, b)
		return nil
	}

	rentBatch, rent := e.collectRent(work, k)
	if err := apply(rentBatch); err != nil {
		return report, err
	}
	redistBatch := e.redistribute(work, k, &rent)
	if err := apply(redistBatch); err != nil {
		return report, err
	}
	report.Rent = rent

	hebbBatch, hebb := e.updateHebbian(work)
	if err := apply(hebbBatch); err != nil {
		return report, err
	}
	report.HebbianCreated, report.HebbianUpdated, report.HebbianDecayed = hebb.created, hebb.updated, hebb.decayed

	diffBatch, sources, diffused := e.diffuse(work, k)
	if err := apply(diffBatch); err != nil {
		return report, err
	}
	report.DiffusionSources, report.Diffused = sources, diffused

	allocBatch, newVLTI := e.allocate(work, k)
	if err := apply(allocBatch); err != nil {
		return report, err
	}
	report.NewVLTI = newVLTI

	forgetBatch, forgotten, pruned := e.forget(work)
	if err := apply(forgetBatch); err != nil {
		return report, err
	}
	report.Forgotten, report.Pruned = forgotten, pruned

	if err := e.store.Apply(mergeBatches(batches)); err != nil {
		return report, fmt.Errorf("economy step %d: commit: %w", report.Step, err)
	}

	e.steps++
	e.violations += k.violations
	report.Clamped = k.violations
	report.Duration = time.Since(start)

	e.logger.Debug("economy step",
		"step", report.Step,
		"rent_collected", rent.Collected,
		"clamp_loss", rent.ClampLoss,
		"hebbian_created", report.HebbianCreated,
		"diffused", report.Diffused,
		"forgotten", len(report.Forgotten),
		"clamped", report.Clamped,
	)
	if len(report.Forgotten) > 0 {
		e.logger.Info("forgot atoms", "step", report.Step, "count", len(report.Forgotten))
	}
	return report, nil
}

// participants returns the atoms that take part in the economy, sorted by ID.
func participants(view store.View) []models.Atom {
	all := view.All()
	out := all[:0]
	for _, a := range all {
		if a.Attention != nil {
			out = append(out, a)
		}
	}
	return out
}
