package pln

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/nvandessel/atomspace/internal/attention"
	"github.com/nvandessel/atomspace/internal/logging"
	"github.com/nvandessel/atomspace/internal/matching"
	"github.com/nvandessel/atomspace/internal/models"
	"github.com/nvandessel/atomspace/internal/store"
	"github.com/nvandessel/atomspace/internal/truth"
)

// StopReason says why a Run ended.
type StopReason string

const (
	StopConverged         StopReason = "converged"
	StopBudget            StopReason = "budget"
	StopTimeout           StopReason = "timeout"
	StopCancelled         StopReason = "cancelled"
	StopResourceExhausted StopReason = "resource_exhausted"
)

// StepReport summarizes one inference step.
type StepReport struct {
	Step         int             `json:"step"`
	Candidates   int             `json:"candidates"`
	Considered   int             `json:"considered"`
	Applications int             `json:"applications"`
	Cost         float64         `json:"cost"`
	Exhausted    bool            `json:"exhausted,omitempty"`
	New          []string        `json:"new,omitempty"`
	Revised      []string        `json:"revised,omitempty"`
	Records      []InferenceStep `json:"records,omitempty"`
	Duration     time.Duration   `json:"duration"`
}

// Inferences is the number of kept derivations.
func (r StepReport) Inferences() int {
	return len(r.Records)
}

// RunReport summarizes a Run.
type RunReport struct {
	ID       string        `json:"id"`
	Steps    []StepReport  `json:"steps,omitempty"`
	New      int           `json:"new"`
	Revised  int           `json:"revised"`
	Reason   StopReason    `json:"reason"`
	Duration time.Duration `json:"duration"`
}

// Engine runs rule inference over a store and feeds its results back into
// the attention economy.
type Engine struct {
	store      *store.Store
	economy    *attention.Economy
	matcher    *matching.Matcher
	registry   *Registry
	selector   *Selector
	tracker    *Tracker
	tournament *attention.Tournament
	cfg        Config
	logger     *slog.Logger

	goal    string
	applied map[string]bool
	steps   int
}

// NewEngine creates an engine with the built-in and type rules registered.
func NewEngine(s *store.Store, econ *attention.Economy, m *matching.Matcher, cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pln config: %w", err)
	}
	acfg := econ.Config()
	registry, err := NewRegistry(append(DefaultRules(acfg), TypeRules(s.Hierarchy())...)...)
	if err != nil {
		return nil, err
	}
	return &Engine{
		store:      s,
		economy:    econ,
		matcher:    m,
		registry:   registry,
		selector:   NewSelector(cfg.Weights, acfg),
		tracker:    NewTracker(),
		tournament: attention.NewTournament(acfg.TournamentSize, acfg.SelectionPressure, cfg.Seed),
		cfg:        cfg,
		logger:     logging.Discard(),
		applied:    make(map[string]bool),
	}, nil
}

// SetLogger sets the operational logger. A nil logger discards output.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = logging.Discard()
	}
	e.logger = logger
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Registry returns the rule registry.
func (e *Engine) Registry() *Registry { return e.registry }

// Tracker returns the inference log.
func (e *Engine) Tracker() *Tracker { return e.tracker }

// Steps returns how many steps have been committed.
func (e *Engine) Steps() int { return e.steps }

// SetGoal directs rule scoring toward tuples touching the atom id. An empty
// id clears the goal.
func (e *Engine) SetGoal(id string) error {
	if id != "" && !e.store.Has(id) {
		return fmt.Errorf("goal atom not found: %s", id)
	}
	e.goal = id
	return nil
}

// Goal returns the current goal atom ID.
func (e *Engine) Goal() string { return e.goal }

// RegisterRule validates a rule's premise patterns and adds it to the registry.
func (e *Engine) RegisterRule(rule Rule) error {
	if rule == nil {
		return fmt.Errorf("rule must not be nil")
	}
	for i, p := range rule.Premises() {
		if err := e.matcher.Validate(p); err != nil {
			return fmt.Errorf("rule %s premise %d: %w", rule.Name(), i, err)
		}
	}
	return e.registry.Register(rule)
}

// pending is a derivation applied to the working copy but not yet committed.
type pending struct {
	step    InferenceStep
	inputs  []models.Atom
	outcome bool
}

// Step runs one inference step. Candidate tuples are drawn from the store
// as it is when the step starts; derivations accumulate on a working copy
// and are committed in one batch. Each rule fires at most once per tuple
// over the engine's lifetime.
//
// Rule applications are paid for out of MaxComputationalCost. Once a rule
// that could fire no longer fits in what is left, the step stops taking
// on work, commits what it has derived, and returns its report together
// with ErrResourceExhausted. The tuples it did not reach stay eligible for
// later steps.
func (e *Engine) Step(ctx context.Context) (StepReport, error) {
	if err := ctx.Err(); err != nil {
		return StepReport{}, err
	}
	start := time.Now()
	report := StepReport{Step: e.steps + 1}

	work := e.store.Clone()
	m := e.matcher.WithView(work)
	rules := e.registry.Rules()

	cands, err := e.candidates(m, work, rules)
	if err != nil {
		return report, fmt.Errorf("inference step %d: %w", report.Step, err)
	}
	report.Candidates = len(cands)
	cands = e.trim(cands)
	report.Considered = len(cands)

	cheapest := math.Inf(1)
	for _, r := range rules {
		cheapest = min(cheapest, r.ComputationalCost())
	}

	rc := &RuleContext{Goal: e.goal, History: e.tracker}
	applied := make(map[string]bool)
	changed := make(map[string]bool)
	var outcomes []ruleApplication
	var derived []pending

	for _, c := range cands {
		remaining := e.cfg.MaxComputationalCost - report.Cost
		if report.Exhausted && remaining < cheapest {
			break
		}
		open := make([]Rule, 0, len(rules))
		for _, r := range rules {
			key := r.Name() + "|" + c.key
			if !e.applied[key] && !applied[key] {
				open = append(open, r)
			}
		}
		rc.Budget = remaining
		selected, over := e.selector.selectWithin(open, c.atoms, rc, e.cfg.MaxActiveRules, remaining)
		if over {
			report.Exhausted = true
		}
		for _, sr := range selected {
			applied[sr.Rule.Name()+"|"+c.key] = true
			report.Cost += sr.Rule.ComputationalCost()
			report.Applications++

			kept := false
			for _, out := range sr.Rule.Apply(c.atoms) {
				if out.Truth == nil || out.Truth.Significance() <= e.cfg.MinConfidence {
					continue
				}
				p, err := e.merge(work, out, sr.Rule.Name(), c)
				if err != nil {
					e.logger.Warn("discarding derived atom", "rule", sr.Rule.Name(), "error", err)
					continue
				}
				changed[p.step.OutputAtoms[0]] = true
				derived = append(derived, p)
				kept = true
			}
			outcomes = append(outcomes, ruleApplication{rule: sr.Rule.Name(), kept: kept})
		}
	}

	records, err := e.commit(work, changed, derived, outcomes)
	if err != nil {
		return report, fmt.Errorf("inference step %d: %w", report.Step, err)
	}
	for key := range applied {
		e.applied[key] = true
	}
	e.steps++

	for _, r := range records {
		if r.Revised {
			report.Revised = append(report.Revised, r.OutputAtoms...)
		} else {
			report.New = append(report.New, r.OutputAtoms...)
		}
	}
	report.Records = records
	report.Duration = time.Since(start)

	e.logger.Debug("inference step",
		"step", report.Step,
		"candidates", report.Candidates,
		"applications", report.Applications,
		"new", len(report.New),
		"revised", len(report.Revised),
		"cost", report.Cost,
	)
	if report.Exhausted {
		e.logger.Warn("inference step ran out of budget", "step", report.Step, "cost", report.Cost, "applications", report.Applications)
		return report, fmt.Errorf("inference step %d: budget %.1f spent after %d applications: %w",
			report.Step, e.cfg.MaxComputationalCost, report.Applications, models.ErrResourceExhausted)
	}
	return report, nil
}

type ruleApplication struct {
	rule string
	kept bool
}

// merge folds a derived atom into the working copy: a reference or an
// existing identity is revised, anything else is added.
func (e *Engine) merge(work *store.Store, out models.Atom, rule string, c candidate) (pending, error) {
	var existing models.Atom
	var found bool
	if out.ID != "" {
		existing, found = work.Get(out.ID)
		if !found {
			return pending{}, fmt.Errorf("derived reference to missing atom %s", out.ID)
		}
	} else {
		existing, found = work.Lookup(out.Type, out.Name, out.Outgoing)
	}

	var id string
	if found {
		tv := *out.Truth
		if existing.Truth != nil {
			tv = truth.Revision(*existing.Truth, tv)
		}
		existing.Truth = &tv
		if _, err := work.Put(existing); err != nil {
			return pending{}, err
		}
		id = existing.ID
	} else {
		out = out.Clone()
		if out.Attention == nil && out.Type != models.HebbianLink {
			out.Attention = &models.AttentionValue{}
		}
		var err error
		if id, err = work.Put(out); err != nil {
			return pending{}, err
		}
	}

	stored, _ := work.Get(id)
	return pending{
		step: InferenceStep{
			Rule:        rule,
			InputAtoms:  c.ids(),
			OutputAtoms: []string{id},
			Truth:       *stored.Truth,
			Revised:     found,
		},
		inputs: c.atoms,
	}, nil
}

// commit writes the changed atoms of work to the store, then records the
// derivations and stimulates their premises and new conclusions.
func (e *Engine) commit(work *store.Store, changed map[string]bool, derived []pending, outcomes []ruleApplication) ([]InferenceStep, error) {
	ids := make([]string, 0, len(changed))
	for id := range changed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	batch := store.Batch{Puts: make([]models.Atom, 0, len(ids))}
	for _, id := range ids {
		a, _ := work.Get(id)
		batch.Puts = append(batch.Puts, a)
	}
	if err := e.store.Apply(batch); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	for _, o := range outcomes {
		e.tracker.RecordOutcome(o.rule, o.kept)
	}
	records := make([]InferenceStep, 0, len(derived))
	for _, p := range derived {
		rec := e.tracker.Record(p.step)
		records = append(records, rec)
		e.stimulate(rec, p.inputs)
	}
	return records, nil
}

// stimulate rewards the premises of a kept derivation and gives a newly
// created conclusion its initial importance.
func (e *Engine) stimulate(rec InferenceStep, inputs []models.Atom) {
	if e.cfg.InputStimulus > 0 {
		for _, a := range inputs {
			e.stimulateIfParticipant(a.ID, e.cfg.InputStimulus)
		}
	}
	if rec.Revised || e.cfg.NewAtomStimulus == 0 {
		return
	}
	amount := rec.Truth.Significance() * e.cfg.NewAtomStimulus
	for _, id := range rec.OutputAtoms {
		e.stimulateIfParticipant(id, amount)
	}
}

func (e *Engine) stimulateIfParticipant(id string, amount float64) {
	a, ok := e.store.Get(id)
	if !ok || a.Attention == nil {
		return
	}
	if _, err := e.economy.Stimulate(id, amount, ""); err != nil {
		e.logger.Debug("stimulus failed", "atom", id, "error", err)
	}
}

// Run repeats Step until no inference is kept, the step budget is spent,
// the timeout elapses, or ctx is cancelled. A negative maxSteps uses the
// configured MaxSteps; zero runs nothing. A step that runs out of its cost
// budget still counts toward the report and ends the run without error.
func (e *Engine) Run(ctx context.Context, maxSteps int) (RunReport, error) {
	if maxSteps < 0 {
		maxSteps = e.cfg.MaxSteps
	}
	start := time.Now()
	report := RunReport{ID: uuid.NewString()}

	for i := 0; i < maxSteps; i++ {
		if err := ctx.Err(); err != nil {
			report.Reason = StopCancelled
			report.Duration = time.Since(start)
			return report, err
		}
		if e.cfg.Timeout > 0 && time.Since(start) >= e.cfg.Timeout {
			report.Reason = StopTimeout
			break
		}

		step, err := e.Step(ctx)
		exhausted := errors.Is(err, models.ErrResourceExhausted)
		if err != nil && !exhausted {
			report.Duration = time.Since(start)
			return report, err
		}
		report.Steps = append(report.Steps, step)
		report.New += len(step.New)
		report.Revised += len(step.Revised)
		if exhausted {
			report.Reason = StopResourceExhausted
			break
		}
		if step.Inferences() == 0 {
			report.Reason = StopConverged
			break
		}
	}
	if report.Reason == "" {
		report.Reason = StopBudget
	}
	report.Duration = time.Since(start)

	e.logger.Info("inference run",
		"run", report.ID,
		"steps", len(report.Steps),
		"new", report.New,
		"revised", report.Revised,
		"reason", report.Reason,
	)
	return report, nil
}

// Apply fires one rule on the given atoms, bypassing candidate selection
// and the significance filter. Premises the rule rejects yield a
// StructuralError.
func (e *Engine) Apply(ruleName string, ids []string) ([]InferenceStep, error) {
	rule, ok := e.registry.Get(ruleName)
	if !ok {
		return nil, fmt.Errorf("unknown rule: %s", ruleName)
	}
	atoms := make([]models.Atom, len(ids))
	for i, id := range ids {
		a, ok := e.store.Get(id)
		if !ok {
			return nil, fmt.Errorf("atom not found: %s", id)
		}
		atoms[i] = a
	}
	if len(atoms) != rule.Arity() || !rule.Validate(atoms) {
		return nil, models.Structuralf("apply", ruleName, "premises %v do not fit the rule", ids)
	}
	if cost := rule.ComputationalCost(); cost > e.cfg.MaxComputationalCost {
		return nil, fmt.Errorf("rule %s costs %.1f of %.1f: %w", ruleName, cost, e.cfg.MaxComputationalCost, models.ErrResourceExhausted)
	}

	work := e.store.Clone()
	c := newCandidate(atoms)
	changed := make(map[string]bool)
	var derived []pending
	for _, out := range rule.Apply(atoms) {
		if out.Truth == nil {
			continue
		}
		p, err := e.merge(work, out, ruleName, c)
		if err != nil {
			return nil, fmt.Errorf("applying %s: %w", ruleName, err)
		}
		changed[p.step.OutputAtoms[0]] = true
		derived = append(derived, p)
	}
	outcomes := []ruleApplication{{rule: ruleName, kept: len(derived) > 0}}
	return e.commit(work, changed, derived, outcomes)
}

// Explain renders the derivation chain of id. ok is false when no
// derivation is known.
func (e *Engine) Explain(id string) (string, bool) {
	return e.tracker.Explain(id, e.label)
}

func (e *Engine) label(id string) string {
	if a, ok := e.store.Get(id); ok {
		return a.Label()
	}
	return id
}
