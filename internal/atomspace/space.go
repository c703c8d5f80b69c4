// Package atomspace is the host facade over the atom store, the attention
// economy and the inference engine. A Space owns one of each, serializes
// every caller behind a single mutex, and traces steps and queries with
// OpenTelemetry spans.
package atomspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nvandessel/atomspace/internal/attention"
	"github.com/nvandessel/atomspace/internal/logging"
	"github.com/nvandessel/atomspace/internal/matching"
	"github.com/nvandessel/atomspace/internal/models"
	"github.com/nvandessel/atomspace/internal/pln"
	"github.com/nvandessel/atomspace/internal/store"
	"github.com/nvandessel/atomspace/internal/typesys"
)

const tracerName = "atomspace"

// Options configures a Space. A zero Attention or PLN config is replaced by
// its defaults.
type Options struct {
	Attention attention.Config
	PLN       pln.Config

	// Logger receives operational logs. Nil discards them.
	Logger *slog.Logger

	// Steps receives one JSONL record per economy and inference step. Nil
	// disables step tracing.
	Steps *logging.StepLogger

	// Tracer overrides the global OpenTelemetry tracer provider.
	Tracer trace.TracerProvider
}

// DefaultOptions returns Options with default configs.
func DefaultOptions() Options {
	return Options{
		Attention: attention.DefaultConfig(),
		PLN:       pln.DefaultConfig(),
	}
}

// Space is an atom store with its attention economy and inference engine.
// It is safe for concurrent use; calls are serialized.
type Space struct {
	mu sync.Mutex

	hierarchy *typesys.Hierarchy
	store     *store.Store
	matcher   *matching.Matcher
	economy   *attention.Economy
	engine    *pln.Engine

	logger *slog.Logger
	steps  *logging.StepLogger
	tracer trace.Tracer
}

// New builds an empty Space.
func New(opts Options) (*Space, error) {
	if opts.Attention == (attention.Config{}) {
		opts.Attention = attention.DefaultConfig()
	}
	if opts.PLN == (pln.Config{}) {
		opts.PLN = pln.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	tp := opts.Tracer
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	h := typesys.NewHierarchy()
	s := store.New(h)
	m := matching.New(s, h)

	econ, err := attention.NewEconomy(s, m, opts.Attention)
	if err != nil {
		return nil, fmt.Errorf("creating attention economy: %w", err)
	}
	econ.SetLogger(logger.With("component", "attention"))

	engine, err := pln.NewEngine(s, econ, m, opts.PLN)
	if err != nil {
		return nil, fmt.Errorf("creating inference engine: %w", err)
	}
	engine.SetLogger(logger.With("component", "pln"))

	return &Space{
		hierarchy: h,
		store:     s,
		matcher:   m,
		economy:   econ,
		engine:    engine,
		logger:    logger,
		steps:     opts.Steps,
		tracer:    tp.Tracer(tracerName),
	}, nil
}

// Hierarchy returns the type lattice.
func (sp *Space) Hierarchy() *typesys.Hierarchy {
	return sp.hierarchy
}

// AddAtom adds a node, or returns the ID of the existing node with the same
// type and name.
func (sp *Space) AddAtom(t models.AtomType, name string, tv *models.TruthValue) (string, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.store.AddNode(t, name, tv)
}

// AddLink adds a link over existing atoms, or returns the ID of the existing
// link with the same type and outgoing set.
func (sp *Space) AddLink(t models.AtomType, outgoing []string, tv *models.TruthValue) (string, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.store.AddLink(t, outgoing, tv)
}

// GetAtom returns a copy of the atom with the given ID.
func (sp *Space) GetAtom(id string) (models.Atom, bool) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.store.Get(id)
}

// GetAtomsByType returns every atom of type t or one of its subtypes,
// sorted by ID. Abstract types such as Node are accepted.
func (sp *Space) GetAtomsByType(t models.AtomType) []models.Atom {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	var out []models.Atom
	for _, c := range sp.hierarchy.ConcreteSubtypes(t) {
		out = append(out, sp.store.ByType(c)...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetIncoming returns the links that reference id, sorted by ID.
func (sp *Space) GetIncoming(id string) []models.Atom {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.store.Incoming(id)
}

// Atoms returns every stored atom, sorted by ID.
func (sp *Space) Atoms() []models.Atom {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.store.All()
}

// Len returns the number of stored atoms.
func (sp *Space) Len() int {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.store.Len()
}

// StimulateAtom injects importance into id, optionally modulated by the
// context atom contextID.
func (sp *Space) StimulateAtom(id string, amount float64, contextID string) (attention.StimulusResult, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.economy.Stimulate(id, amount, contextID)
}

// SetAttention overwrites the attention value of id, clamped into the
// configured bounds. VLTI is sticky: an atom that already has it keeps it.
func (sp *Space) SetAttention(id string, av models.AttentionValue) error {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	a, ok := sp.store.Get(id)
	if !ok {
		return fmt.Errorf("atom not found: %s", id)
	}
	if a.Attention == nil {
		return models.Structuralf("set attention", id, "%s does not take part in the attention economy", a.Type)
	}
	cfg := sp.economy.Config()
	av.STI = models.Clamp(av.STI, cfg.MinSTI, cfg.MaxSTI)
	av.LTI = models.Clamp(av.LTI, cfg.MinLTI, cfg.MaxLTI)
	av.VLTI = av.VLTI || a.Attention.VLTI
	a.Attention = &av
	_, err := sp.store.Put(a)
	return err
}

// GetImportantAtoms returns up to count atoms chosen by importance
// tournament. The order is the selection order.
func (sp *Space) GetImportantAtoms(count int) []models.Atom {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.economy.ImportantAtoms(count)
}

// Associations returns the Hebbian associations of id.
func (sp *Space) Associations(id string) ([]attention.Association, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.economy.Associations(sp.store, id)
}

// Violations returns how many attention values the economy has clamped.
func (sp *Space) Violations() int {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.economy.Violations()
}

// RunEconomyStep runs one attention economy step.
func (sp *Space) RunEconomyStep(ctx context.Context) (attention.StepReport, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.economyStep(ctx)
}

func (sp *Space) economyStep(ctx context.Context) (attention.StepReport, error) {
	ctx, span := sp.tracer.Start(ctx, "atomspace.EconomyStep",
		trace.WithAttributes(attribute.Int("atoms", sp.store.Len())),
	)
	defer span.End()

	report, err := sp.economy.Step(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "economy step failed")
		return report, err
	}
	span.SetAttributes(
		attribute.Int("step", report.Step),
		attribute.Float64("rent_collected", report.Rent.Collected),
		attribute.Int("forgotten", len(report.Forgotten)),
		attribute.Int("clamped", report.Clamped),
	)
	if report.Clamped > 0 {
		sp.logger.Warn("attention values clamped", "step", report.Step, "count", report.Clamped)
	}
	sp.steps.Log("economy", report)
	return report, nil
}

// RunInference runs up to maxSteps inference steps. A negative maxSteps
// uses the configured step budget; zero changes nothing.
func (sp *Space) RunInference(ctx context.Context, maxSteps int) (pln.RunReport, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	ctx, span := sp.tracer.Start(ctx, "atomspace.RunInference",
		trace.WithAttributes(attribute.Int("max_steps", maxSteps)),
	)
	defer span.End()

	report, err := sp.engine.Run(ctx, maxSteps)
	for _, step := range report.Steps {
		sp.steps.Log("inference", step)
	}
	span.SetAttributes(
		attribute.String("run", report.ID),
		attribute.Int("steps", len(report.Steps)),
		attribute.Int("new", report.New),
		attribute.Int("revised", report.Revised),
		attribute.String("reason", string(report.Reason)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "inference run failed")
	}
	return report, err
}

// ExplainInference renders how id was derived. ok is false when no
// derivation is known.
func (sp *Space) ExplainInference(id string) (string, bool) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.engine.Explain(id)
}

// Match runs a pattern query against the store.
func (sp *Space) Match(ctx context.Context, p matching.Pattern) ([]matching.MatchResult, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	_, span := sp.tracer.Start(ctx, "atomspace.Match",
		trace.WithAttributes(
			attribute.String("type", string(p.Type)),
			attribute.StringSlice("variables", p.Variables()),
		),
	)
	defer span.End()

	results, err := sp.matcher.Match(p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid pattern")
		return nil, err
	}
	span.SetAttributes(attribute.Int("results", len(results)))
	return results, nil
}

// ApplyRule fires the named rule on the given atoms.
func (sp *Space) ApplyRule(rule string, ids []string) ([]pln.InferenceStep, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.engine.Apply(rule, ids)
}

// RegisterRule adds a rule to the inference engine.
func (sp *Space) RegisterRule(r pln.Rule) error {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.engine.RegisterRule(r)
}

// Rules returns the registered rules, sorted by name.
func (sp *Space) Rules() []pln.Rule {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.engine.Registry().Rules()
}

// SetGoal directs inference toward id. An empty id clears the goal.
func (sp *Space) SetGoal(id string) error {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.engine.SetGoal(id)
}

// Cycle is one economy step followed by one inference step.
type Cycle struct {
	Economy   attention.StepReport `json:"economy"`
	Inference pln.StepReport       `json:"inference"`

	// Exhausted is set when the inference step ran out of its cost budget
	// before every candidate was served. What fit was still committed.
	Exhausted bool `json:"exhausted,omitempty"`

	// Overrun is set when the cycle took longer than the inference timeout.
	Overrun bool `json:"overrun,omitempty"`
}

// DriveReport summarizes a Drive.
type DriveReport struct {
	ID       string        `json:"id"`
	Cycles   []Cycle       `json:"cycles,omitempty"`
	New      int           `json:"new"`
	Revised  int           `json:"revised"`
	Reason   string        `json:"reason"`
	Duration time.Duration `json:"duration"`
}

// Drive stop reasons.
const (
	DriveCompleted = "completed"
	DriveCancelled = "cancelled"
)

// Drive runs cycles economy-then-inference cycles. It checks ctx between
// steps; a step that has started always completes. The inference timeout
// and cost budget are advisory here: an overrunning cycle is flagged, an
// inference step that runs out of budget keeps what it derived and is
// flagged, and the drive goes on.
func (sp *Space) Drive(ctx context.Context, cycles int) (DriveReport, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	start := time.Now()
	report := DriveReport{ID: uuid.NewString(), Reason: DriveCompleted}
	ctx, span := sp.tracer.Start(ctx, "atomspace.Drive",
		trace.WithAttributes(
			attribute.String("drive", report.ID),
			attribute.Int("cycles", cycles),
		),
	)
	defer span.End()

	timeout := sp.engine.Config().Timeout
	finish := func(err error) (DriveReport, error) {
		report.Duration = time.Since(start)
		span.SetAttributes(
			attribute.Int("completed", len(report.Cycles)),
			attribute.Int("new", report.New),
			attribute.Int("revised", report.Revised),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, report.Reason)
		}
		return report, err
	}

	for i := 0; i < cycles; i++ {
		if err := ctx.Err(); err != nil {
			report.Reason = DriveCancelled
			return finish(err)
		}
		cycleStart := time.Now()
		var c Cycle

		econ, err := sp.economyStep(ctx)
		if err != nil {
			if ctx.Err() != nil {
				report.Reason = DriveCancelled
			}
			return finish(err)
		}
		c.Economy = econ

		if err := ctx.Err(); err != nil {
			report.Cycles = append(report.Cycles, c)
			report.Reason = DriveCancelled
			return finish(err)
		}
		inf, err := sp.engine.Step(ctx)
		if errors.Is(err, models.ErrResourceExhausted) {
			c.Exhausted = true
			sp.logger.Warn("inference step over budget", "cycle", i+1, "applications", inf.Applications, "error", err)
		} else if err != nil {
			return finish(err)
		}
		c.Inference = inf
		report.New += len(inf.New)
		report.Revised += len(inf.Revised)
		sp.steps.Log("inference", inf)

		if timeout > 0 && time.Since(cycleStart) > timeout {
			c.Overrun = true
			sp.logger.Warn("cycle overran inference timeout", "cycle", i+1, "elapsed", time.Since(cycleStart), "timeout", timeout)
		}
		report.Cycles = append(report.Cycles, c)
	}

	sp.logger.Info("drive finished",
		"drive", report.ID,
		"cycles", len(report.Cycles),
		"new", report.New,
		"revised", report.Revised,
	)
	return finish(nil)
}
