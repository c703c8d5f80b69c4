package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/atomspace/internal/atomspace"
	"github.com/nvandessel/atomspace/internal/config"
	"github.com/nvandessel/atomspace/internal/logging"
	"github.com/nvandessel/atomspace/internal/models"
)

// scenarioFile is the YAML layout read by every command that loads atoms.
type scenarioFile struct {
	Goal    string          `yaml:"goal"`
	Atoms   []atomEntry     `yaml:"atoms"`
	Links   []linkEntry     `yaml:"links"`
	Stimuli []stimulusEntry `yaml:"stimuli"`
}

type atomEntry struct {
	Type       string   `yaml:"type"`
	Name       string   `yaml:"name"`
	Strength   *float64 `yaml:"strength"`
	Confidence *float64 `yaml:"confidence"`
	STI        *float64 `yaml:"sti"`
	LTI        *float64 `yaml:"lti"`
	VLTI       bool     `yaml:"vlti"`
}

type linkEntry struct {
	Type       string   `yaml:"type"`
	Outgoing   []string `yaml:"outgoing"`
	Strength   *float64 `yaml:"strength"`
	Confidence *float64 `yaml:"confidence"`
}

type stimulusEntry struct {
	Atom    string  `yaml:"atom"`
	Amount  float64 `yaml:"amount"`
	Context string  `yaml:"context"`
}

// Truth values given with only one field fill the other from these.
const (
	defaultStrength   = 1.0
	defaultConfidence = 0.9
)

func readScenario(path string) (*scenarioFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var sc scenarioFile
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &sc, nil
}

func truthOf(strength, confidence *float64) *models.TruthValue {
	if strength == nil && confidence == nil {
		return nil
	}
	s, c := defaultStrength, defaultConfidence
	if strength != nil {
		s = *strength
	}
	if confidence != nil {
		c = *confidence
	}
	return models.NewTruthValue(s, c)
}

// resolveRef turns a scenario reference into an atom ID. A bare name with
// no type prefix refers to a ConceptNode.
func resolveRef(ref string) string {
	if strings.Contains(ref, ":") {
		return ref
	}
	return models.NodeID(models.ConceptNode, ref)
}

// populate adds the scenario to sp: atoms, then links in file order, then
// attention overrides, the goal and the initial stimuli.
func (sc *scenarioFile) populate(sp *atomspace.Space) error {
	for i, a := range sc.Atoms {
		t := models.ConceptNode
		if a.Type != "" {
			t = models.AtomType(a.Type)
		}
		id, err := sp.AddAtom(t, a.Name, truthOf(a.Strength, a.Confidence))
		if err != nil {
			return fmt.Errorf("atom %d (%s): %w", i, a.Name, err)
		}
		if a.STI == nil && a.LTI == nil && !a.VLTI {
			continue
		}
		cur, _ := sp.GetAtom(id)
		av := models.AttentionValue{STI: cur.STI(), LTI: cur.LTI(), VLTI: a.VLTI}
		if a.STI != nil {
			av.STI = *a.STI
		}
		if a.LTI != nil {
			av.LTI = *a.LTI
		}
		if err := sp.SetAttention(id, av); err != nil {
			return fmt.Errorf("atom %d (%s): %w", i, a.Name, err)
		}
	}

	for i, l := range sc.Links {
		if l.Type == "" {
			return fmt.Errorf("link %d: type is required", i)
		}
		outgoing := make([]string, len(l.Outgoing))
		for j, ref := range l.Outgoing {
			outgoing[j] = resolveRef(ref)
		}
		if _, err := sp.AddLink(models.AtomType(l.Type), outgoing, truthOf(l.Strength, l.Confidence)); err != nil {
			return fmt.Errorf("link %d (%s): %w", i, l.Type, err)
		}
	}

	if sc.Goal != "" {
		if err := sp.SetGoal(resolveRef(sc.Goal)); err != nil {
			return fmt.Errorf("goal: %w", err)
		}
	}

	for i, s := range sc.Stimuli {
		ctxID := ""
		if s.Context != "" {
			ctxID = resolveRef(s.Context)
		}
		if _, err := sp.StimulateAtom(resolveRef(s.Atom), s.Amount, ctxID); err != nil {
			return fmt.Errorf("stimulus %d (%s): %w", i, s.Atom, err)
		}
	}
	return nil
}

// session is a loaded space plus the resources opened for it.
type session struct {
	space *atomspace.Space
	steps *logging.StepLogger
}

func (s *session) Close() {
	s.steps.Close()
}

// loadConfig reads the --config file, or the default locations when the flag
// is empty, and applies --log-level on top.
func loadConfig(cmd *cobra.Command) (*config.AtomspaceConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	level, _ := cmd.Flags().GetString("log-level")

	var (
		cfg *config.AtomspaceConfig
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openSession builds a space from the configuration and the scenario file.
func openSession(cmd *cobra.Command, scenarioPath string, stderr io.Writer) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	sc, err := readScenario(scenarioPath)
	if err != nil {
		return nil, err
	}

	stepDir := cfg.Logging.StepDir
	if stepDir == "" {
		if dir, dirErr := config.Dir(); dirErr == nil {
			stepDir = dir
		}
	}
	var steps *logging.StepLogger
	if stepDir != "" {
		steps = logging.NewStepLogger(stepDir, cfg.Logging.Level)
	}

	sp, err := atomspace.New(atomspace.Options{
		Attention: cfg.Attention,
		PLN:       cfg.PLN,
		Logger:    logging.NewLogger(cfg.Logging.Level, stderr),
		Steps:     steps,
	})
	if err != nil {
		steps.Close()
		return nil, err
	}
	if err := sc.populate(sp); err != nil {
		steps.Close()
		return nil, fmt.Errorf("loading %s: %w", scenarioPath, err)
	}
	return &session{space: sp, steps: steps}, nil
}
