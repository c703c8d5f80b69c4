package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nvandessel/atomspace/internal/attention"
	"github.com/nvandessel/atomspace/internal/pln"
)

func TestDefault(t *testing.T) {
	config := Default()

	if config.Attention != attention.DefaultConfig() {
		t.Errorf("expected default attention config, got %+v", config.Attention)
	}
	if config.PLN != pln.DefaultConfig() {
		t.Errorf("expected default pln config, got %+v", config.PLN)
	}
	if config.Logging.Level != "info" {
		t.Errorf("expected Logging.Level 'info', got '%s'", config.Logging.Level)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
attention:
  rent_scale: 0.5
  hebbian_rule: oja
  seed: 42

pln:
  min_confidence: 0.2
  max_steps: 12
  timeout: 250ms
  weights:
    priority: 2

logging:
  level: debug
  step_dir: /tmp/steps
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Attention.RentScale != 0.5 {
		t.Errorf("expected RentScale 0.5, got %v", config.Attention.RentScale)
	}
	if config.Attention.HebbianRule != attention.HebbianOja {
		t.Errorf("expected HebbianRule oja, got %q", config.Attention.HebbianRule)
	}
	if config.Attention.Seed != 42 {
		t.Errorf("expected Seed 42, got %d", config.Attention.Seed)
	}
	if config.PLN.MinConfidence != 0.2 {
		t.Errorf("expected MinConfidence 0.2, got %v", config.PLN.MinConfidence)
	}
	if config.PLN.MaxSteps != 12 {
		t.Errorf("expected MaxSteps 12, got %d", config.PLN.MaxSteps)
	}
	if config.PLN.Timeout != 250*time.Millisecond {
		t.Errorf("expected Timeout 250ms, got %v", config.PLN.Timeout)
	}
	if config.PLN.Weights.Priority != 2 {
		t.Errorf("expected Weights.Priority 2, got %v", config.PLN.Weights.Priority)
	}
	if config.Logging.Level != "debug" || config.Logging.StepDir != "/tmp/steps" {
		t.Errorf("unexpected logging config %+v", config.Logging)
	}

	// Unspecified values keep their defaults
	if config.Attention.MaxSTI != 100 {
		t.Errorf("expected default MaxSTI 100, got %v", config.Attention.MaxSTI)
	}
	if config.PLN.Weights.Importance != 1 {
		t.Errorf("expected default Weights.Importance 1, got %v", config.PLN.Weights.Importance)
	}
}

func TestLoadFromFile_NotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("attention: [not, a, map"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := LoadFromFile(configPath)
	if err == nil || !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestLoadFromFile_ExpandsStepDir(t *testing.T) {
	t.Setenv("ATOMSPACE_TEST_ROOT", "/var/atoms")
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("logging:\n  step_dir: ${ATOMSPACE_TEST_ROOT}/trace\n"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if config.Logging.StepDir != "/var/atoms/trace" {
		t.Errorf("expected expanded StepDir, got %q", config.Logging.StepDir)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*AtomspaceConfig)
		wantErr string
	}{
		{
			name:   "valid default config",
			modify: func(c *AtomspaceConfig) {},
		},
		{
			name:   "empty log level is allowed",
			modify: func(c *AtomspaceConfig) { c.Logging.Level = "" },
		},
		{
			name:    "invalid log level",
			modify:  func(c *AtomspaceConfig) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:    "attention bounds inverted",
			modify:  func(c *AtomspaceConfig) { c.Attention.MinSTI = 200 },
			wantErr: "attention:",
		},
		{
			name:    "unknown hebbian rule",
			modify:  func(c *AtomspaceConfig) { c.Attention.HebbianRule = "hopfield" },
			wantErr: "attention:",
		},
		{
			name:    "pln rejects zero active rules",
			modify:  func(c *AtomspaceConfig) { c.PLN.MaxActiveRules = 0 },
			wantErr: "pln:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.modify(config)
			err := config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("ATOMSPACE_LOG_LEVEL", "trace")
	t.Setenv("ATOMSPACE_SEED", "7")
	t.Setenv("ATOMSPACE_HEBBIAN_RULE", "oja")
	t.Setenv("ATOMSPACE_RENT_SCALE", "0.25")
	t.Setenv("ATOMSPACE_MIN_CONFIDENCE", "0.4")
	t.Setenv("ATOMSPACE_MAX_STEPS", "9")
	t.Setenv("ATOMSPACE_TIMEOUT", "2s")

	config := Default()
	if err := applyEnvOverrides(config); err != nil {
		t.Fatalf("applyEnvOverrides failed: %v", err)
	}

	if config.Logging.Level != "trace" {
		t.Errorf("expected Level trace, got %q", config.Logging.Level)
	}
	if config.Attention.Seed != 7 || config.PLN.Seed != 7 {
		t.Errorf("expected both seeds 7, got %d and %d", config.Attention.Seed, config.PLN.Seed)
	}
	if config.Attention.HebbianRule != attention.HebbianOja {
		t.Errorf("expected HebbianRule oja, got %q", config.Attention.HebbianRule)
	}
	if config.Attention.RentScale != 0.25 {
		t.Errorf("expected RentScale 0.25, got %v", config.Attention.RentScale)
	}
	if config.PLN.MinConfidence != 0.4 {
		t.Errorf("expected MinConfidence 0.4, got %v", config.PLN.MinConfidence)
	}
	if config.PLN.MaxSteps != 9 {
		t.Errorf("expected MaxSteps 9, got %d", config.PLN.MaxSteps)
	}
	if config.PLN.Timeout != 2*time.Second {
		t.Errorf("expected Timeout 2s, got %v", config.PLN.Timeout)
	}
}

func TestApplyEnvOverrides_RejectsMalformedNumbers(t *testing.T) {
	tests := []struct {
		env   string
		value string
	}{
		{"ATOMSPACE_SEED", "-1"},
		{"ATOMSPACE_RENT_SCALE", "lots"},
		{"ATOMSPACE_MAX_STEPS", "1.5"},
		{"ATOMSPACE_TIMEOUT", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			err := applyEnvOverrides(Default())
			if err == nil || !strings.Contains(err.Error(), tt.env) {
				t.Errorf("expected error naming %s, got %v", tt.env, err)
			}
		})
	}
}

func TestLoad_UsesHomeConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".atomspace")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("pln:\n  max_steps: 3\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ATOMSPACE_MAX_STEPS", "")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.PLN.MaxSteps != 3 {
		t.Errorf("expected MaxSteps 3 from home config, got %d", config.PLN.MaxSteps)
	}
}
