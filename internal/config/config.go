// Package config provides unified configuration loading for atomspace.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/atomspace/internal/attention"
	"github.com/nvandessel/atomspace/internal/pln"
)

// AtomspaceConfig contains all atomspace configuration settings.
type AtomspaceConfig struct {
	// Attention tunes the attention economy.
	Attention attention.Config `json:"attention" yaml:"attention"`

	// PLN tunes the inference engine.
	PLN pln.Config `json:"pln" yaml:"pln"`

	// Logging contains settings for operational and step logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// LoggingConfig configures atomspace's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "warn", "info" (default), "debug", or "trace".
	// "debug" and "trace" enable step logging to StepDir/steps.jsonl.
	Level string `json:"level" yaml:"level"`

	// StepDir is where the JSONL step trace is written. Empty means
	// ~/.atomspace.
	StepDir string `json:"step_dir,omitempty" yaml:"step_dir,omitempty"`
}

// Default returns an AtomspaceConfig with sensible defaults.
func Default() *AtomspaceConfig {
	return &AtomspaceConfig{
		Attention: attention.DefaultConfig(),
		PLN:       pln.DefaultConfig(),
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Dir returns ~/.atomspace.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(homeDir, ".atomspace"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.atomspace/config.yaml -> environment variables
func Load() (*AtomspaceConfig, error) {
	config := Default()

	// Try to load from default config file
	if dir, err := Dir(); err == nil {
		configPath := filepath.Join(dir, "config.yaml")
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	// Apply environment variable overrides
	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Keys missing
// from the file keep their defaults.
func LoadFromFile(path string) (*AtomspaceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	config.Logging.StepDir = os.ExpandEnv(config.Logging.StepDir)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *AtomspaceConfig) Validate() error {
	if err := c.Attention.Validate(); err != nil {
		return fmt.Errorf("attention: %w", err)
	}
	if err := c.PLN.Validate(); err != nil {
		return fmt.Errorf("pln: %w", err)
	}

	validLevels := map[string]bool{"warn": true, "info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: warn, info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Malformed numbers are reported rather than silently ignored.
func applyEnvOverrides(config *AtomspaceConfig) error {
	if v := os.Getenv("ATOMSPACE_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("ATOMSPACE_STEP_DIR"); v != "" {
		config.Logging.StepDir = v
	}

	if v := os.Getenv("ATOMSPACE_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("ATOMSPACE_SEED: %w", err)
		}
		config.Attention.Seed = n
		config.PLN.Seed = n
	}

	if v := os.Getenv("ATOMSPACE_HEBBIAN_RULE"); v != "" {
		config.Attention.HebbianRule = v
	}

	floats := []struct {
		env string
		dst *float64
	}{
		{"ATOMSPACE_RENT_SCALE", &config.Attention.RentScale},
		{"ATOMSPACE_STIMULUS_AMPLIFICATION", &config.Attention.StimulusAmplification},
		{"ATOMSPACE_MIN_CONFIDENCE", &config.PLN.MinConfidence},
		{"ATOMSPACE_ATTENTION_THRESHOLD", &config.PLN.AttentionThreshold},
		{"ATOMSPACE_MAX_COST", &config.PLN.MaxComputationalCost},
	}
	for _, f := range floats {
		v := os.Getenv(f.env)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", f.env, err)
		}
		*f.dst = n
	}

	if v := os.Getenv("ATOMSPACE_MAX_STEPS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ATOMSPACE_MAX_STEPS: %w", err)
		}
		config.PLN.MaxSteps = n
	}

	if v := os.Getenv("ATOMSPACE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ATOMSPACE_TIMEOUT: %w", err)
		}
		config.PLN.Timeout = d
	}

	return nil
}
