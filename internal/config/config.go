// Package config loads verifier settings from an optional YAML file.
// Everything has a default; a missing file is not an error, a malformed
// one is.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AdvisorConfig tunes the optimization advisor.
type AdvisorConfig struct {
	// Disabled suppresses all suggestions.
	Disabled bool `yaml:"disabled"`
	// FrequencyWindow normalizes access counts into frequencies.
	FrequencyWindow float64 `yaml:"frequency_window"`
	// PoolThreshold is the access frequency above which pooling is
	// suggested.
	PoolThreshold float64 `yaml:"pool_threshold"`
}

// ContractsConfig tunes contract enforcement.
type ContractsConfig struct {
	// WarnThresholdPercent applies to warn-mode contracts that do not
	// set their own threshold.
	WarnThresholdPercent uint8 `yaml:"warn_threshold_percent"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	// DebounceMS coalesces change bursts into one re-verification.
	DebounceMS int `yaml:"debounce_ms"`
}

// Config is the root of the verifier configuration file.
type Config struct {
	Advisor   AdvisorConfig   `yaml:"advisor"`
	Contracts ContractsConfig `yaml:"contracts"`
	Watch     WatchConfig     `yaml:"watch"`
	// Strict turns warnings into failures.
	Strict bool `yaml:"strict"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Advisor: AdvisorConfig{
			FrequencyWindow: 1000.0,
			PoolThreshold:   10.0,
		},
		Contracts: ContractsConfig{
			WarnThresholdPercent: 80,
		},
		Watch: WatchConfig{
			DebounceMS: 300,
		},
	}
}

// DefaultPath is probed when no config file is named explicitly.
const DefaultPath = ".aether-resource.yaml"

// Load reads the configuration file at path over the defaults. An empty
// path yields the defaults; a named but missing file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

// Discover loads DefaultPath when it exists, defaults otherwise.
func Discover() (*Config, error) {
	if _, err := os.Stat(DefaultPath); err != nil {
		return Default(), nil
	}
	return Load(DefaultPath)
}

func (c *Config) validate() error {
	if c.Advisor.FrequencyWindow <= 0 {
		return fmt.Errorf("advisor.frequency_window must be positive, got %g", c.Advisor.FrequencyWindow)
	}
	if c.Advisor.PoolThreshold < 0 {
		return fmt.Errorf("advisor.pool_threshold must not be negative, got %g", c.Advisor.PoolThreshold)
	}
	if c.Contracts.WarnThresholdPercent > 100 {
		return fmt.Errorf("contracts.warn_threshold_percent must be at most 100, got %d", c.Contracts.WarnThresholdPercent)
	}
	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch.debounce_ms must not be negative, got %d", c.Watch.DebounceMS)
	}
	return nil
}
