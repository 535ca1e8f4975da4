// Package gates runs configurable quality gates (tests, lint, security,
// docs) that must pass before a session can close. Gate definitions
// live in a YAML file; results come back as a structured report.
package gates

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so gate timeouts read naturally in YAML
// ("5m", "30s") instead of integer nanoseconds.
type Duration time.Duration

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MetricCheck extracts a numeric value from a gate command's JSON
// output and compares it against bounds. Path is a gjson path.
type MetricCheck struct {
	JSONPath string   `yaml:"json_path"`
	Min      *float64 `yaml:"min,omitempty"`
	Max      *float64 `yaml:"max,omitempty"`
}

// Gate is a single quality gate definition.
type Gate struct {
	ID       string       `yaml:"id"`
	Name     string       `yaml:"name"`
	Command  string       `yaml:"command"`
	Timeout  Duration     `yaml:"timeout"`
	Blocking bool         `yaml:"blocking"`
	Metric   *MetricCheck `yaml:"metric,omitempty"`
}

// Config is the full gate configuration file.
type Config struct {
	Version int    `yaml:"version"`
	Gates   []Gate `yaml:"gates"`
}

// DefaultConfig returns the gate set written by `stint init`.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Gates: []Gate{
			{ID: "tests", Name: "Unit tests", Command: "go test ./...", Timeout: Duration(5 * time.Minute), Blocking: true},
			{ID: "lint", Name: "Lint", Command: "go vet ./...", Timeout: Duration(2 * time.Minute), Blocking: true},
			{ID: "security", Name: "Security audit", Command: "govulncheck ./...", Timeout: Duration(3 * time.Minute), Blocking: false},
			{ID: "docs", Name: "Docs check", Command: "test -s README.md", Timeout: Duration(10 * time.Second), Blocking: false},
		},
	}
}

// LoadConfig reads and validates a gate configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gate config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse gate config: %w", err)
	}

	seen := make(map[string]bool, len(cfg.Gates))
	for i, g := range cfg.Gates {
		if g.ID == "" {
			return nil, fmt.Errorf("gate %d has no id", i)
		}
		if seen[g.ID] {
			return nil, fmt.Errorf("duplicate gate id %s", g.ID)
		}
		seen[g.ID] = true
		if g.Command == "" {
			return nil, fmt.Errorf("gate %s has no command", g.ID)
		}
		if g.Metric != nil && g.Metric.JSONPath == "" {
			return nil, fmt.Errorf("gate %s metric has no json_path", g.ID)
		}
	}
	return &cfg, nil
}

// WriteConfig persists a config as YAML.
func WriteConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal gate config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
