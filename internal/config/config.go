package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ib-77/skillpipe/internal/logging"
)

const (
	DefaultWorkers  = 4
	DefaultInstance = "default"
)

// Built-in skill kinds.
const (
	KindGrayscale      = "grayscale"
	KindBrightnessGate = "brightness_gate"
	KindFrameCounter   = "frame_counter"
)

var knownKinds = map[string]bool{
	KindGrayscale:      true,
	KindBrightnessGate: true,
	KindFrameCounter:   true,
}

// Config represents the top-level pipeline.yml configuration
type Config struct {
	Version       string            `yaml:"version"`
	Pipeline      string            `yaml:"pipeline"`
	Workers       int               `yaml:"workers,omitempty"`
	HaltOnFailure bool              `yaml:"halt_on_failure,omitempty"`
	Logging       LoggingConfig     `yaml:"logging,omitempty"`
	Checkpoint    *CheckpointConfig `yaml:"checkpoint,omitempty"` // nil disables checkpointing
	Skills        []SkillSpec       `yaml:"skills"`
}

type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"` // "text" or "json"
}

// CheckpointConfig points at the Redis server holding skill snapshots
type CheckpointConfig struct {
	RedisAddr string `yaml:"redis_addr"`
	Password  string `yaml:"password,omitempty"`
	DB        int    `yaml:"db,omitempty"`
	Instance  string `yaml:"instance,omitempty"`
}

// SkillSpec names one pipeline stage and the built-in kind implementing it
type SkillSpec struct {
	Name   string         `yaml:"name"`
	Kind   string         `yaml:"kind"`
	Params map[string]any `yaml:"params,omitempty"`
}

// Validate checks the configuration and applies defaults in place.
func (c *Config) Validate() error {
	if c.Version != "1" {
		return fmt.Errorf("unsupported version: %q (expected: 1)", c.Version)
	}
	if c.Pipeline == "" {
		return fmt.Errorf("pipeline name is required")
	}

	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}

	if err := logging.ValidLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging: unknown format %q (expected text or json)", c.Logging.Format)
	}

	if c.Checkpoint != nil {
		if c.Checkpoint.RedisAddr == "" {
			return fmt.Errorf("checkpoint.redis_addr is required when checkpoint is set")
		}
		if c.Checkpoint.Instance == "" {
			c.Checkpoint.Instance = DefaultInstance
		}
	}

	if len(c.Skills) == 0 {
		return fmt.Errorf("no skills defined")
	}
	seen := make(map[string]bool, len(c.Skills))
	for i, s := range c.Skills {
		if s.Name == "" {
			return fmt.Errorf("skills[%d]: name is required", i)
		}
		if s.Kind == "" {
			return fmt.Errorf("skill '%s': kind is required", s.Name)
		}
		if !knownKinds[s.Kind] {
			return fmt.Errorf("skill '%s': unknown kind %q", s.Name, s.Kind)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate skill name '%s'", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// Parse decodes and validates a YAML document.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Float returns a numeric param, or def when it is absent.
func (s SkillSpec) Float(key string, def float64) (float64, error) {
	v, ok := s.Params[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("skill '%s': param %s must be a number, got %T", s.Name, key, v)
	}
}
