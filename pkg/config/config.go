package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PipelineConfig is the root structure for a pipeline definition (e.g. from YAML).
type PipelineConfig struct {
	Name string `yaml:"name"`

	// RestartLimit caps restarts per run. Omitted means unlimited.
	RestartLimit *int `yaml:"restart_limit"`

	// Logging enables the per-step logging decorators and run events.
	Logging bool `yaml:"logging"`

	ErrorHandler  *ComponentRef `yaml:"error_handler"`
	RestartFilter *ComponentRef `yaml:"restart_filter"`

	Steps []StepRef `yaml:"steps"`
}

// ComponentRef names a registered component plus its parameters.
// In YAML it can be a plain name or a mapping:
//
//	error_handler: pass-through
//	error_handler: {name: recover-to, with: {value: 0}}
type ComponentRef struct {
	Name string `yaml:"name"`
	With Params `yaml:"with"`
}

// UnmarshalYAML allows a component to be a string (name only) or a struct.
func (c *ComponentRef) UnmarshalYAML(value *yaml.Node) error {
	var nameOnly string
	if err := value.Decode(&nameOnly); err == nil {
		c.Name = nameOnly
		return nil
	}
	type raw ComponentRef
	return value.Decode((*raw)(c))
}

// StepRef is a single step entry: either a plain name, a name with options,
// or a decision with its two branches.
//
//	steps:
//	  - fetch
//	  - name: sql.query
//	    timeout: 2s
//	    with: {query: "SELECT ..."}
//	  - decision: {name: equals, with: {path: status, value: premium}}
//	    on_true: [approve]
//	    on_false: [review]
type StepRef struct {
	Name    string   `yaml:"name"`
	Timeout Duration `yaml:"timeout"`
	With    Params   `yaml:"with"`

	Decision *ComponentRef `yaml:"decision"`
	OnTrue   []StepRef     `yaml:"on_true"`
	OnFalse  []StepRef     `yaml:"on_false"`
}

// UnmarshalYAML allows a step to be a string (step name only) or a struct.
func (s *StepRef) UnmarshalYAML(value *yaml.Node) error {
	var nameOnly string
	if err := value.Decode(&nameOnly); err == nil {
		s.Name = nameOnly
		return nil
	}
	type raw StepRef
	return value.Decode((*raw)(s))
}

// IsDecision reports whether the entry is a decision.
func (s StepRef) IsDecision() bool { return s.Decision != nil }

// Duration is a time.Duration that unmarshals from YAML strings (e.g. "60s", "5m").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the standard time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// ParsePipelineConfig parses YAML bytes into a single PipelineConfig.
func ParsePipelineConfig(data []byte) (*PipelineConfig, error) {
	var cfg PipelineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MultiPipelineConfig is the root structure for a file that defines multiple pipelines.
type MultiPipelineConfig struct {
	Pipelines map[string]PipelineConfig `yaml:"pipelines"`
}

// ParseMultiPipelineConfig parses YAML bytes that contain a "pipelines" map
// from name to pipeline config.
//
//	pipelines:
//	  ingest:
//	    steps: [fetch, parse]
//	  notify:
//	    steps: [validate, send]
func ParseMultiPipelineConfig(data []byte) (*MultiPipelineConfig, error) {
	var cfg MultiPipelineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseFile reads and parses a single pipeline definition.
func ParseFile(path string) (*PipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParsePipelineConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ErrInvalidConfig is wrapped by every error Validate returns.
var ErrInvalidConfig = errors.New("invalid pipeline config")

// Validate checks the structure of cfg without consulting a registry:
// every entry has a name, decisions are last in their list and negative
// restart limits are rejected.
func (cfg *PipelineConfig) Validate() error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if cfg.RestartLimit != nil && *cfg.RestartLimit < 0 {
		return fmt.Errorf("%w: restart_limit must not be negative, got %d", ErrInvalidConfig, *cfg.RestartLimit)
	}
	if cfg.ErrorHandler != nil && cfg.ErrorHandler.Name == "" {
		return fmt.Errorf("%w: error_handler: name required", ErrInvalidConfig)
	}
	if cfg.RestartFilter != nil && cfg.RestartFilter.Name == "" {
		return fmt.Errorf("%w: restart_filter: name required", ErrInvalidConfig)
	}
	return validateSteps("steps", cfg.Steps)
}

func validateSteps(where string, refs []StepRef) error {
	for i, ref := range refs {
		at := fmt.Sprintf("%s[%d]", where, i)
		switch {
		case ref.IsDecision():
			if ref.Name != "" {
				return fmt.Errorf("%w: %s: set either name or decision, not both", ErrInvalidConfig, at)
			}
			if ref.Decision.Name == "" {
				return fmt.Errorf("%w: %s: decision name required", ErrInvalidConfig, at)
			}
			if i != len(refs)-1 {
				return fmt.Errorf("%w: %s: a decision must be the last step of its list", ErrInvalidConfig, at)
			}
			if err := validateSteps(at+".on_true", ref.OnTrue); err != nil {
				return err
			}
			if err := validateSteps(at+".on_false", ref.OnFalse); err != nil {
				return err
			}
		case ref.Name == "":
			return fmt.Errorf("%w: %s: name required", ErrInvalidConfig, at)
		case len(ref.OnTrue) > 0 || len(ref.OnFalse) > 0:
			return fmt.Errorf("%w: %s: on_true/on_false are only valid on a decision", ErrInvalidConfig, at)
		}
	}
	return nil
}
