package config

import (
	"fmt"

	"github.com/petrijr/stepflow"
	"github.com/petrijr/stepflow/pkg/api"
)

// BuildOptions configures how a pipeline is built from config.
type BuildOptions struct {
	// Observer receives run and step events when the config enables logging.
	// Nil means a LoggingObserver on slog.Default().
	Observer api.Observer

	// NewStatusManager overrides the per-run status manager factory.
	NewStatusManager func() api.StatusManager
}

// Build builds a pipeline from cfg, resolving every name in reg. The config
// is validated first, so structural mistakes are reported as errors rather
// than builder panics.
func Build(reg *Registry, cfg *PipelineConfig, opts *BuildOptions) (api.Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &BuildOptions{}
	}

	steps, err := buildSteps(reg, "steps", cfg.Steps)
	if err != nil {
		return nil, err
	}

	b := stepflow.New(cfg.Name).
		EnableLogging(cfg.Logging).
		WithObserver(opts.Observer).
		SetStatusManager(opts.NewStatusManager)
	if len(steps) > 0 {
		b.Add(steps...)
	}

	if cfg.RestartLimit != nil {
		b.SetRestartLimit(*cfg.RestartLimit)
	}

	if ref := cfg.ErrorHandler; ref != nil {
		f, ok := reg.ErrorHandler(ref.Name)
		if !ok {
			return nil, fmt.Errorf("error_handler: %q not in registry", ref.Name)
		}
		h, err := f(ref.With)
		if err != nil {
			return nil, fmt.Errorf("error_handler %q: %w", ref.Name, err)
		}
		b.OnError(h)
	}

	if ref := cfg.RestartFilter; ref != nil {
		f, ok := reg.RestartFilter(ref.Name)
		if !ok {
			return nil, fmt.Errorf("restart_filter: %q not in registry", ref.Name)
		}
		filter, err := f(ref.With)
		if err != nil {
			return nil, fmt.Errorf("restart_filter %q: %w", ref.Name, err)
		}
		b.OnRestart(filter)
	}

	return b.Build(), nil
}

func buildSteps(reg *Registry, where string, refs []StepRef) ([]api.Step, error) {
	steps := make([]api.Step, 0, len(refs))
	for i, ref := range refs {
		at := fmt.Sprintf("%s[%d]", where, i)
		step, err := buildStep(reg, at, ref)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func buildStep(reg *Registry, at string, ref StepRef) (api.Step, error) {
	if ref.IsDecision() {
		return buildDecision(reg, at, ref)
	}

	f, ok := reg.Step(ref.Name)
	if !ok {
		return nil, fmt.Errorf("%s: step %q not in registry", at, ref.Name)
	}
	step, err := f(ref.With)
	if err != nil {
		return nil, fmt.Errorf("%s (%q): %w", at, ref.Name, err)
	}
	if step == nil {
		return nil, fmt.Errorf("%s (%q): factory returned a nil step", at, ref.Name)
	}
	if ref.Timeout > 0 {
		step = stepflow.WithTimeout(step, ref.Timeout.Duration())
	}
	return stepflow.Named(ref.Name, step), nil
}

func buildDecision(reg *Registry, at string, ref StepRef) (api.Step, error) {
	f, ok := reg.Predicate(ref.Decision.Name)
	if !ok {
		return nil, fmt.Errorf("%s: predicate %q not in registry", at, ref.Decision.Name)
	}
	pred, err := f(ref.Decision.With)
	if err != nil {
		return nil, fmt.Errorf("%s (%q): %w", at, ref.Decision.Name, err)
	}
	onTrue, err := buildSteps(reg, at+".on_true", ref.OnTrue)
	if err != nil {
		return nil, err
	}
	onFalse, err := buildSteps(reg, at+".on_false", ref.OnFalse)
	if err != nil {
		return nil, err
	}
	return stepflow.Decide(pred, onTrue, onFalse).Named(ref.Decision.Name), nil
}

// BuildAll builds a pipeline for each entry in multi. Keys are pipeline names.
// If a pipeline config's Name is empty, the map key is used as the pipeline name.
func BuildAll(reg *Registry, multi *MultiPipelineConfig, opts *BuildOptions) (map[string]api.Pipeline, error) {
	if multi == nil {
		return nil, fmt.Errorf("MultiPipelineConfig is nil")
	}
	out := make(map[string]api.Pipeline, len(multi.Pipelines))
	for name, cfg := range multi.Pipelines {
		if cfg.Name == "" {
			cfg.Name = name
		}
		p, err := Build(reg, &cfg, opts)
		if err != nil {
			return nil, fmt.Errorf("pipeline %q: %w", name, err)
		}
		out[name] = p
	}
	return out, nil
}
