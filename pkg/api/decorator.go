package api

import (
	"context"
	"time"
)

// Unwrapper is implemented by transparent wrappers such as the logging
// decorators.
type Unwrapper interface {
	Unwrap() Step
}

// Unwrap peels every Unwrapper layer off step and returns the innermost step.
func Unwrap(step Step) Step {
	for {
		u, ok := step.(Unwrapper)
		if !ok {
			return step
		}
		inner := u.Unwrap()
		if inner == nil {
			return step
		}
		step = inner
	}
}

// LoggingDecorator is the common surface of LoggedStep and LoggedGatedStep.
type LoggingDecorator interface {
	Step
	Unwrapper
	Enabled() bool
	// Rebind returns a copy of the decorator reporting to sink under the
	// given pipeline name.
	Rebind(pipeline string, sink Observer, enabled bool) LoggingDecorator
}

// WithLogging wraps step in the decorator matching its shape: LoggedGatedStep
// when step has a gate, LoggedStep otherwise. When enabled is false the
// decorator only forwards calls. Wrapping a decorator rebinds it instead of
// stacking another layer.
func WithLogging(step Step, sink Observer, enabled bool) LoggingDecorator {
	if d, ok := step.(LoggingDecorator); ok {
		return d.Rebind("", sink, enabled)
	}
	if sink == nil {
		sink = NoopObserver{}
	}
	base := LoggedStep{inner: step, sink: sink, enabled: enabled}
	if _, ok := step.(Gate); ok {
		return &LoggedGatedStep{LoggedStep: base}
	}
	return &base
}

// LoggedStep decorates a plain step, recording each execution.
type LoggedStep struct {
	inner    Step
	sink     Observer
	enabled  bool
	pipeline string
}

func (l *LoggedStep) Unwrap() Step { return l.inner }

func (l *LoggedStep) Enabled() bool { return l.enabled }

func (l *LoggedStep) Name() string { return StepName(l.inner) }

func (l *LoggedStep) Rebind(pipeline string, sink Observer, enabled bool) LoggingDecorator {
	c := l.rebound(pipeline, sink, enabled)
	return &c
}

func (l *LoggedStep) rebound(pipeline string, sink Observer, enabled bool) LoggedStep {
	c := *l
	if pipeline != "" {
		c.pipeline = pipeline
	}
	if sink != nil {
		c.sink = sink
	}
	c.enabled = enabled
	return c
}

func (l *LoggedStep) Execute(ctx context.Context, input any, state FlowState) Outcome {
	if !l.enabled {
		return ExecuteStep(ctx, l.inner, input, state)
	}
	start := time.Now()
	out := ExecuteStep(ctx, l.inner, input, state)
	l.sink.OnExecute(ctx, l.call(input, state), out, time.Since(start))
	return out
}

func (l *LoggedStep) call(input any, state FlowState) StepCall {
	return StepCall{
		Pipeline: l.pipeline,
		Step:     StepName(l.inner),
		Input:    input,
		State:    state,
	}
}

// LoggedGatedStep decorates a gate-capable step, recording gate checks as
// well as executions.
type LoggedGatedStep struct {
	LoggedStep
}

var _ GatedStep = (*LoggedGatedStep)(nil)

func (l *LoggedGatedStep) Rebind(pipeline string, sink Observer, enabled bool) LoggingDecorator {
	return &LoggedGatedStep{LoggedStep: l.rebound(pipeline, sink, enabled)}
}

func (l *LoggedGatedStep) Gate(ctx context.Context, input any, state FlowState) GateOutcome {
	if !l.enabled {
		return CheckGate(ctx, l.inner, input, state)
	}
	start := time.Now()
	g := CheckGate(ctx, l.inner, input, state)
	l.sink.OnGate(ctx, l.call(input, state), g, time.Since(start))
	return g
}
