package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// RunInfo identifies one outermost pipeline run.
type RunInfo struct {
	ID       string
	Pipeline string
	Input    any
}

// StepCall describes a single gate or execute invocation.
type StepCall struct {
	Pipeline string
	Step     string
	Input    any
	State    FlowState
}

// Observer receives callbacks from pipelines and logging decorators.
//
// Implementations should be fast and non-blocking; heavy work should be done
// asynchronously so as not to delay the run.
type Observer interface {
	// OnRunStart is called once per Run, before the first step.
	OnRunStart(ctx context.Context, run RunInfo)

	// OnRunCompleted is called with the final outcome of a Run, whatever
	// its kind.
	OnRunCompleted(ctx context.Context, run RunInfo, out Outcome, d time.Duration)

	// OnRestart is called each time the pipeline is about to be re-run.
	// restartCount is the value after the increment.
	OnRestart(ctx context.Context, run RunInfo, restartCount int, next any)

	// OnGate is called by logging decorators after a gate check.
	OnGate(ctx context.Context, call StepCall, g GateOutcome, d time.Duration)

	// OnExecute is called by logging decorators after a step executed.
	OnExecute(ctx context.Context, call StepCall, out Outcome, d time.Duration)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnRunStart(ctx context.Context, run RunInfo) {}
func (NoopObserver) OnRunCompleted(ctx context.Context, run RunInfo, out Outcome, d time.Duration) {
}
func (NoopObserver) OnRestart(ctx context.Context, run RunInfo, restartCount int, next any) {}
func (NoopObserver) OnGate(ctx context.Context, call StepCall, g GateOutcome, d time.Duration) {
}
func (NoopObserver) OnExecute(ctx context.Context, call StepCall, out Outcome, d time.Duration) {
}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnRunStart(ctx context.Context, run RunInfo) {
	for _, o := range c.observers {
		o.OnRunStart(ctx, run)
	}
}

func (c *CompositeObserver) OnRunCompleted(ctx context.Context, run RunInfo, out Outcome, d time.Duration) {
	for _, o := range c.observers {
		o.OnRunCompleted(ctx, run, out, d)
	}
}

func (c *CompositeObserver) OnRestart(ctx context.Context, run RunInfo, restartCount int, next any) {
	for _, o := range c.observers {
		o.OnRestart(ctx, run, restartCount, next)
	}
}

func (c *CompositeObserver) OnGate(ctx context.Context, call StepCall, g GateOutcome, d time.Duration) {
	for _, o := range c.observers {
		o.OnGate(ctx, call, g, d)
	}
}

func (c *CompositeObserver) OnExecute(ctx context.Context, call StepCall, out Outcome, d time.Duration) {
	for _, o := range c.observers {
		o.OnExecute(ctx, call, out, d)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs run and step events
// using the provided slog.Logger. If logger is nil, slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnRunStart(ctx context.Context, run RunInfo) {
	o.Logger.InfoContext(ctx, "run_start",
		slog.String("pipeline", run.Pipeline),
		slog.String("run_id", run.ID),
	)
}

func (o *LoggingObserver) OnRunCompleted(ctx context.Context, run RunInfo, out Outcome, d time.Duration) {
	level := slog.LevelInfo
	if out.IsError() {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "run_completed",
		slog.String("pipeline", run.Pipeline),
		slog.String("run_id", run.ID),
		slog.String("outcome", out.Kind.String()),
		slog.Duration("duration", d),
		slog.Any("error", out.Err),
	)
}

func (o *LoggingObserver) OnRestart(ctx context.Context, run RunInfo, restartCount int, next any) {
	o.Logger.InfoContext(ctx, "run_restart",
		slog.String("pipeline", run.Pipeline),
		slog.String("run_id", run.ID),
		slog.Int("restart_count", restartCount),
	)
}

func (o *LoggingObserver) OnGate(ctx context.Context, call StepCall, g GateOutcome, d time.Duration) {
	level := slog.LevelDebug
	if g.Kind == GateFailed {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "step_gate",
		slog.String("pipeline", call.Pipeline),
		slog.String("run_id", call.State.RunID),
		slog.String("step", call.Step),
		slog.Int("restart_count", call.State.RestartCount),
		slog.Any("input", call.Input),
		slog.String("gate", g.Kind.String()),
		slog.Duration("duration", d),
		slog.Any("error", g.Err),
	)
}

func (o *LoggingObserver) OnExecute(ctx context.Context, call StepCall, out Outcome, d time.Duration) {
	level := slog.LevelDebug
	if out.IsError() {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "step_execute",
		slog.String("pipeline", call.Pipeline),
		slog.String("run_id", call.State.RunID),
		slog.String("step", call.Step),
		slog.Int("restart_count", call.State.RestartCount),
		slog.Any("input", call.Input),
		slog.String("outcome", out.Kind.String()),
		slog.Duration("duration", d),
		slog.Any("error", out.Err),
	)
}

// BasicMetrics collects simple counters and aggregate step durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	runsStarted       atomic.Int64
	runsSucceeded     atomic.Int64
	runsFailed        atomic.Int64
	runsExhausted     atomic.Int64
	restarts          atomic.Int64
	stepsSkipped      atomic.Int64
	stepsExecuted     atomic.Int64
	stepsFailed       atomic.Int64
	totalStepDuration atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	RunsStarted   int64
	RunsSucceeded int64
	RunsFailed    int64
	RunsExhausted int64
	Restarts      int64

	StepsSkipped    int64
	StepsExecuted   int64
	StepsFailed     int64
	AvgStepDuration time.Duration
}

func (m *BasicMetrics) OnRunStart(ctx context.Context, run RunInfo) {
	m.runsStarted.Add(1)
}

func (m *BasicMetrics) OnRunCompleted(ctx context.Context, run RunInfo, out Outcome, d time.Duration) {
	switch {
	case out.IsError():
		m.runsFailed.Add(1)
	case out.IsRestartLimitReached():
		m.runsExhausted.Add(1)
	default:
		m.runsSucceeded.Add(1)
	}
}

func (m *BasicMetrics) OnRestart(ctx context.Context, run RunInfo, restartCount int, next any) {
	m.restarts.Add(1)
}

func (m *BasicMetrics) OnGate(ctx context.Context, call StepCall, g GateOutcome, d time.Duration) {
	if g.Kind == GateSkip {
		m.stepsSkipped.Add(1)
	}
}

func (m *BasicMetrics) OnExecute(ctx context.Context, call StepCall, out Outcome, d time.Duration) {
	m.stepsExecuted.Add(1)
	m.totalStepDuration.Add(d.Nanoseconds())
	if out.IsError() {
		m.stepsFailed.Add(1)
	}
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	steps := m.stepsExecuted.Load()
	totalNs := m.totalStepDuration.Load()

	var avg time.Duration
	if steps > 0 {
		avg = time.Duration(totalNs / steps)
	}

	return BasicMetricsSnapshot{
		RunsStarted:     m.runsStarted.Load(),
		RunsSucceeded:   m.runsSucceeded.Load(),
		RunsFailed:      m.runsFailed.Load(),
		RunsExhausted:   m.runsExhausted.Load(),
		Restarts:        m.restarts.Load(),
		StepsSkipped:    m.stepsSkipped.Load(),
		StepsExecuted:   steps,
		StepsFailed:     m.stepsFailed.Load(),
		AvgStepDuration: avg,
	}
}
