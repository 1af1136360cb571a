package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/petrijr/stepflow/pkg/api"
)

// Config describes how to construct a Pipeline.
// Only the root stepflow package builds it; external callers use the Builder.
type Config struct {
	Name          string
	Steps         []api.Step
	ErrorHandler  api.ErrorHandler
	RestartFilter api.RestartFilter

	// RestartLimit is the maximum number of restarts per Run, or
	// api.NoRestartLimit. The zero value allows no restarts.
	RestartLimit int

	// NewStatusManager is called once per Run.
	NewStatusManager func() api.StatusManager

	Observer api.Observer
}

// Pipeline is the engine's implementation of api.Pipeline.
type Pipeline struct {
	name          string
	steps         []api.Step
	handler       api.ErrorHandler
	filter        api.RestartFilter
	restartLimit  int
	statusFactory func() api.StatusManager
	observer      api.Observer
}

var _ api.Pipeline = (*Pipeline)(nil)

// New returns a Pipeline for cfg. Missing collaborators get defaults: the
// pass-through error handler, the default status manager, no observer.
// RestartLimit is taken as given; pass api.NoRestartLimit for unlimited
// restarts.
func New(cfg Config) *Pipeline {
	handler := cfg.ErrorHandler
	if handler == nil {
		handler = api.PassThrough
	}
	factory := cfg.NewStatusManager
	if factory == nil {
		factory = api.NewStatusManager
	}
	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	limit := cfg.RestartLimit
	if limit < 0 {
		limit = api.NoRestartLimit
	}
	return &Pipeline{
		name:          cfg.Name,
		steps:         append([]api.Step(nil), cfg.Steps...),
		handler:       handler,
		filter:        cfg.RestartFilter,
		restartLimit:  limit,
		statusFactory: factory,
		observer:      obs,
	}
}

func (p *Pipeline) Name() string { return p.name }

// Steps returns a copy of the top-level step list.
func (p *Pipeline) Steps() []api.Step {
	return append([]api.Step(nil), p.steps...)
}

// run carries the state of one outermost Run call.
type run struct {
	info   api.RunInfo
	status api.StatusManager
}

func (r *run) state(last api.Outcome) api.FlowState {
	st := r.status.BuildState(last)
	st.RunID = r.info.ID
	return st
}

// Run executes the pipeline. Every call gets its own run-scoped status, so
// concurrent calls do not share counters.
func (p *Pipeline) Run(ctx context.Context, input any) api.Outcome {
	r := &run{
		info: api.RunInfo{
			ID:       uuid.NewString(),
			Pipeline: p.name,
			Input:    input,
		},
		status: p.statusFactory(),
	}
	r.status.Reset()
	r.status.RecordInitialInput(input)

	start := time.Now()
	p.observer.OnRunStart(ctx, r.info)

	out := p.runWithRestarts(ctx, r, input)

	p.observer.OnRunCompleted(ctx, r.info, out, time.Since(start))
	return out
}

// runOnce walks the step list once. It returns the last outcome and the
// flow state that was current when the loop stopped.
func (p *Pipeline) runOnce(ctx context.Context, r *run, input any) (api.Outcome, api.FlowState) {
	last := api.Success(input)
	state := r.state(last)
	steps := p.steps

loop:
	for i := 0; i < len(steps); i++ {
		step := steps[i]

		gate := api.CheckGate(ctx, step, last.Value, state)
		switch gate.Kind {
		case api.GateSkip:
			continue
		case api.GateFailed:
			err := gate.Err
			if err == nil {
				err = api.ErrGateFailed
			}
			last = p.handle(ctx, api.Error(err))
			if last.IsError() {
				break loop
			}
		default:
			out := api.ExecuteStep(ctx, step, last.Value, state)
			if out.IsDecision() {
				steps = out.Branch()
				i = -1
				continue
			}
			last = out
			if last.IsError() {
				last = p.handle(ctx, last)
				if last.IsError() {
					break loop
				}
			}
		}

		if last.IsExit() {
			break
		}
		state = r.state(last)
	}

	return last, state
}

// handle passes failed to the error handler. A panicking handler turns into
// an Error outcome, which stops the run.
func (p *Pipeline) handle(ctx context.Context, failed api.Outcome) (out api.Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			out = api.Error(api.NewPanicError(rec))
		}
	}()
	out = p.handler.Handle(ctx, failed)
	if !out.Kind.Valid() || out.IsDecision() {
		return api.Error(api.ErrInvalidOutcome)
	}
	return out
}
