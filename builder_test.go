package stepflow

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/petrijr/stepflow/pkg/api"
	"github.com/stretchr/testify/require"
)

func alwaysTrue(context.Context, any, FlowState) (bool, error) { return true, nil }

type zeroValueStep struct{}

func (*zeroValueStep) Execute(_ context.Context, input any, _ FlowState) Outcome {
	return Success(input)
}

func TestBuilder_AddAfterDecisionPanics(t *testing.T) {
	b := New("p").Add(Decide(alwaysTrue, nil, nil))

	require.PanicsWithValue(t, ErrStepAfterDecision, func() { b.Add(Identity()) })
	require.PanicsWithValue(t, ErrStepAfterDecision, func() { AddType[zeroValueStep](b) })
	require.PanicsWithValue(t, ErrStepAfterDecision, func() { b.AddFactory(Identity) })
	require.Equal(t, "stepflow: can't add another step after a decision", ErrStepAfterDecision.Error())
}

func TestBuilder_AddAfterDecoratedDecisionPanics(t *testing.T) {
	decorated := api.WithLogging(Decide(alwaysTrue, nil, nil), nil, true)
	b := New("p").EnableLogging(true).Add(decorated)

	require.PanicsWithValue(t, ErrStepAfterDecision, func() { b.Add(Identity()) })
}

func TestBuilder_AddAfterNamedDecisionPanics(t *testing.T) {
	b := New("p").Add(Named("route", Decide(alwaysTrue, nil, nil)))

	require.PanicsWithValue(t, ErrStepAfterDecision, func() { b.Add(Identity()) })
}

func TestBuilder_AddAfterWrappedDecisionPanics(t *testing.T) {
	keep := func(_ context.Context, out Outcome, _ any, _ FlowState) Outcome { return out }

	mapped := New("p").Add(Map(Decide(alwaysTrue, nil, nil), keep))
	require.PanicsWithValue(t, ErrStepAfterDecision, func() { mapped.Add(Identity()) })

	timed := New("p").Add(WithTimeout(Named("route", Decide(alwaysTrue, nil, nil)), time.Second))
	require.PanicsWithValue(t, ErrStepAfterDecision, func() { timed.Add(Identity()) })

	nested := New("p").Add(Named("outer", MapOnError(WithTimeout(Decide(alwaysTrue, nil, nil), time.Second), func(_ context.Context, failed Outcome, _ any, _ FlowState) Outcome {
		return failed
	})))
	require.PanicsWithValue(t, ErrStepAfterDecision, func() { nested.Add(Identity()) })
}

func TestBuilder_WrappedDecisionStillRoutes(t *testing.T) {
	var taken atomic.Int32
	branch := Tap(func(context.Context, any, FlowState) { taken.Add(1) })
	p := New("p").
		Add(WithTimeout(Decide(alwaysTrue, []Step{branch}, nil), time.Second)).
		Build()

	require.Equal(t, Success("in"), p.Run(context.Background(), "in"))
	require.EqualValues(t, 1, taken.Load())
}

func TestBuilder_DecisionInMiddleOfVariadicAddPanics(t *testing.T) {
	require.PanicsWithValue(t, ErrStepAfterDecision, func() {
		New("p").Add(Identity(), Decide(alwaysTrue, nil, nil), Identity())
	})
}

func TestBuilder_UsageErrors(t *testing.T) {
	require.PanicsWithValue(t, ErrNilStep, func() { New("p").Add(nil) })
	require.PanicsWithValue(t, ErrNilStep, func() { New("p").AddFactory(nil) })
	require.Panics(t, func() { New("p").SetRestartLimit(-2) })
	require.NotPanics(t, func() { New("p").SetRestartLimit(NoRestartLimit) })
}

func TestBuilder_AddType(t *testing.T) {
	p := AddType[zeroValueStep](New("typed")).Build()

	require.Equal(t, Success("in"), p.Run(context.Background(), "in"))
}

func TestBuilder_BuildIsImmutable(t *testing.T) {
	b := New("p").Add(Constant(1))
	first := b.Build()
	b.Add(Constant(2))

	require.Equal(t, 1, first.Run(context.Background(), nil).Value)
	require.Equal(t, 2, b.Build().Run(context.Background(), nil).Value)
	require.Equal(t, 2, b.Len())
	require.Equal(t, "p", first.Name())
}

func TestBuilder_NilHandlerRestoresPassThrough(t *testing.T) {
	p := New("p").
		Add(Func(func(context.Context, any, FlowState) (any, error) { return nil, errors.New("x") })).
		OnError(nil).
		Build()

	out := p.Run(context.Background(), nil)
	require.True(t, out.IsError())
	require.EqualError(t, out.Err, "x")
}

func TestBuilder_LoggingRecordsEveryStep(t *testing.T) {
	metrics := &BasicMetrics{}
	p := New("logged").
		Add(Identity(), WithGate(Identity(), api.GateFunc(func(context.Context, any, FlowState) GateOutcome {
			return Skip
		})), Identity()).
		EnableLogging(true).
		WithObserver(metrics).
		Build()

	p.Run(context.Background(), 1)

	snap := metrics.Snapshot()
	require.EqualValues(t, 1, snap.RunsStarted)
	require.EqualValues(t, 1, snap.RunsSucceeded)
	require.EqualValues(t, 2, snap.StepsExecuted)
	require.EqualValues(t, 1, snap.StepsSkipped)
}

func TestBuilder_LoggingDisabledIsSilent(t *testing.T) {
	metrics := &BasicMetrics{}
	p := New("quiet").Add(Identity()).WithObserver(metrics).Build()

	p.Run(context.Background(), 1)

	require.Zero(t, metrics.Snapshot().RunsStarted)
}

func TestBuilder_LoggingWritesSlogRecords(t *testing.T) {
	var records atomic.Int64
	logger := slog.New(countingHandler{n: &records})

	p := New("slog").
		Add(Named("first", Identity())).
		EnableLogging(true).
		WithObserver(NewLoggingObserver(logger)).
		Build()

	p.Run(context.Background(), "v")

	// run_start, step_execute, run_completed
	require.EqualValues(t, 3, records.Load())
}

func TestBuilder_StatusManagerFactory(t *testing.T) {
	var calls atomic.Int64
	p := New("p").
		Add(Identity()).
		SetStatusManager(func() StatusManager {
			calls.Add(1)
			return NewStatusManager()
		}).
		Build()

	p.Run(context.Background(), nil)
	p.Run(context.Background(), nil)

	require.EqualValues(t, 2, calls.Load())
}

type countingHandler struct{ n *atomic.Int64 }

func (h countingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h countingHandler) Handle(context.Context, slog.Record) error {
	h.n.Add(1)
	return nil
}
func (h countingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h countingHandler) WithGroup(string) slog.Handler      { return h }
