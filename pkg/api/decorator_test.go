package api

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type gatedCounter struct {
	gate     GateOutcome
	executed int
}

func (g *gatedCounter) Gate(context.Context, any, FlowState) GateOutcome { return g.gate }

func (g *gatedCounter) Execute(_ context.Context, input any, _ FlowState) Outcome {
	g.executed++
	return Success(input)
}

func TestWithLogging_ChoosesShape(t *testing.T) {
	plain := WithLogging(constStep(1), nil, false)
	_, ok := plain.(*LoggedStep)
	require.True(t, ok)
	_, isGate := Step(plain).(Gate)
	require.False(t, isGate)

	gated := WithLogging(&gatedCounter{}, nil, false)
	_, ok = gated.(*LoggedGatedStep)
	require.True(t, ok)
}

func TestWithLogging_DoesNotStack(t *testing.T) {
	inner := &gatedCounter{}
	once := WithLogging(inner, nil, false)
	twice := WithLogging(once, nil, true)

	require.True(t, twice.Enabled())
	require.False(t, once.Enabled())
	require.Same(t, inner, twice.Unwrap())
}

func TestLoggedStep_TransparentWhenDisabled(t *testing.T) {
	obs := &testObserver{}
	step := WithLogging(constStep("v"), obs, false)

	out := step.Execute(context.Background(), nil, FlowState{})
	require.Equal(t, Success("v"), out)
	require.Zero(t, obs.executes)
}

func TestLoggedStep_RecordsWhenEnabled(t *testing.T) {
	obs := &testObserver{}
	step := WithLogging(constStep("v"), obs, true).Rebind("pipe", nil, true)

	state := FlowState{RunID: "run-1", RestartCount: 1}
	out := step.Execute(context.Background(), "in", state)

	require.Equal(t, Success("v"), out)
	require.Equal(t, 1, obs.executes)
	require.Equal(t, "pipe", obs.lastCall.Pipeline)
	require.Equal(t, "in", obs.lastCall.Input)
	require.Equal(t, state, obs.lastCall.State)
}

func TestLoggedStep_RecordsRecoveredPanic(t *testing.T) {
	obs := &testObserver{}
	step := WithLogging(StepFunc(func(context.Context, any, FlowState) Outcome {
		panic("boom")
	}), obs, true)

	out := step.Execute(context.Background(), nil, FlowState{})
	require.True(t, out.IsError())
	require.True(t, obs.lastOutcome.IsError())
}

func TestLoggedGatedStep_ForwardsGate(t *testing.T) {
	obs := &testObserver{}
	inner := &gatedCounter{gate: GateError(errors.New("nope"))}
	step := WithLogging(inner, obs, true).(GatedStep)

	g := step.Gate(context.Background(), 1, FlowState{})
	require.Equal(t, GateFailed, g.Kind)
	require.Equal(t, 1, obs.gates)

	inner.gate = Skip
	require.Equal(t, Skip, step.Gate(context.Background(), 1, FlowState{}))
	require.Zero(t, inner.executed)
}

func TestUnwrap_PeelsEveryLayer(t *testing.T) {
	inner := &gatedCounter{}
	wrapped := WithLogging(WithLogging(inner, nil, false), nil, true)

	require.Same(t, inner, Unwrap(wrapped))
	require.Same(t, inner, Unwrap(inner))
}
