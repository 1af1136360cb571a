package engine

import (
	"context"
	"testing"

	"github.com/petrijr/stepflow/pkg/api"
	"github.com/stretchr/testify/require"
)

func alwaysRestart() *counterStep {
	return newCounter(func(input any, _ api.FlowState) api.Outcome { return api.Restart(input) })
}

func TestRestart_LimitCausesExactlyNReexecutions(t *testing.T) {
	for _, limit := range []int{0, 1, 3, 10} {
		step := alwaysRestart()
		p := New(Config{Steps: []api.Step{step}, RestartLimit: limit})

		out := p.Run(context.Background(), "x")

		require.True(t, out.IsRestartLimitReached(), "limit %d", limit)
		require.EqualValues(t, limit+1, step.calls.Load(), "limit %d", limit)

		inner, ok := out.Value.(api.Outcome)
		require.True(t, ok)
		require.Equal(t, api.Restart("x"), inner)
	}
}

func TestRestart_ZeroConfigLimitAllowsNoRestarts(t *testing.T) {
	step := alwaysRestart()
	out := New(Config{Steps: []api.Step{step}}).Run(context.Background(), "x")

	require.True(t, out.IsRestartLimitReached())
	require.EqualValues(t, 1, step.calls.Load())
}

func TestRestart_WithoutLimitRunsUntilStepStops(t *testing.T) {
	step := newCounter(func(input any, _ api.FlowState) api.Outcome {
		n := input.(int)
		if n < 50 {
			return api.Restart(n + 1)
		}
		return api.Success(n)
	})

	out := New(Config{Steps: []api.Step{step}, RestartLimit: api.NoRestartLimit}).Run(context.Background(), 0)

	require.Equal(t, api.Success(50), out)
	require.EqualValues(t, 51, step.calls.Load())
}

func TestRestart_CounterAndInitialInputSurvive(t *testing.T) {
	var states []api.FlowState
	step := newCounter(func(input any, state api.FlowState) api.Outcome {
		states = append(states, state)
		if state.RestartCount < 2 {
			return api.Restart("next")
		}
		return api.Success(input)
	})

	out := New(Config{Steps: []api.Step{step}, RestartLimit: 5}).Run(context.Background(), "first")

	require.Equal(t, api.Success("next"), out)
	require.Len(t, states, 3)
	for i, st := range states {
		require.Equal(t, i, st.RestartCount)
		require.Equal(t, "first", st.InitialInput)
		require.Equal(t, states[0].RunID, st.RunID)
	}
}

func TestRestart_FilterComputesNextInput(t *testing.T) {
	var inputs []any
	step := newCounter(func(input any, state api.FlowState) api.Outcome {
		inputs = append(inputs, input)
		if state.RestartCount == 0 {
			return api.Restart("ignored")
		}
		return api.Success(input)
	})
	filter := api.RestartFilterFunc(func(_ context.Context, restart api.Outcome, state api.FlowState) any {
		return state.InitialInput.(int) * 10
	})

	out := New(Config{Steps: []api.Step{step}, RestartFilter: filter, RestartLimit: api.NoRestartLimit}).Run(context.Background(), 7)

	require.Equal(t, []any{7, 70}, inputs)
	require.Equal(t, api.Success(70), out)
}

func TestRestart_PanickingFilterYieldsError(t *testing.T) {
	filter := api.RestartFilterFunc(func(context.Context, api.Outcome, api.FlowState) any {
		panic("filter")
	})

	out := New(Config{Steps: []api.Step{alwaysRestart()}, RestartFilter: filter, RestartLimit: api.NoRestartLimit}).Run(context.Background(), nil)

	var pe *api.PanicError
	require.ErrorAs(t, out.Err, &pe)
}

func TestRestart_ObserverSeesEveryRestart(t *testing.T) {
	metrics := &api.BasicMetrics{}
	p := New(Config{Steps: []api.Step{alwaysRestart()}, RestartLimit: 3, Observer: metrics})

	p.Run(context.Background(), nil)

	snap := metrics.Snapshot()
	require.EqualValues(t, 3, snap.Restarts)
	require.EqualValues(t, 1, snap.RunsExhausted)
}

func TestRestart_CustomStatusManagerIsFreshPerRun(t *testing.T) {
	created := 0
	factory := func() api.StatusManager {
		created++
		return api.NewStatusManager()
	}
	p := New(Config{Steps: []api.Step{alwaysRestart()}, RestartLimit: 1, NewStatusManager: factory})

	p.Run(context.Background(), nil)
	p.Run(context.Background(), nil)

	require.Equal(t, 2, created)
}
