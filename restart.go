package stepflow

import (
	"context"

	"github.com/petrijr/stepflow/pkg/api"
)

// Filter builds a RestartFilter over the typed restart value. The value is
// asserted to T or converted by the first matching converter; if neither
// works, the filter panics and the run ends with Error{*PanicError}.
//
//	b.OnRestart(stepflow.Filter(func(ctx context.Context, n int, st stepflow.FlowState) any {
//	    return n + 1
//	}))
func Filter[T any](fn func(ctx context.Context, value T, state FlowState) any, converters ...Converter) RestartFilter {
	return api.RestartFilterFunc(func(ctx context.Context, restart Outcome, state FlowState) any {
		v, err := convertInput[T](restart.Value, converters)
		if err != nil {
			panic(err)
		}
		return fn(ctx, v, state)
	})
}

// ResetInput is a RestartFilter that restarts from the input the outermost
// Run call received.
var ResetInput RestartFilter = api.RestartFilterFunc(func(_ context.Context, _ Outcome, state FlowState) any {
	return state.InitialInput
})
