package api

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func constStep(v any) Step {
	return StepFunc(func(context.Context, any, FlowState) Outcome { return Success(v) })
}

func TestDecision_ChoosesBranch(t *testing.T) {
	a, b := constStep("a"), constStep("b")
	d := NewDecision(func(_ context.Context, input any, _ FlowState) (bool, error) {
		return input.(int) > 10, nil
	}, []Step{a}, []Step{b})

	out := d.Execute(context.Background(), 42, FlowState{})
	require.True(t, out.IsDecision())
	require.Len(t, out.Branch(), 1)
	require.Equal(t, "a", out.Branch()[0].Execute(context.Background(), nil, FlowState{}).Value)

	out = d.Execute(context.Background(), 1, FlowState{})
	require.Equal(t, "b", out.Branch()[0].Execute(context.Background(), nil, FlowState{}).Value)
}

func TestDecision_PredicateErrorAndPanic(t *testing.T) {
	sentinel := errors.New("cannot decide")
	failing := NewDecision(func(context.Context, any, FlowState) (bool, error) {
		return false, sentinel
	}, nil, nil)
	out := failing.Execute(context.Background(), nil, FlowState{})
	require.True(t, out.IsError())
	require.ErrorIs(t, out.Err, sentinel)

	panicking := NewDecision(func(context.Context, any, FlowState) (bool, error) {
		panic("predicate exploded")
	}, nil, nil)
	out = panicking.Execute(context.Background(), nil, FlowState{})
	var pe *PanicError
	require.ErrorAs(t, out.Err, &pe)
}

func TestDecision_CopiesBranches(t *testing.T) {
	onTrue := []Step{constStep(1)}
	d := NewDecision(func(context.Context, any, FlowState) (bool, error) { return true, nil }, onTrue, nil)
	onTrue[0] = constStep(2)

	got, _ := d.Branches()
	out := got[0].Execute(context.Background(), nil, FlowState{})
	require.Equal(t, 1, out.Value)
}

func TestDecision_NamedAndIsDecision(t *testing.T) {
	d := NewDecision(func(context.Context, any, FlowState) (bool, error) { return true, nil }, nil, nil)
	require.Equal(t, "decision", d.Name())
	require.Equal(t, "route", d.Named("route").Name())
	require.Equal(t, "decision", d.Name())

	require.True(t, IsDecision(d))
	require.True(t, IsDecision(WithLogging(d, nil, true)))
	require.False(t, IsDecision(constStep(1)))
}

func TestNewDecision_NilPredicatePanics(t *testing.T) {
	require.Panics(t, func() { NewDecision(nil, nil, nil) })
}
