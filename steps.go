package stepflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/petrijr/stepflow/pkg/api"
)

// ErrInputType is wrapped by the errors typed steps return when their input
// has the wrong type and no converter accepts it.
var ErrInputType = errors.New("unexpected input type")

// Func wraps a plain function into a Step: a nil error yields Success(out),
// anything else Error(err).
func Func(fn func(ctx context.Context, input any, state FlowState) (any, error)) Step {
	return api.StepFunc(func(ctx context.Context, input any, state FlowState) Outcome {
		out, err := fn(ctx, input, state)
		if err != nil {
			return api.ErrorWithValue(err, out)
		}
		return api.Success(out)
	})
}

// Typed wraps a strongly-typed function into a Step. The input is asserted to
// I, or passed through the first converter that accepts it.
//
//	stepflow.Typed(func(ctx context.Context, id int, st stepflow.FlowState) stepflow.Outcome { ... })
func Typed[I any](fn func(ctx context.Context, in I, state FlowState) Outcome, converters ...Converter) Step {
	return &typedStep[I]{fn: fn, converters: converters}
}

type typedStep[I any] struct {
	fn         func(ctx context.Context, in I, state FlowState) Outcome
	converters []Converter
}

func (s *typedStep[I]) Execute(ctx context.Context, input any, state FlowState) Outcome {
	in, err := convertInput[I](input, s.converters)
	if err != nil {
		return api.Error(err)
	}
	return s.fn(ctx, in, state)
}

// TypedFunc wraps a function with typed input and output.
//
//	stepflow.TypedFunc(func(ctx context.Context, n int) (int, error) { return n * 2, nil })
func TypedFunc[I, O any](fn func(ctx context.Context, in I) (O, error), converters ...Converter) Step {
	return Typed(func(ctx context.Context, in I, _ FlowState) Outcome {
		out, err := fn(ctx, in)
		if err != nil {
			return api.Error(err)
		}
		return api.Success(out)
	}, converters...)
}

// WithGate attaches a can-execute check to step.
func WithGate(step Step, gate Gate) GatedStep {
	if step == nil || gate == nil {
		panic(ErrNilStep)
	}
	return &gatedStep{Step: step, gate: gate}
}

type gatedStep struct {
	Step
	gate Gate
}

func (g *gatedStep) Gate(ctx context.Context, input any, state FlowState) GateOutcome {
	return g.gate.Gate(ctx, input, state)
}

func (g *gatedStep) Name() string { return api.StepName(g.Step) }

// GateWhen builds a gate from a typed predicate: true continues, false
// skips. An input of the wrong type fails the gate.
func GateWhen[I any](pred func(in I) bool) Gate {
	return api.GateFunc(func(_ context.Context, input any, _ FlowState) GateOutcome {
		in, ok := input.(I)
		if !ok {
			var zero I
			return api.GateError(fmt.Errorf("gate: %w: expected %T, got %T", ErrInputType, zero, input))
		}
		return api.GateFromBool(pred(in))
	})
}

// Decide returns a Decision routing to onTrue or onFalse.
func Decide(pred Predicate, onTrue, onFalse []Step) *Decision {
	return api.NewDecision(pred, onTrue, onFalse)
}

// DecideTyped is Decide with a typed predicate.
func DecideTyped[I any](pred func(ctx context.Context, in I) (bool, error), onTrue, onFalse []Step) *Decision {
	return api.NewDecision(func(ctx context.Context, input any, _ FlowState) (bool, error) {
		in, ok := input.(I)
		if !ok {
			var zero I
			return false, fmt.Errorf("decision: %w: expected %T, got %T", ErrInputType, zero, input)
		}
		return pred(ctx, in)
	}, onTrue, onFalse)
}

// Named gives step a name for logs. The wrapper is transparent: it keeps the
// step's gate and unwraps to it.
func Named(name string, step Step) Step {
	n := namedStep{Step: step, name: name}
	if _, ok := step.(Gate); ok {
		return &namedGatedStep{namedStep: n}
	}
	return &n
}

type namedStep struct {
	Step
	name string
}

func (n *namedStep) Name() string { return n.name }
func (n *namedStep) Unwrap() Step { return n.Step }

type namedGatedStep struct {
	namedStep
}

func (n *namedGatedStep) Gate(ctx context.Context, input any, state FlowState) GateOutcome {
	return api.CheckGate(ctx, n.Step, input, state)
}

// MapFunc transforms the outcome of a wrapped step.
type MapFunc func(ctx context.Context, out Outcome, input any, state FlowState) Outcome

// Map runs step and then fn on whatever outcome it produced. The wrapped
// step's gate is kept. Decision outcomes pass through untouched.
func Map(step Step, fn MapFunc) GatedStep {
	return &mapStep{inner: step, fn: fn, when: func(Outcome) bool { return true }}
}

// MapOnSuccess is Map restricted to Success outcomes. GoToEnd and every
// other kind are returned unchanged.
func MapOnSuccess(step Step, fn func(ctx context.Context, value any, input any, state FlowState) Outcome) GatedStep {
	return &mapStep{
		inner: step,
		fn: func(ctx context.Context, out Outcome, input any, state FlowState) Outcome {
			return fn(ctx, out.Value, input, state)
		},
		when: func(out Outcome) bool { return out.Kind == api.OutcomeSuccess },
	}
}

// MapOnError is Map restricted to Error outcomes.
func MapOnError(step Step, fn func(ctx context.Context, failed Outcome, input any, state FlowState) Outcome) GatedStep {
	return &mapStep{
		inner: step,
		fn: func(ctx context.Context, out Outcome, input any, state FlowState) Outcome {
			return fn(ctx, out, input, state)
		},
		when: Outcome.IsError,
	}
}

type mapStep struct {
	inner Step
	fn    MapFunc
	when  func(Outcome) bool
}

func (m *mapStep) Name() string { return api.StepName(m.inner) }
func (m *mapStep) wrapped() Step { return m.inner }

func (m *mapStep) Gate(ctx context.Context, input any, state FlowState) GateOutcome {
	return api.CheckGate(ctx, m.inner, input, state)
}

func (m *mapStep) Execute(ctx context.Context, input any, state FlowState) Outcome {
	out := api.ExecuteStep(ctx, m.inner, input, state)
	if out.IsDecision() || !m.when(out) {
		return out
	}
	return m.fn(ctx, out, input, state)
}

// Identity returns a step that passes the input through unchanged.
func Identity() Step {
	return api.StepFunc(func(_ context.Context, input any, _ FlowState) Outcome {
		return api.Success(input)
	})
}

// Constant returns a step that ignores its input and always succeeds with value.
func Constant(value any) Step {
	return api.StepFunc(func(context.Context, any, FlowState) Outcome {
		return api.Success(value)
	})
}

// Tap returns a step that calls fn and passes the input through unchanged.
func Tap(fn func(ctx context.Context, input any, state FlowState)) Step {
	return api.StepFunc(func(ctx context.Context, input any, state FlowState) Outcome {
		fn(ctx, input, state)
		return api.Success(input)
	})
}

// WithTimeout runs step with a context deadline of now+timeout. If the
// deadline passes, a non-error outcome is replaced by an Error wrapping
// context.DeadlineExceeded. The wrapped step's gate is kept.
func WithTimeout(step Step, timeout time.Duration) GatedStep {
	return &timeoutStep{inner: step, timeout: timeout}
}

type timeoutStep struct {
	inner   Step
	timeout time.Duration
}

func (t *timeoutStep) Name() string { return api.StepName(t.inner) }
func (t *timeoutStep) wrapped() Step { return t.inner }

func (t *timeoutStep) Gate(ctx context.Context, input any, state FlowState) GateOutcome {
	return api.CheckGate(ctx, t.inner, input, state)
}

func (t *timeoutStep) Execute(ctx context.Context, input any, state FlowState) Outcome {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	out := api.ExecuteStep(ctx, t.inner, input, state)
	if !out.IsError() && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return api.ErrorWithValue(fmt.Errorf("step %s: %w", api.StepName(t.inner), ctx.Err()), out.Value)
	}
	return out
}
