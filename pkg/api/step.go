package api

import (
	"context"
	"fmt"
	"runtime/debug"
)

// FlowState is the snapshot handed to every step. The engine rebuilds it
// after each executed step; it is never mutated in place.
type FlowState struct {
	// RunID identifies the outermost Run call. Restarts keep the same ID.
	RunID string

	// RestartCount is the number of restarts performed so far in this run.
	RestartCount int

	// InitialInput is the input the outermost Run call received.
	InitialInput any
}

// Step is a single unit of pipeline work.
//
// Implementations are created once and reused by every Run, so they must be
// safe to call repeatedly (and concurrently, if runs overlap).
type Step interface {
	Execute(ctx context.Context, input any, state FlowState) Outcome
}

// Gate is implemented by steps that decide whether they should run.
// Steps without a gate always continue.
type Gate interface {
	Gate(ctx context.Context, input any, state FlowState) GateOutcome
}

// GatedStep is a Step with a can-execute check.
type GatedStep interface {
	Step
	Gate
}

// Named can be implemented by steps to provide a human readable name for
// logs and metrics.
type Named interface {
	Name() string
}

// StepFunc adapts a function to the Step interface.
type StepFunc func(ctx context.Context, input any, state FlowState) Outcome

func (f StepFunc) Execute(ctx context.Context, input any, state FlowState) Outcome {
	return f(ctx, input, state)
}

// GateFunc is the function form of Gate.
type GateFunc func(ctx context.Context, input any, state FlowState) GateOutcome

func (f GateFunc) Gate(ctx context.Context, input any, state FlowState) GateOutcome {
	return f(ctx, input, state)
}

// PanicError is the error payload of outcomes produced from a recovered panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// NewPanicError records a recovered panic value together with the current stack.
func NewPanicError(v any) *PanicError {
	return &PanicError{Value: v, Stack: debug.Stack()}
}

// ExecuteStep runs step.Execute and never lets a panic escape: a recovered
// panic becomes Error{*PanicError}. Outcomes with an invalid Kind become
// Error{ErrInvalidOutcome}.
func ExecuteStep(ctx context.Context, step Step, input any, state FlowState) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Error(NewPanicError(r))
		}
	}()
	out = step.Execute(ctx, input, state)
	if !out.Kind.Valid() {
		return Error(fmt.Errorf("step %s: %w", StepName(step), ErrInvalidOutcome))
	}
	return out
}

// CheckGate runs the step's gate if it has one. Steps without a gate
// continue. A panicking gate yields GateError(*PanicError).
func CheckGate(ctx context.Context, step Step, input any, state FlowState) (g GateOutcome) {
	gate, ok := step.(Gate)
	if !ok {
		return Continue
	}
	defer func() {
		if r := recover(); r != nil {
			g = GateError(NewPanicError(r))
		}
	}()
	return gate.Gate(ctx, input, state)
}

// StepName returns the name used for step in logs: the Name() of the first
// Named layer, or the Go type of the innermost step.
func StepName(step Step) string {
	for s := step; s != nil; {
		if n, ok := s.(Named); ok {
			return n.Name()
		}
		u, ok := s.(Unwrapper)
		if !ok {
			return fmt.Sprintf("%T", s)
		}
		s = u.Unwrap()
	}
	return "<nil>"
}
