package api

import (
	"errors"
	"fmt"
)

// ErrInvalidOutcome is reported when a step returns an Outcome without a
// valid Kind (for example the zero Outcome{}).
var ErrInvalidOutcome = errors.New("invalid outcome")

// OutcomeKind tags which variant of Outcome is active.
type OutcomeKind int

const (
	// OutcomeSuccess continues the pipeline; Value becomes the next step's input.
	OutcomeSuccess OutcomeKind = iota + 1

	// OutcomeError reports a failed step. Err carries the error payload and
	// Value optionally carries a partial result.
	OutcomeError

	// OutcomeGoToEnd is a success that stops the pipeline right after the
	// step that produced it.
	OutcomeGoToEnd

	// OutcomeRestart asks the engine to run the whole pipeline again, using
	// Value (or the restart filter's result) as the new input.
	OutcomeRestart

	// OutcomeRestartLimitReached is produced by the engine when a restart was
	// requested but the configured limit is exhausted. Value holds the
	// Restart outcome that was refused.
	OutcomeRestartLimitReached

	// OutcomeDecision is produced by Decision steps only. The engine consumes
	// it and never returns it from Run.
	OutcomeDecision
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeError:
		return "error"
	case OutcomeGoToEnd:
		return "goto_end"
	case OutcomeRestart:
		return "restart"
	case OutcomeRestartLimitReached:
		return "restart_limit_reached"
	case OutcomeDecision:
		return "decision"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Valid reports whether k is one of the declared kinds.
func (k OutcomeKind) Valid() bool {
	return k >= OutcomeSuccess && k <= OutcomeDecision
}

// Outcome is the result of executing a step or a whole pipeline.
//
// Exactly one Kind is active. Err is only meaningful for OutcomeError.
type Outcome struct {
	Kind  OutcomeKind
	Value any
	Err   error

	branch []Step
}

// Success returns a normal continuation carrying v.
func Success(v any) Outcome {
	return Outcome{Kind: OutcomeSuccess, Value: v}
}

// Error returns a failed outcome carrying err.
func Error(err error) Outcome {
	return Outcome{Kind: OutcomeError, Err: err}
}

// ErrorWithValue returns a failed outcome carrying err and a partial value.
func ErrorWithValue(err error, v any) Outcome {
	return Outcome{Kind: OutcomeError, Err: err, Value: v}
}

// Errorf is shorthand for Error(fmt.Errorf(format, args...)).
func Errorf(format string, args ...any) Outcome {
	return Error(fmt.Errorf(format, args...))
}

// GoToEnd returns a success that terminates the pipeline after this step.
func GoToEnd(v any) Outcome {
	return Outcome{Kind: OutcomeGoToEnd, Value: v}
}

// Restart asks for the pipeline to be re-run from the first step.
func Restart(v any) Outcome {
	return Outcome{Kind: OutcomeRestart, Value: v}
}

// RestartLimitReached wraps the Restart outcome that could not be honored.
func RestartLimitReached(restart Outcome) Outcome {
	return Outcome{Kind: OutcomeRestartLimitReached, Value: restart}
}

func decisionTaken(steps []Step) Outcome {
	return Outcome{Kind: OutcomeDecision, branch: steps}
}

// IsSuccess is true for Success and GoToEnd.
func (o Outcome) IsSuccess() bool {
	return o.Kind == OutcomeSuccess || o.Kind == OutcomeGoToEnd
}

// IsError is true for Error outcomes.
func (o Outcome) IsError() bool { return o.Kind == OutcomeError }

// IsGoToEnd is true for GoToEnd outcomes.
func (o Outcome) IsGoToEnd() bool { return o.Kind == OutcomeGoToEnd }

// IsRestart is true for Restart outcomes.
func (o Outcome) IsRestart() bool { return o.Kind == OutcomeRestart }

// IsRestartLimitReached is true when the engine refused a restart.
func (o Outcome) IsRestartLimitReached() bool { return o.Kind == OutcomeRestartLimitReached }

// IsDecision is true for the internal outcome produced by Decision steps.
func (o Outcome) IsDecision() bool { return o.Kind == OutcomeDecision }

// IsExit reports whether the outcome stops the step loop immediately.
func (o Outcome) IsExit() bool {
	switch o.Kind {
	case OutcomeGoToEnd, OutcomeRestart, OutcomeRestartLimitReached:
		return true
	}
	return false
}

// Branch returns the substitute step list carried by a Decision outcome.
func (o Outcome) Branch() []Step {
	return o.branch
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeError:
		if o.Value != nil {
			return fmt.Sprintf("error(%v, value=%v)", o.Err, o.Value)
		}
		return fmt.Sprintf("error(%v)", o.Err)
	case OutcomeDecision:
		return fmt.Sprintf("decision(%d steps)", len(o.branch))
	default:
		return fmt.Sprintf("%s(%v)", o.Kind, o.Value)
	}
}
