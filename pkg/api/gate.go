package api

import (
	"errors"
	"fmt"
)

// GateKind tags the result of a gate check.
type GateKind int

const (
	// GateContinue lets the step execute. It is the zero value.
	GateContinue GateKind = iota
	// GateSkip advances past the step without executing it.
	GateSkip
	// GateFailed reports an error; the engine routes it to the ErrorHandler.
	GateFailed
)

func (k GateKind) String() string {
	switch k {
	case GateContinue:
		return "continue"
	case GateSkip:
		return "skip"
	case GateFailed:
		return "error"
	default:
		return fmt.Sprintf("GateKind(%d)", int(k))
	}
}

// GateOutcome is the result of a step's can-execute check.
type GateOutcome struct {
	Kind GateKind
	Err  error
}

var (
	// Continue lets the step execute.
	Continue = GateOutcome{Kind: GateContinue}
	// Skip skips the step.
	Skip = GateOutcome{Kind: GateSkip}
)

// ErrGateFailed is reported for a failed gate that carries no error.
var ErrGateFailed = errors.New("gate failed")

// GateError returns a failed gate carrying err. A nil err is replaced by
// ErrGateFailed.
func GateError(err error) GateOutcome {
	if err == nil {
		err = ErrGateFailed
	}
	return GateOutcome{Kind: GateFailed, Err: err}
}

// GateFromBool maps true to Continue and false to Skip.
func GateFromBool(ok bool) GateOutcome {
	if ok {
		return Continue
	}
	return Skip
}

func (g GateOutcome) String() string {
	if g.Kind == GateFailed {
		return fmt.Sprintf("error(%v)", g.Err)
	}
	return g.Kind.String()
}
