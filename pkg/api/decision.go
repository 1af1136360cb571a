package api

import "context"

// Predicate chooses a Decision branch.
type Predicate func(ctx context.Context, input any, state FlowState) (bool, error)

// Decision is a step that replaces the remainder of the pipeline with one of
// two step lists, chosen by a predicate evaluated against the current input.
//
// A Decision must be the last step of the list it belongs to.
type Decision struct {
	name      string
	predicate Predicate
	onTrue    []Step
	onFalse   []Step
}

var _ Step = (*Decision)(nil)

// NewDecision builds a Decision. The branch lists are copied, so later
// changes to the caller's slices are not observed.
func NewDecision(predicate Predicate, onTrue, onFalse []Step) *Decision {
	if predicate == nil {
		panic("stepflow: decision predicate must not be nil")
	}
	return &Decision{
		predicate: predicate,
		onTrue:    append([]Step(nil), onTrue...),
		onFalse:   append([]Step(nil), onFalse...),
	}
}

// Named returns a copy of d that reports name in logs.
func (d *Decision) Named(name string) *Decision {
	c := *d
	c.name = name
	return &c
}

func (d *Decision) Name() string {
	if d.name == "" {
		return "decision"
	}
	return d.name
}

// Branches returns the true and false step lists.
func (d *Decision) Branches() (onTrue, onFalse []Step) {
	return d.onTrue, d.onFalse
}

// Execute evaluates the predicate. Errors and panics become Error outcomes;
// otherwise the chosen branch is returned as a decision outcome.
func (d *Decision) Execute(ctx context.Context, input any, state FlowState) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Error(NewPanicError(r))
		}
	}()
	ok, err := d.predicate(ctx, input, state)
	if err != nil {
		return Error(err)
	}
	if ok {
		return decisionTaken(d.onTrue)
	}
	return decisionTaken(d.onFalse)
}

// IsDecision reports whether step, once every decorator is peeled off, is a
// Decision.
func IsDecision(step Step) bool {
	_, ok := Unwrap(step).(*Decision)
	return ok
}
