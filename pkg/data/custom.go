package data

import (
	"context"

	"github.com/petrijr/stepflow/pkg/api"
)

// Args is what a custom data step receives.
type Args struct {
	DB    *DB
	Input any
	State api.FlowState
}

// CustomBuilder configures a free-form step that gets the database handle.
//
//	step := data.Custom(db).
//	    When(func(ctx context.Context, a data.Args) api.GateOutcome { ... }).
//	    Do(func(ctx context.Context, a data.Args) (any, error) { ... }).
//	    Build()
type CustomBuilder struct {
	db   *DB
	gate func(ctx context.Context, a Args) api.GateOutcome
	do   func(ctx context.Context, a Args) (any, error)
}

// Custom starts a custom step over db.
func Custom(db *DB) *CustomBuilder {
	if db == nil {
		panic("data: Custom needs a database")
	}
	return &CustomBuilder{db: db}
}

// When sets the gate. Without one the step always continues.
func (b *CustomBuilder) When(gate func(ctx context.Context, a Args) api.GateOutcome) *CustomBuilder {
	b.gate = gate
	return b
}

// Do sets the body. Returning an api.Outcome passes it through unchanged;
// any other value becomes Success(value).
func (b *CustomBuilder) Do(fn func(ctx context.Context, a Args) (any, error)) *CustomBuilder {
	b.do = fn
	return b
}

// Build returns the step. It panics when Do was not called.
func (b *CustomBuilder) Build() api.GatedStep {
	if b.do == nil {
		panic("data: custom step needs Do")
	}
	return &customStep{cfg: *b}
}

type customStep struct {
	cfg CustomBuilder
}

func (s *customStep) Name() string { return "data.custom" }

func (s *customStep) Gate(ctx context.Context, input any, state api.FlowState) api.GateOutcome {
	if s.cfg.gate == nil {
		return api.Continue
	}
	return s.cfg.gate(ctx, Args{DB: s.cfg.db, Input: input, State: state})
}

func (s *customStep) Execute(ctx context.Context, input any, state api.FlowState) api.Outcome {
	v, err := s.cfg.do(ctx, Args{DB: s.cfg.db, Input: input, State: state})
	if err != nil {
		return api.ErrorWithValue(err, v)
	}
	if out, ok := v.(api.Outcome); ok {
		return out
	}
	return api.Success(v)
}
