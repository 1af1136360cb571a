package api

import "context"

// ErrorHandler is invoked for every Error outcome produced inside a run,
// including failed gates. Returning a non-Error outcome recovers; returning
// an Error stops the run with that error.
type ErrorHandler interface {
	Handle(ctx context.Context, failed Outcome) Outcome
}

// ErrorHandlerFunc adapts a function to ErrorHandler.
type ErrorHandlerFunc func(ctx context.Context, failed Outcome) Outcome

func (f ErrorHandlerFunc) Handle(ctx context.Context, failed Outcome) Outcome {
	return f(ctx, failed)
}

// PassThrough returns the error unchanged. It is the default handler.
var PassThrough ErrorHandler = ErrorHandlerFunc(func(_ context.Context, failed Outcome) Outcome {
	return failed
})

// RestartFilter computes the input of the next attempt when a step asks for
// a restart.
type RestartFilter interface {
	Transform(ctx context.Context, restart Outcome, state FlowState) any
}

// RestartFilterFunc adapts a function to RestartFilter.
type RestartFilterFunc func(ctx context.Context, restart Outcome, state FlowState) any

func (f RestartFilterFunc) Transform(ctx context.Context, restart Outcome, state FlowState) any {
	return f(ctx, restart, state)
}
