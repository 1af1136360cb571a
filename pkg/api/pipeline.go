package api

import "context"

// NoRestartLimit disables the restart limit.
const NoRestartLimit = -1

// Pipeline is a built, reusable step sequence.
type Pipeline interface {
	// Name returns the name given to the builder.
	Name() string

	// Run threads input through the steps and returns the final outcome.
	// Step failures are reported as Error outcomes, never as panics.
	Run(ctx context.Context, input any) Outcome
}
