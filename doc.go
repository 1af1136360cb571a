// Package stepflow runs linear pipelines of steps inside a single process.
//
// A pipeline is an ordered list of steps. Each step receives the previous
// step's value and returns an Outcome: Success continues, Error goes to the
// pipeline's error handler, GoToEnd stops early, and Restart runs the whole
// pipeline again (bounded by an optional restart limit). A step may carry a
// gate that skips it, and a Decision step replaces the rest of the pipeline
// with one of two branches.
//
//	p := stepflow.New("double").
//	    Add(stepflow.TypedFunc(func(ctx context.Context, x int) (int, error) {
//	        return x * 2, nil
//	    })).
//	    Build()
//
//	out := p.Run(ctx, 4) // Success(8)
//
// Run never panics: panics inside steps, gates, predicates and handlers are
// recovered into Error outcomes carrying a *PanicError.
//
// Pipelines can also be declared in YAML and assembled from a registry of
// named steps, see package pkg/config. Package pkg/data provides steps that
// read and write SQL databases.
package stepflow
