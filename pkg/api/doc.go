// Package api contains the building blocks of stepflow pipelines: the
// Outcome and GateOutcome result types, the Step and Gate contracts, the
// Decision step, error handlers, restart filters, the status manager, the
// logging decorators and the Observer sink.
//
// Most users import the root stepflow package, which re-exports these types
// and adds the Builder. The engine that walks the steps lives in
// internal/engine.
package api
