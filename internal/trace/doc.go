// Package trace records the steps of an aidacc build: the build itself,
// each input document loaded into the unit, each backend run, the ledger
// update and, at the deepest level, every declaration that reached the unit.
//
// Every event names its Phase and the Subject the phase works on, so a line
// like "→ backend pyxx" or "• declare Pkg::R" reads without further context.
//
// The tracer and the current span travel in a context.Context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopeUnit, "load", path)
//	err := load(ctx, path)
//	span.Finish(err)
//
// Levels pick the deepest traced scope. LevelError keeps driver and backend
// events in memory only; the command dumps them when a build fails.
package trace
