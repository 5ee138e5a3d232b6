// Package pipeline drives audit iterations.
//
// An iteration is a Pipeline of Steps that fill in a model.IterationReport:
// the AuditStep fans the targets out to a BatchProcessor and the
// ReconcileStep merges the batch into the sheet. The Loop runs the pipeline
// once per iteration and sleeps a quiescent delay after each one.
//
// A failing step stops the iteration before any later step runs.
package pipeline
