// Package pipeline runs a complete merge as a fixed sequence of stages:
//
//	load -> schema (optional) -> check -> image_merge -> category_merge ->
//	annotation_merge -> save -> image_move
//
// The unified document is an explicit accumulator seeded from a copy of the
// base document; each merge stage appends to it. A failure aborts the run at
// the failing stage and is returned as a *StageError wrapping the typed
// cause. Every run, successful or not, is recorded in the configured Ledger.
//
// In dry-run mode the pipeline stops after annotation_merge and writes
// nothing.
package pipeline
