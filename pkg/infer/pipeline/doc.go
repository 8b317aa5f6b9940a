// Package pipeline is a reference driver for skills: it prepares them, runs
// items through them in order, fans items out over workers and snapshots the
// skills into checkpoints.
//
// Common usage:
// - New/Add: build an ordered pipeline of named skills
// - Prepare: warm up every skill that is not ready
// - Run: one item, synchronously; Stream/RunAll: many items over workers
// - Snapshot/Restore: move skill states to and from a checkpoint.Store
package pipeline
