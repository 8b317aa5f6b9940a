// Package core contains pipeline plumbing: channel helpers, worker
// configuration via context, and the locomotive that drives an engine over a
// stream of signals. It holds no stage logic of its own.
package core
