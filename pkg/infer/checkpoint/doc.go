// Package checkpoint persists pipeline snapshots: the {ready, extra} state of
// every skill, keyed by skill name, so a restarted process can restore its
// skills without running their warm-up again.
//
// RedisStore is the shared backend; MemoryStore serves tests and single
// process use.
package checkpoint
