// Package stats aggregates device readings into per-owner energy
// snapshots and publishes them to the stats cache.
//
// An Accumulator folds one tick's readings; BuildSnapshot turns the
// totals into the wire snapshot. The Store interface abstracts the
// cache: RedisStore is the production implementation, MemoryStore
// backs tests and single-node development. Snapshots are
// last-write-wins with no history and no expiry.
package stats
