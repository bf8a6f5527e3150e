// Package simulation generates device readings and publishes per-owner
// energy snapshots.
//
// Each tick reads every online device, draws a new reading under the
// per-kind rules, persists only the mutated fields, folds the readings
// into per-owner accumulators and writes one snapshot per touched owner
// to the stats cache. The random draws and the fold happen in a single
// deterministic pass; only persistence fans out to a bounded worker
// pool. At most one tick runs at a time.
package simulation
