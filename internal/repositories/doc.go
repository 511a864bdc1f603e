// Package repositories implements SQLite persistence for batch run history.
//
// Key Implementations:
//   - [RunRepository] : one row per render or validate batch with its cache statistics
//
// Sequence numbers provide stable, human-readable ordering (e.g., run #42) independent of UUIDs and
// timestamps. The [NextSequence] function atomically increments per-table sequence counters in
// dedicated sequence tables.
package repositories
