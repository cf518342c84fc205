/*
Package storage provides BoltDB-backed persistence for Matchday state.

The storage package implements the Store interface using bbolt,
providing ACID transactions for match results, derived standings, the
processed-event ledger, tournament and team snapshots, and a small TTL
cache. All values are serialized as JSON in separate buckets.

# Architecture

	┌──────────────── BOLTDB STORAGE ────────────────┐
	│  File: <dataDir>/matchday.db                    │
	│                                                 │
	│  match_results     (match ID)                   │
	│  standings         (tournament ID / team ID)    │
	│  processed_events  (event ID)                   │
	│  tournaments       (tournament ID)              │
	│  teams             (team ID)                    │
	│  cache             (string key, TTL wrapped)    │
	└─────────────────────────────────────────────────┘

# ApplyMatchResult

ApplyMatchResult is the heart of the package: it runs the ledger check,
the result upsert, the full standings rebuild and the ledger insert in
a single db.Update transaction. Either every side effect commits or
none does, so a crash mid-apply leaves no partial state and redelivery
re-applies the event whole.

Standings are always rebuilt from the complete set of persisted results
for the tournament rather than patched incrementally. Applying the same
events in any order, any number of times, converges on the same table.

# Cache Semantics

Cache entries carry an expiry; expired entries read as misses and are
overwritten by the next put. The cache is advisory: losing an entry
costs a recomputation or a stale read until TTL, never correctness.

# See Also

  - pkg/standings for the ranking computation the rebuild delegates to
  - pkg/handlers for the event handlers driving these operations
*/
package storage
