/*
Package handlers contains the domain event handlers for Matchday.

Each handler is an EventProcessor wrapped by pkg/registry, reacting to
one slice of the league's event stream:

	match-completed       persists the score, rebuilds standings and
	                      records the event in the ledger atomically,
	                      then emits standings.updated at high priority
	tournament-status     caches the new status; completion locks the
	                      tournament's teams and recomputes standings,
	                      reopening unlocks them
	entity-created        populates local snapshots and the read-through
	                      cache from created/updated events
	standings-updated     invalidates the cached standings table

# Idempotence

match-completed consults the processed-event ledger inside the same
transaction that applies its side effects, so duplicate deliveries are
detected and skipped as no-ops. The other handlers are naturally
idempotent: they overwrite snapshots or delete cache entries, and
re-running them converges on the same state.

# Error Classification

Handlers return registry.Permanent for malformed payloads (the event
is dropped, it will never parse better) and registry.Retryable for
store failures (the transaction rolled back; redelivery re-applies it
whole). Follow-on emission failures are only warned: propagation is
best effort, correctness lives in the store.
*/
package handlers
