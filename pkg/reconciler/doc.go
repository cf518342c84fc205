/*
Package reconciler periodically re-derives standings from stored results.

The reconciler is the safety net under the event-driven path: on a
fixed interval it recomputes every known tournament's table from the
persisted match results. Because the recompute is a pure derivation,
running it when nothing changed is a no-op, and running it after a
missed or misordered event repairs the table without manual action.
*/
package reconciler
