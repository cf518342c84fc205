/*
Package queue provides durable, prioritized background job processing.

While the broker delivers events live and best effort, the queue is the
guaranteed path: a dispatched event is persisted before the dispatcher
returns its ID, survives process restarts, and is retried with backoff
until its envelope's retry budget is exhausted.

# Architecture

	┌──────────────── DURABLE QUEUES ────────────────┐
	│                                                 │
	│  Dispatcher.Dispatch(base, payload, type, prio) │
	│       │                                         │
	│       ▼                                         │
	│  BoltDB file: matchday-queue.db                 │
	│    jobs/                                        │
	│      events-high    ┐                           │
	│      events-normal  ├ scanned in priority order │
	│      events-low     ┘                           │
	│    dead_letters                                 │
	│       ▲                                         │
	│       │ after max_retries failures              │
	│  Worker pool ──► registry.Dispatch(envelope)    │
	└─────────────────────────────────────────────────┘

# Queue Naming

Physical queue names derive from a base name and a priority:

	Name("events", high)   = "events-high"
	Name("events", normal) = "events-normal"
	Name("default", normal)= "default"
	Name("default", high)  = "high"

The "default" base is special-cased so unprefixed deployments keep the
conventional high/default/low queue names.

# Job Lifecycle

 1. Dispatch builds an envelope, persists a Job, returns the event ID.
    An empty returned ID means the event is not guaranteed delivered.
 2. A worker dequeues the first due job, highest priority queue first.
 3. The envelope goes through the handler registry.
 4. A retryable failure re-enqueues the job with doubled delay.
 5. After max_retries failures the job moves to the dead-letter record
    for manual inspection.

Jobs within a queue are ordered by due time, so delayed jobs never
block jobs that are already due.

# See Also

  - pkg/registry for how envelopes are routed to handlers
  - pkg/broker for the live, best-effort delivery path
*/
package queue
