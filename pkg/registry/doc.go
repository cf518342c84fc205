/*
Package registry routes event envelopes to their handlers.

Handlers are registered once at startup, giving a compile-time checked
wiring of event types to business logic. Dispatch fans each envelope
out to every handler that declares its event type; there is no implicit
discovery and no reflection.

# Handler Composition

Business logic implements the small EventProcessor interface; Wrap
turns it into a full Handler that adds the cross-cutting behavior every
handler needs:

  - structural envelope validation (malformed envelopes are dropped
    with a warning, never retried)
  - lifecycle logging with event context
  - invocation metrics and duration timing
  - panic containment, so one bad event cannot crash the listen loop

# Error Semantics

Handler failures are classified, not thrown:

	registry.Retryable(err)  transient; surfaces to the caller so the
	                         durable queue path redelivers with backoff
	registry.Permanent(err)  fatal for the event; logged and contained

Only retryable errors escape Dispatch. Everything else is contained so
the subscriber's listen loop keeps running.

# See Also

  - pkg/handlers for the concrete processors registered here
  - pkg/queue for the worker that acts on retryable failures
*/
package registry
