/*
Package subscriber implements the reconnecting event listener.

The subscriber is a long-lived loop around a transport connection. It
decodes inbound messages into envelopes, hands them to a handler
function, and survives connection loss by backing off and reconnecting
indefinitely until stopped.

# Lifecycle

	idle ──► connecting ──► listening ──► backoff ─┐
	              ▲                                │
	              └────────────────────────────────┘
	                       (reconnect)

	any state ──► stopped   (via Stop)

State is held in an atomic and only mutated by the run loop or Stop,
so observation from other goroutines is race-free. Stop is cooperative:
an in-flight message finishes handling before the loop exits, and a
Stop during backoff cancels the pending reconnect.

Malformed messages are counted, logged and dropped; garbage can never
become well-formed, so it is not worth a retry.

# See Also

  - pkg/broker for the transport this adapts by default
  - pkg/registry for the handler side of the pipeline
*/
package subscriber
