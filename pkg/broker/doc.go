/*
Package broker provides the in-process pub/sub transport for Matchday.

The broker is a channel-scoped broadcast bus: publishers send byte
messages on named channels, and every connection subscribed to that
channel receives its own copy. Delivery is best effort; a connection
whose buffer is full skips the message rather than blocking the
broadcast loop.

# Architecture

	┌─────────────────── BROKER ───────────────────┐
	│                                               │
	│  Publish(channel, data)                       │
	│       │                                       │
	│       ▼                                       │
	│  message channel (buffer: 100)                │
	│       │                                       │
	│       ▼                                       │
	│  broadcast loop ──► Conn buffers (50 each)    │
	│                     filtered by channel       │
	└───────────────────────────────────────────────┘

Connections are created with the channel list they care about; messages
on other channels are never delivered to them. Closing a connection, or
dropping it to simulate a network failure, closes its receive channel,
which consumers observe as a lost connection.

# Guarantees

  - Fan-out: every subscribed connection gets its own copy
  - Filtering: only subscribed channels are delivered
  - Non-blocking: full subscriber buffers skip, publishers never wait
  - No persistence, no replay, no ordering across channels

Events whose loss is unacceptable do not rely on this transport alone;
they travel the durable queue path in pkg/queue.

# See Also

  - pkg/subscriber for the reconnecting consumer built on this broker
  - pkg/publisher for the retrying producer side
  - pkg/queue for the durable, retried delivery path
*/
package broker
