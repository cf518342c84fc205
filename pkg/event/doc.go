/*
Package event defines the Matchday event envelope and its wire format.

Every message exchanged over the pub/sub channel or the durable work
queues is an Envelope: a uniform wrapper carrying identity, provenance
and retry bookkeeping around an opaque JSON payload.

# Envelope

	┌──────────────── ENVELOPE ────────────────┐
	│  event_id     UUID, fixed at creation    │
	│  event_type   e.g. "match.completed"     │
	│  service      producing service name     │
	│  payload      raw JSON, parsed on demand │
	│  timestamp    UTC creation time          │
	│  version      payload schema version     │
	│  retry_count  delivery attempts so far   │
	│  max_retries  redelivery budget          │
	└──────────────────────────────────────────┘

The event ID is assigned once by New and never changes, so retries and
redeliveries of the same logical event are recognizable downstream by
the processed-event ledger. Decoding tolerates unknown fields, letting
producers add fields without breaking older consumers.

# Event Types

Inbound:
  - match.completed
  - tournament.status.changed
  - tournament.created, tournament.updated
  - team.created, team.updated

Outbound:
  - standings.updated

Channel names equal event type names; a subscriber interested in an
event type connects to the channel of the same name.

# Usage

	evt, err := event.New("match-service", event.TypeMatchCompleted, payload)
	data, err := evt.Encode()

	evt, err := event.Decode(data)
	var p types.MatchCompletedPayload
	err = evt.DecodePayload(&p)

# See Also

  - pkg/publisher for the retrying producer side
  - pkg/subscriber for the reconnecting consumer side
  - pkg/registry for envelope validation before handling
*/
package event
