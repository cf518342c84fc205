/*
Package types defines the core data structures used throughout Matchday.

This package contains the fundamental types of the event core's domain
model: completed match results, derived standings, the processed-event
ledger, cached tournament and team snapshots, and the typed payload
shapes carried inside event envelopes.

# Core Types

Durable state:
  - MatchResult: The source-of-truth record of a completed match
  - Standing: A derived ranking row, fully recomputable from results
  - ProcessedEvent: One ledger row marking an event as already handled

Cached snapshots (advisory, safely overwritable):
  - TournamentSnapshot: Locally cached tournament status
  - TeamSnapshot: Locally cached team, with its roster lock flag

Routing:
  - Priority: high/normal/low work-queue selection

Payloads (one per event type, parsed on demand by handlers):
  - MatchCompletedPayload
  - TournamentStatusPayload
  - TournamentCreatedPayload, TeamCreatedPayload
  - StandingsUpdatedPayload

# Design Notes

Standing rows are never written directly by callers: they are derived
from the set of persisted MatchResults, so duplicate or out-of-order
event delivery re-applies the same final state.

Payload score fields use pointers so a missing field can be told apart
from a legitimate zero; Validate methods treat a missing field as fatal
for the event.

# See Also

  - pkg/event for the envelope wrapping these payloads
  - pkg/storage for persistence of the durable state
  - pkg/standings for the ranking computation
*/
package types
