package handlers

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/openleague/matchday/pkg/event"
	"github.com/openleague/matchday/pkg/log"
	"github.com/openleague/matchday/pkg/metrics"
	"github.com/openleague/matchday/pkg/registry"
	"github.com/openleague/matchday/pkg/standings"
	"github.com/openleague/matchday/pkg/storage"
	"github.com/openleague/matchday/pkg/types"
)

// matchCompleted reacts to match.completed: it persists the final score,
// rebuilds the tournament's standings and records the event in the
// processed-event ledger, all in one transaction. After the commit it
// emits a high-priority standings.updated event so other services
// invalidate their caches.
type matchCompleted struct {
	store   storage.Store
	emitter Emitter
	rules   standings.Rules
	logger  zerolog.Logger
}

// NewMatchCompleted builds the match.completed handler. This handler is
// meant to run on the durable queue path: its transient failures are
// retryable and redelivery is governed by the job scheduler.
func NewMatchCompleted(store storage.Store, emitter Emitter, rules standings.Rules) registry.Handler {
	return registry.Wrap(&matchCompleted{
		store:   store,
		emitter: emitter,
		rules:   rules,
		logger:  log.WithComponent("match-completed"),
	})
}

func (h *matchCompleted) Name() string {
	return "match-completed"
}

func (h *matchCompleted) HandledEventTypes() []string {
	return []string{event.TypeMatchCompleted}
}

func (h *matchCompleted) ProcessEvent(evt *event.Envelope) error {
	var p types.MatchCompletedPayload
	if err := evt.DecodePayload(&p); err != nil {
		return registry.Permanent(err)
	}
	if err := p.Validate(); err != nil {
		// Malformed payloads will not self-correct; never retry
		return registry.Permanent(fmt.Errorf("invalid match.completed payload: %w", err))
	}

	completedAt := evt.Timestamp
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}

	result := &types.MatchResult{
		MatchID:      p.MatchID,
		TournamentID: p.TournamentID,
		HomeTeamID:   p.HomeTeamID,
		AwayTeamID:   p.AwayTeamID,
		HomeScore:    *p.HomeScore,
		AwayScore:    *p.AwayScore,
		Result:       p.Result,
		CompletedAt:  completedAt,
	}

	applied, err := h.store.ApplyMatchResult(evt.EventID, evt.EventType, result, h.rules)
	if err != nil {
		// The transaction rolled back; redelivery re-applies it whole
		return registry.Retryable(fmt.Errorf("failed to apply match result: %w", err))
	}

	if !applied {
		metrics.DuplicateEventsTotal.Inc()
		h.logger.Info().
			Str("event_id", evt.EventID).
			Int64("match_id", p.MatchID).
			Msg("duplicate delivery, already processed")
		return nil
	}

	h.logger.Info().
		Str("event_id", evt.EventID).
		Int64("match_id", p.MatchID).
		Int64("tournament_id", p.TournamentID).
		Msg("match result applied, standings updated")

	// Outside the transaction: best-effort follow-on propagation
	if h.emitter != nil {
		payload := types.StandingsUpdatedPayload{
			TournamentID: p.TournamentID,
			MatchID:      p.MatchID,
			UpdatedAt:    time.Now().UTC(),
		}
		if _, err := h.emitter.Emit(event.TypeStandingsUpdated, payload, types.PriorityHigh); err != nil {
			h.logger.Warn().
				Int64("tournament_id", p.TournamentID).
				Err(err).
				Msg("failed to emit standings.updated")
		}
	}

	return nil
}
