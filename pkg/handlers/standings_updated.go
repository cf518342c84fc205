package handlers

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/openleague/matchday/pkg/event"
	"github.com/openleague/matchday/pkg/log"
	"github.com/openleague/matchday/pkg/registry"
	"github.com/openleague/matchday/pkg/storage"
	"github.com/openleague/matchday/pkg/types"
)

// standingsUpdated consumes the follow-on standings.updated event and
// invalidates the local standings cache entry. This is the best-effort,
// advisory end of the chain: a missed invalidation only means a stale
// cache entry until its TTL expires.
type standingsUpdated struct {
	store  storage.Store
	logger zerolog.Logger
}

// NewStandingsUpdated builds the cache-invalidation handler
func NewStandingsUpdated(store storage.Store) registry.Handler {
	return registry.Wrap(&standingsUpdated{
		store:  store,
		logger: log.WithComponent("standings-updated"),
	})
}

func (h *standingsUpdated) Name() string {
	return "standings-updated"
}

func (h *standingsUpdated) HandledEventTypes() []string {
	return []string{event.TypeStandingsUpdated}
}

func (h *standingsUpdated) ProcessEvent(evt *event.Envelope) error {
	var p types.StandingsUpdatedPayload
	if err := evt.DecodePayload(&p); err != nil {
		return registry.Permanent(err)
	}
	if p.TournamentID <= 0 {
		return registry.Permanent(fmt.Errorf("missing or invalid tournament_id"))
	}

	if err := h.store.CacheDelete(standingsCacheKey(p.TournamentID)); err != nil {
		h.logger.Warn().
			Int64("tournament_id", p.TournamentID).
			Err(err).
			Msg("cache invalidation failed")
		return nil
	}

	h.logger.Debug().
		Int64("tournament_id", p.TournamentID).
		Int64("match_id", p.MatchID).
		Msg("standings cache invalidated")
	return nil
}
