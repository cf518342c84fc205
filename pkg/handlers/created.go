package handlers

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/openleague/matchday/pkg/event"
	"github.com/openleague/matchday/pkg/log"
	"github.com/openleague/matchday/pkg/registry"
	"github.com/openleague/matchday/pkg/storage"
	"github.com/openleague/matchday/pkg/types"
)

func tournamentCacheKey(id int64) string {
	return fmt.Sprintf("tournament:%d", id)
}

func teamCacheKey(id int64) string {
	return fmt.Sprintf("team:%d", id)
}

func standingsCacheKey(tournamentID int64) string {
	return fmt.Sprintf("standings:%d", tournamentID)
}

// entityCreated populates the local read-through cache from
// tournament/team created and updated events, so later existence checks
// avoid a cross-service call. Overwriting on redelivery is intentional:
// the payload is immutable creation data and last-write-wins is safe.
type entityCreated struct {
	store    storage.Store
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewEntityCreated builds the cache-population handler
func NewEntityCreated(store storage.Store, cacheTTL time.Duration) registry.Handler {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return registry.Wrap(&entityCreated{
		store:    store,
		cacheTTL: cacheTTL,
		logger:   log.WithComponent("entity-created"),
	})
}

func (h *entityCreated) Name() string {
	return "entity-created"
}

func (h *entityCreated) HandledEventTypes() []string {
	return []string{
		event.TypeTournamentCreated,
		event.TypeTournamentUpdated,
		event.TypeTeamCreated,
		event.TypeTeamUpdated,
	}
}

func (h *entityCreated) ProcessEvent(evt *event.Envelope) error {
	switch evt.EventType {
	case event.TypeTournamentCreated, event.TypeTournamentUpdated:
		return h.cacheTournament(evt)
	case event.TypeTeamCreated, event.TypeTeamUpdated:
		return h.cacheTeam(evt)
	default:
		return nil
	}
}

func (h *entityCreated) cacheTournament(evt *event.Envelope) error {
	var p types.TournamentCreatedPayload
	if err := evt.DecodePayload(&p); err != nil {
		return registry.Permanent(err)
	}
	if p.TournamentID <= 0 {
		return registry.Permanent(fmt.Errorf("missing or invalid tournament_id"))
	}

	status := p.Status
	if status == "" {
		status = types.TournamentUpcoming
	}

	snapshot := &types.TournamentSnapshot{
		ID:        p.TournamentID,
		Name:      p.Name,
		Status:    status,
		UpdatedAt: time.Now().UTC(),
	}
	if err := h.store.PutTournament(snapshot); err != nil {
		return registry.Retryable(err)
	}
	if err := h.store.CachePut(tournamentCacheKey(p.TournamentID), snapshot, h.cacheTTL); err != nil {
		return registry.Retryable(err)
	}

	h.logger.Debug().
		Int64("tournament_id", p.TournamentID).
		Msg("tournament snapshot cached")
	return nil
}

func (h *entityCreated) cacheTeam(evt *event.Envelope) error {
	var p types.TeamCreatedPayload
	if err := evt.DecodePayload(&p); err != nil {
		return registry.Permanent(err)
	}
	if p.TeamID <= 0 {
		return registry.Permanent(fmt.Errorf("missing or invalid team_id"))
	}

	snapshot := &types.TeamSnapshot{
		ID:           p.TeamID,
		TournamentID: p.TournamentID,
		Name:         p.Name,
		UpdatedAt:    time.Now().UTC(),
	}
	// Redelivered creation data must not clear a lock set in the meantime
	if existing, err := h.store.GetTeam(p.TeamID); err == nil {
		snapshot.Locked = existing.Locked
	}
	if err := h.store.PutTeam(snapshot); err != nil {
		return registry.Retryable(err)
	}
	if err := h.store.CachePut(teamCacheKey(p.TeamID), snapshot, h.cacheTTL); err != nil {
		return registry.Retryable(err)
	}

	h.logger.Debug().
		Int64("team_id", p.TeamID).
		Int64("tournament_id", p.TournamentID).
		Msg("team snapshot cached")
	return nil
}
