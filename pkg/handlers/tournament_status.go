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

// tournamentStatus reacts to tournament.status.changed. Completion locks
// the tournament's teams and triggers a full standings recalculation;
// reopening reverses the lock without recomputing. Any other transition
// only refreshes the cached status.
type tournamentStatus struct {
	store    storage.Store
	rules    standings.Rules
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewTournamentStatus builds the tournament.status.changed handler
func NewTournamentStatus(store storage.Store, rules standings.Rules, cacheTTL time.Duration) registry.Handler {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return registry.Wrap(&tournamentStatus{
		store:    store,
		rules:    rules,
		cacheTTL: cacheTTL,
		logger:   log.WithComponent("tournament-status"),
	})
}

func (h *tournamentStatus) Name() string {
	return "tournament-status"
}

func (h *tournamentStatus) HandledEventTypes() []string {
	return []string{event.TypeTournamentStatusChanged}
}

func (h *tournamentStatus) ProcessEvent(evt *event.Envelope) error {
	var p types.TournamentStatusPayload
	if err := evt.DecodePayload(&p); err != nil {
		return registry.Permanent(err)
	}
	if err := p.Validate(); err != nil {
		return registry.Permanent(fmt.Errorf("invalid tournament.status.changed payload: %w", err))
	}

	previous := p.PreviousStatus
	if previous == "" {
		// Fall back to the locally cached status when the producer
		// omitted the previous value
		if cached, err := h.store.GetTournament(p.TournamentID); err == nil {
			previous = cached.Status
		}
	}

	snapshot := &types.TournamentSnapshot{
		ID:        p.TournamentID,
		Name:      p.Name,
		Status:    p.Status,
		UpdatedAt: time.Now().UTC(),
	}
	if err := h.store.PutTournament(snapshot); err != nil {
		return registry.Retryable(fmt.Errorf("failed to update tournament snapshot: %w", err))
	}
	if err := h.store.CachePut(tournamentCacheKey(p.TournamentID), snapshot, h.cacheTTL); err != nil {
		h.logger.Warn().Int64("tournament_id", p.TournamentID).Err(err).Msg("cache refresh failed")
	}

	switch {
	case p.Status == types.TournamentCompleted:
		return h.complete(p.TournamentID)
	case previous == types.TournamentCompleted:
		return h.reopen(p.TournamentID)
	default:
		h.logger.Debug().
			Int64("tournament_id", p.TournamentID).
			Str("status", string(p.Status)).
			Msg("tournament status cached")
		return nil
	}
}

// complete locks the tournament's teams and recomputes its standings from
// scratch. The recompute derives everything from persisted match results,
// so re-running it any number of times is safe.
func (h *tournamentStatus) complete(tournamentID int64) error {
	locked, err := h.store.SetTeamsLocked(tournamentID, true)
	if err != nil {
		// Lock support depends on the local schema; its absence must not
		// block the recompute
		h.logger.Warn().Int64("tournament_id", tournamentID).Err(err).Msg("team lock not applied")
	} else {
		h.logger.Info().
			Int64("tournament_id", tournamentID).
			Int("teams_locked", locked).
			Msg("tournament completed, teams locked")
	}

	timer := metrics.NewTimer()
	if err := h.store.RecomputeStandings(tournamentID, h.rules); err != nil {
		return registry.Retryable(fmt.Errorf("failed to recompute standings: %w", err))
	}
	timer.ObserveDuration(metrics.StandingsRecomputeDuration)
	metrics.StandingsRecomputesTotal.Inc()

	h.logger.Info().Int64("tournament_id", tournamentID).Msg("standings recomputed")
	return nil
}

// reopen reverses the lock. No recompute: reopening implies no new match
// data.
func (h *tournamentStatus) reopen(tournamentID int64) error {
	unlocked, err := h.store.SetTeamsLocked(tournamentID, false)
	if err != nil {
		h.logger.Warn().Int64("tournament_id", tournamentID).Err(err).Msg("team unlock not applied")
		return nil
	}

	h.logger.Info().
		Int64("tournament_id", tournamentID).
		Int("teams_unlocked", unlocked).
		Msg("tournament reopened, teams unlocked")
	return nil
}
