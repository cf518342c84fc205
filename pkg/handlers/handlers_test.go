package handlers

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/openleague/matchday/pkg/event"
	"github.com/openleague/matchday/pkg/log"
	"github.com/openleague/matchday/pkg/registry"
	"github.com/openleague/matchday/pkg/standings"
	"github.com/openleague/matchday/pkg/storage"
	"github.com/openleague/matchday/pkg/types"
)

func TestMain(m *testing.M) {
	log.Init(log.Config{Level: log.ErrorLevel, JSONOutput: true, Output: io.Discard})
	os.Exit(m.Run())
}

type emission struct {
	eventType string
	payload   any
	priority  types.Priority
}

// fakeEmitter records emitted follow-on events
type fakeEmitter struct {
	emitted []emission
}

func (e *fakeEmitter) Emit(eventType string, payload any, priority types.Priority) (string, error) {
	e.emitted = append(e.emitted, emission{eventType: eventType, payload: payload, priority: priority})
	return "emitted-id", nil
}

func openStore(t *testing.T) *storage.BoltStore {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir())
	assert.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func envelope(t *testing.T, eventType string, payload any) *event.Envelope {
	t.Helper()
	evt, err := event.New("test-service", eventType, payload)
	assert.NoError(t, err)
	return evt
}

func matchCompletedEnvelope(t *testing.T) *event.Envelope {
	return envelope(t, event.TypeMatchCompleted, map[string]any{
		"match_id":      42,
		"tournament_id": 7,
		"home_team_id":  1,
		"away_team_id":  2,
		"home_score":    3,
		"away_score":    1,
		"result":        "home_win",
	})
}

func TestMatchCompletedAppliesResult(t *testing.T) {
	store := openStore(t)
	emitter := &fakeEmitter{}
	h := NewMatchCompleted(store, emitter, standings.DefaultRules)

	evt := matchCompletedEnvelope(t)
	assert.NoError(t, h.Handle(evt))

	result, err := store.GetMatchResult(42)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), result.TournamentID)
	assert.Equal(t, 3, result.HomeScore)
	assert.Equal(t, 1, result.AwayScore)
	assert.Equal(t, types.OutcomeHomeWin, result.Result)

	table, err := store.ListStandings(7)
	assert.NoError(t, err)
	assert.Len(t, table, 2)

	winner := table[0]
	assert.Equal(t, int64(1), winner.TeamID)
	assert.Equal(t, 1, winner.Played)
	assert.Equal(t, 1, winner.Won)
	assert.Equal(t, 3, winner.Points)
	assert.Equal(t, 3, winner.GoalsFor)
	assert.Equal(t, 1, winner.GoalsAgainst)

	loser := table[1]
	assert.Equal(t, int64(2), loser.TeamID)
	assert.Equal(t, 1, loser.Lost)
	assert.Equal(t, 0, loser.Points)

	processed, err := store.IsProcessed(evt.EventID)
	assert.NoError(t, err)
	assert.True(t, processed)

	// A high-priority standings.updated follows the commit
	assert.Len(t, emitter.emitted, 1)
	assert.Equal(t, event.TypeStandingsUpdated, emitter.emitted[0].eventType)
	assert.Equal(t, types.PriorityHigh, emitter.emitted[0].priority)
	p, ok := emitter.emitted[0].payload.(types.StandingsUpdatedPayload)
	assert.True(t, ok)
	assert.Equal(t, int64(7), p.TournamentID)
	assert.Equal(t, int64(42), p.MatchID)
}

func TestMatchCompletedDuplicateDelivery(t *testing.T) {
	store := openStore(t)
	emitter := &fakeEmitter{}
	h := NewMatchCompleted(store, emitter, standings.DefaultRules)

	evt := matchCompletedEnvelope(t)
	assert.NoError(t, h.Handle(evt))
	assert.NoError(t, h.Handle(evt))

	table, err := store.ListStandings(7)
	assert.NoError(t, err)
	assert.Len(t, table, 2)
	// Counted once despite double delivery
	assert.Equal(t, 1, table[0].Played)
	assert.Equal(t, 3, table[0].Points)

	// No second follow-on event for the no-op
	assert.Len(t, emitter.emitted, 1)
}

func TestMatchCompletedInvalidPayloadDropped(t *testing.T) {
	store := openStore(t)
	h := NewMatchCompleted(store, nil, standings.DefaultRules)

	// home_score missing entirely
	evt := envelope(t, event.TypeMatchCompleted, map[string]any{
		"match_id":      42,
		"tournament_id": 7,
		"home_team_id":  1,
		"away_team_id":  2,
		"away_score":    1,
		"result":        "home_win",
	})

	// Permanent failures are contained; the event is dropped, not retried
	assert.NoError(t, h.Handle(evt))

	_, err := store.GetMatchResult(42)
	assert.Error(t, err)

	processed, err := store.IsProcessed(evt.EventID)
	assert.NoError(t, err)
	assert.False(t, processed)
}

func TestMatchCompletedZeroZeroDraw(t *testing.T) {
	store := openStore(t)
	h := NewMatchCompleted(store, nil, standings.DefaultRules)

	// A 0-0 scoreline is valid data, not a missing field
	evt := envelope(t, event.TypeMatchCompleted, map[string]any{
		"match_id":      50,
		"tournament_id": 7,
		"home_team_id":  1,
		"away_team_id":  2,
		"home_score":    0,
		"away_score":    0,
		"result":        "draw",
	})
	assert.NoError(t, h.Handle(evt))

	table, err := store.ListStandings(7)
	assert.NoError(t, err)
	assert.Len(t, table, 2)
	for _, row := range table {
		assert.Equal(t, 1, row.Drawn)
		assert.Equal(t, 1, row.Points)
	}
}

func TestMatchCompletedStoreFailureIsRetryable(t *testing.T) {
	store, err := storage.NewBoltStore(t.TempDir())
	assert.NoError(t, err)
	h := NewMatchCompleted(store, nil, standings.DefaultRules)

	store.Close()

	err = h.Handle(matchCompletedEnvelope(t))
	assert.Error(t, err)
	assert.True(t, registry.IsRetryable(err))
}

func TestTournamentCompletedLocksTeamsAndRecomputes(t *testing.T) {
	store := openStore(t)

	assert.NoError(t, store.PutTeam(&types.TeamSnapshot{ID: 1, TournamentID: 7, Name: "Reds"}))
	assert.NoError(t, store.PutTeam(&types.TeamSnapshot{ID: 2, TournamentID: 7, Name: "Blues"}))

	match := NewMatchCompleted(store, nil, standings.DefaultRules)
	assert.NoError(t, match.Handle(matchCompletedEnvelope(t)))

	h := NewTournamentStatus(store, standings.DefaultRules, time.Minute)
	evt := envelope(t, event.TypeTournamentStatusChanged, map[string]any{
		"tournament_id":   7,
		"name":            "Spring Cup",
		"previous_status": "active",
		"status":          "completed",
	})
	assert.NoError(t, h.Handle(evt))

	teams, err := store.ListTeamsByTournament(7)
	assert.NoError(t, err)
	assert.Len(t, teams, 2)
	for _, team := range teams {
		assert.True(t, team.Locked)
	}

	tournament, err := store.GetTournament(7)
	assert.NoError(t, err)
	assert.Equal(t, types.TournamentCompleted, tournament.Status)

	// Final standings still reflect the persisted results
	table, err := store.ListStandings(7)
	assert.NoError(t, err)
	assert.Len(t, table, 2)
	assert.Equal(t, 3, table[0].Points)
}

func TestTournamentReopenedUnlocksTeams(t *testing.T) {
	store := openStore(t)

	assert.NoError(t, store.PutTeam(&types.TeamSnapshot{ID: 1, TournamentID: 7, Name: "Reds", Locked: true}))
	assert.NoError(t, store.PutTeam(&types.TeamSnapshot{ID: 2, TournamentID: 7, Name: "Blues", Locked: true}))

	h := NewTournamentStatus(store, standings.DefaultRules, time.Minute)
	evt := envelope(t, event.TypeTournamentStatusChanged, map[string]any{
		"tournament_id":   7,
		"name":            "Spring Cup",
		"previous_status": "completed",
		"status":          "active",
	})
	assert.NoError(t, h.Handle(evt))

	teams, err := store.ListTeamsByTournament(7)
	assert.NoError(t, err)
	for _, team := range teams {
		assert.False(t, team.Locked)
	}
}

func TestTournamentReopenFallsBackToCachedStatus(t *testing.T) {
	store := openStore(t)

	assert.NoError(t, store.PutTournament(&types.TournamentSnapshot{
		ID: 7, Name: "Spring Cup", Status: types.TournamentCompleted,
	}))
	assert.NoError(t, store.PutTeam(&types.TeamSnapshot{ID: 1, TournamentID: 7, Name: "Reds", Locked: true}))

	h := NewTournamentStatus(store, standings.DefaultRules, time.Minute)
	// No previous_status in the payload; the cached snapshot supplies it
	evt := envelope(t, event.TypeTournamentStatusChanged, map[string]any{
		"tournament_id": 7,
		"name":          "Spring Cup",
		"status":        "active",
	})
	assert.NoError(t, h.Handle(evt))

	team, err := store.GetTeam(1)
	assert.NoError(t, err)
	assert.False(t, team.Locked)
}

func TestTournamentStatusOtherTransitionOnlyCaches(t *testing.T) {
	store := openStore(t)

	h := NewTournamentStatus(store, standings.DefaultRules, time.Minute)
	evt := envelope(t, event.TypeTournamentStatusChanged, map[string]any{
		"tournament_id":   7,
		"name":            "Spring Cup",
		"previous_status": "upcoming",
		"status":          "active",
	})
	assert.NoError(t, h.Handle(evt))

	tournament, err := store.GetTournament(7)
	assert.NoError(t, err)
	assert.Equal(t, types.TournamentActive, tournament.Status)

	var cached types.TournamentSnapshot
	found, err := store.CacheGet(tournamentCacheKey(7), &cached)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, types.TournamentActive, cached.Status)
}

func TestEntityCreatedCachesTournament(t *testing.T) {
	store := openStore(t)
	h := NewEntityCreated(store, time.Minute)

	evt := envelope(t, event.TypeTournamentCreated, map[string]any{
		"tournament_id": 7,
		"name":          "Spring Cup",
	})
	assert.NoError(t, h.Handle(evt))

	tournament, err := store.GetTournament(7)
	assert.NoError(t, err)
	assert.Equal(t, "Spring Cup", tournament.Name)
	// Status defaults to upcoming when the producer omits it
	assert.Equal(t, types.TournamentUpcoming, tournament.Status)

	var cached types.TournamentSnapshot
	found, err := store.CacheGet(tournamentCacheKey(7), &cached)
	assert.NoError(t, err)
	assert.True(t, found)
}

func TestEntityCreatedPreservesTeamLockOnRedelivery(t *testing.T) {
	store := openStore(t)
	h := NewEntityCreated(store, time.Minute)

	evt := envelope(t, event.TypeTeamCreated, map[string]any{
		"team_id":       1,
		"tournament_id": 7,
		"name":          "Reds",
	})
	assert.NoError(t, h.Handle(evt))

	_, err := store.SetTeamsLocked(7, true)
	assert.NoError(t, err)

	// Redelivered creation data must not clear the lock
	assert.NoError(t, h.Handle(evt))

	team, err := store.GetTeam(1)
	assert.NoError(t, err)
	assert.True(t, team.Locked)
}

func TestEntityCreatedRejectsMissingIDs(t *testing.T) {
	store := openStore(t)
	h := NewEntityCreated(store, time.Minute)

	evt := envelope(t, event.TypeTeamCreated, map[string]any{
		"tournament_id": 7,
		"name":          "Reds",
	})
	assert.NoError(t, h.Handle(evt))

	teams, err := store.ListTeamsByTournament(7)
	assert.NoError(t, err)
	assert.Len(t, teams, 0)
}

func TestStandingsUpdatedInvalidatesCache(t *testing.T) {
	store := openStore(t)

	assert.NoError(t, store.CachePut(standingsCacheKey(7), []*types.Standing{{TeamID: 1}}, time.Hour))

	h := NewStandingsUpdated(store)
	evt := envelope(t, event.TypeStandingsUpdated, map[string]any{
		"tournament_id": 7,
		"match_id":      42,
		"updated_at":    time.Now().UTC(),
	})
	assert.NoError(t, h.Handle(evt))

	var cached []*types.Standing
	found, err := store.CacheGet(standingsCacheKey(7), &cached)
	assert.NoError(t, err)
	assert.False(t, found)
}
