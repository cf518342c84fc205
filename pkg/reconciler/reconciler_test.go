package reconciler

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/openleague/matchday/pkg/log"
	"github.com/openleague/matchday/pkg/standings"
	"github.com/openleague/matchday/pkg/storage"
	"github.com/openleague/matchday/pkg/types"
)

func TestMain(m *testing.M) {
	log.Init(log.Config{Level: log.ErrorLevel, JSONOutput: true, Output: io.Discard})
	os.Exit(m.Run())
}

func seedStore(t *testing.T) *storage.BoltStore {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir())
	assert.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	assert.NoError(t, store.PutTournament(&types.TournamentSnapshot{
		ID: 7, Name: "Spring Cup", Status: types.TournamentActive,
	}))
	_, err = store.ApplyMatchResult("evt-1", "match.completed", &types.MatchResult{
		MatchID:      42,
		TournamentID: 7,
		HomeTeamID:   1,
		AwayTeamID:   2,
		HomeScore:    3,
		AwayScore:    1,
		Result:       types.OutcomeHomeWin,
		CompletedAt:  time.Now().UTC(),
	}, standings.DefaultRules)
	assert.NoError(t, err)
	return store
}

func TestReconcileSweepsAllTournaments(t *testing.T) {
	store := seedStore(t)

	r := NewReconciler(store, standings.DefaultRules, time.Minute)
	assert.NoError(t, r.reconcile())

	table, err := store.ListStandings(7)
	assert.NoError(t, err)
	assert.Len(t, table, 2)
	assert.Equal(t, int64(1), table[0].TeamID)
	assert.Equal(t, 3, table[0].Points)
}

func TestReconcileIsIdempotent(t *testing.T) {
	store := seedStore(t)

	r := NewReconciler(store, standings.DefaultRules, time.Minute)
	assert.NoError(t, r.reconcile())
	before, err := store.ListStandings(7)
	assert.NoError(t, err)

	assert.NoError(t, r.reconcile())
	after, err := store.ListStandings(7)
	assert.NoError(t, err)

	assert.Equal(t, len(before), len(after))
	for i := range before {
		assert.Equal(t, *before[i], *after[i])
	}
}

func TestStartStop(t *testing.T) {
	store := seedStore(t)

	r := NewReconciler(store, standings.DefaultRules, 5*time.Millisecond)
	r.Start()

	// Let at least one cycle run
	time.Sleep(25 * time.Millisecond)
	r.Stop()

	table, err := store.ListStandings(7)
	assert.NoError(t, err)
	assert.Len(t, table, 2)
}
