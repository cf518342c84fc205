package storage

import (
	"time"

	"github.com/openleague/matchday/pkg/standings"
	"github.com/openleague/matchday/pkg/types"
)

// Store defines the interface for the event core's durable state: match
// results, derived standings, the processed-event ledger and local
// read-through caches
type Store interface {
	// Match results
	GetMatchResult(matchID int64) (*types.MatchResult, error)
	ListMatchResults(tournamentID int64) ([]*types.MatchResult, error)

	// ApplyMatchResult runs the full match-completion side effect in one
	// transaction: ledger check, result upsert, standings rebuild, ledger
	// insert. Returns false with no error when the event was already
	// processed.
	ApplyMatchResult(eventID, eventType string, result *types.MatchResult, rules standings.Rules) (bool, error)

	// Standings
	ListStandings(tournamentID int64) ([]*types.Standing, error)
	RecomputeStandings(tournamentID int64, rules standings.Rules) error

	// Processed-event ledger
	IsProcessed(eventID string) (bool, error)
	MarkProcessed(eventID, eventType string) error

	// Tournament and team snapshots
	PutTournament(t *types.TournamentSnapshot) error
	GetTournament(id int64) (*types.TournamentSnapshot, error)
	ListTournaments() ([]*types.TournamentSnapshot, error)
	PutTeam(t *types.TeamSnapshot) error
	GetTeam(id int64) (*types.TeamSnapshot, error)
	ListTeamsByTournament(tournamentID int64) ([]*types.TeamSnapshot, error)
	SetTeamsLocked(tournamentID int64, locked bool) (int, error)

	// TTL cache
	CachePut(key string, v any, ttl time.Duration) error
	CacheGet(key string, v any) (bool, error)
	CacheDelete(key string) error

	// Utility
	Ping() error
	Close() error
}
