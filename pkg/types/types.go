package types

import (
	"time"
)

// Priority selects which physical work queue a dispatched event lands in
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// ParsePriority maps a priority string to a known Priority, defaulting
// unknown values to normal
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityHigh, PriorityNormal, PriorityLow:
		return Priority(s)
	default:
		return PriorityNormal
	}
}

// MatchOutcome is the declared result of a completed match
type MatchOutcome string

const (
	OutcomeHomeWin MatchOutcome = "home_win"
	OutcomeAwayWin MatchOutcome = "away_win"
	OutcomeDraw    MatchOutcome = "draw"
)

// Valid reports whether the outcome is one of the three known values
func (o MatchOutcome) Valid() bool {
	return o == OutcomeHomeWin || o == OutcomeAwayWin || o == OutcomeDraw
}

// MatchResult is the durable record of a completed match's score.
// One row per match, keyed by MatchID; re-applying the same event upserts
// the same final state.
type MatchResult struct {
	MatchID      int64        `json:"match_id"`
	TournamentID int64        `json:"tournament_id"`
	HomeTeamID   int64        `json:"home_team_id"`
	AwayTeamID   int64        `json:"away_team_id"`
	HomeScore    int          `json:"home_score"`
	AwayScore    int          `json:"away_score"`
	Result       MatchOutcome `json:"result"`
	CompletedAt  time.Time    `json:"completed_at"`
}

// Standing is the derived ranking row for one team in one tournament.
// Standings are never the source of truth; they are recomputable from the
// set of completed MatchResults for the tournament.
type Standing struct {
	TournamentID int64 `json:"tournament_id"`
	TeamID       int64 `json:"team_id"`
	Played       int   `json:"played"`
	Won          int   `json:"won"`
	Drawn        int   `json:"drawn"`
	Lost         int   `json:"lost"`
	GoalsFor     int   `json:"goals_for"`
	GoalsAgainst int   `json:"goals_against"`
	Points       int   `json:"points"`
	Position     int   `json:"position"`
}

// GoalDifference returns goals scored minus goals conceded
func (s *Standing) GoalDifference() int {
	return s.GoalsFor - s.GoalsAgainst
}

// ProcessedEvent is one row of the processed-event ledger. Presence of a
// row means no side effect of that event may be applied again by this
// service.
type ProcessedEvent struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	ProcessedAt time.Time `json:"processed_at"`
}

// TournamentStatus mirrors the producing service's tournament lifecycle
type TournamentStatus string

const (
	TournamentUpcoming  TournamentStatus = "upcoming"
	TournamentActive    TournamentStatus = "active"
	TournamentCompleted TournamentStatus = "completed"
)

// TournamentSnapshot is the locally cached view of a tournament owned by
// another service
type TournamentSnapshot struct {
	ID        int64            `json:"id"`
	Name      string           `json:"name"`
	Status    TournamentStatus `json:"status"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// TeamSnapshot is the locally cached view of a team owned by another service
type TeamSnapshot struct {
	ID           int64     `json:"id"`
	TournamentID int64     `json:"tournament_id"`
	Name         string    `json:"name"`
	Locked       bool      `json:"locked"`
	UpdatedAt    time.Time `json:"updated_at"`
}
