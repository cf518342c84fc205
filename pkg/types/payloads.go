package types

import (
	"fmt"
	"time"
)

// MatchCompletedPayload is the payload shape of match.completed events.
// Scores are pointers so that an absent field can be told apart from a
// legitimate 0-0 scoreline.
type MatchCompletedPayload struct {
	MatchID      int64        `json:"match_id"`
	TournamentID int64        `json:"tournament_id"`
	HomeTeamID   int64        `json:"home_team_id"`
	AwayTeamID   int64        `json:"away_team_id"`
	HomeScore    *int         `json:"home_score"`
	AwayScore    *int         `json:"away_score"`
	Result       MatchOutcome `json:"result"`
}

// Validate rejects payloads missing any required field. A malformed payload
// will never self-correct, so validation failures are fatal for the event.
func (p *MatchCompletedPayload) Validate() error {
	switch {
	case p.MatchID <= 0:
		return fmt.Errorf("missing or invalid match_id")
	case p.TournamentID <= 0:
		return fmt.Errorf("missing or invalid tournament_id")
	case p.HomeTeamID <= 0:
		return fmt.Errorf("missing or invalid home_team_id")
	case p.AwayTeamID <= 0:
		return fmt.Errorf("missing or invalid away_team_id")
	case p.HomeScore == nil:
		return fmt.Errorf("missing home_score")
	case p.AwayScore == nil:
		return fmt.Errorf("missing away_score")
	case !p.Result.Valid():
		return fmt.Errorf("missing or invalid result: %q", p.Result)
	}
	return nil
}

// TournamentStatusPayload is the payload shape of tournament.status.changed
// events
type TournamentStatusPayload struct {
	TournamentID   int64            `json:"tournament_id"`
	Name           string           `json:"name"`
	PreviousStatus TournamentStatus `json:"previous_status"`
	Status         TournamentStatus `json:"status"`
}

// Validate rejects payloads missing the tournament ID or new status
func (p *TournamentStatusPayload) Validate() error {
	if p.TournamentID <= 0 {
		return fmt.Errorf("missing or invalid tournament_id")
	}
	if p.Status == "" {
		return fmt.Errorf("missing status")
	}
	return nil
}

// TournamentCreatedPayload is the payload shape of tournament.created and
// tournament.updated events
type TournamentCreatedPayload struct {
	TournamentID int64            `json:"tournament_id"`
	Name         string           `json:"name"`
	Status       TournamentStatus `json:"status"`
}

// TeamCreatedPayload is the payload shape of team.created and team.updated
// events
type TeamCreatedPayload struct {
	TeamID       int64  `json:"team_id"`
	TournamentID int64  `json:"tournament_id"`
	Name         string `json:"name"`
}

// StandingsUpdatedPayload is the payload shape of the follow-on
// standings.updated event published after a standings recompute
type StandingsUpdatedPayload struct {
	TournamentID int64     `json:"tournament_id"`
	MatchID      int64     `json:"match_id,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}
