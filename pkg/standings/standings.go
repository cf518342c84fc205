package standings

import (
	"sort"

	"github.com/openleague/matchday/pkg/types"
)

// Rules holds the points awarded per match outcome
type Rules struct {
	WinPoints  int
	DrawPoints int
	LossPoints int
}

// DefaultRules is the typical 3-1-0 scoring scheme
var DefaultRules = Rules{WinPoints: 3, DrawPoints: 1, LossPoints: 0}

// Apply folds one completed match into the two teams' standing rows.
// Points and positions are not touched here; call Rank afterwards.
func Apply(home, away *types.Standing, r *types.MatchResult) {
	home.Played++
	away.Played++
	home.GoalsFor += r.HomeScore
	home.GoalsAgainst += r.AwayScore
	away.GoalsFor += r.AwayScore
	away.GoalsAgainst += r.HomeScore

	switch r.Result {
	case types.OutcomeHomeWin:
		home.Won++
		away.Lost++
	case types.OutcomeAwayWin:
		away.Won++
		home.Lost++
	case types.OutcomeDraw:
		home.Drawn++
		away.Drawn++
	}
}

// Score recomputes a standing's points from its win/draw/loss counts
func Score(s *types.Standing, rules Rules) {
	s.Points = s.Won*rules.WinPoints + s.Drawn*rules.DrawPoints + s.Lost*rules.LossPoints
}

// Rank orders the table by (points desc, goal difference desc, goals for
// desc) and assigns 1-based positions. Remaining ties break on team ID
// ascending so the ordering is reproducible.
func Rank(table []*types.Standing) {
	sort.SliceStable(table, func(i, j int) bool {
		a, b := table[i], table[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference() != b.GoalDifference() {
			return a.GoalDifference() > b.GoalDifference()
		}
		if a.GoalsFor != b.GoalsFor {
			return a.GoalsFor > b.GoalsFor
		}
		return a.TeamID < b.TeamID
	})

	for i, s := range table {
		s.Position = i + 1
	}
}

// Compute rebuilds the full standings table for one tournament from its set
// of completed match results. The result is independent of input order, so
// the recompute is safe to re-run any number of times.
func Compute(results []*types.MatchResult, rules Rules) []*types.Standing {
	byTeam := make(map[int64]*types.Standing)

	row := func(tournamentID, teamID int64) *types.Standing {
		s, ok := byTeam[teamID]
		if !ok {
			s = &types.Standing{TournamentID: tournamentID, TeamID: teamID}
			byTeam[teamID] = s
		}
		return s
	}

	for _, r := range results {
		home := row(r.TournamentID, r.HomeTeamID)
		away := row(r.TournamentID, r.AwayTeamID)
		Apply(home, away, r)
	}

	table := make([]*types.Standing, 0, len(byTeam))
	for _, s := range byTeam {
		Score(s, rules)
		table = append(table, s)
	}

	Rank(table)
	return table
}
