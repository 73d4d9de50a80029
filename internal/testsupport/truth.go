package testsupport

import (
	"time"

	"sleeperrecap/internal/truth"
)

// SampleTruth returns a two-team week: Alpha Dogs beat Bravo Bunch
// 120.5–99.25 in week 3 of 2024.
func SampleTruth() *truth.Record {
	projectedA, projectedB := 110.0, 105.5
	return &truth.Record{
		LeagueID:   "42",
		LeagueName: "Dynasty Bros",
		Season:     2024,
		Week:       3,
		Teams: []truth.Team{
			{
				RosterID:    1,
				OwnerID:     "u1",
				Username:    "alice1",
				DisplayName: "alice",
				TeamName:    "Alpha Dogs",
				Points:      120.5,
				Projected:   &projectedA,
				Players: []truth.Player{
					{ID: "4984", Name: "Josh Allen", Position: "QB", NFLTeam: "BUF", Points: 31.2, Starter: true, Status: "starter"},
					{ID: "6819", Name: "Michael Pittman Jr.", Position: "WR", NFLTeam: "IND", Points: 12.4, Starter: true, Status: "starter"},
					{ID: "7547", Name: "Amon-Ra St. Brown", Position: "WR", NFLTeam: "DET", Points: 22, Starter: true, Status: "starter"},
					{ID: "9999", Name: "Zach Ertz", Position: "TE", NFLTeam: "WAS", Points: 1.2, Status: "bench"},
				},
			},
			{
				RosterID:    2,
				OwnerID:     "u2",
				Username:    "bob",
				DisplayName: "Bob",
				TeamName:    "Bravo Bunch",
				Points:      99.25,
				Projected:   &projectedB,
				Players: []truth.Player{
					{ID: "6794", Name: "Justin Jefferson", Position: "WR", NFLTeam: "MIN", Points: 25.5, Starter: true, Status: "starter"},
					{ID: "8151", Name: "Kenneth Walker III", Position: "RB", NFLTeam: "SEA", Points: 14.1, Starter: true, Status: "starter"},
				},
			},
		},
		Matchups: []truth.Matchup{{
			MatchupID:      1,
			A:              truth.Side{RosterID: 1, Team: "Alpha Dogs", Points: 120.5, Projected: &projectedA, Starters: []string{"4984", "6819", "7547"}},
			B:              &truth.Side{RosterID: 2, Team: "Bravo Bunch", Points: 99.25, Projected: &projectedB, Starters: []string{"6794", "8151"}},
			Winner:         "Alpha Dogs",
			Loser:          "Bravo Bunch",
			WinnerRosterID: 1,
		}},
		Standings: []truth.Standing{
			{RosterID: 1, Team: "Alpha Dogs", Wins: 3, PointsFor: 350.5, PointsAgainst: 300},
			{RosterID: 2, Team: "Bravo Bunch", Wins: 1, Losses: 2, PointsFor: 310.25, PointsAgainst: 330.5},
		},
		PriorStandings: []truth.Standing{
			{RosterID: 1, Team: "Alpha Dogs", Wins: 2, PointsFor: 230, PointsAgainst: 200.75},
			{RosterID: 2, Team: "Bravo Bunch", Wins: 1, Losses: 1, PointsFor: 211, PointsAgainst: 210},
		},
		BuiltAt: time.Date(2024, 9, 24, 12, 0, 0, 0, time.UTC),
	}
}

// CleanArticle is a recap of SampleTruth that passes the core audit checks.
const CleanArticle = `Alpha Dogs kept rolling in Week 3.

## Alpha Dogs vs Bravo Bunch: 120.5–99.25

Josh Allen threw for 31.2 points as Alpha Dogs rolled. Mike Pittman chipped in 12.4 points and J. Jefferson posted 25.5 points for Bravo Bunch. Amon-Ra St. Brown added 22 points.

**Power Rankings**

1. Alpha Dogs: still perfect.
2. Bravo Bunch: need more from Kenneth Walker III.
`

// UnboundArticle names a player who is on no roster.
const UnboundArticle = CleanArticle + "\nPatrick Mahomes watched from the couch.\n"
