package truth

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Outcome labels used for winner/loser when there is no single winner.
const (
	OutcomeTie = "TIE"
	OutcomeBye = "BYE"
)

// TieEpsilon is the largest score difference still treated as a tie.
const TieEpsilon = 1e-6

// Player is one scored player on a team for the week.
type Player struct {
	ID       string  `json:"player_id"`
	Name     string  `json:"player_name"`
	Position string  `json:"position,omitempty"`
	NFLTeam  string  `json:"nfl_team,omitempty"`
	Points   float64 `json:"fantasy_points"`
	Starter  bool    `json:"is_starter"`
	// Status is starter, bench, ir, or taxi relative to the season roster.
	Status string `json:"status,omitempty"`
}

// Team is a fantasy roster and its owner.
type Team struct {
	RosterID    int      `json:"roster_id"`
	OwnerID     string   `json:"owner_id,omitempty"`
	Username    string   `json:"username,omitempty"`
	DisplayName string   `json:"display_name,omitempty"`
	TeamName    string   `json:"team_name,omitempty"`
	Points      float64  `json:"points"`
	Projected   *float64 `json:"projected_points,omitempty"`
	Players     []Player `json:"players"`
}

// Name is the label used everywhere a team is shown: team name, display
// name, username, then "Roster N".
func (t Team) Name() string {
	for _, candidate := range []string{t.TeamName, t.DisplayName, t.Username} {
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			return candidate
		}
	}
	return "Roster " + strconv.Itoa(t.RosterID)
}

// Starters returns the starting lineup.
func (t Team) Starters() []Player {
	out := make([]Player, 0, len(t.Players))
	for _, p := range t.Players {
		if p.Starter {
			out = append(out, p)
		}
	}
	return out
}

// Side is one half of a matchup.
type Side struct {
	RosterID  int      `json:"roster_id"`
	Team      string   `json:"team"`
	Points    float64  `json:"points"`
	Projected *float64 `json:"projected_points,omitempty"`
	Starters  []string `json:"starters,omitempty"`
}

// Matchup is a paired result. Byes carry a negative MatchupID and no side B.
type Matchup struct {
	MatchupID      int    `json:"matchup_id"`
	A              Side   `json:"side_a"`
	B              *Side  `json:"side_b,omitempty"`
	Winner         string `json:"winner"`
	Loser          string `json:"loser"`
	WinnerRosterID int    `json:"winner_roster_id,omitempty"`
	Tie            bool   `json:"is_tie"`
	Bye            bool   `json:"is_bye"`
}

// Opponent returns the other side for rosterID, or nil for a bye.
func (m Matchup) Opponent(rosterID int) *Side {
	switch {
	case m.B == nil:
		return nil
	case m.A.RosterID == rosterID:
		return m.B
	case m.B.RosterID == rosterID:
		a := m.A
		return &a
	}
	return nil
}

// Standing is a team's cumulative record. Ties add half a win and half a loss.
type Standing struct {
	RosterID      int     `json:"roster_id"`
	Team          string  `json:"team"`
	Wins          float64 `json:"wins"`
	Losses        float64 `json:"losses"`
	Ties          int     `json:"ties,omitempty"`
	PointsFor     float64 `json:"points_for"`
	PointsAgainst float64 `json:"points_against"`
}

// Record formats wins and losses as "W-L", keeping halves when ties occurred.
func (s Standing) Record() string {
	return formatCount(s.Wins) + "-" + formatCount(s.Losses)
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Record is the ground truth for one league week.
type Record struct {
	LeagueID   string     `json:"league_id"`
	LeagueName string     `json:"league_name,omitempty"`
	Season     int        `json:"season"`
	Week       int        `json:"week"`
	Teams      []Team     `json:"teams"`
	Matchups   []Matchup  `json:"matchups"`
	Standings  []Standing `json:"records_after_week"`
	// PriorStandings are the records entering the week.
	PriorStandings []Standing `json:"records_before_week,omitempty"`
	Issues         []string   `json:"issues,omitempty"`
	BuiltAt        time.Time  `json:"built_at"`
}

// Team looks up a team by roster id.
func (r *Record) Team(rosterID int) (Team, bool) {
	for _, t := range r.Teams {
		if t.RosterID == rosterID {
			return t, true
		}
	}
	return Team{}, false
}

// TeamByName finds a team by its display label, ignoring case.
func (r *Record) TeamByName(name string) (Team, bool) {
	name = strings.TrimSpace(name)
	for _, t := range r.Teams {
		if strings.EqualFold(t.Name(), name) {
			return t, true
		}
	}
	return Team{}, false
}

// Standing returns the cumulative record for rosterID.
func (r *Record) Standing(rosterID int) (Standing, bool) {
	return findStanding(r.Standings, rosterID)
}

// PriorStanding returns the record entering the week for rosterID.
func (r *Record) PriorStanding(rosterID int) (Standing, bool) {
	return findStanding(r.PriorStandings, rosterID)
}

func findStanding(list []Standing, rosterID int) (Standing, bool) {
	for _, s := range list {
		if s.RosterID == rosterID {
			return s, true
		}
	}
	return Standing{}, false
}

// TeamNames lists every team label plus owner usernames and display names.
func (r *Record) TeamNames() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range r.Teams {
		for _, name := range []string{t.Name(), t.TeamName, t.DisplayName, t.Username} {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

// AllPlayers returns every rostered player with the team label they played for.
func (r *Record) AllPlayers() []TeamPlayer {
	var out []TeamPlayer
	for _, t := range r.Teams {
		for _, p := range t.Players {
			out = append(out, TeamPlayer{Player: p, Team: t.Name(), RosterID: t.RosterID})
		}
	}
	return out
}

// TeamPlayer is a player paired with the fantasy team it belongs to.
type TeamPlayer struct {
	Player
	Team     string
	RosterID int
}

// RankedStandings orders standings by wins, then points for.
func (r *Record) RankedStandings() []Standing {
	out := append([]Standing(nil), r.Standings...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		if out[i].PointsFor != out[j].PointsFor {
			return out[i].PointsFor > out[j].PointsFor
		}
		return out[i].RosterID < out[j].RosterID
	})
	return out
}
