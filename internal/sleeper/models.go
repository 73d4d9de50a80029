package sleeper

import (
	"fmt"
	"strings"
)

// League is the subset of league metadata the recap uses.
type League struct {
	LeagueID     string         `json:"league_id"`
	Name         string         `json:"name"`
	Season       string         `json:"season"`
	Status       string         `json:"status"`
	TotalRosters int            `json:"total_rosters"`
	Settings     map[string]any `json:"settings"`
}

// User is a league member.
type User struct {
	UserID      string            `json:"user_id"`
	Username    string            `json:"username"`
	DisplayName string            `json:"display_name"`
	TeamName    string            `json:"team_name"`
	Metadata    map[string]string `json:"metadata"`
}

// ResolvedTeamName returns the custom team name from metadata when present.
func (u User) ResolvedTeamName() string {
	if name := strings.TrimSpace(u.Metadata["team_name"]); name != "" {
		return name
	}
	return strings.TrimSpace(u.TeamName)
}

// ResolvedUsername falls back to the display name, then a short id label.
func (u User) ResolvedUsername() string {
	if name := strings.TrimSpace(u.Username); name != "" {
		return name
	}
	if name := strings.TrimSpace(u.DisplayName); name != "" {
		return name
	}
	id := u.UserID
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return "User_" + id
}

// Roster ties a roster slot to its owner and players.
type Roster struct {
	RosterID int      `json:"roster_id"`
	OwnerID  string   `json:"owner_id"`
	Players  []string `json:"players"`
	Starters []string `json:"starters"`
	Reserve  []string `json:"reserve"`
	Taxi     []string `json:"taxi"`
}

// PlayerStatus classifies a player on this roster as starter, bench, IR, or taxi.
func (r Roster) PlayerStatus(playerID string) string {
	switch {
	case contains(r.Starters, playerID):
		return "starter"
	case contains(r.Reserve, playerID):
		return "ir"
	case contains(r.Taxi, playerID):
		return "taxi"
	case contains(r.Players, playerID):
		return "bench"
	default:
		return ""
	}
}

// Matchup is one roster's entry for a week. Entries sharing a MatchupID are
// opponents; a nil MatchupID is a bye.
type Matchup struct {
	RosterID       int                `json:"roster_id"`
	MatchupID      *int               `json:"matchup_id"`
	Points         *float64           `json:"points"`
	CustomPoints   *float64           `json:"custom_points"`
	Players        []string           `json:"players"`
	PlayersPoints  map[string]float64 `json:"players_points"`
	Starters       []string           `json:"starters"`
	StartersPoints []float64          `json:"starters_points"`
}

// ActualPoints returns the scored total, zero when absent.
func (m Matchup) ActualPoints() float64 {
	if m.Points == nil {
		return 0
	}
	return *m.Points
}

// ProjectedPoints returns the projection when the league provides one.
func (m Matchup) ProjectedPoints() (float64, bool) {
	if m.CustomPoints == nil {
		return 0, false
	}
	return *m.CustomPoints, true
}

// StarterIDs returns starters with empty placeholder slots removed.
func (m Matchup) StarterIDs() []string {
	out := make([]string, 0, len(m.Starters))
	for _, id := range m.Starters {
		if id = strings.TrimSpace(id); id != "" && id != "0" {
			out = append(out, id)
		}
	}
	return out
}

// IsBye reports whether the roster had no opponent.
func (m Matchup) IsBye() bool {
	return m.MatchupID == nil
}

// Player is an entry in the NFL players database.
type Player struct {
	PlayerID          string   `json:"player_id"`
	FirstName         string   `json:"first_name"`
	LastName          string   `json:"last_name"`
	FullName          string   `json:"full_name"`
	Position          string   `json:"position"`
	Team              string   `json:"team"`
	FantasyPositions  []string `json:"fantasy_positions"`
	InjuryStatus      string   `json:"injury_status"`
	Status            string   `json:"status"`
	SearchFullName    string   `json:"search_full_name"`
	YearsExp          int      `json:"years_exp"`
	DepthChartOrder   int      `json:"depth_chart_order"`
	DepthChartPosName string   `json:"depth_chart_position"`
}

// Name returns the best available display name.
func (p Player) Name() string {
	if name := strings.TrimSpace(p.FullName); name != "" {
		return name
	}
	first := strings.TrimSpace(p.FirstName)
	last := strings.TrimSpace(p.LastName)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case last != "":
		return last
	case first != "":
		return first
	default:
		return "Unknown Player"
	}
}

// PlaceholderName labels a player id missing from the players database.
func PlaceholderName(playerID string) string {
	return fmt.Sprintf("Player %s", playerID)
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
