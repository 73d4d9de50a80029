package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"sleeperrecap/internal/truth"
)

// Kind selects a CSV export.
type Kind string

// CSV export kinds.
const (
	KindWeek      Kind = "week"
	KindMatchups  Kind = "matchups"
	KindStandings Kind = "standings"
)

// WeekColumns is the header of the per-player week export.
var WeekColumns = []string{
	"league_id", "week", "matchup_id", "winner_roster_id", "is_tie",
	"side", "side_roster_id", "side_user_id", "side_username",
	"side_display_name", "side_team_name", "side_total_points",
	"opp_roster_id", "opp_username", "opp_total_points",
	"player_id", "player_name", "position", "nfl_team", "player_points", "player_status",
}

// MatchupColumns is the header of the matchups export.
var MatchupColumns = []string{
	"league_id", "week", "matchup_id",
	"side_a_roster_id", "side_a_username", "side_a_display_name",
	"side_a_team_name", "side_a_record_pre", "side_a_projected_points",
	"side_a_actual_points", "side_a_starters",
	"side_b_roster_id", "side_b_username", "side_b_display_name",
	"side_b_team_name", "side_b_record_pre", "side_b_projected_points",
	"side_b_actual_points", "side_b_starters",
}

// StandingsColumns is the header of the standings export.
var StandingsColumns = []string{
	"league_id", "season", "week", "rank", "roster_id", "team",
	"wins", "losses", "ties", "record", "points_for", "points_against",
}

// FileName returns the export file name for kind.
func FileName(kind Kind, record *truth.Record) string {
	switch kind {
	case KindMatchups:
		return fmt.Sprintf("matchups_%s_week%d.csv", record.LeagueID, record.Week)
	case KindStandings:
		return fmt.Sprintf("standings_%s_%d_week%d.csv", record.LeagueID, record.Season, record.Week)
	default:
		return fmt.Sprintf("week_recap_%s_week%d.csv", record.LeagueID, record.Week)
	}
}

// Path joins dir and FileName.
func Path(dir string, kind Kind, record *truth.Record) string {
	return filepath.Join(dir, FileName(kind, record))
}

// WriteCSV writes the export for kind.
func WriteCSV(w io.Writer, kind Kind, record *truth.Record) error {
	var (
		header []string
		rows   [][]string
	)
	switch kind {
	case KindWeek:
		header, rows = WeekColumns, WeekRows(record)
	case KindMatchups:
		header, rows = MatchupColumns, MatchupRows(record)
	case KindStandings:
		header, rows = StandingsColumns, StandingsRows(record)
	default:
		return fmt.Errorf("unknown export %q", kind)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

type playerRow struct {
	matchupID int
	side      string
	status    string
	position  string
	name      string
	cells     []string
}

// statusRank orders starters ahead of bench, reserve, and taxi players.
var statusRank = map[string]int{"starter": 0, "bench": 1, "ir": 2, "taxi": 3}

func rankOf(status string) int {
	if r, ok := statusRank[status]; ok {
		return r
	}
	return len(statusRank)
}

// WeekRows returns one row per rostered player, sorted by matchup, side,
// status, position, and name.
func WeekRows(record *truth.Record) [][]string {
	var rows []playerRow
	for _, m := range record.Matchups {
		rows = append(rows, sideRows(record, m, "A", m.A, m.B)...)
		if m.B != nil {
			rows = append(rows, sideRows(record, m, "B", *m.B, &m.A)...)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.matchupID != b.matchupID {
			return a.matchupID < b.matchupID
		}
		if a.side != b.side {
			return a.side < b.side
		}
		if rankOf(a.status) != rankOf(b.status) {
			return rankOf(a.status) < rankOf(b.status)
		}
		if a.position != b.position {
			return a.position < b.position
		}
		return a.name < b.name
	})
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = r.cells
	}
	return out
}

func sideRows(record *truth.Record, m truth.Matchup, label string, side truth.Side, opp *truth.Side) []playerRow {
	team, _ := record.Team(side.RosterID)
	var oppRoster, oppUsername, oppPoints string
	if opp != nil {
		oppRoster = strconv.Itoa(opp.RosterID)
		oppPoints = points(opp.Points)
		if oppTeam, ok := record.Team(opp.RosterID); ok {
			oppUsername = oppTeam.Username
		}
	}
	winner := ""
	if m.WinnerRosterID != 0 {
		winner = strconv.Itoa(m.WinnerRosterID)
	}
	rows := make([]playerRow, 0, len(team.Players))
	for _, p := range team.Players {
		status := p.Status
		if status == "" {
			status = "bench"
			if p.Starter {
				status = "starter"
			}
		}
		rows = append(rows, playerRow{
			matchupID: m.MatchupID,
			side:      label,
			status:    status,
			position:  p.Position,
			name:      p.Name,
			cells: []string{
				record.LeagueID, strconv.Itoa(record.Week), strconv.Itoa(m.MatchupID), winner, strconv.FormatBool(m.Tie),
				label, strconv.Itoa(side.RosterID), team.OwnerID, team.Username,
				team.DisplayName, team.TeamName, points(side.Points),
				oppRoster, oppUsername, oppPoints,
				p.ID, p.Name, p.Position, p.NFLTeam, points(p.Points), status,
			},
		})
	}
	return rows
}

// MatchupRows returns one row per pairing with pre-week records.
func MatchupRows(record *truth.Record) [][]string {
	matchups := append([]truth.Matchup(nil), record.Matchups...)
	sort.SliceStable(matchups, func(i, j int) bool { return matchups[i].MatchupID < matchups[j].MatchupID })

	rows := make([][]string, 0, len(matchups))
	for _, m := range matchups {
		row := []string{record.LeagueID, strconv.Itoa(record.Week), strconv.Itoa(m.MatchupID)}
		row = append(row, matchupSide(record, &m.A)...)
		row = append(row, matchupSide(record, m.B)...)
		rows = append(rows, row)
	}
	return rows
}

func matchupSide(record *truth.Record, side *truth.Side) []string {
	if side == nil {
		return make([]string, 8)
	}
	team, _ := record.Team(side.RosterID)
	pre := "0-0"
	if standing, ok := record.PriorStanding(side.RosterID); ok {
		pre = standing.Record()
	}
	projected := ""
	if side.Projected != nil {
		projected = points(*side.Projected)
	}
	return []string{
		strconv.Itoa(side.RosterID), team.Username, team.DisplayName, team.TeamName,
		pre, projected, points(side.Points), starterList(team, side.Starters),
	}
}

// starterList renders "Name (POS, NFL)" entries joined by "; ".
func starterList(team truth.Team, ids []string) string {
	byID := make(map[string]truth.Player, len(team.Players))
	for _, p := range team.Players {
		byID[p.ID] = p
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		p, ok := byID[id]
		if !ok {
			parts = append(parts, fmt.Sprintf("Unknown Player (%s) (N/A, N/A)", id))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%s, %s)", p.Name, orNA(p.Position), orNA(p.NFLTeam)))
	}
	return strings.Join(parts, "; ")
}

// StandingsRows returns the cumulative standings after the week, ranked.
func StandingsRows(record *truth.Record) [][]string {
	ranked := record.RankedStandings()
	rows := make([][]string, 0, len(ranked))
	for i, s := range ranked {
		rows = append(rows, []string{
			record.LeagueID, strconv.Itoa(record.Season), strconv.Itoa(record.Week), strconv.Itoa(i + 1),
			strconv.Itoa(s.RosterID), s.Team,
			strconv.FormatFloat(s.Wins, 'f', -1, 64), strconv.FormatFloat(s.Losses, 'f', -1, 64), strconv.Itoa(s.Ties),
			s.Record(), points(s.PointsFor), points(s.PointsAgainst),
		})
	}
	return rows
}

func points(v float64) string { return truth.FormatPoints(v) }

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
