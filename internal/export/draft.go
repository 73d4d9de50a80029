package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"sleeperrecap/internal/sleeper"
)

// DraftColumns is the header of the draft board export.
var DraftColumns = []string{
	"draft_id", "pick_number", "round", "draft_slot",
	"user_id", "username", "team_name", "roster_id",
	"player_id", "player_name", "position", "nfl_team", "is_keeper", "timestamp_utc",
}

// DraftFileName returns the draft export file name.
func DraftFileName(leagueID, draftID string) string {
	return fmt.Sprintf("draft_%s_%s.csv", leagueID, draftID)
}

// DraftRows returns one row per pick in pick order. Unknown players keep
// their id and a placeholder name; unknown drafters are labeled "Unknown".
func DraftRows(draft sleeper.Draft, picks []sleeper.DraftPick, users []sleeper.User, players map[string]sleeper.Player) [][]string {
	byUser := make(map[string]sleeper.User, len(users))
	for _, u := range users {
		byUser[u.UserID] = u
	}
	rows := make([][]string, 0, len(picks))
	for _, pick := range picks {
		username, team := "Unknown", "Unknown"
		if u, ok := byUser[pick.PickedBy]; ok {
			username = u.ResolvedUsername()
			team = u.ResolvedTeamName()
			if team == "" {
				team = username
			}
		}
		name, position, nflTeam := "", "N/A", "N/A"
		if pick.PlayerID != "" {
			name = sleeper.PlaceholderName(pick.PlayerID)
			if p, ok := players[pick.PlayerID]; ok {
				name, position, nflTeam = p.Name(), orNA(p.Position), orNA(p.Team)
			}
		}
		keeper := ""
		if pick.IsKeeper != nil {
			keeper = strconv.FormatBool(*pick.IsKeeper)
		}
		stamp := ""
		if at := pick.PickedAt(); !at.IsZero() {
			stamp = at.Format(time.RFC3339)
		}
		rows = append(rows, []string{
			draft.DraftID, strconv.Itoa(pick.PickNo), strconv.Itoa(pick.Round), strconv.Itoa(pick.DraftSlot),
			pick.PickedBy, username, team, strconv.Itoa(pick.RosterID),
			pick.PlayerID, name, position, nflTeam, keeper, stamp,
		})
	}
	return rows
}

// WriteDraftCSV writes the draft board.
func WriteDraftCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(DraftColumns); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
