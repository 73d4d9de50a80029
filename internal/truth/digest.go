package truth

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatPoints renders a score with at most two decimals and no trailing zeros.
func FormatPoints(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// Label returns "A vs B", or "A (bye)" for a bye.
func (m Matchup) Label() string {
	if m.B == nil {
		return m.A.Team + " (bye)"
	}
	return m.A.Team + " vs " + m.B.Team
}

// Header renders the canonical matchup header used in articles:
// "A vs B: 145.2–132.8 (2-0, 285.4 PF, 210.6 PA vs 1-1, 265.3 PF, 245.2 PA)".
func (r *Record) Header(m Matchup) string {
	if m.B == nil {
		return fmt.Sprintf("%s: %s (bye) (%s)", m.A.Team, FormatPoints(m.A.Points), r.recordSummary(m.A.RosterID))
	}
	return fmt.Sprintf("%s vs %s: %s–%s (%s vs %s)",
		m.A.Team, m.B.Team,
		FormatPoints(m.A.Points), FormatPoints(m.B.Points),
		r.recordSummary(m.A.RosterID), r.recordSummary(m.B.RosterID))
}

func (r *Record) recordSummary(rosterID int) string {
	s, ok := r.Standing(rosterID)
	if !ok {
		return "record unknown"
	}
	return fmt.Sprintf("%s, %s PF, %s PA", s.Record(), FormatPoints(s.PointsFor), FormatPoints(s.PointsAgainst))
}

// Headers returns Header for every matchup in order.
func (r *Record) Headers() []string {
	out := make([]string, 0, len(r.Matchups))
	for _, m := range r.Matchups {
		out = append(out, r.Header(m))
	}
	return out
}

// Labels returns Label for every matchup in order.
func (r *Record) Labels() []string {
	out := make([]string, 0, len(r.Matchups))
	for _, m := range r.Matchups {
		out = append(out, m.Label())
	}
	return out
}

// TeamLabels returns every team's display label in roster order.
func (r *Record) TeamLabels() []string {
	out := make([]string, 0, len(r.Teams))
	for _, t := range r.Teams {
		out = append(out, t.Name())
	}
	return out
}

type digestPlayer struct {
	Name     string  `json:"name"`
	Position string  `json:"position,omitempty"`
	NFLTeam  string  `json:"nfl_team,omitempty"`
	Points   float64 `json:"points"`
	Starter  bool    `json:"starter"`
}

type digestTeam struct {
	Team          string         `json:"team"`
	Owner         string         `json:"owner,omitempty"`
	Record        string         `json:"record"`
	PointsFor     float64        `json:"points_for"`
	PointsAgainst float64        `json:"points_against"`
	Players       []digestPlayer `json:"players"`
}

type digestMatchup struct {
	Header string `json:"header"`
	Winner string `json:"winner"`
	Loser  string `json:"loser"`
}

type digest struct {
	League   string          `json:"league,omitempty"`
	Season   int             `json:"season"`
	Week     int             `json:"week"`
	Matchups []digestMatchup `json:"matchups"`
	Teams    []digestTeam    `json:"teams"`
}

// PromptJSON renders a compact view of the record for model prompts:
// matchup headers, standings, and each team's scored players.
func (r *Record) PromptJSON() (string, error) {
	d := digest{League: r.LeagueName, Season: r.Season, Week: r.Week}
	for _, m := range r.Matchups {
		d.Matchups = append(d.Matchups, digestMatchup{Header: r.Header(m), Winner: m.Winner, Loser: m.Loser})
	}
	for _, t := range r.Teams {
		dt := digestTeam{Team: t.Name()}
		if owner := strings.TrimSpace(t.Username); owner != "" && owner != dt.Team {
			dt.Owner = owner
		}
		if s, ok := r.Standing(t.RosterID); ok {
			dt.Record = s.Record()
			dt.PointsFor = s.PointsFor
			dt.PointsAgainst = s.PointsAgainst
		}
		for _, p := range t.Players {
			dt.Players = append(dt.Players, digestPlayer{
				Name:     p.Name,
				Position: p.Position,
				NFLTeam:  p.NFLTeam,
				Points:   p.Points,
				Starter:  p.Starter,
			})
		}
		d.Teams = append(d.Teams, dt)
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal truth digest: %w", err)
	}
	return string(data), nil
}
