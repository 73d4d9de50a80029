package evidence

import "sleeperrecap/internal/truth"

const (
	maxKeyPlayersPerTeam = 2
	highImpactPoints     = 15.0
	overperformRatio     = 1.5
	overperformMinPoints = 8.0
	underperformRatio    = 0.5
	underperformBaseline = 10.0
	defaultBaseline      = 8.0
)

// Baseline is the typical weekly output expected from a player at position,
// split by lineup role.
func Baseline(position string, starter bool) float64 {
	type pair struct{ starter, bench float64 }
	table := map[string]pair{
		"QB":  {18, 12},
		"RB":  {12, 6},
		"WR":  {10, 5},
		"TE":  {8, 4},
		"K":   {8, 8},
		"DEF": {8, 8},
	}
	p, ok := table[position]
	if !ok {
		return defaultBaseline
	}
	if starter {
		return p.starter
	}
	return p.bench
}

// KeyPlayers picks at most two storyline players for a team: the top high
// scorer, the biggest overperformer, then the worst underperformer if room
// remains. Teams with no storyline fall back to their top scorer.
func KeyPlayers(team truth.Team) []truth.Player {
	if len(team.Players) == 0 {
		return nil
	}

	var (
		highImpact    *truth.Player
		over, under   *truth.Player
		overR, underR float64
	)
	for i := range team.Players {
		p := &team.Players[i]
		if p.Points >= highImpactPoints && (highImpact == nil || p.Points > highImpact.Points) {
			highImpact = p
		}
		baseline := Baseline(p.Position, p.Starter)
		if baseline <= 0 {
			continue
		}
		ratio := p.Points / baseline
		switch {
		case ratio >= overperformRatio && p.Points >= overperformMinPoints:
			if over == nil || ratio > overR {
				over, overR = p, ratio
			}
		case ratio < underperformRatio && (p.Starter || baseline >= underperformBaseline):
			if under == nil || ratio < underR {
				under, underR = p, ratio
			}
		}
	}

	var picked []truth.Player
	add := func(p *truth.Player) {
		if p == nil || len(picked) >= maxKeyPlayersPerTeam {
			return
		}
		for _, existing := range picked {
			if existing.ID == p.ID {
				return
			}
		}
		picked = append(picked, *p)
	}
	add(highImpact)
	add(over)
	add(under)

	if len(picked) == 0 {
		best := &team.Players[0]
		for i := range team.Players {
			if team.Players[i].Points > best.Points {
				best = &team.Players[i]
			}
		}
		picked = append(picked, *best)
	}
	return picked
}

// KeyPlayer is a selected player with the team label it played for.
type KeyPlayer struct {
	truth.Player
	Team string
}

// SelectKeyPlayers runs KeyPlayers over every team in roster order.
func SelectKeyPlayers(record *truth.Record) []KeyPlayer {
	var out []KeyPlayer
	for _, team := range record.Teams {
		for _, p := range KeyPlayers(team) {
			out = append(out, KeyPlayer{Player: p, Team: team.Name()})
		}
	}
	return out
}
