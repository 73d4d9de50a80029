package truth

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"sleeperrecap/internal/logging"
	"sleeperrecap/internal/services"
	"sleeperrecap/internal/sleeper"
)

// MaxWeek is the last regular-season or playoff week the API serves.
const MaxWeek = 18

// Source is the subset of the Sleeper client the builder needs.
type Source interface {
	League(ctx context.Context, leagueID string) (sleeper.League, error)
	Users(ctx context.Context, leagueID string) ([]sleeper.User, error)
	Rosters(ctx context.Context, leagueID string) ([]sleeper.Roster, error)
	Matchups(ctx context.Context, leagueID string, week int) ([]sleeper.Matchup, error)
}

// PlayerLookup resolves player ids to names and positions.
type PlayerLookup interface {
	Players(ctx context.Context) (map[string]sleeper.Player, error)
}

// Builder assembles Records.
type Builder struct {
	source  Source
	players PlayerLookup
	logger  *slog.Logger
	now     func() time.Time
}

// NewBuilder returns a builder. players may be nil, in which case every
// player is labeled with a placeholder name.
func NewBuilder(source Source, players PlayerLookup, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Builder{
		source:  source,
		players: players,
		logger:  logging.NewComponentLogger(logger, "truth"),
		now:     time.Now,
	}
}

// Build fetches and assembles the record for one league week. It returns
// services.ErrDataUnavailable when the week has no matchups yet.
func (b *Builder) Build(ctx context.Context, leagueID string, season, week int) (*Record, error) {
	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return nil, services.Wrap(services.ErrConfiguration, "truth", "build", "League id is required", nil)
	}
	if week < 1 || week > MaxWeek {
		return nil, services.Wrap(services.ErrValidation, "truth", "build", fmt.Sprintf("Week must be between 1 and %d, got %d", MaxWeek, week), nil)
	}
	logger := logging.WithContext(ctx, b.logger)

	weekEntries, err := b.source.Matchups(ctx, leagueID, week)
	if err != nil {
		return nil, services.Wrap(services.ErrDataUnavailable, "truth", "fetch matchups", fmt.Sprintf("Could not fetch week %d matchups", week), err)
	}
	if len(weekEntries) == 0 {
		return nil, services.Wrap(services.ErrDataUnavailable, "truth", "fetch matchups", fmt.Sprintf("No matchups reported for week %d; games may not have been played yet", week), nil)
	}

	leagueName := ""
	if league, err := b.source.League(ctx, leagueID); err != nil {
		logging.WarnWithContext(logger, "league metadata unavailable", "truth_league_missing",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "verify the league id"),
			logging.String(logging.FieldImpact, "recap omits the league name"))
	} else {
		leagueName = league.Name
	}

	users, err := b.source.Users(ctx, leagueID)
	if err != nil {
		return nil, services.Wrap(services.ErrDataUnavailable, "truth", "fetch users", "Could not fetch league users", err)
	}
	rosters, err := b.source.Rosters(ctx, leagueID)
	if err != nil {
		return nil, services.Wrap(services.ErrDataUnavailable, "truth", "fetch rosters", "Could not fetch league rosters", err)
	}
	directory := newDirectory(users, rosters)
	playerDB := b.loadPlayers(ctx, logger)

	teams := buildTeams(weekEntries, directory, playerDB)
	matchups := pairMatchups(weekEntries, directory)

	tally := newStandingsTally(teams)
	var prior []Standing
	for w := 1; w <= week; w++ {
		entries := weekEntries
		if w != week {
			entries, err = b.source.Matchups(ctx, leagueID, w)
			if err != nil {
				return nil, services.Wrap(services.ErrDataUnavailable, "truth", "fetch history", fmt.Sprintf("Could not fetch week %d matchups", w), err)
			}
		}
		if w == week {
			prior = tally.snapshot()
		}
		tally.apply(pairMatchups(entries, directory))
	}
	standings := tally.snapshot()

	record := &Record{
		LeagueID:       leagueID,
		LeagueName:     leagueName,
		Season:         season,
		Week:           week,
		Teams:          teams,
		Matchups:       matchups,
		Standings:      standings,
		PriorStandings: prior,
		BuiltAt:        b.now().UTC(),
	}
	record.Issues = validate(record)

	logger.Info("truth built",
		logging.Int("teams", len(teams)),
		logging.Int("matchups", len(matchups)),
		logging.Int("issues", len(record.Issues)))
	for _, issue := range record.Issues {
		logging.WarnWithContext(logger, "truth issue", "truth_issue",
			logging.String("issue", issue),
			logging.String(logging.FieldErrorHint, "inspect truth.json for the affected week"),
			logging.String(logging.FieldImpact, "recap may omit or mislabel teams"))
	}
	return record, nil
}

func (b *Builder) loadPlayers(ctx context.Context, logger *slog.Logger) map[string]sleeper.Player {
	if b.players == nil {
		return nil
	}
	players, err := b.players.Players(ctx)
	if err != nil {
		logging.WarnWithContext(logger, "players database unavailable", "truth_players_missing",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "retry later or check cache_dir"),
			logging.String(logging.FieldImpact, "players are labeled by id"))
		return nil
	}
	return players
}

func validate(r *Record) []string {
	var issues []string
	if len(r.Teams) == 0 {
		issues = append(issues, "No team roster data found")
	}
	if len(r.Matchups) == 0 {
		issues = append(issues, "No matchup data found")
	}
	if len(r.Standings) != len(r.Teams) {
		issues = append(issues, "Record count mismatch with team count")
	}
	return issues
}

type owner struct {
	userID string
	user   sleeper.User
	roster sleeper.Roster
}

type directory map[int]owner

func newDirectory(users []sleeper.User, rosters []sleeper.Roster) directory {
	byID := make(map[string]sleeper.User, len(users))
	for _, u := range users {
		byID[u.UserID] = u
	}
	dir := make(directory, len(rosters))
	for _, r := range rosters {
		dir[r.RosterID] = owner{userID: r.OwnerID, user: byID[r.OwnerID], roster: r}
	}
	return dir
}

func (d directory) team(rosterID int) Team {
	o := d[rosterID]
	return Team{
		RosterID:    rosterID,
		OwnerID:     o.userID,
		Username:    strings.TrimSpace(o.user.Username),
		DisplayName: strings.TrimSpace(o.user.DisplayName),
		TeamName:    o.user.ResolvedTeamName(),
	}
}

func buildTeams(entries []sleeper.Matchup, dir directory, playerDB map[string]sleeper.Player) []Team {
	seen := make(map[int]struct{})
	teams := make([]Team, 0, len(entries))
	for _, entry := range entries {
		if _, ok := seen[entry.RosterID]; ok {
			continue
		}
		seen[entry.RosterID] = struct{}{}

		team := dir.team(entry.RosterID)
		team.Points = entry.ActualPoints()
		if proj, ok := entry.ProjectedPoints(); ok {
			team.Projected = &proj
		}
		starters := make(map[string]struct{})
		for _, id := range entry.StarterIDs() {
			starters[id] = struct{}{}
		}
		roster := dir[entry.RosterID].roster
		for id, points := range entry.PlayersPoints {
			_, starter := starters[id]
			player := Player{ID: id, Name: sleeper.PlaceholderName(id), Points: points, Starter: starter}
			if info, ok := playerDB[id]; ok {
				player.Name = info.Name()
				player.Position = info.Position
				player.NFLTeam = info.Team
			}
			player.Status = weekStatus(roster, id, starter)
			team.Players = append(team.Players, player)
		}
		sort.Slice(team.Players, func(i, j int) bool {
			if team.Players[i].Starter != team.Players[j].Starter {
				return team.Players[i].Starter
			}
			if team.Players[i].Points != team.Players[j].Points {
				return team.Players[i].Points > team.Players[j].Points
			}
			return team.Players[i].ID < team.Players[j].ID
		})
		teams = append(teams, team)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].RosterID < teams[j].RosterID })
	return teams
}

// pairMatchups groups entries by matchup id. Entries without one become
// byes with descending negative ids.
func pairMatchups(entries []sleeper.Matchup, dir directory) []Matchup {
	grouped := make(map[int][]sleeper.Matchup)
	var order []int
	byeID := -1
	for _, entry := range entries {
		id := byeID
		if entry.IsBye() {
			byeID--
		} else {
			id = *entry.MatchupID
		}
		if _, ok := grouped[id]; !ok {
			order = append(order, id)
		}
		grouped[id] = append(grouped[id], entry)
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if (a < 0) != (b < 0) {
			return a > 0
		}
		if a < 0 {
			return a > b
		}
		return a < b
	})

	out := make([]Matchup, 0, len(order))
	for _, id := range order {
		group := grouped[id]
		sort.Slice(group, func(i, j int) bool { return group[i].RosterID < group[j].RosterID })
		m := Matchup{MatchupID: id, A: side(group[0], dir)}
		if len(group) > 1 {
			b := side(group[1], dir)
			m.B = &b
		}
		decide(&m)
		out = append(out, m)
	}
	return out
}

func side(entry sleeper.Matchup, dir directory) Side {
	s := Side{
		RosterID: entry.RosterID,
		Team:     dir.team(entry.RosterID).Name(),
		Points:   entry.ActualPoints(),
		Starters: entry.StarterIDs(),
	}
	if proj, ok := entry.ProjectedPoints(); ok {
		s.Projected = &proj
	}
	return s
}

func decide(m *Matchup) {
	switch {
	case m.B == nil:
		m.Bye = true
		m.Winner = m.A.Team
		m.Loser = OutcomeBye
		m.WinnerRosterID = m.A.RosterID
	case math.Abs(m.A.Points-m.B.Points) < TieEpsilon:
		m.Tie = true
		m.Winner = OutcomeTie
		m.Loser = OutcomeTie
	case m.A.Points > m.B.Points:
		m.Winner, m.Loser = m.A.Team, m.B.Team
		m.WinnerRosterID = m.A.RosterID
	default:
		m.Winner, m.Loser = m.B.Team, m.A.Team
		m.WinnerRosterID = m.B.RosterID
	}
}

type standingsTally struct {
	order []int
	rows  map[int]*Standing
}

func newStandingsTally(teams []Team) *standingsTally {
	t := &standingsTally{rows: make(map[int]*Standing, len(teams))}
	for _, team := range teams {
		t.order = append(t.order, team.RosterID)
		t.rows[team.RosterID] = &Standing{RosterID: team.RosterID, Team: team.Name()}
	}
	return t
}

// apply folds one week's results in. Rosters absent from the target week
// are ignored.
func (t *standingsTally) apply(matchups []Matchup) {
	for _, m := range matchups {
		a := t.rows[m.A.RosterID]
		if m.B == nil {
			if a != nil {
				a.PointsFor += m.A.Points
				a.Wins++
			}
			continue
		}
		b := t.rows[m.B.RosterID]
		if a != nil {
			a.PointsFor += m.A.Points
			a.PointsAgainst += m.B.Points
		}
		if b != nil {
			b.PointsFor += m.B.Points
			b.PointsAgainst += m.A.Points
		}
		switch {
		case m.Tie:
			for _, row := range []*Standing{a, b} {
				if row != nil {
					row.Wins += 0.5
					row.Losses += 0.5
					row.Ties++
				}
			}
		case m.WinnerRosterID == m.A.RosterID:
			if a != nil {
				a.Wins++
			}
			if b != nil {
				b.Losses++
			}
		default:
			if b != nil {
				b.Wins++
			}
			if a != nil {
				a.Losses++
			}
		}
	}
}

func (t *standingsTally) snapshot() []Standing {
	out := make([]Standing, 0, len(t.order))
	for _, id := range t.order {
		row := *t.rows[id]
		row.PointsFor = round2(row.PointsFor)
		row.PointsAgainst = round2(row.PointsAgainst)
		out = append(out, row)
	}
	return out
}

func weekStatus(roster sleeper.Roster, playerID string, starter bool) string {
	if starter {
		return "starter"
	}
	switch status := roster.PlayerStatus(playerID); status {
	case "ir", "taxi":
		return status
	default:
		return "bench"
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CurrentSeason returns the NFL season in progress at now, observed in loc.
// January and February still belong to the previous year's season.
func CurrentSeason(now time.Time, loc *time.Location) int {
	if loc != nil {
		now = now.In(loc)
	}
	if now.Month() <= time.February {
		return now.Year() - 1
	}
	return now.Year()
}
