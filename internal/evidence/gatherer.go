package evidence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"sleeperrecap/internal/logging"
	"sleeperrecap/internal/prompts"
	"sleeperrecap/internal/services"
	"sleeperrecap/internal/services/llm"
	"sleeperrecap/internal/truth"
)

const (
	researchTemperature = 0.1
	researchMaxTokens   = 4000
)

// Runner executes a request against an ordered provider chain.
type Runner interface {
	Run(ctx context.Context, req llm.Request) (llm.Response, error)
}

// Gatherer runs the research step.
type Gatherer struct {
	runner Runner
	logger *slog.Logger
	now    func() time.Time
}

// NewGatherer returns a gatherer backed by runner. A nil runner makes every
// Gather call report research as unavailable.
func NewGatherer(runner Runner, logger *slog.Logger) *Gatherer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Gatherer{
		runner: runner,
		logger: logging.NewComponentLogger(logger, "evidence"),
		now:    time.Now,
	}
}

// Gather researches the week's key players. On exhaustion of every provider
// attempt it returns services.ErrResearchUnavailable.
func (g *Gatherer) Gather(ctx context.Context, record *truth.Record) (*Record, error) {
	if record == nil {
		return nil, services.Wrap(services.ErrValidation, "evidence", "gather", "Truth record is required", nil)
	}
	logger := logging.WithContext(ctx, g.logger)
	if g.runner == nil {
		return nil, services.Wrap(services.ErrResearchUnavailable, "evidence", "gather", "No research provider configured", nil)
	}

	players := SelectKeyPlayers(record)
	logger.Info("selected key players", logging.Int("player_count", len(players)))

	input := prompts.ResearchInput{Season: record.Season, Week: record.Week}
	for _, p := range players {
		input.Players = append(input.Players, prompts.ResearchPlayer{
			Name:     p.Name,
			Team:     p.Team,
			Position: p.Position,
			NFLTeam:  p.NFLTeam,
			Points:   p.Points,
			Starter:  p.Starter,
		})
	}
	user, err := prompts.Research(input)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "evidence", "render prompt", "Could not render research prompt", err)
	}

	resp, err := g.runner.Run(ctx, llm.Request{
		System:      prompts.ResearchSystem,
		User:        user,
		JSON:        true,
		Temperature: llm.Float(researchTemperature),
		MaxTokens:   researchMaxTokens,
		Validate:    validateResearch,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrResearchUnavailable, "evidence", "research", "All research attempts failed", err)
	}

	var out Record
	if err := llm.DecodeJSON(resp.Content, &out); err != nil {
		return nil, services.Wrap(services.ErrResearchUnavailable, "evidence", "decode", "Research response was not valid evidence", err)
	}
	out.normalize()
	out.MergeURLs(resp.Citations)
	out.Source = resp.Provider + ":" + resp.Model
	out.GatheredAt = g.now().UTC()

	logger.Info("research complete",
		logging.Int("findings", len(out.Findings)),
		logging.Int("citations", len(out.Citations)),
		logging.String(logging.FieldProvider, resp.Provider),
		logging.String(logging.FieldModel, resp.Model))
	return &out, nil
}

// validateResearch rejects responses that are not a research object with a
// player_evidence list, so the chain retries them.
func validateResearch(content string) error {
	var shape struct {
		Findings *[]Finding `json:"player_evidence"`
	}
	if err := llm.DecodeJSON(content, &shape); err != nil {
		return err
	}
	if shape.Findings == nil {
		return errors.New("research response missing player_evidence")
	}
	return nil
}

// Degraded builds evidence from league data only. Stat lines beyond fantasy
// points are rough position-based estimates and carry no citations.
func Degraded(record *truth.Record, now time.Time) *Record {
	out := &Record{
		Findings:   []Finding{},
		Citations:  []Citation{},
		Degraded:   true,
		Source:     SourceAPIData,
		GatheredAt: now.UTC(),
	}
	if record == nil {
		return out
	}
	for _, p := range SelectKeyPlayers(record) {
		starter := p.Starter
		position := p.Position
		if position == "" {
			position = "Player"
		}
		out.Findings = append(out.Findings, Finding{
			Player:    p.Name,
			Team:      p.Team,
			Starter:   &starter,
			WeekStats: estimateStats(p.Position, p.Points),
			Notes:     fmt.Sprintf("%s for %s - %s fantasy points", position, p.Team, strconv.FormatFloat(p.Points, 'f', -1, 64)),
		})
	}
	return out
}

func estimateStats(position string, points float64) Stats {
	stats := Stats{"fantasy_points": points}
	switch {
	case position == "QB" && points > 5:
		stats["passing_yards"] = math.Round(points * 8)
		stats["passing_touchdowns"] = math.Floor(points / 6)
	case position == "RB" && points > 3:
		stats["rushing_yards"] = math.Round(points * 4)
		stats["rushing_touchdowns"] = math.Floor(points / 8)
	case (position == "WR" || position == "TE") && points > 3:
		stats["receiving_yards"] = math.Round(points * 5)
		stats["receptions"] = math.Max(1, math.Floor(points/2))
	}
	return stats
}
