package evidence

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"sleeperrecap/internal/services"
	"sleeperrecap/internal/services/llm"
	"sleeperrecap/internal/truth"
)

type stubRunner struct {
	resp llm.Response
	err  error
	reqs []llm.Request
}

func (s *stubRunner) Run(_ context.Context, req llm.Request) (llm.Response, error) {
	s.reqs = append(s.reqs, req)
	return s.resp, s.err
}

func sampleRecord() *truth.Record {
	return &truth.Record{
		LeagueID: "42",
		Season:   2024,
		Week:     3,
		Teams: []truth.Team{
			{
				RosterID: 1,
				TeamName: "Alpha Dogs",
				Players: []truth.Player{
					{ID: "a1", Name: "Josh Allen", Position: "QB", Points: 31.2, Starter: true},
					{ID: "a2", Name: "Puka Nacua", Position: "WR", Points: 19, Starter: true},
					{ID: "a3", Name: "Zach Ertz", Position: "TE", Points: 1.2, Starter: true},
				},
			},
			{
				RosterID: 2,
				Username: "bravo",
				Players: []truth.Player{
					{ID: "b1", Name: "Tony Pollard", Position: "RB", Points: 9, Starter: true},
					{ID: "b2", Name: "Cooper Kupp", Position: "WR", Points: 4, Starter: false},
				},
			},
		},
	}
}

func TestKeyPlayersPrefersHighImpactThenOverperformer(t *testing.T) {
	picked := KeyPlayers(sampleRecord().Teams[0])
	if len(picked) != 2 {
		t.Fatalf("expected 2 key players, got %d", len(picked))
	}
	if picked[0].ID != "a1" {
		t.Fatalf("expected top high-impact scorer first, got %s", picked[0].ID)
	}
	// Nacua at 19 against a WR baseline of 10 is the top overperformer.
	if picked[1].ID != "a2" {
		t.Fatalf("expected overperformer second, got %s", picked[1].ID)
	}
}

func TestKeyPlayersFallsBackToTopScorer(t *testing.T) {
	picked := KeyPlayers(sampleRecord().Teams[1])
	if len(picked) != 1 || picked[0].ID != "b1" {
		t.Fatalf("expected top scorer fallback, got %+v", picked)
	}
}

func TestBaselineTable(t *testing.T) {
	cases := []struct {
		pos     string
		starter bool
		want    float64
	}{
		{"QB", true, 18}, {"QB", false, 12}, {"RB", false, 6}, {"TE", true, 8}, {"K", false, 8}, {"", true, 8},
	}
	for _, tc := range cases {
		if got := Baseline(tc.pos, tc.starter); got != tc.want {
			t.Fatalf("Baseline(%q,%v) = %v, want %v", tc.pos, tc.starter, got, tc.want)
		}
	}
}

func TestGatherDecodesAndMergesCitations(t *testing.T) {
	runner := &stubRunner{resp: llm.Response{
		Provider:  "perplexity",
		Model:     "sonar",
		Citations: []string{"https://www.espn.com/story", "https://nfl.com/a"},
		Content: "```json\n" + `{"player_evidence":[{"player":"Josh Allen","team_name":"Alpha Dogs","week_stats":{"fantasy_points":31.2,"passing_yards":"310","note":"big"},"kickoff_window":"Late"}],
		"references":[{"id":"1","title":"Recap","url":"https://www.espn.com/story","publisher":"ESPN"}]}` + "\n```",
	}}
	record, err := NewGatherer(runner, nil).Gather(context.Background(), sampleRecord())
	if err != nil {
		t.Fatalf("Gather returned error: %v", err)
	}
	if record.Degraded || record.Source != "perplexity:sonar" {
		t.Fatalf("unexpected flags: %+v", record)
	}
	if len(record.Citations) != 2 || record.Citations[1].ID != 2 || record.Citations[1].Publisher != "nfl.com" {
		t.Fatalf("expected provider url merged as citation 2, got %+v", record.Citations)
	}
	stats := record.Findings[0].WeekStats
	if stats["passing_yards"] != 310 {
		t.Fatalf("expected numeric string kept, got %+v", stats)
	}
	if _, ok := stats["note"]; ok {
		t.Fatalf("expected non-numeric stat dropped, got %+v", stats)
	}
	if record.Findings[0].KickoffWindow != "" {
		t.Fatalf("expected invalid kickoff window cleared")
	}
	req := runner.reqs[0]
	if !req.JSON || req.MaxTokens != 4000 || req.Temperature == nil || *req.Temperature != 0.1 {
		t.Fatalf("unexpected research request: %+v", req)
	}
	if !strings.Contains(req.User, "Josh Allen") {
		t.Fatalf("expected key player in prompt")
	}
}

func TestGatherReportsResearchUnavailable(t *testing.T) {
	runner := &stubRunner{err: llm.ErrChainExhausted}
	_, err := NewGatherer(runner, nil).Gather(context.Background(), sampleRecord())
	if !errors.Is(err, services.ErrResearchUnavailable) {
		t.Fatalf("expected research unavailable, got %v", err)
	}
}

func TestValidateResearchRequiresFindings(t *testing.T) {
	if err := validateResearch(`{"references":[]}`); err == nil {
		t.Fatal("expected missing player_evidence to be rejected")
	}
	if err := validateResearch(`{"player_evidence":[]}`); err != nil {
		t.Fatalf("expected empty list accepted, got %v", err)
	}
}

func TestDegradedEstimatesStats(t *testing.T) {
	record := Degraded(sampleRecord(), time.Unix(0, 0))
	if !record.Degraded || record.Source != SourceAPIData || len(record.Citations) != 0 {
		t.Fatalf("unexpected degraded flags: %+v", record)
	}
	var allen Finding
	for _, f := range record.Findings {
		if f.Player == "Josh Allen" {
			allen = f
		}
	}
	if allen.WeekStats["passing_yards"] != 250 || allen.WeekStats["passing_touchdowns"] != 5 {
		t.Fatalf("unexpected QB estimate: %+v", allen.WeekStats)
	}
	if allen.Notes != "QB for Alpha Dogs - 31.2 fantasy points" {
		t.Fatalf("unexpected notes %q", allen.Notes)
	}
}
