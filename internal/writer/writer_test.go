package writer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"sleeperrecap/internal/audit"
	"sleeperrecap/internal/evidence"
	"sleeperrecap/internal/planner"
	"sleeperrecap/internal/services"
	"sleeperrecap/internal/services/llm"
	"sleeperrecap/internal/truth"
)

type stubRunner struct {
	content string
	err     error
	reqs    []llm.Request
}

func (s *stubRunner) Run(_ context.Context, req llm.Request) (llm.Response, error) {
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return llm.Response{}, s.err
	}
	return llm.Response{Content: s.content, Provider: "openai", Model: "gpt-5"}, nil
}

func sampleRecord() *truth.Record {
	return &truth.Record{
		LeagueID:   "42",
		LeagueName: "Dynasty Bros",
		Season:     2024,
		Week:       3,
		Teams: []truth.Team{
			{RosterID: 1, TeamName: "Alpha Dogs", Points: 120.5},
			{RosterID: 2, DisplayName: "Bravo", Points: 99.25},
		},
		Matchups: []truth.Matchup{{
			MatchupID: 1,
			A:         truth.Side{RosterID: 1, Team: "Alpha Dogs", Points: 120.5},
			B:         &truth.Side{RosterID: 2, Team: "Bravo", Points: 99.25},
			Winner:    "Alpha Dogs",
			Loser:     "Bravo",
		}},
		Standings: []truth.Standing{
			{RosterID: 1, Team: "Alpha Dogs", Wins: 1, PointsFor: 120.5, PointsAgainst: 99.25},
			{RosterID: 2, Team: "Bravo", Losses: 1, PointsFor: 99.25, PointsAgainst: 120.5},
		},
	}
}

func TestWriteBuildsPromptFromTruth(t *testing.T) {
	runner := &stubRunner{content: "  Alpha Dogs rolled [2] and [1] and [2].  "}
	w := New(runner, nil, 900, 1500, nil)
	ev := &evidence.Record{Citations: []evidence.Citation{{ID: 1, Title: "ESPN", URL: "https://espn.com/x"}}}
	outline := &planner.Outline{Raw: "1. LEDE: open strong"}

	draft, err := w.Write(context.Background(), sampleRecord(), ev, outline)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if draft.Text != "Alpha Dogs rolled [2] and [1] and [2]." {
		t.Fatalf("unexpected text %q", draft.Text)
	}
	if len(draft.Citations) != 2 || draft.Citations[0] != 1 || draft.Citations[1] != 2 {
		t.Fatalf("unexpected citations %v", draft.Citations)
	}
	if draft.Patched || draft.Model != "gpt-5" {
		t.Fatalf("unexpected draft metadata %+v", draft)
	}

	req := runner.reqs[0]
	for _, want := range []string{
		"Alpha Dogs vs Bravo: 120.5–99.25",
		"[1] ESPN (https://espn.com/x)",
		"1. LEDE: open strong",
		"900 to 1500 words",
		"**Power Rankings**",
	} {
		if !strings.Contains(req.User, want) {
			t.Fatalf("prompt missing %q:\n%s", want, req.User)
		}
	}
	if strings.Contains(req.User, "No live research") {
		t.Fatalf("non-degraded evidence should not add the degraded note")
	}
	if req.Validate == nil || req.Validate("  ") == nil {
		t.Fatalf("expected empty content to be rejected")
	}
}

func TestWriteDegradedNote(t *testing.T) {
	runner := &stubRunner{content: "text"}
	w := New(runner, nil, 0, 0, nil)
	if _, err := w.Write(context.Background(), sampleRecord(), &evidence.Record{Degraded: true}, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(runner.reqs[0].User, "No live research") {
		t.Fatalf("expected degraded note")
	}
}

func TestWritePropagatesRunnerError(t *testing.T) {
	boom := services.Wrap(services.ErrTransient, "llm", "write", "exhausted", llm.ErrChainExhausted)
	w := New(&stubRunner{err: boom}, nil, 900, 1500, nil)
	_, err := w.Write(context.Background(), sampleRecord(), nil, nil)
	if !errors.Is(err, llm.ErrChainExhausted) {
		t.Fatalf("expected chain exhaustion, got %v", err)
	}
}

func TestPatchUsesPatchRunner(t *testing.T) {
	write := &stubRunner{content: "unused"}
	patch := &stubRunner{content: "Fixed article."}
	w := New(write, patch, 900, 1500, nil)
	original := NewDraft("Patrick Mahomes dominated.")
	report := audit.Report{Verdict: audit.VerdictFail, Issues: []audit.Issue{{
		Kind:     audit.KindUnboundEntity,
		Location: "Patrick Mahomes",
		Fix:      "Remove Patrick Mahomes",
	}}}

	patched, err := w.Patch(context.Background(), original, report, sampleRecord(), nil)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if !patched.Patched || patched.Text != "Fixed article." {
		t.Fatalf("unexpected patched draft %+v", patched)
	}
	if original.Patched || original.Text != "Patrick Mahomes dominated." {
		t.Fatalf("original draft was modified: %+v", original)
	}
	if len(write.reqs) != 0 || len(patch.reqs) != 1 {
		t.Fatalf("expected only the patch runner to be called")
	}
	user := patch.reqs[0].User
	if !strings.Contains(user, "Patrick Mahomes dominated.") || !strings.Contains(user, `"kind": "UNBOUND_ENTITY"`) {
		t.Fatalf("patch prompt missing article or issues:\n%s", user)
	}
}

func TestCitedIDs(t *testing.T) {
	got := citedIDs("a [3] b [1] c [3] d [x]")
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("unexpected ids %v", got)
	}
}
