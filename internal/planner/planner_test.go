package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"sleeperrecap/internal/evidence"
	"sleeperrecap/internal/services/llm"
	"sleeperrecap/internal/truth"
)

type stubRunner struct {
	content string
	err     error
	req     llm.Request
}

func (s *stubRunner) Run(_ context.Context, req llm.Request) (llm.Response, error) {
	s.req = req
	if s.err != nil {
		return llm.Response{}, s.err
	}
	return llm.Response{Content: s.content, Provider: "openai", Model: "gpt-5"}, nil
}

func TestParseNumberedPlan(t *testing.T) {
	text := `Here is the plan:
1. **LEDE**: Open with the upset.
   - mention the tie
2) Alpha vs Bravo: Alpha rolls.
### 3. POWER RANKINGS: Order by record then PF.`
	outline := Parse(text)
	if len(outline.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %+v", outline.Sections)
	}
	if outline.Sections[0].Heading != "LEDE" || outline.Sections[0].Directive != "Open with the upset. mention the tie" {
		t.Fatalf("unexpected first section: %+v", outline.Sections[0])
	}
	if outline.Sections[2].Heading != "POWER RANKINGS" {
		t.Fatalf("unexpected last section: %+v", outline.Sections[2])
	}
	if outline.Raw != strings.TrimSpace(text) {
		t.Fatalf("expected raw text preserved")
	}
}

func TestParseFreeformFallback(t *testing.T) {
	outline := Parse("Just write something fun about the week.")
	if len(outline.Sections) != 1 || outline.Sections[0].Heading != FreeformHeading {
		t.Fatalf("expected single freeform section, got %+v", outline.Sections)
	}
}

func TestOutlineTextWithoutRaw(t *testing.T) {
	o := Outline{Sections: []Section{{Heading: "LEDE", Directive: "hook"}, {Heading: "POWER RANKINGS"}}}
	if got := o.Text(); got != "1. LEDE: hook\n2. POWER RANKINGS" {
		t.Fatalf("Text() = %q", got)
	}
}

func TestPlanSendsMatchupLabels(t *testing.T) {
	record := &truth.Record{
		Season: 2024,
		Week:   1,
		Teams:  []truth.Team{{RosterID: 1, TeamName: "Alpha"}, {RosterID: 2, TeamName: "Bravo"}},
		Matchups: []truth.Matchup{{
			MatchupID: 1,
			A:         truth.Side{RosterID: 1, Team: "Alpha", Points: 100},
			B:         &truth.Side{RosterID: 2, Team: "Bravo", Points: 90},
		}},
	}
	runner := &stubRunner{content: "1. LEDE: hook\n2. Alpha vs Bravo: recap\n3. POWER RANKINGS: order"}
	outline, err := New(runner, 900, 1500, nil).Plan(context.Background(), record, evidence.Degraded(record, record.BuiltAt))
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	if len(outline.Sections) != 3 {
		t.Fatalf("unexpected outline: %+v", outline)
	}
	if !strings.Contains(runner.req.User, "2. Alpha vs Bravo:") {
		t.Fatalf("expected matchup label in prompt:\n%s", runner.req.User)
	}
	if runner.req.Validate == nil || runner.req.Validate("   ") == nil {
		t.Fatal("expected blank plans to be rejected")
	}
}

func TestPlanPropagatesChainFailure(t *testing.T) {
	boom := errors.New("boom")
	_, err := New(&stubRunner{err: boom}, 900, 1500, nil).Plan(context.Background(), &truth.Record{}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected chain error, got %v", err)
	}
}
