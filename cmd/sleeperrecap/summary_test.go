package main

import (
	"bytes"
	"strings"
	"testing"

	"sleeperrecap/internal/audit"
	"sleeperrecap/internal/pipeline"
	"sleeperrecap/internal/testsupport"
)

func TestRenderRunSummaryPlain(t *testing.T) {
	initial := audit.Report{Verdict: audit.VerdictFail, Issues: []audit.Issue{{Kind: audit.KindScoreMismatch}}}
	result := &pipeline.Result{
		Truth:         testsupport.SampleTruth(),
		InitialReport: &initial,
		Report:        audit.Report{Verdict: audit.VerdictPass},
		Patched:       true,
		Reused:        []string{"evidence", "plan"},
		Calls:         3,
		Usage:         []pipeline.StepUsage{{Step: "research", Calls: 1}, {Step: "write", Calls: 2}},
		RecapPath:     "/tmp/recap.md",
	}
	var buf bytes.Buffer
	renderRunSummary(&buf, result, false)
	out := buf.String()
	for _, want := range []string{
		"Dynasty Bros, 2024 week 3",
		"Verdict:   PASS (0 issues)",
		"Initial:   FAIL (1 issues)",
		"Patched:   yes",
		"Cached:    evidence, plan",
		"LLM calls: 3 (~$0.0000): research 1, write 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
	if shouldColorize(&buf) {
		t.Fatal("buffers are never terminals")
	}
}

func TestTruncateCell(t *testing.T) {
	if got := truncateCell("a  b\nc", 10); got != "a b c" {
		t.Fatalf("truncateCell flatten = %q", got)
	}
	got := truncateCell("Amon-Ra St. Brown scored 22 points", 10)
	if !strings.HasSuffix(got, "…") || len([]rune(got)) > 10 {
		t.Fatalf("truncateCell = %q", got)
	}
}

func TestRenderIssueTable(t *testing.T) {
	report := audit.Report{Verdict: audit.VerdictFail, Issues: []audit.Issue{{
		Kind:     audit.KindUnboundEntity,
		Location: "Patrick Mahomes watched from the couch.",
		Fix:      "Remove Patrick Mahomes; he is not on any roster this week.",
	}}}
	table := renderIssueTable(report)
	if !strings.Contains(table, "UNBOUND_ENTITY") || !strings.Contains(table, "Patrick Mahomes") {
		t.Fatalf("unexpected table:\n%s", table)
	}
}
