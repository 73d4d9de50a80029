package main

import (
	"strings"
	"testing"

	"sleeperrecap/internal/history"
	"sleeperrecap/internal/preflight"
)

func TestStatusLineAlignsLabels(t *testing.T) {
	got := statusLine("Config file", stateInfo, "/tmp/config.toml", false)
	want := "  Config file:         [INFO] /tmp/config.toml"
	if got != want {
		t.Fatalf("statusLine = %q, want %q", got, want)
	}
	if got := statusLine("Log level", statePass, "", false); strings.HasSuffix(got, " ") {
		t.Fatalf("statusLine without detail has trailing space: %q", got)
	}
}

func TestCheckLineMarksFailures(t *testing.T) {
	got := checkLine(preflight.Result{Name: "OpenAI API key", Detail: "OPENAI_API_KEY is not set"}, false)
	if !strings.Contains(got, "[ERROR] OPENAI_API_KEY is not set") {
		t.Fatalf("checkLine = %q", got)
	}
}

func TestRunLineReflectsLedgerState(t *testing.T) {
	base := history.Run{LeagueID: "123", Season: 2024, Week: 3}
	cases := []struct {
		name string
		run  func(history.Run) history.Run
		want string
	}{
		{"pass", func(r history.Run) history.Run { r.Status = history.StatusCompleted; r.Verdict = "PASS"; return r }, "[OK] league 123 2024 week 3: PASS"},
		{"fail", func(r history.Run) history.Run { r.Status = history.StatusCompleted; r.Verdict = "FAIL"; return r }, "[WARN] league 123 2024 week 3: FAIL"},
		{"error", func(r history.Run) history.Run { r.Status = history.StatusFailed; r.Error = "boom"; return r }, "[ERROR] league 123 2024 week 3 failed: boom"},
		{"running", func(r history.Run) history.Run { r.Status = history.StatusRunning; return r }, "[WARN] league 123 2024 week 3 still running"},
	}
	for _, tc := range cases {
		if got := runLine(tc.run(base), false); !strings.Contains(got, tc.want) {
			t.Fatalf("%s: runLine = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestSectionHeaderRuleMatchesTitle(t *testing.T) {
	lines := sectionHeader("Checks", false)
	if lines[0] != "== Checks ==" || len(lines[1]) != len(lines[0]) {
		t.Fatalf("sectionHeader = %q", lines)
	}
}
