package audit

import (
	"strings"
	"testing"

	"sleeperrecap/internal/evidence"
	"sleeperrecap/internal/truth"
)

func weekRecord() *truth.Record {
	projected := 115.0
	return &truth.Record{
		LeagueID: "42",
		Season:   2024,
		Week:     3,
		Teams: []truth.Team{
			{
				RosterID:    1,
				Username:    "alice1",
				DisplayName: "alice",
				TeamName:    "Alpha Dogs",
				Points:      120.5,
				Projected:   &projected,
				Players: []truth.Player{
					{ID: "a1", Name: "Josh Allen", Position: "QB", Points: 31.2, Starter: true},
					{ID: "a2", Name: "Michael Pittman Jr.", Position: "WR", Points: 12.4, Starter: true},
					{ID: "a3", Name: "Amon-Ra St. Brown", Position: "WR", Points: 22, Starter: true},
					{ID: "a4", Name: "José Ramírez", Position: "RB", Points: 3.1},
				},
			},
			{
				RosterID:    2,
				Username:    "bob",
				DisplayName: "Bob",
				TeamName:    "Bravo Bunch",
				Points:      99.25,
				Players: []truth.Player{
					{ID: "b1", Name: "Justin Jefferson", Position: "WR", Points: 25.5, Starter: true},
					{ID: "b2", Name: "Kenneth Walker III", Position: "RB", Points: 14.1, Starter: true},
				},
			},
		},
		Matchups: []truth.Matchup{{
			MatchupID:      1,
			A:              truth.Side{RosterID: 1, Team: "Alpha Dogs", Points: 120.5},
			B:              &truth.Side{RosterID: 2, Team: "Bravo Bunch", Points: 99.25},
			Winner:         "Alpha Dogs",
			Loser:          "Bravo Bunch",
			WinnerRosterID: 1,
		}},
		Standings: []truth.Standing{
			{RosterID: 1, Team: "Alpha Dogs", Wins: 3},
			{RosterID: 2, Team: "Bravo Bunch", Losses: 3},
		},
		PriorStandings: []truth.Standing{
			{RosterID: 1, Team: "Alpha Dogs", Wins: 2},
			{RosterID: 2, Team: "Bravo Bunch", Losses: 2},
		},
	}
}

func weekEvidence() *evidence.Record {
	return &evidence.Record{Citations: []evidence.Citation{{ID: 1, Title: "example.com", URL: "https://example.com/a"}}}
}

const cleanArticle = `## Alpha Dogs vs Bravo Bunch: 120.5–99.25

Josh Allen threw for 31.2 points as Alpha Dogs rolled. Mike Pittman chipped in 12.4 points and J. Jefferson posted 25.5 points for Bravo Bunch. Amon-Ra St. Brown added 22 points [1].

Kenneth Walker III and Jose Ramirez barely moved the needle.

**Power Rankings**

1. Alpha Dogs
2. Bravo Bunch
`

func TestAuditCleanArticlePasses(t *testing.T) {
	report := New(Options{}, nil).Audit(cleanArticle, weekRecord(), weekEvidence())
	if !report.Passed() {
		t.Fatalf("expected PASS, got %s with %+v", report.Verdict, report.Issues)
	}
	if report.WordCount == 0 {
		t.Fatalf("expected a word count")
	}
	if report.Issues == nil {
		t.Fatalf("issues should be an empty list, not nil")
	}
}

func TestAuditFlagsAbsentPlayerOnce(t *testing.T) {
	article := cleanArticle + "\nPatrick Mahomes struggled again. Nobody expected Patrick Mahomes to show up.\n"
	report := New(Options{}, nil).Audit(article, weekRecord(), weekEvidence())
	if report.Passed() {
		t.Fatalf("expected FAIL")
	}
	if got := report.Count(KindUnboundEntity); got != 1 {
		t.Fatalf("expected 1 unbound entity, got %d: %+v", got, report.Issues)
	}
	if len(report.Issues) != 1 {
		t.Fatalf("expected only the unbound entity, got %+v", report.Issues)
	}
	if report.Issues[0].Location != "Patrick Mahomes" {
		t.Fatalf("unexpected location %q", report.Issues[0].Location)
	}
}

func TestAuditScoreTolerance(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "exact", header: "Alpha Dogs vs Bravo Bunch: 120.5–99.25", want: 0},
		{name: "at tolerance", header: "Alpha Dogs vs Bravo Bunch: 121.0–99.25", want: 0},
		{name: "beyond tolerance", header: "Alpha Dogs vs Bravo Bunch: 121.1–99.25", want: 1},
		{name: "reversed order", header: "Bravo Bunch vs Alpha Dogs: 99.25-120.5", want: 0},
		{name: "swapped scores", header: "Bravo Bunch vs Alpha Dogs: 120.5-99.25", want: 1},
		{name: "inline", header: "Alpha Dogs 120.5–99.25 Bravo Bunch", want: 0},
		{name: "comma form", header: "Alpha Dogs 120.5, Bravo Bunch 90", want: 1},
		{name: "owner alias", header: "alice vs Bob: 120.5–99.25", want: 0},
		{name: "prose pair", header: "Alpha Dogs beat Bravo Bunch 150.5–99.25", want: 1},
		{name: "prose pair exact", header: "Alpha Dogs beat Bravo Bunch 120.5–99.25", want: 0},
		{name: "prose pair loser first", header: "Bravo Bunch fell to Alpha Dogs 99.25-120.5", want: 0},
		{name: "pair over", header: "Alpha Dogs 150.5-99.25 over Bravo Bunch", want: 1},
		{name: "team points", header: "Alpha Dogs put up 150.5 points", want: 1},
		{name: "team points at tolerance", header: "Alpha Dogs put up 121 points", want: 0},
		{name: "loser points", header: "Bravo Bunch scored 140 points", want: 1},
		{name: "parenthesized", header: "Alpha Dogs (150.5) edged Bravo Bunch (99.25)", want: 1},
		{name: "parenthesized exact", header: "Alpha Dogs (120.5) edged Bravo Bunch (99.25)", want: 0},
		{name: "margin", header: "Alpha Dogs won by 21.25 points", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			article := strings.Replace(cleanArticle, "Alpha Dogs vs Bravo Bunch: 120.5–99.25", tt.header, 1)
			report := New(Options{Tolerance: 0.5}, nil).Audit(article, weekRecord(), weekEvidence())
			if got := report.Count(KindScoreMismatch); got != tt.want {
				t.Fatalf("expected %d score mismatches, got %d: %+v", tt.want, got, report.Issues)
			}
		})
	}
}

func TestAuditPlayerPointsClaim(t *testing.T) {
	article := strings.Replace(cleanArticle, "threw for 31.2 points", "threw for 28 points", 1)
	report := New(Options{}, nil).Audit(article, weekRecord(), weekEvidence())
	if got := report.Count(KindScoreMismatch); got != 1 {
		t.Fatalf("expected 1 mismatch, got %d: %+v", got, report.Issues)
	}
	if !strings.Contains(report.Issues[0].Fix, "31.2") {
		t.Fatalf("fix should carry the true score: %q", report.Issues[0].Fix)
	}
}

func TestAuditProjectionClaims(t *testing.T) {
	tests := []struct {
		name     string
		sentence string
		want     int
	}{
		{name: "wrong team projection", sentence: "Alpha Dogs were projected for 130 points.", want: 1},
		{name: "team projection within tolerance", sentence: "Alpha Dogs were projected for 115.3 points.", want: 0},
		{name: "team without projection", sentence: "Bravo Bunch were projected for 90 points.", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := New(Options{}, nil).Audit(cleanArticle+"\n"+tt.sentence+"\n", weekRecord(), weekEvidence())
			if got := report.Count(KindScoreMismatch); got != tt.want {
				t.Fatalf("expected %d mismatches, got %d: %+v", tt.want, got, report.Issues)
			}
			if tt.want > 0 && !strings.Contains(report.Issues[0].Fix, "115") {
				t.Fatalf("fix should carry the projection: %q", report.Issues[0].Fix)
			}
		})
	}

	// Player projections are not in the truth record.
	article := strings.Replace(cleanArticle, "threw for 31.2 points", "was projected for 20 points", 1)
	report := New(Options{}, nil).Audit(article, weekRecord(), weekEvidence())
	if got := report.Count(KindScoreMismatch); got != 0 {
		t.Fatalf("player projection should not be checked: %+v", report.Issues)
	}
}

func TestAuditTeamAttribution(t *testing.T) {
	wrong := strings.Replace(cleanArticle, "25.5 points for Bravo Bunch", "25.5 points for Alpha Dogs", 1)
	report := New(Options{}, nil).Audit(wrong, weekRecord(), weekEvidence())
	if got := report.Count(KindTeamAttribution); got != 1 || len(report.Issues) != 1 {
		t.Fatalf("expected one attribution issue, got %+v", report.Issues)
	}
	if !strings.Contains(report.Issues[0].Fix, "Bravo Bunch") {
		t.Fatalf("fix should name the real team: %q", report.Issues[0].Fix)
	}

	report = New(Options{}, nil).Audit(cleanArticle+"\nBravo Bunch's Josh Allen was everywhere.\n", weekRecord(), weekEvidence())
	if got := report.Count(KindTeamAttribution); got != 1 {
		t.Fatalf("expected possessive attribution issue, got %+v", report.Issues)
	}

	report = New(Options{}, nil).Audit(cleanArticle+"\nJustin Jefferson torched Alpha Dogs anyway.\n", weekRecord(), weekEvidence())
	if !report.Passed() {
		t.Fatalf("naming the opponent is not an attribution: %+v", report.Issues)
	}
}

func TestAuditRecords(t *testing.T) {
	tests := []struct {
		name     string
		sentence string
		want     int
	}{
		{name: "swapped records", sentence: "Alpha Dogs improved to 0-3 while Bravo Bunch fell to 3-0.", want: 2},
		{name: "correct records", sentence: "Alpha Dogs improved to 3-0 while Bravo Bunch fell to 0-3.", want: 0},
		{name: "record entering the week", sentence: "Alpha Dogs came in at 2-0.", want: 0},
		{name: "parenthesized", sentence: "Bravo Bunch (1-2) never led.", want: 1},
		{name: "no team", sentence: "Someone is 5-5 somewhere.", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := New(Options{}, nil).Audit(cleanArticle+"\n"+tt.sentence+"\n", weekRecord(), weekEvidence())
			if got := report.Count(KindRecordMismatch); got != tt.want {
				t.Fatalf("expected %d record issues, got %d: %+v", tt.want, got, report.Issues)
			}
			if got := report.Count(KindScoreMismatch); got != 0 {
				t.Fatalf("records must not read as scores: %+v", report.Issues)
			}
		})
	}
}

func TestAuditCitations(t *testing.T) {
	article := strings.Replace(cleanArticle, "[1]", "[1][3]", 1) + "\nMore on that later [3].\n"
	report := New(Options{}, nil).Audit(article, weekRecord(), weekEvidence())
	if got := report.Count(KindMissingCitation); got != 1 {
		t.Fatalf("expected one deduplicated citation issue, got %d: %+v", got, report.Issues)
	}

	report = New(Options{}, nil).Audit(cleanArticle, weekRecord(), nil)
	if got := report.Count(KindMissingCitation); got != 1 {
		t.Fatalf("markers without citations should fail, got %+v", report.Issues)
	}

	plain := strings.Replace(cleanArticle, " [1]", "", 1)
	report = New(Options{}, nil).Audit(plain, weekRecord(), &evidence.Record{})
	if !report.Passed() {
		t.Fatalf("article without markers should pass: %+v", report.Issues)
	}
}

func TestAuditStyleChecks(t *testing.T) {
	opts := Options{StyleChecks: true, MinWords: 10, MaxWords: 500}

	report := New(opts, nil).Audit(cleanArticle, weekRecord(), weekEvidence())
	if !report.Passed() {
		t.Fatalf("expected PASS with style checks, got %+v", report.Issues)
	}

	dashed := strings.Replace(cleanArticle, "barely moved the needle", "barely moved the needle — again — all week", 1)
	dashed = strings.Replace(dashed, "120.5–99.25", "120.5—99.25", 1)
	report = New(opts, nil).Audit(dashed, weekRecord(), weekEvidence())
	if got := report.Count(KindEmDash); got != 1 {
		t.Fatalf("expected one aggregated em dash issue, got %+v", report.Issues)
	}
	if !strings.Contains(report.Issues[0].Fix, "2 em dashes") {
		t.Fatalf("score dash should not count: %q", report.Issues[0].Fix)
	}

	table := cleanArticle + "\n| Team | Points |\n| --- | --- |\n| Alpha Dogs | 120.5 |\n"
	report = New(opts, nil).Audit(table, weekRecord(), weekEvidence())
	if got := report.Count(KindTableFormat); got != 1 {
		t.Fatalf("expected table issue, got %+v", report.Issues)
	}

	noRankings := strings.Replace(cleanArticle, "**Power Rankings**", "", 1)
	report = New(opts, nil).Audit(noRankings, weekRecord(), weekEvidence())
	if got := report.Count(KindMissingPowerRankings); got != 1 {
		t.Fatalf("expected missing rankings, got %+v", report.Issues)
	}

	report = New(Options{StyleChecks: true, MinWords: 800, MaxWords: 1200}, nil).Audit(cleanArticle, weekRecord(), weekEvidence())
	if got := report.Count(KindWordCount); got != 1 {
		t.Fatalf("expected word count issue, got %+v", report.Issues)
	}
}

func TestFoldName(t *testing.T) {
	tests := map[string]string{
		"Amon-Ra St. Brown": "amonra st brown",
		"José Ramírez":      "jose ramirez",
		"D.J. Moore":        "dj moore",
		"Ja'Marr Chase":     "jamarr chase",
	}
	for in, want := range tests {
		if got := foldName(in); got != want {
			t.Fatalf("foldName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLookupPlayerVariants(t *testing.T) {
	idx := newIndex(weekRecord())
	for _, phrase := range []string{"Mike Pittman", "Michael Pittman", "Michael Pittman Jr.", "J. Jefferson", "Jose Ramirez", "Kenneth Walker"} {
		if got := idx.lookupPlayer(phrase); len(got) == 0 {
			t.Fatalf("expected %q to resolve", phrase)
		}
	}
	if got := idx.lookupPlayer("Patrick Mahomes"); len(got) != 0 {
		t.Fatalf("absent player resolved: %+v", got)
	}
}
