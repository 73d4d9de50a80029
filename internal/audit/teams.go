package audit

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"sleeperrecap/internal/truth"
)

const (
	// teamClaimWindow bounds how far after a team mention a points claim is
	// attributed to that team.
	teamClaimWindow = 80
	// pairContextBefore and pairContextAfter bound where the two teams of a
	// prose score pair ("A beat B 130–99") are looked for.
	pairContextBefore = 100
	pairContextAfter  = 60
	// attributionWindow bounds how far after a player a "for <Team>" credit
	// is read as naming his team.
	attributionWindow = 80
	// maxRecordGames caps W-L values; larger pairs are scores, not records.
	maxRecordGames = 18
)

var (
	scorePair       = regexp.MustCompile(numberPattern + dashPattern + numberPattern)
	recordToken     = regexp.MustCompile(`(\d{1,2}(?:\.5)?)\s*[-–]\s*(\d{1,2}(?:\.5)?)`)
	parenPoints     = regexp.MustCompile(`^\s*\(\s*` + numberPattern + `\s*\)`)
	projectionClaim = regexp.MustCompile(`(?i)\b(?:projected|projection|expected)\b[^0-9.!?\n]{0,20}?` + numberPattern)
	creditedTo      = regexp.MustCompile(`(?i)^\s*(?:from|courtesy|via)\b`)
	attribution     = regexp.MustCompile(`(?i)\b(?:for|from)\s+(?:the\s+)?$`)
	possessive      = regexp.MustCompile(`^(?:\*\*)?['’]s?\s+$`)
)

// teamQualifiers precede numbers that are not the team's score for the week.
var teamQualifiers = []string{"by ", "than ", "needed", "average", "bench", "margin", "lead", "behind", "season"}

// teamMention is a team or owner name found in the article.
type teamMention struct {
	RosterID   int
	Label      string
	Start, End int
}

type teamRef struct {
	rosterID int
	label    string
	re       *regexp.Regexp
}

// teamRefs compiles one alias pattern per roster. Aliases shorter than three
// characters are dropped; they match too much prose.
func teamRefs(record *truth.Record) []teamRef {
	if record == nil {
		return nil
	}
	var refs []teamRef
	for _, team := range record.Teams {
		var parts []string
		seen := make(map[string]struct{})
		for _, name := range []string{team.Name(), team.TeamName, team.DisplayName, team.Username} {
			name = strings.TrimSpace(name)
			if len([]rune(name)) < 3 {
				continue
			}
			key := strings.ToLower(name)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			parts = append(parts, strings.Join(quoteFields(name), `\s+`))
		}
		if len(parts) == 0 {
			continue
		}
		sort.Slice(parts, func(i, j int) bool { return len(parts[i]) > len(parts[j]) })
		re, err := regexp.Compile(`(?i)(?:` + strings.Join(parts, "|") + `)`)
		if err != nil {
			continue
		}
		refs = append(refs, teamRef{rosterID: team.RosterID, label: team.Name(), re: re})
	}
	return refs
}

// findTeamMentions returns non-overlapping team mentions in article order.
// Spans inside player mentions are dropped, and the longest alias wins a
// tie on start offset.
func findTeamMentions(article string, record *truth.Record, players []mention) []teamMention {
	var found []teamMention
	for _, ref := range teamRefs(record) {
		for _, loc := range ref.re.FindAllStringIndex(article, -1) {
			if !boundaryAt(article, loc[0], loc[1]) || insideMention(players, loc[0], loc[1]) {
				continue
			}
			found = append(found, teamMention{RosterID: ref.rosterID, Label: ref.label, Start: loc[0], End: loc[1]})
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].Start != found[j].Start {
			return found[i].Start < found[j].Start
		}
		return found[i].End > found[j].End
	})
	var out []teamMention
	last := -1
	for _, m := range found {
		if m.Start < last {
			continue
		}
		out = append(out, m)
		last = m.End
	}
	return out
}

func insideMention(mentions []mention, start, end int) bool {
	for _, m := range mentions {
		if start < m.End && end > m.Start {
			return true
		}
	}
	return false
}

type span struct{ start, end int }

func overlapsAny(spans []span, start, end int) bool {
	for _, s := range spans {
		if start < s.end && end > s.start {
			return true
		}
	}
	return false
}

// sentenceStart returns where the sentence holding offset begins.
func sentenceStart(article string, offset int) int {
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(article[:offset], -1) {
		start = loc[1]
	}
	return start
}

// sentenceStop returns where the sentence running through offset ends.
// Callers pass the end of a name so initials like "J." do not end it.
func sentenceStop(article string, offset int) int {
	if loc := sentenceEnd.FindStringIndex(article[offset:]); loc != nil {
		return offset + loc[0]
	}
	return len(article)
}

// isRecordLike reports whether a dash pair reads as a W-L record.
func isRecordLike(a, b float64) bool {
	return a <= maxRecordGames && b <= maxRecordGames
}

func teamPoints(record *truth.Record, rosterID int) (actual float64, projected *float64, ok bool) {
	team, found := record.Team(rosterID)
	if !found {
		return 0, nil, false
	}
	projected = team.Projected
	if projected == nil {
		for _, m := range record.Matchups {
			if m.A.RosterID == rosterID {
				projected = m.A.Projected
			} else if m.B != nil && m.B.RosterID == rosterID {
				projected = m.B.Projected
			}
		}
	}
	return team.Points, projected, true
}

// pairClaims checks dash score pairs written in prose, such as
// "A beat B 130.5–99.25" or "A 130.5-99.25 over B". The first two teams named
// around the pair own the numbers, in either order.
func pairClaims(article string, record *truth.Record, teams []teamMention, covered []span, tolerance float64) ([]Issue, []span) {
	var issues []Issue
	var claimed []span
	for _, loc := range scorePair.FindAllStringSubmatchIndex(article, -1) {
		if !numericBoundary(article, loc[0], loc[1]) || overlapsAny(covered, loc[0], loc[1]) {
			continue
		}
		got1, err1 := strconv.ParseFloat(article[loc[2]:loc[3]], 64)
		got2, err2 := strconv.ParseFloat(article[loc[4]:loc[5]], 64)
		if err1 != nil || err2 != nil || isRecordLike(got1, got2) {
			continue
		}
		from := max(sentenceStart(article, loc[0]), loc[0]-pairContextBefore)
		to := min(sentenceStop(article, loc[1]), loc[1]+pairContextAfter)
		var rosters []teamMention
		for _, tm := range teams {
			if tm.Start < from || tm.End > to {
				continue
			}
			if len(rosters) == 1 && rosters[0].RosterID == tm.RosterID {
				continue
			}
			rosters = append(rosters, tm)
			if len(rosters) == 2 {
				break
			}
		}
		if len(rosters) < 2 {
			continue
		}
		claimed = append(claimed, span{loc[0], loc[1]})
		p1, _, ok1 := teamPoints(record, rosters[0].RosterID)
		p2, _, ok2 := teamPoints(record, rosters[1].RosterID)
		if !ok1 || !ok2 {
			continue
		}
		if (within(got1, p1, tolerance) && within(got2, p2, tolerance)) ||
			(within(got1, p2, tolerance) && within(got2, p1, tolerance)) {
			continue
		}
		issues = append(issues, Issue{
			Kind:     KindScoreMismatch,
			Location: strings.TrimSpace(article[min(loc[0], rosters[0].Start):max(loc[1], rosters[1].End)]),
			Fix: fmt.Sprintf("Correct the score to %s %s, %s %s",
				rosters[0].Label, truth.FormatPoints(p1), rosters[1].Label, truth.FormatPoints(p2)),
		})
	}
	return issues, claimed
}

// numericBoundary rejects number matches glued to other digits or letters.
func numericBoundary(text string, start, end int) bool {
	if start > 0 {
		if c := text[start-1]; c == '.' || c == ',' || (c >= '0' && c <= '9') {
			return false
		}
	}
	if end < len(text) {
		if c := text[end]; c == '.' && end+1 < len(text) && text[end+1] >= '0' && text[end+1] <= '9' {
			return false
		} else if c >= '0' && c <= '9' {
			return false
		}
	}
	return boundaryAt(text, start, end)
}

// teamClaims checks single-team statements: "<Team> ... n points",
// "<Team> (n)", and "<Team> ... projected for n". Projection claims are
// compared with the team projection and skipped when there is none.
func teamClaims(article string, record *truth.Record, teams []teamMention, players []mention, covered []span, tolerance float64) []Issue {
	var issues []Issue
	for i, tm := range teams {
		limit := min(len(article), tm.End+teamClaimWindow)
		if i+1 < len(teams) && teams[i+1].Start < limit {
			limit = teams[i+1].Start
		}
		for _, p := range players {
			if p.Start >= tm.End && p.Start < limit {
				limit = p.Start
			}
		}
		window := article[tm.End:limit]
		if loc := sentenceEnd.FindStringIndex(window); loc != nil {
			window = window[:loc[0]]
		}
		actual, projected, ok := teamPoints(record, tm.RosterID)
		if !ok {
			continue
		}

		got, start, end, projection := teamClaimIn(window)
		if start < 0 || overlapsAny(covered, tm.End+start, tm.End+end) {
			continue
		}
		want := actual
		label := "scored"
		if projection {
			if projected == nil {
				continue
			}
			want = *projected
			label = "was projected for"
		}
		if within(got, want, tolerance) {
			continue
		}
		issues = append(issues, Issue{
			Kind:     KindScoreMismatch,
			Location: strings.TrimSpace(article[tm.Start : tm.End+end]),
			Fix:      fmt.Sprintf("%s %s %s points", tm.Label, label, truth.FormatPoints(want)),
		})
	}
	return issues
}

// teamClaimIn finds the first claim in window. start is -1 when there is
// none or the number is qualified (a margin, an average, a bench total).
func teamClaimIn(window string) (got float64, start, end int, projection bool) {
	if loc := parenPoints.FindStringSubmatchIndex(window); loc != nil {
		v, err := strconv.ParseFloat(window[loc[2]:loc[3]], 64)
		if err == nil {
			return v, loc[2], loc[1], false
		}
	}
	points := pointsClaim.FindStringSubmatchIndex(window)
	proj := projectionClaim.FindStringSubmatchIndex(window)
	switch {
	case proj != nil && (points == nil || proj[0] <= points[0]):
		v, err := strconv.ParseFloat(window[proj[2]:proj[3]], 64)
		if err != nil {
			return 0, -1, -1, false
		}
		return v, proj[2], pointsEnd(points, proj), true
	case points != nil:
		prefix := strings.ToLower(window[:points[0]])
		if creditedTo.MatchString(window[points[1]:]) || hasQualifier(prefix, teamQualifiers) {
			return 0, -1, -1, false
		}
		if strings.Contains(prefix, "project") || strings.Contains(prefix, "expect") {
			v, err := strconv.ParseFloat(window[points[2]:points[3]], 64)
			if err != nil {
				return 0, -1, -1, false
			}
			return v, points[2], points[1], true
		}
		v, err := strconv.ParseFloat(window[points[2]:points[3]], 64)
		if err != nil {
			return 0, -1, -1, false
		}
		return v, points[2], points[1], false
	}
	return 0, -1, -1, false
}

// pointsEnd extends a projection claim over a trailing "points" that belongs
// to the same number.
func pointsEnd(points, proj []int) int {
	if points != nil && points[2] == proj[2] {
		return points[1]
	}
	return proj[1]
}

func hasQualifier(prefix string, qualifiers []string) bool {
	if len(prefix) > 24 {
		prefix = prefix[len(prefix)-24:]
	}
	for _, q := range qualifiers {
		if strings.Contains(prefix, q) {
			return true
		}
	}
	return false
}

// checkAttribution flags a player credited to a fantasy team he did not play
// for: "<Player> ... for <Team>" or "<Team>'s <Player>".
func checkAttribution(article string, teams []teamMention, players []mention) []Issue {
	var issues []Issue
	for i, m := range players {
		if !m.Bound {
			continue
		}
		limit := min(sentenceStop(article, m.End), m.End+attributionWindow)
		if i+1 < len(players) && players[i+1].Start < limit {
			limit = players[i+1].Start
		}
		for _, tm := range teams {
			credited := false
			switch {
			case tm.Start >= m.End && tm.End <= limit:
				credited = attribution.MatchString(article[m.End:tm.Start])
			case tm.End <= m.Start:
				credited = possessive.MatchString(article[tm.End:m.Start])
			}
			if !credited || playsFor(m.Players, tm.RosterID) {
				continue
			}
			from, to := min(m.Start, tm.Start), max(m.End, tm.End)
			issues = append(issues, Issue{
				Kind:     KindTeamAttribution,
				Location: strings.TrimSpace(article[from:to]),
				Fix:      fmt.Sprintf("%s plays for %s, not %s", m.Players[0].Name, m.Players[0].Team, tm.Label),
			})
			break
		}
	}
	return issues
}

func playsFor(players []truth.TeamPlayer, rosterID int) bool {
	for _, p := range players {
		if p.RosterID == rosterID {
			return true
		}
	}
	return false
}

// checkRecords compares "W-L" records with the team named last before them
// in the same sentence. A record matching either the standing after the
// week or the one entering it passes.
func checkRecords(article string, record *truth.Record, teams []teamMention, covered []span) []Issue {
	if record == nil || len(record.Standings) == 0 {
		return nil
	}
	var issues []Issue
	for _, loc := range recordToken.FindAllStringSubmatchIndex(article, -1) {
		if !numericBoundary(article, loc[0], loc[1]) || overlapsAny(covered, loc[0], loc[1]) {
			continue
		}
		wins, err1 := strconv.ParseFloat(article[loc[2]:loc[3]], 64)
		losses, err2 := strconv.ParseFloat(article[loc[4]:loc[5]], 64)
		if err1 != nil || err2 != nil || !isRecordLike(wins, losses) {
			continue
		}
		sStart := sentenceStart(article, loc[0])
		var owner *teamMention
		for i := range teams {
			if teams[i].Start >= sStart && teams[i].End <= loc[0] {
				owner = &teams[i]
			}
		}
		if owner == nil {
			continue
		}
		after, ok := record.Standing(owner.RosterID)
		if !ok {
			continue
		}
		if sameRecord(after, wins, losses) {
			continue
		}
		if prior, ok := record.PriorStanding(owner.RosterID); ok && sameRecord(prior, wins, losses) {
			continue
		}
		issues = append(issues, Issue{
			Kind:     KindRecordMismatch,
			Location: strings.TrimSpace(article[owner.Start:loc[1]]),
			Fix:      fmt.Sprintf("%s is %s after week %d", owner.Label, after.Record(), record.Week),
		})
	}
	return issues
}

func sameRecord(s truth.Standing, wins, losses float64) bool {
	return s.Wins == wins && s.Losses == losses
}
