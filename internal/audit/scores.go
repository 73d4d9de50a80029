package audit

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"sleeperrecap/internal/truth"
)

// scoreEpsilon absorbs float noise so a difference exactly at the tolerance
// passes.
const scoreEpsilon = 1e-9

const (
	numberPattern = `(\d+(?:\.\d+)?)`
	dashPattern   = `\s*[-–—]\s*`
	// playerClaimWindow bounds how far after a player mention a points claim
	// is attributed to that player.
	playerClaimWindow = 160
)

var pointsClaim = regexp.MustCompile(`(?i)` + numberPattern + `\s*(?:fantasy\s+)?(?:points|pts)\b`)

// claimQualifiers precede numbers that are not the player's actual score.
var claimQualifiers = []string{"project", "expect", "by ", "needed", "than ", "average", "ceiling", "floor"}

var sentenceEnd = regexp.MustCompile(`[.!?](?:\s|$)|\n`)

type scoreClaim struct {
	start, end int
	text       string
	first      truth.Side
	second     truth.Side
	got1, got2 float64
}

// checkScores runs every numeric family and returns the spans already read
// as score claims so the record check does not reread them.
func checkScores(article string, record *truth.Record, teams []teamMention, mentions []mention, tolerance float64) ([]Issue, []span) {
	if record == nil {
		return nil, nil
	}
	var issues []Issue
	var covered []span
	for _, claim := range matchupClaims(article, record) {
		covered = append(covered, span{claim.start, claim.end})
		if within(claim.got1, claim.first.Points, tolerance) && within(claim.got2, claim.second.Points, tolerance) {
			continue
		}
		issues = append(issues, Issue{
			Kind:     KindScoreMismatch,
			Location: claim.text,
			Fix: fmt.Sprintf("Correct the score to %s %s–%s %s",
				claim.first.Team, truth.FormatPoints(claim.first.Points),
				truth.FormatPoints(claim.second.Points), claim.second.Team),
		})
	}
	pairIssues, pairs := pairClaims(article, record, teams, covered, tolerance)
	issues = append(issues, pairIssues...)
	covered = append(covered, pairs...)
	issues = append(issues, teamClaims(article, record, teams, mentions, covered, tolerance)...)
	issues = append(issues, playerClaims(article, mentions, tolerance)...)
	return issues, covered
}

func within(got, want, tolerance float64) bool {
	return math.Abs(got-want) <= tolerance+scoreEpsilon
}

// matchupClaims finds score statements naming both sides of a matchup:
// "A vs B: n–m", "A n–m B", "A n–B m", and "A n, B m".
func matchupClaims(article string, record *truth.Record) []scoreClaim {
	var claims []scoreClaim
	seen := make(map[int]struct{})
	for _, m := range record.Matchups {
		if m.B == nil {
			continue
		}
		a := aliasPattern(record, m.A)
		b := aliasPattern(record, *m.B)
		for _, order := range []struct {
			x, y          string
			first, second truth.Side
		}{
			{a, b, m.A, *m.B},
			{b, a, *m.B, m.A},
		} {
			forms := []string{
				order.x + `\s+vs\.?\s+` + order.y + `\s*:\s*` + numberPattern + dashPattern + numberPattern,
				order.x + `\s+` + numberPattern + dashPattern + numberPattern + `\s+` + order.y,
				order.x + `\s+` + numberPattern + dashPattern + order.y + `\s+` + numberPattern,
				order.x + `\s+` + numberPattern + `,\s+` + order.y + `\s+` + numberPattern,
			}
			for _, form := range forms {
				re, err := regexp.Compile(`(?i)` + form)
				if err != nil {
					continue
				}
				for _, loc := range re.FindAllStringSubmatchIndex(article, -1) {
					if _, dup := seen[loc[0]]; dup {
						continue
					}
					if !boundaryAt(article, loc[0], loc[1]) {
						continue
					}
					got1, err1 := strconv.ParseFloat(article[loc[2]:loc[3]], 64)
					got2, err2 := strconv.ParseFloat(article[loc[4]:loc[5]], 64)
					if err1 != nil || err2 != nil {
						continue
					}
					seen[loc[0]] = struct{}{}
					claims = append(claims, scoreClaim{
						start:  loc[0],
						end:    loc[1],
						text:   article[loc[0]:loc[1]],
						first:  order.first,
						second: order.second,
						got1:   got1,
						got2:   got2,
					})
				}
			}
		}
	}
	sort.Slice(claims, func(i, j int) bool { return claims[i].start < claims[j].start })
	return claims
}

// boundaryAt rejects matches that begin or end inside a longer word.
func boundaryAt(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// aliasPattern matches any of the names a side's team is known by.
func aliasPattern(record *truth.Record, side truth.Side) string {
	names := []string{side.Team}
	if team, ok := record.Team(side.RosterID); ok {
		names = append(names, team.Name(), team.TeamName, team.DisplayName, team.Username)
	}
	seen := make(map[string]struct{})
	var parts []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		parts = append(parts, strings.Join(quoteFields(name), `\s+`))
	}
	// Longest first so "Alpha Dogs" wins over "Alpha".
	sort.Slice(parts, func(i, j int) bool { return len(parts[i]) > len(parts[j]) })
	return `(?:\*\*)?(?:` + strings.Join(parts, "|") + `)(?:\*\*)?`
}

func quoteFields(name string) []string {
	fields := strings.Fields(name)
	for i, f := range fields {
		fields[i] = regexp.QuoteMeta(f)
	}
	return fields
}

// playerClaims checks "<Player> ... n points" statements, attributing each
// number to the nearest preceding player mention in the same sentence.
func playerClaims(article string, mentions []mention, tolerance float64) []Issue {
	var issues []Issue
	ordered := append([]mention(nil), mentions...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Start < ordered[j].Start })

	for i, m := range ordered {
		if !m.Bound {
			continue
		}
		limit := m.End + playerClaimWindow
		if limit > len(article) {
			limit = len(article)
		}
		if i+1 < len(ordered) && ordered[i+1].Start < limit {
			limit = ordered[i+1].Start
		}
		window := article[m.End:limit]
		if loc := sentenceEnd.FindStringIndex(window); loc != nil {
			window = window[:loc[0]]
		}
		claim := pointsClaim.FindStringSubmatchIndex(window)
		if claim == nil || qualified(window[:claim[0]]) {
			continue
		}
		got, err := strconv.ParseFloat(window[claim[2]:claim[3]], 64)
		if err != nil {
			continue
		}
		matched := false
		for _, p := range m.Players {
			if within(got, p.Points, tolerance) {
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		want := m.Players[0]
		issues = append(issues, Issue{
			Kind:     KindScoreMismatch,
			Location: strings.TrimSpace(m.Text + window[:claim[1]]),
			Fix:      fmt.Sprintf("%s scored %s points for %s", want.Name, truth.FormatPoints(want.Points), want.Team),
		})
	}
	return issues
}

// qualified reports a player claim that is not his score. Player
// projections are not part of the truth record, so they are skipped too.
func qualified(prefix string) bool {
	return hasQualifier(strings.ToLower(prefix), claimQualifiers)
}
