package audit

import (
	"fmt"
	"regexp"
	"strings"

	"sleeperrecap/internal/truth"
)

// maxWindow is the longest token run tried as a single name.
const maxWindow = 6

type index struct {
	players map[string][]truth.TeamPlayer
	// initials maps "j jefferson" style keys; only consulted for candidates
	// whose first token is a single letter.
	initials map[string][]truth.TeamPlayer
	teams    map[string]struct{}
	// teamTokens holds folded team/owner names for sub-phrase matching.
	teamTokens [][]string
}

func newIndex(record *truth.Record) *index {
	idx := &index{
		players:  make(map[string][]truth.TeamPlayer),
		initials: make(map[string][]truth.TeamPlayer),
		teams:    make(map[string]struct{}),
	}
	if record == nil {
		return idx
	}
	for _, p := range record.AllPlayers() {
		keys := nameKeys(p.Name)
		for i, key := range keys {
			if i == 2 {
				idx.initials[key] = append(idx.initials[key], p)
				continue
			}
			idx.players[key] = append(idx.players[key], p)
		}
	}
	for _, name := range record.TeamNames() {
		folded := foldName(name)
		if folded == "" {
			continue
		}
		idx.teams[folded] = struct{}{}
		idx.teamTokens = append(idx.teamTokens, strings.Fields(folded))
	}
	return idx
}

// lookupPlayer resolves a phrase to rostered players.
func (idx *index) lookupPlayer(phrase string) []truth.TeamPlayer {
	keys := candidateKeys(phrase)
	for _, key := range keys {
		if found := idx.players[key]; len(found) > 0 {
			return found
		}
	}
	if len(keys) > 0 {
		tokens := strings.Fields(keys[0])
		if len(tokens) >= 2 && len([]rune(tokens[0])) == 1 {
			if found := idx.initials[keys[0]]; len(found) > 0 {
				return found
			}
		}
	}
	return nil
}

// isTeamPhrase reports whether phrase is a team or owner name, or a
// contiguous part of one.
func (idx *index) isTeamPhrase(phrase string) bool {
	folded := foldName(phrase)
	if folded == "" {
		return false
	}
	if _, ok := idx.teams[folded]; ok {
		return true
	}
	tokens := strings.Fields(folded)
	for _, team := range idx.teamTokens {
		if containsRun(team, tokens) {
			return true
		}
	}
	return false
}

func containsRun(haystack, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j := range needle {
			if haystack[i+j] != needle[j] {
				continue outer
			}
		}
		return true
	}
	return false
}

func isStopPhrase(phrase string) bool {
	_, ok := stopPhrases[foldName(phrase)]
	return ok
}

func isStopToken(token string) bool {
	_, ok := stopTokens[foldName(token)]
	return ok
}

// mention is a capitalized phrase found in the article. Players is empty for
// an unbound mention.
type mention struct {
	Text    string
	Start   int
	End     int
	Players []truth.TeamPlayer
	Bound   bool
}

// capitalizedRun matches runs of capitalized tokens on one line. Tokens may
// carry inner apostrophes, hyphens, and periods ("Ja'Marr", "Amon-Ra",
// "St.", "J.").
var capitalizedRun = regexp.MustCompile(`\p{Lu}[\p{L}\p{M}'’.\-]*(?:[ \t]+\p{Lu}[\p{L}\p{M}'’.\-]*)+`)

var tokenPattern = regexp.MustCompile(`\p{Lu}[\p{L}\p{M}'’.\-]*`)

type token struct {
	text       string
	start, end int
}

// extractMentions finds every multi-word capitalized phrase and classifies
// its parts as players, teams, stop phrases, or unbound names.
func extractMentions(article string, idx *index) []mention {
	var out []mention
	for _, loc := range capitalizedRun.FindAllStringIndex(article, -1) {
		run := article[loc[0]:loc[1]]
		var tokens []token
		for _, t := range tokenPattern.FindAllStringIndex(run, -1) {
			text := trimToken(run[t[0]:t[1]])
			tokens = append(tokens, token{text: text, start: loc[0] + t[0], end: loc[0] + t[0] + len(text)})
		}
		out = append(out, classifyRun(article, tokens, idx)...)
	}
	return out
}

// trimToken drops possessives and trailing sentence punctuation that the
// token pattern swallowed.
func trimToken(t string) string {
	for _, suffix := range []string{"'s", "’s"} {
		if strings.HasSuffix(t, suffix) {
			return strings.TrimSuffix(t, suffix)
		}
	}
	trimmed := strings.TrimRight(t, "'’-")
	if strings.HasSuffix(trimmed, ".") && len([]rune(trimmed)) > 3 {
		folded := foldName(trimmed)
		if _, ok := nameSuffixes[folded]; !ok && folded != "st" {
			trimmed = strings.TrimSuffix(trimmed, ".")
		}
	}
	return trimmed
}

func phraseOf(tokens []token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.text
	}
	return strings.Join(parts, " ")
}

// matchAt returns the length of the longest known phrase starting at i, and
// the players it resolves to when it is a player.
func matchAt(tokens []token, i int, idx *index) (int, []truth.TeamPlayer) {
	limit := len(tokens) - i
	if limit > maxWindow {
		limit = maxWindow
	}
	for w := limit; w >= 2; w-- {
		phrase := phraseOf(tokens[i : i+w])
		if players := idx.lookupPlayer(phrase); len(players) > 0 {
			return w, players
		}
		if idx.isTeamPhrase(phrase) || isStopPhrase(phrase) {
			return w, nil
		}
	}
	if idx.isTeamPhrase(tokens[i].text) {
		return 1, nil
	}
	return 0, nil
}

func classifyRun(article string, tokens []token, idx *index) []mention {
	var out []mention
	i := 0
	for i < len(tokens) {
		if w, players := matchAt(tokens, i, idx); w > 0 {
			if len(players) > 0 {
				out = append(out, mention{
					Text:    article[tokens[i].start:tokens[i+w-1].end],
					Start:   tokens[i].start,
					End:     tokens[i+w-1].end,
					Players: players,
					Bound:   true,
				})
			}
			i += w
			continue
		}
		if isStopToken(tokens[i].text) {
			i++
			continue
		}
		// Collect unknown tokens until a stop word or a known phrase begins.
		j := i + 1
		for j < len(tokens) && !isStopToken(tokens[j].text) {
			if w, _ := matchAt(tokens, j, idx); w > 0 {
				break
			}
			j++
		}
		if j-i >= 2 {
			out = append(out, mention{
				Text:  article[tokens[i].start:tokens[j-1].end],
				Start: tokens[i].start,
				End:   tokens[j-1].end,
			})
		}
		i = j
	}
	return out
}

func checkEntities(mentions []mention) []Issue {
	var issues []Issue
	seen := make(map[string]struct{})
	for _, m := range mentions {
		if m.Bound {
			continue
		}
		key := foldName(m.Text)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		issues = append(issues, Issue{
			Kind:     KindUnboundEntity,
			Location: m.Text,
			Fix:      fmt.Sprintf("Remove or replace %q; no player by that name was on a roster this week", m.Text),
		})
	}
	return issues
}
