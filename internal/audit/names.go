package audit

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldName lowercases, strips diacritics, drops punctuation inside names,
// and collapses whitespace. "Amon-Ra St. Brown" folds to "amonra st brown".
func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	stripped = cases.Fold().String(stripped)
	var sb strings.Builder
	space := false
	for _, r := range stripped {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			space = false
			sb.WriteRune(r)
		case r == '.' || r == '\'' || r == '’' || r == '-':
			// joined: "D.J." -> "dj", "Ja'Marr" -> "jamarr"
		default:
			space = true
		}
	}
	return sb.String()
}

var nameSuffixes = map[string]struct{}{
	"jr": {}, "sr": {}, "ii": {}, "iii": {}, "iv": {}, "v": {},
}

// nameTokens folds s and drops a trailing generational suffix.
func nameTokens(s string) []string {
	tokens := strings.Fields(foldName(s))
	for len(tokens) > 1 {
		if _, ok := nameSuffixes[tokens[len(tokens)-1]]; !ok {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

// nicknames maps informal first names to a canonical form. Both sides of a
// comparison are canonicalized, so "Mike Evans" and "Michael Evans" match.
var nicknames = map[string]string{
	"mike":    "michael",
	"mikey":   "michael",
	"chris":   "christopher",
	"matt":    "matthew",
	"nick":    "nicholas",
	"nicky":   "nicholas",
	"josh":    "joshua",
	"joe":     "joseph",
	"joey":    "joseph",
	"rob":     "robert",
	"bob":     "robert",
	"bobby":   "robert",
	"robbie":  "robert",
	"will":    "william",
	"bill":    "william",
	"billy":   "william",
	"dan":     "daniel",
	"danny":   "daniel",
	"dave":    "david",
	"jim":     "james",
	"jimmy":   "james",
	"jamie":   "james",
	"tom":     "thomas",
	"tommy":   "thomas",
	"tony":    "anthony",
	"ben":     "benjamin",
	"benny":   "benjamin",
	"sam":     "samuel",
	"sammy":   "samuel",
	"alex":    "alexander",
	"andy":    "andrew",
	"drew":    "andrew",
	"zach":    "zachary",
	"zack":    "zachary",
	"jon":     "jonathan",
	"johnny":  "john",
	"jack":    "john",
	"steve":   "steven",
	"stephen": "steven",
	"greg":    "gregory",
	"jeff":    "jeffrey",
	"ken":     "kenneth",
	"kenny":   "kenneth",
	"pat":     "patrick",
	"rich":    "richard",
	"rick":    "richard",
	"ricky":   "richard",
	"dick":    "richard",
	"ed":      "edward",
	"eddie":   "edward",
	"gabe":    "gabriel",
	"cam":     "cameron",
	"tim":     "timothy",
	"timmy":   "timothy",
	"ron":     "ronald",
	"ronnie":  "ronald",
	"jake":    "jacob",
}

func canonicalFirst(name string) string {
	if canon, ok := nicknames[name]; ok {
		return canon
	}
	return name
}

// nameKeys returns the lookup keys under which a rostered name is findable.
func nameKeys(full string) []string {
	tokens := nameTokens(full)
	if len(tokens) == 0 {
		return nil
	}
	keys := []string{strings.Join(tokens, " ")}
	if len(tokens) < 2 {
		return keys
	}
	rest := strings.Join(tokens[1:], " ")
	keys = append(keys, canonicalFirst(tokens[0])+" "+rest)
	first := []rune(tokens[0])
	keys = append(keys, string(first[0])+" "+rest)
	return keys
}

// candidateKeys returns the keys to try for a phrase found in an article.
func candidateKeys(phrase string) []string {
	tokens := nameTokens(phrase)
	if len(tokens) == 0 {
		return nil
	}
	keys := []string{strings.Join(tokens, " ")}
	if len(tokens) >= 2 {
		rest := strings.Join(tokens[1:], " ")
		keys = append(keys, canonicalFirst(tokens[0])+" "+rest)
	}
	return keys
}
