package audit

import "strings"

// stopTokens are capitalized words that never start or continue a player
// name on their own: sentence openers, calendar words, recap vocabulary, and
// NFL franchise names.
var stopTokens = toSet(`
a an and as at but by for from if in into it its of on or so the then this that these those to with
after before during while when where why how what who whose which meanwhile still even just also yet
now here there his her their our your my we they he she you i no not nor all both each every
monday tuesday wednesday thursday friday saturday sunday
january february march april may june july august september october november december
week weeks weekly one two three four five six seven eight nine ten eleven twelve thirteen fourteen
fifteen sixteen seventeen eighteen first second third fourth fifth sixth seventh eighth ninth tenth
last next final early late night morning afternoon
power rankings ranking rank lede recap wrap wrapup matchup matchups breakdown breakdowns
good bad ugly takeaways takeaway thoughts verdict bottom line mvp dud honorable mention
team teams league fantasy football game games points point bench starters starter lineup
playoff playoffs standings record records season overall division
qb qbs rb rbs wr wrs te tes flex k def dst idp ppr nfl afc nfc pf pa tnf snf mnf td tds ot
bye tie ties vs
cardinals falcons ravens bills panthers bears bengals browns cowboys broncos lions packers
texans colts jaguars chiefs raiders chargers rams dolphins vikings patriots saints giants jets
eagles steelers seahawks niners 49ers buccaneers bucs titans commanders
arizona atlanta baltimore buffalo carolina chicago cincinnati cleveland dallas denver detroit
houston indianapolis jacksonville miami minnesota philadelphia pittsburgh seattle tennessee
washington
`)

// stopPhrases are multi-word non-player phrases, matched after folding.
var stopPhrases = phraseSet(
	"power rankings",
	"green bay",
	"kansas city",
	"las vegas",
	"los angeles",
	"new england",
	"new orleans",
	"new york",
	"tampa bay",
	"san francisco",
	"monday night football",
	"sunday night football",
	"thursday night football",
	"red zone",
	"fantasy football",
	"the athletic",
	"fantasy pros",
)

func toSet(words string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(words) {
		set[w] = struct{}{}
	}
	return set
}

func phraseSet(phrases ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		set[p] = struct{}{}
	}
	return set
}
