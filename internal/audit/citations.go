package audit

import (
	"fmt"
	"regexp"
	"strconv"

	"sleeperrecap/internal/evidence"
)

var citationMarker = regexp.MustCompile(`\[(\d+)\]`)

// checkCitations requires every [n] marker to resolve to a citation id.
// Articles without markers pass regardless of the citation list.
func checkCitations(article string, ev *evidence.Record) []Issue {
	markers := citationMarker.FindAllStringSubmatchIndex(article, -1)
	if len(markers) == 0 {
		return nil
	}
	ids := ev.CitationIDs()
	if len(ids) == 0 {
		loc := markers[0]
		return []Issue{{
			Kind:     KindMissingCitation,
			Location: snippet(article, loc[0], loc[1], 40),
			Fix:      "Remove the citation markers; no sources are available for this week",
		}}
	}

	var issues []Issue
	seen := make(map[int]struct{})
	for _, loc := range markers {
		id, err := strconv.Atoi(article[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		if _, ok := ids[id]; ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		issues = append(issues, Issue{
			Kind:     KindMissingCitation,
			Location: snippet(article, loc[0], loc[1], 40),
			Fix:      fmt.Sprintf("Remove [%d] or replace it with one of the listed citation ids", id),
		})
	}
	return issues
}
