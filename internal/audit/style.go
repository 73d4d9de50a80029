package audit

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const emDash = '—'

func checkStyle(article string, doc rendered, opts Options) []Issue {
	var issues []Issue

	if count, first := emDashes(article); count > 0 {
		issues = append(issues, Issue{
			Kind:     KindEmDash,
			Location: snippet(article, first, first+utf8.RuneLen(emDash), 40),
			Fix:      fmt.Sprintf("Replace all %d em dashes with commas, periods or parentheses", count),
		})
	}

	words := doc.wordCount()
	if opts.MinWords > 0 && words < opts.MinWords || opts.MaxWords > 0 && words > opts.MaxWords {
		issues = append(issues, Issue{
			Kind:     KindWordCount,
			Location: fmt.Sprintf("%d words", words),
			Fix:      fmt.Sprintf("Adjust the article length to between %d and %d words", opts.MinWords, opts.MaxWords),
		})
	}

	if doc.tables > 0 || hasPipeTable(article) {
		location := firstTableLine(article)
		if location == "" {
			location = "table"
		}
		issues = append(issues, Issue{
			Kind:     KindTableFormat,
			Location: location,
			Fix:      "Rewrite the table as prose or a numbered list",
		})
	}

	if !doc.rankingsHdr {
		issues = append(issues, Issue{
			Kind:     KindMissingPowerRankings,
			Location: "end of article",
			Fix:      "Add a **Power Rankings** section ranking every team",
		})
	}
	return issues
}

// emDashes counts em dashes that do not separate two numbers, returning the
// byte offset of the first.
func emDashes(article string) (int, int) {
	count, first := 0, -1
	for i, r := range article {
		if r != emDash {
			continue
		}
		if betweenDigits(article, i, i+utf8.RuneLen(r)) {
			continue
		}
		if first < 0 {
			first = i
		}
		count++
	}
	return count, first
}

func betweenDigits(text string, start, end int) bool {
	before := strings.TrimRight(text[:start], " ")
	after := strings.TrimLeft(text[end:], " ")
	if before == "" || after == "" {
		return false
	}
	prev, _ := utf8.DecodeLastRuneInString(before)
	next, _ := utf8.DecodeRuneInString(after)
	return unicode.IsDigit(prev) && unicode.IsDigit(next)
}

func hasPipeTable(article string) bool {
	return firstTableLine(article) != ""
}

func firstTableLine(article string) string {
	for _, line := range strings.Split(article, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "|") && strings.Count(line, "|") >= 2 {
			return line
		}
	}
	return ""
}
