package audit

import (
	"bytes"
	"log/slog"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"sleeperrecap/internal/logging"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// rendered is the article as a browser would see it.
type rendered struct {
	text        string
	tables      int
	rankingsHdr bool
}

// renderMarkdown converts article to HTML and inspects the result. When
// rendering fails the raw markdown is used for counting.
func renderMarkdown(article string, logger *slog.Logger) rendered {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(article), &buf); err != nil {
		logging.WarnWithContext(logger, "markdown render failed", "audit_render",
			logging.String(logging.FieldErrorHint, "word count uses raw markdown"),
			logging.Error(err))
		return rendered{text: article, rankingsHdr: rawRankingsHeading(article)}
	}
	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		logging.WarnWithContext(logger, "html parse failed", "audit_render",
			logging.String(logging.FieldErrorHint, "word count uses raw markdown"),
			logging.Error(err))
		return rendered{text: article, rankingsHdr: rawRankingsHeading(article)}
	}

	out := rendered{
		text:   doc.Text(),
		tables: doc.Find("table").Length(),
	}
	doc.Find("h1, h2, h3, h4, h5, h6, strong, b").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if isRankingsLabel(s.Text()) {
			out.rankingsHdr = true
			return false
		}
		return true
	})
	return out
}

func (r rendered) wordCount() int {
	n := 0
	for _, field := range strings.Fields(r.text) {
		if strings.IndexFunc(field, func(c rune) bool { return unicode.IsLetter(c) || unicode.IsDigit(c) }) >= 0 {
			n++
		}
	}
	return n
}

func isRankingsLabel(text string) bool {
	return strings.Contains(strings.ToLower(text), "power rankings")
}

func rawRankingsHeading(article string) bool {
	for _, line := range strings.Split(article, "\n") {
		line = strings.TrimSpace(line)
		if (strings.HasPrefix(line, "#") || strings.HasPrefix(line, "**")) && isRankingsLabel(line) {
			return true
		}
	}
	return false
}
