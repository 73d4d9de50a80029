package export

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"sleeperrecap/internal/evidence"
	"sleeperrecap/internal/textutil"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

var citationMarker = regexp.MustCompile(`\[(\d+)\]`)

// Page is the data rendered into the HTML shell.
type Page struct {
	Title   string
	Body    template.HTML
	Sources []evidence.Citation
	Footer  string
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { max-width: 46rem; margin: 2rem auto; padding: 0 1rem; font-family: Georgia, serif; line-height: 1.55; }
table { border-collapse: collapse; } th, td { border: 1px solid #ccc; padding: .25rem .5rem; }
.sources { font-size: .9rem; } footer { color: #666; font-size: .8rem; margin-top: 2rem; }
</style>
</head>
<body>
<article>
{{.Body}}
</article>
{{- if .Sources}}
<section class="sources">
<h2 id="sources">Sources</h2>
<ol>
{{- range .Sources}}
<li id="ref-{{.ID}}" value="{{.ID}}">{{if .URL}}<a href="{{.URL}}" rel="noopener">{{if .Title}}{{.Title}}{{else}}{{.URL}}{{end}}</a>{{else}}{{.Title}}{{end}}{{if .Publisher}} ({{.Publisher}}){{end}}</li>
{{- end}}
</ol>
</section>
{{- end}}
{{- if .Footer}}
<footer>{{.Footer}}</footer>
{{- end}}
</body>
</html>
`))

// RenderHTML converts a markdown recap into a standalone HTML page. Citation
// markers link to the matching source when ev lists it.
func RenderHTML(w io.Writer, article, title string, ev *evidence.Record, footer string) error {
	linked := linkCitations(article, ev.CitationIDs())

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(linked), &buf); err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	body, err := decorate(buf.String())
	if err != nil {
		return err
	}

	page := Page{Title: title, Body: template.HTML(body), Footer: footer}
	if ev != nil {
		page.Sources = ev.Citations
	}
	if strings.TrimSpace(page.Title) == "" {
		page.Title = "Weekly Recap"
	}
	return pageTemplate.Execute(w, page)
}

// linkCitations rewrites known "[n]" markers as links to their source entry.
// Markers that are already link text or followed by a link target are kept.
func linkCitations(article string, known map[int]struct{}) string {
	var b strings.Builder
	last := 0
	for _, loc := range citationMarker.FindAllStringSubmatchIndex(article, -1) {
		start, end := loc[0], loc[1]
		if end < len(article) && article[end] == '(' {
			continue
		}
		id, err := strconv.Atoi(article[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		if _, ok := known[id]; !ok {
			continue
		}
		b.WriteString(article[last:start])
		fmt.Fprintf(&b, "[\\[%d\\]](#ref-%d)", id, id)
		last = end
	}
	b.WriteString(article[last:])
	return b.String()
}

// decorate gives headings stable anchors and marks outbound links.
func decorate(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parse rendered html: %w", err)
	}
	seen := make(map[string]int)
	doc.Find("h1, h2, h3").Each(func(_ int, s *goquery.Selection) {
		id := textutil.Slug(s.Text())
		if n := seen[id]; n > 0 {
			seen[id] = n + 1
			id = fmt.Sprintf("%s-%d", id, n+1)
		} else {
			seen[id] = 1
		}
		s.SetAttr("id", id)
	})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
			s.SetAttr("rel", "noopener")
		}
	})
	return doc.Find("body").Html()
}
