package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"sleeperrecap/internal/audit"
	"sleeperrecap/internal/textutil"
	"sleeperrecap/internal/truth"
)

// FrontMatter is the YAML header of a published recap.
type FrontMatter struct {
	Title     string    `yaml:"title"`
	Slug      string    `yaml:"slug"`
	Date      time.Time `yaml:"date"`
	League    string    `yaml:"league,omitempty"`
	LeagueID  string    `yaml:"league_id"`
	Season    int       `yaml:"season"`
	Week      int       `yaml:"week"`
	Verdict   string    `yaml:"audit_status,omitempty"`
	Issues    int       `yaml:"audit_issues,omitempty"`
	WordCount int       `yaml:"word_count,omitempty"`
	Tags      []string  `yaml:"tags,omitempty"`
	Draft     bool      `yaml:"draft"`
}

// NewFrontMatter derives publishing metadata for a week. A nil report leaves
// the audit fields empty; a failing report marks the post as a draft.
func NewFrontMatter(record *truth.Record, article string, report *audit.Report, now time.Time) FrontMatter {
	title := ArticleTitle(article)
	if title == "" {
		league := record.LeagueName
		if league == "" {
			league = "League " + record.LeagueID
		}
		title = fmt.Sprintf("%s Week %d Recap", league, record.Week)
	}
	fm := FrontMatter{
		Title:    title,
		Slug:     fmt.Sprintf("%d-week-%02d-%s", record.Season, record.Week, textutil.Slug(title)),
		Date:     now.UTC().Truncate(time.Second),
		League:   record.LeagueName,
		LeagueID: record.LeagueID,
		Season:   record.Season,
		Week:     record.Week,
		Tags:     []string{"fantasy-football", fmt.Sprintf("week-%d", record.Week)},
	}
	if report != nil {
		fm.Verdict = string(report.Verdict)
		fm.Issues = len(report.Issues)
		fm.WordCount = report.WordCount
		fm.Draft = !report.Passed()
	}
	return fm
}

// FileName is the published markdown file name.
func (fm FrontMatter) FileName() string {
	return fm.Slug + ".md"
}

// WritePost writes front matter followed by the article body. A leading
// top-level heading is dropped since the title carries it.
func WritePost(w io.Writer, fm FrontMatter, article string) error {
	header, err := yaml.Marshal(fm)
	if err != nil {
		return fmt.Errorf("encode front matter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(header)
	buf.WriteString("---\n\n")
	buf.WriteString(strings.TrimSpace(stripTitle(article)))
	buf.WriteString("\n")
	_, err = w.Write(buf.Bytes())
	return err
}

// ReadFrontMatter splits a published post into its header and body.
func ReadFrontMatter(post []byte) (FrontMatter, string, error) {
	var fm FrontMatter
	text := string(post)
	if !strings.HasPrefix(text, "---\n") {
		return fm, text, fmt.Errorf("missing front matter")
	}
	rest := text[len("---\n"):]
	end := strings.Index(rest, "\n---\n")
	if end < 0 {
		return fm, text, fmt.Errorf("unterminated front matter")
	}
	if err := yaml.Unmarshal([]byte(rest[:end+1]), &fm); err != nil {
		return fm, text, fmt.Errorf("decode front matter: %w", err)
	}
	return fm, strings.TrimLeft(rest[end+len("\n---\n"):], "\n"), nil
}

// ArticleTitle returns the text of a leading "# " heading, if any.
func ArticleTitle(article string) string {
	for _, line := range strings.Split(article, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
		return ""
	}
	return ""
}

func stripTitle(article string) string {
	trimmed := strings.TrimLeft(article, "\n\t ")
	if !strings.HasPrefix(trimmed, "# ") {
		return article
	}
	if i := strings.IndexByte(trimmed, '\n'); i >= 0 {
		return trimmed[i+1:]
	}
	return ""
}
