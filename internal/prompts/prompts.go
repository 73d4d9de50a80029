package prompts

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("prompts").Funcs(template.FuncMap{
	"join": strings.Join,
	"add":  func(a, b int) int { return a + b },
}).ParseFS(templateFS, "templates/*.tmpl"))

// ResearchPlayer is one key player listed in the research query.
type ResearchPlayer struct {
	Name     string
	Team     string
	Position string
	NFLTeam  string
	Points   float64
	Starter  bool
}

// ResearchInput fills the research template.
type ResearchInput struct {
	Season  int
	Week    int
	Players []ResearchPlayer
}

// PlanInput fills the outline template. Truth and Evidence are pre-rendered
// JSON documents.
type PlanInput struct {
	Season     int
	Week       int
	LeagueName string
	Truth      string
	Evidence   string
	// Matchups holds one "A vs B" label per pairing.
	Matchups []string
	MinWords int
	MaxWords int
}

// WriteInput fills the article template.
type WriteInput struct {
	Season     int
	Week       int
	LeagueName string
	Truth      string
	Evidence   string
	Citations  string
	Plan       string
	// Headers are the exact matchup header lines the article must use.
	Headers  []string
	Teams    []string
	MinWords int
	MaxWords int
	Degraded bool
}

// PatchInput fills the repair template.
type PatchInput struct {
	Article  string
	Issues   string
	Truth    string
	Evidence string
}

// Research renders the research user prompt.
func Research(in ResearchInput) (string, error) { return render("research.tmpl", in) }

// Plan renders the outline user prompt.
func Plan(in PlanInput) (string, error) { return render("plan.tmpl", in) }

// Write renders the article user prompt.
func Write(in WriteInput) (string, error) { return render("write.tmpl", in) }

// Patch renders the repair user prompt.
func Patch(in PatchInput) (string, error) { return render("patch.tmpl", in) }

func render(name string, data any) (string, error) {
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(sb.String()), nil
}
