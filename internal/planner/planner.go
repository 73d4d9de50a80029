// Package planner asks a generation model for a numbered recap outline and
// parses it into sections.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"sleeperrecap/internal/evidence"
	"sleeperrecap/internal/logging"
	"sleeperrecap/internal/prompts"
	"sleeperrecap/internal/services"
	"sleeperrecap/internal/services/llm"
	"sleeperrecap/internal/truth"
)

// FreeformHeading labels the single section produced from unnumbered text.
const FreeformHeading = "PLAN"

// Section is one outline entry.
type Section struct {
	Heading   string `json:"heading"`
	Directive string `json:"directive"`
}

// Outline is the parsed plan plus the raw model text.
type Outline struct {
	Sections []Section `json:"sections"`
	Raw      string    `json:"raw"`
}

// Runner executes a request against an ordered provider chain.
type Runner interface {
	Run(ctx context.Context, req llm.Request) (llm.Response, error)
}

// Planner runs the plan step.
type Planner struct {
	runner   Runner
	minWords int
	maxWords int
	logger   *slog.Logger
}

// New returns a planner. Word bounds are passed through to the prompt.
func New(runner Runner, minWords, maxWords int, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Planner{
		runner:   runner,
		minWords: minWords,
		maxWords: maxWords,
		logger:   logging.NewComponentLogger(logger, "planner"),
	}
}

// Plan requests an outline for the week.
func (p *Planner) Plan(ctx context.Context, record *truth.Record, ev *evidence.Record) (*Outline, error) {
	if record == nil {
		return nil, services.Wrap(services.ErrValidation, "plan", "plan", "Truth record is required", nil)
	}
	truthJSON, err := record.PromptJSON()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "plan", "render truth", "Could not render truth", err)
	}
	evidenceJSON, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "plan", "render evidence", "Could not render evidence", err)
	}
	user, err := prompts.Plan(prompts.PlanInput{
		Season:     record.Season,
		Week:       record.Week,
		LeagueName: record.LeagueName,
		Truth:      truthJSON,
		Evidence:   string(evidenceJSON),
		Matchups:   record.Labels(),
		MinWords:   p.minWords,
		MaxWords:   p.maxWords,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "plan", "render prompt", "Could not render plan prompt", err)
	}

	resp, err := p.runner.Run(ctx, llm.Request{
		System:   prompts.PlanSystem,
		User:     user,
		Validate: requireText,
	})
	if err != nil {
		return nil, err
	}
	outline := Parse(resp.Content)
	logging.WithContext(ctx, p.logger).Info("outline ready",
		logging.Int("sections", len(outline.Sections)),
		logging.String(logging.FieldModel, resp.Model))
	return &outline, nil
}

func requireText(content string) error {
	if strings.TrimSpace(content) == "" {
		return errEmptyPlan
	}
	return nil
}

var errEmptyPlan = errors.New("plan response was empty")

var (
	numberedLine = regexp.MustCompile(`^\s*(?:#+\s*)?(\d+)[.)]\s+(.+)$`)
	emphasis     = strings.NewReplacer("**", "", "__", "")
)

// Parse turns numbered plan text into sections. Unnumbered lines following a
// numbered one extend its directive. Text with no numbered lines becomes a
// single free-form section.
func Parse(text string) Outline {
	raw := strings.TrimSpace(text)
	outline := Outline{Raw: raw}
	for _, line := range strings.Split(raw, "\n") {
		if m := numberedLine.FindStringSubmatch(line); m != nil {
			heading, directive := splitHeading(emphasis.Replace(m[2]))
			outline.Sections = append(outline.Sections, Section{Heading: heading, Directive: directive})
			continue
		}
		trimmed := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*• "))
		if trimmed == "" || len(outline.Sections) == 0 {
			continue
		}
		last := &outline.Sections[len(outline.Sections)-1]
		last.Directive = strings.TrimSpace(last.Directive + " " + emphasis.Replace(trimmed))
	}
	if len(outline.Sections) == 0 && raw != "" {
		outline.Sections = []Section{{Heading: FreeformHeading, Directive: raw}}
	}
	return outline
}

func splitHeading(line string) (string, string) {
	line = strings.TrimSpace(line)
	if idx := strings.Index(line, ":"); idx > 0 {
		return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:])
	}
	return line, ""
}

// Text renders the outline as numbered plain text, preferring the raw
// model output when present.
func (o Outline) Text() string {
	if o.Raw != "" {
		return o.Raw
	}
	lines := make([]string, 0, len(o.Sections))
	for i, s := range o.Sections {
		line := fmt.Sprintf("%d. %s", i+1, s.Heading)
		if s.Directive != "" {
			line += ": " + s.Directive
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
