// Package writer drafts the weekly article and applies the single repair pass
// after a failed audit.
package writer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sleeperrecap/internal/audit"
	"sleeperrecap/internal/evidence"
	"sleeperrecap/internal/logging"
	"sleeperrecap/internal/planner"
	"sleeperrecap/internal/prompts"
	"sleeperrecap/internal/services"
	"sleeperrecap/internal/services/llm"
	"sleeperrecap/internal/truth"
)

// Default word range for an article.
const (
	DefaultMinWords = 900
	DefaultMaxWords = 1500
)

// Draft is a generated article.
type Draft struct {
	Text      string    `json:"text"`
	WordCount int       `json:"word_count"`
	Citations []int     `json:"citations,omitempty"`
	Provider  string    `json:"provider,omitempty"`
	Model     string    `json:"model,omitempty"`
	Patched   bool      `json:"patched"`
	CreatedAt time.Time `json:"created_at"`
}

// NewDraft wraps article text, deriving the word count and cited ids.
func NewDraft(text string) *Draft {
	text = strings.TrimSpace(text)
	return &Draft{
		Text:      text,
		WordCount: len(strings.Fields(text)),
		Citations: citedIDs(text),
		CreatedAt: time.Now().UTC(),
	}
}

// Runner executes a request against an ordered provider chain.
type Runner interface {
	Run(ctx context.Context, req llm.Request) (llm.Response, error)
}

// Writer runs the write and patch steps. The two steps may use different
// provider chains.
type Writer struct {
	write    Runner
	patch    Runner
	minWords int
	maxWords int
	logger   *slog.Logger
}

// New returns a writer. A nil patch runner reuses the write runner.
func New(write, patch Runner, minWords, maxWords int, logger *slog.Logger) *Writer {
	if patch == nil {
		patch = write
	}
	if minWords <= 0 {
		minWords = DefaultMinWords
	}
	if maxWords < minWords {
		maxWords = DefaultMaxWords
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Writer{
		write:    write,
		patch:    patch,
		minWords: minWords,
		maxWords: maxWords,
		logger:   logging.NewComponentLogger(logger, "writer"),
	}
}

// Write drafts the article from the truth, evidence, and outline.
func (w *Writer) Write(ctx context.Context, record *truth.Record, ev *evidence.Record, outline *planner.Outline) (*Draft, error) {
	if record == nil {
		return nil, services.Wrap(services.ErrValidation, "write", "write", "Truth record is required", nil)
	}
	truthJSON, err := record.PromptJSON()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "write", "render truth", "Could not render truth", err)
	}
	evidenceJSON, err := renderEvidence(ev)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "write", "render evidence", "Could not render evidence", err)
	}
	plan := ""
	if outline != nil {
		plan = outline.Text()
	}
	user, err := prompts.Write(prompts.WriteInput{
		Season:     record.Season,
		Week:       record.Week,
		LeagueName: record.LeagueName,
		Truth:      truthJSON,
		Evidence:   evidenceJSON,
		Citations:  citationList(ev),
		Plan:       plan,
		Headers:    record.Headers(),
		Teams:      record.TeamLabels(),
		MinWords:   w.minWords,
		MaxWords:   w.maxWords,
		Degraded:   ev == nil || ev.Degraded,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "write", "render prompt", "Could not render write prompt", err)
	}

	resp, err := w.write.Run(ctx, llm.Request{
		System:   prompts.WriteSystem,
		User:     user,
		Validate: requireArticle,
	})
	if err != nil {
		return nil, err
	}
	draft := NewDraft(resp.Content)
	draft.Provider = resp.Provider
	draft.Model = resp.Model
	logging.WithContext(ctx, w.logger).Info("draft ready",
		logging.Int("word_count", draft.WordCount),
		logging.Int("citations", len(draft.Citations)),
		logging.String(logging.FieldModel, resp.Model))
	return draft, nil
}

// Patch applies minimal edits to draft for every issue in report. The
// returned draft is marked patched; draft itself is left untouched.
func (w *Writer) Patch(ctx context.Context, draft *Draft, report audit.Report, record *truth.Record, ev *evidence.Record) (*Draft, error) {
	if draft == nil || record == nil {
		return nil, services.Wrap(services.ErrValidation, "patch", "patch", "Draft and truth are required", nil)
	}
	issuesJSON, err := json.MarshalIndent(report.Issues, "", "  ")
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "patch", "render issues", "Could not render audit issues", err)
	}
	truthJSON, err := record.PromptJSON()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "patch", "render truth", "Could not render truth", err)
	}
	evidenceJSON, err := renderEvidence(ev)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "patch", "render evidence", "Could not render evidence", err)
	}
	user, err := prompts.Patch(prompts.PatchInput{
		Article:  draft.Text,
		Issues:   string(issuesJSON),
		Truth:    truthJSON,
		Evidence: evidenceJSON,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "patch", "render prompt", "Could not render patch prompt", err)
	}

	resp, err := w.patch.Run(ctx, llm.Request{
		System:   prompts.PatchSystem,
		User:     user,
		Validate: requireArticle,
	})
	if err != nil {
		return nil, err
	}
	patched := NewDraft(resp.Content)
	patched.Provider = resp.Provider
	patched.Model = resp.Model
	patched.Patched = true
	logging.WithContext(ctx, w.logger).Info("draft patched",
		logging.Int("issues", len(report.Issues)),
		logging.Int("word_count", patched.WordCount),
		logging.String(logging.FieldModel, resp.Model))
	return patched, nil
}

var errEmptyArticle = errors.New("article response was empty")

func requireArticle(content string) error {
	if strings.TrimSpace(content) == "" {
		return errEmptyArticle
	}
	return nil
}

func renderEvidence(ev *evidence.Record) (string, error) {
	if ev == nil {
		return "{}", nil
	}
	data, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func citationList(ev *evidence.Record) string {
	if ev == nil || len(ev.Citations) == 0 {
		return ""
	}
	lines := make([]string, 0, len(ev.Citations))
	for _, c := range ev.Citations {
		label := c.Title
		if label == "" {
			label = c.Publisher
		}
		line := fmt.Sprintf("[%d] %s", c.ID, label)
		if c.URL != "" {
			line += " (" + c.URL + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
