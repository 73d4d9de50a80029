package audit

import (
	"log/slog"
	"strings"

	"sleeperrecap/internal/evidence"
	"sleeperrecap/internal/logging"
	"sleeperrecap/internal/truth"
)

// Kind identifies the check that produced an issue.
type Kind string

// Issue kinds.
const (
	KindUnboundEntity        Kind = "UNBOUND_ENTITY"
	KindScoreMismatch        Kind = "SCORE_MISMATCH"
	KindTeamAttribution      Kind = "INCORRECT_TEAM_ATTRIBUTION"
	KindRecordMismatch       Kind = "INCORRECT_RECORD"
	KindMissingCitation      Kind = "MISSING_CITATION"
	KindEmDash               Kind = "EM_DASH"
	KindWordCount            Kind = "WORD_COUNT"
	KindTableFormat          Kind = "TABLE_FORMAT"
	KindMissingPowerRankings Kind = "MISSING_POWER_RANKINGS"
)

// Verdict is the overall audit result.
type Verdict string

// Verdicts.
const (
	VerdictPass Verdict = "PASS"
	VerdictFail Verdict = "FAIL"
)

// DefaultTolerance is the absolute score tolerance used when none is set.
const DefaultTolerance = 0.5

// Issue is a single finding.
type Issue struct {
	Kind     Kind   `json:"kind"`
	Location string `json:"location_snippet"`
	Fix      string `json:"fix_instruction"`
}

// Report is the outcome of one audit pass. Reports are never modified after
// Audit returns them.
type Report struct {
	Verdict   Verdict `json:"status"`
	Issues    []Issue `json:"issues"`
	WordCount int     `json:"word_count"`
}

// Passed reports whether the verdict is PASS.
func (r Report) Passed() bool { return r.Verdict == VerdictPass }

// Count returns the number of issues of kind.
func (r Report) Count(kind Kind) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Kind == kind {
			n++
		}
	}
	return n
}

// Options tune the checks.
type Options struct {
	Tolerance   float64
	MinWords    int
	MaxWords    int
	StyleChecks bool
}

// Auditor runs the deterministic checks.
type Auditor struct {
	opts   Options
	logger *slog.Logger
}

// New returns an auditor. A non-positive tolerance selects DefaultTolerance.
func New(opts Options, logger *slog.Logger) *Auditor {
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Auditor{opts: opts, logger: logging.NewComponentLogger(logger, "audit")}
}

// Audit checks article against record and ev. ev may be nil, in which case
// the citation list is treated as empty.
func (a *Auditor) Audit(article string, record *truth.Record, ev *evidence.Record) Report {
	idx := newIndex(record)
	mentions := extractMentions(article, idx)

	var issues []Issue
	issues = append(issues, checkEntities(mentions)...)
	teams := findTeamMentions(article, record, mentions)
	scoreIssues, covered := checkScores(article, record, teams, mentions, a.opts.Tolerance)
	issues = append(issues, scoreIssues...)
	issues = append(issues, checkAttribution(article, teams, mentions)...)
	issues = append(issues, checkRecords(article, record, teams, covered)...)
	issues = append(issues, checkCitations(article, ev)...)

	doc := renderMarkdown(article, a.logger)
	words := doc.wordCount()
	if a.opts.StyleChecks {
		issues = append(issues, checkStyle(article, doc, a.opts)...)
	}

	report := Report{Verdict: VerdictPass, Issues: issues, WordCount: words}
	if len(issues) > 0 {
		report.Verdict = VerdictFail
	}
	if report.Issues == nil {
		report.Issues = []Issue{}
	}

	a.logger.Info("audit complete",
		logging.String("verdict", string(report.Verdict)),
		logging.Int("issues", len(report.Issues)),
		logging.Int("word_count", words))
	return report
}

// snippet returns the text around [start,end) with about radius bytes of
// context on each side, widened to whole words.
func snippet(text string, start, end, radius int) string {
	from := start - radius
	if from < 0 {
		from = 0
	}
	to := end + radius
	if to > len(text) {
		to = len(text)
	}
	for from > 0 && !isBoundary(text[from-1]) {
		from--
	}
	for to < len(text) && !isBoundary(text[to]) {
		to++
	}
	return strings.Join(strings.Fields(text[from:to]), " ")
}

func isBoundary(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t'
}
