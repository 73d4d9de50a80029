package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"sleeperrecap/internal/audit"
	"sleeperrecap/internal/evidence"
	"sleeperrecap/internal/history"
	"sleeperrecap/internal/logging"
	"sleeperrecap/internal/planner"
	"sleeperrecap/internal/services"
	"sleeperrecap/internal/services/llm"
	"sleeperrecap/internal/stepcache"
	"sleeperrecap/internal/truth"
	"sleeperrecap/internal/writer"
)

// Step names used in logs, the context, and Result.Reused.
const (
	StepTruth    = "truth"
	StepEvidence = "evidence"
	StepPlan     = "plan"
	StepWrite    = "write"
	StepAudit    = "audit"
	StepPatch    = "patch"
)

// TruthBuilder builds the week's ground truth.
type TruthBuilder interface {
	Build(ctx context.Context, leagueID string, season, week int) (*truth.Record, error)
}

// EvidenceGatherer researches the week's key players.
type EvidenceGatherer interface {
	Gather(ctx context.Context, record *truth.Record) (*evidence.Record, error)
}

// OutlinePlanner produces the article outline.
type OutlinePlanner interface {
	Plan(ctx context.Context, record *truth.Record, ev *evidence.Record) (*planner.Outline, error)
}

// ArticleWriter drafts and repairs the article.
type ArticleWriter interface {
	Write(ctx context.Context, record *truth.Record, ev *evidence.Record, outline *planner.Outline) (*writer.Draft, error)
	Patch(ctx context.Context, draft *writer.Draft, report audit.Report, record *truth.Record, ev *evidence.Record) (*writer.Draft, error)
}

// Auditor checks a draft.
type Auditor interface {
	Audit(article string, record *truth.Record, ev *evidence.Record) audit.Report
}

// Ledger records run outcomes.
type Ledger interface {
	Begin(ctx context.Context, run history.Run) error
	Finish(ctx context.Context, run history.Run) error
}

// Meter reports model usage for the run.
type Meter interface {
	Total() (calls int, costUSD float64)
	Calls() []llm.CallRecord
}

// StepUsage is the model usage of one chain step.
type StepUsage struct {
	Step    string
	Calls   int
	CostUSD float64
}

// usageByStep groups calls by step in the order steps first appear.
func usageByStep(calls []llm.CallRecord) []StepUsage {
	var out []StepUsage
	index := make(map[string]int)
	for _, c := range calls {
		i, ok := index[c.Step]
		if !ok {
			i = len(out)
			index[c.Step] = i
			out = append(out, StepUsage{Step: c.Step})
		}
		out[i].Calls++
		out[i].CostUSD += c.CostUSD
	}
	return out
}

// Deps wires the step implementations. Ledger and Meter are optional.
type Deps struct {
	Truth     TruthBuilder
	Evidence  EvidenceGatherer
	Planner   OutlinePlanner
	Writer    ArticleWriter
	Auditor   Auditor
	Ledger    Ledger
	Meter     Meter
	OutputDir string
	Logger    *slog.Logger
}

// Options select the week to recap.
type Options struct {
	LeagueID string
	Season   int
	Week     int
	// Force discards every cached artifact before running.
	Force bool
}

func (o Options) validate() error {
	if strings.TrimSpace(o.LeagueID) == "" {
		return services.Wrap(services.ErrConfiguration, "pipeline", "options",
			"No league id: pass --league-id, run `sleeperrecap league set`, or set SLEEPER_LEAGUE_ID", nil)
	}
	if o.Week < 1 || o.Week > truth.MaxWeek {
		return services.Wrap(services.ErrValidation, "pipeline", "options",
			fmt.Sprintf("Week must be between 1 and %d, got %d", truth.MaxWeek, o.Week), nil)
	}
	if o.Season < 2000 {
		return services.Wrap(services.ErrValidation, "pipeline", "options",
			fmt.Sprintf("Invalid season %d", o.Season), nil)
	}
	return nil
}

// Result is the delivered artifact set.
type Result struct {
	RunID     string
	Dir       string
	RecapPath string
	Truth     *truth.Record
	Evidence  *evidence.Record
	Outline   *planner.Outline
	Draft     *writer.Draft
	// InitialReport is set when a patch was applied.
	InitialReport *audit.Report
	Report        audit.Report
	Patched       bool
	Degraded      bool
	// PatchError is the reason the single patch could not be applied.
	PatchError string
	// Reused lists steps served from the cache.
	Reused  []string
	Calls   int
	CostUSD float64
	// Usage breaks Calls down by chain step.
	Usage    []StepUsage
	Duration time.Duration
}

// AuditError returns a services.ErrAuditFailure when the delivered draft did
// not pass. The run itself still succeeded.
func (r *Result) AuditError() error {
	if r == nil || r.Report.Passed() {
		return nil
	}
	return services.Wrap(services.ErrAuditFailure, "pipeline", "audit",
		fmt.Sprintf("Recap delivered with %d unresolved audit issues", len(r.Report.Issues)), nil)
}

// Pipeline runs the recap steps.
type Pipeline struct {
	deps   Deps
	logger *slog.Logger
	now    func() time.Time
}

// New validates deps and returns a pipeline.
func New(deps Deps) (*Pipeline, error) {
	if deps.Truth == nil || deps.Evidence == nil || deps.Planner == nil || deps.Writer == nil || deps.Auditor == nil {
		return nil, errors.New("pipeline requires truth, evidence, planner, writer, and auditor")
	}
	if strings.TrimSpace(deps.OutputDir) == "" {
		return nil, errors.New("pipeline requires an output directory")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		now:    time.Now,
	}, nil
}

// Run executes the recap for one league week.
func (p *Pipeline) Run(ctx context.Context, opts Options) (result *Result, err error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	started := p.now()
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithLeagueID(ctx, opts.LeagueID)
	logger := logging.WithContext(ctx, p.logger)

	run := history.Run{ID: runID, LeagueID: opts.LeagueID, Season: opts.Season, Week: opts.Week, StartedAt: started}
	p.beginRun(ctx, run)
	defer func() { p.finishRun(ctx, run, result, err) }()

	week, err := stepcache.Open(p.deps.OutputDir, opts.LeagueID, opts.Season, opts.Week, p.logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := week.Close(); closeErr != nil {
			logger.Warn("failed to release week lock", logging.Error(closeErr))
		}
	}()

	if opts.Force {
		if err := week.Invalidate(); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "force", "Could not clear cached steps", err)
		}
		logger.Info("cache invalidated", logging.Args(logging.DecisionAttrs("cache", "invalidated", "--force")...)...)
	}

	result = &Result{RunID: runID, Dir: week.Dir(), RecapPath: week.Path(stepcache.FileRecap)}
	logger.Info("recap run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("season", opts.Season),
		logging.Int("week", opts.Week),
		logging.Bool("force", opts.Force))

	if err := p.runStep(ctx, StepTruth, result, func(ctx context.Context) (bool, error) {
		return p.truthStep(ctx, week, opts, result)
	}); err != nil {
		return nil, err
	}
	if err := p.runStep(ctx, StepEvidence, result, func(ctx context.Context) (bool, error) {
		return p.evidenceStep(ctx, week, result)
	}); err != nil {
		return nil, err
	}
	if err := p.runStep(ctx, StepPlan, result, func(ctx context.Context) (bool, error) {
		return p.planStep(ctx, week, result)
	}); err != nil {
		return nil, err
	}
	if err := p.runStep(ctx, StepWrite, result, func(ctx context.Context) (bool, error) {
		return p.writeStep(ctx, week, result)
	}); err != nil {
		return nil, err
	}
	if err := p.runStep(ctx, StepAudit, result, func(ctx context.Context) (bool, error) {
		return false, p.auditStep(ctx, week, result)
	}); err != nil {
		return nil, err
	}

	if p.deps.Meter != nil {
		result.Calls, result.CostUSD = p.deps.Meter.Total()
		result.Usage = usageByStep(p.deps.Meter.Calls())
	}
	result.Duration = p.now().Sub(started)
	logger.Info("recap run complete",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("verdict", string(result.Report.Verdict)),
		logging.Bool("patched", result.Patched),
		logging.Bool("degraded", result.Degraded),
		logging.Int("model_calls", result.Calls),
		logging.Float64("estimated_cost_usd", result.CostUSD),
		logging.String("recap", result.RecapPath))
	return result, nil
}

// runStep logs the step lifecycle around fn. fn reports whether it was
// served from the cache.
func (p *Pipeline) runStep(ctx context.Context, name string, result *Result, fn func(context.Context) (bool, error)) error {
	stepCtx := services.WithStep(ctx, name)
	logger := logging.WithContext(stepCtx, p.logger)
	start := p.now()
	logger.Debug("step started", logging.String(logging.FieldEventType, "step_start"))

	cached, err := fn(stepCtx)
	if err != nil {
		logging.ErrorWithContext(logger, "step failed", "step_failure",
			logging.String(logging.FieldErrorHint, stepHint(err)),
			logging.Error(err))
		return err
	}
	if cached {
		result.Reused = append(result.Reused, name)
	}
	logger.Info("step completed",
		logging.String(logging.FieldEventType, "step_complete"),
		logging.Bool("cached", cached),
		logging.Duration("elapsed", p.now().Sub(start)))
	return nil
}

func stepHint(err error) string {
	switch {
	case errors.Is(err, services.ErrConfiguration):
		return "check config.toml and API keys"
	case errors.Is(err, services.ErrDataUnavailable):
		return "confirm the league id and that the week has been played"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "run was cancelled"
	default:
		return "rerun the same week; completed steps are cached"
	}
}

func (p *Pipeline) beginRun(ctx context.Context, run history.Run) {
	if p.deps.Ledger == nil {
		return
	}
	if err := p.deps.Ledger.Begin(ctx, run); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "failed to record run start", "history_write",
			logging.String(logging.FieldErrorHint, "check paths.state_dir permissions"),
			logging.String(logging.FieldImpact, "run will be missing from history"),
			logging.Error(err))
	}
}

func (p *Pipeline) finishRun(ctx context.Context, run history.Run, result *Result, runErr error) {
	if p.deps.Ledger == nil {
		return
	}
	run.FinishedAt = p.now()
	if p.deps.Meter != nil {
		_, run.EstimatedCost = p.deps.Meter.Total()
	}
	if result != nil {
		run.Verdict = string(result.Report.Verdict)
		run.IssueCount = len(result.Report.Issues)
		run.Patched = result.Patched
		run.Degraded = result.Degraded
		run.RecapPath = result.RecapPath
		run.InitialVerdict = run.Verdict
		if result.InitialReport != nil {
			run.InitialVerdict = string(result.InitialReport.Verdict)
		}
	}
	if runErr != nil {
		run.Error = runErr.Error()
		run.RecapPath = ""
	}
	// The run context may already be cancelled; the ledger write should still land.
	if err := p.deps.Ledger.Finish(context.WithoutCancel(ctx), run); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "failed to record run result", "history_write",
			logging.String(logging.FieldErrorHint, "check paths.state_dir permissions"),
			logging.String(logging.FieldImpact, "history shows the run as still running"),
			logging.Error(err))
	}
}
