package pipeline

import (
	"context"
	"errors"

	"sleeperrecap/internal/audit"
	"sleeperrecap/internal/evidence"
	"sleeperrecap/internal/logging"
	"sleeperrecap/internal/planner"
	"sleeperrecap/internal/services"
	"sleeperrecap/internal/stepcache"
	"sleeperrecap/internal/writer"
)

func (p *Pipeline) truthStep(ctx context.Context, week *stepcache.Week, opts Options, result *Result) (bool, error) {
	record, err := p.deps.Truth.Build(ctx, opts.LeagueID, opts.Season, opts.Week)
	if err != nil {
		return false, err
	}
	if err := week.SaveJSON(stepcache.FileTruth, record); err != nil {
		return false, cacheWriteError(StepTruth, err)
	}
	result.Truth = record
	return false, nil
}

func (p *Pipeline) evidenceStep(ctx context.Context, week *stepcache.Week, result *Result) (bool, error) {
	var cached evidence.Record
	ok, err := week.LoadJSON(stepcache.FileEvidence, &cached)
	if err != nil {
		return false, cacheReadError(StepEvidence, err)
	}
	if ok {
		result.Evidence = &cached
		result.Degraded = cached.Degraded
		return true, nil
	}

	ev, err := p.deps.Evidence.Gather(ctx, result.Truth)
	if errors.Is(err, services.ErrResearchUnavailable) {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "research unavailable, using league data only", "evidence_degraded",
			logging.String(logging.FieldErrorHint, "check provider API keys and quotas"),
			logging.String(logging.FieldImpact, "recap will have no citations or outside context"),
			logging.Error(err))
		ev = evidence.Degraded(result.Truth, p.now())
		err = nil
	}
	if err != nil {
		return false, err
	}
	if err := week.SaveJSON(stepcache.FileEvidence, ev); err != nil {
		return false, cacheWriteError(StepEvidence, err)
	}
	result.Evidence = ev
	result.Degraded = ev.Degraded
	return false, nil
}

func (p *Pipeline) planStep(ctx context.Context, week *stepcache.Week, result *Result) (bool, error) {
	text, ok, err := week.LoadText(stepcache.FilePlan)
	if err != nil {
		return false, cacheReadError(StepPlan, err)
	}
	if ok {
		outline := planner.Parse(text)
		result.Outline = &outline
		return true, nil
	}

	outline, err := p.deps.Planner.Plan(ctx, result.Truth, result.Evidence)
	if err != nil {
		return false, err
	}
	if err := week.SaveText(stepcache.FilePlan, outline.Text()); err != nil {
		return false, cacheWriteError(StepPlan, err)
	}
	result.Outline = outline
	return false, nil
}

func (p *Pipeline) writeStep(ctx context.Context, week *stepcache.Week, result *Result) (bool, error) {
	text, ok, err := week.LoadText(stepcache.FileRecap)
	if err != nil {
		return false, cacheReadError(StepWrite, err)
	}
	if ok {
		draft := writer.NewDraft(text)
		var meta writer.Draft
		if found, _ := week.LoadJSON(stepcache.FileDraft, &meta); found {
			draft.Provider = meta.Provider
			draft.Model = meta.Model
			draft.Patched = meta.Patched
			draft.CreatedAt = meta.CreatedAt
		}
		result.Draft = draft
		result.Patched = draft.Patched
		return true, nil
	}

	draft, err := p.deps.Writer.Write(ctx, result.Truth, result.Evidence, result.Outline)
	if err != nil {
		return false, err
	}
	if err := saveDraft(week, draft); err != nil {
		return false, err
	}
	result.Draft = draft
	return false, nil
}

// auditStep audits the draft and, on the first FAIL, applies the single
// patch and audits again. A draft that is already patched is never patched
// again, including when it was loaded from the cache.
func (p *Pipeline) auditStep(ctx context.Context, week *stepcache.Week, result *Result) error {
	logger := logging.WithContext(ctx, p.logger)
	report := p.deps.Auditor.Audit(result.Draft.Text, result.Truth, result.Evidence)

	if result.Draft.Patched {
		var initial audit.Report
		if found, _ := week.LoadJSON(stepcache.FileAuditInitial, &initial); found {
			result.InitialReport = &initial
		}
		return p.deliver(ctx, week, result, report)
	}
	if report.Passed() {
		if err := week.Remove(stepcache.FileAuditInitial); err != nil {
			return cacheWriteError(StepAudit, err)
		}
		return p.deliver(ctx, week, result, report)
	}

	logging.WarnWithContext(logger, "audit failed, applying one patch", "audit_failure",
		logging.Int("issues", len(report.Issues)),
		logging.String(logging.FieldErrorHint, "issues are listed in audit_initial.json"),
		logging.String(logging.FieldImpact, "draft will be patched once"))
	if err := week.SaveJSON(stepcache.FileAuditInitial, report); err != nil {
		return cacheWriteError(StepAudit, err)
	}

	patchCtx := services.WithStep(ctx, StepPatch)
	patched, err := p.deps.Writer.Patch(patchCtx, result.Draft, report, result.Truth, result.Evidence)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		logging.WarnWithContext(logger, "patch failed, keeping first draft", "patch_failure",
			logging.String(logging.FieldErrorHint, "rerun with --force to regenerate"),
			logging.String(logging.FieldImpact, "recap delivered unpatched with the first audit report"),
			logging.Error(err))
		result.PatchError = err.Error()
		if err := week.Remove(stepcache.FileAuditInitial); err != nil {
			return cacheWriteError(StepAudit, err)
		}
		return p.deliver(ctx, week, result, report)
	}
	if err := saveDraft(week, patched); err != nil {
		return err
	}

	initial := report
	result.Draft = patched
	result.Patched = true
	result.InitialReport = &initial
	final := p.deps.Auditor.Audit(patched.Text, result.Truth, result.Evidence)
	if !final.Passed() {
		logging.WarnWithContext(logger, "audit failed after patch", "audit_failure",
			logging.Int("issues", len(final.Issues)),
			logging.String(logging.FieldErrorHint, "review audit.json before publishing"),
			logging.String(logging.FieldImpact, "recap delivered with both audit reports"))
	}
	return p.deliver(ctx, week, result, final)
}

func (p *Pipeline) deliver(ctx context.Context, week *stepcache.Week, result *Result, report audit.Report) error {
	result.Report = report
	if err := week.SaveJSON(stepcache.FileAudit, report); err != nil {
		return cacheWriteError(StepAudit, err)
	}
	logging.WithContext(ctx, p.logger).Info("audit verdict",
		logging.String("verdict", string(report.Verdict)),
		logging.Int("issues", len(report.Issues)),
		logging.Int("word_count", report.WordCount))
	return nil
}

func saveDraft(week *stepcache.Week, draft *writer.Draft) error {
	if err := week.SaveText(stepcache.FileRecap, draft.Text); err != nil {
		return cacheWriteError(StepWrite, err)
	}
	if err := week.SaveJSON(stepcache.FileDraft, draft); err != nil {
		return cacheWriteError(StepWrite, err)
	}
	return nil
}

func cacheReadError(step string, err error) error {
	return services.Wrap(services.ErrConfiguration, step, "read cache", "Could not read cached artifact", err)
}

func cacheWriteError(step string, err error) error {
	return services.Wrap(services.ErrConfiguration, step, "write cache", "Could not write artifact", err)
}
