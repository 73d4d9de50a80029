package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"sleeperrecap/internal/audit"
	"sleeperrecap/internal/evidence"
	"sleeperrecap/internal/history"
	"sleeperrecap/internal/pipeline"
	"sleeperrecap/internal/planner"
	"sleeperrecap/internal/services"
	"sleeperrecap/internal/services/llm"
	"sleeperrecap/internal/stepcache"
	"sleeperrecap/internal/testsupport"
	"sleeperrecap/internal/truth"
	"sleeperrecap/internal/writer"
)

type fakeTruth struct {
	calls int
	err   error
}

func (f *fakeTruth) Build(context.Context, string, int, int) (*truth.Record, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return testsupport.SampleTruth(), nil
}

type fakeEvidence struct {
	calls int
	err   error
}

func (f *fakeEvidence) Gather(context.Context, *truth.Record) (*evidence.Record, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &evidence.Record{Source: "perplexity:sonar"}, nil
}

type fakePlanner struct{ calls int }

func (f *fakePlanner) Plan(context.Context, *truth.Record, *evidence.Record) (*planner.Outline, error) {
	f.calls++
	outline := planner.Parse("1. LEDE: Alpha stays perfect\n2. POWER RANKINGS: by record")
	return &outline, nil
}

type fakeWriter struct {
	draft      string
	patched    string
	patchErr   error
	writeCalls int
	patchCalls int
}

func (f *fakeWriter) Write(context.Context, *truth.Record, *evidence.Record, *planner.Outline) (*writer.Draft, error) {
	f.writeCalls++
	return writer.NewDraft(f.draft), nil
}

func (f *fakeWriter) Patch(_ context.Context, _ *writer.Draft, _ audit.Report, _ *truth.Record, _ *evidence.Record) (*writer.Draft, error) {
	f.patchCalls++
	if f.patchErr != nil {
		return nil, f.patchErr
	}
	d := writer.NewDraft(f.patched)
	d.Patched = true
	return d, nil
}

type fakeLedger struct {
	mu       sync.Mutex
	begun    []history.Run
	finished []history.Run
}

func (f *fakeLedger) Begin(_ context.Context, run history.Run) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.begun = append(f.begun, run)
	return nil
}

func (f *fakeLedger) Finish(_ context.Context, run history.Run) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished = append(f.finished, run)
	return nil
}

type harness struct {
	truth    *fakeTruth
	evidence *fakeEvidence
	planner  *fakePlanner
	writer   *fakeWriter
	ledger   *fakeLedger
	meter    *llm.Meter
	out      string
}

func newHarness(t *testing.T, draft, patched string) *harness {
	t.Helper()
	return &harness{
		truth:    &fakeTruth{},
		evidence: &fakeEvidence{},
		planner:  &fakePlanner{},
		writer:   &fakeWriter{draft: draft, patched: patched},
		ledger:   &fakeLedger{},
		meter:    &llm.Meter{},
		out:      t.TempDir(),
	}
}

func (h *harness) pipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.New(pipeline.Deps{
		Truth:     h.truth,
		Evidence:  h.evidence,
		Planner:   h.planner,
		Writer:    h.writer,
		Auditor:   audit.New(audit.Options{}, nil),
		Ledger:    h.ledger,
		Meter:     h.meter,
		OutputDir: h.out,
	})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return p
}

func weekOpts() pipeline.Options {
	return pipeline.Options{LeagueID: "42", Season: 2024, Week: 3}
}

func TestRunPassesAndWritesArtifacts(t *testing.T) {
	h := newHarness(t, testsupport.CleanArticle, "")
	result, err := h.pipeline(t).Run(context.Background(), weekOpts())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.Report.Passed() || result.Patched || result.InitialReport != nil {
		t.Fatalf("expected clean pass, got %+v", result.Report)
	}
	if result.AuditError() != nil {
		t.Fatalf("expected no audit error")
	}
	for _, name := range []string{stepcache.FileTruth, stepcache.FileEvidence, stepcache.FilePlan, stepcache.FileRecap, stepcache.FileAudit} {
		if _, err := os.Stat(filepath.Join(result.Dir, name)); err != nil {
			t.Fatalf("missing artifact %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(result.Dir, stepcache.FileAuditInitial)); !os.IsNotExist(err) {
		t.Fatalf("audit_initial.json should not exist after a clean pass")
	}
	if want := filepath.Join(h.out, "42", "2024_week3"); result.Dir != want {
		t.Fatalf("dir = %q, want %q", result.Dir, want)
	}
	if h.writer.patchCalls != 0 {
		t.Fatalf("clean draft should not be patched")
	}
	if len(h.ledger.finished) != 1 || h.ledger.finished[0].Verdict != "PASS" || h.ledger.finished[0].Error != "" {
		t.Fatalf("unexpected ledger rows: %+v", h.ledger.finished)
	}
}

func TestRunReportsUsageByStep(t *testing.T) {
	h := newHarness(t, testsupport.CleanArticle, "")
	h.meter.Record(llm.CallRecord{Step: "research", Provider: "perplexity", CostUSD: 0.01})
	h.meter.Record(llm.CallRecord{Step: "write", Provider: "openai", CostUSD: 0.02})
	h.meter.Record(llm.CallRecord{Step: "write", Provider: "openai", CostUSD: 0.03})

	result, err := h.pipeline(t).Run(context.Background(), weekOpts())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Calls != 3 {
		t.Fatalf("calls = %d, want 3", result.Calls)
	}
	if len(result.Usage) != 2 {
		t.Fatalf("usage = %+v, want two steps", result.Usage)
	}
	if got := result.Usage[0]; got.Step != "research" || got.Calls != 1 {
		t.Fatalf("first step = %+v", got)
	}
	if got := result.Usage[1]; got.Step != "write" || got.Calls != 2 || got.CostUSD < 0.049 || got.CostUSD > 0.051 {
		t.Fatalf("write step = %+v", got)
	}
	if cost := h.ledger.finished[0].EstimatedCost; cost < 0.059 || cost > 0.061 {
		t.Fatalf("ledger cost = %v", cost)
	}
}

func TestRerunReusesCachedSteps(t *testing.T) {
	h := newHarness(t, testsupport.CleanArticle, "")
	p := h.pipeline(t)
	if _, err := p.Run(context.Background(), weekOpts()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	result, err := p.Run(context.Background(), weekOpts())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if h.evidence.calls != 1 || h.planner.calls != 1 || h.writer.writeCalls != 1 {
		t.Fatalf("expected cached evidence/plan/write, got calls %d/%d/%d",
			h.evidence.calls, h.planner.calls, h.writer.writeCalls)
	}
	if h.truth.calls != 2 {
		t.Fatalf("truth should be rebuilt every run, got %d builds", h.truth.calls)
	}
	want := []string{pipeline.StepEvidence, pipeline.StepPlan, pipeline.StepWrite}
	if len(result.Reused) != len(want) {
		t.Fatalf("reused = %v, want %v", result.Reused, want)
	}
	for i := range want {
		if result.Reused[i] != want[i] {
			t.Fatalf("reused = %v, want %v", result.Reused, want)
		}
	}
}

func TestForceRegeneratesEveryStep(t *testing.T) {
	h := newHarness(t, testsupport.CleanArticle, "")
	p := h.pipeline(t)
	if _, err := p.Run(context.Background(), weekOpts()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	opts := weekOpts()
	opts.Force = true
	result, err := p.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("forced run: %v", err)
	}
	if h.truth.calls != 2 || h.evidence.calls != 2 || h.planner.calls != 2 || h.writer.writeCalls != 2 {
		t.Fatalf("expected every step to rerun, got %d/%d/%d/%d",
			h.truth.calls, h.evidence.calls, h.planner.calls, h.writer.writeCalls)
	}
	if len(result.Reused) != 0 {
		t.Fatalf("forced run reused %v", result.Reused)
	}
}

func TestSecondFailureDeliveredWithBothReports(t *testing.T) {
	h := newHarness(t, testsupport.UnboundArticle, testsupport.UnboundArticle+"\nStill no Patrick Mahomes.\n")
	p := h.pipeline(t)
	result, err := p.Run(context.Background(), weekOpts())
	if err != nil {
		t.Fatalf("run should not fail on audit FAIL: %v", err)
	}
	if h.writer.patchCalls != 1 {
		t.Fatalf("expected exactly one patch, got %d", h.writer.patchCalls)
	}
	if !result.Patched || result.InitialReport == nil {
		t.Fatalf("expected patched result with initial report")
	}
	if result.InitialReport.Passed() || result.Report.Passed() {
		t.Fatalf("expected FAIL twice, got %s then %s", result.InitialReport.Verdict, result.Report.Verdict)
	}
	if result.InitialReport.Count(audit.KindUnboundEntity) != 1 {
		t.Fatalf("unexpected initial issues %+v", result.InitialReport.Issues)
	}
	if !errors.Is(result.AuditError(), services.ErrAuditFailure) {
		t.Fatalf("expected audit failure marker, got %v", result.AuditError())
	}
	for _, name := range []string{stepcache.FileAuditInitial, stepcache.FileAudit} {
		if _, err := os.Stat(filepath.Join(result.Dir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
	recap, err := os.ReadFile(result.RecapPath)
	if err != nil {
		t.Fatalf("read recap: %v", err)
	}
	if !strings.Contains(string(recap), "Still no Patrick Mahomes.") {
		t.Fatalf("recap should hold the patched draft")
	}

	again, err := p.Run(context.Background(), weekOpts())
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if h.writer.patchCalls != 1 {
		t.Fatalf("cached patched draft must not be patched again, got %d patches", h.writer.patchCalls)
	}
	if again.InitialReport == nil || !again.Patched {
		t.Fatalf("rerun should carry both reports from the cache")
	}

	last := h.ledger.finished[0]
	if last.Verdict != "FAIL" || last.InitialVerdict != "FAIL" || !last.Patched {
		t.Fatalf("unexpected ledger row %+v", last)
	}
}

func TestPatchFixesDraft(t *testing.T) {
	h := newHarness(t, testsupport.UnboundArticle, testsupport.CleanArticle)
	result, err := h.pipeline(t).Run(context.Background(), weekOpts())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.Report.Passed() || result.InitialReport == nil || result.InitialReport.Passed() {
		t.Fatalf("expected FAIL then PASS")
	}
}

func TestPatchFailureKeepsFirstDraft(t *testing.T) {
	h := newHarness(t, testsupport.UnboundArticle, "")
	h.writer.patchErr = services.Wrap(services.ErrTransient, "llm", "patch", "exhausted", nil)
	result, err := h.pipeline(t).Run(context.Background(), weekOpts())
	if err != nil {
		t.Fatalf("patch failure must not abort: %v", err)
	}
	if result.Patched || result.InitialReport != nil || result.PatchError == "" {
		t.Fatalf("expected unpatched delivery with patch error, got %+v", result)
	}
	if result.Draft.Text != writer.NewDraft(testsupport.UnboundArticle).Text {
		t.Fatalf("first draft should be delivered")
	}
	if _, err := os.Stat(filepath.Join(result.Dir, stepcache.FileAuditInitial)); !os.IsNotExist(err) {
		t.Fatalf("no initial report should remain without a patch")
	}
}

func TestResearchUnavailableDegrades(t *testing.T) {
	h := newHarness(t, testsupport.CleanArticle, "")
	h.evidence.err = services.Wrap(services.ErrResearchUnavailable, "evidence", "research", "down", nil)
	result, err := h.pipeline(t).Run(context.Background(), weekOpts())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.Degraded || result.Evidence == nil || !result.Evidence.Degraded {
		t.Fatalf("expected degraded evidence, got %+v", result.Evidence)
	}
	if result.Evidence.Source != evidence.SourceAPIData {
		t.Fatalf("unexpected evidence source %q", result.Evidence.Source)
	}
}

func TestTruthFailureAborts(t *testing.T) {
	h := newHarness(t, testsupport.CleanArticle, "")
	h.truth.err = services.Wrap(services.ErrDataUnavailable, "truth", "matchups", "No matchups", nil)
	_, err := h.pipeline(t).Run(context.Background(), weekOpts())
	if !errors.Is(err, services.ErrDataUnavailable) {
		t.Fatalf("expected data unavailable, got %v", err)
	}
	if h.evidence.calls != 0 {
		t.Fatalf("no step should run after truth fails")
	}
	if len(h.ledger.finished) != 1 || h.ledger.finished[0].Error == "" {
		t.Fatalf("ledger should record the failure: %+v", h.ledger.finished)
	}
}

func TestRunRejectsBadOptions(t *testing.T) {
	h := newHarness(t, testsupport.CleanArticle, "")
	p := h.pipeline(t)
	if _, err := p.Run(context.Background(), pipeline.Options{Season: 2024, Week: 3}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("missing league should be a configuration error, got %v", err)
	}
	if _, err := p.Run(context.Background(), pipeline.Options{LeagueID: "42", Season: 2024, Week: 19}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("week 19 should be a validation error, got %v", err)
	}
	if h.truth.calls != 0 || len(h.ledger.begun) != 0 {
		t.Fatalf("invalid options must not start a run")
	}
}
