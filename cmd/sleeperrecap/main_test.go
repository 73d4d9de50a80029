package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"sleeperrecap/internal/config"
	"sleeperrecap/internal/export"
	"sleeperrecap/internal/history"
	"sleeperrecap/internal/services"
	"sleeperrecap/internal/stepcache"
	"sleeperrecap/internal/testsupport"
)

type cliEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLI(t *testing.T, opts ...testsupport.ConfigOption) *cliEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SLEEPER_LEAGUE_ID", "")
	t.Setenv("PERPLEXITY_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg := testsupport.NewConfig(t, opts...)
	cfg.Logging.Level = "error"
	cfg.Audit.StyleChecks = false
	path := filepath.Join(testsupport.BaseDir(cfg), "sleeperrecap.toml")
	writeTestConfig(t, path, cfg)
	return &cliEnv{cfg: cfg, configPath: path}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// seedWeek writes cached artifacts for league 42, 2024 week 3.
func (e *cliEnv) seedWeek(t *testing.T, article string) string {
	t.Helper()
	week, err := stepcache.Open(e.cfg.Paths.OutputDir, "42", 2024, 3, nil)
	if err != nil {
		t.Fatalf("open week: %v", err)
	}
	defer week.Close()
	if err := week.SaveJSON(stepcache.FileTruth, testsupport.SampleTruth()); err != nil {
		t.Fatalf("save truth: %v", err)
	}
	if article != "" {
		if err := week.SaveText(stepcache.FileRecap, article); err != nil {
			t.Fatalf("save recap: %v", err)
		}
	}
	return week.Dir()
}

func TestConfigInitThenValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "conf", "sleeperrecap.toml")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out.String(), "Wrote sample configuration") {
		t.Fatalf("unexpected init output: %s", out.String())
	}

	cmd = newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}

	env := &cliEnv{configPath: target}
	output, err := env.run(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(output, "Configuration valid") || !strings.Contains(output, "research:") {
		t.Fatalf("unexpected validate output: %s", output)
	}
}

func TestConfigValidateStrictRequiresKeys(t *testing.T) {
	env := setupCLI(t, testsupport.WithoutCredentials())
	_, err := env.run(t, "config", "validate", "--strict")
	if services.ExitCode(err) != 2 {
		t.Fatalf("expected configuration exit code, got %d (%v)", services.ExitCode(err), err)
	}
}

func TestLeagueSetAndShow(t *testing.T) {
	env := setupCLI(t)
	if _, err := env.run(t, "league", "set", "777"); err != nil {
		t.Fatalf("league set: %v", err)
	}
	out, err := env.run(t, "league", "show")
	if err != nil {
		t.Fatalf("league show: %v", err)
	}
	if !strings.Contains(out, "League:  777") {
		t.Fatalf("expected persisted league, got %s", out)
	}
}

func TestLeagueSetRejectsNonNumericID(t *testing.T) {
	env := setupCLI(t)
	_, err := env.run(t, "league", "set", "abc")
	if services.ExitCode(err) != 4 {
		t.Fatalf("expected validation exit code, got %d (%v)", services.ExitCode(err), err)
	}
}

func TestWeekRecapMissingCredentialsFailsBeforeNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	env := setupCLI(t, testsupport.WithoutCredentials(), testsupport.WithSleeperURL(srv.URL), testsupport.WithProviderURLs(srv.URL))
	_, err := env.run(t, "week-recap", "--week", "3", "--season", "2024")
	if services.ExitCode(err) != 2 {
		t.Fatalf("expected configuration exit code, got %d (%v)", services.ExitCode(err), err)
	}
	if hits.Load() != 0 {
		t.Fatalf("expected no HTTP calls, got %d", hits.Load())
	}
}

func TestWeekRecapValidatesSelection(t *testing.T) {
	env := setupCLI(t, testsupport.WithLeagueID(""))
	if _, err := env.run(t, "week-recap", "--week", "3"); services.ExitCode(err) != 2 {
		t.Fatalf("missing league: exit %d (%v)", services.ExitCode(err), err)
	}
	if _, err := env.run(t, "week-recap", "--week", "19", "--league-id", "42"); services.ExitCode(err) != 4 {
		t.Fatalf("bad week: exit %d (%v)", services.ExitCode(err), err)
	}
	if _, err := env.run(t, "week-recap"); err == nil {
		t.Fatal("expected --week to be required")
	}
}

func TestAuditCommandPassAndFail(t *testing.T) {
	env := setupCLI(t)
	env.seedWeek(t, testsupport.CleanArticle)

	out, err := env.run(t, "audit", "--week", "3", "--season", "2024")
	if err != nil {
		t.Fatalf("audit clean recap: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Verdict: PASS") {
		t.Fatalf("expected PASS, got %s", out)
	}

	env.seedWeek(t, testsupport.UnboundArticle)
	out, err = env.run(t, "audit", "--week", "3", "--season", "2024")
	if services.ExitCode(err) != 1 {
		t.Fatalf("expected audit failure exit, got %d (%v)", services.ExitCode(err), err)
	}
	if !strings.Contains(out, "UNBOUND_ENTITY") {
		t.Fatalf("expected issue table, got %s", out)
	}
}

func TestAuditCommandWithoutCacheIsNotFound(t *testing.T) {
	env := setupCLI(t)
	_, err := env.run(t, "audit", "--week", "3", "--season", "2024")
	if err == nil {
		t.Fatal("expected not found error")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAuditCommandWithoutRecapIsNotFound(t *testing.T) {
	env := setupCLI(t)
	env.seedWeek(t, "")
	_, err := env.run(t, "audit", "--week", "3", "--season", "2024")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !strings.Contains(err.Error(), "no cached recap") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExportCommandsUseCachedWeek(t *testing.T) {
	env := setupCLI(t)
	dir := env.seedWeek(t, "# Alpha Dogs Stay Perfect\n\n"+testsupport.CleanArticle)

	for _, kind := range []string{"matchups", "week", "standings"} {
		if _, err := env.run(t, "export", kind, "--week", "3", "--season", "2024"); err != nil {
			t.Fatalf("export %s: %v", kind, err)
		}
		name := export.FileName(export.Kind(kind), testsupport.SampleTruth())
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}

	if _, err := env.run(t, "export", "html", "--week", "3", "--season", "2024"); err != nil {
		t.Fatalf("export html: %v", err)
	}
	html, err := os.ReadFile(filepath.Join(dir, "recap.html"))
	if err != nil {
		t.Fatalf("read html: %v", err)
	}
	if !strings.Contains(string(html), "<title>Alpha Dogs Stay Perfect</title>") {
		t.Fatalf("unexpected html: %s", html)
	}

	postDir := filepath.Join(t.TempDir(), "site")
	out, err := env.run(t, "export", "publish", "--week", "3", "--season", "2024", "--dir", postDir)
	if err != nil {
		t.Fatalf("export publish: %v", err)
	}
	post := filepath.Join(postDir, "2024-week-03-alpha-dogs-stay-perfect.md")
	if !strings.Contains(out, post) {
		t.Fatalf("expected post path in output, got %s", out)
	}
	if _, err := os.Stat(post); err != nil {
		t.Fatalf("expected post: %v", err)
	}
}

func TestExportDraftWritesLatestBoard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/league/42/drafts":
			_, _ = w.Write([]byte(`[{"draft_id":"d1","status":"complete","start_time":100},{"draft_id":"d2","status":"pre_draft","start_time":200}]`))
		case "/draft/d1/picks":
			_, _ = w.Write([]byte(`[{"pick_no":1,"round":1,"draft_slot":1,"player_id":"4046","picked_by":"u1","roster_id":1}]`))
		case "/league/42/users":
			_, _ = w.Write([]byte(`[{"user_id":"u1","username":"alpha","metadata":{"team_name":"Alpha Dogs"}}]`))
		case "/players/nfl":
			_, _ = w.Write([]byte(`{"4046":{"full_name":"Patrick Mahomes","position":"QB","team":"KC"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	env := setupCLI(t, testsupport.WithSleeperURL(srv.URL), testsupport.WithFastRetry())
	out, err := env.run(t, "export", "draft")
	if err != nil {
		t.Fatalf("export draft: %v\n%s", err, out)
	}
	path := filepath.Join(env.cfg.Paths.OutputDir, "42", "draft_42_d1.csv")
	if !strings.Contains(out, path) || !strings.Contains(out, "(1 picks)") {
		t.Fatalf("unexpected output: %s", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read draft export: %v", err)
	}
	if !strings.Contains(string(data), "d1,1,1,1,u1,alpha,Alpha Dogs,1,4046,Patrick Mahomes,QB,KC,,") {
		t.Fatalf("unexpected draft csv:\n%s", data)
	}
}

func TestHistoryCommandListsRuns(t *testing.T) {
	env := setupCLI(t)
	store := testsupport.MustOpenHistory(t, env.cfg)
	started := time.Date(2024, 9, 24, 12, 0, 0, 0, time.UTC)
	run := history.Run{ID: "run-1", LeagueID: "42", Season: 2024, Week: 3, StartedAt: started}
	if err := store.Begin(context.Background(), run); err != nil {
		t.Fatalf("begin: %v", err)
	}
	run.FinishedAt = started.Add(90 * time.Second)
	run.Verdict = "PASS"
	run.InitialVerdict = "FAIL"
	run.Patched = true
	if err := store.Finish(context.Background(), run); err != nil {
		t.Fatalf("finish: %v", err)
	}

	out, err := env.run(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "FAIL→PASS") || !strings.Contains(out, "2024 W03") {
		t.Fatalf("unexpected history output:\n%s", out)
	}

	out, err = env.run(t, "history", "--league", "99")
	if err != nil {
		t.Fatalf("history filtered: %v", err)
	}
	if !strings.Contains(out, "No runs recorded") {
		t.Fatalf("expected empty listing, got %s", out)
	}
}

func TestTestNotifyPostsToTopic(t *testing.T) {
	var titles []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		titles = append(titles, r.Header.Get("Title"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	env := setupCLI(t)
	env.cfg.Notifications.NtfyTopic = srv.URL
	writeTestConfig(t, env.configPath, env.cfg)

	out, err := env.run(t, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	if len(titles) != 1 || titles[0] != "Sleeper Recap - Test" {
		t.Fatalf("unexpected notifications: %v", titles)
	}
	if !strings.Contains(out, "Test notification sent") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestStatusOfflineReportsChecks(t *testing.T) {
	env := setupCLI(t)
	out, err := env.run(t, "status", "--offline")
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	for _, want := range []string{"Output directory:", "[OK]", "OpenAI API key:", "no runs recorded"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Sleeper league:") {
		t.Fatalf("offline status should skip the league lookup:\n%s", out)
	}

	missing := setupCLI(t, testsupport.WithoutCredentials())
	if _, err := missing.run(t, "status", "--offline"); services.ExitCode(err) != 2 {
		t.Fatalf("expected configuration exit code, got %d (%v)", services.ExitCode(err), err)
	}
}
