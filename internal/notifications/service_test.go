package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sleeperrecap/internal/config"
	"sleeperrecap/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyRecapCompleted(context.Background(), notifications.RunSummary{Verdict: "PASS"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func captureServer(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		got.body = string(body)
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, got
}

func newService(url string) notifications.Service {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = url
	cfg.Notifications.RequestTimeoutSeconds = 5
	return notifications.NewService(&cfg)
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "recap passed",
			send: func(s notifications.Service) error {
				return s.NotifyRecapCompleted(context.Background(), notifications.RunSummary{
					League: "Dynasty Bros", Season: 2024, Week: 3, Verdict: "PASS",
					RecapPath: "/recaps/42/2024_week3/recap.md",
				})
			},
			expectTitle:   "Sleeper Recap - Ready",
			expectMessage: "Week 3 recap for Dynasty Bros (2024): PASS\nFile: /recaps/42/2024_week3/recap.md",
			expectTags:    "sleeperrecap,recap,pass",
		},
		{
			name: "recap needs review",
			send: func(s notifications.Service) error {
				return s.NotifyRecapCompleted(context.Background(), notifications.RunSummary{
					League: "Dynasty Bros", Season: 2024, Week: 3, Verdict: "FAIL", Issues: 2,
					Patched: true, Degraded: true, Duration: 95 * time.Second, CostUSD: 0.0123,
				})
			},
			expectTitle: "Sleeper Recap - Needs Review",
			expectMessage: "Week 3 recap for Dynasty Bros (2024): FAIL with 2 open issues\n" +
				"Patched once after the first audit\n" +
				"Research unavailable; written from league data only\n" +
				"Took 1m35s (~$0.0123)",
			expectTags:     "sleeperrecap,recap,fail",
			expectPriority: "high",
		},
		{
			name: "run failed",
			send: func(s notifications.Service) error {
				return s.NotifyRunFailed(context.Background(), errors.New("no matchups for week 3"), "league 42 week 3")
			},
			expectTitle:    "Sleeper Recap - Error",
			expectMessage:  "Recap failed for league 42 week 3: no matchups for week 3",
			expectTags:     "sleeperrecap,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test",
			send:           func(s notifications.Service) error { return s.TestNotification(context.Background()) },
			expectTitle:    "Sleeper Recap - Test",
			expectMessage:  "Notification system test",
			expectTags:     "sleeperrecap,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, got := captureServer(t, http.StatusOK)
			if err := tc.send(newService(server.URL)); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}
			if got.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, got.title)
			}
			if got.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, got.body)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, got.tags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, got.priority)
			}
		})
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server, _ := captureServer(t, http.StatusForbidden)
	err := newService(server.URL).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
