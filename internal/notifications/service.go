package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sleeperrecap/internal/config"
)

const userAgent = "sleeperrecap/0.1"

// RunSummary is what a completed recap notification reports.
type RunSummary struct {
	League     string
	Season     int
	Week       int
	Verdict    string
	Issues     int
	Patched    bool
	Degraded   bool
	RecapPath  string
	Duration   time.Duration
	CostUSD    float64
}

// Service defines the notification surface used by the CLI.
type Service interface {
	NotifyRecapCompleted(ctx context.Context, summary RunSummary) error
	NotifyRunFailed(ctx context.Context, err error, label string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := cfg.NtfyTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRecapCompleted(ctx context.Context, summary RunSummary) error {
	league := strings.TrimSpace(summary.League)
	if league == "" {
		league = "league"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Week %d recap for %s (%d): %s", summary.Week, league, summary.Season, summary.Verdict)
	if summary.Issues > 0 {
		fmt.Fprintf(&b, " with %d open issues", summary.Issues)
	}
	if summary.Patched {
		b.WriteString("\nPatched once after the first audit")
	}
	if summary.Degraded {
		b.WriteString("\nResearch unavailable; written from league data only")
	}
	if summary.Duration > 0 {
		fmt.Fprintf(&b, "\nTook %s (~$%.4f)", summary.Duration.Round(time.Second), summary.CostUSD)
	}
	if path := strings.TrimSpace(summary.RecapPath); path != "" {
		fmt.Fprintf(&b, "\nFile: %s", path)
	}

	data := payload{
		title:   "Sleeper Recap - Ready",
		message: b.String(),
		tags:    []string{"sleeperrecap", "recap", strings.ToLower(summary.Verdict)},
	}
	if summary.Verdict != "PASS" {
		data.title = "Sleeper Recap - Needs Review"
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, err error, label string) error {
	var builder strings.Builder
	builder.WriteString("Recap failed")
	if label = strings.TrimSpace(label); label != "" {
		builder.WriteString(" for ")
		builder.WriteString(label)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Sleeper Recap - Error",
		message:  builder.String(),
		tags:     []string{"sleeperrecap", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Sleeper Recap - Test",
		message:  "Notification system test",
		tags:     []string{"sleeperrecap", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRecapCompleted(context.Context, RunSummary) error { return nil }
func (noopService) NotifyRunFailed(context.Context, error, string) error   { return nil }
func (noopService) TestNotification(context.Context) error                 { return nil }
