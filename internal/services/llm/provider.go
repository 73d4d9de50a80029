package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Request is a single chat completion request routed to one provider/model.
type Request struct {
	System string
	User   string
	Model  string
	// JSON asks the provider for a JSON object response when it supports it.
	JSON        bool
	Temperature *float64
	MaxTokens   int
	// Validate, when set, rejects unusable content (for example unparseable
	// JSON). Rejections count as transient failures and are retried.
	Validate func(content string) error
}

// Response carries the generated content plus provider metadata.
type Response struct {
	Content   string
	Citations []string
	Provider  string
	Model     string
	// Token counts reported by the provider; zero when unavailable.
	PromptTokens     int
	CompletionTokens int
}

// Provider is a chat completion backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (Response, error)
}

// Float returns a pointer to v for optional request fields.
func Float(v float64) *float64 { return &v }

// StatusError is a non-2xx response from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request: http %d: %s", e.Provider, e.StatusCode, summarizePayloadSnippet(e.Body))
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}

type emptyContentError struct {
	Op           string
	FinishReason string
	Refusal      string
	Snippet      string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf(
		"%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.Op,
		e.FinishReason,
		e.Refusal,
		e.Snippet,
	)
}

// contentRejectedError wraps a Request.Validate failure.
type contentRejectedError struct {
	err error
}

func (e *contentRejectedError) Error() string { return "content rejected: " + e.err.Error() }

func (e *contentRejectedError) Unwrap() error { return e.err }

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
