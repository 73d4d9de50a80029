package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultHTTPTimeout = 120 * time.Second

// ChatConfig captures the runtime settings for an OpenAI-compatible chat
// endpoint with optional web-search parameters.
type ChatConfig struct {
	Name          string
	APIKey        string
	BaseURL       string
	Timeout       time.Duration
	SearchDomains []string
	SearchRecency string
}

// ChatClient talks to an OpenAI-compatible /chat/completions endpoint over
// plain HTTP. It understands the search extensions and citation list that
// research providers return.
type ChatClient struct {
	cfg        ChatConfig
	httpClient *http.Client
}

// ChatOption customizes the client.
type ChatOption func(*ChatClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) ChatOption {
	return func(c *ChatClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewChatClient constructs a chat client using the supplied configuration.
func NewChatClient(cfg ChatConfig, opts ...ChatOption) *ChatClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	client := &ChatClient{
		cfg: ChatConfig{
			Name:          firstNonEmpty(cfg.Name, "chat"),
			APIKey:        strings.TrimSpace(cfg.APIKey),
			BaseURL:       strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Timeout:       timeout,
			SearchDomains: append([]string(nil), cfg.SearchDomains...),
			SearchRecency: strings.TrimSpace(cfg.SearchRecency),
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Name identifies the provider in logs and step mappings.
func (c *ChatClient) Name() string { return c.cfg.Name }

type chatCompletionRequest struct {
	Model               string            `json:"model"`
	Messages            []chatMessage     `json:"messages"`
	Temperature         *float64          `json:"temperature,omitempty"`
	MaxTokens           int               `json:"max_tokens,omitempty"`
	ResponseFormat      map[string]string `json:"response_format,omitempty"`
	SearchDomainFilter  []string          `json:"search_domain_filter,omitempty"`
	SearchRecencyFilter string            `json:"search_recency_filter,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
		// Some providers return the streaming schema (delta) even when
		// stream=false, so tolerate it as a fallback.
		Delta        chatCompletionMessage `json:"delta"`
		Text         string                `json:"text"`
		FinishReason string                `json:"finish_reason"`
	} `json:"choices"`
	Citations     []string `json:"citations"`
	SearchResults []struct {
		URL string `json:"url"`
	} `json:"search_results"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type chatCompletionMessage struct {
	Content string `json:"content"`
	Refusal string `json:"refusal"`
}

// Complete issues one chat completion request. Retries are the caller's
// concern; see Chain.
func (c *ChatClient) Complete(ctx context.Context, req Request) (Response, error) {
	op := c.cfg.Name + " complete"
	if strings.TrimSpace(req.User) == "" {
		return Response{}, fmt.Errorf("%s: user prompt required", op)
	}
	if c.cfg.APIKey == "" {
		return Response{}, fmt.Errorf("%s: api key required", op)
	}
	payload := chatCompletionRequest{
		Model:               req.Model,
		Temperature:         req.Temperature,
		MaxTokens:           req.MaxTokens,
		SearchDomainFilter:  c.cfg.SearchDomains,
		SearchRecencyFilter: c.cfg.SearchRecency,
	}
	if system := strings.TrimSpace(req.System); system != "" {
		payload.Messages = append(payload.Messages, chatMessage{Role: "system", Content: system})
	}
	payload.Messages = append(payload.Messages, chatMessage{Role: "user", Content: strings.TrimSpace(req.User)})

	completion, body, err := c.send(ctx, payload)
	if err != nil {
		return Response{}, err
	}
	content, finishReason := extractCompletionPayload(completion)
	if content == "" {
		if len(completion.Choices) == 0 {
			return Response{}, &emptyContentError{Op: op, FinishReason: "no_choices", Snippet: summarizePayloadSnippet(string(body))}
		}
		return Response{}, &emptyContentError{
			Op:           op,
			FinishReason: finishReason,
			Refusal:      extractCompletionRefusal(completion),
			Snippet:      summarizePayloadSnippet(string(body)),
		}
	}
	return Response{
		Content:          content,
		Citations:        collectCitations(completion),
		Provider:         c.cfg.Name,
		Model:            req.Model,
		PromptTokens:     completion.Usage.PromptTokens,
		CompletionTokens: completion.Usage.CompletionTokens,
	}, nil
}

func (c *ChatClient) send(ctx context.Context, payload chatCompletionRequest) (chatCompletionResponse, []byte, error) {
	var completion chatCompletionResponse
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "chat", "completions")
	if err != nil {
		return completion, nil, fmt.Errorf("%s request: build url: %w", c.cfg.Name, err)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return completion, nil, fmt.Errorf("%s request: encode body: %w", c.cfg.Name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return completion, nil, fmt.Errorf("%s request: new request: %w", c.cfg.Name, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return completion, nil, fmt.Errorf("%s request: http error (timeout=%s): %w", c.cfg.Name, c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return completion, nil, fmt.Errorf("%s request: read body: %w", c.cfg.Name, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := ParseRetryAfter(resp.Header.Get("Retry-After"))
		return completion, body, &StatusError{
			Provider:   c.cfg.Name,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		return completion, body, &contentRejectedError{err: fmt.Errorf("%s request: decode response: %w", c.cfg.Name, err)}
	}
	if completion.Error != nil {
		return completion, body, errors.New(c.cfg.Name + " request: api error: " + strings.TrimSpace(completion.Error.Message))
	}
	return completion, body, nil
}

func extractCompletionPayload(completion chatCompletionResponse) (string, string) {
	var finishReason string
	for _, choice := range completion.Choices {
		if finishReason == "" {
			finishReason = strings.TrimSpace(choice.FinishReason)
		}
		if content := firstNonEmpty(choice.Message.Content, choice.Delta.Content, choice.Text); content != "" {
			return content, finishReason
		}
	}
	return "", finishReason
}

func extractCompletionRefusal(completion chatCompletionResponse) string {
	for _, choice := range completion.Choices {
		if refusal := firstNonEmpty(choice.Message.Refusal, choice.Delta.Refusal); refusal != "" {
			return refusal
		}
	}
	return ""
}

func collectCitations(completion chatCompletionResponse) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(u string) {
		u = strings.TrimSpace(u)
		if u == "" {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	for _, u := range completion.Citations {
		add(u)
	}
	for _, r := range completion.SearchResults {
		add(r.URL)
	}
	return out
}
