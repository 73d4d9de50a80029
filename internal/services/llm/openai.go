package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const defaultGenerationTemperature = 0.7

// OpenAIConfig holds connection settings for the OpenAI generation provider.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// OpenAIProvider generates text through the official openai-go SDK. SDK-level
// retries are disabled; Chain applies the shared policy instead.
type OpenAIProvider struct {
	client openai.Client
}

// NewOpenAIProvider builds a provider from cfg.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &OpenAIProvider{client: openai.NewClient(opts...)}
}

// Name identifies the provider in logs and step mappings.
func (p *OpenAIProvider) Name() string { return "openai" }

// Complete issues one chat completion request.
func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.User) == "" {
		return Response{}, errors.New("openai complete: user prompt required")
	}
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system := strings.TrimSpace(req.System); system != "" {
		msgs = append(msgs, openai.SystemMessage(system))
	}
	msgs = append(msgs, openai.UserMessage(strings.TrimSpace(req.User)))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: msgs,
	}
	// Reasoning models reject sampling parameters and legacy token limits.
	if !isReasoningModel(req.Model) {
		temperature := defaultGenerationTemperature
		if req.Temperature != nil {
			temperature = *req.Temperature
		}
		params.Temperature = openai.Float(temperature)
		if req.MaxTokens > 0 {
			params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
		}
	}
	if req.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Response{}, translateOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, &emptyContentError{Op: "openai complete", FinishReason: "no_choices", Snippet: "<empty>"}
	}
	choice := resp.Choices[0]
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return Response{}, &emptyContentError{
			Op:           "openai complete",
			FinishReason: string(choice.FinishReason),
			Refusal:      choice.Message.Refusal,
			Snippet:      "<empty>",
		}
	}
	return Response{
		Content:          content,
		Provider:         p.Name(),
		Model:            req.Model,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
	}, nil
}

func isReasoningModel(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	return strings.HasPrefix(m, "gpt-5") || strings.HasPrefix(m, "o1") || strings.HasPrefix(m, "o3") || strings.HasPrefix(m, "o4")
}

func translateOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		statusErr := &StatusError{Provider: "openai", StatusCode: apiErr.StatusCode, Body: apiErr.Error()}
		if apiErr.Response != nil {
			statusErr.RetryAfter, _ = ParseRetryAfter(apiErr.Response.Header.Get("Retry-After"))
		}
		return statusErr
	}
	return fmt.Errorf("openai request: %w", err)
}
