package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sleeperrecap/internal/logging"
	"sleeperrecap/internal/services"
)

// ErrChainExhausted is returned when every attempt in a chain has failed.
var ErrChainExhausted = errors.New("all provider attempts failed")

// Attempt is one provider/model pairing in a fallback chain.
type Attempt struct {
	Provider Provider
	Model    string
	Pacer    *Pacer
}

// Chain tries an ordered list of attempts under one retry policy and returns
// the first successful response.
type Chain struct {
	step     string
	attempts []Attempt
	policy   RetryPolicy
	meter    *Meter
	logger   *slog.Logger
}

// NewChain assembles a chain for step.
func NewChain(step string, attempts []Attempt, policy RetryPolicy, meter *Meter, logger *slog.Logger) *Chain {
	return &Chain{
		step:     step,
		attempts: append([]Attempt(nil), attempts...),
		policy:   policy,
		meter:    meter,
		logger:   logging.NewComponentLogger(logger, "llm"),
	}
}

// Step returns the pipeline step this chain serves.
func (c *Chain) Step() string { return c.step }

// Run executes req against each attempt in order. Each attempt is retried up
// to the policy bound on transient failures before falling through to the
// next. The returned error wraps ErrChainExhausted and the last failure.
func (c *Chain) Run(ctx context.Context, req Request) (Response, error) {
	if len(c.attempts) == 0 {
		return Response{}, services.Wrap(services.ErrConfiguration, c.step, "llm chain", "no provider attempts configured", nil)
	}
	logger := logging.WithContext(ctx, c.logger)
	var lastErr error
	for idx, attempt := range c.attempts {
		resp, err := c.runAttempt(ctx, attempt, req)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		lastErr = err
		logging.WarnWithContext(logger, "provider attempt failed", "llm_attempt_failed",
			logging.String(logging.FieldProvider, attempt.Provider.Name()),
			logging.String(logging.FieldModel, attempt.Model),
			logging.Int("attempt", idx+1),
			logging.Int("attempts_total", len(c.attempts)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check provider status, API key, and model name"),
			logging.String(logging.FieldImpact, fallbackImpact(idx, len(c.attempts))),
		)
	}
	return Response{}, services.Wrap(services.ErrTransient, c.step, "llm chain",
		fmt.Sprintf("%d attempt(s) exhausted", len(c.attempts)),
		fmt.Errorf("%w: %w", ErrChainExhausted, lastErr))
}

func fallbackImpact(idx, total int) string {
	if idx+1 < total {
		return "falling back to next provider attempt"
	}
	return "no further provider attempts"
}

func (c *Chain) runAttempt(ctx context.Context, attempt Attempt, req Request) (Response, error) {
	req.Model = attempt.Model
	logger := logging.WithContext(ctx, c.logger)
	var resp Response
	tries := 0
	err := c.policy.Do(ctx, attempt.Provider.Name()+" "+attempt.Model, func(ctx context.Context) error {
		tries++
		if err := attempt.Pacer.Wait(ctx); err != nil {
			return err
		}
		started := time.Now()
		out, err := attempt.Provider.Complete(ctx, req)
		if err == nil && req.Validate != nil {
			if verr := req.Validate(out.Content); verr != nil {
				err = &contentRejectedError{err: verr}
			}
		}
		if err != nil {
			logger.Debug("provider call failed",
				logging.String(logging.FieldProvider, attempt.Provider.Name()),
				logging.String(logging.FieldModel, attempt.Model),
				logging.Int("try", tries),
				logging.Bool("retryable", Retryable(err)),
				logging.Error(err),
			)
			return err
		}
		resp = out
		c.record(logger, req, resp, time.Since(started))
		return nil
	})
	return resp, err
}

func (c *Chain) record(logger *slog.Logger, req Request, resp Response, elapsed time.Duration) {
	promptTokens := resp.PromptTokens
	if promptTokens == 0 {
		promptTokens = EstimateTokens(req.System + req.User)
	}
	completionTokens := resp.CompletionTokens
	if completionTokens == 0 {
		completionTokens = EstimateTokens(resp.Content)
	}
	cost := EstimateCost(resp.Model, promptTokens, completionTokens)
	c.meter.Record(CallRecord{
		Step:     c.step,
		Provider: resp.Provider,
		Model:    resp.Model,
		Tokens:   promptTokens + completionTokens,
		CostUSD:  cost,
	})
	logger.Info("provider call complete",
		logging.String(logging.FieldProvider, resp.Provider),
		logging.String(logging.FieldModel, resp.Model),
		logging.Int("tokens", promptTokens+completionTokens),
		logging.Float64("cost_usd", cost),
		logging.Duration("step_duration", elapsed),
		logging.Int("citations", len(resp.Citations)),
	)
}
