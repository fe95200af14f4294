package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/logger"
)

// RetryPolicy configures exponential retries of LLM calls.
type RetryPolicy struct {
	// MaxTries is the total number of attempts.
	MaxTries uint

	// Initial is the wait before the second attempt.
	Initial time.Duration

	// Multiplier grows the wait after each failed attempt.
	Multiplier float64
}

// DefaultRetryPolicy returns 3 tries starting at 1s and doubling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxTries: 3, Initial: time.Second, Multiplier: 2}
}

func (p RetryPolicy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Initial
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = 0
	return b
}

// llmClient wraps an LLMService with retries and metrics.
// A nil service makes every call fail with domain.ErrLLMUnavailable.
type llmClient struct {
	llm     driven.LLMService
	metrics driven.Metrics
	policy  RetryPolicy
}

func newLLMClient(llm driven.LLMService, metrics driven.Metrics, policy RetryPolicy) *llmClient {
	if policy.MaxTries == 0 {
		policy = DefaultRetryPolicy()
	}
	return &llmClient{llm: llm, metrics: orNop(metrics), policy: policy}
}

func (c *llmClient) available() bool {
	return c != nil && c.llm != nil
}

func (c *llmClient) generate(ctx context.Context, op, prompt string, opts driven.GenerateOptions) (string, error) {
	return c.do(ctx, op, func(ctx context.Context) (string, error) {
		return c.llm.Generate(ctx, prompt, opts)
	})
}

func (c *llmClient) chat(ctx context.Context, op string, msgs []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	return c.do(ctx, op, func(ctx context.Context) (string, error) {
		return c.llm.Chat(ctx, msgs, opts)
	})
}

func (c *llmClient) summarise(ctx context.Context, content string, maxLength int) (string, error) {
	return c.do(ctx, "summarise", func(ctx context.Context) (string, error) {
		return c.llm.Summarise(ctx, content, maxLength)
	})
}

func (c *llmClient) do(ctx context.Context, op string, fn func(context.Context) (string, error)) (string, error) {
	if !c.available() {
		return "", domain.ErrLLMUnavailable
	}

	started := time.Now()
	attempt := 0
	out, err := backoff.Retry(ctx, func() (string, error) {
		attempt++
		s, err := fn(ctx)
		if err == nil {
			return s, nil
		}
		if !isTransient(err) {
			return "", backoff.Permanent(err)
		}
		logger.Debug("llm: %s attempt %d failed: %v", op, attempt, err)
		return "", err
	},
		backoff.WithBackOff(c.policy.backOff()),
		backoff.WithMaxTries(c.policy.MaxTries),
	)
	c.metrics.LLMCall(op, err, time.Since(started))

	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrLLMUnavailable, op, err)
	}
	return out, nil
}

// isTransient reports whether an LLM error is worth retrying.
func isTransient(err error) bool {
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrProviderRejected),
		errors.Is(err, domain.ErrLLMUnavailable):
		return false
	default:
		return true
	}
}
