package llm

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/segment-research/internal/metrics"
	"github.com/sells-group/segment-research/internal/resilience"
)

// MinReasoningBudget is the smallest budget that engages extended reasoning.
const MinReasoningBudget = 1024

// DefaultReasoningModels lists models that accept a reasoning budget.
var DefaultReasoningModels = []string{
	"claude-sonnet-4-5-20250929",
	"claude-sonnet-4-5",
	"claude-sonnet-4-20250514",
	"claude-opus-4-1-20250805",
	"claude-opus-4-20250514",
	"claude-haiku-4-5-20251001",
	"claude-3-7-sonnet-20250219",
}

// ResilientConfig configures a Resilient completer.
type ResilientConfig struct {
	Retry resilience.RetryConfig
	// CallTimeout bounds each attempt. Zero means no per-attempt deadline.
	CallTimeout time.Duration
	// ReasoningModels overrides DefaultReasoningModels when non-empty.
	ReasoningModels []string
}

// Resilient wraps a Completer with bounded retries on transient failures.
// Requests carrying a qualifying reasoning budget are pinned to the primary
// provider when the wrapped completer supports it.
type Resilient struct {
	next      Completer
	cfg       ResilientConfig
	reasoning map[string]bool
}

// NewResilient wraps next.
func NewResilient(next Completer, cfg ResilientConfig) *Resilient {
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = resilience.DefaultRetryConfig()
	}
	models := cfg.ReasoningModels
	if len(models) == 0 {
		models = DefaultReasoningModels
	}
	allow := make(map[string]bool, len(models))
	for _, m := range models {
		allow[m] = true
	}
	return &Resilient{next: next, cfg: cfg, reasoning: allow}
}

// ReasoningEngaged reports whether req would run with extended reasoning.
func (c *Resilient) ReasoningEngaged(req Request) bool {
	return req.ReasoningBudget >= MinReasoningBudget && c.reasoning[req.Model]
}

// Create runs req through the retry policy.
func (c *Resilient) Create(ctx context.Context, req Request) (*Response, error) {
	call := c.next.Create
	if c.ReasoningEngaged(req) {
		if pc, ok := c.next.(PrimaryCaller); ok {
			call = pc.CreatePrimary
		}
		// The output ceiling must exceed the reasoning budget.
		if req.MaxTokens <= req.ReasoningBudget {
			req.MaxTokens += req.ReasoningBudget
		}
	} else {
		req.ReasoningBudget = 0
	}

	log := zap.L().With(zap.String("model", req.Model), zap.Int64("reasoning_budget", req.ReasoningBudget))

	retry := c.cfg.Retry
	retry.OnRetry = func(attempt int, delay time.Duration, err error) {
		log.Warn("llm: retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.String("kind", string(resilience.Classify(err))),
		)
	}

	attempts := 0
	resp, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*Response, error) {
		attempts++
		callCtx := ctx
		if c.cfg.CallTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.cfg.CallTimeout)
			defer cancel()
		}

		start := time.Now()
		resp, err := call(callCtx, req)
		if err != nil {
			kind := resilience.Classify(err)
			metrics.LLMAttempts.WithLabelValues(string(kind)).Inc()
			log.Warn("llm: attempt failed",
				zap.Int("attempt", attempts),
				zap.String("kind", string(kind)),
				zap.Bool("retryable", kind.Retryable()),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err),
			)
			return nil, err
		}

		metrics.LLMAttempts.WithLabelValues("ok").Inc()
		log.Debug("llm: attempt succeeded",
			zap.Int("attempt", attempts),
			zap.String("provider", resp.Provider),
			zap.Int64("input_tokens", resp.Usage.InputTokens),
			zap.Int64("output_tokens", resp.Usage.OutputTokens),
			zap.Duration("elapsed", time.Since(start)),
		)
		return resp, nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "llm: %s failed after %d attempt(s)", req.Model, attempts)
	}

	metrics.LLMTokens.WithLabelValues(resp.Provider, "input").Add(float64(resp.Usage.InputTokens))
	metrics.LLMTokens.WithLabelValues(resp.Provider, "output").Add(float64(resp.Usage.OutputTokens))
	return resp, nil
}
