package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/davidleathers/fraudguard-backend/internal/domain/risk"
	"github.com/davidleathers/fraudguard-backend/internal/domain/values"
	"github.com/davidleathers/fraudguard-backend/internal/infrastructure/telemetry"
	"github.com/davidleathers/fraudguard-backend/internal/metrics"
	"github.com/davidleathers/fraudguard-backend/internal/service/analysis/providers"
	"go.uber.org/zap"
)

// Coordinator fans out all configured signal providers concurrently and
// collects whatever completes within the per-provider deadline. It always
// returns one result per provider, in provider declaration order, so the
// report shape is deterministic.
type Coordinator struct {
	providers []providers.SignalProvider
	timeout   time.Duration
	logger    *zap.Logger
	metrics   *metrics.Registry
}

// NewCoordinator creates a signal coordinator. A zero timeout selects the
// default.
func NewCoordinator(
	signalProviders []providers.SignalProvider,
	timeout time.Duration,
	logger *zap.Logger,
	registry *metrics.Registry,
) *Coordinator {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &Coordinator{
		providers: signalProviders,
		timeout:   timeout,
		logger:    logger,
		metrics:   registry,
	}
}

type providerOutcome struct {
	result risk.SignalResult
	err    error
}

// Gather runs every provider against a shared deadline and returns one
// SignalResult per provider in declaration order. Providers that miss the
// deadline or fail are replaced by neutral fallback results; their late
// output, if any, is discarded. Gather never retries and never fails.
func (c *Coordinator) Gather(ctx context.Context, target values.NormalizedURL) []risk.SignalResult {
	deadline := time.Now().Add(c.timeout)
	pctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	// Buffered channels so abandoned providers can still write and exit.
	outcomes := make([]chan providerOutcome, len(c.providers))
	for i, p := range c.providers {
		outcomes[i] = make(chan providerOutcome, 1)
		go func(p providers.SignalProvider, ch chan<- providerOutcome) {
			sctx, span := telemetry.StartProviderSpan(pctx, string(p.Name()))
			result, err := p.Evaluate(sctx, target)
			telemetry.WithSpanError(span, err)
			span.End()
			ch <- providerOutcome{result: result, err: err}
		}(p, outcomes[i])
	}

	// Collect sequentially against the shared absolute deadline. All
	// providers started together, so waiting for slot i does not shorten
	// slot i+1's budget.
	results := make([]risk.SignalResult, len(c.providers))
	for i, p := range c.providers {
		select {
		case out := <-outcomes[i]:
			if out.err != nil {
				c.logger.Warn("signal provider failed",
					zap.String("provider", string(p.Name())),
					zap.String("url", target.String()),
					zap.Error(out.err))
				c.metrics.RecordProviderError(ctx, string(p.Name()))
				results[i] = c.synthesize(p.Name(), risk.StatusError)
				continue
			}
			results[i] = sanitize(p.Name(), out.result)

		case <-time.After(time.Until(deadline)):
			c.logger.Warn("signal provider missed deadline",
				zap.String("provider", string(p.Name())),
				zap.String("url", target.String()),
				zap.Duration("timeout", c.timeout))
			c.metrics.RecordProviderTimeout(ctx, string(p.Name()))
			results[i] = c.synthesize(p.Name(), risk.StatusTimeout)

		case <-ctx.Done():
			results[i] = c.synthesize(p.Name(), risk.StatusTimeout)
		}
	}

	return results
}

// ProviderCount returns the number of configured providers.
func (c *Coordinator) ProviderCount() int {
	return len(c.providers)
}

func (c *Coordinator) synthesize(name risk.SignalName, status risk.SignalStatus) risk.SignalResult {
	reason := "failed"
	if status == risk.StatusTimeout {
		reason = "timed out"
	}
	return risk.SignalResult{
		Name:        name,
		Score:       fallbackScore(name),
		Description: fmt.Sprintf("%s check %s; using neutral fallback", name, reason),
		Status:      status,
	}
}

// sanitize pins the name to the provider's declared signal and clamps the
// score into [0,100].
func sanitize(name risk.SignalName, result risk.SignalResult) risk.SignalResult {
	result.Name = name
	if result.Status == "" {
		result.Status = risk.StatusOK
	}
	if result.Score < 0 {
		result.Score = 0
	}
	if result.Score > 100 {
		result.Score = 100
	}
	return result
}
