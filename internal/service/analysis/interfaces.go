package analysis

import (
	"context"

	"github.com/davidleathers/fraudguard-backend/internal/domain/risk"
	"github.com/davidleathers/fraudguard-backend/internal/domain/values"
)

// Service is the analysis entry point used by the API surface and the tab
// monitor.
type Service interface {
	// AnalyzeURL validates and normalizes rawURL, then returns a risk
	// report, served from cache when fresh. It returns a validation error
	// for malformed input and a retryable internal error when the whole
	// computation fails; individual signal failures never surface here.
	AnalyzeURL(ctx context.Context, rawURL string) (*risk.RiskReport, error)
}

// Summarizer produces a short natural-language explanation of an
// assessment. It is best-effort: the engine bounds it with its own timeout
// and falls back to a deterministic template on any failure.
type Summarizer interface {
	Summarize(ctx context.Context, signals []risk.SignalResult, level risk.RiskLevel) (string, error)
}

// ReportCache memoizes reports per normalized URL and deduplicates
// concurrent computations for the same URL.
type ReportCache interface {
	GetOrCompute(
		ctx context.Context,
		target values.NormalizedURL,
		compute func(context.Context, values.NormalizedURL) (*risk.RiskReport, error),
	) (*risk.RiskReport, error)
}
