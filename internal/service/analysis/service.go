package analysis

import (
	"context"
	"time"

	"github.com/davidleathers/fraudguard-backend/internal/domain/errors"
	"github.com/davidleathers/fraudguard-backend/internal/domain/risk"
	"github.com/davidleathers/fraudguard-backend/internal/domain/values"
	"github.com/davidleathers/fraudguard-backend/internal/infrastructure/telemetry"
	"github.com/davidleathers/fraudguard-backend/internal/metrics"
	"go.uber.org/zap"
)

// service implements the Service interface
type service struct {
	coordinator *Coordinator
	engine      *Engine
	reports     ReportCache
	logger      *zap.Logger
	metrics     *metrics.Registry
}

// NewService wires the coordinator, engine, and report cache into the
// analysis entry point.
func NewService(
	coordinator *Coordinator,
	engine *Engine,
	reports ReportCache,
	logger *zap.Logger,
	registry *metrics.Registry,
) Service {
	return &service{
		coordinator: coordinator,
		engine:      engine,
		reports:     reports,
		logger:      logger,
		metrics:     registry,
	}
}

// AnalyzeURL validates, normalizes, and scores a URL, serving fresh cached
// reports when available.
func (s *service) AnalyzeURL(ctx context.Context, rawURL string) (*risk.RiskReport, error) {
	target, err := values.NormalizeURL(rawURL)
	if err != nil {
		return nil, errors.NewInvalidURLError(err)
	}

	report, err := s.reports.GetOrCompute(ctx, target, s.compute)
	if err != nil {
		s.metrics.RecordAnalysisFailure(ctx)
		return nil, err
	}
	return report, nil
}

// compute is the cache's miss path: one full signal fan-out plus scoring.
func (s *service) compute(ctx context.Context, target values.NormalizedURL) (*risk.RiskReport, error) {
	start := time.Now()
	ctx, span := telemetry.StartAnalysisSpan(ctx, target.Host())
	defer span.End()

	signals := s.coordinator.Gather(ctx, target)

	report, err := s.engine.BuildReport(ctx, target, signals)
	if err != nil {
		telemetry.WithSpanError(span, err)
		s.logger.Error("risk computation failed",
			zap.String("url", target.String()),
			zap.Error(err))
		return nil, err
	}

	s.metrics.RecordAnalysis(ctx, time.Since(start), string(report.RiskLevel))
	s.logger.Info("url analyzed",
		zap.String("url", target.String()),
		zap.Float64("risk_score", report.RiskScore),
		zap.String("risk_level", string(report.RiskLevel)),
		zap.Duration("duration", time.Since(start)))

	return report, nil
}
