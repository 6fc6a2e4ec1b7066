package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/davidleathers/fraudguard-backend/internal/domain/errors"
	"github.com/davidleathers/fraudguard-backend/internal/domain/risk"
	"github.com/davidleathers/fraudguard-backend/internal/domain/values"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EngineConfig holds the scoring policy. Zero values select the defaults.
type EngineConfig struct {
	Weights           map[risk.SignalName]float64
	SafeMaxScore      float64
	SuspiciousMax     float64
	SummarizerTimeout time.Duration
}

// Engine combines collected signals into one risk score and classification
// and assembles the full report.
type Engine struct {
	weights           map[risk.SignalName]float64
	safeMax           float64
	suspiciousMax     float64
	summarizer        Summarizer
	summarizerTimeout time.Duration
	logger            *zap.Logger
}

// NewEngine creates a scoring engine. summarizer may be nil, in which case
// every explanation comes from the deterministic template.
func NewEngine(cfg EngineConfig, summarizer Summarizer, logger *zap.Logger) *Engine {
	weights := cfg.Weights
	if len(weights) == 0 {
		weights = DefaultWeights()
	}
	safeMax := cfg.SafeMaxScore
	if safeMax <= 0 {
		safeMax = DefaultSafeMaxScore
	}
	suspiciousMax := cfg.SuspiciousMax
	if suspiciousMax <= safeMax {
		suspiciousMax = DefaultSuspiciousMaxScore
	}
	summarizerTimeout := cfg.SummarizerTimeout
	if summarizerTimeout <= 0 {
		summarizerTimeout = DefaultSummarizerTimeout
	}

	return &Engine{
		weights:           weights,
		safeMax:           safeMax,
		suspiciousMax:     suspiciousMax,
		summarizer:        summarizer,
		summarizerTimeout: summarizerTimeout,
		logger:            logger,
	}
}

// Score combines the signals into a weighted risk score and its level.
func (e *Engine) Score(signals []risk.SignalResult) (float64, risk.RiskLevel) {
	var weighted float64
	for _, s := range signals {
		weighted += e.weights[s.Name] * s.Score
	}

	score := math.Round(weighted)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return score, e.Classify(score)
}

// Classify maps a score onto the fixed risk-level partition. Boundary
// values belong to the lower band.
func (e *Engine) Classify(score float64) risk.RiskLevel {
	switch {
	case score <= e.safeMax:
		return risk.LevelSafe
	case score <= e.suspiciousMax:
		return risk.LevelSuspicious
	default:
		return risk.LevelDangerous
	}
}

// BuildReport scores the signals and assembles the immutable report,
// including explanation and recommendation. The signal order is preserved
// as given. It fails only on engine-level faults (no signals at all), never
// on summarizer trouble.
func (e *Engine) BuildReport(ctx context.Context, target values.NormalizedURL, signals []risk.SignalResult) (*risk.RiskReport, error) {
	if len(signals) == 0 {
		return nil, errors.NewComputationFaultError("no signals collected for scoring")
	}

	score, level := e.Score(signals)

	return &risk.RiskReport{
		ID:             uuid.New(),
		URL:            target.String(),
		RiskScore:      score,
		RiskLevel:      level,
		Signals:        signals,
		Explanation:    e.explain(ctx, signals, level),
		Recommendation: risk.RecommendationFor(level),
		ComputedAt:     time.Now().UTC(),
	}, nil
}

// explain asks the summarizer for a narrative within its timeout and falls
// back to the deterministic template. The returned text is never empty.
func (e *Engine) explain(ctx context.Context, signals []risk.SignalResult, level risk.RiskLevel) string {
	if e.summarizer != nil {
		sctx, cancel := context.WithTimeout(ctx, e.summarizerTimeout)
		defer cancel()

		text, err := e.summarizer.Summarize(sctx, signals, level)
		if err == nil && strings.TrimSpace(text) != "" {
			return text
		}
		if err != nil {
			e.logger.Debug("summarizer unavailable, using template explanation", zap.Error(err))
		}
	}

	return templateExplanation(signals, level)
}

// templateExplanation builds the deterministic fallback narrative from the
// top-2 scoring signals.
func templateExplanation(signals []risk.SignalResult, level risk.RiskLevel) string {
	var base string
	switch level {
	case risk.LevelDangerous:
		base = "This website shows multiple indicators of potential fraud."
	case risk.LevelSuspicious:
		base = "This website shows some suspicious characteristics."
	default:
		base = "This website appears to be safe based on our analysis."
	}

	top := topSignals(signals, 2)
	if len(top) == 0 {
		return base
	}

	descriptions := make([]string, 0, len(top))
	for _, s := range top {
		descriptions = append(descriptions, s.Description)
	}
	return fmt.Sprintf("%s Key concerns: %s", base, strings.Join(descriptions, "; "))
}

// topSignals returns up to n signals with positive scores, highest first.
// Sorting is stable so equal scores keep provider order and the template
// stays deterministic.
func topSignals(signals []risk.SignalResult, n int) []risk.SignalResult {
	scored := make([]risk.SignalResult, 0, len(signals))
	for _, s := range signals {
		if s.Score > 0 {
			scored = append(scored, s)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > n {
		scored = scored[:n]
	}
	return scored
}
