package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/davidleathers/fraudguard-backend/internal/domain/risk"
	"github.com/davidleathers/fraudguard-backend/internal/domain/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSummarizer struct {
	mock.Mock
}

func (m *mockSummarizer) Summarize(ctx context.Context, signals []risk.SignalResult, level risk.RiskLevel) (string, error) {
	args := m.Called(ctx, signals, level)
	return args.String(0), args.Error(1)
}

func signalSet(similarity, age, transport, keyword float64) []risk.SignalResult {
	return []risk.SignalResult{
		{Name: risk.SignalSimilarity, Score: similarity, Description: "similarity detail", Status: risk.StatusOK},
		{Name: risk.SignalDomainAge, Score: age, Description: "age detail", Status: risk.StatusOK},
		{Name: risk.SignalTransportSecurity, Score: transport, Description: "transport detail", Status: risk.StatusOK},
		{Name: risk.SignalKeyword, Score: keyword, Description: "keyword detail", Status: risk.StatusOK},
	}
}

func TestEngine_Score(t *testing.T) {
	engine := NewEngine(EngineConfig{}, nil, zap.NewNop())

	tests := []struct {
		name      string
		signals   []risk.SignalResult
		wantScore float64
		wantLevel risk.RiskLevel
	}{
		{
			name:      "all zero is safe",
			signals:   signalSet(0, 0, 0, 0),
			wantScore: 0,
			wantLevel: risk.LevelSafe,
		},
		{
			name:      "all maximal clamps to 100",
			signals:   signalSet(100, 100, 100, 100),
			wantScore: 100,
			wantLevel: risk.LevelDangerous,
		},
		{
			// 0.35*90 + 0.20*0 + 0.25*40 + 0.20*20 = 31.5+10+4 = 45.5 -> 46
			name:      "weighted mid-range",
			signals:   signalSet(90, 0, 40, 20),
			wantScore: 46,
			wantLevel: risk.LevelSuspicious,
		},
		{
			// 0.35*85 + 0.25*100 + 0.20*100 = 29.75+25+20 = 74.75 -> 75
			name:      "typosquat with untrusted transport is dangerous",
			signals:   signalSet(85, 0, 100, 100),
			wantScore: 75,
			wantLevel: risk.LevelDangerous,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, level := engine.Score(tt.signals)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantLevel, level)
			assert.GreaterOrEqual(t, score, float64(0))
			assert.LessOrEqual(t, score, float64(100))
		})
	}
}

func TestEngine_Classify_BoundaryValues(t *testing.T) {
	engine := NewEngine(EngineConfig{}, nil, zap.NewNop())

	// Boundary values belong to the lower band.
	assert.Equal(t, risk.LevelSafe, engine.Classify(30))
	assert.Equal(t, risk.LevelSuspicious, engine.Classify(31))
	assert.Equal(t, risk.LevelSuspicious, engine.Classify(70))
	assert.Equal(t, risk.LevelDangerous, engine.Classify(71))
	assert.Equal(t, risk.LevelSafe, engine.Classify(0))
	assert.Equal(t, risk.LevelDangerous, engine.Classify(100))
}

func TestEngine_BuildReport(t *testing.T) {
	target := values.MustNormalizeURL("https://exarnple-bank.com/login")

	t.Run("summarizer supplies the explanation", func(t *testing.T) {
		summarizer := new(mockSummarizer)
		summarizer.On("Summarize", mock.Anything, mock.Anything, risk.LevelDangerous).
			Return("A generated narrative.", nil)

		engine := NewEngine(EngineConfig{}, summarizer, zap.NewNop())
		report, err := engine.BuildReport(context.Background(), target, signalSet(85, 0, 100, 100))
		require.NoError(t, err)

		assert.Equal(t, "A generated narrative.", report.Explanation)
		assert.Equal(t, risk.RecommendationDangerous, report.Recommendation)
		assert.Equal(t, target.String(), report.URL)
		assert.Len(t, report.Signals, 4)
		assert.False(t, report.ComputedAt.IsZero())
		summarizer.AssertExpectations(t)
	})

	t.Run("summarizer failure falls back to template", func(t *testing.T) {
		summarizer := new(mockSummarizer)
		summarizer.On("Summarize", mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("upstream overloaded"))

		engine := NewEngine(EngineConfig{}, summarizer, zap.NewNop())
		report, err := engine.BuildReport(context.Background(), target, signalSet(85, 0, 100, 20))
		require.NoError(t, err)

		// Never empty because of a downstream failure, and built from the
		// top-2 signals: transport (100) then similarity (85).
		assert.Contains(t, report.Explanation, "transport detail")
		assert.Contains(t, report.Explanation, "similarity detail")
		assert.NotContains(t, report.Explanation, "keyword detail")
	})

	t.Run("slow summarizer is cut off by its own deadline", func(t *testing.T) {
		slow := &slowSummarizer{delay: time.Second}
		engine := NewEngine(EngineConfig{SummarizerTimeout: 20 * time.Millisecond}, slow, zap.NewNop())

		start := time.Now()
		report, err := engine.BuildReport(context.Background(), target, signalSet(85, 0, 100, 20))
		require.NoError(t, err)

		assert.Less(t, time.Since(start), 500*time.Millisecond)
		assert.NotEmpty(t, report.Explanation)
	})

	t.Run("nil summarizer uses template", func(t *testing.T) {
		engine := NewEngine(EngineConfig{}, nil, zap.NewNop())
		report, err := engine.BuildReport(context.Background(), target, signalSet(0, 0, 0, 0))
		require.NoError(t, err)
		assert.NotEmpty(t, report.Explanation)
		assert.NotEmpty(t, report.Recommendation)
	})

	t.Run("no signals is a computation fault", func(t *testing.T) {
		engine := NewEngine(EngineConfig{}, nil, zap.NewNop())
		_, err := engine.BuildReport(context.Background(), target, nil)
		assert.Error(t, err)
	})
}

type slowSummarizer struct {
	delay time.Duration
}

func (s *slowSummarizer) Summarize(ctx context.Context, _ []risk.SignalResult, _ risk.RiskLevel) (string, error) {
	select {
	case <-time.After(s.delay):
		return "too late", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestTemplateExplanation_Deterministic(t *testing.T) {
	signals := signalSet(85, 60, 85, 20)
	first := templateExplanation(signals, risk.LevelDangerous)
	second := templateExplanation(signals, risk.LevelDangerous)
	assert.Equal(t, first, second)

	// Equal scores keep provider order: similarity before transport.
	assert.Contains(t, first, "similarity detail; transport detail")
}
