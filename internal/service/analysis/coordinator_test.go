package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/davidleathers/fraudguard-backend/internal/domain/risk"
	"github.com/davidleathers/fraudguard-backend/internal/domain/values"
	"github.com/davidleathers/fraudguard-backend/internal/service/analysis/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeProvider is a scriptable signal provider for coordinator tests.
type fakeProvider struct {
	name   risk.SignalName
	score  float64
	err    error
	delay  time.Duration
	honors bool // honor ctx cancellation while delaying
}

func (f *fakeProvider) Name() risk.SignalName { return f.name }

func (f *fakeProvider) Evaluate(ctx context.Context, _ values.NormalizedURL) (risk.SignalResult, error) {
	if f.delay > 0 {
		if f.honors {
			select {
			case <-time.After(f.delay):
			case <-ctx.Done():
				return risk.SignalResult{}, ctx.Err()
			}
		} else {
			time.Sleep(f.delay)
		}
	}
	if f.err != nil {
		return risk.SignalResult{}, f.err
	}
	return risk.SignalResult{
		Name:        f.name,
		Score:       f.score,
		Description: "fake " + string(f.name),
		Status:      risk.StatusOK,
	}, nil
}

func TestCoordinator_Gather_AllComplete(t *testing.T) {
	target := values.MustNormalizeURL("https://example-bank.com/login")
	c := NewCoordinator([]providers.SignalProvider{
		&fakeProvider{name: risk.SignalSimilarity, score: 80},
		&fakeProvider{name: risk.SignalDomainAge, score: 60},
		&fakeProvider{name: risk.SignalTransportSecurity, score: 40},
		&fakeProvider{name: risk.SignalKeyword, score: 20},
	}, time.Second, zap.NewNop(), nil)

	results := c.Gather(context.Background(), target)

	require.Len(t, results, 4)
	// Declaration order, independent of completion order.
	assert.Equal(t, risk.SignalSimilarity, results[0].Name)
	assert.Equal(t, risk.SignalDomainAge, results[1].Name)
	assert.Equal(t, risk.SignalTransportSecurity, results[2].Name)
	assert.Equal(t, risk.SignalKeyword, results[3].Name)
	for _, r := range results {
		assert.Equal(t, risk.StatusOK, r.Status)
	}
}

func TestCoordinator_Gather_TimeoutSynthesizesFallback(t *testing.T) {
	target := values.MustNormalizeURL("https://example-bank.com/login")
	c := NewCoordinator([]providers.SignalProvider{
		&fakeProvider{name: risk.SignalSimilarity, score: 90, delay: 500 * time.Millisecond, honors: true},
		&fakeProvider{name: risk.SignalDomainAge, score: 60},
	}, 50*time.Millisecond, zap.NewNop(), nil)

	start := time.Now()
	results := c.Gather(context.Background(), target)
	elapsed := time.Since(start)

	require.Len(t, results, 2)
	assert.Equal(t, risk.StatusTimeout, results[0].Status)
	assert.Equal(t, float64(0), results[0].Score, "fallback must never inflate risk")
	assert.Equal(t, risk.StatusOK, results[1].Status)
	assert.Equal(t, float64(60), results[1].Score)

	// The deadline is shared, not per-slot cumulative.
	assert.Less(t, elapsed, 300*time.Millisecond)
}

func TestCoordinator_Gather_ErrorSynthesizesFallback(t *testing.T) {
	target := values.MustNormalizeURL("https://example-bank.com/login")
	c := NewCoordinator([]providers.SignalProvider{
		&fakeProvider{name: risk.SignalSimilarity, err: errors.New("registry offline")},
		&fakeProvider{name: risk.SignalTransportSecurity, err: errors.New("dial refused")},
		&fakeProvider{name: risk.SignalKeyword, score: 20},
	}, time.Second, zap.NewNop(), nil)

	results := c.Gather(context.Background(), target)

	require.Len(t, results, 3)
	assert.Equal(t, risk.StatusError, results[0].Status)
	assert.Equal(t, float64(0), results[0].Score)

	// Transport security is the one signal whose fallback is 50: an
	// unverifiable posture is itself mildly suspicious.
	assert.Equal(t, risk.StatusError, results[1].Status)
	assert.Equal(t, float64(50), results[1].Score)

	assert.Equal(t, risk.StatusOK, results[2].Status)
}

func TestCoordinator_Gather_FallbackNeverInflates(t *testing.T) {
	target := values.MustNormalizeURL("https://example-bank.com/login")

	for _, name := range []risk.SignalName{risk.SignalSimilarity, risk.SignalDomainAge, risk.SignalKeyword} {
		failing := NewCoordinator([]providers.SignalProvider{
			&fakeProvider{name: name, err: errors.New("boom")},
		}, time.Second, zap.NewNop(), nil)
		ok := NewCoordinator([]providers.SignalProvider{
			&fakeProvider{name: name, score: 0},
		}, time.Second, zap.NewNop(), nil)

		failedScore := failing.Gather(context.Background(), target)[0].Score
		okScore := ok.Gather(context.Background(), target)[0].Score
		assert.LessOrEqual(t, failedScore, okScore, "fallback for %s inflates risk", name)
	}
}

func TestCoordinator_Gather_ClampsProviderScores(t *testing.T) {
	target := values.MustNormalizeURL("https://example-bank.com/login")
	c := NewCoordinator([]providers.SignalProvider{
		&fakeProvider{name: risk.SignalKeyword, score: 250},
	}, time.Second, zap.NewNop(), nil)

	results := c.Gather(context.Background(), target)
	assert.Equal(t, float64(100), results[0].Score)
}
