package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davidleathers/fraudguard-backend/internal/infrastructure/config"
)

func newTestRedisStore(t *testing.T) (ReportStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	store, err := NewRedisReportStore(&config.RedisConfig{
		URL:          mr.Addr(),
		PoolSize:     2,
		MinIdleConns: 1,
		DialTimeout:  time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return store, mr
}

func TestRedisReportStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)

	report := testReport("https://example-bank.com/login")
	require.NoError(t, store.Set(ctx, report.URL, report, time.Minute))

	got, err := store.Get(ctx, report.URL)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, report.ID, got.ID)
	assert.Equal(t, report.RiskScore, got.RiskScore)
	assert.Equal(t, report.RiskLevel, got.RiskLevel)
	assert.Len(t, got.Signals, len(report.Signals))
}

func TestRedisReportStore_MissReturnsNil(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)

	got, err := store.Get(ctx, "https://never-seen.example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisReportStore_EntryExpires(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	report := testReport("https://example-bank.com/login")
	require.NoError(t, store.Set(ctx, report.URL, report, time.Minute))

	mr.FastForward(2 * time.Minute)

	got, err := store.Get(ctx, report.URL)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisReportStore_CorruptPayloadTreatedAsMiss(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	require.NoError(t, mr.Set("fraudguard:report:https://example-bank.com/login", "{not json"))

	got, err := store.Get(ctx, "https://example-bank.com/login")
	require.NoError(t, err)
	assert.Nil(t, got)
}
