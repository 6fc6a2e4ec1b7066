package cache

import (
	"context"
	"sync"
	"time"

	"github.com/davidleathers/fraudguard-backend/internal/domain/risk"
	"github.com/davidleathers/fraudguard-backend/internal/domain/values"
	"github.com/davidleathers/fraudguard-backend/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultReportTTL is the freshness deadline for cached reports.
const DefaultReportTTL = 10 * time.Minute

// computeTimeout bounds a detached computation. Generous next to the
// per-provider and summarizer deadlines, which keep a single analysis
// far below this.
const computeTimeout = 30 * time.Second

// ComputeFunc produces a report on a cache miss. Alias rather than defined
// type so callers can pass method values without conversion.
type ComputeFunc = func(ctx context.Context, target values.NormalizedURL) (*risk.RiskReport, error)

// ReportStore is an optional shared second-level store behind the local
// cache (Redis in production).
type ReportStore interface {
	// Get returns the stored report or nil when absent.
	Get(ctx context.Context, key string) (*risk.RiskReport, error)

	// Set stores the report with the given TTL.
	Set(ctx context.Context, key string, report *risk.RiskReport, ttl time.Duration) error
}

// ReportCache memoizes risk reports per normalized URL and guarantees at
// most one in-flight computation per URL: concurrent callers for the same
// URL await the single computation and share its result. Failed
// computations are never cached.
type ReportCache struct {
	ttl    time.Duration
	store  ReportStore
	logger *zap.Logger

	metrics *metrics.Registry

	group singleflight.Group

	mu    sync.RWMutex
	local map[string]cacheEntry

	clock func() time.Time
}

type cacheEntry struct {
	report    *risk.RiskReport
	expiresAt time.Time
}

// ReportCacheOption configures a ReportCache.
type ReportCacheOption func(*ReportCache)

// WithReportStore adds a shared second-level store.
func WithReportStore(store ReportStore) ReportCacheOption {
	return func(c *ReportCache) {
		c.store = store
	}
}

// WithMetrics records cache hits and misses.
func WithMetrics(registry *metrics.Registry) ReportCacheOption {
	return func(c *ReportCache) {
		c.metrics = registry
	}
}

// NewReportCache creates a report cache. A zero ttl selects the default.
func NewReportCache(ttl time.Duration, logger *zap.Logger, opts ...ReportCacheOption) *ReportCache {
	if ttl <= 0 {
		ttl = DefaultReportTTL
	}
	c := &ReportCache{
		ttl:    ttl,
		logger: logger,
		local:  make(map[string]cacheEntry),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCompute returns a fresh cached report for the target or computes
// one. Computation for a given normalized URL is never duplicated across
// concurrent callers.
func (c *ReportCache) GetOrCompute(ctx context.Context, target values.NormalizedURL, compute ComputeFunc) (*risk.RiskReport, error) {
	key := target.String()

	if report := c.lookupLocal(key); report != nil {
		c.metrics.RecordCacheHit(ctx)
		return report, nil
	}
	c.metrics.RecordCacheMiss(ctx)

	result, err, _ := c.group.Do(key, func() (interface{}, error) {
		// The flight serves every waiter for this URL, so it must not
		// die with the caller that happened to start it. Detach from
		// that caller's cancellation and impose our own bound.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), computeTimeout)
		defer cancel()

		// A waiter that queued behind the previous flight may find the
		// entry already installed.
		if report := c.lookupLocal(key); report != nil {
			return report, nil
		}

		if c.store != nil {
			if report, err := c.store.Get(ctx, key); err != nil {
				c.logger.Warn("report store lookup failed", zap.String("url", key), zap.Error(err))
			} else if report != nil {
				c.putLocal(key, report)
				return report, nil
			}
		}

		report, err := compute(ctx, target)
		if err != nil {
			// Not cached: the failure surfaces to every waiter and the
			// next caller retries.
			return nil, err
		}

		c.putLocal(key, report)
		if c.store != nil {
			if err := c.store.Set(ctx, key, report, c.ttl); err != nil {
				c.logger.Warn("report store write failed", zap.String("url", key), zap.Error(err))
			}
		}
		return report, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*risk.RiskReport), nil
}

// Invalidate drops the local entry for a normalized URL.
func (c *ReportCache) Invalidate(target values.NormalizedURL) {
	c.mu.Lock()
	delete(c.local, target.String())
	c.mu.Unlock()
}

// Len returns the number of live local entries, pruning expired ones.
func (c *ReportCache) Len() int {
	now := c.clock()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.local {
		if now.After(entry.expiresAt) {
			delete(c.local, key)
		}
	}
	return len(c.local)
}

func (c *ReportCache) lookupLocal(key string) *risk.RiskReport {
	c.mu.RLock()
	entry, ok := c.local[key]
	c.mu.RUnlock()
	if !ok {
		return nil
	}
	if c.clock().After(entry.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; another goroutine may have
		// refreshed the entry.
		if current, ok := c.local[key]; ok && c.clock().After(current.expiresAt) {
			delete(c.local, key)
		}
		c.mu.Unlock()
		return nil
	}
	return entry.report
}

func (c *ReportCache) putLocal(key string, report *risk.RiskReport) {
	c.mu.Lock()
	c.local[key] = cacheEntry{
		report:    report,
		expiresAt: c.clock().Add(c.ttl),
	}
	c.mu.Unlock()
}
