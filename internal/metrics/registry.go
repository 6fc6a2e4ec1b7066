package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Registry holds all domain-specific metrics for the application
type Registry struct {
	meter metric.Meter

	// Analysis metrics
	AnalysisDuration       metric.Float64Histogram
	AnalysisCounter        metric.Int64Counter
	AnalysisFailureCounter metric.Int64Counter
	ProviderTimeoutCounter metric.Int64Counter
	ProviderErrorCounter   metric.Int64Counter

	// Cache metrics
	CacheHitCounter  metric.Int64Counter
	CacheMissCounter metric.Int64Counter

	// Tab monitoring metrics
	WarningShownCounter     metric.Int64Counter
	WarningDismissedCounter metric.Int64Counter
	ActiveTabs              metric.Int64ObservableGauge

	// State for observable metrics
	mu         sync.RWMutex
	activeTabs int64
}

// NewRegistry creates a new metrics registry with all domain metrics
func NewRegistry() (*Registry, error) {
	meter := otel.Meter("fraudguard-backend")
	r := &Registry{meter: meter}

	var err error

	if r.AnalysisDuration, err = meter.Float64Histogram(
		"fraudguard.analysis.duration",
		metric.WithDescription("Duration of URL risk analysis"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if r.AnalysisCounter, err = meter.Int64Counter(
		"fraudguard.analysis.total",
		metric.WithDescription("Total URL analyses by risk level"),
	); err != nil {
		return nil, err
	}

	if r.AnalysisFailureCounter, err = meter.Int64Counter(
		"fraudguard.analysis.failures",
		metric.WithDescription("Whole-computation analysis failures"),
	); err != nil {
		return nil, err
	}

	if r.ProviderTimeoutCounter, err = meter.Int64Counter(
		"fraudguard.provider.timeouts",
		metric.WithDescription("Signal provider deadline misses"),
	); err != nil {
		return nil, err
	}

	if r.ProviderErrorCounter, err = meter.Int64Counter(
		"fraudguard.provider.errors",
		metric.WithDescription("Signal provider failures"),
	); err != nil {
		return nil, err
	}

	if r.CacheHitCounter, err = meter.Int64Counter(
		"fraudguard.cache.hits",
		metric.WithDescription("Report cache hits"),
	); err != nil {
		return nil, err
	}

	if r.CacheMissCounter, err = meter.Int64Counter(
		"fraudguard.cache.misses",
		metric.WithDescription("Report cache misses"),
	); err != nil {
		return nil, err
	}

	if r.WarningShownCounter, err = meter.Int64Counter(
		"fraudguard.warnings.shown",
		metric.WithDescription("Warnings displayed to users"),
	); err != nil {
		return nil, err
	}

	if r.WarningDismissedCounter, err = meter.Int64Counter(
		"fraudguard.warnings.dismissed",
		metric.WithDescription("Warnings dismissed via continue"),
	); err != nil {
		return nil, err
	}

	if r.ActiveTabs, err = meter.Int64ObservableGauge(
		"fraudguard.tabs.active",
		metric.WithDescription("Currently monitored browsing tabs"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			r.mu.RLock()
			defer r.mu.RUnlock()
			o.Observe(r.activeTabs)
			return nil
		}),
	); err != nil {
		return nil, err
	}

	return r, nil
}

// All recorder methods are nil-safe so metrics stay optional in tests and
// in components wired without a registry.

// RecordAnalysis records one completed analysis.
func (r *Registry) RecordAnalysis(ctx context.Context, duration time.Duration, level string) {
	if r == nil {
		return
	}
	r.AnalysisDuration.Record(ctx, duration.Seconds())
	r.AnalysisCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("risk_level", level)))
}

// RecordAnalysisFailure records a whole-computation fault.
func (r *Registry) RecordAnalysisFailure(ctx context.Context) {
	if r == nil {
		return
	}
	r.AnalysisFailureCounter.Add(ctx, 1)
}

// RecordProviderTimeout records a provider deadline miss.
func (r *Registry) RecordProviderTimeout(ctx context.Context, provider string) {
	if r == nil {
		return
	}
	r.ProviderTimeoutCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
}

// RecordProviderError records a provider failure.
func (r *Registry) RecordProviderError(ctx context.Context, provider string) {
	if r == nil {
		return
	}
	r.ProviderErrorCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
}

// RecordCacheHit records a report cache hit.
func (r *Registry) RecordCacheHit(ctx context.Context) {
	if r == nil {
		return
	}
	r.CacheHitCounter.Add(ctx, 1)
}

// RecordCacheMiss records a report cache miss.
func (r *Registry) RecordCacheMiss(ctx context.Context) {
	if r == nil {
		return
	}
	r.CacheMissCounter.Add(ctx, 1)
}

// RecordWarningShown records a warning display event.
func (r *Registry) RecordWarningShown(ctx context.Context, level string) {
	if r == nil {
		return
	}
	r.WarningShownCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("risk_level", level)))
}

// RecordWarningDismissed records a user continue action.
func (r *Registry) RecordWarningDismissed(ctx context.Context) {
	if r == nil {
		return
	}
	r.WarningDismissedCounter.Add(ctx, 1)
}

// SetActiveTabs updates the monitored tab count.
func (r *Registry) SetActiveTabs(n int64) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.activeTabs = n
	r.mu.Unlock()
}
