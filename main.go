package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/davidleathers/fraudguard-backend/internal/api/rest"
	"github.com/davidleathers/fraudguard-backend/internal/api/websocket"
	"github.com/davidleathers/fraudguard-backend/internal/domain/risk"
	"github.com/davidleathers/fraudguard-backend/internal/infrastructure/cache"
	"github.com/davidleathers/fraudguard-backend/internal/infrastructure/config"
	"github.com/davidleathers/fraudguard-backend/internal/infrastructure/telemetry"
	"github.com/davidleathers/fraudguard-backend/internal/metrics"
	"github.com/davidleathers/fraudguard-backend/internal/registry"
	"github.com/davidleathers/fraudguard-backend/internal/service/analysis"
	"github.com/davidleathers/fraudguard-backend/internal/service/analysis/providers"
	"github.com/davidleathers/fraudguard-backend/internal/service/tabmonitor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel)
	if err != nil {
		slog.Error("failed to setup logger", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	if err := run(context.Background(), cfg); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	slog.Info("starting fraudguard backend",
		"version", cfg.Version,
		"environment", cfg.Environment,
		"port", cfg.Server.Port)

	telemetryProvider, err := telemetry.Setup(ctx, &telemetry.Config{
		ServiceName:    "fraudguard-backend",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SamplingRate:   cfg.Telemetry.SamplingRate,
		ExportTimeout:  30 * time.Second,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	}()

	zapLogger, err := telemetry.NewZapLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	meters, err := metrics.NewRegistry()
	if err != nil {
		return err
	}

	knownDomains, err := loadRegistry(cfg)
	if err != nil {
		return err
	}
	slog.Info("known-domain registry loaded", "entries", knownDomains.Len())

	signalProviders := []providers.SignalProvider{
		providers.NewSimilarityProvider(knownDomains, cfg.Providers.SimilarityFloor),
		providers.NewDomainAgeProvider(providers.NewRDAPClient(cfg.Providers.RDAPBaseURL, zapLogger)),
		providers.NewTransportProvider(providers.NewTLSProber()),
		providers.NewKeywordProvider(nil, providers.NewHTTPPageFetcher()),
	}

	coordinator := analysis.NewCoordinator(signalProviders, cfg.Providers.Timeout, zapLogger, meters)

	var summarizer analysis.Summarizer
	if cfg.Summarizer.Enabled {
		summarizer = analysis.NewHTTPSummarizer(cfg.Summarizer.Endpoint, cfg.Summarizer.APIKey)
	}

	engine := analysis.NewEngine(analysis.EngineConfig{
		Weights:           scoringWeights(cfg.Scoring),
		SafeMaxScore:      cfg.Scoring.SafeMaxScore,
		SuspiciousMax:     cfg.Scoring.SuspiciousMaxScore,
		SummarizerTimeout: cfg.Summarizer.Timeout,
	}, summarizer, zapLogger)

	cacheOpts := []cache.ReportCacheOption{cache.WithMetrics(meters)}
	if cfg.Redis.Enabled {
		store, err := cache.NewRedisReportStore(&cfg.Redis, zapLogger)
		if err != nil {
			return err
		}
		cacheOpts = append(cacheOpts, cache.WithReportStore(store))
		slog.Info("redis report store enabled")
	}
	reports := cache.NewReportCache(cfg.Cache.TTL, zapLogger, cacheOpts...)

	analysisService := analysis.NewService(coordinator, engine, reports, zapLogger, meters)

	monitor := tabmonitor.NewMonitor(analysisService, nil, cfg.Monitor.WarnOnSuspicious, zapLogger, meters)
	hub := websocket.NewTabEventHub(monitor, cfg.API.CORSOrigins, zapLogger)
	monitor.SetNotifier(hub)

	restHandler := rest.NewHandler(analysisService, cfg.Version, cfg.API, slog.Default())

	mux := http.NewServeMux()
	mux.Handle("/", restHandler.Routes())
	mux.HandleFunc("GET /ws/tabs", hub.HandleTabEvents)

	server := rest.NewServer(cfg, mux, slog.Default())
	return server.Start()
}

func loadRegistry(cfg *config.Config) (*registry.Registry, error) {
	if cfg.Registry.File == "" {
		return registry.Default(), nil
	}
	return registry.LoadFile(cfg.Registry.File)
}

func scoringWeights(cfg config.ScoringConfig) map[risk.SignalName]float64 {
	return map[risk.SignalName]float64{
		risk.SignalSimilarity:        cfg.WeightSimilarity,
		risk.SignalDomainAge:         cfg.WeightDomainAge,
		risk.SignalTransportSecurity: cfg.WeightTransportSecurity,
		risk.SignalKeyword:           cfg.WeightKeyword,
	}
}
