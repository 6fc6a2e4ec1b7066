package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/davidleathers/fraudguard-backend/internal/domain/risk"
	"github.com/davidleathers/fraudguard-backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const reportKeyPrefix = "fraudguard:report:"

// redisReportStore implements ReportStore on Redis so multiple backend
// instances share computed reports.
type redisReportStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisReportStore creates a Redis-backed report store with the given
// configuration.
func NewRedisReportStore(cfg *config.RedisConfig, logger *zap.Logger) (ReportStore, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("redis config is required")
	}

	opts := &redis.Options{
		Addr:         cfg.URL,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info("redis report store initialized",
		zap.String("addr", cfg.URL),
		zap.Int("db", cfg.DB))

	return &redisReportStore{
		client: client,
		logger: logger,
	}, nil
}

// Get retrieves a stored report, or nil when the key is absent.
func (r *redisReportStore) Get(ctx context.Context, key string) (*risk.RiskReport, error) {
	data, err := r.client.Get(ctx, reportKeyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var report risk.RiskReport
	if err := json.Unmarshal(data, &report); err != nil {
		// A corrupt entry behaves like a miss; the computation replaces it.
		r.logger.Warn("corrupt cached report, ignoring",
			zap.String("key", key),
			zap.Error(err))
		return nil, nil
	}
	return &report, nil
}

// Set stores a report with the given TTL.
func (r *redisReportStore) Set(ctx context.Context, key string, report *risk.RiskReport, ttl time.Duration) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	if err := r.client.Set(ctx, reportKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}
