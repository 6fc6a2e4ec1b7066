package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`

	Server ServerConfig `koanf:"server"`
	Redis  RedisConfig  `koanf:"redis"`

	Scoring    ScoringConfig    `koanf:"scoring"`
	Providers  ProvidersConfig  `koanf:"providers"`
	Summarizer SummarizerConfig `koanf:"summarizer"`
	Cache      CacheConfig      `koanf:"cache"`
	Monitor    MonitorConfig    `koanf:"monitor"`
	Registry   RegistryConfig   `koanf:"registry"`
	API        APIConfig        `koanf:"api"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type RedisConfig struct {
	Enabled      bool          `koanf:"enabled"`
	URL          string        `koanf:"url"`
	Password     string        `koanf:"password"`
	DB           int           `koanf:"db"`
	PoolSize     int           `koanf:"pool_size"`
	MinIdleConns int           `koanf:"min_idle_conns"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// ScoringConfig is the central scoring policy: per-signal weights and the
// classification boundaries.
type ScoringConfig struct {
	WeightSimilarity        float64 `koanf:"weight_similarity"`
	WeightDomainAge         float64 `koanf:"weight_domain_age"`
	WeightTransportSecurity float64 `koanf:"weight_transport_security"`
	WeightKeyword           float64 `koanf:"weight_keyword"`

	SafeMaxScore       float64 `koanf:"safe_max_score"`
	SuspiciousMaxScore float64 `koanf:"suspicious_max_score"`
}

type ProvidersConfig struct {
	Timeout         time.Duration `koanf:"timeout"`
	SimilarityFloor float64       `koanf:"similarity_floor"`
	RDAPBaseURL     string        `koanf:"rdap_base_url"`
}

type SummarizerConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Endpoint string        `koanf:"endpoint"`
	APIKey   string        `koanf:"api_key"`
	Timeout  time.Duration `koanf:"timeout"`
}

type CacheConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

type MonitorConfig struct {
	// WarnOnSuspicious opts tabs into warnings for Suspicious verdicts.
	// Dangerous verdicts always warn. Off by default to avoid alert
	// fatigue.
	WarnOnSuspicious bool `koanf:"warn_on_suspicious"`
}

type RegistryConfig struct {
	// File is an optional YAML known-domain list; empty selects the
	// built-in seed list.
	File string `koanf:"file"`
}

type APIConfig struct {
	CORSOrigins []string        `koanf:"cors_origins"`
	RateLimit   RateLimitConfig `koanf:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `koanf:"requests_per_second"`
	BurstSize         int `koanf:"burst_size"`
}

type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	OTLPEndpoint string  `koanf:"otlp_endpoint"`
	SamplingRate float64 `koanf:"sampling_rate"`
}

func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Redis: RedisConfig{
			DB:          0,
			PoolSize:    10,
			DialTimeout: 5 * time.Second,
		},
		Scoring: ScoringConfig{
			WeightSimilarity:        0.35,
			WeightDomainAge:         0.20,
			WeightTransportSecurity: 0.25,
			WeightKeyword:           0.20,
			SafeMaxScore:            30,
			SuspiciousMaxScore:      70,
		},
		Providers: ProvidersConfig{
			Timeout:         3 * time.Second,
			SimilarityFloor: 0.6,
		},
		Summarizer: SummarizerConfig{
			Timeout: 2 * time.Second,
		},
		Cache: CacheConfig{
			TTL: 10 * time.Minute,
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: "localhost:4317",
			SamplingRate: 0.1,
		},
		API: APIConfig{
			CORSOrigins: []string{"chrome-extension://*"},
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 50,
				BurstSize:         100,
			},
		},
	}

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// Config file is optional.
	if err := k.Load(file.Provider("configs/config.yaml"), yaml.Parser()); err != nil {
		// Missing file is fine; env and defaults cover everything.
	}

	if err := k.Load(env.Provider("FRAUDGUARD_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "FRAUDGUARD_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the scoring engine cannot honor.
func (c *Config) Validate() error {
	s := c.Scoring
	total := s.WeightSimilarity + s.WeightDomainAge + s.WeightTransportSecurity + s.WeightKeyword
	if total < 0.999 || total > 1.001 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %.3f", total)
	}
	if s.SafeMaxScore <= 0 || s.SuspiciousMaxScore <= s.SafeMaxScore || s.SuspiciousMaxScore >= 100 {
		return fmt.Errorf("classification boundaries must satisfy 0 < safe < suspicious < 100, got %.0f/%.0f",
			s.SafeMaxScore, s.SuspiciousMaxScore)
	}
	if c.Providers.Timeout <= 0 {
		return fmt.Errorf("provider timeout must be positive")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}
	return nil
}
