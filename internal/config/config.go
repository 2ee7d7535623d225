package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env       string          `json:"env"`
	Http      HttpConfig      `json:"http"`
	Postgres  PostgresConfig  `json:"postgres"`
	Redis     RedisConfig     `json:"redis"`
	APIKey    string          `json:"api_key,omitempty"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Matching  MatchingConfig  `json:"matching"`
	Urgency   UrgencyConfig   `json:"urgency"`
	Drafts    DraftsConfig    `json:"drafts"`
	Workers   WorkersConfig   `json:"workers"`
	Metrics   MetricsConfig   `json:"metrics"`
}

type HttpConfig struct {
	Port            string        `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"password,omitempty"`
	SSLMode  string `json:"ssl_mode"`

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	AutoMigrate     bool `json:"auto_migrate"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db"`
}

type RateLimitConfig struct {
	RPS   float64 `json:"rps"`
	Burst int     `json:"burst"`
}

type MatchingConfig struct {
	DefaultRadiusKm float64       `json:"default_radius_km"`
	MaxRadiusKm     float64       `json:"max_radius_km"`
	CompatMode      string        `json:"compat_mode"`     // standard | legacy
	DistanceMethod  string        `json:"distance_method"` // haversine | vincenty
	DonorCacheTTL   time.Duration `json:"donor_cache_ttl"`
}

// UrgencyConfig holds the expected response window per urgency level.
type UrgencyConfig struct {
	Critical time.Duration `json:"critical"`
	Urgent   time.Duration `json:"urgent"`
	Moderate time.Duration `json:"moderate"`
	Routine  time.Duration `json:"routine"`
}

type DraftsConfig struct {
	TTL           time.Duration `json:"ttl"`
	KeyPrefix     string        `json:"key_prefix"`
	SubmitTimeout time.Duration `json:"submit_timeout"`
}

type WorkersConfig struct {
	ExpiryInterval      time.Duration `json:"expiry_interval"`
	PoolRefreshInterval time.Duration `json:"pool_refresh_interval"`
}

type MetricsConfig struct {
	Namespace string `json:"namespace"`
}

// Load reads .env when present, then the environment, and validates the result.
func Load() (*Config, error) {
	stdLogger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		stdLogger.Warn(".env load warning", slog.Any("error", err))
	}

	cfg := FromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stdLogger.Info("Config loaded successfully",
		slog.String("env", cfg.Env),
		slog.String("http_port", cfg.Http.Port),
		slog.String("postgres_db", cfg.Postgres.Database),
		slog.String("redis_addr", cfg.Redis.Addr),
		slog.String("compat_mode", cfg.Matching.CompatMode),
		slog.String("distance_method", cfg.Matching.DistanceMethod))

	return cfg, nil
}

// FromEnv reads the process environment without loading .env or validating.
func FromEnv() *Config {
	return &Config{
		Env: getEnv("ENV", "local"),
		Http: HttpConfig{
			Port:            getEnv("HTTP_PORT", ":8080"),
			ReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "pg-local"),
			Port:            getEnvInt("POSTGRES_PORT", 5432),
			Database:        getEnv("POSTGRES_DB", "bloodlink_db"),
			User:            getEnv("POSTGRES_USER", "postgres"),
			Password:        getEnv("POSTGRES_PASSWORD", "postgres"),
			SSLMode:         getEnv("POSTGRES_SSL_MODE", "disable"),
			MaxConns:        int32(getEnvInt("POSTGRES_MAX_CONNS", 20)),
			MinConns:        1,
			MaxConnLifetime: 1 * time.Hour,
			AutoMigrate:     getEnvBool("POSTGRES_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "redis-local:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		APIKey: getEnv("API_KEY", "super-secret-key"),
		RateLimit: RateLimitConfig{
			RPS:   getEnvFloat("RATE_LIMIT_RPS", 10),
			Burst: getEnvInt("RATE_LIMIT_BURST", 20),
		},
		Matching: MatchingConfig{
			DefaultRadiusKm: getEnvFloat("MATCH_DEFAULT_RADIUS_KM", 10),
			MaxRadiusKm:     getEnvFloat("MATCH_MAX_RADIUS_KM", 100),
			CompatMode:      getEnv("MATCH_COMPAT_MODE", "standard"),
			DistanceMethod:  getEnv("MATCH_DISTANCE_METHOD", "haversine"),
			DonorCacheTTL:   getEnvDuration("MATCH_DONOR_CACHE_TTL", 5*time.Minute),
		},
		Urgency: UrgencyConfig{
			Critical: getEnvDuration("URGENCY_CRITICAL_WINDOW", time.Hour),
			Urgent:   getEnvDuration("URGENCY_URGENT_WINDOW", 4*time.Hour),
			Moderate: getEnvDuration("URGENCY_MODERATE_WINDOW", 12*time.Hour),
			Routine:  getEnvDuration("URGENCY_ROUTINE_WINDOW", 24*time.Hour),
		},
		Drafts: DraftsConfig{
			TTL:           getEnvDuration("DRAFT_TTL", 24*time.Hour),
			KeyPrefix:     getEnv("DRAFT_KEY_PREFIX", "emergency:draft:"),
			SubmitTimeout: getEnvDuration("DRAFT_SUBMIT_TIMEOUT", 10*time.Second),
		},
		Workers: WorkersConfig{
			ExpiryInterval:      getEnvDuration("WORKER_EXPIRY_INTERVAL", time.Minute),
			PoolRefreshInterval: getEnvDuration("WORKER_POOL_REFRESH_INTERVAL", 2*time.Minute),
		},
		Metrics: MetricsConfig{
			Namespace: getEnv("METRICS_NAMESPACE", "bloodlink"),
		},
	}
}

func (c *Config) Validate() error {

	if c.Http.Port == "" || (len(c.Http.Port) > 0 && c.Http.Port[0] != ':') {
		return errors.New("HTTP_PORT must start with ':' like ':8080'")
	}

	if c.Postgres.Host == "" {
		return errors.New("POSTGRES_HOST required")
	}

	if c.Matching.DefaultRadiusKm <= 0 || c.Matching.DefaultRadiusKm > 500 {
		return errors.New("MATCH_DEFAULT_RADIUS_KM must be in (0, 500]")
	}
	if c.Matching.MaxRadiusKm < c.Matching.DefaultRadiusKm {
		return errors.New("MATCH_MAX_RADIUS_KM must not be below MATCH_DEFAULT_RADIUS_KM")
	}

	switch c.Matching.CompatMode {
	case "standard", "legacy":
	default:
		return fmt.Errorf("MATCH_COMPAT_MODE %q: want standard or legacy", c.Matching.CompatMode)
	}

	switch c.Matching.DistanceMethod {
	case "haversine", "vincenty":
	default:
		return fmt.Errorf("MATCH_DISTANCE_METHOD %q: want haversine or vincenty", c.Matching.DistanceMethod)
	}

	u := c.Urgency
	if u.Critical <= 0 || u.Critical >= u.Urgent || u.Urgent >= u.Moderate || u.Moderate >= u.Routine {
		return errors.New("URGENCY_*_WINDOW must be positive and increase from critical to routine")
	}

	if c.Drafts.TTL <= 0 {
		return errors.New("DRAFT_TTL must be positive")
	}

	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
