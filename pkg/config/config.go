package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Market-data sources
const (
	SourceAlphaVantage = "alphavantage"
	SourceCSV          = "csv"
	SourcePostgres     = "postgres"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production, test

	// Storage (both optional)
	Database DatabaseConfig
	Redis    RedisConfig

	// Market data
	DataSource   string // alphavantage | csv | postgres
	DataDir      string // CSV directory, one <SYMBOL>.csv per instrument
	AlphaVantage AlphaVantageConfig

	// Strategy YAML; empty means built-in defaults
	StrategyFile string

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database URL was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	TTL      time.Duration // series cache lifetime
}

// AlphaVantageConfig holds market-data provider settings
type AlphaVantageConfig struct {
	APIKey            string
	BaseURL           string
	RequestsPerMinute int
	Timeout           time.Duration
}

// Option overrides a loaded value before validation (CLI flags)
type Option func(*Config)

// WithDataSource overrides DATA_SOURCE when non-empty
func WithDataSource(source string) Option {
	return func(c *Config) {
		if source != "" {
			c.DataSource = source
		}
	}
}

// WithStrategyFile overrides STRATEGY_FILE when non-empty
func WithStrategyFile(path string) Option {
	return func(c *Config) {
		if path != "" {
			c.StrategyFile = path
		}
	}
}

// WithLogLevel overrides LOG_LEVEL when non-empty
func WithLogLevel(level string) Option {
	return func(c *Config) {
		if level != "" {
			c.LogLevel = level
		}
	}
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load(opts ...Option) (*Config, error) {
	loadEnvFile()
	env := &envReader{}

	cfg := &Config{
		Port: env.str("PORT", "8090"),
		Env:  env.str("ENV", "development"),

		Database: DatabaseConfig{
			URL:             env.str("DATABASE_URL", ""),
			MaxConns:        env.int("DB_MAX_CONNS", 10),
			MinConns:        env.int("DB_MIN_CONNS", 1),
			MaxConnLifetime: env.duration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: env.duration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     env.str("REDIS_HOST", "localhost"),
			Port:     env.str("REDIS_PORT", "6379"),
			Password: env.str("REDIS_PASSWORD", ""),
			DB:       env.int("REDIS_DB", 0),
			Enabled:  env.bool("REDIS_ENABLED", false),
			TTL:      env.duration("REDIS_SERIES_TTL", "12h"),
		},

		DataSource: env.str("DATA_SOURCE", SourceAlphaVantage),
		DataDir:    env.str("DATA_DIR", "data"),

		AlphaVantage: AlphaVantageConfig{
			APIKey:            env.str("ALPHAVANTAGE_API_KEY", ""),
			BaseURL:           env.str("ALPHAVANTAGE_BASE_URL", "https://www.alphavantage.co"),
			RequestsPerMinute: env.int("ALPHAVANTAGE_RPM", 5),
			Timeout:           env.duration("ALPHAVANTAGE_TIMEOUT", "30s"),
		},

		StrategyFile: env.str("STRATEGY_FILE", ""),

		LogLevel:  env.str("LOG_LEVEL", "info"),
		LogFormat: env.str("LOG_FORMAT", "console"),
	}
	if err := env.err(); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	switch c.Env {
	case "development", "staging", "production", "test":
	default:
		return fmt.Errorf("ENV must be one of: development, staging, production, test")
	}

	switch c.DataSource {
	case SourceAlphaVantage:
		if c.AlphaVantage.APIKey == "" {
			return fmt.Errorf("ALPHAVANTAGE_API_KEY is required when DATA_SOURCE=%s", SourceAlphaVantage)
		}
		if c.AlphaVantage.RequestsPerMinute <= 0 {
			return fmt.Errorf("ALPHAVANTAGE_RPM must be positive")
		}
	case SourceCSV:
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required when DATA_SOURCE=%s", SourceCSV)
		}
	case SourcePostgres:
		if !c.Database.Enabled() {
			return fmt.Errorf("DATABASE_URL is required when DATA_SOURCE=%s", SourcePostgres)
		}
	default:
		return fmt.Errorf("DATA_SOURCE must be one of: %s, %s, %s", SourceAlphaVantage, SourceCSV, SourcePostgres)
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

// envReader reads typed environment variables and collects malformed ones
type envReader struct {
	errs []error
}

func (r *envReader) str(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (r *envReader) int(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not an integer", key, raw))
		return defaultValue
	}
	return value
}

func (r *envReader) bool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not a boolean", key, raw))
		return defaultValue
	}
	return value
}

func (r *envReader) duration(key, defaultValue string) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		raw = defaultValue
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not a duration", key, raw))
		value, _ = time.ParseDuration(defaultValue)
	}
	return value
}

// err joins every malformed variable into one error
func (r *envReader) err() error {
	if len(r.errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid environment: %w", errors.Join(r.errs...))
}
