package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the fincal binaries
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional, only used by the Postgres price source)
	Database DatabaseConfig

	// Outbound HTTP (HTML price tables)
	HTTP HTTPConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Calculation defaults
	Options Options
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL   string
	Table string // price table, schema-qualified allowed (e.g. data.daily_prices)

	DateColumn   string
	ValueColumn  string
	SymbolColumn string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// HTTPConfig holds outbound HTTP client configuration
type HTTPConfig struct {
	Timeout    time.Duration
	MaxRetries int
	RateLimit  float64 // requests per second, 0 = unlimited
	RateBurst  int
	UserAgent  string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			Table:           getEnv("DB_PRICE_TABLE", "data.daily_prices"),
			DateColumn:      getEnv("DB_DATE_COLUMN", "trade_date"),
			ValueColumn:     getEnv("DB_VALUE_COLUMN", "close_price"),
			SymbolColumn:    getEnv("DB_SYMBOL_COLUMN", "stock_code"),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		HTTP: HTTPConfig{
			Timeout:    getEnvAsDuration("HTTP_TIMEOUT", "30s"),
			MaxRetries: getEnvAsInt("HTTP_MAX_RETRIES", 3),
			RateLimit:  getEnvAsFloat("HTTP_RATE_LIMIT", 2),
			RateBurst:  getEnvAsInt("HTTP_RATE_BURST", 1),
			UserAgent:  getEnv("HTTP_USER_AGENT", "fincal/1.0"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		Options: Options{
			DateFormat: getEnv("FINCAL_DATE_FORMAT", DefaultDateFormat),
			Closest:    getEnv("FINCAL_CLOSEST", "previous"),
			TradedDays: getEnvAsInt("FINCAL_TRADED_DAYS", 365),
			GetClosest: getEnv("FINCAL_GET_CLOSEST", "exact"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" && c.Env != "test" {
		return fmt.Errorf("ENV must be one of: development, staging, production, test")
	}

	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.Database.MinConns, c.Database.MaxConns)
	}

	if c.HTTP.RateLimit < 0 {
		return fmt.Errorf("HTTP_RATE_LIMIT must be >= 0")
	}

	return c.Options.Validate()
}

// Helper functions (private, only used within this file)

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

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
