package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	apperrors "papertrader/internal/errors"
	"papertrader/internal/logger"
)

// Leaderboard store backends.
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// API keys for the trade pipeline and operator endpoints
	PipelineAPIKey string
	AdminAPIKey    string

	// Leaderboard store
	LeaderboardBackend string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int

	// Earnings cache write-behind
	FlushInterval         time.Duration
	FlushTimeout          time.Duration
	FlushBatchSize        int
	DefaultPortfolioValue float64
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		logger.Get().Debug(".env file not found, using process environment")
	}

	config := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "papertrader"),
		DBPassword: getEnv("DB_PASSWORD", "papertrader"),
		DBName:     getEnv("DB_NAME", "papertrader"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		PipelineAPIKey: os.Getenv("PIPELINE_API_KEY"),
		AdminAPIKey:    os.Getenv("ADMIN_API_KEY"),

		LeaderboardBackend: getEnv("LEADERBOARD_BACKEND", BackendPostgres),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
	}

	var err error
	if config.JWTExpirationDur, err = getDuration("JWT_EXPIRES_IN", 24*time.Hour); err != nil {
		return nil, err
	}
	if config.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if config.FlushInterval, err = getDuration("EARNINGS_FLUSH_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if config.FlushTimeout, err = getDuration("EARNINGS_FLUSH_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if config.FlushBatchSize, err = getInt("EARNINGS_FLUSH_BATCH_SIZE", 100); err != nil {
		return nil, err
	}
	if config.DefaultPortfolioValue, err = getFloat("DEFAULT_PORTFOLIO_VALUE", 100000); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

// Validate checks the settings the earnings cache cannot start without.
func (c *Config) Validate() error {
	switch {
	case c.FlushInterval <= 0:
		return apperrors.WithMessage(apperrors.ErrConfiguration, "EARNINGS_FLUSH_INTERVAL must be positive")
	case c.FlushTimeout <= 0:
		return apperrors.WithMessage(apperrors.ErrConfiguration, "EARNINGS_FLUSH_TIMEOUT must be positive")
	case c.FlushBatchSize <= 0:
		return apperrors.WithMessage(apperrors.ErrConfiguration, "EARNINGS_FLUSH_BATCH_SIZE must be positive")
	case math.IsNaN(c.DefaultPortfolioValue) || math.IsInf(c.DefaultPortfolioValue, 0) || c.DefaultPortfolioValue < 0:
		return apperrors.WithMessage(apperrors.ErrConfiguration, "DEFAULT_PORTFOLIO_VALUE must be a finite, non-negative number")
	case c.LeaderboardBackend != BackendPostgres && c.LeaderboardBackend != BackendRedis:
		return apperrors.WithMessage(apperrors.ErrConfiguration,
			fmt.Sprintf("LEADERBOARD_BACKEND must be %q or %q", BackendPostgres, BackendRedis))
	case c.LeaderboardBackend == BackendRedis && c.RedisAddr == "":
		return apperrors.WithMessage(apperrors.ErrConfiguration, "REDIS_ADDR is required for the redis backend")
	}
	return nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			logger.Get().Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.WithMessage(apperrors.ErrConfiguration, "invalid "+key), err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.WithMessage(apperrors.ErrConfiguration, "invalid "+key), err)
	}
	return n, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.WithMessage(apperrors.ErrConfiguration, "invalid "+key), err)
	}
	return f, nil
}
