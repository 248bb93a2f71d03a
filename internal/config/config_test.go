package config

import (
	"testing"
	"time"

	"papertrader/internal/testutil"
)

func validConfig() *Config {
	return &Config{
		LeaderboardBackend:    BackendPostgres,
		FlushInterval:         30 * time.Second,
		FlushTimeout:          10 * time.Second,
		FlushBatchSize:        100,
		DefaultPortfolioValue: 100000,
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("EARNINGS_FLUSH_INTERVAL", "")
	t.Setenv("LEADERBOARD_BACKEND", "")

	cfg, err := Load()
	testutil.AssertNoError(t, err)

	if cfg.FlushInterval != 30*time.Second {
		t.Errorf("expected default flush interval 30s, got %s", cfg.FlushInterval)
	}
	if cfg.LeaderboardBackend != BackendPostgres {
		t.Errorf("expected postgres backend, got %s", cfg.LeaderboardBackend)
	}
	if cfg.DefaultPortfolioValue != 100000 {
		t.Errorf("expected default portfolio value 100000, got %f", cfg.DefaultPortfolioValue)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("EARNINGS_FLUSH_INTERVAL", "5s")
	t.Setenv("EARNINGS_FLUSH_BATCH_SIZE", "25")
	t.Setenv("LEADERBOARD_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "cache:6379")

	cfg, err := Load()
	testutil.AssertNoError(t, err)

	if cfg.FlushInterval != 5*time.Second {
		t.Errorf("expected 5s, got %s", cfg.FlushInterval)
	}
	if cfg.FlushBatchSize != 25 {
		t.Errorf("expected batch size 25, got %d", cfg.FlushBatchSize)
	}
	if cfg.RedisAddr != "cache:6379" {
		t.Errorf("expected redis addr override, got %s", cfg.RedisAddr)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("EARNINGS_FLUSH_TIMEOUT", "soon")

	_, err := Load()
	testutil.AssertAppError(t, err, "CONFIGURATION_ERROR")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero_interval", func(c *Config) { c.FlushInterval = 0 }},
		{"negative_timeout", func(c *Config) { c.FlushTimeout = -time.Second }},
		{"zero_batch", func(c *Config) { c.FlushBatchSize = 0 }},
		{"negative_portfolio_value", func(c *Config) { c.DefaultPortfolioValue = -1 }},
		{"unknown_backend", func(c *Config) { c.LeaderboardBackend = "mongo" }},
		{"redis_without_addr", func(c *Config) { c.LeaderboardBackend = BackendRedis; c.RedisAddr = "" }},
	}

	testutil.AssertNoError(t, validConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			testutil.AssertAppError(t, cfg.Validate(), "CONFIGURATION_ERROR")
		})
	}
}
