package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"papertrader/internal/clock"
	"papertrader/internal/config"
	"papertrader/internal/database"
	"papertrader/internal/earnings"
	"papertrader/internal/logger"
	"papertrader/internal/server"
	"papertrader/internal/store"
	"papertrader/internal/validator"
)

// @title           Paper Trader Leaderboard API
// @version         1.0
// @description     Live day, month and all-time earnings for paper traders, with a ranked leaderboard synced from an in-memory earnings cache.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description Pipeline or admin API key.

const shutdownTimeout = 20 * time.Second

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	validator.Register()

	// Database
	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnw("database close failed", "error", err)
		}
	}()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Leaderboard store
	var (
		lbStore interface {
			earnings.Store
			store.Ranker
		}
		pinger server.Pinger
	)
	switch appConfig.LeaderboardBackend {
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     appConfig.RedisAddr,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
		})
		defer rdb.Close()

		rs := store.NewRedisStore(rdb, "")
		if err := rs.Ping(context.Background()); err != nil {
			return fmt.Errorf("failed to reach redis at %s: %w", appConfig.RedisAddr, err)
		}
		lbStore, pinger = rs, rs
	default:
		lbStore = store.NewGormStore(dbManager.DB())
	}
	log.Infow("leaderboard store selected", "backend", appConfig.LeaderboardBackend)

	// Earnings cache
	clk := clock.System{}
	cache, err := earnings.NewCache(clk, earnings.WithDefaultPortfolioValue(appConfig.DefaultPortfolioValue))
	if err != nil {
		return err
	}

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), appConfig.FlushTimeout)
	loaded, err := cache.Load(loadCtx, lbStore)
	cancelLoad()
	if err != nil {
		return fmt.Errorf("failed to rehydrate earnings cache: %w", err)
	}

	syncer, err := earnings.NewSyncer(cache, lbStore, earnings.SyncConfig{
		Interval:     appConfig.FlushInterval,
		FlushTimeout: appConfig.FlushTimeout,
		BatchSize:    appConfig.FlushBatchSize,
	})
	if err != nil {
		return err
	}
	if err := syncer.Start(); err != nil {
		return fmt.Errorf("failed to start earnings syncer: %w", err)
	}

	// HTTP
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router, err := server.NewRouter(server.Deps{
		Config:      appConfig,
		DB:          dbManager.DB(),
		Cache:       cache,
		Ranker:      lbStore,
		Clock:       clk,
		Registry:    registry,
		StorePinger: pinger,
	})
	if err != nil {
		return err
	}

	srv := server.NewHTTPServer(appConfig.Port, router)
	serveErr := make(chan error, 1)
	go func() {
		log.Infow("starting paper trader api", "port", appConfig.Port, "records_loaded", loaded)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case runErr = <-serveErr:
		log.Errorw("http server failed", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Drain requests first so no update lands after the final flush.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("http server shutdown incomplete", "error", err)
	}
	if err := syncer.Stop(shutdownCtx); err != nil {
		log.Errorw("final earnings flush incomplete", "error", err, "dirty", cache.Stats().DirtyCount)
		if runErr == nil {
			runErr = err
		}
	}

	log.Info("shutdown complete")
	return runErr
}
