// Package server assembles the HTTP surface: middleware, routes, metrics and
// API docs.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"papertrader/internal/clock"
	"papertrader/internal/config"
	_ "papertrader/internal/docs" // Import swagger docs
	"papertrader/internal/earnings"
	apperrors "papertrader/internal/errors"
	"papertrader/internal/handlers"
	"papertrader/internal/middleware"
	"papertrader/internal/services"
	"papertrader/internal/store"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the long-lived components the router is built from.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Cache    *earnings.Cache
	Ranker   store.Ranker
	Clock    clock.Clock
	Registry *prometheus.Registry

	// Checked by /api/health in addition to the database. Optional.
	StorePinger Pinger
}

// NewRouter wires services and handlers onto a new Gin engine.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.Config == nil || deps.DB == nil || deps.Cache == nil || deps.Ranker == nil || deps.Registry == nil {
		return nil, apperrors.WithMessage(apperrors.ErrConfiguration, "router dependencies are incomplete")
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.System{}
	}

	httpMetrics, err := middleware.NewHTTPMetrics(deps.Registry)
	if err != nil {
		return nil, err
	}
	if err := deps.Registry.Register(earnings.NewCollector(deps.Cache)); err != nil {
		return nil, err
	}

	tokens := middleware.NewTokenManager(deps.Config.JWTSecret, deps.Config.JWTExpirationDur)

	// Services
	userService := services.NewUserService(deps.DB, deps.Cache)
	auditService := services.NewAuditService(deps.DB)
	earningsService := services.NewEarningsService(deps.Cache, userService)
	leaderboardService := services.NewLeaderboardService(deps.Ranker, clk)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, auditService, tokens)
	earningsHandler := handlers.NewEarningsHandler(earningsService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	pipelineHandler := handlers.NewPipelineHandler(earningsService)
	adminHandler := handlers.NewAdminHandler(earningsService, auditService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(httpMetrics.Middleware())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	router.GET("/api/health", healthHandler(deps.DB, deps.StorePinger))

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	v1.GET("/leaderboard", leaderboardHandler.GetLeaderboard)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(tokens))
	protected.GET("/profile", authHandler.GetProfile)
	protected.GET("/earnings/me", earningsHandler.GetMyEarnings)

	// Trade pipeline
	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(deps.Config.PipelineAPIKey))
	pipeline.POST("/settlements", pipelineHandler.ApplySettlements)
	pipeline.POST("/valuations", pipelineHandler.ApplyValuations)

	// Operator routes
	admin := v1.Group("/admin")
	admin.Use(middleware.AdminAuthMiddleware(deps.Config.AdminAPIKey))
	admin.POST("/earnings/flush", adminHandler.ForceFlush)
	admin.GET("/earnings/stats", adminHandler.GetStats)
	admin.GET("/earnings/users/:user_id", adminHandler.GetUserEarnings)

	return router, nil
}

func healthHandler(db *gorm.DB, storePinger Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{"database": "ok"}
		healthy := true

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			checks["database"] = "unavailable"
			healthy = false
		}
		if storePinger != nil {
			checks["leaderboard_store"] = "ok"
			if err := storePinger.Ping(ctx); err != nil {
				checks["leaderboard_store"] = "unavailable"
				healthy = false
			}
		}

		if !healthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": checks})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": checks})
	}
}

// NewHTTPServer wraps handler in an http.Server listening on port.
func NewHTTPServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
