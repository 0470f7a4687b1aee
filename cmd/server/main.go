package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/dornbi/bltools-go/config"
	"github.com/dornbi/bltools-go/internal/database"
	"github.com/dornbi/bltools-go/internal/handlers"
	"github.com/dornbi/bltools-go/internal/http/ratelimit"
	"github.com/dornbi/bltools-go/internal/jobs"
	"github.com/dornbi/bltools-go/internal/lp"
	"github.com/dornbi/bltools-go/internal/middleware"
	"github.com/dornbi/bltools-go/internal/offers"
	"github.com/dornbi/bltools-go/internal/offersource"
	"github.com/dornbi/bltools-go/internal/sourcing"
	"github.com/dornbi/bltools-go/internal/workers"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting BLTools server...")

	// Connect to database
	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL not set")
	}

	ctx := context.Background()
	if err := database.Connect(
		ctx,
		dbURL,
		cfg.Database.MaxConnections,
		cfg.Database.MinConnections,
		cfg.Database.MaxConnLifetime,
		cfg.Database.MaxConnIdleTime,
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	logger.Info().Msg("Database connected")

	// Wire the optimizer: marketplace adapters, offer cache, sourcing/LP config
	rlCfg := ratelimit.Config{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		MaxRetries:        cfg.RateLimit.MaxRetries,
		InitialBackoffMs:  cfg.RateLimit.InitialBackoffMs,
		MaxBackoffMs:      cfg.RateLimit.MaxBackoffMs,
	}
	if err := offersource.InitializeDefaultAdapters(rlCfg, cfg.Marketplace.NumShops); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize marketplace adapters")
	}
	offerCache, err := offersource.NewCache(cfg.Marketplace.CacheDir, cfg.Marketplace.CacheTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to init offer cache")
	}
	sourcingCfg := &sourcing.Config{
		Mode:          sourcing.Mode(cfg.Sourcing.Mode),
		ShopFixCost:   cfg.Sourcing.ShopFixCost,
		MaxShops:      cfg.Sourcing.MaxShops,
		ConsiderShops: cfg.Sourcing.ConsiderShops,
		Jobs:          cfg.Sourcing.Jobs,
	}
	if err := sourcingCfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid sourcing config")
	}
	lpCfg := &lp.Config{
		RerunSolver:      cfg.LP.RerunSolver,
		GLPKLimitSeconds: cfg.LP.GLPKLimitSeconds,
		CacheDir:         cfg.LP.CacheDir,
		SolverBinary:     cfg.LP.SolverBinary,
	}
	handlers.InitOptimizeHandler(sourcingCfg, lpCfg, offerCache)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go func() {
		if err := workers.StartOptimizeWorker(workerCtx, sourcingCfg, lpCfg, offers.Options{}, offerCache); err != nil {
			logger.Error().Err(err).Msg("Optimize worker stopped")
		}
	}()

	cleanupCfg := jobs.DefaultCleanupConfig()
	cleanupCfg.LPCacheDir = cfg.LP.CacheDir
	cleanupManager := jobs.NewCleanupManager(cleanupCfg, logger)
	cleanupManager.Start()
	defer cleanupManager.Stop()

	// Set up Gin router
	if cfg.Logging.Level == "info" || cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	setupMiddleware(router, logger)

	// Register routes
	router.GET("/health", handlers.HealthCheck)
	router.POST("/optimize", handlers.Optimize)

	// Internal admin API (run history, cached offers, retention)
	// Apply auth middleware to all /internal routes, then rate limiting
	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware())
	internal.Use(middleware.ServiceRateLimitMiddleware(50, 100)) // 50 req/s, burst 100
	{
		internal.GET("/health", handlers.HealthCheck)

		runs := internal.Group("/runs")
		{
			runs.GET("", handlers.ListRuns)
			runs.GET("/:runId", handlers.GetRun)
			runs.DELETE("", handlers.DeleteOldRuns)
		}

		offersGroup := internal.Group("/offers")
		{
			offersGroup.GET("/:itemKey", handlers.ListCachedOffers)
		}
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Graceful shutdown
	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()

	return &logger
}

func setupMiddleware(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		end := time.Now()
		latency := end.Sub(start)

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	})
}
