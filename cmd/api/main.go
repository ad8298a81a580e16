// Package main is the entry point for the API server.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/onnwee/bookden/internal/api"
	"github.com/onnwee/bookden/internal/auth"
	"github.com/onnwee/bookden/internal/book"
	"github.com/onnwee/bookden/internal/config"
	"github.com/onnwee/bookden/internal/db"
	"github.com/onnwee/bookden/internal/health"
	"github.com/onnwee/bookden/internal/interaction"
	"github.com/onnwee/bookden/internal/middleware"
	"github.com/onnwee/bookden/internal/stats"
	"github.com/onnwee/bookden/internal/tracing"
	"github.com/onnwee/bookden/internal/user"
)

func main() {
	configPath := flag.String("config", "", "path to optional YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("Bookden Interaction API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	summaryAttrs := make([]any, 0, 16)
	for k, v := range cfg.LogSummary() {
		summaryAttrs = append(summaryAttrs, k, v)
	}
	logger.Info("configuration loaded", summaryAttrs...)

	ctx := context.Background()

	// Tracing
	tracerProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  "bookden-api",
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		Protocol:     cfg.TracingProtocol,
		Endpoint:     cfg.TracingEndpoint,
		SamplingRate: 1.0,
		InsecureMode: cfg.Env != "production",
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mwMetrics := middleware.NewMetrics()
	if err := mwMetrics.Register(registry); err != nil {
		logger.Error("failed to register middleware metrics", "error", err)
		os.Exit(1)
	}
	interactionMetrics := interaction.NewMetrics()
	if err := interactionMetrics.Register(registry); err != nil {
		logger.Error("failed to register interaction metrics", "error", err)
		os.Exit(1)
	}

	// Storage: Postgres when configured, in-memory otherwise.
	var (
		bookRepo        book.Repository
		userRepo        user.Repository
		interactionRepo interaction.Repository
		dbChecker       health.Checker
		sqlDB           *sql.DB
	)
	if cfg.DatabaseURL != "" {
		sqlDB, err = db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		bookRepo = book.NewPostgresRepository(sqlDB)
		userRepo = user.NewPostgresRepository(sqlDB)
		interactionRepo = interaction.NewPostgresRepository(sqlDB)
		dbChecker = health.NewDBChecker(sqlDB)
		logger.Info("using postgres repositories")
	} else {
		bookRepo = book.NewInMemoryRepository()
		userRepo = user.NewInMemoryRepository()
		interactionRepo = interaction.NewInMemoryRepository()
		logger.Warn("DATABASE_URL not set; using in-memory repositories")
	}

	// Redis-backed rate limiting when configured.
	var (
		rateStore    middleware.RateLimitStore
		redisChecker health.Checker
		redisClient  *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		rateStore = middleware.NewRedisRateLimitStore(redisClient, logger, mwMetrics)
		redisChecker = health.NewRedisChecker(redisClient)
		logger.Info("using redis rate limit store", "addr", cfg.RedisAddr)
	} else {
		inMem := middleware.NewInMemoryRateLimitStore()
		rateStore = inMem
		go func() {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				inMem.Cleanup()
			}
		}()
	}

	// Core service
	upsertStats := stats.NewUpsertStats()
	service := interaction.NewService(interactionRepo, bookRepo, userRepo, logger, interactionMetrics, upsertStats)

	// Periodic visibility into rating upsert behavior.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			upsertStats.LogSummary(logger, "ratings")
		}
	}()

	jwtService := auth.NewJWTServiceWithRotation(cfg.JWTSecret, cfg.JWTPreviousSecret)

	mux := api.NewRouter(api.RouterConfig{
		Interactions: api.NewInteractionHandlers(service, cfg.Env != "production"),
		Health: api.NewHealthHandlers(api.HealthHandlersConfig{
			DBChecker:    dbChecker,
			RedisChecker: redisChecker,
		}),
		Authenticate: middleware.Authenticate(jwtService),
		WriteLimiter: middleware.RateLimiterWithMetrics(rateStore, middleware.DefaultWriteLimit(), middleware.UserKeyFunc(), mwMetrics),
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		}),
	})

	// Outer chain: RequestID -> Tracing -> Logging -> HTTPMetrics -> CORS -> global limit
	var handler http.Handler = mux
	handler = middleware.RateLimiterWithMetrics(rateStore, middleware.DefaultGlobalLimit(), middleware.IPKeyFunc(), mwMetrics)(handler)
	handler = middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})(handler)
	handler = middleware.HTTPMetrics(mwMetrics)(handler)
	handler = middleware.Logging(logger)(handler)
	if cfg.TracingEnabled {
		handler = middleware.Tracing("bookden-api")(handler)
	}
	handler = middleware.RequestID(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown tracing", "error", err)
	}
	if sqlDB != nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("failed to close redis client", "error", err)
		}
	}

	upsertStats.LogSummary(logger, "ratings")
	logger.Info("server stopped")
}
