package main

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/timesheet-charts-go/internal/chart"
	"github.com/boddenberg/timesheet-charts-go/internal/config"
	"github.com/boddenberg/timesheet-charts-go/internal/domain"
	"github.com/boddenberg/timesheet-charts-go/internal/handler"
	"github.com/boddenberg/timesheet-charts-go/internal/infra/cache"
	"github.com/boddenberg/timesheet-charts-go/internal/infra/client"
	"github.com/boddenberg/timesheet-charts-go/internal/infra/memory"
	"github.com/boddenberg/timesheet-charts-go/internal/infra/observability"
	"github.com/boddenberg/timesheet-charts-go/internal/infra/resilience"
	"github.com/boddenberg/timesheet-charts-go/internal/infra/session"
	"github.com/boddenberg/timesheet-charts-go/internal/infra/sqlite"
	"github.com/boddenberg/timesheet-charts-go/internal/port"
	"github.com/boddenberg/timesheet-charts-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("merge_api_url", cfg.MergeAPIURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
		zap.Bool("persistent_datasets", cfg.DatasetDBPath != ""),
		zap.Bool("persistent_session", cfg.TokenFile != ""),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "timesheet-charts")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Caches ---
	surfaceCache := cache.New[*image.RGBA](cfg.CacheTTL)
	defer surfaceCache.Close()
	uploadCache := cache.New[*domain.UploadResult](cfg.CacheTTL)
	defer uploadCache.Close()

	// --- Dataset store ---
	var datasets port.DatasetStore
	var storePinger handler.Pinger
	if cfg.DatasetDBPath != "" {
		store, err := sqlite.NewDatasetStore(cfg.DatasetDBPath)
		if err != nil {
			logger.Fatal("failed to open dataset store", zap.String("path", cfg.DatasetDBPath), zap.Error(err))
		}
		defer store.Close()
		datasets, storePinger = store, store
		logger.Info("using SQLite dataset store", zap.String("path", cfg.DatasetDBPath))
	} else {
		datasets = memory.NewDatasetStore()
		logger.Info("using in-memory dataset store")
	}

	// --- Session ---
	var tokens port.TokenStore
	if cfg.TokenFile != "" {
		tokens = session.NewFileTokenStore(cfg.TokenFile, cfg.TokenSecret)
	} else {
		tokens = session.NewMemoryTokenStore()
	}
	sess := session.New(tokens)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	mergeClient := client.NewMergeClient(httpClient, cfg.MergeAPIURL, resilience.NewCircuitBreaker("merge-api"), resilienceCfg)
	authClient := client.NewAuthClient(httpClient, cfg.MergeAPIURL, resilience.NewCircuitBreaker("auth-api"), resilienceCfg)

	// --- Services ---
	workspaceSvc := service.NewWorkspaceService(
		service.DashboardOptions{
			Width:       cfg.ChartWidth,
			Height:      cfg.ChartHeight,
			TopN:        cfg.TopNProjects,
			MaxLabels:   cfg.MaxXLabels,
			DefaultDays: cfg.DefaultRangeDays,
		},
		chart.NewSurfaces(surfaceCache),
		datasets,
		mergeClient,
		sess,
		uploadCache,
		resilience.NewBulkhead(cfg.MaxConcurrency),
		metrics,
		logger,
	)
	authSvc := service.NewAuthService(authClient, sess, logger)

	// --- Router ---
	router := handler.NewRouter(workspaceSvc, authSvc, metrics, handler.Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		UploadLimiter:  handler.NewUploadLimiter(cfg.UploadRate, cfg.UploadBurst),
		Store:          storePinger,
	}, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
