package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	app "github.com/uxinsight/backend/internal/application/integration"
	"github.com/uxinsight/backend/internal/infrastructure/auth"
	"github.com/uxinsight/backend/internal/infrastructure/cache"
	"github.com/uxinsight/backend/internal/infrastructure/config"
	"github.com/uxinsight/backend/internal/infrastructure/logger"
	"github.com/uxinsight/backend/internal/infrastructure/persistence"
	"github.com/uxinsight/backend/internal/infrastructure/provider"
	"github.com/uxinsight/backend/internal/infrastructure/storage"
	"github.com/uxinsight/backend/internal/infrastructure/telemetry"
	"github.com/uxinsight/backend/internal/interfaces/http/handler"
	"github.com/uxinsight/backend/internal/interfaces/http/middleware"
	"github.com/uxinsight/backend/internal/interfaces/http/router"

	_ "github.com/uxinsight/backend/docs"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const statusCollectionInterval = 30 * time.Second

//	@title			Insight Integration Sync API
//	@version		1.0
//	@description	Connects analytics providers and syncs their data

//	@contact.name	API Support

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				End-user access token. Format: "Bearer {token}"

//	@securityDefinitions.apikey	SystemToken
//	@in							header
//	@name						Authorization
//	@description				Static token for scheduled-sync callers. Format: "Bearer {token}"

//	@securityDefinitions.apikey	WebhookSignature
//	@in							header
//	@name						X-Webhook-Signature
//	@description				HMAC-SHA256 of the raw body

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	telemetry.ServiceVersion = version

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.Telemetry.ServiceName,
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// The log provider must exist before the final logger so zap can be teed into it
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize OTLP log export", zap.Error(err))
	}
	log, err := logger.New(logCfg, telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		LoggerProvider: logProvider,
		Level:          logger.ParseLevel(cfg.Log.Level),
	}))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting integration sync service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingServerAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
		Version:         version,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize profiler", zap.Error(err))
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	callMetrics := provider.NewCallMetrics(cfg.Sync.MetricsNamespace)
	db, err := persistence.Open(ctx, &cfg.Database,
		persistence.WithGormLogger(gormLog),
		persistence.WithPoolMetrics(callMetrics.Registry()),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver))

	// Postgres schemas are owned by cmd/migrate; sqlite is a local dev store
	if db.Driver == persistence.DriverSQLite {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log); err != nil {
		log.Warn("Database tracing disabled", zap.Error(err))
	}

	lockers := cache.NewSyncLockerFactory(cfg.Redis, cfg.Sync,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	)
	locker, closeLocker, err := lockers.CreateLocker()
	if err != nil {
		log.Fatal("Failed to initialize sync locker", zap.Error(err))
	}
	defer func() {
		if err := closeLocker(); err != nil {
			log.Error("Error closing sync locker", zap.Error(err))
		}
	}()

	limits, ignored := provider.RateLimitsWithOverrides(cfg.Sync.ProviderRateLimits)
	if len(ignored) > 0 {
		log.Warn("Ignoring rate limits for unknown providers", zap.Strings("providers", ignored))
	}
	factory := provider.NewFactory(provider.Options{
		HTTPClient:   &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		CallTimeout:  cfg.Sync.ProviderTimeout,
		RateLimiters: provider.NewRateLimiters(limits),
		Metrics:      callMetrics,
	})

	integrationRepo := persistence.NewGormIntegrationRepository(db.DB)
	logRepo := persistence.NewGormIntegrationLogRepository(db.DB)
	projectRepo := persistence.NewGormProjectIntegrationRepository(db.DB)

	service := app.NewIntegrationService(integrationRepo, logRepo, projectRepo, factory, locker, app.ServiceConfig{
		MaxIntegrationsPerUser: cfg.Sync.MaxIntegrationsPerUser,
		CandidateLimit:         cfg.Sync.CandidateLimit,
	}, log)
	orchestrator := app.NewSyncOrchestrator(integrationRepo, logRepo, factory, locker, app.OrchestratorConfig{
		WindowDays:       cfg.Sync.DefaultWindowDays,
		BatchConcurrency: cfg.Sync.BatchConcurrency,
	}, log)
	if cfg.Sync.WebhookSecret == "" {
		log.Warn("Webhook signature verification is disabled; set sync.webhook_secret")
	}
	webhooks := app.NewWebhookIngestor(integrationRepo, logRepo, locker,
		auth.NewHMACSignatureVerifier(), cfg.Sync.WebhookSecret, log)
	deliveries, err := lockers.CreateDeliveryStore()
	if err != nil {
		log.Fatal("Failed to initialize webhook delivery store", zap.Error(err))
	}
	defer func() {
		if err := deliveries.Close(); err != nil {
			log.Error("Error closing webhook delivery store", zap.Error(err))
		}
	}()
	webhooks.SetDeliveryStore(deliveries, cfg.Sync.WebhookDedupTTL)

	if cfg.Storage.Enabled {
		archive, err := storage.NewS3ExportArchive(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize export archive", zap.Error(err))
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			log.Warn("Export archive bucket check failed", zap.Error(err))
		}
		service.SetExportArchiver(archive)
		log.Info("Export archiving enabled", zap.String("bucket", archive.Bucket()))
	}

	syncMetrics, err := telemetry.NewSyncMetrics(telemetry.SyncMetricsConfig{
		Meter:  meterProvider.Meter("integration.sync"),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to initialize sync metrics", zap.Error(err))
	}
	orchestrator.SetSyncMetrics(syncMetrics)
	webhooks.SetSyncMetrics(syncMetrics)
	syncMetrics.StartPeriodicCollection(ctx, service, statusCollectionInterval)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := router.NewEngine(router.Options{
		Integrations: handler.NewIntegrationHandler(service, orchestrator, webhooks),
		System:       handler.NewSystemHandler(cfg.App.Name, version, db),
		JWTService:   auth.NewJWTService(cfg.JWT),
		SystemToken:  cfg.Sync.SystemToken,
		HTTP:         cfg.HTTP,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		MeterProvider:  meterProvider,
		MetricsHandler: callMetrics.Handler(),
		Logger:         log,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	syncMetrics.Stop()
	for name, shutdown := range map[string]func(context.Context) error{
		"tracer": tracerProvider.Shutdown,
		"meter":  meterProvider.Shutdown,
		"logs":   logProvider.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			log.Error("Telemetry shutdown failed", zap.String("provider", name), zap.Error(err))
		}
	}

	if err := profiler.Stop(); err != nil {
		log.Error("Profiler shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
