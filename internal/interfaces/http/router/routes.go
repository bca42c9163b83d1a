package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/uxinsight/backend/internal/infrastructure/auth"
	"github.com/uxinsight/backend/internal/infrastructure/config"
	"github.com/uxinsight/backend/internal/infrastructure/logger"
	"github.com/uxinsight/backend/internal/infrastructure/telemetry"
	"github.com/uxinsight/backend/internal/interfaces/http/handler"
	"github.com/uxinsight/backend/internal/interfaces/http/middleware"
)

// Options holds everything the HTTP surface is built from
type Options struct {
	Integrations *handler.IntegrationHandler
	System       *handler.SystemHandler

	JWTService  *auth.JWTService
	SystemToken string
	HTTP        config.HTTPConfig

	Tracing        middleware.TracingConfig
	MeterProvider  *telemetry.MeterProvider
	MetricsHandler http.Handler // served at /metrics when set

	Logger *zap.Logger
}

// NewEngine builds the gin engine with the global middleware stack and all
// routes of the sync service.
func NewEngine(opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(opts.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log, logger.SkipPaths("/health", "/metrics")))
	engine.Use(middleware.TracingWithConfig(opts.Tracing))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: opts.MeterProvider,
		Enabled:       opts.MeterProvider != nil,
	}))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(corsConfig(opts.HTTP)))
	engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))

	if opts.System != nil {
		engine.GET("/health", opts.System.Health)
	}
	if opts.MetricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}
	// spec registered by the docs package, see cmd/server
	if opts.HTTP.SwaggerEnabled {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	if opts.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(opts.HTTP.RateLimitRequests, opts.HTTP.RateLimitWindow)
		r.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", opts.HTTP.RateLimitRequests),
			zap.Duration("window", opts.HTTP.RateLimitWindow),
		)
	}

	if opts.System != nil {
		system := NewDomainGroup("system", "/system")
		system.GET("/info", opts.System.GetSystemInfo)
		system.GET("/health", opts.System.Health)
		r.Register(system)
	}

	if opts.Integrations != nil {
		jwt := middleware.JWTAuth(opts.JWTService, log)
		groups := IntegrationRoutes(opts.Integrations, jwt, middleware.SystemTokenAuth(opts.SystemToken, log))
		for _, g := range groups {
			log.Debug("Registering routes",
				zap.String("group", g.Name()),
				zap.Strings("routes", g.Routes()),
			)
			r.Register(g)
		}
	}

	r.Setup()
	return engine
}

// IntegrationRoutes returns the /integrations groups. Webhooks carry their own
// signature, scheduled sync is guarded by the system token and everything
// else requires an end-user JWT.
func IntegrationRoutes(h *handler.IntegrationHandler, userAuth, systemAuth gin.HandlerFunc) []*DomainGroup {
	webhooks := NewDomainGroup("webhooks", "/integrations")
	webhooks.POST("/webhook", h.Webhook)

	scheduled := NewDomainGroup("scheduled-sync", "/integrations").Use(systemAuth)
	scheduled.POST("/scheduled-sync", h.ScheduledSync).
		GET("/scheduled-sync", h.ScheduledSyncCandidates)

	user := NewDomainGroup("integrations", "/integrations").
		Use(userAuth, middleware.TracingAttributeInjector())
	user.GET("", h.List).
		POST("", h.Create).
		GET("/providers", h.Providers).
		POST("/test", h.Test).
		GET("/webhook", h.WebhookLogs).
		GET("/:id", h.Get).
		PUT("/:id", h.Update).
		DELETE("/:id", h.Delete).
		POST("/:id/sync", h.Sync).
		GET("/:id/sync", h.SyncStatus).
		GET("/:id/export", h.Export).
		POST("/:id/actions/:action", h.RunAction)

	return []*DomainGroup{webhooks, scheduled, user}
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	c := middleware.DefaultCORSConfig()
	if len(cfg.CORSAllowOrigins) > 0 {
		c.AllowOrigins = cfg.CORSAllowOrigins
	}
	if len(cfg.CORSAllowMethods) > 0 {
		c.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		c.AllowHeaders = cfg.CORSAllowHeaders
	}
	return c
}
