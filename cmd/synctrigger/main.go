package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/uxinsight/backend/internal/infrastructure/config"
	"github.com/uxinsight/backend/internal/infrastructure/logger"
	"github.com/uxinsight/backend/internal/infrastructure/telemetry"
	"github.com/uxinsight/backend/internal/interfaces/trigger"
)

func main() {
	once := flag.Bool("once", false, "Run a single round and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.Telemetry.ServiceName + "-trigger",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if cfg.Trigger.Token == "" {
		log.Fatal("No system token configured; set trigger.token or sync.system_token")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName + "-trigger",
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Tracer shutdown failed", zap.Error(err))
		}
	}()

	client := trigger.NewClient(cfg.Trigger.BaseURL, cfg.Trigger.Token, cfg.Trigger.RequestTimeout)
	job := trigger.NewJob(client, cfg.Trigger.Limit, cfg.Trigger.Force, log)
	scheduler, err := trigger.NewScheduler(ctx, cfg.Trigger.Schedule, job, cfg.Trigger.RequestTimeout, log)
	if err != nil {
		log.Fatal("Invalid trigger schedule", zap.String("schedule", cfg.Trigger.Schedule), zap.Error(err))
	}

	log.Info("Sync trigger configured",
		zap.String("base_url", cfg.Trigger.BaseURL),
		zap.String("schedule", cfg.Trigger.Schedule),
		zap.Int("limit", cfg.Trigger.Limit),
		zap.Bool("force", cfg.Trigger.Force),
	)

	if *once {
		if _, err := scheduler.RunOnce(); err != nil {
			log.Error("Scheduled sync round failed", zap.Error(err))
			_ = logger.Sync(log)
			os.Exit(1)
		}
		return
	}

	scheduler.Start()
	<-ctx.Done()
	log.Info("Shutting down sync trigger...")
	scheduler.Stop()
}
