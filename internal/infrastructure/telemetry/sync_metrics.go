package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// SyncMetrics tracks integration sync activity.
// Provider call counts and latency live in the provider package's Prometheus registry;
// these instruments cover the orchestrator's view of a sync.
type SyncMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	syncTotal     *Counter
	webhookTotal  *Counter
	syncRejected  *Counter
	syncDataPoint *Counter

	syncDuration *Histogram

	integrationsByStatus *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
}

// StatusCountProvider reports how many integrations sit in each status.
type StatusCountProvider interface {
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// SyncMetricsConfig holds configuration for sync metrics.
type SyncMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewSyncMetrics creates a new SyncMetrics instance.
func NewSyncMetrics(cfg SyncMetricsConfig) (*SyncMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &SyncMetrics{
		meter:    cfg.Meter,
		logger:   logger,
		stopChan: make(chan struct{}),
	}

	in := NewInstruments(cfg.Meter)
	sm.syncTotal = in.Counter("integration_sync_total",
		"Total number of integration syncs by outcome", "{syncs}")
	sm.syncRejected = in.Counter("integration_sync_rejected_total",
		"Sync requests rejected because a sync was already in flight", "{syncs}")
	sm.syncDataPoint = in.Counter("integration_sync_data_points_total",
		"Top-level data points returned by successful syncs", "{points}")
	sm.webhookTotal = in.Counter("integration_webhook_total",
		"Total number of accepted provider webhooks", "{webhooks}")
	sm.syncDuration = in.Histogram("integration_sync_duration_seconds",
		"Wall time of a sync from SYNCING to its final status", "s", SyncDurationBuckets)
	sm.integrationsByStatus = in.Gauge("integrations_by_status",
		"Current number of integrations per status", "{integrations}")
	if err := in.Err(); err != nil {
		return nil, err
	}

	return sm, nil
}

// SyncOutcome labels the result of a sync.
type SyncOutcome string

const (
	SyncOutcomeSuccess SyncOutcome = "success"
	SyncOutcomeFailed  SyncOutcome = "failed"
)

// RecordSync records a finished sync with its duration.
func (sm *SyncMetrics) RecordSync(ctx context.Context, provider string, outcome SyncOutcome, d time.Duration, dataPoints int) {
	attrs := []attribute.KeyValue{
		AttrProvider.String(provider),
		AttrOutcome.String(string(outcome)),
	}
	sm.syncTotal.Inc(ctx, attrs...)
	sm.syncDuration.RecordDuration(ctx, d, attrs...)
	if outcome == SyncOutcomeSuccess && dataPoints > 0 {
		sm.syncDataPoint.Add(ctx, int64(dataPoints), AttrProvider.String(provider))
	}
}

// RecordRejected records a sync request refused by the in-flight guard.
func (sm *SyncMetrics) RecordRejected(ctx context.Context, provider string) {
	sm.syncRejected.Inc(ctx, AttrProvider.String(provider))
}

// RecordWebhook records an accepted webhook.
func (sm *SyncMetrics) RecordWebhook(ctx context.Context, provider, webhookType string) {
	sm.webhookTotal.Inc(ctx,
		AttrProvider.String(provider),
		AttrWebhookType.String(webhookType),
	)
}

// RecordStatusCount records the number of integrations currently in status.
func (sm *SyncMetrics) RecordStatusCount(ctx context.Context, status string, count int64) {
	sm.integrationsByStatus.Record(ctx, count, AttrStatus.String(status))
}

// StartPeriodicCollection starts periodic collection of the status gauge.
func (sm *SyncMetrics) StartPeriodicCollection(ctx context.Context, provider StatusCountProvider, interval time.Duration) {
	sm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = time.Minute
		}

		go sm.runPeriodicCollection(ctx, provider, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (sm *SyncMetrics) runPeriodicCollection(ctx context.Context, provider StatusCountProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sm.collectStatusCounts(ctx, provider)

	for {
		select {
		case <-sm.stopChan:
			sm.logger.Info("Stopping periodic sync metrics collection")
			return
		case <-ctx.Done():
			sm.logger.Info("Context cancelled, stopping periodic sync metrics collection")
			return
		case <-ticker.C:
			sm.collectStatusCounts(ctx, provider)
		}
	}
}

func (sm *SyncMetrics) collectStatusCounts(ctx context.Context, provider StatusCountProvider) {
	counts, err := provider.CountByStatus(ctx)
	if err != nil {
		sm.logger.Warn("Failed to collect integration status counts", zap.Error(err))
		return
	}
	for status, count := range counts {
		sm.RecordStatusCount(ctx, status, count)
	}
}

// Stop stops the periodic collection.
func (sm *SyncMetrics) Stop() {
	sm.stopOnce.Do(func() {
		close(sm.stopChan)
	})
}
