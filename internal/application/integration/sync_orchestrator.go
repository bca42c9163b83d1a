package integration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/uxinsight/backend/internal/domain/integration"
	"github.com/uxinsight/backend/internal/infrastructure/logger"
	"github.com/uxinsight/backend/internal/infrastructure/telemetry"
)

const (
	syncSuccessMessage      = "Sync completed successfully"
	singleSyncMessage       = "Integration synced successfully"
	batchCompleteMessage    = "Scheduled sync completed"
	batchNotFoundMessage    = "Integration not found"
	batchAlreadySyncMessage = "Integration already syncing"

	recordTimeout = 10 * time.Second
)

// OrchestratorConfig contains configuration for the sync orchestrator
type OrchestratorConfig struct {
	WindowDays       int // Days of history pulled by each sync
	BatchConcurrency int // Concurrent syncs within one batch
}

// DefaultOrchestratorConfig returns default configuration
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		WindowDays:       30,
		BatchConcurrency: 4,
	}
}

// SyncOrchestrator drives the sync state machine of integrations.
// Status transitions run under the per-integration lock and a compare-and-swap
// on the stored status; provider calls run outside the lock.
type SyncOrchestrator struct {
	repo    integration.IntegrationRepository
	logs    integration.IntegrationLogRepository
	factory integration.AdapterFactory
	locker  integration.SyncLocker
	config  OrchestratorConfig
	logger  *zap.Logger
	metrics *telemetry.SyncMetrics
	now     func() time.Time
}

// NewSyncOrchestrator creates a new sync orchestrator
func NewSyncOrchestrator(
	repo integration.IntegrationRepository,
	logs integration.IntegrationLogRepository,
	factory integration.AdapterFactory,
	locker integration.SyncLocker,
	config OrchestratorConfig,
	logger *zap.Logger,
) *SyncOrchestrator {
	defaults := DefaultOrchestratorConfig()
	if config.WindowDays <= 0 {
		config.WindowDays = defaults.WindowDays
	}
	if config.BatchConcurrency <= 0 {
		config.BatchConcurrency = defaults.BatchConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncOrchestrator{
		repo:    repo,
		logs:    logs,
		factory: factory,
		locker:  locker,
		config:  config,
		logger:  logger,
		now:     time.Now,
	}
}

// SetSyncMetrics sets the sync metrics collector
func (o *SyncOrchestrator) SetSyncMetrics(m *telemetry.SyncMetrics) {
	o.metrics = m
}

// syncOutcome is the internal result of one sync run
type syncOutcome struct {
	integration *integration.Integration
	data        integration.ProviderData
}

// SyncForUser runs a sync on an owned integration and surfaces provider errors
func (o *SyncOrchestrator) SyncForUser(ctx context.Context, userID, id uuid.UUID, force bool) (*SyncResponse, error) {
	if _, err := o.repo.FindByIDForUser(ctx, id, userID); err != nil {
		return nil, err
	}
	return o.RequestSync(ctx, id, force)
}

// RequestSync runs one sync. A sync already in flight is rejected with
// ErrAlreadySyncing unless force is set.
func (o *SyncOrchestrator) RequestSync(ctx context.Context, id uuid.UUID, force bool) (*SyncResponse, error) {
	out, err := o.run(ctx, id, force)
	if err != nil {
		return nil, err
	}
	return &SyncResponse{
		Success:  true,
		Message:  singleSyncMessage,
		Data:     out.data,
		LastSync: out.integration.LastSync,
	}, nil
}

// BatchSync syncs each id independently. Every id gets exactly one result in
// input order; one failure never affects the others.
func (o *SyncOrchestrator) BatchSync(ctx context.Context, req BatchSyncRequest) *BatchSyncResponse {
	results := make([]BatchItemResult, len(req.IntegrationIDs))
	var g errgroup.Group
	g.SetLimit(o.config.BatchConcurrency)

	for idx, id := range req.IntegrationIDs {
		// batchItem reports failures in its result, never through the group
		g.Go(func() error {
			results[idx] = o.batchItem(ctx, id, req.Force)
			return nil
		})
	}
	_ = g.Wait()

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	o.logger.Info("Scheduled sync completed",
		zap.Int("requested", len(req.IntegrationIDs)),
		zap.Int("succeeded", succeeded))

	return &BatchSyncResponse{
		Success: true,
		Message: batchCompleteMessage,
		Results: results,
	}
}

func (o *SyncOrchestrator) batchItem(ctx context.Context, id uuid.UUID, force bool) (result BatchItemResult) {
	result.IntegrationID = id
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Panic during scheduled sync",
				zap.String("integration_id", id.String()),
				zap.Any("panic", r))
			result.Success = false
			result.Error = "Internal error"
		}
	}()

	out, err := o.run(ctx, id, force)
	switch {
	case err == nil:
		result.Success = true
		result.Message = syncSuccessMessage
		result.DataPoints = out.data.DataPoints()
	case errors.Is(err, integration.ErrIntegrationNotFound):
		result.Error = batchNotFoundMessage
	case errors.Is(err, integration.ErrAlreadySyncing):
		result.Error = batchAlreadySyncMessage
	default:
		result.Error = err.Error()
	}
	return result
}

// run performs the three phases of a sync: claim, fetch, record.
func (o *SyncOrchestrator) run(ctx context.Context, id uuid.UUID, force bool) (*syncOutcome, error) {
	claimed, err := o.claim(ctx, id, force)
	if err != nil {
		return nil, err
	}

	ctx, log := logger.WithIntegration(ctx, o.logger, id.String(), claimed.Type.String())
	start := o.now()
	log.Info("Sync started", zap.Bool("force", force))

	data, fetchErr := o.fetch(ctx, claimed)
	duration := o.now().Sub(start)

	if fetchErr != nil {
		log.Warn("Sync failed", zap.Duration("duration", duration), zap.Error(fetchErr))
		if err := o.recordFailure(ctx, id, fetchErr); err != nil {
			log.Error("Failed to record sync failure", zap.Error(err))
		}
		o.recordMetrics(ctx, claimed.Type, telemetry.SyncOutcomeFailed, duration, 0)
		return nil, fetchErr
	}

	final, err := o.recordSuccess(ctx, id, data)
	if err != nil {
		log.Error("Failed to record sync result", zap.Error(err))
		return nil, err
	}
	log.Info("Sync completed",
		zap.Duration("duration", duration),
		zap.Int("data_points", data.DataPoints()))
	o.recordMetrics(ctx, claimed.Type, telemetry.SyncOutcomeSuccess, duration, data.DataPoints())

	return &syncOutcome{integration: final, data: data}, nil
}

// claim moves the integration into SYNCING under the lock
func (o *SyncOrchestrator) claim(ctx context.Context, id uuid.UUID, force bool) (*integration.Integration, error) {
	release, err := o.locker.Acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	i, err := o.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := i.BeginSync(force); err != nil {
		o.rejected(ctx, i.Type)
		return nil, err
	}
	ok, err := o.repo.TryBeginSync(ctx, id, force)
	if err != nil {
		return nil, err
	}
	if !ok {
		o.rejected(ctx, i.Type)
		return nil, integration.ErrAlreadySyncing
	}
	return i, nil
}

func (o *SyncOrchestrator) fetch(ctx context.Context, i *integration.Integration) (data integration.ProviderData, err error) {
	ctx, span := telemetry.StartSpan(ctx, "integration.sync.fetch",
		telemetry.AttrIntegrationID.String(i.ID.String()),
		telemetry.AttrProvider.String(i.Type.String()),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	adapter, err := o.factory.Create(i.Type, i.Config)
	if err != nil {
		return nil, err
	}
	window := integration.LastDays(o.now(), o.config.WindowDays)
	telemetry.WithProviderLabel(ctx, i.Type.String(), func(ctx context.Context) {
		data, err = adapter.FetchData(ctx, &window)
	})
	return data, err
}

func (o *SyncOrchestrator) recordSuccess(ctx context.Context, id uuid.UUID, data integration.ProviderData) (*integration.Integration, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	release, err := o.locker.Acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	i, err := o.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := o.now()
	i.CompleteSync(now)
	if err := o.repo.Save(ctx, i); err != nil {
		return nil, err
	}
	entry := integration.NewIntegrationLog(id, integration.LogTypeSyncComplete, syncSuccessMessage,
		map[string]any{"dataPoints": data.DataPoints()}).At(now)
	if err := o.logs.Append(ctx, entry); err != nil {
		return nil, err
	}
	return i, nil
}

func (o *SyncOrchestrator) recordFailure(ctx context.Context, id uuid.UUID, cause error) error {
	// The caller's context may already be cancelled when a provider call timed out.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	release, err := o.locker.Acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	i, err := o.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	i.FailSync()
	if err := o.repo.Save(ctx, i); err != nil {
		return err
	}
	msg := cause.Error()
	entry := integration.NewIntegrationLog(id, integration.LogTypeError, msg,
		map[string]any{"error": msg}).At(o.now())
	return o.logs.Append(ctx, entry)
}

func (o *SyncOrchestrator) recordMetrics(ctx context.Context, t integration.ProviderType, outcome telemetry.SyncOutcome, d time.Duration, dataPoints int) {
	if o.metrics != nil {
		o.metrics.RecordSync(ctx, t.String(), outcome, d, dataPoints)
	}
}

func (o *SyncOrchestrator) rejected(ctx context.Context, t integration.ProviderType) {
	if o.metrics != nil {
		o.metrics.RecordRejected(ctx, t.String())
	}
}
