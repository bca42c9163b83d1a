package integration

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/uxinsight/backend/internal/domain/integration"
	"github.com/uxinsight/backend/internal/infrastructure/telemetry"
)

// WebhookIngestor applies provider notifications to integrations.
// Every accepted webhook appends exactly one log entry.
type WebhookIngestor struct {
	repo     integration.IntegrationRepository
	logs     integration.IntegrationLogRepository
	locker   integration.SyncLocker
	verifier integration.SignatureVerifier
	secret   string
	logger   *zap.Logger
	metrics  *telemetry.SyncMetrics
	now      func() time.Time

	deliveries  integration.DeliveryStore
	deliveryTTL time.Duration
}

// NewWebhookIngestor creates a webhook ingestor. With an empty secret,
// signatures are not checked.
func NewWebhookIngestor(
	repo integration.IntegrationRepository,
	logs integration.IntegrationLogRepository,
	locker integration.SyncLocker,
	verifier integration.SignatureVerifier,
	secret string,
	logger *zap.Logger,
) *WebhookIngestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookIngestor{
		repo:     repo,
		logs:     logs,
		locker:   locker,
		verifier: verifier,
		secret:   secret,
		logger:   logger,
		now:      time.Now,
	}
}

// SetSyncMetrics sets the sync metrics collector
func (w *WebhookIngestor) SetSyncMetrics(m *telemetry.SyncMetrics) {
	w.metrics = m
}

// SetDeliveryStore enables deduplication of events that carry a delivery id.
// Ids are remembered for ttl.
func (w *WebhookIngestor) SetDeliveryStore(store integration.DeliveryStore, ttl time.Duration) {
	w.deliveries = store
	w.deliveryTTL = ttl
}

// Verify checks the signature of a raw webhook body
func (w *WebhookIngestor) Verify(signature string, rawBody []byte) error {
	if w.secret == "" || w.verifier == nil {
		return nil
	}
	if !w.verifier.Verify(signature, rawBody, w.secret) {
		w.logger.Warn("Rejected webhook with invalid signature")
		return integration.ErrInvalidSignature
	}
	return nil
}

// Ingest applies one event to its integration under the per-integration lock
func (w *WebhookIngestor) Ingest(ctx context.Context, event WebhookEvent) (*WebhookResponse, error) {
	if !event.Type.IsValid() {
		return nil, integration.ErrWebhookInvalidType
	}

	at := w.now()
	if event.Timestamp != "" {
		ts, err := parseTimestamp(event.Timestamp)
		if err != nil {
			return nil, integration.ErrWebhookInvalidTimestamp
		}
		at = ts
	}

	var newStatus integration.Status
	if event.Type == integration.LogTypeStatusChange {
		status, err := webhookStatus(event.Data)
		if err != nil {
			return nil, err
		}
		newStatus = status
	}

	release, err := w.locker.Acquire(ctx, event.IntegrationID)
	if err != nil {
		return nil, err
	}
	defer release()

	i, err := w.repo.FindByID(ctx, event.IntegrationID)
	if err != nil {
		return nil, err
	}

	deliveryKey := w.deliveryKey(event)
	if deliveryKey != "" && w.alreadyDelivered(ctx, deliveryKey) {
		w.logger.Info("Duplicate webhook delivery ignored",
			zap.String("integration_id", i.ID.String()),
			zap.String("delivery_id", event.DeliveryID))
		return &WebhookResponse{
			Success:   true,
			Message:   "Webhook already processed",
			Duplicate: true,
		}, nil
	}

	switch event.Type {
	case integration.LogTypeStatusChange:
		// no status in the payload keeps the current one
		if newStatus != "" {
			if err := i.SetStatus(newStatus); err != nil {
				return nil, err
			}
		}
	case integration.LogTypeError:
		i.FailSync()
	case integration.LogTypeSyncComplete:
		i.CompleteSync(at)
	case integration.LogTypeDataUpdate:
		i.MarkDataUpdated(at)
	}

	if err := w.repo.Save(ctx, i); err != nil {
		return nil, err
	}

	message := event.Message
	if message == "" {
		message = fmt.Sprintf("Webhook received: %s", event.Type)
	}
	data := event.Data
	if data == nil {
		data = map[string]any{}
	}
	entry := integration.NewIntegrationLog(i.ID, event.Type, message, data).At(at)
	if err := w.logs.Append(ctx, entry); err != nil {
		return nil, err
	}
	if deliveryKey != "" {
		if _, err := w.deliveries.MarkProcessed(ctx, deliveryKey, w.deliveryTTL); err != nil {
			w.logger.Warn("Failed to record webhook delivery", zap.String("delivery_id", event.DeliveryID), zap.Error(err))
		}
	}

	w.logger.Info("Webhook processed",
		zap.String("integration_id", i.ID.String()),
		zap.String("provider", i.Type.String()),
		zap.String("type", event.Type.String()),
		zap.String("status", i.Status.String()))
	if w.metrics != nil {
		w.metrics.RecordWebhook(ctx, i.Type.String(), event.Type.String())
	}

	return &WebhookResponse{
		Success: true,
		Message: "Webhook processed successfully",
		LogID:   &entry.ID,
	}, nil
}

func (w *WebhookIngestor) deliveryKey(event WebhookEvent) string {
	if w.deliveries == nil || event.DeliveryID == "" {
		return ""
	}
	return event.IntegrationID.String() + ":" + event.DeliveryID
}

// alreadyDelivered fails open: a store outage must not block webhooks
func (w *WebhookIngestor) alreadyDelivered(ctx context.Context, key string) bool {
	seen, err := w.deliveries.IsProcessed(ctx, key)
	if err != nil {
		w.logger.Warn("Webhook delivery check failed", zap.Error(err))
		return false
	}
	return seen
}

// webhookStatus reads data.status. An absent or empty value yields "";
// anything else must name a valid status.
func webhookStatus(data map[string]any) (integration.Status, error) {
	raw, ok := data["status"]
	if !ok || raw == nil || raw == "" {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok || !integration.Status(s).IsValid() {
		return "", integration.ErrWebhookInvalidStatus
	}
	return integration.Status(s), nil
}

// parseTimestamp accepts RFC 3339 with or without fractional seconds
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
