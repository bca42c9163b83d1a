package telemetry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func newTestSyncMetrics(t *testing.T) (*SyncMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	sm, err := NewSyncMetrics(SyncMetricsConfig{Meter: mp.Meter("test"), Logger: zap.NewNop()})
	require.NoError(t, err)
	t.Cleanup(sm.Stop)
	return sm, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	s, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", data)
	var total int64
	for _, dp := range s.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewSyncMetrics_NilMeter(t *testing.T) {
	_, err := NewSyncMetrics(SyncMetricsConfig{})
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestSyncMetrics_RecordSync(t *testing.T) {
	sm, reader := newTestSyncMetrics(t)
	ctx := context.Background()

	sm.RecordSync(ctx, "HOTJAR", SyncOutcomeSuccess, 2*time.Second, 4)
	sm.RecordSync(ctx, "HOTJAR", SyncOutcomeFailed, time.Second, 7)
	sm.RecordRejected(ctx, "SLACK")
	sm.RecordWebhook(ctx, "HOTJAR", "data_update")

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, got["integration_sync_total"]))
	// failed syncs contribute no data points
	assert.Equal(t, int64(4), sumOf(t, got["integration_sync_data_points_total"]))
	assert.Equal(t, int64(1), sumOf(t, got["integration_sync_rejected_total"]))
	assert.Equal(t, int64(1), sumOf(t, got["integration_webhook_total"]))

	hist, ok := got["integration_sync_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(2), count)
}

type fakeStatusCounts struct {
	calls atomic.Int32
	err   error
}

func (f *fakeStatusCounts) CountByStatus(context.Context) (map[string]int64, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return map[string]int64{"ACTIVE": 3, "ERROR": 1}, nil
}

func TestSyncMetrics_PeriodicCollection(t *testing.T) {
	sm, reader := newTestSyncMetrics(t)
	counts := &fakeStatusCounts{}

	sm.StartPeriodicCollection(context.Background(), counts, time.Hour)
	require.Eventually(t, func() bool { return counts.calls.Load() >= 1 }, time.Second, 10*time.Millisecond)

	gauge, ok := collect(t, reader)["integrations_by_status"].(metricdata.Gauge[int64])
	require.True(t, ok)
	byStatus := map[string]int64{}
	for _, dp := range gauge.DataPoints {
		v, _ := dp.Attributes.Value(AttrStatus)
		byStatus[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"ACTIVE": 3, "ERROR": 1}, byStatus)
}

func TestSyncMetrics_PeriodicCollectionToleratesErrors(t *testing.T) {
	sm, _ := newTestSyncMetrics(t)
	counts := &fakeStatusCounts{err: errors.New("db down")}

	ctx, cancel := context.WithCancel(context.Background())
	sm.StartPeriodicCollection(ctx, counts, time.Hour)
	require.Eventually(t, func() bool { return counts.calls.Load() >= 1 }, time.Second, 10*time.Millisecond)
	cancel()
}
