package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

type fakeLedgerProvider struct {
	byStage map[string]int64
	stale   int64
}

func (f *fakeLedgerProvider) CountRequestsByStage(ctx context.Context) (map[string]int64, error) {
	return f.byStage, nil
}

func (f *fakeLedgerProvider) CountStaleSnapshots(ctx context.Context, olderThan time.Duration) (int64, error) {
	return f.stale, nil
}

func newTestMeter(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})
	return reader, provider
}

func TestNewBusinessMetricsRequiresMeter(t *testing.T) {
	_, err := NewBusinessMetrics(BusinessMetricsConfig{})
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestBusinessMetricsRecordsCounters(t *testing.T) {
	reader, provider := newTestMeter(t)

	bm, err := NewBusinessMetrics(BusinessMetricsConfig{
		Meter:  provider.Meter("test"),
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordRequestCreated(ctx, "instant")
	bm.RecordRequestCreated(ctx, "credit")
	bm.RecordDecision(ctx, "approved", "cam", "accounts")
	bm.RecordSettlement(ctx, 6_000_000)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	names := collectedMetricNames(rm)
	assert.Contains(t, names, "slnko_pay_request_created_total")
	assert.Contains(t, names, "slnko_pay_request_decision_total")
	assert.Contains(t, names, "slnko_settlement_total")
	assert.Contains(t, names, "slnko_settlement_amount_total")
}

func TestBusinessMetricsCollectsGauges(t *testing.T) {
	reader, provider := newTestMeter(t)

	bm, err := NewBusinessMetrics(BusinessMetricsConfig{
		Meter:  provider.Meter("test"),
		Logger: zap.NewNop(),
		Provider: &fakeLedgerProvider{
			byStage: map[string]int64{"draft": 3, "cam": 1},
			stale:   7,
		},
	})
	require.NoError(t, err)

	ctx := context.Background()
	bm.collectGauges(ctx)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	names := collectedMetricNames(rm)
	assert.Contains(t, names, "slnko_pay_requests_by_stage")
	assert.Contains(t, names, "slnko_stale_balance_snapshots")
}

func TestBusinessMetricsCollectWithoutProviderIsNoop(t *testing.T) {
	_, provider := newTestMeter(t)

	bm, err := NewBusinessMetrics(BusinessMetricsConfig{
		Meter:  provider.Meter("test"),
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)

	// Must not panic with a nil provider
	bm.collectGauges(context.Background())
}

func TestBusinessMetricsStopIsIdempotent(t *testing.T) {
	_, provider := newTestMeter(t)

	bm, err := NewBusinessMetrics(BusinessMetricsConfig{
		Meter:  provider.Meter("test"),
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)

	bm.StartPeriodicCollection(context.Background(), 10*time.Millisecond)
	bm.Stop()
	bm.Stop()
}

func collectedMetricNames(rm metricdata.ResourceMetrics) []string {
	var names []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names = append(names, m.Name)
		}
	}
	return names
}
