package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appbilling "github.com/tierhub/backend/internal/application/billing"
	"github.com/tierhub/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

var _ appbilling.Metrics = (*telemetry.BillingMetrics)(nil)

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

func sumByOutcome(t *testing.T, data metricdata.Aggregation) map[string]int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok)
	out := map[string]int64{}
	for _, dp := range sum.DataPoints {
		outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
		out[outcome.AsString()] += dp.Value
	}
	return out
}

func counterValue(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestBillingMetrics_RecordsOutcomes(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	bm, err := telemetry.NewBillingMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordCheckoutCreated(ctx)
	bm.RecordCheckoutCreated(ctx)
	bm.RecordPaymentConfirmed(ctx, 40*time.Millisecond)
	bm.RecordDuplicatePayment(ctx)
	bm.RecordGatewayCancelFailure(ctx)
	bm.RecordQuotaRefills(ctx, 5, 1)
	bm.RecordQuotaRefills(ctx, 0, 0)

	got := collect(t, reader)

	assert.Equal(t, int64(2), counterValue(t, got["checkout_sessions_created_total"]))
	assert.Equal(t, int64(1), counterValue(t, got["payments_confirmed_total"]))
	assert.Equal(t, int64(1), counterValue(t, got["payment_duplicates_total"]))
	assert.Equal(t, int64(1), counterValue(t, got["gateway_cancel_failures_total"]))
	assert.Equal(t, map[string]int64{"refilled": 5, "failed": 1},
		sumByOutcome(t, got["quota_refills_total"]))

	hist, ok := got["payment_confirm_duration"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.InDelta(t, 40.0, hist.DataPoints[0].Sum, 0.001)
}
