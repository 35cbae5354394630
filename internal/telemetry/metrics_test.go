package telemetry

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

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

func TestMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp)
	require.NoError(t, err)
	ctx := context.Background()

	m.Transition(ctx, "bid", "countered")
	m.Transition(ctx, "bid", "countered")
	m.Deal(ctx, "confirmed", decimal.RequireFromString("19.61"))
	m.Deal(ctx, "pending_confirmation", decimal.RequireFromString("100"))
	m.Notification(ctx, false)

	data := collect(t, reader)
	transitions, ok := data["market.transitions"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, transitions.DataPoints, 1)
	assert.Equal(t, int64(2), transitions.DataPoints[0].Value)

	fees, ok := data["market.platform_fee"].(metricdata.Sum[float64])
	require.True(t, ok)
	assert.InDelta(t, 19.61, fees.DataPoints[0].Value, 1e-9)

	deals, ok := data["market.deals"].(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, deals.DataPoints, 2)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Transition(context.Background(), "listing", "sold")
		m.Deal(context.Background(), "confirmed", decimal.Zero)
		m.Notification(context.Background(), true)
	})
}

func TestInit(t *testing.T) {
	mp, shutdown, err := Init(context.Background(), "", "")
	require.NoError(t, err)
	require.NotNil(t, mp)
	require.NoError(t, shutdown(context.Background()))

	_, _, err = Init(context.Background(), "://bad", "svc")
	assert.Error(t, err)

	host, insecure, err := parseEndpoint("https://collector:4318")
	require.NoError(t, err)
	assert.Equal(t, "collector:4318", host)
	assert.False(t, insecure)
}
