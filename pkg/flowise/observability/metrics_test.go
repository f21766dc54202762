package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetricsTest installs a manual-reader meter provider for the test.
func setupMetricsTest(t *testing.T) *sdkmetric.ManualReader {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	original := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() {
		otel.SetMeterProvider(original)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("shutdown meter provider: %v", err)
		}
	})
	return reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumFor returns the counter value for the datapoint carrying attr.
func sumFor(t *testing.T, rm *metricdata.ResourceMetrics, name string, attr attribute.KeyValue) int64 {
	t.Helper()
	m := findMetric(rm, name)
	require.NotNil(t, m, "metric %s not recorded", name)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected Sum[int64] for %s", name)

	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attr.Key); ok && v == attr.Value {
			total += dp.Value
		}
	}
	return total
}

func TestNewMetricsRecorder(t *testing.T) {
	setupMetricsTest(t)

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)
	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop)
}

func TestRecordAnalysis(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordAnalysis(ctx, "CHATFLOW", 2, 1, false, 3*time.Millisecond)
	m.RecordAnalysis(ctx, "AGENTFLOW", 0, 0, true, time.Millisecond)

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(1), sumFor(t, rm, "flowise.analysis.runs", attribute.String("flow_type", "CHATFLOW")))
	assert.Equal(t, int64(1), sumFor(t, rm, "flowise.analysis.parse_failures", attribute.String("flow_type", "AGENTFLOW")))
	assert.Equal(t, int64(0), sumFor(t, rm, "flowise.analysis.parse_failures", attribute.String("flow_type", "CHATFLOW")))

	hist := findMetric(rm, "flowise.analysis.suggestions")
	require.NotNil(t, hist)
	data, ok := hist.Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range data.DataPoints {
		total += dp.Sum
	}
	assert.Equal(t, int64(2), total)

	require.NotNil(t, findMetric(rm, "flowise.analysis.latency_ms"))
	require.NotNil(t, findMetric(rm, "flowise.analysis.best_practices"))
}

func TestRecordAPIRequest(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordAPIRequest(ctx, "list_chatflows", 200, 5*time.Millisecond, nil)
	m.RecordAPIRequest(ctx, "get_chatflow", 404, 5*time.Millisecond, errors.New("not found"))

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(1), sumFor(t, rm, "flowise.api.requests", attribute.String("operation", "list_chatflows")))
	assert.Equal(t, int64(1), sumFor(t, rm, "flowise.api.errors", attribute.String("operation", "get_chatflow")))
	assert.Equal(t, int64(0), sumFor(t, rm, "flowise.api.errors", attribute.String("operation", "list_chatflows")))
	require.NotNil(t, findMetric(rm, "flowise.api.latency_ms"))
}

func TestRecordToolCall(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordToolCall(ctx, "flowise_ping", time.Millisecond, nil)
	m.RecordToolCall(ctx, "flowise_ping", time.Millisecond, errors.New("down"))

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(2), sumFor(t, rm, "flowise.tool.calls", attribute.String("tool", "flowise_ping")))
	assert.Equal(t, int64(1), sumFor(t, rm, "flowise.tool.errors", attribute.String("tool", "flowise_ping")))
	require.NotNil(t, findMetric(rm, "flowise.tool.latency_ms"))
}
