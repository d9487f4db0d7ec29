package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetricsTest installs a manual-reader meter provider and returns the
// reader plus a cleanup restoring the original provider.
func setupMetricsTest(t *testing.T) (*sdkmetric.ManualReader, func()) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	originalProvider := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)

	cleanup := func() {
		otel.SetMeterProvider(originalProvider)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	}
	return reader, cleanup
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)
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

func TestNewMetricsRecorder(t *testing.T) {
	_, cleanup := setupMetricsTest(t)
	defer cleanup()

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)

	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop, "Expected real metrics recorder, got noop")
}

func TestRecordPublish(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordPublish(ctx, "invoice/generated", false)
	m.RecordPublish(ctx, "invoice/payment.overdue", true)

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "erpflow.events.published")
	require.NotNil(t, metric)

	sum, ok := metric.Data.(metricdata.Sum[int64])
	require.True(t, ok, "Expected Sum type")
	assert.Len(t, sum.DataPoints, 2, "scheduled and immediate emissions attribute separately")
}

func TestRecordHandlerRun(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordHandlerRun(ctx, "client/created", true, 50*time.Millisecond)
	m.RecordHandlerRun(ctx, "client/created", false, 10*time.Millisecond)

	rm := collectMetrics(t, reader)

	runs := findMetric(rm, "erpflow.handler.runs")
	require.NotNil(t, runs)
	sum, ok := runs.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.NotEmpty(t, sum.DataPoints)

	latency := findMetric(rm, "erpflow.handler.latency_ms")
	require.NotNil(t, latency)
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "Expected Histogram type")
	require.NotEmpty(t, hist.DataPoints)
}

func TestRecordStep(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("records latency", func(t *testing.T) {
		m.RecordStep(ctx, "send-email", 25*time.Millisecond, nil)

		rm := collectMetrics(t, reader)
		metric := findMetric(rm, "erpflow.step.latency_ms")
		require.NotNil(t, metric)

		hist, ok := metric.Data.(metricdata.Histogram[float64])
		require.True(t, ok, "Expected Histogram type")
		require.NotEmpty(t, hist.DataPoints)
	})

	t.Run("records errors when present", func(t *testing.T) {
		m.RecordStep(ctx, "failing-step", 5*time.Millisecond, errors.New("step failed"))

		rm := collectMetrics(t, reader)
		metric := findMetric(rm, "erpflow.step.errors")
		require.NotNil(t, metric)

		sum, ok := metric.Data.(metricdata.Sum[int64])
		require.True(t, ok, "Expected Sum type")

		found := false
		for _, dp := range sum.DataPoints {
			for _, attr := range dp.Attributes.ToSlice() {
				if attr.Key == "step_id" && attr.Value.AsString() == "failing-step" {
					found = true
					assert.GreaterOrEqual(t, dp.Value, int64(1))
				}
			}
		}
		assert.True(t, found, "Expected to find error datapoint for failing-step")
	})
}

func TestOtelMetrics_AllMethods(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordPublish(ctx, "client/created", false)
	m.RecordHandlerRun(ctx, "client/created", true, 30*time.Millisecond)
	m.RecordStep(ctx, "send-welcome-email", 20*time.Millisecond, nil)
	m.RecordRetry(ctx, "client/created")
	m.RecordDeadLetter(ctx, "client/created")

	rm := collectMetrics(t, reader)
	assert.NotNil(t, findMetric(rm, "erpflow.events.published"))
	assert.NotNil(t, findMetric(rm, "erpflow.handler.runs"))
	assert.NotNil(t, findMetric(rm, "erpflow.handler.latency_ms"))
	assert.NotNil(t, findMetric(rm, "erpflow.step.latency_ms"))
	assert.NotNil(t, findMetric(rm, "erpflow.handler.retries"))
	assert.NotNil(t, findMetric(rm, "erpflow.dlq.events"))
}
