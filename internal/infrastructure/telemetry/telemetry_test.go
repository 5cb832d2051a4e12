package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/sultan/backend/internal/infrastructure/config"
)

func TestSetup_Disabled(t *testing.T) {
	ctx := context.Background()
	p, err := Setup(ctx, config.TelemetryConfig{ServiceName: "test", MetricsEnabled: true}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, p.TracingEnabled())
	assert.False(t, p.MetricsEnabled(), "metrics need telemetry.enabled too")
	assert.NotNil(t, p.Tracer("test"))
	assert.NotNil(t, p.Meter("test"))
	assert.NoError(t, p.ForceFlush(ctx))
	assert.NoError(t, p.Shutdown(ctx))
}

// restoreTracing puts the global tracer provider and propagator back after t
func restoreTracing(t *testing.T) {
	t.Helper()
	prevTraces := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTraces)
		otel.SetTextMapPropagator(prevProp)
	})
}

func TestSetup_TracingOnly(t *testing.T) {
	restoreTracing(t)

	ctx := context.Background()
	p, err := Setup(ctx, config.TelemetryConfig{
		Enabled:           true,
		CollectorEndpoint: "127.0.0.1:1",
		Insecure:          true,
		SamplingRatio:     1,
		ServiceName:       "test",
	}, zap.NewNop())
	require.NoError(t, err)

	assert.True(t, p.TracingEnabled())
	assert.False(t, p.MetricsEnabled())
	assert.False(t, p.LogsEnabled())
	assert.Same(t, p.traces, otel.GetTracerProvider())
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
	assert.NoError(t, p.Shutdown(ctx), "nothing buffered, nothing to export")
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, sampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func newTestMeter(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return reader, provider
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

type stubGenerator struct {
	ids []int64
	err error
}

func (g *stubGenerator) Generate() (int64, error) {
	if g.err != nil {
		return 0, g.err
	}
	id := g.ids[0]
	g.ids = g.ids[1:]
	return id, nil
}

func TestCountingIDGenerator(t *testing.T) {
	reader, provider := newTestMeter(t)
	metrics, err := NewCoreMetrics(provider.Meter(MeterName))
	require.NoError(t, err)

	gen := NewCountingIDGenerator(&stubGenerator{ids: []int64{11, 12}}, metrics)
	id, err := gen.Generate()
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
	_, err = gen.Generate()
	require.NoError(t, err)

	failing := NewCountingIDGenerator(&stubGenerator{err: errors.New("clock moved backwards")}, metrics)
	_, err = failing.Generate()
	assert.EqualError(t, err, "clock moved backwards")

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, got["snowflake_ids_generated_total"]))
	assert.Equal(t, int64(1), sumOf(t, got["snowflake_errors_total"]))

	hist, ok := got["snowflake_generate_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(3), hist.DataPoints[0].Count)
}

func TestCoreMetrics_AccessAndLoads(t *testing.T) {
	reader, provider := newTestMeter(t)
	metrics, err := NewCoreMetrics(provider.Meter(MeterName))
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordAccessDenied(ctx, "DELETE", "/api/v1/customers/:id")
	metrics.RecordAccessDenied(ctx, "DELETE", "/api/v1/customers/:id")
	metrics.RecordPermissionLoad(ctx, "hit")
	metrics.RecordPermissionLoad(ctx, "miss")

	got := collect(t, reader)
	denied := got["access_denied_total"].Data.(metricdata.Sum[int64])
	require.Len(t, denied.DataPoints, 1)
	assert.Equal(t, int64(2), denied.DataPoints[0].Value)
	route, ok := denied.DataPoints[0].Attributes.Value(AttrHTTPRoute)
	require.True(t, ok)
	assert.Equal(t, "/api/v1/customers/:id", route.AsString())

	loads := got["permission_loads_total"].Data.(metricdata.Sum[int64])
	assert.Len(t, loads.DataPoints, 2)
}

func TestStartServiceSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	restore := setGlobalTracerProvider(tp)
	defer restore()

	_, span := StartServiceSpan(context.Background(), "permission", "load", "user_id", int64(7), 42, "ignored")
	SetAttributes(span, "cache", "hit", "ok", true)
	RecordError(span, nil)
	RecordError(span, errors.New("boom"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	s := spans[0]
	assert.Equal(t, "permission.load", s.Name())
	assert.Equal(t, codes.Error, s.Status().Code)
	assert.Contains(t, s.Attributes(), attribute.Int64("user_id", 7))
	assert.Contains(t, s.Attributes(), attribute.String("cache", "hit"))
	assert.Contains(t, s.Attributes(), attribute.Bool("ok", true))
	assert.Len(t, s.Events(), 1)
}

func TestToAttribute(t *testing.T) {
	assert.Equal(t, attribute.Int("n", 3), toAttribute("n", 3))
	assert.Equal(t, attribute.Float64("f", 1.5), toAttribute("f", 1.5))
	assert.Equal(t, attribute.String("d", "1s"), toAttribute("d", time.Second))
	assert.Equal(t, attribute.String("u", "[1 2]"), toAttribute("u", []uint{1, 2}))
}
