package telemetry

import (
	"context"
	"testing"

	"github.com/genlab/backend/internal/domain/shared/valueobject"
	"github.com/genlab/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestSetup_Disabled(t *testing.T) {
	p, err := Setup(context.Background(), config.TelemetryConfig{ServiceName: "genlab"}, "test", zap.NewNop())
	require.NoError(t, err)

	assert.False(t, p.Tracer.IsEnabled())
	assert.False(t, p.Logs.IsEnabled())
	assert.False(t, p.Profiler.IsEnabled())
	require.NotNil(t, p.Ledger)

	p.Ledger.RecordWithdrawal(context.Background(), valueobject.MustQuantity("1.5"))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProfiler_RequiresAddress(t *testing.T) {
	_, err := NewProfiler(config.TelemetryConfig{ProfilingEnabled: true}, "test", zap.NewNop())
	assert.Error(t, err)
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(0).Description())
	assert.Contains(t, samplerFor(0.25).Description(), "ParentBased")
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestLedgerMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewLedgerMetrics(provider.Meter(ledgerMeterName))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordWithdrawal(ctx, valueobject.MustQuantity("10.25"))
	m.RecordWithdrawal(ctx, valueobject.MustQuantity("4.75"))
	m.RecordRejection(ctx, "create_output", "CAPACITY_EXCEEDED")
	m.RecordRetry(ctx, "create_output")
	m.RecordCompensation(ctx, 3, valueobject.MustQuantity("18.50"))
	m.RecordDrift(ctx, true)

	got := collect(t, reader)

	withdrawals := got["ledger.withdrawals"].Data.(metricdata.Sum[int64])
	assert.Equal(t, int64(2), withdrawals.DataPoints[0].Value)

	quantity := got["ledger.withdrawn.quantity"].Data.(metricdata.Sum[float64])
	assert.InDelta(t, 15.0, quantity.DataPoints[0].Value, 0.0001)

	rejections := got["ledger.rejections"].Data.(metricdata.Sum[int64])
	require.Len(t, rejections.DataPoints, 1)
	code, ok := rejections.DataPoints[0].Attributes.Value(attribute.Key("code"))
	require.True(t, ok)
	assert.Equal(t, "CAPACITY_EXCEEDED", code.AsString())

	outputs := got["ledger.compensations.outputs"].Data.(metricdata.Sum[int64])
	assert.Equal(t, int64(3), outputs.DataPoints[0].Value)

	drift := got["ledger.drift"].Data.(metricdata.Sum[int64])
	repaired, _ := drift.DataPoints[0].Attributes.Value(attribute.Key("repaired"))
	assert.True(t, repaired.AsBool())
}

func TestStartSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	ctx, span := tp.Tracer("test").Start(context.Background(), "outer")
	assert.Len(t, GetTraceID(ctx), 32)

	RecordError(span, assert.AnError)
	RecordError(span, nil)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Len(t, ended[0].Events(), 1)
}

func TestRegisterDBTracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)

	err = RegisterDBTracing(db, DBTracingConfig{
		Enabled:         true,
		DBName:          "ledger",
		SlowQueryThresh: 1,
		TracerProvider:  tp,
	}, zap.NewNop())
	require.NoError(t, err)

	ctx, parent := tp.Tracer("test").Start(context.Background(), "request")
	var n int
	require.NoError(t, db.WithContext(ctx).Raw("SELECT 1").Scan(&n).Error)
	parent.End()

	var dbSpan sdktrace.ReadOnlySpan
	for _, s := range recorder.Ended() {
		if s.Name() != "request" {
			dbSpan = s
		}
	}
	require.NotNil(t, dbSpan, "otelgorm should record a span for the query")
	assert.Equal(t, parent.SpanContext().TraceID(), dbSpan.SpanContext().TraceID())
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	assert.NoError(t, RegisterDBTracing(db, DBTracingConfig{}, zap.NewNop()))
}

func TestLoggerProvider_BridgeDisabled(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), config.TelemetryConfig{Enabled: true}, "test", zap.NewNop())
	require.NoError(t, err)

	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)
	bridged := lp.Bridge(base, zapcore.InfoLevel)
	bridged.Info("hello")

	assert.Same(t, base, bridged)
	assert.Equal(t, 1, logs.Len())
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}
	logger := zap.New(core).With(zap.String("k", "v"))

	logger.Info("dropped")
	logger.Warn("kept")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
}
