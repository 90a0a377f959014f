package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/efebarandurmaz/aspiredoc/internal/model"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func attrs(s sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range s.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestDefaultTracingConfig(t *testing.T) {
	cfg := DefaultTracingConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, "aspiredoc", cfg.ServiceName)
	assert.Equal(t, 1.0, cfg.SampleRate)
	assert.Empty(t, cfg.OTLPEndpoint)
}

func TestInitTracing_NoEndpoint(t *testing.T) {
	ctx := context.Background()
	tp, err := InitTracing(ctx, &TracingConfig{ServiceName: "test"})
	require.NoError(t, err)
	require.NotNil(t, tp.Tracer())
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestInitTracing_NilConfig(t *testing.T) {
	tp, err := InitTracing(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, tp)
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), Sampler(1).Description())
	assert.Equal(t, sdktrace.AlwaysSample().Description(), Sampler(2).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), Sampler(0).Description())
	assert.Equal(t, sdktrace.TraceIDRatioBased(0.25).Description(), Sampler(0.25).Description())
}

func TestStageSpansNestUnderRun(t *testing.T) {
	rec := recordSpans(t)

	ctx, run := StartRunSpan(context.Background(), "run-1", "src")
	_, stage := StartStageSpan(ctx, StageExtract)
	RecordExtraction(stage, "aspire", model.Stats{Services: 2, Resources: 3, Dependencies: 4, UniqueEdges: 3, Unresolved: 1, Endpoints: 5})
	stage.End()
	run.End()

	spans := rec.Ended()
	require.Len(t, spans, 2)

	ex := spans[0]
	assert.Equal(t, "stage.extract", ex.Name())
	assert.Equal(t, spans[1].SpanContext().SpanID(), ex.Parent().SpanID())
	a := attrs(ex)
	assert.Equal(t, "aspire", a["extract.framework"].AsString())
	assert.Equal(t, int64(2), a["extract.services"].AsInt64())
	assert.Equal(t, int64(3), a["extract.unique_edges"].AsInt64())
	assert.Equal(t, int64(1), a["extract.unresolved"].AsInt64())

	assert.Equal(t, "pipeline", spans[1].Name())
	assert.Equal(t, "run-1", attrs(spans[1])["aspiredoc.run_id"].AsString())
}

func TestRecordLoadScrapeOutput(t *testing.T) {
	rec := recordSpans(t)

	_, span := StartStageSpan(context.Background(), StageScrape)
	RecordLoad(span, 7, 1024)
	RecordScrape(span, 3, 1)
	RecordOutput(span, "docs/scrape-results.json", 42)
	span.End()

	s := rec.Ended()[0]
	a := attrs(s)
	assert.Equal(t, int64(7), a["corpus.files"].AsInt64())
	assert.Equal(t, int64(1), a["scrape.failed"].AsInt64())
	assert.Equal(t, "docs/scrape-results.json", a["output.path"].AsString())
	require.Len(t, s.Events(), 1)
	assert.Equal(t, "scrape failures", s.Events()[0].Name)
}

func TestRecordError(t *testing.T) {
	rec := recordSpans(t)

	_, span := StartStageSpan(context.Background(), StageSave)
	RecordError(span, nil)
	RecordError(span, errors.New("disk full"))
	span.End()

	s := rec.Ended()[0]
	assert.Equal(t, codes.Error, s.Status().Code)
	assert.Equal(t, "disk full", s.Status().Description)
	assert.Len(t, s.Events(), 1, "nil errors are not recorded")
}

func TestRecordRender(t *testing.T) {
	rec := recordSpans(t)

	_, span := StartStageSpan(context.Background(), StageRender)
	RecordRender(span, 120, 80)
	span.End()

	s := rec.Ended()[0]
	a := attrs(s)
	assert.Equal(t, "stage.render", s.Name())
	assert.Equal(t, int64(120), a["render.architecture_bytes"].AsInt64())
	assert.Equal(t, int64(80), a["render.event_flow_bytes"].AsInt64())
}
