// Package observability provides OpenTelemetry tracing for aspiredoc runs.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"

	"github.com/efebarandurmaz/aspiredoc/internal/model"
)

const (
	// TracerName is the name used for the aspiredoc tracer.
	TracerName = "github.com/efebarandurmaz/aspiredoc"

	// Version is reported as the service version and gRPC user agent.
	Version = "0.3.0"
)

// TracingConfig configures the OpenTelemetry tracing.
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string

	// OTLPEndpoint is the OTLP gRPC endpoint (e.g., "localhost:4317").
	// If empty, tracing is disabled.
	OTLPEndpoint string

	// Insecure disables TLS towards the collector.
	Insecure bool

	// SampleRate is the trace sampling rate (0.0 to 1.0, default: 1.0)
	SampleRate float64
}

// DefaultTracingConfig returns a default tracing configuration.
func DefaultTracingConfig() *TracingConfig {
	return &TracingConfig{
		ServiceName:    "aspiredoc",
		ServiceVersion: Version,
		Insecure:       true,
		SampleRate:     1.0,
	}
}

// TracerProvider wraps the OpenTelemetry tracer provider.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// InitTracing initializes OpenTelemetry tracing.
// Returns a no-op tracer if OTLPEndpoint is empty.
func InitTracing(ctx context.Context, cfg *TracingConfig) (*TracerProvider, error) {
	if cfg == nil {
		cfg = DefaultTracingConfig()
	}

	if cfg.OTLPEndpoint == "" {
		return &TracerProvider{
			tracer: otel.Tracer(TracerName),
		}, nil
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithDialOption(grpc.WithUserAgent("aspiredoc/" + Version)),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(Sampler(cfg.SampleRate)),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{
		provider: provider,
		tracer:   provider.Tracer(TracerName),
	}, nil
}

// Sampler maps a sample rate onto an sdk sampler.
func Sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// Shutdown gracefully shuts down the tracer provider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.provider != nil {
		return tp.provider.Shutdown(ctx)
	}
	return nil
}

// Tracer returns the underlying tracer.
func (tp *TracerProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// Pipeline stage names, used as span names under "stage.".
const (
	StageLoad     = "load"
	StageExtract  = "extract"
	StageScrape   = "scrape"
	StageSave     = "save"
	StageRender   = "render"
	StageCompose  = "compose"
	StageGraph    = "graph_store"
	StagePipeline = "pipeline"
)

// StartRunSpan starts the root span of a pipeline run.
func StartRunSpan(ctx context.Context, runID, projectDir string) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, StagePipeline,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("aspiredoc.run_id", runID),
			attribute.String("aspiredoc.project_dir", projectDir),
		),
	)
}

// StartStageSpan starts a span for one pipeline stage.
func StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "stage."+stage,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("aspiredoc.stage", stage),
		),
	)
}

// RecordLoad records corpus size on a span.
func RecordLoad(span trace.Span, files, bytes int) {
	span.SetAttributes(
		attribute.Int("corpus.files", files),
		attribute.Int("corpus.bytes", bytes),
	)
}

// RecordExtraction records model counts on a span.
func RecordExtraction(span trace.Span, framework string, st model.Stats) {
	span.SetAttributes(
		attribute.String("extract.framework", framework),
		attribute.Int("extract.services", st.Services),
		attribute.Int("extract.resources", st.Resources),
		attribute.Int("extract.dependencies", st.Dependencies),
		attribute.Int("extract.unique_edges", st.UniqueEdges),
		attribute.Int("extract.unresolved", st.Unresolved),
		attribute.Int("extract.endpoints", st.Endpoints),
	)
}

// RecordScrape records URL scrape outcome on a span.
func RecordScrape(span trace.Span, urls, failed int) {
	span.SetAttributes(
		attribute.Int("scrape.urls", urls),
		attribute.Int("scrape.failed", failed),
	)
	if failed > 0 {
		span.AddEvent("scrape failures", trace.WithAttributes(attribute.Int("count", failed)))
	}
}

// RecordOutput records a written artefact on a span.
func RecordOutput(span trace.Span, path string, size int) {
	span.SetAttributes(
		attribute.String("output.path", path),
		attribute.Int("output.bytes", size),
	)
}

// RecordRender records the size of the rendered diagrams.
func RecordRender(span trace.Span, architectureBytes, eventFlowBytes int) {
	span.SetAttributes(
		attribute.Int("render.architecture_bytes", architectureBytes),
		attribute.Int("render.event_flow_bytes", eventFlowBytes),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
