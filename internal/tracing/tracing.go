// Package tracing provides distributed tracing capabilities using OpenTelemetry
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/developer-mesh/review-mcp"

	// Attribute keys
	AttrToolName  = "tool.name"
	AttrCallID    = "tool.call_id"
	AttrBackend   = "review_mcp.backend"
	AttrExitCode  = "process.exit_code"
	AttrErrorType = "error.type"
)

// Config holds tracing configuration
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	Backend        string
	OTLPEndpoint   string        // OTLP endpoint (e.g., "localhost:4317" for gRPC)
	OTLPInsecure   bool          // Whether to use insecure connection
	SamplingRate   float64       // Sampling rate (0.0 to 1.0)
	ExportTimeout  time.Duration // Timeout for exporting traces
	ZipkinEndpoint string        // Optional Zipkin endpoint, preferred over OTLP
}

// DefaultConfig returns default tracing configuration
func DefaultConfig() *Config {
	return &Config{
		Enabled:        false,
		ServiceName:    "review-mcp",
		ServiceVersion: "dev",
		Environment:    "development",
		OTLPEndpoint:   "localhost:4317",
		OTLPInsecure:   true,
		SamplingRate:   1.0,
		ExportTimeout:  30 * time.Second,
	}
}

// TracerProvider manages OpenTelemetry tracing
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	config   *Config
}

// NewTracerProvider creates a new tracer provider. A disabled config yields a
// provider whose spans are no-ops.
func NewTracerProvider(config *Config) (*TracerProvider, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if !config.Enabled {
		return &TracerProvider{
			tracer: otel.Tracer(tracerName),
			config: config,
		}, nil
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			attribute.String("environment", config.Environment),
			attribute.String(AttrBackend, config.Backend),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// Priority: Zipkin > OTLP (if both are configured, use Zipkin)
	var spanExporter sdktrace.SpanExporter
	if config.ZipkinEndpoint != "" {
		spanExporter, err = zipkin.New(config.ZipkinEndpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create Zipkin exporter: %w", err)
		}
	} else if config.OTLPEndpoint != "" {
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(config.OTLPEndpoint),
			otlptracegrpc.WithTimeout(config.ExportTimeout),
		}
		if config.OTLPInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}

		spanExporter, err = otlptracegrpc.New(context.Background(), opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(config.SamplingRate)),
	}
	if spanExporter != nil {
		opts = append(opts, sdktrace.WithBatcher(spanExporter))
	}

	provider := sdktrace.NewTracerProvider(opts...)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{
		provider: provider,
		tracer:   provider.Tracer(tracerName),
		config:   config,
	}, nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0.0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// Shutdown flushes pending spans and stops the exporters.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp == nil || tp.provider == nil {
		return nil
	}
	return tp.provider.Shutdown(ctx)
}

// IsEnabled returns whether tracing is enabled
func (tp *TracerProvider) IsEnabled() bool {
	return tp != nil && tp.config.Enabled
}

// StartSpan starts a new span with the given name and options
func (tp *TracerProvider) StartSpan(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if !tp.IsEnabled() {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tp.tracer.Start(ctx, spanName, opts...)
}

// SpanHelper provides convenient methods for span management
type SpanHelper struct {
	tp *TracerProvider
}

// NewSpanHelper creates a new span helper
func NewSpanHelper(tp *TracerProvider) *SpanHelper {
	return &SpanHelper{tp: tp}
}

// StartToolExecutionSpan starts a span for one tool call. Safe on a nil helper.
func (sh *SpanHelper) StartToolExecutionSpan(ctx context.Context, toolName, callID string) (context.Context, trace.Span) {
	if sh == nil || sh.tp == nil {
		return ctx, trace.SpanFromContext(ctx)
	}

	ctx, span := sh.tp.StartSpan(ctx, fmt.Sprintf("tool.execute.%s", toolName),
		trace.WithSpanKind(trace.SpanKindServer),
	)

	span.SetAttributes(
		attribute.String(AttrToolName, toolName),
		attribute.String(AttrCallID, callID),
	)

	return ctx, span
}

// RecordToolResult annotates the current span with the outcome of a call.
func (sh *SpanHelper) RecordToolResult(ctx context.Context, exitCode int, errorType string, err error) {
	if sh == nil || sh.tp == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.Int(AttrExitCode, exitCode))
	if err != nil {
		span.SetAttributes(attribute.String(AttrErrorType, errorType))
		span.RecordError(err)
		span.SetStatus(codes.Error, errorType)
		return
	}
	span.SetStatus(codes.Ok, "")
}
