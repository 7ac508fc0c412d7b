// Package telemetry sets up OpenTelemetry tracing for the advisory pipeline
// and defines the span attributes it records.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sweetpotato0/agri-advisor/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const tracerName = "github.com/sweetpotato0/agri-advisor"

// EndpointStdout selects the stdout exporter, writing spans to stderr.
const EndpointStdout = "stdout"

// Span attribute keys.
const (
	KeyLanguage   = attribute.Key("agri.language")
	KeyTopics     = attribute.Key("agri.topics")
	KeyCategory   = attribute.Key("agri.category")
	KeyOrigin     = attribute.Key("agri.answer.origin")
	KeyConfidence = attribute.Key("agri.answer.confidence")
	KeyRecords    = attribute.Key("agri.records")
	KeySynthetic  = attribute.Key("agri.synthetic")
	KeyProvider   = attribute.Key("agri.llm.provider")
)

type Config struct {
	ServiceName    string
	ServiceVersion string
	// Endpoint is an OTLP gRPC collector address or EndpointStdout. Empty
	// falls back to OTEL_EXPORTER_OTLP_ENDPOINT; with neither set tracing
	// stays a no-op.
	Endpoint string
	// SampleRatio is the fraction of root spans kept; 0 keeps all.
	SampleRatio float64
	Disable     bool
	Logger      *slog.Logger
}

// Provider owns the installed tracer provider. A nil or no-op Provider is
// safe to shut down.
type Provider struct {
	tp     *sdktrace.TracerProvider
	logger *slog.Logger
}

// Setup installs a global tracer provider for cfg. Spans started through
// Start go to the no-op provider until Setup has run.
func Setup(ctx context.Context, cfg Config) (*Provider, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.WithComponent("telemetry")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	if cfg.Disable || cfg.Endpoint == "" {
		logger.Debug("tracing disabled")
		return &Provider{logger: logger}, nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "agri-advisor"
	}

	exp, err := exporter(ctx, cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	attrs := []attribute.KeyValue{semconv.ServiceNameKey.String(cfg.ServiceName)}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersionKey.String(cfg.ServiceVersion))
	}
	res, err := resource.New(ctx, resource.WithAttributes(attrs...), resource.WithFromEnv(), resource.WithHost())
	if err != nil {
		return nil, fmt.Errorf("telemetry: resource: %w", err)
	}

	sampler := sdktrace.AlwaysSample()
	if cfg.SampleRatio > 0 && cfg.SampleRatio < 1 {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRatio)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	logger.Info("tracing enabled", "endpoint", cfg.Endpoint, "sample_ratio", cfg.SampleRatio)
	return &Provider{tp: tp, logger: logger}, nil
}

func exporter(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
	if endpoint == EndpointStdout {
		return stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	}
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	exp, err := otlptracegrpc.New(dialCtx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: otlp exporter %s: %w", endpoint, err)
	}
	return exp, nil
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool {
	return p != nil && p.tp != nil
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	if err := p.tp.Shutdown(ctx); err != nil {
		p.logger.Error("flush spans", "error", err)
		return err
	}
	return nil
}

// Start opens a span on the global tracer.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// RecordAnswer tags span with where an answer came from and how sure it is.
func RecordAnswer(span trace.Span, origin string, confidence float64) {
	span.SetAttributes(KeyOrigin.String(origin), KeyConfidence.Float64(confidence))
}
