// Package apm configures OpenTelemetry tracing.
package apm

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/tokensale-client/internal/logger"
)

// Exporter names a span exporter.
type Exporter string

const (
	ZipkinExporter   Exporter = "zipkin"
	OTLPGRPCExporter Exporter = "otlp-grpc"
	OTLPHTTPExporter Exporter = "otlp-http"
	ConsoleExporter  Exporter = "console"
	NoExporter       Exporter = "none"
)

// TraceProvider flushes and releases the exporter.
type TraceProvider interface {
	Stop() error
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

type noopProvider struct{}

func (noopProvider) Stop() error { return nil }

// TracerOptions collects the exporter settings.
type TracerOptions struct {
	serviceName string
	endpoint    string
	headers     map[string]string
	console     io.Writer
}

// TracerOption configures NewTraceProvider.
type TracerOption func(*TracerOptions)

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) TracerOption {
	return func(o *TracerOptions) { o.serviceName = name }
}

// WithEndpoint sets the collector endpoint URL.
func WithEndpoint(url string) TracerOption {
	return func(o *TracerOptions) { o.endpoint = url }
}

// WithHeaders sets headers sent with every OTLP export.
func WithHeaders(headers map[string]string) TracerOption {
	return func(o *TracerOptions) { o.headers = headers }
}

// WithConsoleWriter redirects the console exporter. It defaults to stdout,
// which the TUI owns, so TUI mode should pass a file or io.Discard.
func WithConsoleWriter(w io.Writer) TracerOption {
	return func(o *TracerOptions) { o.console = w }
}

// ParseHeaders reads "k1=v1,k2=v2" as used by OTEL_EXPORTER_OTLP_HEADERS.
func ParseHeaders(s string) (map[string]string, error) {
	headers := make(map[string]string)
	if strings.TrimSpace(s) == "" {
		return headers, nil
	}
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid header %q, expected key=value", pair)
		}
		headers[k] = strings.TrimSpace(v)
	}
	return headers, nil
}

func newExporter(ctx context.Context, exporter Exporter, o *TracerOptions) (sdktrace.SpanExporter, error) {
	switch exporter {
	case ZipkinExporter:
		return zipkin.New(o.endpoint)
	case OTLPGRPCExporter:
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpointURL(o.endpoint),
			otlptracegrpc.WithHeaders(o.headers),
		)
	case OTLPHTTPExporter:
		return otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(o.endpoint),
			otlptracehttp.WithHeaders(o.headers),
		)
	case ConsoleExporter:
		w := o.console
		if w == nil {
			w = os.Stdout
		}
		return stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", exporter)
	}
}

// NewTraceProvider installs a global tracer provider exporting to exporter.
// NoExporter (or an empty name) leaves the default no-op provider in place.
func NewTraceProvider(ctx context.Context, exporter Exporter, log logger.LoggerInterface, options ...TracerOption) (TraceProvider, error) {
	if exporter == "" || exporter == NoExporter {
		return noopProvider{}, nil
	}

	opts := &TracerOptions{}
	for _, opt := range options {
		opt(opts)
	}

	exp, err := newExporter(ctx, exporter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s exporter: %w", exporter, err)
	}

	rsrc, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(opts.serviceName),
			attribute.String("otel.exporter", string(exporter)),
		))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(rsrc),
	)

	// Set global trace provider
	otel.SetTracerProvider(tp)

	// Set trace propagator
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	log.Info(ctx, "tracing enabled", "exporter", exporter, "endpoint", opts.endpoint)
	return &traceProvider{tp}, nil
}

func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
	defer cancel()

	return o.tp.Shutdown(ctx)
}
