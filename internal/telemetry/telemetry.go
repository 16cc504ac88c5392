// Package telemetry sets up the OpenTelemetry tracer provider for serve.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Options selects the exporter and describes the service.
type Options struct {
	ServiceName    string
	ServiceVersion string

	// Exporter is stdout or otlp.
	Exporter string

	// Endpoint is the OTLP/HTTP collector URL. Empty uses the exporter's
	// default or OTEL_EXPORTER_OTLP_* variables.
	Endpoint string

	// Output receives stdout spans, os.Stdout when nil.
	Output io.Writer
}

// NewTracerProvider builds a batching tracer provider, installs it and the
// W3C propagators globally, and returns it so the caller can shut it down.
func NewTracerProvider(ctx context.Context, opts Options) (*sdktrace.TracerProvider, error) {
	exporter, err := newExporter(ctx, opts)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(opts.ServiceName),
			semconv.ServiceVersion(opts.ServiceVersion),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp, nil
}

func newExporter(ctx context.Context, opts Options) (sdktrace.SpanExporter, error) {
	switch opts.Exporter {
	case "", ExporterStdout:
		out := opts.Output
		if out == nil {
			out = os.Stdout
		}
		return stdouttrace.New(stdouttrace.WithWriter(out))
	case ExporterOTLP:
		var hopts []otlptracehttp.Option
		if opts.Endpoint != "" {
			endpoint := opts.Endpoint
			if rest, ok := strings.CutPrefix(endpoint, "http://"); ok {
				endpoint = rest
				hopts = append(hopts, otlptracehttp.WithInsecure())
			} else {
				endpoint = strings.TrimPrefix(endpoint, "https://")
			}
			endpoint, _, _ = strings.Cut(endpoint, "/")
			hopts = append(hopts, otlptracehttp.WithEndpoint(endpoint))
		}
		return otlptracehttp.New(ctx, hopts...)
	}
	return nil, fmt.Errorf("unknown trace exporter %q", opts.Exporter)
}
