package telemetry

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestStdoutProvider(t *testing.T) {
	var buf bytes.Buffer
	tp, err := NewTracerProvider(t.Context(), Options{
		ServiceName:    "gravity-test",
		ServiceVersion: "dev",
		Output:         &buf,
	})
	require.NoError(t, err)
	assert.Same(t, tp, otel.GetTracerProvider())

	_, span := otel.Tracer("test").Start(t.Context(), "GET /blog/[...slug]")
	span.End()
	require.NoError(t, tp.Shutdown(t.Context()))

	out := buf.String()
	assert.Contains(t, out, "GET /blog/[...slug]")
	assert.Contains(t, out, "gravity-test")
}

func TestOTLPProvider(t *testing.T) {
	tp, err := NewTracerProvider(t.Context(), Options{
		ServiceName: "gravity-test",
		Exporter:    ExporterOTLP,
		Endpoint:    "http://127.0.0.1:4318/v1/traces",
	})
	require.NoError(t, err)
	// Nothing was recorded, so shutdown does not contact the collector.
	assert.NoError(t, tp.Shutdown(t.Context()))
}

func TestUnknownExporter(t *testing.T) {
	_, err := NewTracerProvider(t.Context(), Options{Exporter: "zipkin"})
	assert.ErrorContains(t, err, "zipkin")
}
