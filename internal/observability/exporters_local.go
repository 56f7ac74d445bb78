//go:build !gcloud

package observability

import (
	"context"
	"os"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type exporters struct {
	span   sdktrace.SpanExporter
	metric sdkmetric.Exporter
}

// newExporters sends OTLP over HTTP when OTEL_EXPORTER_OTLP_ENDPOINT is set;
// without it telemetry stays in process.
func newExporters(ctx context.Context, _ Config) (exporters, error) {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		return exporters{}, nil
	}

	spanExp, err := otlptracehttp.New(ctx)
	if err != nil {
		return exporters{}, err
	}

	metricExp, err := otlpmetrichttp.New(ctx)
	if err != nil {
		return exporters{}, err
	}

	return exporters{span: spanExp, metric: metricExp}, nil
}
