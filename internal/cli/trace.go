package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/macropower/pstart/pkg/version"
)

// otlpEndpointEnvs enable trace export when any of them is set.
var otlpEndpointEnvs = []string{
	"OTEL_EXPORTER_OTLP_ENDPOINT",
	"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT",
}

type shutdownFunc func(ctx context.Context) error

// setupTracing installs a global tracer provider exporting spans over OTLP
// gRPC. Without an endpoint configured the global no-op provider is kept.
func setupTracing(ctx context.Context) (shutdownFunc, error) {
	noop := func(context.Context) error { return nil }

	if !tracingEnabled() {
		return noop, nil
	}

	exporter, err := otlptracegrpc.New(ctx)
	if err != nil {
		return noop, fmt.Errorf("create trace exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", cmdName),
		attribute.String("service.version", version.GetVersion()),
	))
	if err != nil {
		return noop, fmt.Errorf("create trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	slog.Debug("tracing enabled")

	return tp.Shutdown, nil
}

func tracingEnabled() bool {
	for _, env := range otlpEndpointEnvs {
		if os.Getenv(env) != "" {
			return true
		}
	}

	return false
}
