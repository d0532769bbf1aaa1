// Package telemetry installs the OpenTelemetry tracer provider used by the
// instrumented HTTP transport.
package telemetry

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/Makepad-fr/portal/internal/logging"
)

const (
	EndpointEnv = "OTEL_EXPORTER_OTLP_ENDPOINT"
	InsecureEnv = "OTEL_EXPORTER_OTLP_INSECURE"
)

// Shutdown flushes and stops the tracer provider.
type Shutdown func(context.Context) error

func noop(context.Context) error { return nil }

// Setup exports spans over OTLP gRPC when OTEL_EXPORTER_OTLP_ENDPOINT is set.
// Otherwise nothing is installed and the returned Shutdown does nothing.
// Exporter failures are logged, never fatal.
func Setup(ctx context.Context, serviceName, version string) Shutdown {
	endpoint := os.Getenv(EndpointEnv)
	if endpoint == "" {
		return noop
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
	if os.Getenv(InsecureEnv) == "true" {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		logging.From(ctx).Warn("tracing disabled",
			"error", goerr.Wrap(err, "failed to create OTLP exporter", goerr.V("endpoint", endpoint)).Error())
		return noop
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(version),
	))
	if err != nil {
		logging.From(ctx).Warn("otel resource error", "error", err.Error())
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	logging.From(ctx).Debug("tracing enabled", "endpoint", endpoint)

	return provider.Shutdown
}
