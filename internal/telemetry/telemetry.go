// Package telemetry sets up OpenTelemetry tracing for the assistant.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/loft/finassist/core"
	"github.com/loft/finassist/internal/config"
	"github.com/loft/finassist/logging"
)

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Init installs the global tracer provider selected by cfg and returns its
// shutdown function. Disabled tracing installs a noop provider.
func Init(ctx context.Context, cfg config.TelemetryConfig, logger logging.Logger) (ShutdownFunc, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	if !cfg.Enabled || cfg.Exporter == "noop" {
		otel.SetTracerProvider(noop.NewTracerProvider())
		logger.Info("telemetry.disabled")
		return noopShutdown, nil
	}

	var (
		exporter sdktrace.SpanExporter
		err      error
	)

	switch cfg.Exporter {
	case "otlp":
		if cfg.OTLPEndpoint == "" {
			return nil, core.ConfigErrorf("telemetry.Init", "OTLP endpoint is required")
		}
		exporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		return nil, core.ConfigErrorf("telemetry.Init", "unsupported exporter %q", cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s exporter: %w", cfg.Exporter, err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(cfg.ServiceName)),
		resource.WithHost(),
		resource.WithProcess(),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("telemetry.initialized", "exporter", cfg.Exporter, "service", cfg.ServiceName)

	return tp.Shutdown, nil
}
