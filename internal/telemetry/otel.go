package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.uber.org/zap"

	"github.com/benvon/smart-todo-client/internal/logger"
)

// Service names reported on spans
const (
	CLIServiceName    = "smart-todo-cli"
	ServerServiceName = "smart-todo-dev-api"
	WorkerServiceName = "smart-todo-worker"
)

const shutdownTimeout = 5 * time.Second

// InitTracer initializes the OpenTelemetry tracer provider
func InitTracer(ctx context.Context, serviceName, endpoint string) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
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

	return tp, nil
}

// Shutdown gracefully shuts down the tracer provider
func Shutdown(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}

// Setup installs a tracer provider when tracing is enabled and returns a
// function that flushes it. Tracing failures are logged and never fatal; the
// returned function is always safe to call. The provider is nil when tracing
// is off.
func Setup(ctx context.Context, enabled bool, endpoint, serviceName string, log *zap.Logger) (*sdktrace.TracerProvider, func()) {
	log = logger.OrNop(log)
	noop := func() {}

	if !enabled {
		return nil, noop
	}
	if endpoint == "" {
		log.Warn("otel_enabled_but_endpoint_not_configured")
		return nil, noop
	}

	tp, err := InitTracer(ctx, serviceName, endpoint)
	if err != nil {
		log.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		return nil, noop
	}
	log.Info("otel_tracer_initialized",
		zap.String("endpoint", endpoint),
		zap.String("service", serviceName),
	)

	return tp, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := Shutdown(shutdownCtx, tp); err != nil {
			log.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
		}
	}
}
