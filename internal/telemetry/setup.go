package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

// Client owns the exporting providers. A nil Client is valid and does nothing.
type Client struct {
	shutdown []func(context.Context) error
}

// Shutdown flushes and stops every provider in reverse setup order.
func (c *Client) Shutdown(ctx context.Context) error {
	if c == nil {
		return nil
	}
	var errs []error
	for i := len(c.shutdown) - 1; i >= 0; i-- {
		errs = append(errs, c.shutdown[i](ctx))
	}
	return errors.Join(errs...)
}

// Setup exports pipeline spans, server metrics and logs to an OTLP/HTTP endpoint.
// Metrics are also readable on /metrics under the app namespace. Without an endpoint
// it returns a nil client and leaves the global providers alone.
func Setup(ctx context.Context, appName, endpoint string, level slog.Level) (*Client, error) {
	if endpoint == "" {
		return nil, nil
	}

	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(cause error) {
		slog.Error("otel error", "component", "telemetry", "error", cause)
	}))

	res, err := newResource(appName)
	if err != nil {
		return nil, err
	}

	client := &Client{}
	fail := func(err error) (*Client, error) {
		return nil, errors.Join(err, client.Shutdown(ctx))
	}

	meters, err := newMeterProvider(ctx, res, appName, endpoint)
	if err != nil {
		return fail(err)
	}
	otel.SetMeterProvider(meters)
	client.shutdown = append(client.shutdown, meters.Shutdown)

	tracers, err := newTracerProvider(ctx, res, endpoint)
	if err != nil {
		return fail(err)
	}
	otel.SetTracerProvider(tracers)
	client.shutdown = append(client.shutdown, tracers.Shutdown)

	loggers, err := newLoggerProvider(ctx, res, endpoint)
	if err != nil {
		return fail(err)
	}
	client.shutdown = append(client.shutdown, loggers.Shutdown)

	SetupLogging(level, loggers).InfoContext(ctx, "Telemetry exporting", "endpoint", endpoint)
	return client, nil
}

func newResource(appName string) (*resource.Resource, error) {
	hostName, _ := os.Hostname()
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(appName),
			semconv.HostName(hostName),
			semconv.ServiceInstanceID(uuid.NewString()),
		),
	)
}

func newMeterProvider(ctx context.Context, res *resource.Resource, namespace, endpoint string) (*metric.MeterProvider, error) {
	exporter, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(endpoint),
		otlpmetrichttp.WithRetry(otlpmetrichttp.RetryConfig{Enabled: false}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metric exporter: %w", err)
	}
	prom, err := prometheus.New(prometheus.WithNamespace(namespace))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prometheus exporter: %w", err)
	}
	return metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(exporter)),
		metric.WithReader(prom),
	), nil
}

func newTracerProvider(ctx context.Context, res *resource.Resource, endpoint string) (*trace.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithRetry(otlptracehttp.RetryConfig{Enabled: false}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize trace exporter: %w", err)
	}
	return trace.NewTracerProvider(
		trace.WithResource(res),
		trace.WithBatcher(exporter, trace.WithExportTimeout(time.Second)),
	), nil
}

func newLoggerProvider(ctx context.Context, res *resource.Resource, endpoint string) (*log.LoggerProvider, error) {
	exporter, err := otlploghttp.New(ctx,
		otlploghttp.WithEndpoint(endpoint),
		otlploghttp.WithRetry(otlploghttp.RetryConfig{Enabled: false}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize log exporter: %w", err)
	}
	return log.NewLoggerProvider(
		log.WithResource(res),
		log.WithProcessor(log.NewBatchProcessor(exporter, log.WithExportInterval(time.Second))),
	), nil
}
