package telemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/contrib/exporters/autoexport"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	metricsdk "go.opentelemetry.io/otel/sdk/metric"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
)

func setEnvIfNotSet(key, value string) {
	if _, ok := os.LookupEnv(key); !ok {
		os.Setenv(key, value)
	}
}

// SetupPrometheus installs a meter provider backing the /metrics endpoint. Extra
// exporters follow the OTEL_*_EXPORTER variables, which default to none here.
func SetupPrometheus(ctx context.Context, namespace string) error {
	setEnvIfNotSet("OTEL_TRACES_EXPORTER", "none")
	setEnvIfNotSet("OTEL_METRICS_EXPORTER", "none")

	promExporter, err := prometheus.New(prometheus.WithNamespace(namespace))
	if err != nil {
		return fmt.Errorf("failed to initialize prometheus exporter: %w", err)
	}
	metricExporter, err := autoexport.NewMetricReader(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize metric exporter: %w", err)
	}
	otel.SetMeterProvider(metricsdk.NewMeterProvider(metricsdk.WithReader(promExporter), metricsdk.WithReader(metricExporter)))

	spanExporter, err := autoexport.NewSpanExporter(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize trace exporter: %w", err)
	}
	otel.SetTracerProvider(tracesdk.NewTracerProvider(tracesdk.WithBatcher(spanExporter)))

	return nil
}
