// Package telemetry wires OpenTelemetry tracing, metrics and logs plus Pyroscope profiling.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/tierhub/backend/internal/infrastructure/config"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// ServiceVersion is reported on every exported signal
var ServiceVersion = "dev"

const shutdownTimeout = 10 * time.Second

// collector is the OTLP gRPC endpoint shared by every exported signal
type collector struct {
	endpoint string
	insecure bool
	resource *resource.Resource
}

func newCollector(cfg config.TelemetryConfig) (collector, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return collector{}, fmt.Errorf("build telemetry resource: %w", err)
	}
	return collector{endpoint: cfg.CollectorEndpoint, insecure: cfg.Insecure, resource: res}, nil
}

// flush runs a provider shutdown bounded by shutdownTimeout
func flush(ctx context.Context, signal string, shutdown func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown %s provider: %w", signal, err)
	}
	return nil
}
