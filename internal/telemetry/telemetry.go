package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

const meterName = "go-shop-inventory"

// Telemetry owns the meter provider installed as the otel global.
type Telemetry struct {
	Provider *metric.MeterProvider
	exporter string
}

// Setup installs a meter provider for the requested exporter:
// "prometheus" registers a reader scraped through Handler, "otlp" pushes over
// gRPC to OTEL_EXPORTER_OTLP_METRICS_ENDPOINT (default localhost:4317),
// "none" leaves the no-op global in place.
func Setup(ctx context.Context, exporter string, log *zap.Logger) (*Telemetry, error) {
	t := &Telemetry{exporter: exporter}

	switch exporter {
	case "prometheus":
		exp, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("creating prometheus exporter: %w", err)
		}
		t.Provider = metric.NewMeterProvider(metric.WithReader(exp))
	case "otlp":
		exp, err := otlpmetricgrpc.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating otlp exporter: %w", err)
		}
		t.Provider = metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(exp)))
	case "none", "":
		log.Info("metrics disabled")
		return t, nil
	default:
		return nil, fmt.Errorf("unknown metrics exporter %q", exporter)
	}

	otel.SetMeterProvider(t.Provider)
	log.Info("metrics initialized", zap.String("exporter", exporter))
	return t, nil
}

// Handler serves the prometheus scrape endpoint. It is nil unless the
// prometheus exporter is active.
func (t *Telemetry) Handler() http.Handler {
	if t == nil || t.exporter != "prometheus" {
		return nil
	}
	return promhttp.Handler()
}

// Shutdown flushes pending measurements.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || t.Provider == nil {
		return nil
	}
	return t.Provider.Shutdown(ctx)
}
