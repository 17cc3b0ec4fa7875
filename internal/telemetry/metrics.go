package telemetry

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InventoryMetrics records stock and request measurements. The zero value
// and a nil pointer are both safe to use.
type InventoryMetrics struct {
	stockChanges   metric.Int64Counter
	unitsMoved     metric.Int64Counter
	bridgeFailures metric.Int64Counter
	requests       metric.Int64Counter
	duration       metric.Float64Histogram
}

// NewInventoryMetrics creates instruments on the global meter provider.
func NewInventoryMetrics() (*InventoryMetrics, error) {
	meter := otel.Meter(meterName)
	m := &InventoryMetrics{}

	var err error
	m.stockChanges, err = meter.Int64Counter(
		"inventory_stock_changes_total",
		metric.WithDescription("Stock change attempts by reason and outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stock change counter: %w", err)
	}

	m.unitsMoved, err = meter.Int64Counter(
		"inventory_units_moved_total",
		metric.WithDescription("Absolute units moved by committed stock changes"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create units counter: %w", err)
	}

	m.bridgeFailures, err = meter.Int64Counter(
		"inventory_order_item_failures_total",
		metric.WithDescription("Order items whose stock adjustment failed"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create bridge failure counter: %w", err)
	}

	m.requests, err = meter.Int64Counter(
		"shop_api_requests_total",
		metric.WithDescription("Total number of API requests"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}

	m.duration, err = meter.Float64Histogram(
		"shop_api_request_duration_seconds",
		metric.WithDescription("Duration of API requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}
	return m, nil
}

// StockChange counts one mutator call. outcome is "ok" or an error class.
func (m *InventoryMetrics) StockChange(ctx context.Context, reason, outcome string, units int) {
	if m == nil || m.stockChanges == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("reason", reason),
		attribute.String("outcome", outcome),
	)
	m.stockChanges.Add(ctx, 1, attrs)
	if outcome == "ok" && units != 0 {
		if units < 0 {
			units = -units
		}
		m.unitsMoved.Add(ctx, int64(units), metric.WithAttributes(attribute.String("reason", reason)))
	}
}

// BridgeFailure counts one order item that could not be applied.
func (m *InventoryMetrics) BridgeFailure(ctx context.Context, direction string) {
	if m == nil || m.bridgeFailures == nil {
		return
	}
	m.bridgeFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("direction", direction)))
}

// Middleware records request count and latency per route pattern.
func (m *InventoryMetrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if m == nil || m.requests == nil {
			return err
		}

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		// route path keeps cardinality low
		attrs := metric.WithAttributes(
			attribute.String("method", c.Method()),
			attribute.String("route", c.Route().Path),
			attribute.String("status_code", strconv.Itoa(status)),
		)
		ctx := c.UserContext()
		m.requests.Add(ctx, 1, attrs)
		m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
		return err
	}
}
