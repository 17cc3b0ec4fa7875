package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-shop-inventory/internal/model"
	"go-shop-inventory/internal/telemetry"
)

type ItemFailure struct {
	ProductID uuid.UUID `json:"productId"`
	Color     string    `json:"color"`
	Size      string    `json:"size"`
	Quantity  int       `json:"quantity"`
	Error     string    `json:"error"`
}

// BridgeResult reports what happened to each order line. Failed lines were
// logged and left unapplied; skipped lines were never deducted.
type BridgeResult struct {
	Applied      int           `json:"applied"`
	AppliedItems []uuid.UUID   `json:"appliedItems,omitempty"`
	Skipped      int           `json:"skipped,omitempty"`
	Failed       []ItemFailure `json:"failed,omitempty"`
}

// StockBridge moves stock on behalf of the order workflow. It is best effort:
// lines are applied one at a time and a failing line never stops the rest.
type StockBridge struct {
	inventory InventoryService
	metrics   *telemetry.InventoryMetrics
	log       *zap.Logger
}

func NewStockBridge(inventory InventoryService, metrics *telemetry.InventoryMetrics, log *zap.Logger) *StockBridge {
	return &StockBridge{inventory: inventory, metrics: metrics, log: log.Named("stock_bridge")}
}

// Decrease records a sale for every line of a newly placed order.
func (b *StockBridge) Decrease(ctx context.Context, orderID uuid.UUID, items []model.OrderItem) BridgeResult {
	return b.apply(ctx, orderID, items, model.ReasonSale, -1)
}

// Increase returns the lines of a cancelled or refunded order whose sale was
// recorded. Lines without StockApplied never left stock and are skipped.
func (b *StockBridge) Increase(ctx context.Context, orderID uuid.UUID, items []model.OrderItem) BridgeResult {
	applied := make([]model.OrderItem, 0, len(items))
	for _, item := range items {
		if item.StockApplied {
			applied = append(applied, item)
			continue
		}
		b.log.Info("skipping return for line without a recorded sale",
			zap.String("order_id", orderID.String()),
			zap.String("product_id", item.ProductID.String()),
			zap.String("color", item.Color),
			zap.String("size", item.Size),
		)
	}
	res := b.apply(ctx, orderID, applied, model.ReasonReturn, 1)
	res.Skipped = len(items) - len(applied)
	return res
}

func (b *StockBridge) apply(ctx context.Context, orderID uuid.UUID, items []model.OrderItem, reason model.StockReason, sign int) BridgeResult {
	// the order is already committed; a client disconnect must not skip lines
	ctx = context.WithoutCancel(ctx)
	ref := orderID

	var res BridgeResult
	for _, item := range items {
		_, err := b.inventory.ApplyStockChange(ctx, item.ProductID, model.StockChange{
			Color:   item.Color,
			Size:    item.Size,
			Delta:   sign * item.Quantity,
			Reason:  reason,
			OrderID: &ref,
			Actor:   "order:" + orderID.String(),
		})
		if err != nil {
			b.metrics.BridgeFailure(ctx, string(reason))
			b.log.Warn("order line stock update failed",
				zap.String("order_id", orderID.String()),
				zap.String("product_id", item.ProductID.String()),
				zap.String("color", item.Color),
				zap.String("size", item.Size),
				zap.Int("quantity", item.Quantity),
				zap.String("reason", string(reason)),
				zap.Error(err),
			)
			res.Failed = append(res.Failed, ItemFailure{
				ProductID: item.ProductID,
				Color:     item.Color,
				Size:      item.Size,
				Quantity:  item.Quantity,
				Error:     err.Error(),
			})
			continue
		}
		res.Applied++
		res.AppliedItems = append(res.AppliedItems, item.ID)
	}
	return res
}
