package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"go-shop-inventory/internal/model"
)

// StockNotifier receives events after a successful write. *ws.Hub satisfies it.
type StockNotifier interface {
	Publish(event any)
}

type nopNotifier struct{}

func (nopNotifier) Publish(any) {}

// StockEvent is broadcast to websocket clients after every committed stock change.
type StockEvent struct {
	Type               string            `json:"type"`
	Action             string            `json:"action"`
	ProductID          uuid.UUID         `json:"productId"`
	Color              string            `json:"color,omitempty"`
	Size               string            `json:"size,omitempty"`
	PreviousQuantity   int               `json:"previousQuantity"`
	NewQuantity        int               `json:"newQuantity"`
	Change             int               `json:"change"`
	Reason             model.StockReason `json:"reason,omitempty"`
	OrderID            *uuid.UUID        `json:"orderId,omitempty"`
	LowStock           bool              `json:"lowStock"`
	TotalInventoryCost decimal.Decimal   `json:"totalInventoryCost"`
	Actor              string            `json:"actor,omitempty"`
	At                 time.Time         `json:"at"`
}

// ProductEvent announces catalog changes.
type ProductEvent struct {
	Type      string    `json:"type"`
	Action    string    `json:"action"`
	ProductID uuid.UUID `json:"productId"`
	SKU       string    `json:"sku,omitempty"`
	Name      string    `json:"name,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	At        time.Time `json:"at"`
}

const (
	eventStockUpdate   = "stock_update"
	eventProductUpdate = "product_update"
)
