package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"go-shop-inventory/internal/apperr"
	"go-shop-inventory/internal/model"
	"go-shop-inventory/internal/repository"
	"go-shop-inventory/internal/telemetry"
	"go-shop-inventory/pkg/validator"
)

// StockChangeResult confirms one committed stock change.
type StockChangeResult struct {
	ProductID          uuid.UUID               `json:"productId"`
	Color              string                  `json:"color"`
	Size               string                  `json:"size"`
	PreviousQuantity   int                     `json:"previousQuantity"`
	NewQuantity        int                     `json:"newQuantity"`
	Change             int                     `json:"change"`
	Reason             model.StockReason       `json:"reason"`
	OrderID            *uuid.UUID              `json:"orderId,omitempty"`
	PurchaseCost       decimal.Decimal         `json:"purchaseCost"`
	TotalInventoryCost decimal.Decimal         `json:"totalInventoryCost"`
	LastRestockDate    *time.Time              `json:"lastRestockDate,omitempty"`
	Entry              model.StockHistoryEntry `json:"entry"`
}

type RestockRequest struct {
	ColorName    string           `json:"colorName" validate:"required,max=100"`
	SizeName     string           `json:"sizeName" validate:"required,max=50"`
	Quantity     int              `json:"quantity" validate:"gt=0"`
	PurchaseCost *decimal.Decimal `json:"purchaseCost,omitempty" validate:"omitempty,decimal_gte0"`
	Note         string           `json:"note,omitempty" validate:"max=500"`
}

type AdjustRequest struct {
	ColorName string `json:"colorName" validate:"required,max=100"`
	SizeName  string `json:"sizeName" validate:"required,max=50"`
	Delta     int    `json:"delta" validate:"ne=0"`
	Note      string `json:"note" validate:"required,max=500"`
}

// HistoryQuery bounds are inclusive; zero values are open.
type HistoryQuery struct {
	StartDate time.Time
	EndDate   time.Time
	Color     string
	Size      string
}

type CellHistory struct {
	Color        string                    `json:"color"`
	Size         string                    `json:"size"`
	Quantity     int                       `json:"quantity"`
	PurchaseCost decimal.Decimal           `json:"purchaseCost"`
	History      []model.StockHistoryEntry `json:"history"`
}

type ProductHistory struct {
	ProductID uuid.UUID     `json:"productId"`
	SKU       string        `json:"sku"`
	Name      string        `json:"name"`
	Cells     []CellHistory `json:"cells"`
}

type InventoryService interface {
	ApplyStockChange(ctx context.Context, productID uuid.UUID, ch model.StockChange) (*StockChangeResult, error)
	Restock(ctx context.Context, productID uuid.UUID, req RestockRequest, actor string) (*StockChangeResult, error)
	Adjust(ctx context.Context, productID uuid.UUID, req AdjustRequest, actor string) (*StockChangeResult, error)
	History(ctx context.Context, productID uuid.UUID, q HistoryQuery) (*ProductHistory, error)
}

type inventoryService struct {
	productRepo repository.ProductRepository
	notifier    StockNotifier
	metrics     *telemetry.InventoryMetrics
	log         *zap.Logger
}

func NewInventoryService(pRepo repository.ProductRepository, notifier StockNotifier, metrics *telemetry.InventoryMetrics, log *zap.Logger) InventoryService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &inventoryService{
		productRepo: pRepo,
		notifier:    notifier,
		metrics:     metrics,
		log:         log.Named("inventory"),
	}
}

func (s *inventoryService) ApplyStockChange(ctx context.Context, productID uuid.UUID, ch model.StockChange) (*StockChangeResult, error) {
	var (
		entry *model.StockHistoryEntry
		cost  decimal.Decimal
	)
	at := time.Now().UTC()

	product, err := s.productRepo.MutateStock(ctx, productID, func(p *model.Product) error {
		e, err := p.ApplyStockChange(ch, at)
		if err != nil {
			return err
		}
		_, size, _ := p.FindCell(ch.Color, ch.Size)
		entry, cost = e, size.PurchaseCost
		return nil
	})
	if err != nil {
		outcome := outcomeOf(err)
		s.metrics.StockChange(ctx, string(ch.Reason), outcome, ch.Delta)
		fields := []zap.Field{
			zap.String("product_id", productID.String()),
			zap.String("color", ch.Color),
			zap.String("size", ch.Size),
			zap.Int("delta", ch.Delta),
			zap.String("reason", string(ch.Reason)),
			zap.Error(err),
		}
		if outcome == "write_error" {
			s.log.Error("stock write failed", fields...)
			return nil, &apperr.InventoryWriteError{Op: string(ch.Reason), Err: err}
		}
		s.log.Info("stock change rejected", append(fields, zap.String("outcome", outcome))...)
		return nil, err
	}

	s.metrics.StockChange(ctx, string(ch.Reason), "ok", ch.Delta)
	s.log.Info("stock changed",
		zap.String("product_id", productID.String()),
		zap.String("color", ch.Color),
		zap.String("size", ch.Size),
		zap.Int("previous", entry.PreviousQuantity),
		zap.Int("new", entry.NewQuantity),
		zap.String("reason", string(ch.Reason)),
		zap.String("actor", ch.Actor),
	)

	s.notifier.Publish(StockEvent{
		Type:               eventStockUpdate,
		Action:             string(ch.Reason),
		ProductID:          product.ID,
		Color:              ch.Color,
		Size:               ch.Size,
		PreviousQuantity:   entry.PreviousQuantity,
		NewQuantity:        entry.NewQuantity,
		Change:             entry.Change,
		Reason:             entry.Reason,
		OrderID:            entry.OrderID,
		LowStock:           entry.NewQuantity < model.LowStockThreshold,
		TotalInventoryCost: product.TotalInventoryCost,
		Actor:              ch.Actor,
		At:                 at,
	})

	return &StockChangeResult{
		ProductID:          product.ID,
		Color:              ch.Color,
		Size:               ch.Size,
		PreviousQuantity:   entry.PreviousQuantity,
		NewQuantity:        entry.NewQuantity,
		Change:             entry.Change,
		Reason:             entry.Reason,
		OrderID:            entry.OrderID,
		PurchaseCost:       cost,
		TotalInventoryCost: product.TotalInventoryCost,
		LastRestockDate:    product.LastRestockDate,
		Entry:              *entry,
	}, nil
}

func (s *inventoryService) Restock(ctx context.Context, productID uuid.UUID, req RestockRequest, actor string) (*StockChangeResult, error) {
	req.ColorName = strings.TrimSpace(req.ColorName)
	req.SizeName = strings.TrimSpace(req.SizeName)
	if err := validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	return s.ApplyStockChange(ctx, productID, model.StockChange{
		Color:        req.ColorName,
		Size:         req.SizeName,
		Delta:        req.Quantity,
		Reason:       model.ReasonRestock,
		Note:         req.Note,
		PurchaseCost: req.PurchaseCost,
		Actor:        actor,
	})
}

func (s *inventoryService) Adjust(ctx context.Context, productID uuid.UUID, req AdjustRequest, actor string) (*StockChangeResult, error) {
	req.ColorName = strings.TrimSpace(req.ColorName)
	req.SizeName = strings.TrimSpace(req.SizeName)
	req.Note = strings.TrimSpace(req.Note)
	if err := validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	return s.ApplyStockChange(ctx, productID, model.StockChange{
		Color:  req.ColorName,
		Size:   req.SizeName,
		Delta:  req.Delta,
		Reason: model.ReasonAdjustment,
		Note:   req.Note,
		Actor:  actor,
	})
}

// History returns each cell's ledger, most recent entry first.
func (s *inventoryService) History(ctx context.Context, productID uuid.UUID, q HistoryQuery) (*ProductHistory, error) {
	if !q.StartDate.IsZero() && !q.EndDate.IsZero() && q.EndDate.Before(q.StartDate) {
		return nil, apperr.NewValidation("endDate", "gtefield", "endDate must not be before startDate")
	}
	product, err := s.productRepo.FindByID(ctx, productID, true)
	if err != nil {
		return nil, err
	}

	out := &ProductHistory{ProductID: product.ID, SKU: product.SKU, Name: product.Name, Cells: []CellHistory{}}
	for _, c := range product.Colors {
		if q.Color != "" && c.Name != q.Color {
			continue
		}
		for _, sz := range c.Sizes {
			if q.Size != "" && sz.Name != q.Size {
				continue
			}
			entries := make([]model.StockHistoryEntry, 0, len(sz.History))
			for _, e := range sz.History {
				if e.InRange(q.StartDate, q.EndDate) {
					entries = append(entries, e)
				}
			}
			sort.SliceStable(entries, func(i, j int) bool {
				if !entries[i].Date.Equal(entries[j].Date) {
					return entries[i].Date.After(entries[j].Date)
				}
				return entries[i].Sequence > entries[j].Sequence
			})
			out.Cells = append(out.Cells, CellHistory{
				Color:        c.Name,
				Size:         sz.Name,
				Quantity:     sz.Quantity,
				PurchaseCost: sz.PurchaseCost,
				History:      entries,
			})
		}
	}
	return out, nil
}

func outcomeOf(err error) string {
	switch {
	case apperr.IsValidation(err):
		return "invalid"
	case apperr.IsNotFound(err):
		return "not_found"
	case apperr.IsInsufficientStock(err):
		return "insufficient_stock"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "write_error"
}

// ParseDateBound accepts RFC3339 or a bare YYYY-MM-DD in loc. A bare end
// date extends to the last instant of that day.
func ParseDateBound(value string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	d, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		return d.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
	}
	return d, nil
}
