// Package repository holds the storage contracts and their GORM implementations.
package repository

import (
	"context"
	"errors"
	"time"

	"go-shop-inventory/internal/apperr"
	"go-shop-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductQuery filters catalog reads. Limit 0 returns every match.
type ProductQuery struct {
	CategoryID *uuid.UUID
	Color      string
	Size       string
	Search     string
	Page       int
	Limit      int

	// WithHistory preloads ledger entries, bounded by HistoryFrom/HistoryTo when set
	WithHistory bool
	HistoryFrom time.Time
	HistoryTo   time.Time
}

// Offset returns the row offset for Page/Limit; page numbers start at 1.
func (q ProductQuery) Offset() int {
	if q.Page <= 1 || q.Limit <= 0 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// MutateFunc edits a locked product in place. Returning an error discards every change.
type MutateFunc func(p *model.Product) error

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID, withHistory bool) (*model.Product, error)
	FindBySKU(ctx context.Context, sku string) (*model.Product, error)
	List(ctx context.Context, q ProductQuery) ([]model.Product, int64, error)
	// Update writes descriptive fields, categories and images. Stock cells are untouched.
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	// MutateStock serialises stock writers per product and persists the new
	// ledger entries, cell quantities and derived cost fields that fn produced.
	MutateStock(ctx context.Context, id uuid.UUID, fn MutateFunc) (*model.Product, error)
}

// TransitionFunc edits a locked order in place. Returning an error discards every change.
type TransitionFunc func(o *model.Order) error

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	FindAll(ctx context.Context) ([]model.Order, error)
	Transition(ctx context.Context, id uuid.UUID, fn TransitionFunc) (*model.Order, error)
	// MarkStockApplied flags the given lines of an order as deducted from stock.
	MarkStockApplied(ctx context.Context, orderID uuid.UUID, itemIDs []uuid.UUID) error
}

type CategoryRepository interface {
	FindAll(ctx context.Context) ([]model.Category, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Category, error)
	FindByName(ctx context.Context, name string) (*model.Category, error)
	Create(ctx context.Context, category *model.Category) error
}

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error
	UpdateTokenVersion(ctx context.Context, userID uuid.UUID, version string) error
}

// StockMovementData is one day of ledger movement
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

// InventoryStats is the catalog-wide overview
type InventoryStats struct {
	TotalProducts      int64  `json:"totalProducts"`
	LowStockCells      int64  `json:"lowStockCells"`
	TotalUnits         int64  `json:"totalUnits"`
	TotalInventoryCost string `json:"totalInventoryCost"`
}

type HistoryRepository interface {
	// StockMovement sums positive and negative ledger changes per calendar day in loc.
	// Initial entries are excluded.
	StockMovement(ctx context.Context, from, to time.Time, loc *time.Location) ([]StockMovementData, error)
	Stats(ctx context.Context) (*InventoryStats, error)
}

func translate(err error, resource string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NewNotFound(resource, toString(id))
	}
	return err
}

func toString(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case uuid.UUID:
		return v.String()
	}
	return ""
}
