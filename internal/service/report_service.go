package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"go-shop-inventory/internal/apperr"
	"go-shop-inventory/internal/model"
	"go-shop-inventory/internal/repository"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type StockQuery struct {
	CategoryID *uuid.UUID
	LowStock   bool
	Page       int
	Limit      int
}

type CellStock struct {
	Color        string          `json:"color"`
	Size         string          `json:"size"`
	Quantity     int             `json:"quantity"`
	PurchaseCost decimal.Decimal `json:"purchaseCost"`
	LowStock     bool            `json:"lowStock"`
}

type ProductStock struct {
	ProductID          uuid.UUID       `json:"productId"`
	SKU                string          `json:"sku"`
	Name               string          `json:"name"`
	TotalQuantity      int             `json:"totalQuantity"`
	TotalInventoryCost decimal.Decimal `json:"totalInventoryCost"`
	LastRestockDate    *time.Time      `json:"lastRestockDate,omitempty"`
	LowStock           bool            `json:"lowStock"`
	Cells              []CellStock     `json:"cells"`
}

type StockReport struct {
	Products          []ProductStock `json:"products"`
	Page              int            `json:"page"`
	Limit             int            `json:"limit"`
	Total             int64          `json:"total"`
	TotalPages        int            `json:"totalPages"`
	LowStockThreshold int            `json:"lowStockThreshold"`
}

type SummaryQuery struct {
	Month      int
	Year       int
	CategoryID *uuid.UUID
}

// MovementTotals are the per-reason sums of one window. InitialStock is the
// previousQuantity of the first entry in the window, or the current quantity
// when the window is empty; entries before the window are not replayed.
type MovementTotals struct {
	InitialStock int `json:"initialStock"`
	Sold         int `json:"sold"`
	Restocked    int `json:"restocked"`
	Returned     int `json:"returned"`
	Adjustments  int `json:"adjustments"`
	Initialized  int `json:"initialized"`
	ClosingStock int `json:"closingStock"`
}

func (t *MovementTotals) add(o MovementTotals) {
	t.InitialStock += o.InitialStock
	t.Sold += o.Sold
	t.Restocked += o.Restocked
	t.Returned += o.Returned
	t.Adjustments += o.Adjustments
	t.Initialized += o.Initialized
	t.ClosingStock += o.ClosingStock
}

type CellSummary struct {
	Color string `json:"color"`
	Size  string `json:"size"`
	MovementTotals
	CurrentQuantity int `json:"currentQuantity"`
	Entries         int `json:"entries"`
}

type ProductSummary struct {
	ProductID uuid.UUID `json:"productId"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	MovementTotals
	Cells []CellSummary `json:"cells"`
}

type MonthlySummary struct {
	Month    int              `json:"month"`
	Year     int              `json:"year"`
	From     time.Time        `json:"from"`
	To       time.Time        `json:"to"`
	Totals   MovementTotals   `json:"totals"`
	Products []ProductSummary `json:"products"`
}

type MovementReport struct {
	Days     int                            `json:"days"`
	Stats    *repository.InventoryStats     `json:"stats"`
	Movement []repository.StockMovementData `json:"movement"`
}

type ReportService interface {
	CurrentStock(ctx context.Context, q StockQuery) (*StockReport, error)
	MonthlySummary(ctx context.Context, q SummaryQuery) (*MonthlySummary, error)
	StockMovement(ctx context.Context, days int) (*MovementReport, error)
}

type reportService struct {
	productRepo repository.ProductRepository
	historyRepo repository.HistoryRepository
	loc         *time.Location
}

func NewReportService(pRepo repository.ProductRepository, hRepo repository.HistoryRepository, loc *time.Location) ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &reportService{productRepo: pRepo, historyRepo: hRepo, loc: loc}
}

// NormalizePage applies the default and maximum page size.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

func (s *reportService) CurrentStock(ctx context.Context, q StockQuery) (*StockReport, error) {
	page, limit := NormalizePage(q.Page, q.Limit)
	query := repository.ProductQuery{CategoryID: q.CategoryID}
	if !q.LowStock {
		query.Page, query.Limit = page, limit
	}

	products, total, err := s.productRepo.List(ctx, query)
	if err != nil {
		return nil, reportErr("current stock", err)
	}

	rows := make([]ProductStock, 0, len(products))
	for i := range products {
		row := stockRow(&products[i])
		if q.LowStock && !row.LowStock {
			continue
		}
		rows = append(rows, row)
	}

	// low-stock is derived from the cells, so that filter paginates here
	if q.LowStock {
		total = int64(len(rows))
		start := (page - 1) * limit
		if start > len(rows) {
			start = len(rows)
		}
		end := start + limit
		if end > len(rows) {
			end = len(rows)
		}
		rows = rows[start:end]
	}

	return &StockReport{
		Products:          rows,
		Page:              page,
		Limit:             limit,
		Total:             total,
		TotalPages:        totalPages(total, limit),
		LowStockThreshold: model.LowStockThreshold,
	}, nil
}

func stockRow(p *model.Product) ProductStock {
	row := ProductStock{
		ProductID:          p.ID,
		SKU:                p.SKU,
		Name:               p.Name,
		TotalInventoryCost: p.TotalInventoryCost,
		LastRestockDate:    p.LastRestockDate,
		Cells:              []CellStock{},
	}
	for _, c := range p.Colors {
		for i := range c.Sizes {
			sz := &c.Sizes[i]
			low := sz.IsLowStock()
			row.TotalQuantity += sz.Quantity
			row.LowStock = row.LowStock || low
			row.Cells = append(row.Cells, CellStock{
				Color:        c.Name,
				Size:         sz.Name,
				Quantity:     sz.Quantity,
				PurchaseCost: sz.PurchaseCost,
				LowStock:     low,
			})
		}
	}
	return row
}

func (s *reportService) MonthlySummary(ctx context.Context, q SummaryQuery) (*MonthlySummary, error) {
	var fields []apperr.FieldError
	if q.Month < 1 || q.Month > 12 {
		fields = append(fields, apperr.FieldError{Field: "month", Tag: "range", Message: "month must be between 1 and 12"})
	}
	if q.Year < 2000 || q.Year > 2100 {
		fields = append(fields, apperr.FieldError{Field: "year", Tag: "range", Message: "year must be between 2000 and 2100"})
	}
	if len(fields) > 0 {
		return nil, &apperr.ValidationError{Fields: fields}
	}

	from := time.Date(q.Year, time.Month(q.Month), 1, 0, 0, 0, 0, s.loc)
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)

	products, _, err := s.productRepo.List(ctx, repository.ProductQuery{
		CategoryID:  q.CategoryID,
		WithHistory: true,
		HistoryFrom: from,
		HistoryTo:   to,
	})
	if err != nil {
		return nil, reportErr("monthly summary", err)
	}

	out := &MonthlySummary{Month: q.Month, Year: q.Year, From: from, To: to, Products: make([]ProductSummary, 0, len(products))}
	for _, p := range products {
		ps := ProductSummary{ProductID: p.ID, SKU: p.SKU, Name: p.Name, Cells: []CellSummary{}}
		for _, c := range p.Colors {
			for _, sz := range c.Sizes {
				cs := summarizeCell(sz, from, to)
				cs.Color = c.Name
				ps.Cells = append(ps.Cells, cs)
				ps.add(cs.MovementTotals)
			}
		}
		out.Totals.add(ps.MovementTotals)
		out.Products = append(out.Products, ps)
	}
	return out, nil
}

// summarizeCell expects History in insertion order.
func summarizeCell(sz model.SizeVariant, from, to time.Time) CellSummary {
	cs := CellSummary{Size: sz.Name, CurrentQuantity: sz.Quantity}
	first := true
	for _, e := range sz.History {
		if !e.InRange(from, to) {
			continue
		}
		if first {
			cs.InitialStock = e.PreviousQuantity
			first = false
		}
		cs.ClosingStock = e.NewQuantity
		cs.Entries++
		switch e.Reason {
		case model.ReasonSale:
			cs.Sold += -e.Change
		case model.ReasonRestock:
			cs.Restocked += e.Change
		case model.ReasonReturn:
			cs.Returned += e.Change
		case model.ReasonAdjustment:
			cs.Adjustments += e.Change
		case model.ReasonInitial:
			cs.Initialized += e.Change
		}
	}
	if first {
		cs.InitialStock = sz.Quantity
		cs.ClosingStock = sz.Quantity
	}
	return cs
}

func (s *reportService) StockMovement(ctx context.Context, days int) (*MovementReport, error) {
	if days < 1 {
		days = 30
	}
	if days > 365 {
		days = 365
	}
	to := time.Now().In(s.loc)
	from := to.AddDate(0, 0, -days)

	movement, err := s.historyRepo.StockMovement(ctx, from, to, s.loc)
	if err != nil {
		return nil, reportErr("stock movement", err)
	}
	stats, err := s.historyRepo.Stats(ctx)
	if err != nil {
		return nil, reportErr("stock movement", err)
	}
	return &MovementReport{Days: days, Stats: stats, Movement: movement}, nil
}

func reportErr(report string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &apperr.ReportingError{Report: report, Err: err}
}
