package memory

import (
	"context"
	"sort"
	"time"

	"go-shop-inventory/internal/model"
	"go-shop-inventory/internal/repository"

	"github.com/shopspring/decimal"
)

// HistoryStore answers ledger aggregates from the products held by a ProductStore.
type HistoryStore struct {
	products *ProductStore
}

var _ repository.HistoryRepository = (*HistoryStore)(nil)

func NewHistoryStore(products *ProductStore) *HistoryStore {
	return &HistoryStore{products: products}
}

func (h *HistoryStore) StockMovement(ctx context.Context, from, to time.Time, loc *time.Location) ([]repository.StockMovementData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	byDay := map[string]*repository.StockMovementData{}
	for _, p := range h.products.snapshot() {
		for _, c := range p.Colors {
			for _, s := range c.Sizes {
				for _, e := range s.History {
					if e.Reason == model.ReasonInitial || !e.InRange(from, to) {
						continue
					}
					day := e.Date.In(loc).Format("2006-01-02")
					d, ok := byDay[day]
					if !ok {
						d = &repository.StockMovementData{Date: day}
						byDay[day] = d
					}
					if e.Change > 0 {
						d.Inbound += e.Change
					} else {
						d.Outbound -= e.Change
					}
				}
			}
		}
	}

	out := make([]repository.StockMovementData, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (h *HistoryStore) Stats(ctx context.Context) (*repository.InventoryStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var stats repository.InventoryStats
	cost := decimal.Zero
	for _, p := range h.products.snapshot() {
		stats.TotalProducts++
		cost = cost.Add(p.TotalInventoryCost)
		for _, c := range p.Colors {
			for i := range c.Sizes {
				stats.TotalUnits += int64(c.Sizes[i].Quantity)
				if c.Sizes[i].IsLowStock() {
					stats.LowStockCells++
				}
			}
		}
	}
	stats.TotalInventoryCost = cost.StringFixed(2)
	return &stats, nil
}
