package repository

import (
	"context"
	"time"

	"go-shop-inventory/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type historyRepo struct {
	db *gorm.DB
}

func NewHistoryRepo(db *gorm.DB) HistoryRepository {
	return &historyRepo{db}
}

func (r *historyRepo) StockMovement(ctx context.Context, from, to time.Time, loc *time.Location) ([]StockMovementData, error) {
	results := []StockMovementData{}

	// aggregate ledger changes per local day
	rows, err := r.db.WithContext(ctx).Model(&model.StockHistoryEntry{}).
		Select(`
			TO_CHAR(date AT TIME ZONE ?, 'YYYY-MM-DD') as day,
			COALESCE(SUM(CASE WHEN change > 0 THEN change ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN change < 0 THEN -change ELSE 0 END), 0) as outbound
		`, loc.String()).
		Where("date BETWEEN ? AND ? AND reason <> ?", from, to, model.ReasonInitial).
		Group("day").
		Order("day ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		results = append(results, data)
	}
	return results, rows.Err()
}

func (r *historyRepo) Stats(ctx context.Context) (*InventoryStats, error) {
	var stats InventoryStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.SizeVariant{}).Where("quantity < ?", model.LowStockThreshold).
		Count(&stats.LowStockCells).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.SizeVariant{}).Select("COALESCE(SUM(quantity), 0)").
		Scan(&stats.TotalUnits).Error; err != nil {
		return nil, err
	}
	var cost decimal.Decimal
	if err := db.Model(&model.Product{}).Select("COALESCE(SUM(total_inventory_cost), 0)").
		Scan(&cost).Error; err != nil {
		return nil, err
	}
	stats.TotalInventoryCost = cost.StringFixed(2)
	return &stats, nil
}
