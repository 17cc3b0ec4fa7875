package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-shop-inventory/internal/apperr"
	"go-shop-inventory/internal/model"
	"go-shop-inventory/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProduct(t *testing.T, store *ProductStore, sku string, qty int, categories ...model.Category) *model.Product {
	t.Helper()
	p := &model.Product{
		SKU:        sku,
		Name:       "Product " + sku,
		Price:      decimal.NewFromInt(10),
		Categories: categories,
		Colors: []model.ColorVariant{{
			Name:  "Black",
			Sizes: []model.SizeVariant{{Name: "M", Quantity: qty, PurchaseCost: decimal.NewFromInt(2)}},
		}},
	}
	p.InitializeLedger(time.Now(), "test")
	require.NoError(t, store.Create(context.Background(), p))
	return p
}

func TestProductStore_ConcurrentSalesNeverLoseUpdates(t *testing.T) {
	store := NewProductStore()
	p := seedProduct(t, store, "RAV-CONC", 100)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			orderID := uuid.New()
			_, err := store.MutateStock(ctx, p.ID, func(prod *model.Product) error {
				_, err := prod.ApplyStockChange(model.StockChange{
					Color: "Black", Size: "M", Delta: -1, Reason: model.ReasonSale, OrderID: &orderID,
				}, time.Now())
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.FindByID(ctx, p.ID, true)
	require.NoError(t, err)
	size := got.Colors[0].Sizes[0]
	assert.Equal(t, 50, size.Quantity)
	assert.Len(t, size.History, 51)
	assert.True(t, decimal.NewFromInt(100).Equal(got.TotalInventoryCost))
	assert.Equal(t, 1, store.locks.Len())
}

func TestProductStore_MutateStockDiscardsOnError(t *testing.T) {
	store := NewProductStore()
	p := seedProduct(t, store, "RAV-ROLL", 3)
	boom := errors.New("boom")

	_, err := store.MutateStock(context.Background(), p.ID, func(prod *model.Product) error {
		prod.Colors[0].Sizes[0].Quantity = 999
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.FindByID(context.Background(), p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Colors[0].Sizes[0].Quantity)

	_, err = store.MutateStock(context.Background(), uuid.New(), func(*model.Product) error { return nil })
	assert.True(t, apperr.IsNotFound(err))
}

func TestProductStore_ReturnsCopies(t *testing.T) {
	store := NewProductStore()
	p := seedProduct(t, store, "RAV-COPY", 4)

	got, err := store.FindByID(context.Background(), p.ID, true)
	require.NoError(t, err)
	got.Colors[0].Sizes[0].Quantity = 0
	p.Colors[0].Sizes[0].Quantity = 0

	again, err := store.FindByID(context.Background(), p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 4, again.Colors[0].Sizes[0].Quantity)
	assert.Nil(t, again.Colors[0].Sizes[0].History)
}

func TestProductStore_ListFilters(t *testing.T) {
	store := NewProductStore()
	shirts := model.Category{BaseModel: model.BaseModel{ID: uuid.New()}, Name: "Shirts"}
	seedProduct(t, store, "RAV-A", 1, shirts)
	seedProduct(t, store, "RAV-B", 2)
	seedProduct(t, store, "RAV-C", 3, shirts)
	ctx := context.Background()

	list, total, err := store.List(ctx, repository.ProductQuery{CategoryID: &shirts.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	list, total, err = store.List(ctx, repository.ProductQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, list, 1)

	_, total, err = store.List(ctx, repository.ProductQuery{Search: "rav-b"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, total, err = store.List(ctx, repository.ProductQuery{Color: "Black", Size: "XL"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)

	_, total, err = store.List(ctx, repository.ProductQuery{Size: "M"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestProductStore_RejectsDuplicateSKU(t *testing.T) {
	store := NewProductStore()
	seedProduct(t, store, "RAV-DUP", 1)

	err := store.Create(context.Background(), &model.Product{SKU: "RAV-DUP", Name: "again"})
	assert.True(t, apperr.IsValidation(err))
}

func TestHistoryStore_MovementAndStats(t *testing.T) {
	store := NewProductStore()
	p := seedProduct(t, store, "RAV-MOVE", 10)
	ctx := context.Background()
	day := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	orderID := uuid.New()
	_, err := store.MutateStock(ctx, p.ID, func(prod *model.Product) error {
		if _, err := prod.ApplyStockChange(model.StockChange{Color: "Black", Size: "M", Delta: -7, Reason: model.ReasonSale, OrderID: &orderID}, day); err != nil {
			return err
		}
		_, err := prod.ApplyStockChange(model.StockChange{Color: "Black", Size: "M", Delta: 2, Reason: model.ReasonRestock}, day.Add(24*time.Hour))
		return err
	})
	require.NoError(t, err)

	history := NewHistoryStore(store)
	movement, err := history.StockMovement(ctx, day.Add(-time.Hour), day.Add(48*time.Hour), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []repository.StockMovementData{
		{Date: "2024-05-10", Inbound: 0, Outbound: 7},
		{Date: "2024-05-11", Inbound: 2, Outbound: 0},
	}, movement)

	stats, err := history.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalProducts)
	assert.Equal(t, int64(5), stats.TotalUnits)
	assert.Equal(t, int64(0), stats.LowStockCells)
	assert.Equal(t, "10.00", stats.TotalInventoryCost)
}
