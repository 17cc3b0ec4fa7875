package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-shop-inventory/internal/model"
	"go-shop-inventory/internal/repository/memory"
)

type recorder struct {
	mu     sync.Mutex
	events []any
}

func (r *recorder) Publish(event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) stockEvents() []StockEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []StockEvent
	for _, e := range r.events {
		if se, ok := e.(StockEvent); ok {
			out = append(out, se)
		}
	}
	return out
}

type fixture struct {
	products   *memory.ProductStore
	orders     *memory.OrderStore
	categories *memory.CategoryStore
	events     *recorder

	inventory InventoryService
	bridge    *StockBridge
	orderSvc  OrderService
	catalog   ProductService
	reports   ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zap.NewNop()
	f := &fixture{
		products:   memory.NewProductStore(),
		orders:     memory.NewOrderStore(),
		categories: memory.NewCategoryStore(),
		events:     &recorder{},
	}
	f.inventory = NewInventoryService(f.products, f.events, nil, log)
	f.bridge = NewStockBridge(f.inventory, nil, log)
	f.orderSvc = NewOrderService(f.orders, f.products, f.bridge, log)
	f.catalog = NewProductService(f.products, f.categories, f.events, log)
	f.reports = NewReportService(f.products, memory.NewHistoryStore(f.products), time.UTC)
	return f
}

// seed creates a product with one color and the given size quantities at cost 4.00.
func (f *fixture) seed(t *testing.T, name string, sizes map[string]int) *model.Product {
	t.Helper()
	color := ColorInput{Name: "Red"}
	for _, sz := range []string{"S", "M", "L"} {
		if qty, ok := sizes[sz]; ok {
			color.Sizes = append(color.Sizes, SizeInput{Name: sz, Quantity: qty, PurchaseCost: decimal.NewFromInt(4)})
		}
	}
	p, err := f.catalog.Create(context.Background(), CreateProductRequest{
		Name:   name,
		Price:  decimal.NewFromInt(20),
		Colors: []ColorInput{color},
	}, "tester")
	require.NoError(t, err)
	return p
}

func (f *fixture) cell(t *testing.T, productID uuid.UUID, color, size string) model.SizeVariant {
	t.Helper()
	p, err := f.products.FindByID(context.Background(), productID, true)
	require.NoError(t, err)
	_, sz, err := p.FindCell(color, size)
	require.NoError(t, err)
	return *sz
}
