package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-shop-inventory/internal/apperr"
	"go-shop-inventory/internal/model"
	"go-shop-inventory/internal/repository"
)

// failingWrites fails the next n stock writes and passes everything else through.
type failingWrites struct {
	repository.ProductRepository
	n int
}

func (f *failingWrites) MutateStock(ctx context.Context, id uuid.UUID, fn repository.MutateFunc) (*model.Product, error) {
	if f.n > 0 {
		f.n--
		return nil, errors.New("connection reset by peer")
	}
	return f.ProductRepository.MutateStock(ctx, id, fn)
}

func placeOrder(t *testing.T, f *fixture, userID uuid.UUID, items ...OrderItemRequest) *model.Order {
	t.Helper()
	order, err := f.orderSvc.CreateOrder(context.Background(), userID, CreateOrderRequest{
		Items:         items,
		PaymentMethod: "card",
	})
	require.NoError(t, err)
	return order
}

func TestCreateOrder_RecordsSaleAgainstOrder(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Tee", map[string]int{"M": 10})
	user := uuid.New()

	order := placeOrder(t, f, user, OrderItemRequest{ProductID: p.ID, Color: "Red", Size: "M", Quantity: 2})

	assert.Equal(t, model.OrderInStore, order.OrderStatus)
	assert.Equal(t, model.PaidPending, order.PaidStatus)
	assert.True(t, order.ItemsPrice.Equal(decimal.NewFromInt(40)))
	assert.True(t, order.TaxPrice.Equal(decimal.NewFromInt(4)))
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromInt(49)), order.TotalPrice.String())

	sz := f.cell(t, p.ID, "Red", "M")
	assert.Equal(t, 8, sz.Quantity)
	require.Len(t, sz.History, 2)
	sale := sz.History[1]
	assert.Equal(t, model.ReasonSale, sale.Reason)
	assert.Equal(t, -2, sale.Change)
	assert.Equal(t, 10, sale.PreviousQuantity)
	assert.Equal(t, 8, sale.NewQuantity)
	require.NotNil(t, sale.OrderID)
	assert.Equal(t, order.ID, *sale.OrderID)
	assert.True(t, order.Items[0].StockApplied)
}

func TestCreateOrder_RejectsWhenCellShort(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Tee", map[string]int{"M": 10})
	ctx := context.Background()

	// two lines on the same cell count together
	_, err := f.orderSvc.CreateOrder(ctx, uuid.New(), CreateOrderRequest{
		Items: []OrderItemRequest{
			{ProductID: p.ID, Color: "Red", Size: "M", Quantity: 6},
			{ProductID: p.ID, Color: "Red", Size: "M", Quantity: 6},
		},
		PaymentMethod: "card",
	})
	var ise *apperr.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 10, ise.Available)
	assert.Equal(t, 12, ise.Requested)

	orders, err := f.orders.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Len(t, f.cell(t, p.ID, "Red", "M").History, 1)
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Tee", map[string]int{"M": 10})
	ctx := context.Background()

	_, err := f.orderSvc.CreateOrder(ctx, uuid.New(), CreateOrderRequest{PaymentMethod: "card"})
	assert.True(t, apperr.IsValidation(err))

	_, err = f.orderSvc.CreateOrder(ctx, uuid.New(), CreateOrderRequest{
		Items:         []OrderItemRequest{{ProductID: p.ID, Color: "Red", Size: "M", Quantity: 0}},
		PaymentMethod: "card",
	})
	assert.True(t, apperr.IsValidation(err))

	_, err = f.orderSvc.CreateOrder(ctx, uuid.New(), CreateOrderRequest{
		Items:         []OrderItemRequest{{ProductID: p.ID, Color: "Red", Size: "XL", Quantity: 1}},
		PaymentMethod: "card",
	})
	assert.True(t, apperr.IsNotFound(err))
}

func TestUpdateStatus_RefundRestoresOnce(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Tee", map[string]int{"M": 10})
	ctx := context.Background()
	order := placeOrder(t, f, uuid.New(), OrderItemRequest{ProductID: p.ID, Color: "Red", Size: "M", Quantity: 2})

	updated, err := f.orderSvc.UpdateStatus(ctx, order.ID, StatusUpdate{OrderStatus: model.OrderRefunded}, "admin")
	require.NoError(t, err)
	assert.Equal(t, model.OrderRefunded, updated.OrderStatus)
	require.NotNil(t, updated.StockReleasedAt)

	_, err = f.orderSvc.UpdateStatus(ctx, order.ID, StatusUpdate{OrderStatus: model.OrderRefunded}, "admin")
	require.NoError(t, err)

	sz := f.cell(t, p.ID, "Red", "M")
	assert.Equal(t, 10, sz.Quantity)
	require.Len(t, sz.History, 3)
	ret := sz.History[2]
	assert.Equal(t, model.ReasonReturn, ret.Reason)
	assert.Equal(t, 2, ret.Change)
	require.NotNil(t, ret.OrderID)
	assert.Equal(t, order.ID, *ret.OrderID)
}

func TestUpdateStatus_CancelThenRefundRestoresOnce(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Tee", map[string]int{"M": 10})
	ctx := context.Background()
	order := placeOrder(t, f, uuid.New(), OrderItemRequest{ProductID: p.ID, Color: "Red", Size: "M", Quantity: 3})

	_, err := f.orderSvc.UpdateStatus(ctx, order.ID, StatusUpdate{OrderStatus: model.OrderCancelled}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 10, f.cell(t, p.ID, "Red", "M").Quantity)

	refunded, err := f.orderSvc.UpdateStatus(ctx, order.ID, StatusUpdate{OrderStatus: model.OrderRefunded}, "admin")
	require.NoError(t, err)
	assert.Equal(t, model.OrderRefunded, refunded.OrderStatus)

	sz := f.cell(t, p.ID, "Red", "M")
	assert.Equal(t, 10, sz.Quantity)
	assert.Len(t, sz.History, 3)
}

func TestUpdateStatus_PaidRefundedForcesRefund(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Tee", map[string]int{"M": 10})
	ctx := context.Background()
	order := placeOrder(t, f, uuid.New(), OrderItemRequest{ProductID: p.ID, Color: "Red", Size: "M", Quantity: 4})

	paid, err := f.orderSvc.UpdateStatus(ctx, order.ID, StatusUpdate{PaidStatus: model.PaidPaid}, "admin")
	require.NoError(t, err)
	assert.Equal(t, model.OrderInStore, paid.OrderStatus)
	require.NotNil(t, paid.PaidAt)

	refunded, err := f.orderSvc.UpdateStatus(ctx, order.ID, StatusUpdate{PaidStatus: model.PaidRefunded}, "admin")
	require.NoError(t, err)
	assert.Equal(t, model.OrderRefunded, refunded.OrderStatus)
	assert.Equal(t, model.PaidRefunded, refunded.PaidStatus)
	assert.Equal(t, 10, f.cell(t, p.ID, "Red", "M").Quantity)

	for _, ps := range []model.PaidStatus{model.PaidPaid, model.PaidPending} {
		_, err = f.orderSvc.UpdateStatus(ctx, order.ID, StatusUpdate{PaidStatus: ps}, "admin")
		assert.True(t, apperr.IsInvalidTransition(err), "%s: %v", ps, err)
	}
	stored, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaidRefunded, stored.PaidStatus)
	require.NotNil(t, stored.PaidAt)
	assert.True(t, stored.PaidAt.Equal(*paid.PaidAt))
}

func TestCancel_ReturnsOnlyLinesWhoseSaleWasRecorded(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Tee", map[string]int{"S": 5, "M": 10})
	ctx := context.Background()
	log := zap.NewNop()

	products := &failingWrites{ProductRepository: f.products, n: 1}
	bridge := NewStockBridge(NewInventoryService(products, f.events, nil, log), nil, log)
	orders := NewOrderService(f.orders, products, bridge, log)

	order, err := orders.CreateOrder(ctx, uuid.New(), CreateOrderRequest{
		Items: []OrderItemRequest{
			{ProductID: p.ID, Color: "Red", Size: "M", Quantity: 2},
			{ProductID: p.ID, Color: "Red", Size: "S", Quantity: 1},
		},
		PaymentMethod: "card",
	})
	require.NoError(t, err)
	assert.Equal(t, 10, f.cell(t, p.ID, "Red", "M").Quantity)
	assert.Equal(t, 4, f.cell(t, p.ID, "Red", "S").Quantity)

	require.Len(t, order.Items, 2)
	assert.False(t, order.Items[0].StockApplied)
	assert.True(t, order.Items[1].StockApplied)
	stored, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, stored.Items[0].StockApplied)
	assert.True(t, stored.Items[1].StockApplied)

	_, err = orders.UpdateStatus(ctx, order.ID, StatusUpdate{OrderStatus: model.OrderCancelled}, "admin")
	require.NoError(t, err)

	m := f.cell(t, p.ID, "Red", "M")
	assert.Equal(t, 10, m.Quantity)
	require.Len(t, m.History, 1)
	assert.Equal(t, model.ReasonInitial, m.History[0].Reason)

	s := f.cell(t, p.ID, "Red", "S")
	assert.Equal(t, 5, s.Quantity)
	require.Len(t, s.History, 3)
	assert.Equal(t, model.ReasonReturn, s.History[2].Reason)
}

func TestUpdateStatus_ForwardFlow(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Tee", map[string]int{"M": 10})
	ctx := context.Background()
	order := placeOrder(t, f, uuid.New(), OrderItemRequest{ProductID: p.ID, Color: "Red", Size: "M", Quantity: 1})

	_, err := f.orderSvc.UpdateStatus(ctx, order.ID, StatusUpdate{OrderStatus: model.OrderDelivered}, "admin")
	assert.True(t, apperr.IsInvalidTransition(err))

	_, err = f.orderSvc.UpdateStatus(ctx, order.ID, StatusUpdate{OrderStatus: model.OrderDispatched}, "admin")
	require.NoError(t, err)
	delivered, err := f.orderSvc.UpdateStatus(ctx, order.ID, StatusUpdate{OrderStatus: model.OrderDelivered}, "admin")
	require.NoError(t, err)
	require.NotNil(t, delivered.DeliveredAt)

	_, err = f.orderSvc.UpdateStatus(ctx, order.ID, StatusUpdate{}, "admin")
	assert.True(t, apperr.IsValidation(err))

	_, err = f.orderSvc.UpdateStatus(ctx, order.ID, StatusUpdate{OrderStatus: "lost"}, "admin")
	assert.True(t, apperr.IsValidation(err))

	_, err = f.orderSvc.UpdateStatus(ctx, uuid.New(), StatusUpdate{OrderStatus: model.OrderCancelled}, "admin")
	assert.True(t, apperr.IsNotFound(err))

	assert.Equal(t, 9, f.cell(t, p.ID, "Red", "M").Quantity)
}

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		from, to model.OrderStatus
		ok       bool
	}{
		{model.OrderInStore, model.OrderInStore, true},
		{model.OrderInStore, model.OrderDispatched, true},
		{model.OrderInStore, model.OrderDelivered, false},
		{model.OrderDispatched, model.OrderDelivered, true},
		{model.OrderDispatched, model.OrderInStore, false},
		{model.OrderDelivered, model.OrderCancelled, true},
		{model.OrderDelivered, model.OrderRefunded, true},
		{model.OrderCancelled, model.OrderRefunded, true},
		{model.OrderCancelled, model.OrderDispatched, false},
		{model.OrderRefunded, model.OrderCancelled, false},
		{model.OrderRefunded, model.OrderInStore, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := checkTransition(tt.from, tt.to)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, apperr.IsInvalidTransition(err))
			}
		})
	}
}

func TestGetOrder_HidesOtherCustomersOrders(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Tee", map[string]int{"M": 10})
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()
	order := placeOrder(t, f, owner, OrderItemRequest{ProductID: p.ID, Color: "Red", Size: "M", Quantity: 1})

	got, err := f.orderSvc.GetOrder(ctx, order.ID, owner, false)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = f.orderSvc.GetOrder(ctx, order.ID, other, false)
	assert.True(t, apperr.IsNotFound(err))

	_, err = f.orderSvc.GetOrder(ctx, order.ID, other, true)
	assert.NoError(t, err)

	mine, err := f.orderSvc.ListOrders(ctx, other, false)
	require.NoError(t, err)
	assert.Empty(t, mine)

	all, err := f.orderSvc.ListOrders(ctx, other, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStockBridge_ContinuesPastFailedLines(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Tee", map[string]int{"S": 1, "M": 10})
	orderID := uuid.New()

	res := f.bridge.Decrease(context.Background(), orderID, []model.OrderItem{
		{ProductID: p.ID, Color: "Red", Size: "S", Quantity: 5},
		{ProductID: p.ID, Color: "Blue", Size: "M", Quantity: 1},
		{ProductID: p.ID, Color: "Red", Size: "M", Quantity: 2},
	})

	assert.Equal(t, 1, res.Applied)
	require.Len(t, res.Failed, 2)
	assert.Equal(t, "S", res.Failed[0].Size)
	assert.Equal(t, "Blue", res.Failed[1].Color)
	assert.Equal(t, 1, f.cell(t, p.ID, "Red", "S").Quantity)
	assert.Equal(t, 8, f.cell(t, p.ID, "Red", "M").Quantity)
}

func TestStockBridge_IgnoresCallerCancellation(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Tee", map[string]int{"M": 10})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := f.bridge.Increase(ctx, uuid.New(), []model.OrderItem{
		{ProductID: p.ID, Color: "Red", Size: "M", Quantity: 2, StockApplied: true},
	})
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, 12, f.cell(t, p.ID, "Red", "M").Quantity)
}

func TestStockBridge_IncreaseSkipsUnappliedLines(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Tee", map[string]int{"S": 1, "M": 10})
	applied := model.OrderItem{ID: uuid.New(), ProductID: p.ID, Color: "Red", Size: "S", Quantity: 1, StockApplied: true}

	res := f.bridge.Increase(context.Background(), uuid.New(), []model.OrderItem{
		{ID: uuid.New(), ProductID: p.ID, Color: "Red", Size: "M", Quantity: 3},
		applied,
	})
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []uuid.UUID{applied.ID}, res.AppliedItems)
	assert.Empty(t, res.Failed)
	assert.Equal(t, 10, f.cell(t, p.ID, "Red", "M").Quantity)
	assert.Equal(t, 2, f.cell(t, p.ID, "Red", "S").Quantity)
}
