package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"go-shop-inventory/internal/apperr"
	"go-shop-inventory/internal/model"
	"go-shop-inventory/internal/repository"
	"go-shop-inventory/pkg/validator"
)

var (
	taxRate       = decimal.RequireFromString("0.10")
	shippingPrice = decimal.RequireFromString("5.00")
)

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"uuid_required"`
	Color     string    `json:"color" validate:"required"`
	Size      string    `json:"size" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gt=0"`
}

type CreateOrderRequest struct {
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress model.Address      `json:"shippingAddress"`
	BillingAddress  model.Address      `json:"billingAddress"`
	PaymentMethod   string             `json:"paymentMethod" validate:"required,max=50"`
}

// StatusUpdate changes the order status, the payment status, or both.
type StatusUpdate struct {
	OrderStatus model.OrderStatus `json:"orderStatus" validate:"omitempty,oneof='in store' dispatched delivered cancelled refunded"`
	PaidStatus  model.PaidStatus  `json:"paidStatus" validate:"omitempty,oneof=pending paid refunded"`
}

type OrderService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*model.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, upd StatusUpdate, actor string) (*model.Order, error)
	GetOrder(ctx context.Context, orderID, userID uuid.UUID, isAdmin bool) (*model.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID, isAdmin bool) ([]model.Order, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	bridge      *StockBridge
	log         *zap.Logger
}

func NewOrderService(oRepo repository.OrderRepository, pRepo repository.ProductRepository, bridge *StockBridge, log *zap.Logger) OrderService {
	return &orderService{
		orderRepo:   oRepo,
		productRepo: pRepo,
		bridge:      bridge,
		log:         log.Named("orders"),
	}
}

func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*model.Order, error) {
	if err := validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	// availability check; the ledger write itself happens after the order commits
	type cellKey struct {
		product     uuid.UUID
		color, size string
	}
	wanted := map[cellKey]int{}
	products := map[uuid.UUID]*model.Product{}
	items := make([]model.OrderItem, 0, len(req.Items))
	itemsPrice := decimal.Zero

	for _, it := range req.Items {
		p, ok := products[it.ProductID]
		if !ok {
			var err error
			if p, err = s.productRepo.FindByID(ctx, it.ProductID, false); err != nil {
				return nil, err
			}
			products[it.ProductID] = p
		}
		_, size, err := p.FindCell(it.Color, it.Size)
		if err != nil {
			return nil, err
		}
		key := cellKey{it.ProductID, it.Color, it.Size}
		wanted[key] += it.Quantity
		if wanted[key] > size.Quantity {
			return nil, &apperr.InsufficientStockError{
				ProductID: p.ID.String(),
				Color:     it.Color,
				Size:      it.Size,
				Available: size.Quantity,
				Requested: wanted[key],
			}
		}

		items = append(items, model.OrderItem{
			ProductID: p.ID,
			Color:     it.Color,
			Size:      it.Size,
			Quantity:  it.Quantity,
			Price:     p.Price,
		})
		itemsPrice = itemsPrice.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	tax := itemsPrice.Mul(taxRate).Round(2)
	order := &model.Order{
		UserID:          userID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   req.PaymentMethod,
		ItemsPrice:      itemsPrice,
		TaxPrice:        tax,
		ShippingPrice:   shippingPrice,
		TotalPrice:      itemsPrice.Add(tax).Add(shippingPrice),
		OrderStatus:     model.OrderInStore,
		PaidStatus:      model.PaidPending,
	}
	order.CreatedBy = userID.String()
	order.UpdatedBy = userID.String()

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("saving order: %w", err)
	}
	s.log.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("items", len(order.Items)),
		zap.String("total", order.TotalPrice.StringFixed(2)),
	)

	res := s.bridge.Decrease(ctx, order.ID, order.Items)
	if len(res.Failed) > 0 {
		s.log.Warn("order placed with unapplied stock lines",
			zap.String("order_id", order.ID.String()),
			zap.Int("failed", len(res.Failed)),
		)
	}
	s.recordApplied(ctx, order, res.AppliedItems)
	return order, nil
}

// recordApplied flags the lines whose sale reached the ledger so a later
// cancel or refund returns only those.
func (s *orderService) recordApplied(ctx context.Context, order *model.Order, itemIDs []uuid.UUID) {
	if len(itemIDs) == 0 {
		return
	}
	if err := s.orderRepo.MarkStockApplied(context.WithoutCancel(ctx), order.ID, itemIDs); err != nil {
		// the sales stand; a later cancel will not return these lines
		s.log.Error("recording applied stock lines failed",
			zap.String("order_id", order.ID.String()),
			zap.Int("lines", len(itemIDs)),
			zap.Error(err),
		)
		return
	}
	for i := range order.Items {
		for _, id := range itemIDs {
			if order.Items[i].ID == id {
				order.Items[i].StockApplied = true
			}
		}
	}
}

func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, upd StatusUpdate, actor string) (*model.Order, error) {
	if err := validator.ValidateStruct(upd); err != nil {
		return nil, err
	}
	if upd.OrderStatus == "" && upd.PaidStatus == "" {
		return nil, apperr.NewValidation("orderStatus", "required_without", "orderStatus or paidStatus is required")
	}

	var release bool
	order, err := s.orderRepo.Transition(ctx, orderID, func(o *model.Order) error {
		release = false
		now := time.Now().UTC()

		target := upd.OrderStatus
		if upd.PaidStatus == model.PaidRefunded {
			target = model.OrderRefunded
		}
		if target != "" {
			if err := checkTransition(o.OrderStatus, target); err != nil {
				return err
			}
		}

		if upd.PaidStatus != "" {
			if o.PaidStatus == model.PaidRefunded && upd.PaidStatus != model.PaidRefunded {
				return &apperr.InvalidTransitionError{From: string(o.PaidStatus), To: string(upd.PaidStatus)}
			}
			if upd.PaidStatus == model.PaidPaid && o.PaidAt == nil {
				o.PaidAt = &now
			}
			o.PaidStatus = upd.PaidStatus
		}
		if target != "" {
			// restoration guard: only the first move into cancelled/refunded returns stock
			if target.ReleasesStock() && !o.OrderStatus.ReleasesStock() && o.StockReleasedAt == nil {
				o.StockReleasedAt = &now
				release = true
			}
			if target == model.OrderDelivered && o.DeliveredAt == nil {
				o.DeliveredAt = &now
			}
			o.OrderStatus = target
		}
		o.UpdatedBy = actor
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order status updated",
		zap.String("order_id", order.ID.String()),
		zap.String("order_status", string(order.OrderStatus)),
		zap.String("paid_status", string(order.PaidStatus)),
		zap.Bool("stock_released", release),
		zap.String("actor", actor),
	)
	if release {
		if res := s.bridge.Increase(ctx, order.ID, order.Items); len(res.Failed) > 0 {
			s.log.Warn("order stock only partially restored",
				zap.String("order_id", order.ID.String()),
				zap.Int("failed", len(res.Failed)),
			)
		}
	}
	return order, nil
}

// checkTransition enforces in store -> dispatched -> delivered, with cancel and
// refund reachable from anywhere and refunded terminal. Writing the current
// status again is allowed and changes nothing.
func checkTransition(from, to model.OrderStatus) error {
	if from == to {
		return nil
	}
	switch to {
	case model.OrderRefunded:
		return nil
	case model.OrderCancelled:
		if from != model.OrderRefunded {
			return nil
		}
	case model.OrderDispatched:
		if from == model.OrderInStore {
			return nil
		}
	case model.OrderDelivered:
		if from == model.OrderDispatched {
			return nil
		}
	}
	return &apperr.InvalidTransitionError{From: string(from), To: string(to)}
}

func (s *orderService) GetOrder(ctx context.Context, orderID, userID uuid.UUID, isAdmin bool) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	// other customers' orders are indistinguishable from missing ones
	if !isAdmin && order.UserID != userID {
		return nil, apperr.NewNotFound("order", orderID.String())
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, userID uuid.UUID, isAdmin bool) ([]model.Order, error) {
	if isAdmin {
		return s.orderRepo.FindAll(ctx)
	}
	return s.orderRepo.FindByUser(ctx, userID)
}
