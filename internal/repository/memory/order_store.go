package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go-shop-inventory/internal/apperr"
	"go-shop-inventory/internal/model"
	"go-shop-inventory/internal/repository"

	"github.com/google/uuid"
)

type OrderStore struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*model.Order
	locks  *LockManager
}

var _ repository.OrderRepository = (*OrderStore)(nil)

func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make(map[uuid.UUID]*model.Order),
		locks:  NewLockManager(),
	}
}

func (s *OrderStore) Create(ctx context.Context, order *model.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	if order.OrderStatus == "" {
		order.OrderStatus = model.OrderInStore
	}
	if order.PaidStatus == "" {
		order.PaidStatus = model.PaidPending
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[order.ID]; exists {
		return apperr.NewValidation("id", "unique", "order "+order.ID.String()+" already exists")
	}
	s.orders[order.ID] = order.Clone()
	return nil
}

func (s *OrderStore) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, apperr.NewNotFound("order", id.String())
	}
	return o.Clone(), nil
}

func (s *OrderStore) FindByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return s.collect(ctx, func(o *model.Order) bool { return o.UserID == userID })
}

func (s *OrderStore) FindAll(ctx context.Context) ([]model.Order, error) {
	return s.collect(ctx, func(*model.Order) bool { return true })
}

func (s *OrderStore) collect(ctx context.Context, keep func(*model.Order) bool) ([]model.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]model.Order, 0)
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, *o.Clone())
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *OrderStore) Transition(ctx context.Context, id uuid.UUID, fn repository.TransitionFunc) (*model.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out *model.Order
	err := s.locks.With(id.String(), func() error {
		s.mu.RLock()
		stored, ok := s.orders[id]
		var work *model.Order
		if ok {
			work = stored.Clone()
		}
		s.mu.RUnlock()
		if !ok {
			return apperr.NewNotFound("order", id.String())
		}

		if err := fn(work); err != nil {
			return err
		}
		work.UpdatedAt = time.Now()

		s.mu.Lock()
		s.orders[id] = work
		out = work.Clone()
		s.mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *OrderStore) MarkStockApplied(ctx context.Context, orderID uuid.UUID, itemIDs []uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}
	_, err := s.Transition(ctx, orderID, func(o *model.Order) error {
		for i := range o.Items {
			for _, id := range itemIDs {
				if o.Items[i].ID == id {
					o.Items[i].StockApplied = true
				}
			}
		}
		return nil
	})
	return err
}
