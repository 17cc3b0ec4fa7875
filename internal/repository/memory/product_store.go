// Package memory provides in-process implementations of the repository
// contracts. They back tests and the STORE_DRIVER=memory mode.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go-shop-inventory/internal/apperr"
	"go-shop-inventory/internal/model"
	"go-shop-inventory/internal/repository"

	"github.com/google/uuid"
)

// ProductStore keeps private copies of every product; callers never share memory with it.
type ProductStore struct {
	mu       sync.RWMutex
	products map[uuid.UUID]*model.Product
	locks    *LockManager
}

var _ repository.ProductRepository = (*ProductStore)(nil)

func NewProductStore() *ProductStore {
	return &ProductStore{
		products: make(map[uuid.UUID]*model.Product),
		locks:    NewLockManager(),
	}
}

func (s *ProductStore) Create(ctx context.Context, product *model.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	now := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.products {
		if p.SKU == product.SKU {
			return apperr.NewValidation("sku", "unique", "sku "+product.SKU+" already exists")
		}
	}
	if _, exists := s.products[product.ID]; exists {
		return apperr.NewValidation("id", "unique", "product "+product.ID.String()+" already exists")
	}
	s.products[product.ID] = product.Clone()
	return nil
}

func (s *ProductStore) FindByID(ctx context.Context, id uuid.UUID, withHistory bool) (*model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, apperr.NewNotFound("product", id.String())
	}
	return view(p, withHistory, time.Time{}, time.Time{}), nil
}

func (s *ProductStore) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.SKU == sku {
			return view(p, false, time.Time{}, time.Time{}), nil
		}
	}
	return nil, apperr.NewNotFound("product", sku)
}

func (s *ProductStore) List(ctx context.Context, q repository.ProductQuery) ([]model.Product, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	matched := make([]*model.Product, 0, len(s.products))
	for _, p := range s.products {
		if matches(p, q) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := int64(len(matched))
	if q.Limit > 0 {
		start := q.Offset()
		if start > len(matched) {
			start = len(matched)
		}
		end := start + q.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}

	out := make([]model.Product, len(matched))
	for i, p := range matched {
		out[i] = *view(p, q.WithHistory, q.HistoryFrom, q.HistoryTo)
	}
	s.mu.RUnlock()
	return out, total, nil
}

func (s *ProductStore) Update(ctx context.Context, product *model.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// shares the stock writers' lock so a concurrent mutation cannot resurrect old fields
	return s.locks.With(product.ID.String(), func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		stored, ok := s.products[product.ID]
		if !ok {
			return apperr.NewNotFound("product", product.ID.String())
		}
		stored.Name = product.Name
		stored.Description = product.Description
		stored.Price = product.Price
		stored.Featured = product.Featured
		stored.Supplier = product.Supplier
		stored.StockDetails = product.StockDetails
		stored.UpdatedBy = product.UpdatedBy
		stored.UpdatedAt = time.Now()
		stored.Categories = append([]model.Category(nil), product.Categories...)
		stored.Images = append([]model.ProductImage(nil), product.Images...)
		for i := range stored.Images {
			if stored.Images[i].ID == uuid.Nil {
				stored.Images[i].ID = uuid.New()
			}
			stored.Images[i].ProductID = product.ID
			stored.Images[i].Position = i
		}
		return nil
	})
}

func (s *ProductStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := id.String()
	return s.locks.With(key, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		if _, ok := s.products[id]; !ok {
			return apperr.NewNotFound("product", key)
		}
		delete(s.products, id)
		return nil
	})
}

// MutateStock runs fn on a private copy under the product's lock and swaps
// the copy in only when fn succeeds.
func (s *ProductStore) MutateStock(ctx context.Context, id uuid.UUID, fn repository.MutateFunc) (*model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out *model.Product
	err := s.locks.With(id.String(), func() error {
		s.mu.RLock()
		stored, ok := s.products[id]
		var work *model.Product
		if ok {
			work = stored.Clone()
		}
		s.mu.RUnlock()
		if !ok {
			return apperr.NewNotFound("product", id.String())
		}

		if err := fn(work); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		work.UpdatedAt = time.Now()

		s.mu.Lock()
		s.products[id] = work
		out = work.Clone()
		s.mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func matches(p *model.Product, q repository.ProductQuery) bool {
	if q.CategoryID != nil && !p.HasCategory(*q.CategoryID) {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(p.Name), needle) && !strings.Contains(strings.ToLower(p.SKU), needle) {
			return false
		}
	}
	if q.Color == "" && q.Size == "" {
		return true
	}
	for _, c := range p.Colors {
		if q.Color != "" && c.Name != q.Color {
			continue
		}
		if q.Size == "" {
			return true
		}
		for _, sz := range c.Sizes {
			if sz.Name == q.Size {
				return true
			}
		}
	}
	return false
}

// view copies p, keeping only the ledger entries the caller asked for.
func view(p *model.Product, withHistory bool, from, to time.Time) *model.Product {
	cp := p.Clone()
	for i := range cp.Colors {
		for j := range cp.Colors[i].Sizes {
			sz := &cp.Colors[i].Sizes[j]
			if !withHistory {
				sz.History = nil
				continue
			}
			kept := sz.History[:0]
			for _, e := range sz.History {
				if e.InRange(from, to) {
					kept = append(kept, e)
				}
			}
			sz.History = kept
		}
	}
	return cp
}

// snapshot returns copies of every stored product with full history.
func (s *ProductStore) snapshot() []*model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p.Clone())
	}
	return out
}
