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

type CategoryStore struct {
	mu         sync.RWMutex
	categories map[uuid.UUID]model.Category
}

var _ repository.CategoryRepository = (*CategoryStore)(nil)

func NewCategoryStore() *CategoryStore {
	return &CategoryStore{categories: make(map[uuid.UUID]model.Category)}
}

func (s *CategoryStore) FindAll(ctx context.Context) ([]model.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]model.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *CategoryStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Category, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.categories[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *CategoryStore) FindByName(ctx context.Context, name string) (*model.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.Name == name {
			found := c
			return &found, nil
		}
	}
	return nil, apperr.NewNotFound("category", name)
}

func (s *CategoryStore) Create(ctx context.Context, category *model.Category) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	now := time.Now()
	category.CreatedAt, category.UpdatedAt = now, now

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Name == category.Name {
			return apperr.NewValidation("name", "unique", "category "+category.Name+" already exists")
		}
	}
	s.categories[category.ID] = *category
	return nil
}
