package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"go-shop-inventory/internal/apperr"
	"go-shop-inventory/internal/model"
	"go-shop-inventory/internal/repository"

	"github.com/google/uuid"
)

type UserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]model.User
}

var _ repository.UserRepository = (*UserStore)(nil)

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[uuid.UUID]model.User)}
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			found := u
			return &found, nil
		}
	}
	return nil, apperr.NewNotFound("user", email)
}

func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NewNotFound("user", id.String())
	}
	return &u, nil
}

func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return apperr.NewValidation("email", "unique", "email "+user.Email+" already registered")
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *UserStore) UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error {
	return s.update(ctx, userID, func(u *model.User) { u.Password = hashedPassword })
}

func (s *UserStore) UpdateTokenVersion(ctx context.Context, userID uuid.UUID, version string) error {
	return s.update(ctx, userID, func(u *model.User) { u.TokenVersion = version })
}

func (s *UserStore) update(ctx context.Context, id uuid.UUID, fn func(*model.User)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return apperr.NewNotFound("user", id.String())
	}
	fn(&u)
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return nil
}
