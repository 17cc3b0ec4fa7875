package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-shop-inventory/internal/apperr"
	"go-shop-inventory/internal/model"
	"go-shop-inventory/internal/repository/memory"
	"go-shop-inventory/pkg/jwt"
)

func newAuth(t *testing.T) (AuthService, *memory.UserStore) {
	t.Helper()
	users := memory.NewUserStore()
	svc := NewAuthService(users, jwt.NewManager("test-secret", time.Hour), zap.NewNop())
	require.NoError(t, svc.SeedAdmin(context.Background(), "Admin@Example.com", "admin123"))
	return svc, users
}

func TestSeedAdmin_Idempotent(t *testing.T) {
	svc, users := newAuth(t)
	ctx := context.Background()
	require.NoError(t, svc.SeedAdmin(ctx, "admin@example.com", "other"))

	admin, err := users.FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleSuperAdmin, admin.Role)
	assert.True(t, admin.CheckPassword("admin123"))
}

func TestLogin_SingleSession(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()

	first, err := svc.Login(ctx, "admin@example.com", "admin123")
	require.NoError(t, err)
	claims, err := svc.Authenticate(ctx, first.Token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleSuperAdmin, claims.Role)

	second, err := svc.Login(ctx, " ADMIN@example.com ", "admin123")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, first.Token)
	assert.ErrorIs(t, err, ErrSessionReplaced)
	_, err = svc.Authenticate(ctx, second.Token)
	assert.NoError(t, err)

	v, err := svc.ValidateToken(ctx, second.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", v.User.Email)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "admin@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "admin123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestRegister(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{Email: "Jo@Example.com", Password: "secret1", FullName: "Jo"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleCustomer, user.Role)
	assert.Equal(t, "jo@example.com", user.Email)

	_, err = svc.Register(ctx, RegisterRequest{Email: "jo@example.com", Password: "secret1", FullName: "Jo"})
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.Register(ctx, RegisterRequest{Email: "not-an-email", Password: "secret1", FullName: "Jo"})
	assert.True(t, apperr.IsValidation(err))

	resp, err := svc.Login(ctx, "jo@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleCustomer, resp.User.Role)
}

func TestChangePassword_EndsSessions(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()
	login, err := svc.Login(ctx, "admin@example.com", "admin123")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ChangePassword(ctx, "admin@example.com", "wrong", "newpass1"), ErrWrongPassword)
	assert.True(t, apperr.IsValidation(svc.ChangePassword(ctx, "admin@example.com", "admin123", "123")))

	require.NoError(t, svc.ChangePassword(ctx, "admin@example.com", "admin123", "newpass1"))
	_, err = svc.Authenticate(ctx, login.Token)
	assert.ErrorIs(t, err, ErrSessionReplaced)

	_, err = svc.Login(ctx, "admin@example.com", "admin123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ResetPassword(ctx, "admin@example.com", "reset99"))
	_, err = svc.Login(ctx, "admin@example.com", "reset99")
	assert.NoError(t, err)
}
