package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour)
	id := uuid.New()

	token, err := m.GenerateToken(id, "a@b.c", "Ann", "admin", "v1")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "v1", claims.TokenVersion)
}

func TestManager_Rejects(t *testing.T) {
	m := NewManager("secret", time.Hour)
	token, err := m.GenerateToken(uuid.New(), "a@b.c", "Ann", "admin", "v1")
	require.NoError(t, err)

	_, err = NewManager("other", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ValidateToken("")
	assert.ErrorIs(t, err, ErrMissingToken)

	expired := NewManager("secret", time.Nanosecond)
	old, err := expired.GenerateToken(uuid.New(), "a@b.c", "Ann", "admin", "v1")
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)
	_, err = expired.ValidateToken(old)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
