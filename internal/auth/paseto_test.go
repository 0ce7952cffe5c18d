package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testPasetoKey = []byte("0123456789abcdef0123456789abcdef")

func TestNewPasetoService_RejectsBadKeyLength(t *testing.T) {
	t.Parallel()

	_, err := NewPasetoService([]byte("too short"))
	require.Error(t, err)
}

func TestPasetoService_CreateAndVerify(t *testing.T) {
	t.Parallel()

	svc, err := NewPasetoService(testPasetoKey)
	require.NoError(t, err)

	userID := uuid.New()
	token, err := svc.CreateToken(userID, "alice", "admin", time.Hour)
	require.NoError(t, err)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, userID.String(), claims.UserID)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, "admin", claims.Role)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestPasetoService_ExpiredToken(t *testing.T) {
	t.Parallel()

	svc, err := NewPasetoService(testPasetoKey)
	require.NoError(t, err)

	token, err := svc.CreateToken(uuid.New(), "bob", "user", -time.Minute)
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestPasetoService_WrongKey(t *testing.T) {
	t.Parallel()

	svc, err := NewPasetoService(testPasetoKey)
	require.NoError(t, err)
	other, err := NewPasetoService([]byte("fedcba9876543210fedcba9876543210"))
	require.NoError(t, err)

	token, err := svc.CreateToken(uuid.New(), "carol", "user", time.Hour)
	require.NoError(t, err)

	_, err = other.VerifyToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasetoService_GarbageToken(t *testing.T) {
	t.Parallel()

	svc, err := NewPasetoService(testPasetoKey)
	require.NoError(t, err)

	_, err = svc.VerifyToken("v4.local.not-a-real-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
