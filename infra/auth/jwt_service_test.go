package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTService(t *testing.T) {
	_, err := NewJWTService("", time.Hour)
	assert.ErrorIs(t, err, ErrNoSecret)

	svc, err := NewJWTService("secret", 0)
	require.NoError(t, err)
	assert.Equal(t, 12*time.Hour, svc.expiry)
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc, err := NewJWTService("secret", time.Hour)
	require.NoError(t, err)

	token, err := svc.GenerateToken("user-1", "nurse", false, []string{"fac-1", "fac-2"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "nurse", claims.Username)
	assert.False(t, claims.IsSuperuser)
	assert.True(t, claims.MemberOf("fac-2"))
	assert.False(t, claims.MemberOf("fac-3"))
}

func TestJWTService_Superuser(t *testing.T) {
	svc, _ := NewJWTService("secret", time.Hour)
	token, err := svc.GenerateToken("admin", "admin", true, nil)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, claims.MemberOf("any-facility"))
}

func TestJWTService_Rejects(t *testing.T) {
	svc, _ := NewJWTService("secret", time.Hour)
	other, _ := NewJWTService("other-secret", time.Hour)

	foreign, err := other.GenerateToken("user-1", "nurse", false, nil)
	require.NoError(t, err)
	_, err = svc.ValidateToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, _ := NewJWTService("secret", time.Nanosecond)
	token, err := expired.GenerateToken("user-1", "nurse", false, nil)
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)

	anonymous := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	signed, err := anonymous.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrMissingUser)
}
