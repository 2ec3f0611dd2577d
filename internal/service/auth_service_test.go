package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/makkenzo/license-dashboard-api/internal/config"
	"github.com/makkenzo/license-dashboard-api/internal/ierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAuth(t *testing.T, secret string) *AuthService {
	t.Helper()
	svc, err := NewAuthService(&config.AuthConfig{
		JWTSecret: secret,
		Issuer:    "license-dashboard",
		TokenTTL:  time.Hour,
	}, zap.NewNop())
	require.NoError(t, err)
	return svc
}

func TestIssueAndValidateToken(t *testing.T) {
	svc := newTestAuth(t, "test-secret")

	adminToken, err := svc.IssueToken(1, RoleAdmin)
	require.NoError(t, err)
	id, err := svc.ValidateToken(context.Background(), adminToken)
	require.NoError(t, err)
	assert.Equal(t, &Identity{UserID: 1, IsAdmin: true}, id)

	userToken, err := svc.IssueToken(42, RoleUser)
	require.NoError(t, err)
	id, err = svc.ValidateToken(context.Background(), userToken)
	require.NoError(t, err)
	assert.Equal(t, &Identity{UserID: 42, IsAdmin: false}, id)
}

func TestIssueTokenValidation(t *testing.T) {
	svc := newTestAuth(t, "test-secret")

	_, err := svc.IssueToken(0, RoleUser)
	assert.ErrorIs(t, err, ierr.ErrInvalidRequest)
	_, err = svc.IssueToken(5, "root")
	assert.ErrorIs(t, err, ierr.ErrInvalidRequest)
}

func TestValidateTokenRejects(t *testing.T) {
	svc := newTestAuth(t, "test-secret")
	other := newTestAuth(t, "another-secret")

	foreign, err := other.IssueToken(42, RoleAdmin)
	require.NoError(t, err)

	expiredSvc := newTestAuth(t, "test-secret")
	expiredSvc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredSvc.IssueToken(42, RoleUser)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			Issuer:    "license-dashboard",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: RoleUser,
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "42", Issuer: "license-dashboard"},
		Role:             RoleUser,
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	cases := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"expired":      expired,
		"bad subject":  badSubject,
		"no expiry":    noExpiry,
		"wrong issuer": wrongIssuer,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(context.Background(), token)
			assert.ErrorIs(t, err, ierr.ErrInvalidToken)
		})
	}
}

func TestNewAuthServiceRequiresSecret(t *testing.T) {
	_, err := NewAuthService(&config.AuthConfig{}, zap.NewNop())
	assert.Error(t, err)
}
