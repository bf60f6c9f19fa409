package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/maestro-tips/internal/models"
)

// TestJWTVerifier_RoundTrip tests that issued tokens verify back to the same actor
func TestJWTVerifier_RoundTrip(t *testing.T) {
	v, err := NewJWTVerifier("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := v.GenerateToken(models.Actor{UserID: "admin-1", Name: "Maestro", Role: models.RoleAdmin})
	require.NoError(t, err)

	actor, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", actor.UserID)
	assert.Equal(t, "Maestro", actor.Name)
	assert.True(t, actor.IsAdmin())
}

// TestJWTVerifier_Rejects tests wrong secrets, expiry and unsigned tokens
func TestJWTVerifier_Rejects(t *testing.T) {
	v, err := NewJWTVerifier("test-secret", time.Hour)
	require.NoError(t, err)
	other, err := NewJWTVerifier("other-secret", time.Hour)
	require.NoError(t, err)

	foreign, err := other.GenerateToken(models.Actor{UserID: "u1", Role: models.RoleUser})
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u1", Role: "ADMIN"})
	none, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// TestJWTVerifier_UnknownRoleIsUser tests that only the admin role elevates
func TestJWTVerifier_UnknownRoleIsUser(t *testing.T) {
	v, err := NewJWTVerifier("test-secret", 0)
	require.NoError(t, err)

	token, err := v.GenerateToken(models.Actor{UserID: "u1", Role: "SUPERUSER"})
	require.NoError(t, err)

	actor, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, actor.Role)
}

// TestNewJWTVerifier_EmptySecret tests that a secret is mandatory
func TestNewJWTVerifier_EmptySecret(t *testing.T) {
	_, err := NewJWTVerifier("", time.Hour)
	assert.Error(t, err)
}
