package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestAuthService_RoundTrip(t *testing.T) {
	auth := NewAuthService(testSecret, time.Hour)

	token, err := auth.GenerateToken(42)
	require.NoError(t, err)

	userID, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestAuthService_RejectsWrongSecret(t *testing.T) {
	token, err := NewAuthService(testSecret, time.Hour).GenerateToken(42)
	require.NoError(t, err)

	_, err = NewAuthService("another-secret-another-secret-000", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestAuthService_RejectsExpired(t *testing.T) {
	auth := NewAuthService(testSecret, -time.Minute)
	token, err := auth.GenerateToken(42)
	require.NoError(t, err)

	_, err = auth.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestAuthService_RejectsNonNumericSubject(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewAuthService(testSecret, time.Hour).ValidateToken(signed)
	assert.Error(t, err)
}
