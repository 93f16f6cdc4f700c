package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims CustomClaims) string {
	t.Helper()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestParseToken(t *testing.T) {
	parser := NewParser("test-secret")

	t.Run("валидный токен", func(t *testing.T) {
		tokenStr := signToken(t, "test-secret", CustomClaims{
			UserID: 42,
			Email:  "member@example.com",
			RegisteredClaims: jwtlib.RegisteredClaims{
				IssuedAt:  jwtlib.NewNumericDate(time.Now()),
				ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})

		claims, err := parser.ParseToken(tokenStr)
		require.NoError(t, err)
		assert.Equal(t, int64(42), claims.UserID)
		assert.Equal(t, "member@example.com", claims.Email)
	})

	t.Run("неверная подпись", func(t *testing.T) {
		tokenStr := signToken(t, "other-secret", CustomClaims{UserID: 42})

		_, err := parser.ParseToken(tokenStr)
		assert.Error(t, err)
	})

	t.Run("истёкший токен", func(t *testing.T) {
		tokenStr := signToken(t, "test-secret", CustomClaims{
			UserID: 42,
			RegisteredClaims: jwtlib.RegisteredClaims{
				ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		})

		_, err := parser.ParseToken(tokenStr)
		assert.Error(t, err)
	})
}
