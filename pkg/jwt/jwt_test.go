package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopmesh/events/pkg/jwt"
)

func TestGenerateAndValidate(t *testing.T) {
	gen := jwt.NewGenerator(jwt.TokenConfig{
		Secret:   "test-secret",
		Issuer:   "shopmesh-events",
		Duration: time.Hour,
	})

	token, expiresAt, err := gen.GenerateToken("user-1", "Admin", "admin")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := jwt.ValidateToken(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "Admin", claims.Name)
	assert.Equal(t, "admin", claims.Role)
}

func TestValidateToken_Failures(t *testing.T) {
	gen := jwt.NewGenerator(jwt.TokenConfig{
		Secret:   "test-secret",
		Duration: time.Hour,
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, _, err := gen.GenerateToken("user-1", "", "")
		require.NoError(t, err)

		_, err = jwt.ValidateToken(token, "other-secret")
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := jwt.ValidateToken("not.a.token", "test-secret")
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := jwt.NewGenerator(jwt.TokenConfig{
			Secret:   "test-secret",
			Duration: -time.Minute,
		})
		token, _, err := expired.GenerateToken("user-1", "", "")
		require.NoError(t, err)

		_, err = jwt.ValidateToken(token, "test-secret")
		assert.ErrorIs(t, err, jwt.ErrExpiredToken)
	})
}
