package security

import (
	"testing"
	"time"

	"assetrent-backend/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenManager(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)

	t.Run("Round trip", func(t *testing.T) {
		token, err := tm.GenerateAccessToken("alice", []string{"admin"})
		require.NoError(t, err)

		claims, err := tm.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Username)
		assert.Equal(t, []string{"admin"}, claims.Roles)
		assert.Equal(t, TokenTypeAccess, claims.Type)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		other := NewTokenManager("ffffffffffffffffffffffffffffffff", time.Hour)
		token, err := other.GenerateAccessToken("alice", nil)
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		past := &tokenManager{secret: []byte(testSecret), expiry: time.Minute, now: func() time.Time {
			return time.Now().Add(-2 * time.Hour)
		}}
		token, err := past.GenerateAccessToken("alice", nil)
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := tm.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Unsigned token rejected", func(t *testing.T) {
		claims := UserClaims{Username: "mallory", Type: TokenTypeAccess, Roles: []string{"admin"}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestRoleProvider(t *testing.T) {
	p := NewRoleProvider([]string{"admin", "superuser"})

	assert.Equal(t, domain.PrivilegedActor("root"), p.Capability(&UserClaims{Username: "root", Roles: []string{"viewer", "superuser"}}))
	assert.Equal(t, domain.StandardActor("clerk"), p.Capability(&UserClaims{Username: "clerk", Roles: []string{"viewer"}}))
	assert.Equal(t, domain.StandardActor("nobody"), p.Capability(&UserClaims{Username: "nobody"}))
}
