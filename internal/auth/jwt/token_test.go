package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_IssueValidate(t *testing.T) {
	m := NewManager(TokenConfig{Secret: []byte("secret"), Issuer: "identity"})

	token, err := m.Issue(Identity{UserID: "u-1", DisplayName: "Ana", Rating: 1100}, time.Now())
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "Ana", claims.DisplayName)
	assert.Equal(t, 1100, claims.Rating)
}

func TestManager_ValidateRejects(t *testing.T) {
	m := NewManager(TokenConfig{Secret: []byte("secret"), Issuer: "identity"})

	t.Run("expired", func(t *testing.T) {
		token, err := m.Issue(Identity{UserID: "u-1"}, time.Now().Add(-2*time.Hour))
		require.NoError(t, err)
		_, err = m.Validate(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewManager(TokenConfig{Secret: []byte("other"), Issuer: "identity"})
		token, err := other.Issue(Identity{UserID: "u-1"}, time.Now())
		require.NoError(t, err)
		_, err = m.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewManager(TokenConfig{Secret: []byte("secret"), Issuer: "elsewhere"})
		token, err := other.Issue(Identity{UserID: "u-1"}, time.Now())
		require.NoError(t, err)
		_, err = m.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing user", func(t *testing.T) {
		token, err := m.Issue(Identity{}, time.Now())
		require.NoError(t, err)
		_, err = m.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Validate("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
