package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	tm := NewTokenManager("test-secret", 1)

	token, err := tm.GenerateToken("user-1", "alice", "alice@example.com", 3)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.UserName)
	assert.Equal(t, "alice@example.com", claims.UserEmail)
	assert.Equal(t, 3, claims.CredentialVersion)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a", 1).GenerateToken("user-1", "alice", "alice@example.com", 1)
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", 1).ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", -1)

	token, err := tm.GenerateToken("user-1", "alice", "alice@example.com", 1)
	require.NoError(t, err)

	_, err = tm.ParseToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", 1)

	_, err := tm.ParseToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
