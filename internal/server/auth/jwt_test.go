package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avilks/passvault/internal/common"
)

var testSecret = []byte("test-secret-key")

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("acc-1", "Alice", "a@x.com", testSecret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.AccountID)
	assert.Equal(t, "Alice", claims.Name)
	assert.Equal(t, "a@x.com", claims.Email)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("acc-1", "Alice", "a@x.com", testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, []byte("other-secret"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_Expired(t *testing.T) {
	token, err := GenerateToken("acc-1", "Alice", "a@x.com", testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, testSecret)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestParseToken_Garbage(t *testing.T) {
	_, err := ParseToken("not.a.token", testSecret)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}
