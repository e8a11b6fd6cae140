package credentials

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokens(t *testing.T) *TokenStore {
	t.Helper()
	return NewTokenStore(newStore(t))
}

func TestV1TokenLifecycle(t *testing.T) {
	tokens := newTokens(t)

	assert.Empty(t, tokens.V1Token())
	require.NoError(t, tokens.SetV1Token("legacy-token"))
	assert.Equal(t, "legacy-token", tokens.V1Token())
	require.NoError(t, tokens.ClearV1())
	assert.Empty(t, tokens.V1Token())
}

func TestV2PairIsAtomic(t *testing.T) {
	tokens := newTokens(t)

	assert.Error(t, tokens.SetV2Pair("access-only", ""))
	assert.Error(t, tokens.SetV2Pair("", "refresh-only"))
	assert.False(t, tokens.HasV2Pair(), "rejected writes must leave no partial state")
	assert.Empty(t, tokens.AccessToken())
	assert.Empty(t, tokens.RefreshToken())

	require.NoError(t, tokens.SetV2Pair("a1", "r1"))
	assert.True(t, tokens.HasV2Pair())
	assert.Equal(t, "a1", tokens.AccessToken())
	assert.Equal(t, "r1", tokens.RefreshToken())

	require.NoError(t, tokens.ClearV2())
	assert.False(t, tokens.HasV2Pair())
	assert.Empty(t, tokens.AccessToken())
	assert.Empty(t, tokens.RefreshToken())
}

func TestAccessTokenExpiry(t *testing.T) {
	tokens := newTokens(t)

	_, ok := tokens.AccessTokenExpiry()
	assert.False(t, ok, "no token means no expiry")

	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	require.NoError(t, tokens.SetV2Pair(signed, "refresh-1"))

	got, ok := tokens.AccessTokenExpiry()
	require.True(t, ok)
	assert.True(t, got.Equal(exp), "expiry read back without signature verification")
}

func TestAccessTokenExpiryNonJWT(t *testing.T) {
	tokens := newTokens(t)
	require.NoError(t, tokens.SetV2Pair("opaque-token", "refresh-1"))

	_, ok := tokens.AccessTokenExpiry()
	assert.False(t, ok, "opaque tokens report no expiry")
}
