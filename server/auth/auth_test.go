package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperr "github.com/askdoc/askdoc/internal/errors"
)

const testSecret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42, testSecret, time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := VerifyAccessToken(token, testSecret)
	require.NoError(t, err)
	require.Equal(t, int32(42), userID)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(42, testSecret, time.Now())
	require.NoError(t, err)

	_, err = VerifyAccessToken(token, "another-secret")
	require.Error(t, err)
	require.True(t, apperr.IsCode(err, apperr.ErrCodeUnauthorized))
}

func TestAccessTokenExpired(t *testing.T) {
	issuedAt := time.Now().Add(-2 * AccessTokenDuration)
	token, err := GenerateAccessToken(42, testSecret, issuedAt)
	require.NoError(t, err)

	_, err = VerifyAccessToken(token, testSecret)
	require.Error(t, err)
	require.True(t, apperr.IsCode(err, apperr.ErrCodeUnauthorized))
}

func TestAccessTokenGarbage(t *testing.T) {
	_, err := VerifyAccessToken("not.a.token", testSecret)
	require.Error(t, err)
	require.True(t, apperr.IsCode(err, apperr.ErrCodeUnauthorized))
}

func TestPasswordHashAndVerify(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-password", hash)

	require.NoError(t, VerifyPassword(hash, "s3cret-password"))

	err = VerifyPassword(hash, "wrong-password")
	require.Error(t, err)
	require.True(t, apperr.IsCode(err, apperr.ErrCodeUnauthorized))
}

func TestPasswordHashesAreSalted(t *testing.T) {
	first, err := HashPassword("same-password")
	require.NoError(t, err)
	second, err := HashPassword("same-password")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}
