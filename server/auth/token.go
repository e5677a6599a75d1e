// Package auth issues and verifies the access tokens and password hashes
// used by the HTTP surface.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperr "github.com/askdoc/askdoc/internal/errors"
)

// AccessTokenDuration is the lifetime of an issued access token.
const AccessTokenDuration = 60 * time.Minute

// ClaimUserID is the claim carrying the authenticated user's id.
const claimUserID = "id"

// GenerateAccessToken signs an HS256 token for userID.
func GenerateAccessToken(userID int32, secret string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		claimUserID: float64(userID),
		"iat":       now.Unix(),
		"exp":       now.Add(AccessTokenDuration).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", apperr.Wrap(err, apperr.ErrCodeInternal, "failed to sign access token")
	}
	return signed, nil
}

// VerifyAccessToken parses tokenString and returns the user id it carries.
// Expired, malformed, or wrongly-signed tokens yield an UNAUTHORIZED error.
func VerifyAccessToken(tokenString, secret string) (int32, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.Unauthorized("unexpected token signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, apperr.Unauthorized("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, apperr.Unauthorized("malformed token claims")
	}
	id, ok := claims[claimUserID].(float64)
	if !ok || id <= 0 {
		return 0, apperr.Unauthorized("token carries no user id")
	}
	return int32(id), nil
}
