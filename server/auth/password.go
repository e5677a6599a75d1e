package auth

import (
	"golang.org/x/crypto/bcrypt"

	apperr "github.com/askdoc/askdoc/internal/errors"
)

// HashPassword returns a bcrypt hash of password at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperr.Wrap(err, apperr.ErrCodeInternal, "failed to hash password")
	}
	return string(hash), nil
}

// VerifyPassword checks password against its stored hash.
func VerifyPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return apperr.Unauthorized("invalid credentials")
	}
	return nil
}
