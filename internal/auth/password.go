package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	domainerrors "github.com/ayush/inventory-api/backend/internal/errors"
)

// dummyHash is compared against when the user does not exist so unknown
// usernames cost the same as wrong passwords.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("inventory-api/dummy"), bcrypt.DefaultCost)

// hashPassword hashes password with bcrypt. bcrypt limits input to 72
// bytes, which the rune-counting validator cannot enforce.
func hashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"password": "password must be at most 72 bytes",
		})
	}
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
