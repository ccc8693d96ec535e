package auth

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is adjustable so tests can use bcrypt.MinCost
var bcryptCost int32 = 12

// SetBcryptCost overrides the bcrypt cost. Intended for tests.
func SetBcryptCost(cost int) {
	atomic.StoreInt32(&bcryptCost, int32(cost))
}

// HashPassword hashes a plaintext password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), int(atomic.LoadInt32(&bcryptCost)))
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash
func CheckPassword(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return fmt.Errorf("invalid credentials: %w", err)
	}
	return nil
}
