package auth

import (
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultBcryptCost is the work factor for the cached credential. The
	// hash sits in a local SQLite file, so it leans toward the strong end.
	DefaultBcryptCost = 12
)

// PasswordHasher hashes the password of the last successful remote login
// so it can be checked again when the store API is unreachable. The
// plaintext is never persisted.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a hasher with the default work factor.
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{
		cost: DefaultBcryptCost,
	}
}

// Hash derives the bcrypt hash stored alongside the cached username.
func (h *PasswordHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify reports whether the offered password matches the cached hash.
func (h *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
