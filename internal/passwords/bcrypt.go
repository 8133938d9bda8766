// Package passwords hashes and verifies user passwords with bcrypt.
package passwords

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MaxLength is the longest password bcrypt accepts, in bytes.
const MaxLength = 72

var (
	// ErrEmptyPassword is returned when hashing an empty password.
	ErrEmptyPassword = errors.New("password must not be empty")
	// ErrPasswordTooLong is returned for passwords longer than MaxLength bytes.
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

// TooLong reports whether password exceeds what bcrypt can hash.
func TooLong(password string) bool {
	return len(password) > MaxLength
}

// Bcrypt hashes passwords with a fixed cost.
type Bcrypt struct {
	cost int
}

// New creates a Bcrypt hasher. A cost outside bcrypt's range falls back to bcrypt.DefaultCost.
func New(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Hash returns the salted bcrypt hash of password.
func (b *Bcrypt) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if TooLong(password) {
		return "", ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare reports whether candidate matches hash. A malformed hash is a mismatch.
func (b *Bcrypt) Compare(hash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}
