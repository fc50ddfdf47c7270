package auth

import (
	"errors"
	"strings"
)

var (
	// ErrMissingKey is returned when a guarded request carries no key.
	ErrMissingKey = errors.New("admin key required")
	// ErrInvalidKey is returned when the presented key does not match.
	ErrInvalidKey = errors.New("invalid admin key")
)

// KeyVerifier checks admin keys presented by API clients.
type KeyVerifier interface {
	Enabled() bool
	Verify(key string) error
}

// AdminKey verifies keys against a stored hash. An empty hash disables the guard.
type AdminKey struct {
	hash   string
	hasher PasswordHasher
}

// NewAdminKey creates AdminKey for hash.
func NewAdminKey(hash string, hasher PasswordHasher) *AdminKey {
	return &AdminKey{hash: strings.TrimSpace(hash), hasher: hasher}
}

// Enabled reports whether a key is required.
func (a *AdminKey) Enabled() bool {
	return a.hash != ""
}

// Verify returns nil when the guard is disabled or key matches the stored hash.
func (a *AdminKey) Verify(key string) error {
	if !a.Enabled() {
		return nil
	}
	if key == "" {
		return ErrMissingKey
	}
	if err := a.hasher.Compare(a.hash, key); err != nil {
		return ErrInvalidKey
	}
	return nil
}
