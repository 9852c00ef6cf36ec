package service

import (
	"fmt"
	"strings"

	"github.com/josh-kwaku/minibank/internal/domain"
)

const MinPasswordLength = 8

// MaxPasswordLength is bcrypt's input limit in bytes.
const MaxPasswordLength = 72

// NormalizeUsername lowercases and trims a username so lookups are
// case-insensitive.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func validateCredentials(username, password string) error {
	if !domain.ValidUsername(username) {
		return fmt.Errorf("username must be 3-32 characters of a-z, 0-9, '_', '.', '-': %w", domain.ErrInvalidRequest)
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters: %w", MinPasswordLength, domain.ErrInvalidRequest)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("password must be at most %d bytes: %w", MaxPasswordLength, domain.ErrInvalidRequest)
	}
	return nil
}
