package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/minibank/internal/domain"
)

var ErrPasswordMismatch = errors.New("password mismatch")

// BcryptHasher is the credential hashing capability handed to the ledger
// service at registration and to the login handler for verification.
type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.Cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("Hash: %w: %w", domain.ErrInvalidRequest, err)
	}
	if err != nil {
		return "", fmt.Errorf("Hash: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Compare(hash, plaintext string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("Compare: %w", err)
	}
	return nil
}
