package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Role string

// RoleUser is the only authority an account is ever granted.
const RoleUser Role = "user"

type Account struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Balance      decimal.Decimal
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccountView is what the authentication layer needs to verify a login.
type AccountView struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Role         Role
}

var usernamePattern = regexp.MustCompile(`^[a-z0-9_.-]{3,32}$`)

// ValidUsername reports whether an already-normalized username is acceptable.
func ValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}
