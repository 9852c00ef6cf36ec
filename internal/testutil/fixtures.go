package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/minibank/internal/domain"
)

const TestPassword = "password123"

// SeedAccount inserts an account directly, bypassing the ledger, so tests can
// start from an arbitrary balance without a matching transaction history.
func SeedAccount(t *testing.T, db *sql.DB, username string, balance string) *domain.Account {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()
	a := &domain.Account{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		Balance:      decimal.RequireFromString(balance),
		Version:      0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = db.Exec(
		`INSERT INTO accounts (id, username, password_hash, balance, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.Username, a.PasswordHash, a.Balance, a.Version, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed account %s: %v", username, err)
	}
	return a
}

func GetAccountBalance(t *testing.T, db *sql.DB, accountID uuid.UUID) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(`SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if err != nil {
		t.Fatalf("get account balance %s: %v", accountID, err)
	}
	return balance
}

func SumBalances(t *testing.T, db *sql.DB) decimal.Decimal {
	t.Helper()

	var sum decimal.Decimal
	err := db.QueryRow(`SELECT COALESCE(SUM(balance), 0) FROM accounts`).Scan(&sum)
	if err != nil {
		t.Fatalf("sum balances: %v", err)
	}
	return sum
}

func CountTransactions(t *testing.T, db *sql.DB, accountID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		t.Fatalf("count transactions for account %s: %v", accountID, err)
	}
	return count
}

// Amount is a test shorthand for decimal.RequireFromString.
func Amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
