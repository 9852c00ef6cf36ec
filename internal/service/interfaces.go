package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/minibank/internal/domain"
)

type accountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance decimal.Decimal, newVersion int64) error
}

type transactionRepository interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error
	GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Transaction, int, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type passwordHasher interface {
	Hash(plaintext string) (string, error)
}

type eventPublisher interface {
	PublishTransactions(ctx context.Context, txns ...*domain.Transaction) error
}
